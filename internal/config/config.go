// Package config loads and validates project configuration: the YAML
// document describing a run's cluster topology, workloads, scheduler
// selection, and post-run actions. Decoding is strict (unknown keys
// rejected via yaml.Decoder.KnownFields) and separate from Validate,
// which checks the decoded values against a registry of recognized names.
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/elise-sim/elise/internal/simerr"
)

// ClusterSpec is one workload's cluster topology: nodes x socket-conf.
type ClusterSpec struct {
	Nodes      int   `yaml:"nodes"`
	SocketConf []int `yaml:"socket-conf"`
}

// WorkloadSpec names one job trace plus the cluster it runs against and
// the (optional) heatmap file used to resolve co-location speedups.
type WorkloadSpec struct {
	Name        string      `yaml:"name"`
	JobsFile    string      `yaml:"jobs-file"`
	HeatmapFile string      `yaml:"heatmap-file"`
	Cluster     ClusterSpec `yaml:"cluster"`
}

// SchedulersSpec names the scheduler to run by default, the set of other
// scheduler names a comparison run should also execute, and whether
// backfill is enabled for policies that support it.
type SchedulersSpec struct {
	Default         string     `yaml:"default"`
	Others          []string   `yaml:"others"`
	BackfillEnabled bool       `yaml:"backfill-enabled"`
	CoScheduler     CoSchedSpec `yaml:"cosched"`
}

// CoSchedSpec carries the co-scheduler-only knobs layered on top of
// the base scheduler contract: the pair-acceptance threshold, the spread
// eligibility ceiling, and aging-based starvation prevention. Only
// consulted when Default or Others names a Ranks-style policy.
type CoSchedSpec struct {
	SpeedupThreshold  float64 `yaml:"speedup-threshold"`
	SystemUtilization float64 `yaml:"system-utilization"`
	AgingEnabled      bool    `yaml:"aging-enabled"`
	AgingThreshold    int     `yaml:"aging-threshold"`
	RNGSeed           int64   `yaml:"rng-seed"`
}

// ActionsSpec holds the project file's post-run reporting selectors. The
// run command does not read them: trace export is gated by ELiSE_REPORT
// (RunOptions.Report) instead.
type ActionsSpec struct {
	Report       bool   `yaml:"report"`
	Progress     bool   `yaml:"progress"`
	WriteTrace   string `yaml:"write-trace"`
	WriteGantt   string `yaml:"write-gantt"`
	WriteSummary string `yaml:"write-summary"`
}

// ProjectConfig is the full, strictly-decoded project configuration file.
type ProjectConfig struct {
	Name       string         `yaml:"name"`
	Workloads  []WorkloadSpec `yaml:"workloads"`
	Schedulers SchedulersSpec `yaml:"schedulers"`
	Actions    ActionsSpec    `yaml:"actions"`
}

// registeredSchedulers is the closed set of scheduler names Validate
// accepts in Schedulers.Default/Others. Kept here rather than importing
// internal/scheduler or internal/cosched, which would make config depend
// on every policy package it merely names.
var registeredSchedulers = map[string]bool{
	"fifo":         true,
	"easy":         true,
	"conservative": true,
	"filler-ranks": true,
	"random-ranks": true,
}

// Load reads path, strictly decodes it (unknown keys are rejected), and
// validates the result.
func Load(path string) (*ProjectConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &simerr.ConfigErr{Detail: fmt.Sprintf("opening %s", path), Cause: err}
	}
	defer f.Close()

	var cfg ProjectConfig
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, &simerr.ConfigErr{Detail: fmt.Sprintf("parsing %s", path), Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the config names a recognized scheduler, that
// every workload has a non-empty cluster topology, and that a workload
// name is never repeated (the run report keys results by workload name).
func (c *ProjectConfig) Validate() error {
	if c.Name == "" {
		return &simerr.ConfigErr{Detail: "project name must not be empty"}
	}
	if len(c.Workloads) == 0 {
		return &simerr.ConfigErr{Detail: "at least one workload is required"}
	}
	if !registeredSchedulers[c.Schedulers.Default] {
		return &simerr.ConfigErr{Detail: fmt.Sprintf("unknown default scheduler %q; valid options: %s",
			c.Schedulers.Default, validNames(registeredSchedulers))}
	}
	for _, other := range c.Schedulers.Others {
		if !registeredSchedulers[other] {
			return &simerr.ConfigErr{Detail: fmt.Sprintf("unknown scheduler %q in schedulers.others; valid options: %s",
				other, validNames(registeredSchedulers))}
		}
	}

	seen := make(map[string]bool, len(c.Workloads))
	for _, w := range c.Workloads {
		if w.Name == "" {
			return &simerr.ConfigErr{Detail: "workload name must not be empty"}
		}
		if seen[w.Name] {
			return &simerr.ConfigErr{Detail: fmt.Sprintf("duplicate workload name %q", w.Name)}
		}
		seen[w.Name] = true
		if w.Cluster.Nodes <= 0 {
			return &simerr.ConfigErr{Detail: fmt.Sprintf("workload %q: cluster.nodes must be positive", w.Name)}
		}
		if len(w.Cluster.SocketConf) == 0 {
			return &simerr.ConfigErr{Detail: fmt.Sprintf("workload %q: cluster.socket-conf must not be empty", w.Name)}
		}
		for _, cores := range w.Cluster.SocketConf {
			if cores <= 0 {
				return &simerr.ConfigErr{Detail: fmt.Sprintf("workload %q: cluster.socket-conf entries must be positive", w.Name)}
			}
		}
		if w.JobsFile == "" {
			return &simerr.ConfigErr{Detail: fmt.Sprintf("workload %q: jobs-file must not be empty", w.Name)}
		}
	}
	return nil
}

// RegisteredSchedulerNames returns the sorted set of scheduler names a
// config's schedulers.default/others may name.
func RegisteredSchedulerNames() []string {
	return validNamesList(registeredSchedulers)
}

func validNamesList(m map[string]bool) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func validNames(m map[string]bool) string {
	names := validNamesList(m)
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
