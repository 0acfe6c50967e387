// Package tracelog is the event sink for a simulation run: it records
// every job start/finish and derives the Gantt and Standard Workload
// Format traces consumers (dashboards, plotting, CSV export — all out of
// scope for this core) read from.
//
// This package has no dependency on internal/cluster or internal/engine —
// it stores pure data.
package tracelog

import "github.com/elise-sim/elise/internal/procset"

// JobRecord accumulates the timestamps and processor footprint of one job
// across its lifetime.
type JobRecord struct {
	ID         string // uuid assigned on first reference; GanttRect and SWF rows do not carry it
	Signature  string
	SubmitTime float64
	StartTime  float64
	WaitTime   float64
	FinishTime float64
	Hosts      map[string]bool
	ProcSets   map[string]procset.ProcSet // host name -> cores held on that host
	Requested  int
	WallTime   float64
}

// newJobRecord returns a zeroed record ready to accumulate events.
func newJobRecord(signature string, submitTime float64, requested int, wallTime float64) *JobRecord {
	return &JobRecord{
		Signature:  signature,
		SubmitTime: submitTime,
		FinishTime: -1,
		Hosts:      map[string]bool{},
		ProcSets:   map[string]procset.ProcSet{},
		Requested:  requested,
		WallTime:   wallTime,
	}
}

// Checkpoint is one point on the cluster-wide utilization timeline.
type Checkpoint struct {
	Time         float64
	UnusedCores  int
	FinishedJobs int
	WaitingJobs  int
}

// DeployCounters tallies how often each placement strategy succeeded or
// failed across the run.
type DeployCounters struct {
	Spread           int
	Compact          int
	Success          int
	Failed           int
	ExecColocation   int
	WaitColocation   int
}
