package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/elise-sim/elise/internal/cluster"
	"github.com/elise-sim/elise/internal/config"
	"github.com/elise-sim/elise/internal/database"
	"github.com/elise-sim/elise/internal/engine"
	"github.com/elise-sim/elise/internal/tracelog"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every workload in the project configuration against its schedulers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		names := append([]string{cfg.Schedulers.Default}, cfg.Schedulers.Others...)
		for _, w := range cfg.Workloads {
			for _, name := range names {
				result, err := runWorkload(w, cfg.Schedulers, name)
				if err != nil {
					return fmt.Errorf("workload %q, scheduler %q: %w", w.Name, name, err)
				}
				printReport(w.Name, name, result)
			}
		}
		return nil
	},
}

type runResult struct {
	makespan float64
	logger   *tracelog.Logger
}

func runWorkload(w config.WorkloadSpec, sc config.SchedulersSpec, schedName string) (*runResult, error) {
	jobs, err := database.LoadJobs(w.JobsFile)
	if err != nil {
		return nil, err
	}
	hm, err := loadHeatmapOrEmpty(w.HeatmapFile)
	if err != nil {
		return nil, err
	}

	c := cluster.New(w.Cluster.Nodes, w.Cluster.SocketConf)
	c.Setup()
	db := database.New(jobs, hm)
	db.Setup()

	sched, err := buildScheduler(schedName, sc)
	if err != nil {
		return nil, err
	}

	e := engine.New(db, c, sched)
	logrus.Infof("workload=%s scheduler=%s nodes=%d socket-conf=%v jobs=%d",
		w.Name, schedName, w.Cluster.Nodes, w.Cluster.SocketConf, len(jobs))

	if err := e.Run(); err != nil {
		return nil, err
	}
	return &runResult{makespan: e.Cluster.Makespan, logger: e.Logger}, nil
}

// printReport prints the run's summary to stdout, grounded on the
// teacher's Metrics.Print pattern: a fixed-width labeled block of
// aggregate statistics, emitted once per completed run.
func printReport(workload, schedName string, r *runResult) {
	mean, variance := r.logger.UtilizationSummary()
	fmt.Printf("=== %s / %s ===\n", workload, schedName)
	fmt.Printf("Makespan             : %.2f\n", r.makespan)
	fmt.Printf("Jobs completed       : %d\n", r.logger.Counters.Success)
	fmt.Printf("Failed deploy passes : %d\n", r.logger.Counters.Failed)
	fmt.Printf("Placements           : compact=%d spread=%d exec-colocation=%d wait-colocation=%d\n",
		r.logger.Counters.Compact, r.logger.Counters.Spread, r.logger.Counters.ExecColocation, r.logger.Counters.WaitColocation)
	fmt.Printf("Unused cores         : mean=%.2f variance=%.2f\n", mean, variance)

	if runOpts.Report {
		path := fmt.Sprintf("%s/%s-%s.swf", runOpts.WorkingDir, workload, schedName)
		f, err := os.Create(path)
		if err != nil {
			logrus.Warnf("writing trace report %s: %v", path, err)
			return
		}
		defer f.Close()
		if err := r.logger.WriteWorkload(f); err != nil {
			logrus.Warnf("writing trace report %s: %v", path, err)
		}
	}
}
