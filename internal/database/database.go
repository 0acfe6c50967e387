// Package database owns the preloaded job queue and the speedup heatmap
// that feed a simulation instance at setup.
package database

import (
	"github.com/elise-sim/elise/internal/heatmap"
	"github.com/elise-sim/elise/internal/job"
)

// Database holds the jobs materialized by an external generator (out of
// scope for this core) before the simulation starts, plus the pairwise
// speedup heatmap.
type Database struct {
	PreloadedQueue []*job.Job
	Heatmap        *heatmap.Heatmap
}

// New constructs a Database from an already-materialized job list and
// heatmap.
func New(preloaded []*job.Job, hm *heatmap.Heatmap) *Database {
	return &Database{PreloadedQueue: preloaded, Heatmap: hm}
}

// Setup pulls MaxSpeedup/AvgSpeedup/MinSpeedup from the heatmap diagonal
// for any job that didn't already have them populated by the generator.
func (d *Database) Setup() {
	for _, j := range d.PreloadedQueue {
		if j.MaxSpeedup != 0 && j.AvgSpeedup != 0 && j.MinSpeedup != 0 {
			continue
		}
		r := d.Heatmap.Solo(j.JobName)
		if r.Status != heatmap.Defined {
			continue
		}
		j.MaxSpeedup = r.Value
		j.AvgSpeedup = r.Value
		j.MinSpeedup = r.Value
	}
}
