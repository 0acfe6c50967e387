// Package engine implements the Compute Engine: the discrete-event loop
// that drives the scheduler, advances simulated time, finishes due jobs,
// and keeps every running job's co-execution speedup current.
package engine

import (
	"fmt"
	"sort"

	"github.com/elise-sim/elise/internal/cluster"
	"github.com/elise-sim/elise/internal/database"
	"github.com/elise-sim/elise/internal/heatmap"
	"github.com/elise-sim/elise/internal/job"
	"github.com/elise-sim/elise/internal/procset"
	"github.com/elise-sim/elise/internal/scheduler"
	"github.com/elise-sim/elise/internal/simerr"
	"github.com/elise-sim/elise/internal/tracelog"
)

const finishEpsilon = 1e-9

// Engine owns the Database, Cluster, Scheduler, and Logger for one
// simulation run and drives sim_step to completion. It is the only
// component that advances Cluster.Makespan.
type Engine struct {
	Database  *database.Database
	Cluster   *cluster.Cluster
	Scheduler scheduler.Scheduler
	Logger    *tracelog.Logger

	started map[string]bool
}

// New wires a Database, Cluster, and Scheduler into a ready Engine,
// constructing its own Logger sized to the cluster's capacity.
func New(db *database.Database, c *cluster.Cluster, sched scheduler.Scheduler) *Engine {
	l := tracelog.Setup(c.Capacity())
	sched.Setup(c, l, db.Heatmap)
	return &Engine{
		Database:  db,
		Cluster:   c,
		Scheduler: sched,
		Logger:    l,
		started:   map[string]bool{},
	}
}

// SetupPreloadedJobs moves every Database job whose submit_time has
// arrived into the cluster's waiting queue, in submission order. At t=0
// this moves every job with submit_time == 0 (the common preloaded-model
// case); jobs with a later submit_time are deferred to the first
// SimStep call whose makespan has reached them.
func (e *Engine) SetupPreloadedJobs() error {
	return e.admitDueJobs()
}

func (e *Engine) admitDueJobs() error {
	var remaining []*job.Job
	for _, j := range e.Database.PreloadedQueue {
		if j.SubmitTime > e.Cluster.Makespan {
			remaining = append(remaining, j)
			continue
		}
		if j.NumOfProcesses > e.Cluster.Capacity() {
			return &simerr.ResourceExhaustedErr{
				JobSignature: j.Signature(),
				Requested:    j.NumOfProcesses,
				Capacity:     e.Cluster.Capacity(),
			}
		}
		e.Cluster.WaitingQueue = append(e.Cluster.WaitingQueue, j)
	}
	e.Database.PreloadedQueue = remaining
	return nil
}

// SimStep runs one atomic simulation tick: deploy/backfill, compute the
// minimal Δt across executing jobs, advance remaining_time and makespan,
// sweep finished jobs, and re-normalize co-tenant speedups. Returns
// (advanced, err): advanced is false when the tick was a no-op (nothing
// executing and nothing waiting).
func (e *Engine) SimStep() (bool, error) {
	if _, err := e.Scheduler.Deploy(); err != nil {
		return false, err
	}
	if e.Scheduler.BackfillEnabled() {
		if _, err := e.Scheduler.Backfill(); err != nil {
			return false, err
		}
	}
	e.logNewStarts()

	executing := e.executingJobs()
	if len(executing) == 0 {
		if len(e.Cluster.WaitingQueue) > 0 {
			head := e.Cluster.WaitingQueue[0]
			return false, &simerr.DeadlockErr{
				HeadJobSignature: head.Signature(),
				Unmet:            fmt.Sprintf("requests %d processors", head.NumOfProcesses),
			}
		}
		return false, nil
	}

	// RemainingTime is always carried in wall-clock units at the job's
	// current SimSpeedup (ratio_rem_time keeps it that way across every
	// rescale), so the next event is simply the smallest RemainingTime
	// among the currently executing jobs.
	dt := executing[0].RemainingTime
	for _, j := range executing[1:] {
		if j.RemainingTime < dt {
			dt = j.RemainingTime
		}
	}

	for _, j := range executing {
		j.RemainingTime -= dt
	}
	for _, j := range e.Cluster.WaitingQueue {
		j.WaitingTime += dt
	}
	e.Cluster.Makespan += dt

	if err := e.sweepFinished(); err != nil {
		return false, err
	}
	if err := e.admitDueJobs(); err != nil {
		return false, err
	}
	return true, nil
}

// Run drives SimStep to completion: while the database, waiting queue, or
// execution list still holds work, advance. Returns the first error
// encountered (deadlock, a nonconvergent speedup, or a propagated
// scheduler error).
func (e *Engine) Run() error {
	if err := e.SetupPreloadedJobs(); err != nil {
		return err
	}
	for e.hasWork() {
		if _, err := e.SimStep(); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) hasWork() bool {
	if len(e.Database.PreloadedQueue) > 0 || len(e.Cluster.WaitingQueue) > 0 {
		return true
	}
	return len(e.executingJobs()) > 0
}

// hostCores returns the per-host ProcSet j currently holds, read back from
// each host's own bookkeeping (the authoritative source of truth).
func (e *Engine) hostCores(j *job.Job) map[string]procset.ProcSet {
	out := make(map[string]procset.ProcSet, len(j.AssignedHosts))
	for host := range j.AssignedHosts {
		if h, ok := e.Cluster.Hosts[host]; ok {
			out[host] = h.Jobs[j.Signature()]
		}
	}
	return out
}

func (e *Engine) executingJobs() []*job.Job {
	var out []*job.Job
	for _, x := range e.Cluster.ExecutionList {
		out = append(out, x.RealJobs()...)
	}
	return out
}

// logNewStarts logs JobStart for every execution-list member not yet
// seen, in ExecutionList traversal order — which matches the scheduler's
// placement order for newly-appended xunits (compact/spread/pair) and
// approximates it for colocate-to-xunit seating onto an older xunit.
func (e *Engine) logNewStarts() {
	for _, x := range e.Cluster.ExecutionList {
		for _, j := range x.RealJobs() {
			sig := j.Signature()
			if e.started[sig] {
				continue
			}
			e.started[sig] = true
			j.StartTime = e.Cluster.Makespan
			e.Logger.Log(tracelog.JobStart, j, e.Cluster.Makespan, e.Cluster.GetIdleCores(), len(e.Cluster.WaitingQueue), e.hostCores(j))
		}
	}
}

// sweepFinished removes every job whose remaining_time has reached zero
// from its xunit, releases its processors, logs JobFinish (ascending by
// job_id), and re-normalizes the speedup of any surviving co-tenants.
func (e *Engine) sweepFinished() error {
	type finishing struct {
		j *job.Job
		x *cluster.Xunit
	}
	var due []finishing
	for _, x := range e.Cluster.ExecutionList {
		for _, j := range x.RealJobs() {
			if j.RemainingTime <= finishEpsilon {
				due = append(due, finishing{j: j, x: x})
			}
		}
	}
	sort.Slice(due, func(i, k int) bool { return due[i].j.JobID < due[k].j.JobID })

	touched := map[*cluster.Xunit]bool{}
	for _, f := range due {
		j, x := f.j, f.x
		for host := range j.AssignedHosts {
			e.Cluster.ReleaseFromHost(host, j.Signature())
		}
		j.State = job.Finished
		j.FinishTime = e.Cluster.Makespan
		x.RemoveMember(j.Signature())
		e.Logger.Log(tracelog.JobFinish, j, e.Cluster.Makespan, e.Cluster.GetIdleCores(), len(e.Cluster.WaitingQueue), nil)
		touched[x] = true
	}

	for x := range touched {
		if err := e.renormalize(x); err != nil {
			return err
		}
	}

	var kept []*cluster.Xunit
	for _, x := range e.Cluster.ExecutionList {
		if len(x.Members) == 0 || x.OnlyIdleRemains() {
			continue
		}
		kept = append(kept, x)
	}
	e.Cluster.ExecutionList = kept
	return nil
}

// renormalize recomputes the effective speedup of x's surviving real
// members after a co-tenant finished: a sole survivor reverts to its solo
// speedup, and the remaining tenants of a larger xunit are rescaled
// against its new head.
func (e *Engine) renormalize(x *cluster.Xunit) error {
	real := x.RealJobs()
	switch {
	case len(real) == 0:
		return nil
	case len(real) == 1:
		solo := real[0]
		soloSpeedup := 1.0
		if solo.JobCharacter == job.Spread {
			soloSpeedup = solo.MaxSpeedup
		}
		return e.Cluster.RatioRemTimeAlone(solo, soloSpeedup)
	default:
		head := real[0]
		for _, tenant := range real[1:] {
			r := e.Database.Heatmap.Lookup(tenant.JobName, head.JobName)
			if r.Status != heatmap.Defined {
				continue
			}
			if err := e.Cluster.RatioRemTimeTo(tenant, r.Value); err != nil {
				return err
			}
		}
		return nil
	}
}
