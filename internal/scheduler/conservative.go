package scheduler

import "sort"

// Conservative maintains a projection table of tentative start times for
// every waiting job, computed by virtually placing the queue in order
// onto the future timeline implied by currently executing jobs. A
// candidate may start immediately only if its own projected start has
// already arrived; the table is rebuilt after every successful deploy.
type Conservative struct {
	FIFO
	Projections map[string]float64
	// Disabled, when true, makes Conservative behave as plain FIFO: Backfill
	// is never invoked. Set from a project config's schedulers.backfill-enabled.
	Disabled bool
}

func NewConservative() *Conservative { return &Conservative{} }

func (c *Conservative) BackfillEnabled() bool { return !c.Disabled }

type placedInterval struct {
	start, end float64
	cores      int
}

// project recomputes c.Projections over the current waiting queue in
// order, seeded with the timeline occupied by already-executing jobs.
func (c *Conservative) project() {
	cap := c.Cluster.Capacity()

	var placed []placedInterval
	for _, x := range c.Cluster.ExecutionList {
		for _, j := range x.RealJobs() {
			placed = append(placed, placedInterval{
				start: j.StartTime,
				end:   c.Cluster.Makespan + j.RemainingTime,
				cores: j.AssignedCores.Cardinality(),
			})
		}
	}

	projections := make(map[string]float64, len(c.Cluster.WaitingQueue))
	for _, cand := range c.Cluster.WaitingQueue {
		start := earliestFit(placed, cap, cand.NumOfProcesses, cand.RemainingTime, c.Cluster.Makespan)
		projections[cand.Signature()] = start
		placed = append(placed, placedInterval{start: start, end: start + cand.RemainingTime, cores: cand.NumOfProcesses})
	}
	c.Projections = projections
}

// earliestFit returns the earliest time at or after earliestFrom where a
// job needing `need` cores for `dur` time units fits without exceeding
// cap, given the already-placed intervals.
func earliestFit(placed []placedInterval, cap, need int, dur, earliestFrom float64) float64 {
	candidates := []float64{earliestFrom}
	for _, p := range placed {
		if p.end >= earliestFrom {
			candidates = append(candidates, p.end)
		}
	}
	sort.Float64s(candidates)
	for _, t := range candidates {
		if t < earliestFrom {
			continue
		}
		if fitsAt(placed, cap, need, t, t+dur) {
			return t
		}
	}
	return earliestFrom
}

// fitsAt reports whether `need` additional cores fit within cap across
// [start, end), sampled at start and at every placed interval boundary
// strictly inside the window.
func fitsAt(placed []placedInterval, cap, need int, start, end float64) bool {
	times := []float64{start}
	for _, p := range placed {
		if p.start > start && p.start < end {
			times = append(times, p.start)
		}
	}
	for _, t := range times {
		used := 0
		for _, p := range placed {
			if p.start <= t && t < p.end {
				used += p.cores
			}
		}
		if used+need > cap {
			return false
		}
	}
	return true
}

// Backfill recomputes the projection table, then starts every waiting job
// (in queue order) whose own projected start has already arrived. The
// table is rebuilt from the current state on every call; start times
// promised by earlier projections are not stored, so they are not enforced.
func (c *Conservative) Backfill() (bool, error) {
	c.project()
	changed := false
	for i := 0; i < len(c.Cluster.WaitingQueue); {
		cand := c.Cluster.WaitingQueue[i]
		start, ok := c.Projections[cand.Signature()]
		if !ok || start > c.Cluster.Makespan {
			i++
			continue
		}
		placedOK, err := c.CompactAllocation(cand, c.HostAllocCondition)
		if err != nil {
			return changed, err
		}
		if !placedOK {
			i++
			continue
		}
		c.Cluster.WaitingQueue = append(c.Cluster.WaitingQueue[:i], c.Cluster.WaitingQueue[i+1:]...)
		c.Logger.RecordPlacement("compact")
		changed = true
		c.project()
	}
	return changed, nil
}
