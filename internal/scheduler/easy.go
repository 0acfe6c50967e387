package scheduler

import "sort"

// EASY embeds FIFO's head-of-line Deploy and adds reservation-based
// backfilling: when the head job cannot start, later jobs may jump ahead
// of it so long as doing so does not delay the head past its computed
// reservation time.
type EASY struct {
	FIFO
	// BackfillDepth caps how many waiting-queue jobs (after the head) are
	// considered per backfill pass. Zero means unlimited.
	BackfillDepth int
	// Disabled, when true, makes EASY behave as plain FIFO: Backfill is
	// never invoked. Set from a project config's schedulers.backfill-enabled.
	Disabled bool
}

func NewEASY() *EASY { return &EASY{} }

func (e *EASY) BackfillEnabled() bool { return !e.Disabled }

// Backfill computes the head job's reservation time from the projected
// finish times of currently executing jobs, then starts any later job
// that both fits in currently-free processors and finishes (by wall_time)
// before that reservation.
func (e *EASY) Backfill() (bool, error) {
	if len(e.Cluster.WaitingQueue) == 0 {
		return false, nil
	}
	head := e.Cluster.WaitingQueue[0]

	type finishEvt struct {
		at    float64
		cores int
	}
	var evts []finishEvt
	for _, x := range e.Cluster.ExecutionList {
		for _, j := range x.RealJobs() {
			evts = append(evts, finishEvt{
				at:    e.Cluster.Makespan + j.RemainingTime,
				cores: j.AssignedCores.Cardinality(),
			})
		}
	}
	sort.Slice(evts, func(i, k int) bool { return evts[i].at < evts[k].at })

	freed := e.Cluster.GetIdleCores()
	reservation := e.Cluster.Makespan
	for _, ev := range evts {
		if freed >= head.NumOfProcesses {
			break
		}
		freed += ev.cores
		reservation = ev.at
	}
	if freed < head.NumOfProcesses {
		return false, nil
	}

	depth := e.BackfillDepth
	if depth <= 0 {
		depth = len(e.Cluster.WaitingQueue)
	}

	changed := false
	considered := 0
	for i := 1; i < len(e.Cluster.WaitingQueue) && considered < depth; i++ {
		cand := e.Cluster.WaitingQueue[i]
		considered++
		if cand.NumOfProcesses > e.Cluster.GetIdleCores() {
			continue
		}
		if cand.WallTime > reservation-e.Cluster.Makespan {
			continue
		}
		ok, err := e.CompactAllocation(cand, e.HostAllocCondition)
		if err != nil {
			return changed, err
		}
		if !ok {
			continue
		}
		e.Cluster.WaitingQueue = append(e.Cluster.WaitingQueue[:i], e.Cluster.WaitingQueue[i+1:]...)
		i--
		e.Logger.RecordPlacement("compact")
		changed = true
	}
	return changed, nil
}
