package scheduler

// FIFO deploys the waiting queue in original order, attempting compact
// allocation for the head job and stopping at the first failure — strict
// head-of-line blocking, no backfill.
type FIFO struct {
	Base
}

func NewFIFO() *FIFO { return &FIFO{} }

func (f *FIFO) Deploy() (bool, error) {
	changed := false
	for len(f.Cluster.WaitingQueue) > 0 {
		head := f.Cluster.WaitingQueue[0]
		ok, err := f.CompactAllocation(head, f.HostAllocCondition)
		if err != nil {
			return changed, err
		}
		if !ok {
			break
		}
		f.Cluster.WaitingQueue = f.Cluster.WaitingQueue[1:]
		f.Logger.RecordPlacement("compact")
		changed = true
	}
	if !changed {
		f.Logger.RecordFailedDeploy()
	}
	return changed, nil
}
