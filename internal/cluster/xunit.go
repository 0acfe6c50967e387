package cluster

import "github.com/elise-sim/elise/internal/job"

// Xunit (execution unit) is an ordered group of co-running jobs sharing a
// disjoint set of processors. The first member is the head (the largest
// resource holder); an optional trailing idle job represents still-free
// processors reserved for this xunit's future expansion.
type Xunit struct {
	Members []*job.Job
}

// Head returns the xunit's largest resource holder, or nil if empty.
func (x *Xunit) Head() *job.Job {
	if len(x.Members) == 0 {
		return nil
	}
	return x.Members[0]
}

// IdleJob returns the trailing idle job, or nil if the xunit is filled.
func (x *Xunit) IdleJob() *job.Job {
	if len(x.Members) == 0 {
		return nil
	}
	last := x.Members[len(x.Members)-1]
	if last.IsEmptyJob() {
		return last
	}
	return nil
}

// Filled reports whether the xunit carries no idle tail.
func (x *Xunit) Filled() bool {
	return x.IdleJob() == nil
}

// RealJobs returns every member excluding the trailing idle job, if any.
func (x *Xunit) RealJobs() []*job.Job {
	if x.Filled() {
		return x.Members
	}
	return x.Members[:len(x.Members)-1]
}

// Tails returns every co-located job sharing the xunit's processors that
// is not the head (and is not the idle tail).
func (x *Xunit) Tails() []*job.Job {
	real := x.RealJobs()
	if len(real) <= 1 {
		return nil
	}
	return real[1:]
}

// RemoveMember deletes the job with the given signature from the xunit, if
// present.
func (x *Xunit) RemoveMember(signature string) {
	out := x.Members[:0]
	for _, m := range x.Members {
		if m.Signature() != signature {
			out = append(out, m)
		}
	}
	x.Members = out
}

// OnlyIdleRemains reports whether the xunit's sole remaining member is the
// idle job (i.e. every real job has finished and it should be discarded).
func (x *Xunit) OnlyIdleRemains() bool {
	return len(x.Members) == 1 && x.Members[0].IsEmptyJob()
}
