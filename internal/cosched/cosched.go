// Package cosched implements the co-scheduler family: placement policies
// that, unlike the plain schedulers in internal/scheduler, actively seek
// out beneficial co-locations using the heatmap before falling back to
// exclusive compact placement.
package cosched

import (
	"sort"

	"github.com/elise-sim/elise/internal/cluster"
	"github.com/elise-sim/elise/internal/heatmap"
	"github.com/elise-sim/elise/internal/job"
	"github.com/elise-sim/elise/internal/procset"
	"github.com/elise-sim/elise/internal/scheduler"
)

// Predictor substitutes for a missing heatmap entry, typically backed by
// a learned model fit over observed pairings.
type Predictor func(tagA, tagB string) (speedup float64, ok bool)

// Config holds the co-scheduler-specific knobs layered on top of the
// placement primitives shared with the plain schedulers.
type Config struct {
	// SpeedupThreshold is the minimum pair-averaged speedup required to
	// accept a co-location.
	SpeedupThreshold float64
	// SystemUtilization gates spread eligibility: spread is only
	// attempted while idle capacity exceeds 1-SystemUtilization.
	SystemUtilization float64
	AgingEnabled      bool
	// AgingThreshold is the number of consecutive failed deploy passes a
	// job may accumulate before it is forced into exclusive compact
	// placement regardless of co-location eligibility.
	AgingThreshold int
	Predict        Predictor
}

// CoScheduler is the base placement cascade every concrete co-scheduler
// (FillerRanks, RandomRanks) builds on: colocate onto an existing xunit's
// idle tail, then pair with another waiting job, then spread, then
// compact as a last resort.
type CoScheduler struct {
	scheduler.Base
	Config
	rank func(*job.Job) float64
}

func (c *CoScheduler) BackfillEnabled() bool { return false }

func (c *CoScheduler) WaitingQueueReorder(j *job.Job) float64 {
	if c.rank == nil {
		return 0
	}
	return c.rank(j)
}

// eligible reports whether a and b meet the pair-acceptance threshold: the
// heatmap's two-way mean first, the learned predictor second when the
// heatmap lacks the pairing. The mean is used only for this threshold
// gate; actual rescaling must use the directed speedupOf lookup, since a
// and b do not necessarily slow each other down by the same amount.
func (c *CoScheduler) eligible(a, b *job.Job) (float64, bool) {
	if c.Heatmap != nil {
		if mean, ok := c.Heatmap.PairMean(a.JobName, b.JobName); ok {
			if mean < c.SpeedupThreshold {
				return 0, false
			}
			return mean, true
		}
	}
	if c.Predict != nil {
		speedup, ok := c.Predict(a.JobName, b.JobName)
		if !ok || speedup < c.SpeedupThreshold {
			return 0, false
		}
		return speedup, true
	}
	return 0, false
}

// speedupOf resolves the directed speedup `from` experiences when
// co-located with `to`: heatmap[from][to] if defined, else the learned
// predictor. Unlike eligible's pair mean, this is what actually feeds
// ratio_rem_time, since the heatmap is asymmetric in value.
func (c *CoScheduler) speedupOf(from, to *job.Job) (float64, bool) {
	if c.Heatmap != nil {
		if r := c.Heatmap.Lookup(from.JobName, to.JobName); r.Status == heatmap.Defined {
			return r.Value, true
		}
	}
	if c.Predict != nil {
		return c.Predict(from.JobName, to.JobName)
	}
	return 0, false
}

// Deploy runs the placement cascade over the (reordered) waiting queue:
// jobs that cannot be placed this pass accumulate Age and remain queued.
func (c *CoScheduler) Deploy() (bool, error) {
	c.ReorderWaitingQueue(c.WaitingQueueReorder)

	queue := append([]*job.Job(nil), c.Cluster.WaitingQueue...)
	var stillWaiting []*job.Job
	changed := false

	for _, j := range queue {
		kind, err := c.place(j, &stillWaiting)
		if err != nil {
			return changed, err
		}
		if kind == "" {
			j.Age++
			stillWaiting = append(stillWaiting, j)
			continue
		}
		j.Age = 0
		c.Logger.RecordPlacement(kind)
		changed = true
	}

	c.Cluster.WaitingQueue = stillWaiting
	if !changed {
		c.Logger.RecordFailedDeploy()
	}
	return changed, nil
}

// place runs the cascade for one job: aging override, colocate-to-xunit,
// colocate-with-waiting-job, spread, compact fallback. Returns the
// placement kind tallied by the Logger, or "" if nothing placed it.
func (c *CoScheduler) place(j *job.Job, stillWaiting *[]*job.Job) (string, error) {
	if c.AgingEnabled && c.AgingThreshold > 0 && j.Age >= c.AgingThreshold {
		ok, err := c.CompactAllocation(j, c.HostAllocCondition)
		if err != nil {
			return "", err
		}
		if ok {
			return "compact", nil
		}
	}

	ok, err := c.colocateToXunit(j)
	if err != nil {
		return "", err
	}
	if ok {
		return "exec-colocation", nil
	}

	for i, other := range *stillWaiting {
		ok, err := c.pairColocate(j, other)
		if err != nil {
			return "", err
		}
		if ok {
			*stillWaiting = append((*stillWaiting)[:i], (*stillWaiting)[i+1:]...)
			return "wait-colocation", nil
		}
	}

	if c.spreadEligible() {
		ok, err := c.spread(j)
		if err != nil {
			return "", err
		}
		if ok {
			return "spread", nil
		}
	}

	ok, err = c.CompactAllocation(j, c.HostAllocCondition)
	if err != nil {
		return "", err
	}
	if ok {
		return "compact", nil
	}
	return "", nil
}

func (c *CoScheduler) spreadEligible() bool {
	cap := c.Cluster.Capacity()
	if cap == 0 {
		return false
	}
	idleFraction := float64(c.Cluster.GetIdleCores()) / float64(cap)
	return idleFraction > 1-c.SystemUtilization
}

// colocateToXunit tries to seat j onto an existing xunit's idle tail,
// provided j's speedup against the xunit's head meets the threshold and
// the idle tail holds enough processors.
func (c *CoScheduler) colocateToXunit(j *job.Job) (bool, error) {
	for _, x := range c.Cluster.NonfilledXunits() {
		head := x.Head()
		if head == nil || head.IsEmptyJob() {
			continue
		}
		if _, ok := c.eligible(j, head); !ok {
			continue
		}
		idle := x.IdleJob()
		if idle == nil || idle.NumOfProcesses < j.NumOfProcesses {
			continue
		}
		jSpeedup, ok := c.speedupOf(j, head)
		if !ok {
			continue
		}
		if err := c.shrinkIdleOnto(idle, j, j.NumOfProcesses); err != nil {
			return false, err
		}
		j.State = job.Executing

		newMembers := append([]*job.Job{}, x.Members[:len(x.Members)-1]...)
		newMembers = append(newMembers, j)
		if idle.NumOfProcesses > 0 {
			newMembers = append(newMembers, idle)
		}
		x.Members = newMembers

		if err := c.Cluster.RatioRemTimeTo(j, jSpeedup); err != nil {
			return false, err
		}
		// The head only re-ratios when the new tenant drags it down further
		// than its current speedup; gaining a lighter-touch tenant never
		// makes the head worse off than it already is.
		if headSpeedup, ok := c.speedupOf(head, j); ok && headSpeedup < head.SimSpeedup {
			if err := c.Cluster.RatioRemTimeTo(head, headSpeedup); err != nil {
				return false, err
			}
		}
		return true, nil
	}
	return false, nil
}

// shrinkIdleOnto carves need processors off idle's host-local holdings and
// reserves them to j, shrinking idle's bookkeeping in place.
func (c *CoScheduler) shrinkIdleOnto(idle, j *job.Job, need int) error {
	hosts := make([]string, 0, len(idle.AssignedHosts))
	for h := range idle.AssignedHosts {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)

	remaining := need
	for _, h := range hosts {
		if remaining <= 0 {
			break
		}
		full := c.Cluster.ReleaseFromHost(h, idle.Signature())
		take := full.Take(remaining)
		rest := full.Difference(take)

		if !take.IsEmpty() {
			if err := c.Cluster.ReserveOnHost(h, j.Signature(), take); err != nil {
				return err
			}
			j.AssignedHosts[h] = true
			j.AssignedCores = j.AssignedCores.Union(take)
			remaining -= take.Cardinality()
		}
		if !rest.IsEmpty() {
			if err := c.Cluster.ReserveOnHost(h, idle.Signature(), rest); err != nil {
				return err
			}
		} else {
			delete(idle.AssignedHosts, h)
		}
	}
	idle.AssignedCores = idle.AssignedCores.Difference(j.AssignedCores)
	idle.NumOfProcesses = idle.AssignedCores.Cardinality()
	return nil
}

// pairColocate seats j and other together on two distinct sockets of the
// same host, forming a new two-member xunit, provided they meet the
// speedup threshold and a host has room for both on separate sockets.
func (c *CoScheduler) pairColocate(j, other *job.Job) (bool, error) {
	if len(c.Cluster.SocketConf) < 2 {
		return false, nil
	}
	if _, ok := c.eligible(j, other); !ok {
		return false, nil
	}
	jSpeedup, ok := c.speedupOf(j, other)
	if !ok {
		return false, nil
	}
	otherSpeedup, ok := c.speedupOf(other, j)
	if !ok {
		return false, nil
	}

	for _, name := range c.Cluster.HostOrder {
		h := c.Cluster.Hosts[name]
		for s1 := range h.Sockets {
			free1 := h.FreeInSocket(s1, c.Cluster.TotalProcs)
			if free1.Cardinality() < j.NumOfProcesses {
				continue
			}
			for s2 := range h.Sockets {
				if s2 == s1 {
					continue
				}
				free2 := h.FreeInSocket(s2, c.Cluster.TotalProcs)
				if free2.Cardinality() < other.NumOfProcesses {
					continue
				}

				coresJ := free1.Take(j.NumOfProcesses)
				if err := c.Cluster.ReserveOnHost(name, j.Signature(), coresJ); err != nil {
					return false, err
				}
				j.AssignedHosts[name] = true
				j.AssignedCores = coresJ
				j.State = job.Executing

				coresOther := free2.Take(other.NumOfProcesses)
				if err := c.Cluster.ReserveOnHost(name, other.Signature(), coresOther); err != nil {
					return false, err
				}
				other.AssignedHosts[name] = true
				other.AssignedCores = coresOther
				other.State = job.Executing

				if err := c.Cluster.RatioRemTimeTo(j, jSpeedup); err != nil {
					return false, err
				}
				if err := c.Cluster.RatioRemTimeTo(other, otherSpeedup); err != nil {
					return false, err
				}

				c.Cluster.ExecutionList = append(c.Cluster.ExecutionList, &cluster.Xunit{Members: []*job.Job{j, other}})
				return true, nil
			}
		}
	}
	return false, nil
}

// freeChunk is one host-local run of free cores found by collectFreeChunks.
type freeChunk struct {
	host string
	core procset.ProcSet
}

// collectFreeChunks gathers free processor chunks across the cluster's
// hosts and sockets, in host-insertion order, until need cores have been
// found or capacity runs out. It does not reserve anything; callers
// re-verify and reserve each chunk themselves.
func (c *CoScheduler) collectFreeChunks(need int) ([]freeChunk, bool) {
	var picks []freeChunk
	remaining := need
	for _, name := range c.Cluster.HostOrder {
		if remaining <= 0 {
			break
		}
		h := c.Cluster.Hosts[name]
		for s := range h.Sockets {
			if remaining <= 0 {
				break
			}
			free := h.FreeInSocket(s, c.Cluster.TotalProcs)
			if free.IsEmpty() {
				continue
			}
			take := free.Take(remaining)
			picks = append(picks, freeChunk{host: name, core: take})
			remaining -= take.Cardinality()
		}
	}
	if remaining > 0 {
		return nil, false
	}
	return picks, true
}

// spread reserves twice j's requested core count, seats j on half at its
// best achievable (solo, uncontended) speedup, and parks the other half as
// an idle tail on the same xunit so a later arrival can colocate onto it.
// This is the "run wide, not dense" placement: j never shares a processor
// with another real tenant, but the reservation still costs the cluster
// 2x its footprint.
func (c *CoScheduler) spread(j *job.Job) (bool, error) {
	need := j.NumOfProcesses
	picks, ok := c.collectFreeChunks(2 * need)
	if !ok {
		return false, nil
	}

	jRemaining := need
	var jCores, idleCores procset.ProcSet
	jHosts := map[string]bool{}
	idleCoresByHost := map[string]procset.ProcSet{}

	for _, p := range picks {
		part := p.core
		if jRemaining > 0 {
			jPart := part.Take(jRemaining)
			if err := c.Cluster.ReserveOnHost(p.host, j.Signature(), jPart); err != nil {
				return false, err
			}
			jCores = jCores.Union(jPart)
			jHosts[p.host] = true
			jRemaining -= jPart.Cardinality()
			part = part.Difference(jPart)
		}
		if !part.IsEmpty() {
			idleCores = idleCores.Union(part)
			idleCoresByHost[p.host] = idleCoresByHost[p.host].Union(part)
		}
	}

	idle := job.EmptyJob(idleCores)
	for h, cores := range idleCoresByHost {
		if err := c.Cluster.ReserveOnHost(h, idle.Signature(), cores); err != nil {
			return false, err
		}
		idle.AssignedHosts[h] = true
	}

	j.AssignedCores = jCores
	for h := range jHosts {
		j.AssignedHosts[h] = true
	}
	j.State = job.Executing
	j.JobCharacter = job.Spread

	if err := c.Cluster.RatioRemTimeAlone(j, j.MaxSpeedup); err != nil {
		return false, err
	}

	c.Cluster.ExecutionList = append(c.Cluster.ExecutionList, &cluster.Xunit{Members: []*job.Job{j, idle}})
	return true, nil
}
