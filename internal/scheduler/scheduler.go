// Package scheduler implements the base scheduler contract and placement
// primitives plus the concrete FIFO, EASY-backfill, and Conservative-backfill
// policies.
package scheduler

import (
	"sort"

	"github.com/elise-sim/elise/internal/cluster"
	"github.com/elise-sim/elise/internal/heatmap"
	"github.com/elise-sim/elise/internal/job"
	"github.com/elise-sim/elise/internal/procset"
	"github.com/elise-sim/elise/internal/tracelog"
)

// Scheduler is the placement policy contract. Implementations hold
// non-owning handles to the Cluster and Logger passed in at Setup — the
// compute engine owns both.
type Scheduler interface {
	Setup(c *cluster.Cluster, l *tracelog.Logger, hm *heatmap.Heatmap)
	// Deploy attempts to start as many waiting jobs as policy permits.
	// Returns true iff the execution list changed. Must not advance
	// Cluster.Makespan.
	Deploy() (bool, error)
	// Backfill is called by the engine after Deploy if BackfillEnabled.
	Backfill() (bool, error)
	BackfillEnabled() bool
	// WaitingQueueReorder is the sort key applied in descending order to
	// the waiting queue before each scheduling pass.
	WaitingQueueReorder(j *job.Job) float64
	// HostAllocCondition orders candidate hosts descending for Allocation;
	// default 1.0 (host-insertion order, since sort is stable).
	HostAllocCondition(h *cluster.Host, j *job.Job) float64
}

// Base provides the placement primitives every concrete scheduler builds
// on: compact/generalized allocation and waiting-queue pop. Embed it and
// override WaitingQueueReorder/HostAllocCondition/BackfillEnabled as
// needed; the zero value reorders nothing and never backfills.
type Base struct {
	Cluster *cluster.Cluster
	Logger  *tracelog.Logger
	Heatmap *heatmap.Heatmap
}

func (b *Base) Setup(c *cluster.Cluster, l *tracelog.Logger, hm *heatmap.Heatmap) {
	b.Cluster = c
	b.Logger = l
	b.Heatmap = hm
}

func (b *Base) BackfillEnabled() bool                                  { return false }
func (b *Base) Backfill() (bool, error)                                { return false, nil }
func (b *Base) WaitingQueueReorder(j *job.Job) float64                  { return 0 }
func (b *Base) HostAllocCondition(h *cluster.Host, j *job.Job) float64  { return 1.0 }

// Pop removes and returns the front of the cluster's waiting queue, or nil
// if empty.
func (b *Base) Pop() *job.Job {
	if len(b.Cluster.WaitingQueue) == 0 {
		return nil
	}
	j := b.Cluster.WaitingQueue[0]
	b.Cluster.WaitingQueue = b.Cluster.WaitingQueue[1:]
	return j
}

// ReorderWaitingQueue stable-sorts the cluster's waiting queue by
// reorder(job) descending.
func (b *Base) ReorderWaitingQueue(reorder func(*job.Job) float64) {
	wq := b.Cluster.WaitingQueue
	sort.SliceStable(wq, func(i, j int) bool {
		return reorder(wq[i]) > reorder(wq[j])
	})
}

// CompactAllocation places j exclusively on enough hosts using the full
// socket configuration. Atomic: either all processors are reserved and j
// is appended as a singleton xunit, or no state changes and false is
// returned.
func (b *Base) CompactAllocation(j *job.Job, cond func(*cluster.Host, *job.Job) float64) (bool, error) {
	return b.Allocation(j, b.Cluster.SocketConf, cond)
}

// socketPick is a verified reservation of need cores out of a socket's
// free set, computed in the verify phase and taken in the commit phase.
type socketPick struct {
	need int
	free procset.ProcSet
}

// Allocation is the generalized compact placement: j occupies
// socketConf[i] cores of socket i on each of ceil(j.NumOfProcesses /
// sum(socketConf)) hosts, chosen in descending cond(host, j) order.
// Verification and commit are separate passes so a failure partway
// through candidate hosts never mutates cluster state.
func (b *Base) Allocation(j *job.Job, socketConf []int, cond func(*cluster.Host, *job.Job) float64) (bool, error) {
	perHost := 0
	for _, n := range socketConf {
		perHost += n
	}
	if perHost == 0 {
		return false, nil
	}
	hostsNeeded := ceilDiv(j.NumOfProcesses, perHost)
	if hostsNeeded == 0 {
		return false, nil
	}

	// Only hosts that can actually satisfy socketConf are candidates;
	// host_alloc_condition then orders among those, it does not override
	// suitability.
	var candidates []string
	for _, name := range b.Cluster.HostOrder {
		h := b.Cluster.Hosts[name]
		if len(h.Sockets) != len(socketConf) {
			continue
		}
		suitable := true
		for i, need := range socketConf {
			if h.FreeInSocket(i, b.Cluster.TotalProcs).Cardinality() < need {
				suitable = false
				break
			}
		}
		if suitable {
			candidates = append(candidates, name)
		}
	}
	sort.SliceStable(candidates, func(i, k int) bool {
		return cond(b.Cluster.Hosts[candidates[i]], j) > cond(b.Cluster.Hosts[candidates[k]], j)
	})
	if len(candidates) < hostsNeeded {
		return false, nil
	}
	chosen := candidates[:hostsNeeded]

	picks := make(map[string][]socketPick, hostsNeeded)
	for _, name := range chosen {
		h := b.Cluster.Hosts[name]
		hostPicks := make([]socketPick, len(socketConf))
		for i, need := range socketConf {
			hostPicks[i] = socketPick{need: need, free: h.FreeInSocket(i, b.Cluster.TotalProcs)}
		}
		picks[name] = hostPicks
	}

	var total procset.ProcSet
	for _, name := range chosen {
		var hostCores procset.ProcSet
		for _, pick := range picks[name] {
			hostCores = hostCores.Union(pick.free.Take(pick.need))
		}
		if err := b.Cluster.ReserveOnHost(name, j.Signature(), hostCores); err != nil {
			return false, err
		}
		j.AssignedHosts[name] = true
		total = total.Union(hostCores)
	}
	j.AssignedCores = total
	j.State = job.Executing

	b.Cluster.ExecutionList = append(b.Cluster.ExecutionList, &cluster.Xunit{Members: []*job.Job{j}})
	return true, nil
}

func ceilDiv(a, b int) int {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
