// Package cluster implements the cluster resource model: topology,
// per-host socket occupancy, the global free-processor set, and the
// execution list of co-located xunits.
package cluster

import (
	"fmt"

	"github.com/elise-sim/elise/internal/heatmap"
	"github.com/elise-sim/elise/internal/job"
	"github.com/elise-sim/elise/internal/procset"
	"github.com/elise-sim/elise/internal/simerr"
)

// Cluster is the topology plus all mutable scheduling state: the global
// free-processor set, the waiting queue, and the execution list.
//
// Invariants:
//
//	(a) TotalProcs equals the union of all per-host free-core ProcSets.
//	(b) every processor ID appears in exactly one of {TotalProcs, the
//	    union of per-host Jobs values}.
//	(c) every Job in a non-idle xunit member has AssignedHosts non-empty
//	    and AssignedCores equal to the union, over those hosts, of the
//	    host's ProcSet for that job.
type Cluster struct {
	Nodes      int
	SocketConf []int // cores per socket, e.g. [16, 16] for a 2-socket host

	Hosts     map[string]*Host
	HostOrder []string // insertion order, since Go maps are unordered

	TotalProcs    procset.ProcSet
	WaitingQueue  []*job.Job
	ExecutionList []*Xunit
	Makespan      float64
}

// New constructs an unconfigured Cluster; call Setup before use.
func New(nodes int, socketConf []int) *Cluster {
	return &Cluster{Nodes: nodes, SocketConf: socketConf}
}

// Setup builds Hosts from nodes x socket_conf, assigns contiguous
// processor IDs socket-by-socket, populates TotalProcs with every ID, and
// resets the queues and clock.
func (c *Cluster) Setup() {
	c.Hosts = map[string]*Host{}
	c.HostOrder = nil
	c.WaitingQueue = nil
	c.ExecutionList = nil
	c.Makespan = 0

	nextID := 0
	var all procset.ProcSet
	for n := 0; n < c.Nodes; n++ {
		name := fmt.Sprintf("host-%d", n)
		sockets := make([]procset.ProcSet, len(c.SocketConf))
		for s, cores := range c.SocketConf {
			sockets[s] = procset.Range(nextID, nextID+cores-1)
			all = all.Union(sockets[s])
			nextID += cores
		}
		c.Hosts[name] = newHost(name, sockets)
		c.HostOrder = append(c.HostOrder, name)
	}
	c.TotalProcs = all
}

// Capacity returns the cluster's total processor count (nodes x sum(socket_conf)).
func (c *Cluster) Capacity() int {
	per := 0
	for _, n := range c.SocketConf {
		per += n
	}
	return c.Nodes * per
}

// GetIdleCores returns the number of currently free processors.
func (c *Cluster) GetIdleCores() int {
	return c.TotalProcs.Cardinality()
}

// FindSuitableNodes returns, in host-insertion order, hosts that are
// either IDLE or whose per-socket free counts satisfy
// socketConf[i] <= |sockets[i]_free|, stopping once accumulated cores
// reach reqCores. Returns an empty map if insufficient capacity exists.
func (c *Cluster) FindSuitableNodes(reqCores int, socketConf []int) map[string][]procset.ProcSet {
	out := map[string][]procset.ProcSet{}
	accumulated := 0
	for _, name := range c.HostOrder {
		if accumulated >= reqCores {
			break
		}
		h := c.Hosts[name]
		if !h.IsIdle() && !hostSatisfiesSocketConf(h, socketConf, c.TotalProcs) {
			continue
		}
		perSocket := make([]procset.ProcSet, len(h.Sockets))
		hostCores := 0
		for i := range h.Sockets {
			free := h.FreeInSocket(i, c.TotalProcs)
			perSocket[i] = free
			hostCores += free.Cardinality()
		}
		out[name] = perSocket
		accumulated += hostCores
	}
	if accumulated < reqCores {
		return map[string][]procset.ProcSet{}
	}
	return out
}

func hostSatisfiesSocketConf(h *Host, socketConf []int, clusterFree procset.ProcSet) bool {
	if len(socketConf) != len(h.Sockets) {
		return false
	}
	for i, need := range socketConf {
		if h.FreeInSocket(i, clusterFree).Cardinality() < need {
			return false
		}
	}
	return true
}

// ReserveOnHost records that signature now holds cores on hostName,
// subtracts cores from TotalProcs, and updates host state. Callers
// (scheduler placement primitives) must ensure cores is currently free.
func (c *Cluster) ReserveOnHost(hostName, signature string, cores procset.ProcSet) error {
	h, ok := c.Hosts[hostName]
	if !ok {
		return fmt.Errorf("cluster: unknown host %q", hostName)
	}
	if !cores.Intersect(c.TotalProcs).Equal(cores) {
		return fmt.Errorf("cluster: cores %s are not all free", cores.String())
	}
	h.reserve(signature, cores)
	c.TotalProcs = c.TotalProcs.Difference(cores)
	return nil
}

// ReleaseFromHost removes signature's hold on hostName and returns its
// cores to TotalProcs, returning the released ProcSet.
func (c *Cluster) ReleaseFromHost(hostName, signature string) procset.ProcSet {
	h, ok := c.Hosts[hostName]
	if !ok {
		return procset.ProcSet{}
	}
	cores := h.Jobs[signature]
	h.release(signature)
	c.TotalProcs = c.TotalProcs.Union(cores)
	return cores
}

// NonfilledXunits returns a view over xunits that still carry an idle
// tail, i.e. the candidates for colocation_to_xunit placement.
func (c *Cluster) NonfilledXunits() []*Xunit {
	var out []*Xunit
	for _, x := range c.ExecutionList {
		if !x.Filled() {
			out = append(out, x)
		}
	}
	return out
}

// RatioRemTime rescales j's remaining time from its old effective speedup
// to the heatmap-derived speedup for co-locating with coJobName, and
// updates j.SimSpeedup. It must be called whenever a job's effective
// partner changes.
func (c *Cluster) RatioRemTime(j *job.Job, coJobName string, hm *heatmap.Heatmap) error {
	r := hm.Lookup(j.JobName, coJobName)
	if r.Status != heatmap.Defined {
		return &simerr.MissingPairingErr{A: j.JobName, B: coJobName}
	}
	return c.rescale(j, r.Value)
}

// RatioRemTimeAlone rescales j back to its solo speedup (max_speedup when
// spread alone on the fabric, 1.0 when compact-exclusive), used when a
// co-tenant finishes and leaves j alone on its processors.
func (c *Cluster) RatioRemTimeAlone(j *job.Job, soloSpeedup float64) error {
	return c.rescale(j, soloSpeedup)
}

// RatioRemTimeTo rescales j directly to a speedup the caller already
// resolved (e.g. a co-scheduler's directed heatmap entry or learned-engine
// prediction), bypassing the heatmap lookup RatioRemTime performs itself.
func (c *Cluster) RatioRemTimeTo(j *job.Job, newSpeedup float64) error {
	return c.rescale(j, newSpeedup)
}

func (c *Cluster) rescale(j *job.Job, newSpeedup float64) error {
	oldSpeedup := j.SimSpeedup
	if oldSpeedup <= 0 {
		return &simerr.NonconvergentSpeedupErr{JobSignature: j.Signature(), Speedup: oldSpeedup}
	}
	if newSpeedup <= 0 || isNaN(newSpeedup) {
		return &simerr.NonconvergentSpeedupErr{JobSignature: j.Signature(), Speedup: newSpeedup}
	}
	j.RemainingTime = j.RemainingTime * oldSpeedup / newSpeedup
	j.SimSpeedup = newSpeedup
	return nil
}

func isNaN(f float64) bool { return f != f }
