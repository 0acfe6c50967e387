package cluster

import "github.com/elise-sim/elise/internal/procset"

// HostState is a Host's coarse occupancy state.
type HostState string

const (
	HostIdle HostState = "IDLE"
	HostBusy HostState = "BUSY"
)

// Host is one node in the cluster: a fixed socket layout plus the set of
// jobs currently holding processors on it. A Host is IDLE iff Jobs is
// empty; it is never destroyed once created by Cluster.Setup.
type Host struct {
	Name    string
	State   HostState
	Sockets []procset.ProcSet          // fixed per-socket core layout, index = socket number
	Jobs    map[string]procset.ProcSet // job signature -> the ProcSet it holds on this host
}

func newHost(name string, sockets []procset.ProcSet) *Host {
	return &Host{
		Name:    name,
		State:   HostIdle,
		Sockets: sockets,
		Jobs:    map[string]procset.ProcSet{},
	}
}

// FullRange returns the union of every socket's core IDs on this host.
func (h *Host) FullRange() procset.ProcSet {
	var out procset.ProcSet
	for _, s := range h.Sockets {
		out = out.Union(s)
	}
	return out
}

// FreeInSocket returns the free cores of socket i, given the cluster's
// current free-processor set.
func (h *Host) FreeInSocket(i int, clusterFree procset.ProcSet) procset.ProcSet {
	return h.Sockets[i].Intersect(clusterFree)
}

// reserve records that signature now holds cores on this host and
// refreshes State. cores must be disjoint from every other signature
// already recorded.
func (h *Host) reserve(signature string, cores procset.ProcSet) {
	if existing, ok := h.Jobs[signature]; ok {
		h.Jobs[signature] = existing.Union(cores)
	} else {
		h.Jobs[signature] = cores
	}
	h.State = HostBusy
}

// release removes signature's hold on this host entirely and refreshes
// State.
func (h *Host) release(signature string) {
	delete(h.Jobs, signature)
	if len(h.Jobs) == 0 {
		h.State = HostIdle
	}
}

// IsIdle reports whether the host currently holds no job's processors.
func (h *Host) IsIdle() bool {
	return len(h.Jobs) == 0
}
