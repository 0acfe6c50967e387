package cosched

import (
	"math"

	"github.com/elise-sim/elise/internal/job"
)

// FillerRanks prioritizes whichever waiting job most exactly closes one
// of the idle-core gaps currently open on the cluster — the tightest fit
// first, so small fragmented holes get filled before they're carved up
// further by a loosely-fitting job.
type FillerRanks struct {
	CoScheduler
}

func NewFillerRanks(cfg Config) *FillerRanks {
	f := &FillerRanks{CoScheduler: CoScheduler{Config: cfg}}
	f.rank = f.fillerRank
	return f
}

// fillerRank scores j by the negative gap to the nearest idle fragment —
// the closest match ranks highest (least negative).
func (f *FillerRanks) fillerRank(j *job.Job) float64 {
	gaps := f.idleFragmentSizes()
	if len(gaps) == 0 {
		return -math.MaxFloat64
	}
	best := math.MaxFloat64
	for _, g := range gaps {
		diff := math.Abs(float64(g - j.NumOfProcesses))
		if diff < best {
			best = diff
		}
	}
	return -best
}

func (f *FillerRanks) idleFragmentSizes() []int {
	var sizes []int
	for _, name := range f.Cluster.HostOrder {
		h := f.Cluster.Hosts[name]
		for s := range h.Sockets {
			free := h.FreeInSocket(s, f.Cluster.TotalProcs)
			for _, iv := range free.Intervals() {
				sizes = append(sizes, iv[1]-iv[0]+1)
			}
		}
	}
	return sizes
}
