package cosched

import (
	"github.com/elise-sim/elise/internal/job"
	"github.com/elise-sim/elise/internal/rng"
)

// RandomRanks sorts the waiting queue by a per-job key drawn once from a
// partitioned RNG stream, falling back to num_of_processes when no RNG is
// configured — a deterministic "random" permutation that reproduces
// bit-identically across runs of the same seed.
type RandomRanks struct {
	CoScheduler

	RNG  *rng.PartitionedRNG
	keys map[string]float64
}

func NewRandomRanks(cfg Config, r *rng.PartitionedRNG) *RandomRanks {
	rr := &RandomRanks{CoScheduler: CoScheduler{Config: cfg}, RNG: r, keys: map[string]float64{}}
	rr.rank = rr.randomRank
	return rr
}

// randomRank returns j's stable rank key, assigning and caching a fresh
// draw from the random-ranks subsystem stream the first time j is seen.
func (rr *RandomRanks) randomRank(j *job.Job) float64 {
	if rr.RNG == nil {
		return float64(j.NumOfProcesses)
	}
	sig := j.Signature()
	if key, ok := rr.keys[sig]; ok {
		return key
	}
	key := rr.RNG.ForSubsystem(rng.SubsystemRandomRanks).Float64()
	rr.keys[sig] = key
	return key
}
