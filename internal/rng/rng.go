// Package rng provides deterministic, subsystem-isolated random number
// generation so that two simulation runs sharing a seed and configuration
// produce bit-identical traces regardless of which co-schedulers draw
// randomness and in what order.
package rng

import (
	"hash/fnv"
	"math/rand"
)

// SimulationKey uniquely identifies a reproducible simulation run.
type SimulationKey int64

// Subsystem names used by the shipped co-schedulers.
const (
	// SubsystemRandomRanks seeds Random Ranks' waiting-queue permutation.
	SubsystemRandomRanks = "random-ranks"
)

// PartitionedRNG hands out one *rand.Rand per named subsystem, each
// deterministically derived from a single master seed so the set of
// subsystems drawn from, and in what order, never perturbs another
// subsystem's stream.
//
// Thread-safety: NOT thread-safe. A simulation instance is single-threaded
// by design (see SPEC_FULL.md §5); do not share a PartitionedRNG across
// simulation instances run concurrently.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// New creates a PartitionedRNG from a master seed.
func New(seed int64) *PartitionedRNG {
	return &PartitionedRNG{
		key:        SimulationKey(seed),
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the deterministically-seeded *rand.Rand for name,
// creating and caching it on first use. Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if r, ok := p.subsystems[name]; ok {
		return r
	}
	seed := int64(p.key) ^ fnv1a64(name)
	r := rand.New(rand.NewSource(seed))
	p.subsystems[name] = r
	return r
}

// Key returns the master seed this PartitionedRNG was built from.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}
