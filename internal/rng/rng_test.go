package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionedRNG_DeterministicPerSeed(t *testing.T) {
	a := New(42).ForSubsystem(SubsystemRandomRanks)
	b := New(42).ForSubsystem(SubsystemRandomRanks)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Int63(), b.Int63())
	}
}

func TestPartitionedRNG_SubsystemsAreIsolated(t *testing.T) {
	p := New(7)
	first := p.ForSubsystem("a").Int63()
	other := p.ForSubsystem("b").Int63()
	assert.NotEqual(t, first, other)
}

func TestPartitionedRNG_SameSubsystemCached(t *testing.T) {
	p := New(7)
	a := p.ForSubsystem("x")
	b := p.ForSubsystem("x")
	assert.Same(t, a, b)
}
