package cosched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elise-sim/elise/internal/cluster"
	"github.com/elise-sim/elise/internal/heatmap"
	"github.com/elise-sim/elise/internal/job"
	"github.com/elise-sim/elise/internal/rng"
	"github.com/elise-sim/elise/internal/tracelog"
)

func newSymmetricHeatmap(threshold float64) *heatmap.Heatmap {
	v := threshold + 0.1
	return heatmap.New(map[string]map[string]*float64{
		"A": {"B": &v},
		"B": {"A": &v},
	})
}

// newDirectedHeatmap builds a heatmap where A and B slow each other down by
// different amounts, so tests can tell a directed rescale from a pair-mean
// rescale apart.
func newDirectedHeatmap(aToB, bToA float64) *heatmap.Heatmap {
	return heatmap.New(map[string]map[string]*float64{
		"A": {"B": &aToB},
		"B": {"A": &bToA},
	})
}

func TestPairColocate_AcceptsOnlyWhenBothDirectionsDefined(t *testing.T) {
	c := cluster.New(1, []int{4, 4})
	c.Setup()
	l := tracelog.Setup(c.Capacity())

	// Only one direction defined: not eligible.
	half := 0.9
	hm := heatmap.New(map[string]map[string]*float64{"A": {"B": &half}})
	cs := NewFillerRanks(Config{SpeedupThreshold: 0.5})
	cs.Setup(c, l, hm)

	a := job.New(0, "A", 4, 0, 10, 10)
	b := job.New(1, "B", 4, 0, 10, 10)
	ok, err := cs.pairColocate(a, b)
	require.NoError(t, err)
	assert.False(t, ok)

	// Both directions defined and above threshold: eligible. A and B slow
	// each other down by different amounts (0.8 vs 0.9), so the rescale
	// must use the directed value per job, not their 0.85 mean.
	cs.Heatmap = newDirectedHeatmap(0.8, 0.9)
	ok, err = cs.pairColocate(a, b)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, job.Executing, a.State)
	assert.Equal(t, job.Executing, b.State)
	assert.Len(t, c.ExecutionList, 1)
	assert.InDelta(t, 0.8, a.SimSpeedup, 1e-9)
	assert.InDelta(t, 0.9, b.SimSpeedup, 1e-9)
	assert.InDelta(t, 12.5, a.RemainingTime, 1e-9)
	assert.InDelta(t, 10.0/0.9, b.RemainingTime, 1e-9)
}

func TestColocateToXunit_SeatsJobOnIdleTail(t *testing.T) {
	c := cluster.New(1, []int{8})
	c.Setup()
	l := tracelog.Setup(c.Capacity())
	hm := newSymmetricHeatmap(0.5)

	cs := NewFillerRanks(Config{SpeedupThreshold: 0.5})
	cs.Setup(c, l, hm)

	// Place the head on half the socket (compact would take all 8 cores),
	// leaving the other 4 free for the idle tail.
	head := job.New(0, "A", 4, 0, 10, 10)
	ok, err := cs.Allocation(head, []int{4}, cs.HostAllocCondition)
	require.NoError(t, err)
	require.True(t, ok)

	idleCores := c.Hosts["host-0"].FreeInSocket(0, c.TotalProcs)
	idle := job.EmptyJob(idleCores)
	idle.AssignedHosts = map[string]bool{"host-0": true}
	require.NoError(t, c.ReserveOnHost("host-0", idle.Signature(), idleCores))
	c.ExecutionList[0].Members = append(c.ExecutionList[0].Members, idle)

	b := job.New(1, "B", 4, 0, 10, 10)
	ok, err = cs.colocateToXunit(b)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, job.Executing, b.State)
	assert.Len(t, c.ExecutionList[0].Members, 2, "idle tail fully consumed, not re-appended")
}

func TestSpread_ReservesDoubleAndParksIdleHalf(t *testing.T) {
	c := cluster.New(2, []int{4})
	c.Setup()
	l := tracelog.Setup(c.Capacity())
	cs := NewFillerRanks(Config{SpeedupThreshold: 0.9})
	cs.Setup(c, l, heatmap.New(nil))

	j := job.New(0, "A", 2, 0, 10, 10)
	j.MaxSpeedup = 1.5

	ok, err := cs.spread(j)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, job.Executing, j.State)
	assert.Equal(t, job.Spread, j.JobCharacter)
	assert.Equal(t, 2, j.AssignedCores.Cardinality(), "j itself only occupies its requested half")
	assert.InDelta(t, 1.5, j.SimSpeedup, 1e-9)
	assert.InDelta(t, 10.0/1.5, j.RemainingTime, 1e-9)

	require.Len(t, c.ExecutionList, 1)
	members := c.ExecutionList[0].Members
	require.Len(t, members, 2)
	assert.Same(t, j, members[0])
	idle := members[1]
	assert.True(t, idle.IsEmptyJob())
	assert.Equal(t, 2, idle.NumOfProcesses, "the other reserved half is parked idle, ready for colocation")

	assert.Equal(t, c.Capacity()-4, c.GetIdleCores(), "spread reserves 2x j's cores even though only half run j")
}

func TestFillerRanks_PrefersClosestGapMatch(t *testing.T) {
	c := cluster.New(2, []int{4})
	c.Setup()
	l := tracelog.Setup(c.Capacity())
	cs := NewFillerRanks(Config{SpeedupThreshold: 0.9})
	cs.Setup(c, l, heatmap.New(nil))

	// Occupy 2 of host-0's 4 cores, leaving fragments of size 2 (host-0)
	// and 4 (host-1).
	require.NoError(t, c.ReserveOnHost("host-0", "filler:x", c.Hosts["host-0"].FullRange().Take(2)))

	tight := job.New(0, "tight", 2, 0, 1, 1)
	loose := job.New(1, "loose", 1, 0, 1, 1)
	assert.Greater(t, cs.fillerRank(tight), cs.fillerRank(loose), "an exact gap match ranks above a looser one")
}

func TestRandomRanks_StableAcrossRepeatedCalls(t *testing.T) {
	r := rng.New(42)
	cs := NewRandomRanks(Config{}, r)
	j := job.New(0, "A", 4, 0, 1, 1)

	first := cs.randomRank(j)
	second := cs.randomRank(j)
	assert.Equal(t, first, second, "the same job must not redraw a new key on every reorder pass")
}

func TestDeploy_AgingForcesCompactFallback(t *testing.T) {
	c := cluster.New(1, []int{4})
	c.Setup()
	l := tracelog.Setup(c.Capacity())
	cs := NewFillerRanks(Config{SpeedupThreshold: 0.99, AgingEnabled: true, AgingThreshold: 1})
	cs.Setup(c, l, heatmap.New(nil))

	j := job.New(0, "A", 4, 0, 10, 10)
	j.Age = 1
	c.WaitingQueue = []*job.Job{j}

	changed, err := cs.Deploy()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, job.Executing, j.State)
}
