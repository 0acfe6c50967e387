package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elise-sim/elise/internal/cluster"
	"github.com/elise-sim/elise/internal/cosched"
	"github.com/elise-sim/elise/internal/database"
	"github.com/elise-sim/elise/internal/heatmap"
	"github.com/elise-sim/elise/internal/job"
)

func diagHeatmap(aSolo, bSolo, aToB, bToA float64) *heatmap.Heatmap {
	return heatmap.New(map[string]map[string]*float64{
		"A": {"A": &aSolo, "B": &aToB},
		"B": {"B": &bSolo, "A": &bToA},
	})
}

// S4 — co-location accepted: 1 node x (4,4), heatmap {A:{A:1.0,B:0.8},
// B:{B:1.0,A:0.9}}, threshold=0.8. Queue=[A(4,rem=10), B(4,rem=10)]. A and
// B end up sharing the node's two half-sockets: A's directed speedup
// against B is 0.8, B's against A is 0.9 — not their 0.85 mean. B finishes
// first at 10/0.9; A, left alone, reverts to its solo speedup 1.0, so its
// remaining 12.5-10/0.9 is scaled by 0.8/1.0 and the makespan is 110/9.
func TestEngine_S4_CoLocationAccepted(t *testing.T) {
	a := job.New(0, "A", 4, 0, 10, 10)
	b := job.New(1, "B", 4, 0, 10, 10)

	c := cluster.New(1, []int{4, 4})
	c.Setup()
	hm := diagHeatmap(1.0, 1.0, 0.8, 0.9)
	db := database.New([]*job.Job{a, b}, hm)
	db.Setup()

	sched := cosched.NewFillerRanks(cosched.Config{SpeedupThreshold: 0.8, SystemUtilization: 1.0})
	e := New(db, c, sched)

	require.NoError(t, e.Run())

	assert.InDelta(t, 1.0, a.SimSpeedup, 1e-9, "A reverts to its solo speedup once B finishes")
	assert.InDelta(t, 0.9, b.SimSpeedup, 1e-9)
	assert.InDelta(t, 110.0/9.0, e.Cluster.Makespan, 1e-6)
	assert.Equal(t, job.Finished, a.State)
	assert.Equal(t, job.Finished, b.State)
}

// S5 — co-location rejected: same cluster, but the pair mean (0.7) falls
// below the 0.8 threshold. A runs compact-exclusive, B waits for A to
// vacate the whole node, and makespan is their sum.
func TestEngine_S5_CoLocationRejectedFallsBackToCompact(t *testing.T) {
	a := job.New(0, "A", 4, 0, 10, 10)
	b := job.New(1, "B", 4, 0, 10, 10)

	c := cluster.New(1, []int{4, 4})
	c.Setup()
	hm := diagHeatmap(1.0, 1.0, 0.65, 0.75) // mean 0.7 < threshold
	db := database.New([]*job.Job{a, b}, hm)
	db.Setup()

	// SystemUtilization 0 keeps spread ineligible throughout, so both jobs
	// fall straight through to exclusive compact placement once rejected
	// for co-location — compact reserves the whole node, so B genuinely
	// has nowhere to fit until A vacates it.
	sched := cosched.NewFillerRanks(cosched.Config{SpeedupThreshold: 0.8, SystemUtilization: 0})
	e := New(db, c, sched)

	require.NoError(t, e.Run())

	assert.InDelta(t, 1.0, a.SimSpeedup, 1e-9, "A never colocates, so it keeps its solo baseline")
	assert.Equal(t, 0.0, a.StartTime)
	assert.Equal(t, 10.0, b.StartTime, "B waits for A to vacate the whole node")
	assert.InDelta(t, 20.0, e.Cluster.Makespan, 1e-6)
}
