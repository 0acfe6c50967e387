package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elise-sim/elise/internal/cluster"
	"github.com/elise-sim/elise/internal/database"
	"github.com/elise-sim/elise/internal/heatmap"
	"github.com/elise-sim/elise/internal/job"
	"github.com/elise-sim/elise/internal/scheduler"
	"github.com/elise-sim/elise/internal/simerr"
)

func newEngine(t *testing.T, nodes int, socketConf []int, sched scheduler.Scheduler, jobs []*job.Job) *Engine {
	t.Helper()
	c := cluster.New(nodes, socketConf)
	c.Setup()
	db := database.New(jobs, heatmap.New(nil))
	db.Setup()
	return New(db, c, sched)
}

// S2 — FIFO head-of-line: 2 nodes x (4,), queue=[A(8,rem=10), B(4,rem=1)].
// A starts t=0 on both nodes; B waits; B starts t=10; makespan=11.
func TestEngine_S2_FIFOHeadOfLine(t *testing.T) {
	a := job.New(0, "A", 8, 0, 10, 10)
	b := job.New(1, "B", 4, 0, 1, 1)
	e := newEngine(t, 2, []int{4}, scheduler.NewFIFO(), []*job.Job{a, b})

	require.NoError(t, e.Run())

	assert.Equal(t, 0.0, a.StartTime)
	assert.Equal(t, 10.0, b.StartTime)
	assert.Equal(t, 11.0, e.Cluster.Makespan)
	assert.Equal(t, job.Finished, a.State)
	assert.Equal(t, job.Finished, b.State)
}

// S6 — deadlock/capacity detection: 1 node x (4,), single job needing 8.
// Must fail before the first step with ResourceExhaustedErr.
func TestEngine_S6_ResourceExhaustedBeforeFirstStep(t *testing.T) {
	big := job.New(0, "big", 8, 0, 1, 1)
	e := newEngine(t, 1, []int{4}, scheduler.NewFIFO(), []*job.Job{big})

	err := e.Run()
	require.Error(t, err)
	var exhausted *simerr.ResourceExhaustedErr
	assert.True(t, errors.As(err, &exhausted))
}

func TestEngine_SimStep_IdempotentOnAllFinished(t *testing.T) {
	a := job.New(0, "A", 4, 0, 1, 1)
	e := newEngine(t, 1, []int{4}, scheduler.NewFIFO(), []*job.Job{a})
	require.NoError(t, e.Run())

	makespanBefore := e.Cluster.Makespan
	advanced, err := e.SimStep()
	require.NoError(t, err)
	assert.False(t, advanced)
	assert.Equal(t, makespanBefore, e.Cluster.Makespan)
}

func TestEngine_ConservesProcessorsAcrossRun(t *testing.T) {
	a := job.New(0, "A", 4, 0, 5, 5)
	b := job.New(1, "B", 4, 0, 3, 3)
	e := newEngine(t, 2, []int{4}, scheduler.NewFIFO(), []*job.Job{a, b})
	capacity := e.Cluster.Capacity()

	require.NoError(t, e.Run())
	assert.Equal(t, capacity, e.Cluster.GetIdleCores(), "every processor returns to the free pool once all jobs finish")
}

func TestEngine_MakespanNeverDecreases(t *testing.T) {
	a := job.New(0, "A", 4, 0, 5, 5)
	b := job.New(1, "B", 4, 0, 2, 2)
	e := newEngine(t, 1, []int{4}, scheduler.NewFIFO(), []*job.Job{a, b})
	require.NoError(t, e.SetupPreloadedJobs())

	var last float64
	for i := 0; i < 20; i++ {
		advanced, err := e.SimStep()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, e.Cluster.Makespan, last)
		last = e.Cluster.Makespan
		if !advanced {
			break
		}
	}
}

func TestEngine_EASY_S3_Backfill(t *testing.T) {
	a := job.New(0, "A", 8, 0, 10, 10)
	a.WallTime = 10
	b := job.New(1, "B", 4, 0, 1, 1)
	b.WallTime = 1
	e := newEngine(t, 3, []int{4}, scheduler.NewEASY(), []*job.Job{a, b})

	require.NoError(t, e.Run())
	assert.Equal(t, 0.0, a.StartTime)
	assert.Equal(t, 0.0, b.StartTime, "B starts immediately on the third idle node")
	assert.Equal(t, 10.0, e.Cluster.Makespan)
}
