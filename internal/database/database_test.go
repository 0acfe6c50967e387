package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elise-sim/elise/internal/heatmap"
	"github.com/elise-sim/elise/internal/job"
)

func f(v float64) *float64 { return &v }

func TestSetup_PullsSpeedupsFromHeatmapDiagonal(t *testing.T) {
	j0 := job.New(0, "j0", 4, 0, 20, 10)
	hm := heatmap.New(map[string]map[string]*float64{"j0": {"j0": f(1.5)}})
	db := New([]*job.Job{j0}, hm)

	db.Setup()

	assert.Equal(t, 1.5, j0.MaxSpeedup)
	assert.Equal(t, 1.5, j0.AvgSpeedup)
	assert.Equal(t, 1.5, j0.MinSpeedup)
}

func TestSetup_LeavesAlreadyPopulatedJobsAlone(t *testing.T) {
	j0 := job.New(0, "j0", 4, 0, 20, 10)
	j0.MaxSpeedup, j0.AvgSpeedup, j0.MinSpeedup = 2.0, 1.8, 1.2
	hm := heatmap.New(map[string]map[string]*float64{"j0": {"j0": f(1.5)}})
	db := New([]*job.Job{j0}, hm)

	db.Setup()

	assert.Equal(t, 2.0, j0.MaxSpeedup)
}
