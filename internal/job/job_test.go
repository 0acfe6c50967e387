package job

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elise-sim/elise/internal/procset"
)

func TestNew_DefaultsToPendingWithSentinelFinish(t *testing.T) {
	j := New(1, "j0", 4, 0, 20, 10)
	assert.Equal(t, Pending, j.State)
	assert.Equal(t, -1.0, j.FinishTime)
	assert.Equal(t, 1.0, j.SimSpeedup)
	assert.Equal(t, "1:j0", j.Signature())
}

func TestEmptyJob_DerivesProcessesFromCardinality(t *testing.T) {
	cores := procset.Range(4, 7)
	e := EmptyJob(cores)
	assert.True(t, e.IsEmptyJob())
	assert.Equal(t, 4, e.NumOfProcesses)
	assert.Equal(t, -1.0, e.RemainingTime)
}

func TestEqual_IgnoresSimSpeedupAlone(t *testing.T) {
	a := New(1, "j0", 4, 0, 20, 10)
	b := a.DeepCopy()
	b.SimSpeedup = 0.5
	assert.True(t, a.Equal(b))
}

func TestEqual_DetectsResourceDivergence(t *testing.T) {
	a := New(1, "j0", 4, 0, 20, 10)
	b := a.DeepCopy()
	b.NumOfProcesses = 8
	assert.False(t, a.Equal(b))
}

func TestDeepCopy_DoesNotAliasAssignedCores(t *testing.T) {
	a := New(1, "j0", 4, 0, 20, 10)
	a.AssignedCores = procset.Range(0, 3)
	b := a.DeepCopy()
	b.AssignedCores = b.AssignedCores.Union(procset.Range(4, 7))
	assert.Equal(t, "0-3", a.AssignedCores.String())
	assert.Equal(t, "0-7", b.AssignedCores.String())
}

func TestDeepCopy_DoesNotAliasAssignedHosts(t *testing.T) {
	a := New(1, "j0", 4, 0, 20, 10)
	a.AssignedHosts["h0"] = true
	b := a.DeepCopy()
	b.AssignedHosts["h1"] = true
	assert.NotContains(t, a.AssignedHosts, "h1")
}
