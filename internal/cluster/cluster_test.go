package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elise-sim/elise/internal/heatmap"
	"github.com/elise-sim/elise/internal/job"
	"github.com/elise-sim/elise/internal/simerr"
)

func TestSetup_AssignsContiguousProcessorIDsPerHost(t *testing.T) {
	c := New(2, []int{4, 4})
	c.Setup()

	require.Len(t, c.HostOrder, 2)
	h0 := c.Hosts[c.HostOrder[0]]
	h1 := c.Hosts[c.HostOrder[1]]
	assert.Equal(t, "0-3", h0.Sockets[0].String())
	assert.Equal(t, "4-7", h0.Sockets[1].String())
	assert.Equal(t, "8-11", h1.Sockets[0].String())
	assert.Equal(t, "12-15", h1.Sockets[1].String())
	assert.Equal(t, 16, c.TotalProcs.Cardinality())
}

func TestFindSuitableNodes_StopsOnceAccumulatedCoversRequest(t *testing.T) {
	c := New(3, []int{4})
	c.Setup()

	found := c.FindSuitableNodes(8, []int{4})
	assert.Len(t, found, 2)
}

func TestFindSuitableNodes_EmptyWhenInsufficientCapacity(t *testing.T) {
	c := New(1, []int{4})
	c.Setup()

	found := c.FindSuitableNodes(8, []int{4})
	assert.Empty(t, found)
}

func TestReserveAndRelease_RoundTripsTotalProcs(t *testing.T) {
	c := New(1, []int{4})
	c.Setup()

	host := c.HostOrder[0]
	err := c.ReserveOnHost(host, "1:j0", c.TotalProcs)
	require.NoError(t, err)
	assert.True(t, c.TotalProcs.IsEmpty())
	assert.Equal(t, HostBusy, c.Hosts[host].State)

	released := c.ReleaseFromHost(host, "1:j0")
	assert.Equal(t, 4, released.Cardinality())
	assert.Equal(t, 4, c.TotalProcs.Cardinality())
	assert.Equal(t, HostIdle, c.Hosts[host].State)
}

func TestRatioRemTime_RescalesBySpeedupRatio(t *testing.T) {
	c := New(1, []int{4})
	c.Setup()

	j := job.New(1, "A", 4, 0, 20, 10)
	j.SimSpeedup = 1.0
	v := 0.8
	hm := heatmap.New(map[string]map[string]*float64{"A": {"B": &v}})

	require.NoError(t, c.RatioRemTime(j, "B", hm))
	assert.InDelta(t, 12.5, j.RemainingTime, 1e-9)
	assert.InDelta(t, 0.8, j.SimSpeedup, 1e-9)
}

func TestRatioRemTime_MissingPairingReturnsTypedError(t *testing.T) {
	c := New(1, []int{4})
	c.Setup()
	j := job.New(1, "A", 4, 0, 20, 10)
	hm := heatmap.New(nil)

	err := c.RatioRemTime(j, "B", hm)
	require.Error(t, err)
	assert.IsType(t, &simerr.MissingPairingErr{}, err)
}

func TestNonfilledXunits_FiltersFilledOnes(t *testing.T) {
	c := New(1, []int{4})
	c.Setup()
	full := &Xunit{Members: []*job.Job{job.New(1, "A", 4, 0, 10, 10)}}
	idle := &Xunit{Members: []*job.Job{job.New(2, "B", 2, 0, 10, 10), job.EmptyJob(c.TotalProcs)}}
	c.ExecutionList = []*Xunit{full, idle}

	got := c.NonfilledXunits()
	assert.Equal(t, []*Xunit{idle}, got)
}
