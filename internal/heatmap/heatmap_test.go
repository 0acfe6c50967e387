package heatmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestHeatmap_LookupDefined(t *testing.T) {
	h := New(map[string]map[string]*float64{
		"A": {"A": f(1.0), "B": f(0.8)},
		"B": {"B": f(1.0), "A": f(0.9)},
	})
	r := h.Lookup("A", "B")
	assert.Equal(t, Defined, r.Status)
	assert.InDelta(t, 0.8, r.Value, 1e-9)
}

func TestHeatmap_LookupUndefined(t *testing.T) {
	h := New(map[string]map[string]*float64{
		"A": {"A": f(1.0), "B": nil},
	})
	r := h.Lookup("A", "B")
	assert.Equal(t, Undefined, r.Status)
}

func TestHeatmap_LookupNotRepresented(t *testing.T) {
	h := New(map[string]map[string]*float64{
		"A": {"A": f(1.0)},
	})
	assert.Equal(t, NotRepresented, h.Lookup("A", "C").Status)
	assert.Equal(t, NotRepresented, h.Lookup("Z", "C").Status)
}

func TestHeatmap_PairMeanRequiresBothDirections(t *testing.T) {
	h := New(map[string]map[string]*float64{
		"A": {"B": f(0.8)},
		"B": {"A": nil},
	})
	_, ok := h.PairMean("A", "B")
	assert.False(t, ok)
}

func TestHeatmap_PairMeanAveragesBothDirections(t *testing.T) {
	h := New(map[string]map[string]*float64{
		"A": {"B": f(0.8)},
		"B": {"A": f(0.9)},
	})
	mean, ok := h.PairMean("A", "B")
	assert.True(t, ok)
	assert.InDelta(t, 0.85, mean, 1e-9)
}
