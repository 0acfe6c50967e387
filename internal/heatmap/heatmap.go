// Package heatmap holds the pairwise speedup/slowdown table between job
// kinds and the three-valued lookup contract schedulers use to decide
// co-location eligibility without resorting to exception-based control
// flow.
package heatmap

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/stat"
)

// Status classifies the result of a Heatmap lookup.
type Status int

const (
	// Defined means both job kinds are known and a speedup value exists.
	Defined Status = iota
	// Undefined means the pairing is explicitly recorded as unknown (JSON
	// null in the heatmap file).
	Undefined
	// NotRepresented means the pairing has no entry at all: either the
	// first job kind has no row, or its row has no entry for the second.
	NotRepresented
)

// Result is the outcome of a Heatmap lookup.
type Result struct {
	Status Status
	Value  float64 // meaningful only when Status == Defined
}

// Heatmap is a total mapping from (job kind A, job kind B) to an effective
// speedup factor, or "unknown" for either axis.
type Heatmap struct {
	table map[string]map[string]*float64
}

// New wraps a raw table, typically produced by Load.
func New(table map[string]map[string]*float64) *Heatmap {
	if table == nil {
		table = map[string]map[string]*float64{}
	}
	return &Heatmap{table: table}
}

// Load reads a heatmap file: JSON mapping {job_name: {partner_job_name: float|null}}.
func Load(path string) (*Heatmap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("heatmap: reading %s: %w", path, err)
	}
	var table map[string]map[string]*float64
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("heatmap: parsing %s: %w", path, err)
	}
	return New(table), nil
}

// Lookup returns the three-valued result of looking up the effective
// speedup of job kind a when co-located with job kind b.
func (h *Heatmap) Lookup(a, b string) Result {
	row, ok := h.table[a]
	if !ok {
		return Result{Status: NotRepresented}
	}
	v, ok := row[b]
	if !ok {
		return Result{Status: NotRepresented}
	}
	if v == nil {
		return Result{Status: Undefined}
	}
	return Result{Status: Defined, Value: *v}
}

// Solo returns the diagonal entry heatmap[name][name], used as a job kind's
// solo-vs-solo baseline speedup when not otherwise populated.
func (h *Heatmap) Solo(name string) Result {
	return h.Lookup(name, name)
}

// PairMean returns the arithmetic mean of the two directed entries between
// a and b, and whether both directions were Defined. A co-location is only
// eligible when both directions are Defined.
func (h *Heatmap) PairMean(a, b string) (mean float64, bothDefined bool) {
	ra := h.Lookup(a, b)
	rb := h.Lookup(b, a)
	if ra.Status != Defined || rb.Status != Defined {
		return 0, false
	}
	return stat.Mean([]float64{ra.Value, rb.Value}, nil), true
}
