// Package procset implements ProcSet, a compact ordered set of processor IDs
// stored as a disjoint union of closed intervals.
package procset

import (
	"fmt"
	"strconv"
	"strings"
)

// interval is a closed range [Lo, Hi] of processor IDs, Lo <= Hi.
type interval struct {
	Lo, Hi int
}

// ProcSet is an ordered set of non-negative integer processor IDs, stored as
// a disjoint, non-adjacent, strictly increasing list of closed intervals.
// The zero value is the empty set.
type ProcSet struct {
	intervals []interval
}

// New builds a ProcSet from a list of individual processor IDs (order and
// duplicates do not matter).
func New(ids ...int) ProcSet {
	var p ProcSet
	for _, id := range ids {
		p = p.Union(fromInterval(id, id))
	}
	return p
}

// Range builds a ProcSet containing every ID in [lo, hi].
func Range(lo, hi int) ProcSet {
	if hi < lo {
		return ProcSet{}
	}
	return fromInterval(lo, hi)
}

func fromInterval(lo, hi int) ProcSet {
	return ProcSet{intervals: []interval{{Lo: lo, Hi: hi}}}
}

// IsEmpty reports whether the set has no members.
func (p ProcSet) IsEmpty() bool {
	return len(p.intervals) == 0
}

// Cardinality returns the number of processor IDs in the set.
func (p ProcSet) Cardinality() int {
	n := 0
	for _, iv := range p.intervals {
		n += iv.Hi - iv.Lo + 1
	}
	return n
}

// Contains reports whether id is a member of the set.
func (p ProcSet) Contains(id int) bool {
	for _, iv := range p.intervals {
		if id >= iv.Lo && id <= iv.Hi {
			return true
		}
		if id < iv.Lo {
			break
		}
	}
	return false
}

// Ints returns the set's members in ascending order.
func (p ProcSet) Ints() []int {
	out := make([]int, 0, p.Cardinality())
	for _, iv := range p.intervals {
		for id := iv.Lo; id <= iv.Hi; id++ {
			out = append(out, id)
		}
	}
	return out
}

// Intervals returns the set's closed intervals in ascending, non-overlapping,
// non-adjacent order. The returned slice is a copy; callers may not mutate
// the receiver through it.
func (p ProcSet) Intervals() [][2]int {
	out := make([][2]int, len(p.intervals))
	for i, iv := range p.intervals {
		out[i] = [2]int{iv.Lo, iv.Hi}
	}
	return out
}

// Take returns a ProcSet of the first n ascending IDs in p (or all of p if
// n exceeds its cardinality).
func (p ProcSet) Take(n int) ProcSet {
	ids := p.Ints()
	if n > len(ids) {
		n = len(ids)
	}
	return New(ids[:n]...)
}

// Union returns the set of IDs present in p or q (or both), in O(n+m).
func (p ProcSet) Union(q ProcSet) ProcSet {
	merged := mergeSorted(p.intervals, q.intervals)
	return ProcSet{intervals: coalesce(merged)}
}

// Difference returns the set of IDs present in p but not in q, in O(n+m).
func (p ProcSet) Difference(q ProcSet) ProcSet {
	var out []interval
	j := 0
	for _, iv := range p.intervals {
		lo := iv.Lo
		for j < len(q.intervals) && q.intervals[j].Hi < lo {
			j++
		}
		k := j
		cur := lo
		for k < len(q.intervals) && q.intervals[k].Lo <= iv.Hi {
			cut := q.intervals[k]
			if cut.Lo > cur {
				out = append(out, interval{Lo: cur, Hi: cut.Lo - 1})
			}
			if cut.Hi+1 > cur {
				cur = cut.Hi + 1
			}
			k++
		}
		if cur <= iv.Hi {
			out = append(out, interval{Lo: cur, Hi: iv.Hi})
		}
	}
	return ProcSet{intervals: coalesce(out)}
}

// Intersect returns the set of IDs present in both p and q, in O(n+m).
func (p ProcSet) Intersect(q ProcSet) ProcSet {
	var out []interval
	i, j := 0, 0
	for i < len(p.intervals) && j < len(q.intervals) {
		a, b := p.intervals[i], q.intervals[j]
		lo := max(a.Lo, b.Lo)
		hi := min(a.Hi, b.Hi)
		if lo <= hi {
			out = append(out, interval{Lo: lo, Hi: hi})
		}
		if a.Hi < b.Hi {
			i++
		} else {
			j++
		}
	}
	return ProcSet{intervals: coalesce(out)}
}

// Equal reports whether p and q contain exactly the same IDs.
func (p ProcSet) Equal(q ProcSet) bool {
	if len(p.intervals) != len(q.intervals) {
		return false
	}
	for i := range p.intervals {
		if p.intervals[i] != q.intervals[i] {
			return false
		}
	}
	return true
}

// String renders the set in canonical "lo-hi lo-hi ..." form, single IDs
// rendered without a dash.
func (p ProcSet) String() string {
	parts := make([]string, len(p.intervals))
	for i, iv := range p.intervals {
		if iv.Lo == iv.Hi {
			parts[i] = strconv.Itoa(iv.Lo)
		} else {
			parts[i] = fmt.Sprintf("%d-%d", iv.Lo, iv.Hi)
		}
	}
	return strings.Join(parts, " ")
}

// FromString parses the canonical "lo-hi lo-hi ..." form produced by String.
func FromString(s string) (ProcSet, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ProcSet{}, nil
	}
	var out ProcSet
	for _, tok := range strings.Fields(s) {
		lo, hi, err := parseRangeToken(tok)
		if err != nil {
			return ProcSet{}, fmt.Errorf("procset: parsing %q: %w", tok, err)
		}
		out = out.Union(fromInterval(lo, hi))
	}
	return out, nil
}

func parseRangeToken(tok string) (int, int, error) {
	if dash := strings.IndexByte(tok, '-'); dash >= 0 {
		lo, err := strconv.Atoi(tok[:dash])
		if err != nil {
			return 0, 0, err
		}
		hi, err := strconv.Atoi(tok[dash+1:])
		if err != nil {
			return 0, 0, err
		}
		if hi < lo {
			return 0, 0, fmt.Errorf("range %q has hi < lo", tok)
		}
		return lo, hi, nil
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, 0, err
	}
	return v, v, nil
}

func mergeSorted(a, b []interval) []interval {
	out := make([]interval, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].Lo <= b[j].Lo {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// coalesce merges overlapping and adjacent intervals from a Lo-sorted slice
// into the canonical strictly-increasing, non-adjacent form.
func coalesce(sorted []interval) []interval {
	if len(sorted) == 0 {
		return nil
	}
	out := make([]interval, 0, len(sorted))
	cur := sorted[0]
	for _, iv := range sorted[1:] {
		if iv.Lo <= cur.Hi+1 {
			if iv.Hi > cur.Hi {
				cur.Hi = iv.Hi
			}
			continue
		}
		out = append(out, cur)
		cur = iv
	}
	out = append(out, cur)
	return out
}
