// Package event provides a deterministic event-ordering primitive: a
// binary heap ordered by (timestamp, priority, tie-break), implemented via
// container/heap. The compute engine does not use it; it orders its own
// finish events by job ID.
package event

import "container/heap"

// Event is anything schedulable onto an EventQueue. Priority breaks ties
// between events at the same Timestamp (lower runs first); TieBreak breaks
// ties between events at the same (Timestamp, Priority) deterministically.
type Event interface {
	Timestamp() float64
	Priority() int
	TieBreak() int64
}

// Base provides the common fields concrete event types embed.
type Base struct {
	At       float64
	Prio     int
	Tie      int64
}

func NewBase(at float64, priority int, tieBreak int64) Base {
	return Base{At: at, Prio: priority, Tie: tieBreak}
}

func (b Base) Timestamp() float64 { return b.At }
func (b Base) Priority() int      { return b.Prio }
func (b Base) TieBreak() int64    { return b.Tie }

// Queue is a priority queue of Events ordered deterministically by
// (Timestamp, Priority, TieBreak): within one simulated tick, lower
// Priority events are dispatched first, and same-priority events break
// ties by TieBreak.
type Queue struct {
	events []Event
}

// NewQueue returns an empty, ready-to-use Queue.
func NewQueue() *Queue {
	q := &Queue{}
	heap.Init(q)
	return q
}

func (q *Queue) Len() int { return len(q.events) }

func (q *Queue) Less(i, j int) bool {
	a, b := q.events[i], q.events[j]
	if a.Timestamp() != b.Timestamp() {
		return a.Timestamp() < b.Timestamp()
	}
	if a.Priority() != b.Priority() {
		return a.Priority() < b.Priority()
	}
	return a.TieBreak() < b.TieBreak()
}

func (q *Queue) Swap(i, j int) { q.events[i], q.events[j] = q.events[j], q.events[i] }

func (q *Queue) Push(x any) { q.events = append(q.events, x.(Event)) }

func (q *Queue) Pop() any {
	old := q.events
	n := len(old)
	item := old[n-1]
	q.events = old[:n-1]
	return item
}

// Schedule adds an event to the queue.
func (q *Queue) Schedule(e Event) { heap.Push(q, e) }

// PopNext removes and returns the earliest-ordered event, or nil if empty.
func (q *Queue) PopNext() Event {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(q).(Event)
}

// Peek returns the earliest-ordered event without removing it, or nil if
// empty.
func (q *Queue) Peek() Event {
	if q.Len() == 0 {
		return nil
	}
	return q.events[0]
}
