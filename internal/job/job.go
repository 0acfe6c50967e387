// Package job implements the Job record: immutable identity plus mutable
// runtime state of one simulated HPC batch job.
package job

import (
	"fmt"

	"github.com/elise-sim/elise/internal/procset"
)

// State is a job's lifecycle state. Only PENDING -> EXECUTING -> FINISHED
// is exercised by the core; FAILED and ABORTED are reserved for future
// policy extensions.
type State string

const (
	Pending   State = "PENDING"
	Executing State = "EXECUTING"
	Finished  State = "FINISHED"
	Failed    State = "FAILED"
	Aborted   State = "ABORTED"
)

// Character classifies how a job behaves under co-location, used by
// co-scheduler rank functions.
type Character string

const (
	Compact Character = "COMPACT"
	Spread  Character = "SPREAD"
	Robust  Character = "ROBUST"
	Frail   Character = "FRAIL"
)

// emptyJobID is the sentinel identity used by EmptyJob.
const emptyJobID = -1

// Job is one job's identity, resource request, and mutable runtime state.
type Job struct {
	// Identity (immutable once constructed).
	JobID   int
	JobName string

	// Resources requested.
	NumOfProcesses int

	// Temporal.
	SubmitTime    float64
	WaitingTime   float64
	WallTime      float64
	RemainingTime float64
	StartTime     float64
	FinishTime    float64 // -1 until finish

	// Performance coefficients, from the heatmap / load metadata.
	MaxSpeedup float64
	AvgSpeedup float64
	MinSpeedup float64

	// Mutable runtime state.
	AssignedHosts map[string]bool
	AssignedCores procset.ProcSet
	SimSpeedup    float64
	JobCharacter  Character
	Age           int
	State         State
}

// New constructs a PENDING job with FinishTime set to the -1 sentinel and
// SimSpeedup defaulted to 1.0 (compact-exclusive baseline). MaxSpeedup,
// AvgSpeedup, and MinSpeedup are left at the zero value: 0 means "not yet
// populated from the heatmap diagonal", which is how database.Setup
// decides whether to fill them in.
func New(jobID int, jobName string, numOfProcesses int, submitTime, wallTime, remainingTime float64) *Job {
	return &Job{
		JobID:          jobID,
		JobName:        jobName,
		NumOfProcesses: numOfProcesses,
		SubmitTime:     submitTime,
		WallTime:       wallTime,
		RemainingTime:  remainingTime,
		FinishTime:     -1,
		SimSpeedup:     1.0,
		JobCharacter:   Compact,
		State:          Pending,
		AssignedHosts:  map[string]bool{},
	}
}

// EmptyJob constructs the sentinel idle job used exclusively as the tail of
// an xunit to carry unused processors. It takes only the cores it wraps;
// NumOfProcesses is derived from their cardinality.
func EmptyJob(cores procset.ProcSet) *Job {
	return &Job{
		JobID:          emptyJobID,
		JobName:        "idle",
		NumOfProcesses: cores.Cardinality(),
		RemainingTime:  -1,
		FinishTime:     -1,
		AssignedCores:  cores,
		AssignedHosts:  map[string]bool{},
		State:          Executing,
	}
}

// IsEmptyJob reports whether j is the idle sentinel.
func (j *Job) IsEmptyJob() bool {
	return j != nil && j.JobID == emptyJobID
}

// Signature returns the job's identity string "{id}:{name}", used as the
// key into a Host's per-job processor map.
func (j *Job) Signature() string {
	return fmt.Sprintf("%d:%s", j.JobID, j.JobName)
}

func (j *Job) String() string {
	return fmt.Sprintf("Job(%s, procs=%d, state=%s, remaining=%.3f)", j.Signature(), j.NumOfProcesses, j.State, j.RemainingTime)
}

// Equal compares identity, resource, and timing fields. It deliberately
// excludes SimSpeedup (and the other runtime fields: assigned hosts and
// cores, character, age, state) from the comparison. The timing fields
// compared include WaitingTime, RemainingTime, StartTime, and FinishTime,
// so two copies that have since been rescaled or run differently are not
// equal.
func (j *Job) Equal(other *Job) bool {
	if j == nil || other == nil {
		return j == other
	}
	return j.JobID == other.JobID &&
		j.JobName == other.JobName &&
		j.NumOfProcesses == other.NumOfProcesses &&
		j.SubmitTime == other.SubmitTime &&
		j.WaitingTime == other.WaitingTime &&
		j.WallTime == other.WallTime &&
		j.RemainingTime == other.RemainingTime &&
		j.StartTime == other.StartTime &&
		j.FinishTime == other.FinishTime &&
		j.MaxSpeedup == other.MaxSpeedup &&
		j.AvgSpeedup == other.AvgSpeedup &&
		j.MinSpeedup == other.MinSpeedup
}

// DeepCopy yields a standalone Job usable for backfill simulation (the
// Conservative scheduler's projection table) and for dispatching work to
// parallel workers without aliasing the original's mutable fields.
func (j *Job) DeepCopy() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	cp.AssignedHosts = make(map[string]bool, len(j.AssignedHosts))
	for h := range j.AssignedHosts {
		cp.AssignedHosts[h] = true
	}
	// procset.ProcSet's Union/Difference/Intersect always return freshly
	// owned slices, so copying the struct value is safe:
	// Union with the empty set yields an unaliased copy of the intervals.
	cp.AssignedCores = j.AssignedCores.Union(procset.ProcSet{})
	return &cp
}
