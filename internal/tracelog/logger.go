package tracelog

import (
	"github.com/google/uuid"

	"github.com/elise-sim/elise/internal/job"
	"github.com/elise-sim/elise/internal/procset"
)

// EventKind distinguishes the two notifications the engine sends the
// Logger.
type EventKind int

const (
	JobStart EventKind = iota
	JobFinish
)

// Logger is the event sink for one simulation run. It is immutable
// behavior: all output shaping happens in the Get*
// methods below, never by runtime-patching the Logger itself.
type Logger struct {
	initialCores int

	Checkpoints []Checkpoint
	Counters    DeployCounters

	jobEvents map[string]*JobRecord
	order     []string // signature insertion order, for deterministic iteration
}

// Setup initializes the logger for a cluster with the given total
// processor count.
func Setup(totalCores int) *Logger {
	return &Logger{
		initialCores: totalCores,
		Checkpoints:  []Checkpoint{{Time: 0, UnusedCores: totalCores, FinishedJobs: 0}},
		jobEvents:    map[string]*JobRecord{},
	}
}

// recordFor returns j's JobRecord, creating it on first reference.
func (l *Logger) recordFor(j *job.Job) *JobRecord {
	sig := j.Signature()
	rec, ok := l.jobEvents[sig]
	if !ok {
		rec = newJobRecord(sig, j.SubmitTime, j.NumOfProcesses, j.WallTime)
		rec.ID = uuid.NewString()
		l.jobEvents[sig] = rec
		l.order = append(l.order, sig)
	}
	return rec
}

// Log records a JobStart or JobFinish notification at clock, updating the
// job's record and appending a checkpoint whenever makespan has advanced
// since the last one. perHost is the per-host ProcSet the job now holds
// (JobStart) — nil for JobFinish.
func (l *Logger) Log(kind EventKind, j *job.Job, clock float64, unusedCores, waitingJobs int, perHost map[string]procset.ProcSet) {
	rec := l.recordFor(j)

	switch kind {
	case JobStart:
		rec.StartTime = clock
		rec.WaitTime = clock - rec.SubmitTime
		for host, cores := range perHost {
			rec.Hosts[host] = true
			if existing, ok := rec.ProcSets[host]; ok {
				rec.ProcSets[host] = existing.Union(cores)
			} else {
				rec.ProcSets[host] = cores
			}
		}
	case JobFinish:
		rec.FinishTime = clock
		l.Counters.Success++
	}

	last := l.Checkpoints[len(l.Checkpoints)-1]
	finished := last.FinishedJobs
	if kind == JobFinish {
		finished++
	}
	if clock > last.Time || kind == JobFinish {
		l.Checkpoints = append(l.Checkpoints, Checkpoint{
			Time:         clock,
			UnusedCores:  unusedCores,
			FinishedJobs: finished,
			WaitingJobs:  waitingJobs,
		})
	}
}

// RecordPlacement tallies which placement strategy started a job, for the
// deploying:{spread,compact,exec-colocation,wait-colocation} counters.
func (l *Logger) RecordPlacement(kind string) {
	switch kind {
	case "spread":
		l.Counters.Spread++
	case "compact":
		l.Counters.Compact++
	case "exec-colocation":
		l.Counters.ExecColocation++
	case "wait-colocation":
		l.Counters.WaitColocation++
	}
}

// RecordFailedDeploy tallies a placement pass that started nothing.
func (l *Logger) RecordFailedDeploy() {
	l.Counters.Failed++
}

// Record returns the accumulated record for signature, or nil if unseen.
func (l *Logger) Record(signature string) *JobRecord {
	return l.jobEvents[signature]
}

// Records returns every job record in first-referenced order.
func (l *Logger) Records() []*JobRecord {
	out := make([]*JobRecord, 0, len(l.order))
	for _, sig := range l.order {
		out = append(out, l.jobEvents[sig])
	}
	return out
}
