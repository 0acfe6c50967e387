package tracelog

import (
	"encoding/csv"
	"fmt"
	"io"

	"gonum.org/v1/gonum/stat"
)

// GanttRect is one rectangle on the (time, processor) plane: job sig on
// host's ProcSet interval, running from Start to Finish.
type GanttRect struct {
	JobSignature string
	Host         string
	ProcLo       int
	ProcHi       int
	Start        float64
	Finish       float64
}

// GetGanttRepresentation builds one rectangle per job per ProcSet interval
// held by that job, suitable for a JSON figure spec fed to an external
// plotting consumer (out of scope for this core).
func (l *Logger) GetGanttRepresentation() []GanttRect {
	var out []GanttRect
	for _, rec := range l.Records() {
		if rec.StartTime == 0 && rec.FinishTime <= 0 {
			continue
		}
		for host, cores := range rec.ProcSets {
			for _, iv := range cores.Intervals() {
				out = append(out, GanttRect{
					JobSignature: rec.Signature,
					Host:         host,
					ProcLo:       iv[0],
					ProcHi:       iv[1],
					Start:        rec.StartTime,
					Finish:       rec.FinishTime,
				})
			}
		}
	}
	return out
}

// swfColumns is the fixed 18-field Standard Workload Format column count.
const swfColumns = 18

// WriteWorkload emits Standard Workload Format rows to w: columns 1-5 and
// 8-9 populated (Job Number, Submit, Wait, Run, Allocated Processors,
// Requested Processors, Requested Time); column 14 (Executable Number)
// carries the job name; every other column is emitted empty.
func (l *Logger) WriteWorkload(w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for _, rec := range l.Records() {
		row := make([]string, swfColumns)
		jobNumber, err := parseJobNumber(rec.Signature)
		if err != nil {
			return fmt.Errorf("tracelog: %w", err)
		}
		run := rec.FinishTime - rec.StartTime
		if rec.FinishTime < 0 {
			run = 0
		}
		allocated := 0
		for _, cores := range rec.ProcSets {
			allocated += cores.Cardinality()
		}
		row[0] = fmt.Sprintf("%d", jobNumber)
		row[1] = fmt.Sprintf("%g", rec.SubmitTime)
		row[2] = fmt.Sprintf("%g", rec.WaitTime)
		row[3] = fmt.Sprintf("%g", run)
		row[4] = fmt.Sprintf("%d", allocated)
		row[7] = fmt.Sprintf("%d", rec.Requested)
		row[8] = fmt.Sprintf("%g", rec.WallTime)
		row[13] = jobNameFromSignature(rec.Signature)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("tracelog: writing SWF row: %w", err)
		}
	}
	return cw.Error()
}

func parseJobNumber(signature string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(signature, "%d:", &n); err != nil {
		return 0, fmt.Errorf("parsing job number from signature %q: %w", signature, err)
	}
	return n, nil
}

func jobNameFromSignature(signature string) string {
	for i, c := range signature {
		if c == ':' {
			return signature[i+1:]
		}
	}
	return signature
}

// UtilizationPoint is one step of the unused-cores-over-time graph.
type UtilizationPoint struct {
	Time        float64
	UnusedCores int
}

// GetUnusedCoresGraph returns the unused-cores step function keyed on
// checkpoints.
func (l *Logger) GetUnusedCoresGraph() []UtilizationPoint {
	out := make([]UtilizationPoint, len(l.Checkpoints))
	for i, cp := range l.Checkpoints {
		out[i] = UtilizationPoint{Time: cp.Time, UnusedCores: cp.UnusedCores}
	}
	return out
}

// UtilizationSummary reports the mean and variance of unused cores across
// checkpoints, used by post-run utilization reporting actions.
func (l *Logger) UtilizationSummary() (mean, variance float64) {
	vals := make([]float64, len(l.Checkpoints))
	for i, cp := range l.Checkpoints {
		vals[i] = float64(cp.UnusedCores)
	}
	mean = stat.Mean(vals, nil)
	variance = stat.Variance(vals, nil)
	return mean, variance
}

// ThroughputPoint is one step of the finished-jobs-over-time graph.
type ThroughputPoint struct {
	Time          float64
	FinishedJobs  int
}

// GetJobsThroughput returns the finished-jobs step function keyed on
// checkpoints.
func (l *Logger) GetJobsThroughput() []ThroughputPoint {
	out := make([]ThroughputPoint, len(l.Checkpoints))
	for i, cp := range l.Checkpoints {
		out[i] = ThroughputPoint{Time: cp.Time, FinishedJobs: cp.FinishedJobs}
	}
	return out
}

// WaitingQueuePoint is one step of the waiting-queue-depth-over-time graph.
type WaitingQueuePoint struct {
	Time        float64
	WaitingJobs int
}

// GetWaitingQueueGraph returns the waiting-queue-depth step function keyed
// on checkpoints.
func (l *Logger) GetWaitingQueueGraph() []WaitingQueuePoint {
	out := make([]WaitingQueuePoint, len(l.Checkpoints))
	for i, cp := range l.Checkpoints {
		out[i] = WaitingQueuePoint{Time: cp.Time, WaitingJobs: cp.WaitingJobs}
	}
	return out
}

// JobUtilization is a per-job comparison triple against a reference run.
type JobUtilization struct {
	Signature       string
	Speedup         float64
	TurnaroundRatio float64
	WaitingDelta    float64
}

// GetJobsUtilization compares this logger's per-job turnaround and
// waiting time against a reference (baseline) logger's run of the same
// job signatures.
func (l *Logger) GetJobsUtilization(base *Logger) []JobUtilization {
	var out []JobUtilization
	for _, rec := range l.Records() {
		baseRec := base.Record(rec.Signature)
		if baseRec == nil || baseRec.FinishTime < 0 || rec.FinishTime < 0 {
			continue
		}
		turnaround := rec.FinishTime - rec.SubmitTime
		baseTurnaround := baseRec.FinishTime - baseRec.SubmitTime
		var ratio float64
		if baseTurnaround != 0 {
			ratio = turnaround / baseTurnaround
		}
		out = append(out, JobUtilization{
			Signature:       rec.Signature,
			Speedup:         baseTurnaround / maxFloat(turnaround, 1e-9),
			TurnaroundRatio: ratio,
			WaitingDelta:    rec.WaitTime - baseRec.WaitTime,
		})
	}
	return out
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
