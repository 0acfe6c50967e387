package database

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/elise-sim/elise/internal/job"
	"github.com/elise-sim/elise/internal/simerr"
)

// jobRecord is the on-disk shape of one entry in a jobs file. Producing
// this file (synthetic generators, statistical submission-time
// distributions, real-trace importers) is an external collaborator's
// concern; LoadJobs only consumes it.
type jobRecord struct {
	JobID          int     `json:"job_id"`
	JobName        string  `json:"job_name"`
	NumOfProcesses int     `json:"num_of_processes"`
	SubmitTime     float64 `json:"submit_time"`
	WallTime       float64 `json:"wall_time"`
	RemainingTime  float64 `json:"remaining_time"`
}

// LoadJobs reads a jobs file: a JSON array of job descriptors, ordered by
// submit_time ascending (callers rely on this for deterministic
// admission order among jobs sharing a submit_time).
func LoadJobs(path string) ([]*job.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &simerr.ConfigErr{Detail: fmt.Sprintf("reading jobs file %s", path), Cause: err}
	}
	var records []jobRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &simerr.ConfigErr{Detail: fmt.Sprintf("parsing jobs file %s", path), Cause: err}
	}
	jobs := make([]*job.Job, len(records))
	for i, r := range records {
		jobs[i] = job.New(r.JobID, r.JobName, r.NumOfProcesses, r.SubmitTime, r.WallTime, r.RemainingTime)
	}
	return jobs, nil
}
