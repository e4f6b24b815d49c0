package model

import (
	"fmt"
	"time"
)

// JobStatus is the lifecycle state of a validation job
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// rank orders statuses for monotonicity checks. Terminal states share
// the same rank so completed<->failed transitions are rejected too.
func (s JobStatus) rank() int {
	switch s {
	case JobQueued:
		return 0
	case JobRunning:
		return 1
	case JobCompleted, JobFailed:
		return 2
	}
	return -1
}

// CanTransition reports whether moving from s to next is a legal,
// forward-only transition (queued -> running -> {completed, failed}).
// Re-asserting the current status is allowed.
func (s JobStatus) CanTransition(next JobStatus) bool {
	if s == next {
		return true
	}
	if s.rank() < 0 || next.rank() < 0 {
		return false
	}
	if s.rank() >= 2 {
		return false // terminal
	}
	return next.rank() == s.rank()+1 || (s == JobQueued && next.rank() == 2)
}

// JobProgress summarizes a job's counters for status queries and
// notification events.
type JobProgress struct {
	ClaimsTotal     int `json:"claims_total"`
	ClaimsValidated int `json:"claims_validated"`
	MinersContacted int `json:"miners_contacted"`
	MinersResponded int `json:"miners_responded"`
}

// JobRecord is the unit of orchestration state for one validation job.
// It is mutated only by the orchestrator/fan-out pair driving the job;
// status queries and the aggregation engine only read it.
type JobRecord struct {
	JobID        string    `json:"job_id"`
	ProposalHash string    `json:"proposal_hash"`
	Status       JobStatus `json:"status"`

	ClaimsTotal     int `json:"claims_total"`
	ClaimsValidated int `json:"claims_validated"`
	MinersContacted int `json:"miners_contacted"`
	MinersResponded int `json:"miners_responded"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// ClaimIDs is fixed at creation time.
	ClaimIDs []string `json:"claim_ids"`

	// Responses maps claim id to the ordered list of responses received
	// so far. Lists are append-only and deduped by (claim_id, miner_id).
	Responses map[string][]MinerResponse `json:"responses"`
}

// NewJobRecord creates a queued JobRecord for the given claims
func NewJobRecord(jobID, proposalHash string, claimIDs []string) *JobRecord {
	return &JobRecord{
		JobID:        jobID,
		ProposalHash: proposalHash,
		Status:       JobQueued,
		ClaimsTotal:  len(claimIDs),
		CreatedAt:    time.Now().UTC(),
		ClaimIDs:     claimIDs,
		Responses:    make(map[string][]MinerResponse),
	}
}

// SetStatus transitions the job to next, enforcing monotonicity and
// setting StartedAt/CompletedAt at most once.
func (j *JobRecord) SetStatus(next JobStatus) error {
	if !j.Status.CanTransition(next) {
		return fmt.Errorf("illegal status transition %s -> %s", j.Status, next)
	}
	if j.Status == next {
		return nil
	}
	now := time.Now().UTC()
	switch next {
	case JobRunning:
		if j.StartedAt == nil {
			j.StartedAt = &now
		}
	case JobCompleted, JobFailed:
		if j.CompletedAt == nil {
			j.CompletedAt = &now
		}
	}
	j.Status = next
	return nil
}

// Clone returns a deep copy of the record. Store adapters hand out
// clones so status readers never share the maps and slices the
// orchestrator is mutating. Individual responses are append-only and
// never edited in place, so their inner slices can be shared.
func (j *JobRecord) Clone() *JobRecord {
	c := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	c.ClaimIDs = append([]string(nil), j.ClaimIDs...)
	if j.Responses != nil {
		c.Responses = make(map[string][]MinerResponse, len(j.Responses))
		for claimID, rs := range j.Responses {
			c.Responses[claimID] = append([]MinerResponse(nil), rs...)
		}
	}
	return &c
}

// Progress returns the job's current counters
func (j *JobRecord) Progress() JobProgress {
	return JobProgress{
		ClaimsTotal:     j.ClaimsTotal,
		ClaimsValidated: j.ClaimsValidated,
		MinersContacted: j.MinersContacted,
		MinersResponded: j.MinersResponded,
	}
}

// AllResponses flattens the per-claim response lists in claim-id order
func (j *JobRecord) AllResponses() []MinerResponse {
	var all []MinerResponse
	for _, claimID := range j.ClaimIDs {
		all = append(all, j.Responses[claimID]...)
	}
	return all
}

// ResponseCount returns the total number of responses across all claims
func (j *JobRecord) ResponseCount() int {
	n := 0
	for _, rs := range j.Responses {
		n += len(rs)
	}
	return n
}

// ReadyForAggregation reports whether the job can be aggregated:
// it has completed and collected at least one response.
func (j *JobRecord) ReadyForAggregation() bool {
	return j.Status == JobCompleted && j.ResponseCount() > 0
}
