package validate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xealabs/xea-oracle/internal/fanout"
	"github.com/xealabs/xea-oracle/internal/hub"
	"github.com/xealabs/xea-oracle/internal/model"
	"github.com/xealabs/xea-oracle/internal/store"
)

// Orchestrator drives validation jobs end to end: it iterates a job's
// claims, fans each one out to the miner pool, records every collected
// response and publishes progress. Claims are processed one at a time
// (parallel within a claim, sequential across claims), so progress is
// monotonic and worst-case wall time is claims x timeout.
type Orchestrator struct {
	store   *store.Store
	hub     *hub.Hub
	miners  []fanout.Validator
	quorum  int
	timeout time.Duration
}

// New creates an orchestrator over the given store, hub and miner pool
func New(st *store.Store, h *hub.Hub, miners []fanout.Validator, cfg model.ValidationConfig) *Orchestrator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Orchestrator{
		store:   st,
		hub:     h,
		miners:  miners,
		quorum:  cfg.Quorum,
		timeout: timeout,
	}
}

// Start creates a queued job for the proposal's claims and runs the
// validation in the background. The job id is returned immediately.
func (o *Orchestrator) Start(ctx context.Context, proposalHash string, claims []model.Claim) (string, error) {
	if len(claims) == 0 {
		return "", fmt.Errorf("%w: proposal %s has no claims", store.ErrInvalidState, proposalHash)
	}

	jobID := "job_" + uuid.NewString()
	claimIDs := make([]string, len(claims))
	for i, c := range claims {
		claimIDs[i] = c.ID
	}

	job := model.NewJobRecord(jobID, proposalHash, claimIDs)
	if err := o.store.CreateJob(job); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}

	go func() {
		// The request context ends when the caller's request does;
		// the background run owns its own lifetime.
		_ = o.Run(context.Background(), jobID, proposalHash, claims)
	}()

	return jobID, nil
}

// Run validates every claim of the job against the miner pool. Partial
// quorum misses never fail the job; only a job with nothing to validate
// fails. Re-running for an existing job id does not duplicate responses
// already collected (the store dedupes per claim and miner).
func (o *Orchestrator) Run(ctx context.Context, jobID, proposalHash string, claims []model.Claim) error {
	if len(claims) == 0 {
		o.fail(jobID, fmt.Sprintf("no claims found for proposal %s", proposalHash))
		return fmt.Errorf("%w: job %s has no claims", store.ErrInvalidState, jobID)
	}

	if err := o.transition(jobID, model.JobRunning); err != nil {
		return err
	}

	for _, claim := range claims {
		if err := o.validateClaim(ctx, jobID, claim, proposalHash); err != nil {
			// Persistence failures are fatal for the job: aggregation
			// correctness depends on the durable trail.
			o.fail(jobID, fmt.Sprintf("persist responses for %s: %v", claim.ID, err))
			return err
		}
	}

	return o.transition(jobID, model.JobCompleted)
}

// validateClaim fans one claim out to the pool and records the results
func (o *Orchestrator) validateClaim(ctx context.Context, jobID string, claim model.Claim, proposalContext string) error {
	var persistErr error
	sink := func(resp model.MinerResponse) {
		// Persist first, then broadcast: subscribers never see a
		// response the durable store does not have.
		if err := o.store.AddResponse(jobID, claim.ID, resp); err != nil {
			if persistErr == nil {
				persistErr = err
			}
			return
		}
		o.hub.Broadcast(jobID, hub.Event{
			Type:     hub.EventMinerResponse,
			JobID:    jobID,
			ClaimID:  claim.ID,
			Response: &resp,
		})
	}

	fanout.Collect(ctx, claim, proposalContext, o.miners, o.quorum, o.timeout, sink)
	if persistErr != nil {
		return persistErr
	}

	var progress model.JobProgress
	err := o.store.UpdateJob(jobID, func(job *model.JobRecord) error {
		// Clamped so a resumed run over already-validated claims
		// cannot inflate the counters past their bounds.
		if job.ClaimsValidated < job.ClaimsTotal {
			job.ClaimsValidated++
		}
		if job.MinersContacted < job.ClaimsTotal*len(o.miners) {
			job.MinersContacted += len(o.miners)
		}
		progress = job.Progress()
		return nil
	})
	if err != nil {
		return err
	}

	o.hub.Broadcast(jobID, hub.Event{
		Type:     hub.EventStatus,
		JobID:    jobID,
		Status:   model.JobRunning,
		Progress: &progress,
	})
	return nil
}

// transition moves the job to the next status and broadcasts it
func (o *Orchestrator) transition(jobID string, next model.JobStatus) error {
	var progress model.JobProgress
	err := o.store.UpdateJob(jobID, func(job *model.JobRecord) error {
		if err := job.SetStatus(next); err != nil {
			return err
		}
		progress = job.Progress()
		return nil
	})
	if err != nil {
		return err
	}

	o.hub.Broadcast(jobID, hub.Event{
		Type:     hub.EventStatus,
		JobID:    jobID,
		Status:   next,
		Progress: &progress,
	})
	return nil
}

// fail marks the job failed with a reason. Failure here is terminal
// and best-effort: a job that cannot even record its failure has
// already surfaced the underlying error to the caller.
func (o *Orchestrator) fail(jobID, reason string) {
	_ = o.store.UpdateJob(jobID, func(job *model.JobRecord) error {
		return job.SetStatus(model.JobFailed)
	})
	o.hub.Broadcast(jobID, hub.Event{
		Type:    hub.EventStatus,
		JobID:   jobID,
		Status:  model.JobFailed,
		Message: reason,
	})
}
