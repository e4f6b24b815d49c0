package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xealabs/xea-oracle/internal/model"
)

var (
	// ErrNotFound means the job id is unknown to both backends
	ErrNotFound = errors.New("job not found")

	// ErrInvalidState means the operation is illegal for the job's
	// current state (e.g. aggregating an unfinished job)
	ErrInvalidState = errors.New("invalid job state")
)

// Primary is the fast, TTL-bounded side of the job store. It serves
// active-job reads; a miss or failure here only degrades reads, it is
// never fatal.
type Primary interface {
	GetJob(jobID string) (*model.JobRecord, bool)
	PutJob(job *model.JobRecord) error
	DeleteJob(jobID string) error
}

// Store is the durable record of validation jobs. Every mutation writes
// both the primary and the durable backend; reads try the primary first
// and fall back to the durable store. A durable write failure is fatal
// to the operation, since downstream aggregation depends on it.
type Store struct {
	primary Primary
	durable *DiskStore
	audit   *AuditLog

	mu   sync.Mutex
	jobs map[string]*sync.Mutex // per-job write serialization
}

// New creates a Store over the given primary and durable backends
func New(primary Primary, durable *DiskStore) *Store {
	return &Store{
		primary: primary,
		durable: durable,
		audit:   NewAuditLog(durable.Dir()),
		jobs:    make(map[string]*sync.Mutex),
	}
}

// jobLock returns the mutex serializing mutations for one job id
func (s *Store) jobLock(jobID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.jobs[jobID]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.jobs[jobID] = l
	return l
}

// CreateJob persists a new job record to both backends
func (s *Store) CreateJob(job *model.JobRecord) error {
	if job.ClaimsTotal == 0 {
		return fmt.Errorf("%w: job %s has no claims", ErrInvalidState, job.JobID)
	}
	l := s.jobLock(job.JobID)
	l.Lock()
	defer l.Unlock()
	return s.persist(job)
}

// GetJob loads a job record, primary first, falling back to the durable
// store. A durable hit is promoted back into the primary.
func (s *Store) GetJob(jobID string) (*model.JobRecord, error) {
	if job, ok := s.primary.GetJob(jobID); ok {
		return job, nil
	}

	job, err := s.durable.GetJob(jobID)
	if err != nil {
		return nil, err
	}

	// Promote so subsequent status reads stay fast. Best-effort.
	_ = s.primary.PutJob(job)
	return job, nil
}

// UpdateJob applies mutate to the current record under the job's lock
// and persists the result to both backends. Status monotonicity is the
// mutator's responsibility via JobRecord.SetStatus.
func (s *Store) UpdateJob(jobID string, mutate func(*model.JobRecord) error) error {
	l := s.jobLock(jobID)
	l.Lock()
	defer l.Unlock()

	job, err := s.GetJob(jobID)
	if err != nil {
		return err
	}
	if err := mutate(job); err != nil {
		return err
	}
	return s.persist(job)
}

// AddResponse appends one miner response to a claim's response list,
// recomputes miners_responded as the total across all claims, persists
// the record and appends the response to the per-job audit log.
// Duplicate (claim_id, miner_id) pairs are dropped, which makes
// re-running validation for an existing job idempotent.
func (s *Store) AddResponse(jobID, claimID string, resp model.MinerResponse) error {
	l := s.jobLock(jobID)
	l.Lock()
	defer l.Unlock()

	job, err := s.GetJob(jobID)
	if err != nil {
		return err
	}

	for _, existing := range job.Responses[claimID] {
		if existing.MinerID == resp.MinerID {
			return nil
		}
	}

	if job.Responses == nil {
		job.Responses = make(map[string][]model.MinerResponse)
	}
	job.Responses[claimID] = append(job.Responses[claimID], resp)
	job.MinersResponded = job.ResponseCount()

	if err := s.persist(job); err != nil {
		return err
	}
	return s.audit.Append(jobID, claimID, resp)
}

// PutBundle persists an evidence bundle to the durable store
func (s *Store) PutBundle(bundle *model.EvidenceBundle) error {
	return s.durable.PutBundle(bundle)
}

// GetBundle loads a previously persisted evidence bundle
func (s *Store) GetBundle(jobID string) (*model.EvidenceBundle, error) {
	return s.durable.GetBundle(jobID)
}

// Audit exposes the append-only audit log (read side)
func (s *Store) Audit() *AuditLog {
	return s.audit
}

// persist writes the record to the durable store first, then refreshes
// the primary. The durable write is the one that matters: if it fails
// the operation fails. The primary refresh is best-effort.
func (s *Store) persist(job *model.JobRecord) error {
	if err := s.durable.PutJob(job); err != nil {
		return fmt.Errorf("durable write for job %s: %w", job.JobID, err)
	}
	_ = s.primary.PutJob(job)
	return nil
}

// DefaultPrimaryTTL is how long jobs stay in the fast store
const DefaultPrimaryTTL = 24 * time.Hour
