package store

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/xealabs/xea-oracle/internal/model"
)

// MemoryPrimary implements the fast job store in process memory with a
// TTL. It is the default primary backend for single-node deployments.
type MemoryPrimary struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewMemoryPrimary creates a memory-backed primary store
func NewMemoryPrimary(ttl time.Duration) *MemoryPrimary {
	if ttl <= 0 {
		ttl = DefaultPrimaryTTL
	}
	return &MemoryPrimary{
		cache: gocache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

// GetJob retrieves a job record from memory. The caller gets a clone:
// cached records are shared across goroutines and a status reader must
// never see the orchestrator's in-flight mutations.
func (m *MemoryPrimary) GetJob(jobID string) (*model.JobRecord, bool) {
	if val, found := m.cache.Get(jobID); found {
		return val.(*model.JobRecord).Clone(), true
	}
	return nil, false
}

// PutJob stores a clone of the record with the configured TTL, so
// later writes through the caller's pointer cannot reach the cache.
func (m *MemoryPrimary) PutJob(job *model.JobRecord) error {
	m.cache.Set(job.JobID, job.Clone(), m.ttl)
	return nil
}

// DeleteJob removes a job record from memory
func (m *MemoryPrimary) DeleteJob(jobID string) error {
	m.cache.Delete(jobID)
	return nil
}
