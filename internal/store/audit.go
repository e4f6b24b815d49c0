package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xealabs/xea-oracle/internal/model"
)

// AuditEntry is one forensic record of a miner response as it arrived
type AuditEntry struct {
	Timestamp time.Time           `json:"timestamp"`
	ClaimID   string              `json:"claim_id"`
	Response  model.MinerResponse `json:"response"`
}

// auditFile is the on-disk layout of a per-job audit log
type auditFile struct {
	JobID     string       `json:"job_id"`
	Responses []AuditEntry `json:"responses"`
}

// AuditLog is an independent, append-only per-job trail of every raw
// miner response. Entries are never mutated or removed, so it stays the
// authoritative record even if a job record is later corrupted or
// reconstructed.
type AuditLog struct {
	dir string
	mu  sync.Mutex
}

// NewAuditLog creates an audit log rooted under dir
func NewAuditLog(dir string) *AuditLog {
	return &AuditLog{dir: dir}
}

// Append records one miner response for a job
func (a *AuditLog) Append(jobID, claimID string, resp model.MinerResponse) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	log, err := a.read(jobID)
	if err != nil {
		return err
	}
	if log == nil {
		log = &auditFile{JobID: jobID}
	}

	log.Responses = append(log.Responses, AuditEntry{
		Timestamp: time.Now().UTC(),
		ClaimID:   claimID,
		Response:  resp,
	})

	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("marshal audit log: %w", err)
	}

	path := a.path(jobID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename audit log: %w", err)
	}
	return nil
}

// Entries returns the recorded responses for a job in arrival order
func (a *AuditLog) Entries(jobID string) ([]AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	log, err := a.read(jobID)
	if err != nil {
		return nil, err
	}
	if log == nil {
		return nil, nil
	}
	return log.Responses, nil
}

func (a *AuditLog) read(jobID string) (*auditFile, error) {
	data, err := os.ReadFile(a.path(jobID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	var log auditFile
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("decode audit log: %w", err)
	}
	return &log, nil
}

func (a *AuditLog) path(jobID string) string {
	return filepath.Join(a.dir, "audit", jobID+".json")
}
