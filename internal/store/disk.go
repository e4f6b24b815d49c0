package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xealabs/xea-oracle/internal/model"
)

// DiskStore is the durable, crash-recovery side of the job store. Job
// records and evidence bundles are plain JSON files with no expiry.
type DiskStore struct {
	dir string
}

// NewDiskStore creates a durable store rooted at dir
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

// Dir returns the store's root directory
func (d *DiskStore) Dir() string {
	return d.dir
}

// GetJob loads a job record from disk
func (d *DiskStore) GetJob(jobID string) (*model.JobRecord, error) {
	data, err := os.ReadFile(d.jobPath(jobID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
		}
		return nil, fmt.Errorf("read job file: %w", err)
	}

	var job model.JobRecord
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job file: %w", err)
	}
	return &job, nil
}

// PutJob writes a job record to disk. The write goes through a temp
// file and rename so a crash never leaves a half-written record.
func (d *DiskStore) PutJob(job *model.JobRecord) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	return d.writeFile(d.jobPath(job.JobID), data)
}

// PutBundle writes an evidence bundle to disk
func (d *DiskStore) PutBundle(bundle *model.EvidenceBundle) error {
	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	return d.writeFile(d.bundlePath(bundle.JobID), data)
}

// GetBundle loads an evidence bundle from disk
func (d *DiskStore) GetBundle(jobID string) (*model.EvidenceBundle, error) {
	data, err := os.ReadFile(d.bundlePath(jobID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: bundle for %s", ErrNotFound, jobID)
		}
		return nil, fmt.Errorf("read bundle file: %w", err)
	}

	var bundle model.EvidenceBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("decode bundle file: %w", err)
	}
	return &bundle, nil
}

func (d *DiskStore) jobPath(jobID string) string {
	return filepath.Join(d.dir, "jobs", jobID+".json")
}

func (d *DiskStore) bundlePath(jobID string) string {
	return filepath.Join(d.dir, "bundles", jobID+".json")
}

func (d *DiskStore) writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}
