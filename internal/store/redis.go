package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xealabs/xea-oracle/internal/model"
)

// RedisPrimary implements the fast job store on Redis, matching the
// original deployment shape where multiple API nodes share one fast
// store. Jobs expire after the configured TTL; the durable store keeps
// them forever.
type RedisPrimary struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPrimary creates a Redis-backed primary store from a URL like
// redis://localhost:6379/0
func NewRedisPrimary(redisURL string, ttl time.Duration) (*RedisPrimary, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultPrimaryTTL
	}
	return &RedisPrimary{
		client: redis.NewClient(opts),
		ttl:    ttl,
	}, nil
}

func redisJobKey(jobID string) string {
	return "xea:job:" + jobID
}

// GetJob retrieves a job record from Redis. Any Redis error is treated
// as a miss: the caller falls back to the durable store.
func (r *RedisPrimary) GetJob(jobID string) (*model.JobRecord, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := r.client.Get(ctx, redisJobKey(jobID)).Bytes()
	if err != nil {
		return nil, false
	}

	var job model.JobRecord
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, false
	}
	return &job, true
}

// PutJob stores a job record with the configured TTL
func (r *RedisPrimary) PutJob(job *model.JobRecord) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.client.Set(ctx, redisJobKey(job.JobID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// DeleteJob removes a job record from Redis
func (r *RedisPrimary) DeleteJob(jobID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Del(ctx, redisJobKey(jobID)).Err()
}

// Close releases the underlying Redis connection
func (r *RedisPrimary) Close() error {
	return r.client.Close()
}
