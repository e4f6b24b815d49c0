package validate

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xealabs/xea-oracle/internal/fanout"
	"github.com/xealabs/xea-oracle/internal/hub"
	"github.com/xealabs/xea-oracle/internal/miner"
	"github.com/xealabs/xea-oracle/internal/model"
	"github.com/xealabs/xea-oracle/internal/store"
)

func testPool(count int) []fanout.Validator {
	miners := make([]fanout.Validator, 0, count)
	for i := 0; i < count; i++ {
		miners = append(miners, miner.NewMockMiner(miner.MockConfig{
			MinerID:     fmt.Sprintf("mock_miner_%03d", i),
			DelayRange:  [2]time.Duration{time.Millisecond, 5 * time.Millisecond},
			FailureRate: 0,
			Seed:        42,
		}))
	}
	return miners
}

func testClaims() []model.Claim {
	return []model.Claim{
		{ID: "claim_001", Text: "The treasury will allocate 500000 tokens to the grants program.", Type: model.ClaimTypeFactual},
		{ID: "claim_002", Text: "Voting closes on 2026-09-15 at the end of epoch 120.", Type: model.ClaimTypeTemporal},
	}
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *store.Store, *hub.Hub) {
	t.Helper()
	st := store.New(store.NewMemoryPrimary(time.Hour), store.NewDiskStore(t.TempDir()))
	h := hub.New(time.Minute)
	o := New(st, h, testPool(5), model.ValidationConfig{Quorum: 3, Timeout: 2 * time.Second})
	return o, st, h
}

func waitForTerminal(t *testing.T, st *store.Store, jobID string) *model.JobRecord {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, err := st.GetJob(jobID)
		require.NoError(t, err)
		if job.Status == model.JobCompleted || job.Status == model.JobFailed {
			return job
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal status")
	return nil
}

func TestStartRejectsEmptyClaims(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	_, err := o.Start(context.Background(), "sha256:abc", nil)
	assert.ErrorIs(t, err, store.ErrInvalidState)
}

func TestStartRunsJobToCompletion(t *testing.T) {
	o, st, _ := newTestOrchestrator(t)

	jobID, err := o.Start(context.Background(), "sha256:abc", testClaims())
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	job := waitForTerminal(t, st, jobID)
	assert.Equal(t, model.JobCompleted, job.Status)
	assert.Equal(t, 2, job.ClaimsTotal)
	assert.Equal(t, 2, job.ClaimsValidated)
	assert.Equal(t, 10, job.MinersContacted)

	// Quorum stops each claim's race at 3 responses.
	for _, claimID := range job.ClaimIDs {
		got := len(job.Responses[claimID])
		assert.GreaterOrEqual(t, got, 3, "claim %s below quorum", claimID)
		assert.LessOrEqual(t, got, 5, "claim %s over pool size", claimID)
	}
	assert.Equal(t, job.ResponseCount(), job.MinersResponded)
	require.NotNil(t, job.StartedAt)
	require.NotNil(t, job.CompletedAt)
}

func TestRunPublishesProgress(t *testing.T) {
	o, st, h := newTestOrchestrator(t)

	claims := testClaims()
	job := model.NewJobRecord("job_progress", "sha256:abc", []string{"claim_001", "claim_002"})
	require.NoError(t, st.CreateJob(job))

	sub := h.Subscribe("job_progress")
	defer h.Unsubscribe(sub)

	require.NoError(t, o.Run(context.Background(), "job_progress", "sha256:abc", claims))

	var sawResponse, sawRunning, sawCompleted bool
	for done := false; !done; {
		select {
		case payload := <-sub.C:
			s := string(payload)
			switch {
			case strings.Contains(s, hub.EventMinerResponse):
				sawResponse = true
			case strings.Contains(s, string(model.JobCompleted)):
				sawCompleted = true
				done = true
			case strings.Contains(s, string(model.JobRunning)):
				sawRunning = true
			}
		case <-time.After(time.Second):
			done = true
		}
	}

	assert.True(t, sawResponse, "no miner_response event published")
	assert.True(t, sawRunning, "no running status event published")
	assert.True(t, sawCompleted, "no completed status event published")
}

func TestRunIdempotentForExistingJob(t *testing.T) {
	o, st, _ := newTestOrchestrator(t)

	claims := testClaims()
	job := model.NewJobRecord("job_rerun", "sha256:abc", []string{"claim_001", "claim_002"})
	require.NoError(t, st.CreateJob(job))

	require.NoError(t, o.Run(context.Background(), "job_rerun", "sha256:abc", claims))

	first, err := st.GetJob("job_rerun")
	require.NoError(t, err)

	// A second run must not duplicate responses or inflate counters.
	// It cannot change status either: the job is already terminal.
	_ = o.Run(context.Background(), "job_rerun", "sha256:abc", claims)

	second, err := st.GetJob("job_rerun")
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, second.Status)
	assert.Equal(t, first.ResponseCount(), second.ResponseCount())
	assert.Equal(t, first.ClaimsValidated, second.ClaimsValidated)
	assert.LessOrEqual(t, second.MinersContacted, second.ClaimsTotal*5)
}
