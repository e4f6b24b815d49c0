package aggregate

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/xealabs/xea-oracle/internal/attest"
	"github.com/xealabs/xea-oracle/internal/model"
	"github.com/xealabs/xea-oracle/internal/store"
)

func completedJob(t *testing.T) *model.JobRecord {
	t.Helper()

	job := model.NewJobRecord("job_engine", "sha256:"+hex64('a'), []string{"claim_001", "claim_002"})
	for _, claimID := range job.ClaimIDs {
		for i := 0; i < 4; i++ {
			job.Responses[claimID] = append(job.Responses[claimID], model.MinerResponse{
				MinerID: fmt.Sprintf("miner_%d", i),
				ClaimID: claimID,
				Verdict: model.VerdictVerified,
				Scores: model.MinerScores{
					Accuracy:            0.9,
					OmissionRisk:        0.8,
					EvidenceQuality:     0.85,
					GovernanceRelevance: 0.7,
				},
			})
		}
	}
	job.ClaimsValidated = 2
	job.MinersContacted = 8
	job.MinersResponded = job.ResponseCount()
	if err := job.SetStatus(model.JobRunning); err != nil {
		t.Fatal(err)
	}
	if err := job.SetStatus(model.JobCompleted); err != nil {
		t.Fatal(err)
	}
	return job
}

func hex64(c byte) string {
	b := make([]byte, 64)
	for i := range b {
		b[i] = c
	}
	return string(b)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(store.NewMemoryPrimary(time.Hour), store.NewDiskStore(t.TempDir()))
}

func TestAggregateJobRequiresCompletion(t *testing.T) {
	st := newTestStore(t)
	engine := NewEngine(st)

	job := model.NewJobRecord("job_pending", "sha256:"+hex64('b'), []string{"claim_001"})
	if err := st.CreateJob(job); err != nil {
		t.Fatal(err)
	}

	if _, err := engine.AggregateJob("job_pending"); err == nil {
		t.Fatal("AggregateJob on a queued job succeeded, want error")
	}
	if _, err := engine.AggregateJob("job_missing"); err == nil {
		t.Fatal("AggregateJob on an unknown job succeeded, want error")
	}
}

func TestAggregateJobIdempotent(t *testing.T) {
	st := newTestStore(t)
	engine := NewEngine(st)

	if err := st.CreateJob(completedJob(t)); err != nil {
		t.Fatal(err)
	}

	first, err := engine.AggregateJob("job_engine")
	if err != nil {
		t.Fatal(err)
	}
	second, err := engine.AggregateJob("job_engine")
	if err != nil {
		t.Fatal(err)
	}

	firstJSON, err := attest.Canonicalize(first)
	if err != nil {
		t.Fatal(err)
	}
	secondJSON, err := attest.Canonicalize(second)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(firstJSON, secondJSON) {
		t.Fatalf("re-aggregation changed the bundle:\n%s\nvs\n%s", firstJSON, secondJSON)
	}

	stored, err := st.GetBundle("job_engine")
	if err != nil {
		t.Fatal(err)
	}
	storedJSON, err := attest.Canonicalize(stored)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(firstJSON, storedJSON) {
		t.Fatal("persisted bundle differs from the returned one")
	}
}

func TestBuildBundleMetrics(t *testing.T) {
	job := completedJob(t)
	bundle := BuildBundle(job)

	if len(bundle.Claims) != 2 {
		t.Fatalf("bundle has %d claim aggregations, want 2", len(bundle.Claims))
	}
	for _, c := range bundle.Claims {
		if c.PoIAgreement != 1.0 {
			t.Errorf("claim %s poi_agreement = %v, want 1.0 for unanimous responses", c.ClaimID, c.PoIAgreement)
		}
		if c.ConsensusVerdict != model.VerdictVerified {
			t.Errorf("claim %s consensus = %s, want verified", c.ClaimID, c.ConsensusVerdict)
		}
		if c.PoUWCI[0] > c.PoUWCI[1] {
			t.Errorf("claim %s CI %v is not ascending", c.ClaimID, c.PoUWCI)
		}
		if c.RespondingMiners != 4 {
			t.Errorf("claim %s responding_miners = %d, want 4", c.ClaimID, c.RespondingMiners)
		}
	}

	m := bundle.Metrics
	if m.ClaimCoverage != 1.0 {
		t.Errorf("claim_coverage = %v, want 1.0", m.ClaimCoverage)
	}
	if m.TotalMiners != 4 || m.RespondingMiners != 4 {
		t.Errorf("miners = (%d, %d), want (4, 4)", m.TotalMiners, m.RespondingMiners)
	}
	if m.ConsensusVerdict != model.VerdictVerified {
		t.Errorf("overall consensus = %s, want verified", m.ConsensusVerdict)
	}

	// Unanimous verified responses with strong scores must approve.
	wantPoUW := PoUWComposite(model.MinerScores{
		Accuracy: 0.9, OmissionRisk: 0.8, EvidenceQuality: 0.85, GovernanceRelevance: 0.7,
	})
	if m.PoUWScore != wantPoUW {
		t.Errorf("pouw_score = %v, want %v", m.PoUWScore, wantPoUW)
	}
	if bundle.Recommendation.Action != model.ActionApprove {
		t.Errorf("recommendation = %s, want approve", bundle.Recommendation.Action)
	}

	if job.CompletedAt == nil {
		t.Fatal("completed job has no completion time")
	}
	if want := job.CompletedAt.UTC().Format(time.RFC3339); bundle.Timestamp != want {
		t.Errorf("timestamp = %q, want %q", bundle.Timestamp, want)
	}
}

func TestBuildBundleUncoveredClaim(t *testing.T) {
	job := completedJob(t)
	job.ClaimIDs = append(job.ClaimIDs, "claim_003")
	job.ClaimsTotal = 3

	bundle := BuildBundle(job)
	if len(bundle.Claims) != 3 {
		t.Fatalf("bundle has %d claim aggregations, want 3", len(bundle.Claims))
	}
	bare := bundle.Claims[2]
	if bare.RespondingMiners != 0 {
		t.Fatalf("uncovered claim reports %d responders", bare.RespondingMiners)
	}
	if bare.ConsensusVerdict != model.VerdictUnverifiable {
		t.Fatalf("uncovered claim consensus = %s, want unverifiable", bare.ConsensusVerdict)
	}
	if want := Round3(2.0 / 3.0); bundle.Metrics.ClaimCoverage != want {
		t.Fatalf("claim_coverage = %v, want %v", bundle.Metrics.ClaimCoverage, want)
	}
}
