package miner

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/xealabs/xea-oracle/internal/model"
)

func mockClaim() model.Claim {
	return model.Claim{
		ID:   "claim_001",
		Text: "The treasury will allocate 500000 tokens to the grants program.",
		Type: model.ClaimTypeFactual,
	}
}

func TestMockMinerDeterministic(t *testing.T) {
	m := NewMockMiner(MockConfig{
		MinerID:    "mock_miner_000",
		DelayRange: [2]time.Duration{0, 0},
		Seed:       7,
	})

	first, err := m.ValidateClaim(context.Background(), mockClaim(), "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.ValidateClaim(context.Background(), mockClaim(), "")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same seed produced different responses:\n%+v\nvs\n%+v", first, second)
	}

	if !first.Verdict.IsValid() {
		t.Fatalf("verdict %q is not a known verdict", first.Verdict)
	}
	if first.ClaimID != "claim_001" || first.MinerID != "mock_miner_000" {
		t.Fatalf("response mislabeled: %+v", first)
	}
	if len(first.Embedding) != 10 {
		t.Fatalf("embedding has %d dimensions, want 10", len(first.Embedding))
	}
}

func TestMockMinerScoreBounds(t *testing.T) {
	m := NewMockMiner(MockConfig{
		MinerID:       "mock_miner_001",
		AccuracyRange: [2]float64{0.7, 0.98},
		DelayRange:    [2]time.Duration{0, 0},
		Seed:          7,
	})

	resp, err := m.ValidateClaim(context.Background(), mockClaim(), "")
	if err != nil {
		t.Fatal(err)
	}

	s := resp.Scores
	for name, v := range map[string]float64{
		"accuracy":             s.Accuracy,
		"omission_risk":        s.OmissionRisk,
		"evidence_quality":     s.EvidenceQuality,
		"governance_relevance": s.GovernanceRelevance,
		"composite":            s.Composite,
	} {
		if v < 0 || v > 1 {
			t.Errorf("%s = %v outside [0, 1]", name, v)
		}
	}
	if s.Accuracy < 0.7 || s.Accuracy > 0.98 {
		t.Errorf("accuracy %v outside configured range", s.Accuracy)
	}
}

func TestMockMinerAlwaysFailing(t *testing.T) {
	m := NewMockMiner(MockConfig{
		MinerID:     "mock_miner_002",
		DelayRange:  [2]time.Duration{0, 0},
		FailureRate: 1.0,
		Seed:        7,
	})
	if _, err := m.ValidateClaim(context.Background(), mockClaim(), ""); err == nil {
		t.Fatal("failure rate 1.0 returned a response")
	}
}

func TestMockMinerHonorsCancellation(t *testing.T) {
	m := NewMockMiner(MockConfig{
		MinerID:    "mock_miner_003",
		DelayRange: [2]time.Duration{time.Second, 2 * time.Second},
		Seed:       7,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := m.ValidateClaim(ctx, mockClaim(), "")
	if err == nil {
		t.Fatal("cancelled validation returned a response")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("cancelled validation took %v", elapsed)
	}
}

func TestNewMockPool(t *testing.T) {
	pool := NewMockPool(5, 42)
	if len(pool) != 5 {
		t.Fatalf("pool size %d, want 5", len(pool))
	}
	seen := make(map[string]bool)
	for _, m := range pool {
		if seen[m.ID()] {
			t.Fatalf("duplicate miner id %s", m.ID())
		}
		seen[m.ID()] = true
	}

	// Non-positive count falls back to the default pool.
	if got := len(NewMockPool(0, 42)); got != 5 {
		t.Fatalf("default pool size %d, want 5", got)
	}
}
