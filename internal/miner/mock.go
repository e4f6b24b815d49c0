package miner

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"

	"github.com/xealabs/xea-oracle/internal/aggregate"
	"github.com/xealabs/xea-oracle/internal/model"
)

// MockConfig configures one mock miner's behavior
type MockConfig struct {
	MinerID       string
	AccuracyRange [2]float64
	DelayRange    [2]time.Duration
	FailureRate   float64
	Seed          int64
}

// MockMiner simulates validation responses for local development and
// testing. Given the same seed, claim and miner id it always produces
// the same response, so end-to-end runs are reproducible.
type MockMiner struct {
	config MockConfig
}

// NewMockMiner creates a mock miner
func NewMockMiner(config MockConfig) *MockMiner {
	if config.AccuracyRange == [2]float64{} {
		config.AccuracyRange = [2]float64{0.7, 0.98}
	}
	return &MockMiner{config: config}
}

// NewMockPool creates a pool of mock miners with varying accuracy and
// failure characteristics, the same spread for a given seed.
func NewMockPool(count int, seed int64) []Miner {
	if count <= 0 {
		count = 5
	}
	miners := make([]Miner, 0, count)
	for i := 0; i < count; i++ {
		miners = append(miners, NewMockMiner(MockConfig{
			MinerID:       fmt.Sprintf("mock_miner_%03d", i),
			AccuracyRange: [2]float64{0.65 + float64(i)*0.05, 0.90 + float64(i)*0.02},
			DelayRange:    [2]time.Duration{10 * time.Millisecond, 100 * time.Millisecond},
			FailureRate:   0.05 + float64(i)*0.01,
			Seed:          seed,
		}))
	}
	return miners
}

// ID returns the miner's identifier
func (m *MockMiner) ID() string {
	return m.config.MinerID
}

// ValidateClaim simulates claim validation. The verdict is derived from
// the claim text hash (roughly 70% verified, 15% partial, 10%
// unverifiable, 5% refuted); scores vary per miner but stay inside the
// configured ranges.
func (m *MockMiner) ValidateClaim(ctx context.Context, claim model.Claim, proposalContext string) (*model.MinerResponse, error) {
	rng := m.rng(claim)

	// Honor the configured latency, respecting cancellation.
	if delay := m.delay(rng); delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if rng.Float64() < m.config.FailureRate {
		return nil, fmt.Errorf("miner %s: simulated failure", m.config.MinerID)
	}

	claimHash := sha256.Sum256([]byte(claim.Text))
	verdictSeed := binary.BigEndian.Uint32(claimHash[:4]) % 100

	var verdict model.Verdict
	switch {
	case verdictSeed < 70:
		verdict = model.VerdictVerified
	case verdictSeed < 85:
		verdict = model.VerdictPartial
	case verdictSeed < 95:
		verdict = model.VerdictUnverifiable
	default:
		verdict = model.VerdictRefuted
	}

	lo, hi := m.config.AccuracyRange[0], m.config.AccuracyRange[1]
	scores := model.MinerScores{
		Accuracy:            aggregate.Round3(lo + rng.Float64()*(hi-lo)),
		OmissionRisk:        aggregate.Round3(0.05 + rng.Float64()*0.25),
		EvidenceQuality:     aggregate.Round3(0.6 + rng.Float64()*0.35),
		GovernanceRelevance: aggregate.Round3(0.7 + rng.Float64()*0.28),
	}
	scores.Composite = aggregate.PoUWComposite(scores)

	embedding := make([]float64, 10)
	for i := range embedding {
		embedding[i] = aggregate.Round3(rng.Float64()*2 - 1)
	}

	snippet := claim.Text
	if len(snippet) > 50 {
		snippet = snippet[:50]
	}

	return &model.MinerResponse{
		MinerID:   m.config.MinerID,
		ClaimID:   claim.ID,
		Verdict:   verdict,
		Rationale: fmt.Sprintf("Mock validation of claim: %s...", snippet),
		EvidenceLinks: []string{
			"https://example.com/evidence/mock",
			fmt.Sprintf("ipfs://Qm%x", claimHash[:20]),
		},
		Embedding: embedding,
		Scores:    scores,
	}, nil
}

// rng derives a deterministic source from the pool seed, miner id and
// claim text, so two calls for the same claim always agree
func (m *MockMiner) rng(claim model.Claim) *rand.Rand {
	h := sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%s", m.config.Seed, m.config.MinerID, claim.Text)))
	seed := int64(binary.BigEndian.Uint64(h[:8]))
	return rand.New(rand.NewSource(seed))
}

func (m *MockMiner) delay(rng *rand.Rand) time.Duration {
	lo, hi := m.config.DelayRange[0], m.config.DelayRange[1]
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rng.Int63n(int64(hi-lo)))
}
