package aggregate

import (
	"github.com/xealabs/xea-oracle/internal/model"
)

// PoUW rubric weights. These must sum to exactly 1.0; it is a system
// invariant, not a tunable default.
const (
	WeightAccuracy            = 0.4
	WeightOmissionRisk        = 0.3
	WeightEvidenceQuality     = 0.2
	WeightGovernanceRelevance = 0.1
)

// PoUWComposite computes the Proof-of-Useful-Work composite score from
// the four rubric dimensions. OmissionRisk enters the sum directly (not
// inverted), matching the published rubric.
func PoUWComposite(scores model.MinerScores) float64 {
	composite := WeightAccuracy*scores.Accuracy +
		WeightOmissionRisk*scores.OmissionRisk +
		WeightEvidenceQuality*scores.EvidenceQuality +
		WeightGovernanceRelevance*scores.GovernanceRelevance
	return Round3(composite)
}

// PoIAgreement computes the Proof-of-Inference agreement for one claim:
// the fraction of its responses that share the plurality verdict.
// Returns 0 when the claim has no responses.
func PoIAgreement(responses []model.MinerResponse, claimID string) float64 {
	counts := verdictCounts(responses, claimID)
	total := 0
	max := 0
	for _, n := range counts {
		total += n
		if n > max {
			max = n
		}
	}
	if total == 0 {
		return 0
	}
	return Round3(float64(max) / float64(total))
}

// ConsensusVerdict returns the plurality verdict among a claim's
// responses. Ties are broken by the fixed precedence order
// verified > partial > unverifiable > refuted. With no responses the
// claim is unverifiable.
func ConsensusVerdict(responses []model.MinerResponse, claimID string) model.Verdict {
	counts := verdictCounts(responses, claimID)
	if len(counts) == 0 {
		return model.VerdictUnverifiable
	}

	best := model.VerdictUnverifiable
	bestCount := -1
	for _, v := range model.Verdicts {
		if counts[v] > bestCount {
			best = v
			bestCount = counts[v]
		}
	}
	return best
}

func verdictCounts(responses []model.MinerResponse, claimID string) map[model.Verdict]int {
	counts := make(map[model.Verdict]int)
	for _, r := range responses {
		if r.ClaimID != claimID {
			continue
		}
		counts[r.Verdict]++
	}
	return counts
}
