package aggregate

import (
	"fmt"

	"github.com/xealabs/xea-oracle/internal/model"
)

// Decision thresholds for the governance recommendation
const (
	approveAgreement = 0.7
	approvePoUW      = 0.6
	rejectAgreement  = 0.7

	lowCoverageThreshold = 0.5
	dispersionThreshold  = 0.3 // max tolerated CI width
)

// Risk flag names surfaced on recommendations and evidence bundles
const (
	FlagLowCoverage      = "low_coverage"
	FlagHighDispersion   = "high_dispersion"
	FlagOutliersDetected = "outliers_detected"
)

// Recommend maps aggregated metrics to a governance action with fixed
// thresholds: approve requires a verified consensus with strong
// agreement and PoUW; reject requires a refuted consensus with strong
// agreement; everything else goes to human review.
func Recommend(metrics model.AggregatedMetrics) model.Recommendation {
	var action string
	switch {
	case metrics.ConsensusVerdict == model.VerdictVerified &&
		metrics.PoIAgreement >= approveAgreement &&
		metrics.PoUWScore >= approvePoUW:
		action = model.ActionApprove
	case metrics.ConsensusVerdict == model.VerdictRefuted &&
		metrics.PoIAgreement >= rejectAgreement:
		action = model.ActionReject
	default:
		action = model.ActionReview
	}

	riskFlags := []string{}
	if metrics.ClaimCoverage < lowCoverageThreshold {
		riskFlags = append(riskFlags, FlagLowCoverage)
	}
	if ciWidth(metrics.PoUWConfidenceInterval) > dispersionThreshold {
		riskFlags = append(riskFlags, FlagHighDispersion)
	}

	confidence := Round3(metrics.PoIAgreement * metrics.PoUWScore * metrics.ClaimCoverage)

	return model.Recommendation{
		Action:     action,
		Confidence: confidence,
		RiskFlags:  riskFlags,
		Summary:    summarize(action, metrics),
	}
}

func ciWidth(ci [2]float64) float64 {
	return ci[1] - ci[0]
}

func summarize(action string, m model.AggregatedMetrics) string {
	return fmt.Sprintf(
		"Consensus %s with %.1f%% miner agreement and PoUW %.3f across %d of %d miners (claim coverage %.1f%%); recommended action: %s.",
		m.ConsensusVerdict,
		m.PoIAgreement*100,
		m.PoUWScore,
		m.RespondingMiners,
		m.TotalMiners,
		m.ClaimCoverage*100,
		action,
	)
}
