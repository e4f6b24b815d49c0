package model

// ClaimAggregation is the per-claim view of the aggregated results
type ClaimAggregation struct {
	ClaimID          string     `json:"claim_id"`
	PoIAgreement     float64    `json:"poi_agreement"`
	ConsensusVerdict Verdict    `json:"consensus_verdict"`
	PoUWMean         float64    `json:"pouw_mean"`
	PoUWCI           [2]float64 `json:"pouw_ci"`
	RespondingMiners int        `json:"responding_miners"`
	Outliers         []string   `json:"outliers,omitempty"` // Flagged miner ids
}

// AggregatedMetrics carries the overall metrics computed from all
// miner responses of a completed job.
type AggregatedMetrics struct {
	PoIAgreement           float64    `json:"poi_agreement"`
	PoIConfidenceInterval  [2]float64 `json:"poi_confidence_interval"`
	PoUWScore              float64    `json:"pouw_score"`
	PoUWConfidenceInterval [2]float64 `json:"pouw_confidence_interval"`
	TotalMiners            int        `json:"total_miners"`
	RespondingMiners       int        `json:"responding_miners"`
	ConsensusVerdict       Verdict    `json:"consensus_verdict"`
	ClaimCoverage          float64    `json:"claim_coverage"` // Fraction of claims with >=1 response
}

// Recommendation is the governance action derived from the metrics
type Recommendation struct {
	Action     string   `json:"action"` // approve, reject, review
	Confidence float64  `json:"confidence"`
	RiskFlags  []string `json:"risk_flags"`
	Summary    string   `json:"summary"`
}

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionReview  = "review"
)

// EvidenceBundle is the final, signable artifact summarizing a job's
// aggregated results. It is immutable once computed: re-aggregating the
// same job with unchanged responses reproduces it byte-for-byte after
// canonicalization (Timestamp is the job's completion time, not the
// aggregation time).
type EvidenceBundle struct {
	ProposalHash        string             `json:"proposal_hash"`
	JobID               string             `json:"job_id"`
	Claims              []ClaimAggregation `json:"claims"`
	OverallPoIAgreement float64            `json:"overall_poi_agreement"`
	OverallPoUWScore    float64            `json:"overall_pouw_score"`
	OverallCI95         [2]float64         `json:"overall_ci_95"`
	CriticalFlags       []string           `json:"critical_flags"`
	Metrics             AggregatedMetrics  `json:"aggregated_metrics"`
	Recommendation      Recommendation     `json:"recommendation"`
	Timestamp           string             `json:"timestamp"`
}
