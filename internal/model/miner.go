package model

// Verdict is a miner's judgement on a single claim
type Verdict string

const (
	VerdictVerified     Verdict = "verified"
	VerdictRefuted      Verdict = "refuted"
	VerdictUnverifiable Verdict = "unverifiable"
	VerdictPartial      Verdict = "partial"
)

// Verdicts lists all valid verdicts in tie-break precedence order
// (most optimistic first). ConsensusVerdict uses this order when
// multiple verdicts share the maximum count.
var Verdicts = []Verdict{
	VerdictVerified,
	VerdictPartial,
	VerdictUnverifiable,
	VerdictRefuted,
}

// IsValid reports whether v is one of the known verdicts
func (v Verdict) IsValid() bool {
	for _, known := range Verdicts {
		if v == known {
			return true
		}
	}
	return false
}

// MinerScores is the PoUW scoring breakdown for a miner response.
// All values are in [0, 1]. Composite is derived from the other four
// and is never independently trusted.
type MinerScores struct {
	Accuracy            float64 `json:"accuracy"`
	OmissionRisk        float64 `json:"omission_risk"`
	EvidenceQuality     float64 `json:"evidence_quality"`
	GovernanceRelevance float64 `json:"governance_relevance"`
	Composite           float64 `json:"composite"`
}

// MinerResponse is one miner's answer for one claim
type MinerResponse struct {
	MinerID       string      `json:"miner_id"`
	ClaimID       string      `json:"claim_id"`
	Verdict       Verdict     `json:"verdict"`
	Rationale     string      `json:"rationale"`
	EvidenceLinks []string    `json:"evidence_links"`
	Embedding     []float64   `json:"embedding,omitempty"` // Optional, used for outlier detection
	Scores        MinerScores `json:"scores"`
}
