package model

// ClaimType categorizes the nature of a claim
type ClaimType string

const (
	ClaimTypeFactual      ClaimType = "factual"      // Verifiable statements of fact
	ClaimTypeMathematical ClaimType = "mathematical" // Numeric/arithmetic assertions
	ClaimTypeTemporal     ClaimType = "temporal"     // Dates, deadlines, durations
	ClaimTypeComparative  ClaimType = "comparative"  // Relative comparisons
	ClaimTypeProcedural   ClaimType = "procedural"   // Process or governance steps
	ClaimTypeConditional  ClaimType = "conditional"  // If/then commitments
)

// CharRange marks the [start, end) character span of a claim in the
// canonical proposal text.
type CharRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Claim represents an atomic, independently checkable statement extracted
// from a governance proposal. Claims are immutable once a validation job
// has started against them.
type Claim struct {
	ID             string    `json:"id"`              // Stable identifier (e.g. "claim_001")
	Text           string    `json:"text"`            // Verbatim claim text
	ParagraphIndex int       `json:"paragraph_index"` // Zero-indexed paragraph number
	CharRange      CharRange `json:"char_range"`      // Span in the canonical text
	Type           ClaimType `json:"type"`
	Canonical      string    `json:"canonical"` // Normalized numeric/address/URL value for dedup
}
