package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/xealabs/xea-oracle/internal/model"
)

// CanonicalizeText normalizes proposal text for consistent hashing:
// leading/trailing whitespace stripped, trailing whitespace removed per
// line, line endings unified to \n.
func CanonicalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

// ProposalHash computes the content address of canonical text as
// "sha256:<64-hex>". Identical canonical text always yields the same
// hash.
func ProposalHash(canonicalText string) string {
	sum := sha256.Sum256([]byte(canonicalText))
	return "sha256:" + hex.EncodeToString(sum[:])
}

// Paragraphs splits canonical text into non-empty paragraphs
func Paragraphs(text string) []string {
	parts := paragraphSplit.Split(strings.TrimSpace(text), -1)
	var paragraphs []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

var (
	paragraphSplit = regexp.MustCompile(`\n\s*\n`)

	numberPattern  = regexp.MustCompile(`\b\d[\d,]*(?:\.\d+)?\s*(?:%|USDC|USD|ETH|tokens?)?`)
	addressPattern = regexp.MustCompile(`\b0x[0-9a-fA-F]{40}\b`)
	urlPattern     = regexp.MustCompile(`https?://[^\s)>\]]+`)
	datePattern    = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b|\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}\b`)
)

// claimKeywords mark sentences likely to carry checkable commitments
var claimKeywords = []string{
	"will", "shall", "must", "holds", "allocates", "allocated", "transfers",
	"treasury", "budget", "funds", "deadline", "by the end of", "requires",
	"proposes", "commits", "guarantees", "increases", "decreases",
}

// Extractor turns canonical proposal text into typed atomic claims
// using pattern heuristics. LLM-based decomposition lives behind the
// external extraction collaborator; this extractor is the deterministic
// local path.
type Extractor struct {
	minLength int
	maxLength int
}

// NewExtractor creates a claim extractor
func NewExtractor() *Extractor {
	return &Extractor{minLength: 30, maxLength: 500}
}

// Extract decomposes canonical text into atomic claims with stable ids,
// paragraph indexes and char ranges.
func (e *Extractor) Extract(canonicalText string) []model.Claim {
	var claims []model.Claim
	index := 0

	for pIdx, paragraph := range Paragraphs(canonicalText) {
		for _, sentence := range splitSentences(paragraph) {
			if len(sentence) < e.minLength || len(sentence) > e.maxLength {
				continue
			}
			if !e.looksLikeClaim(sentence) {
				continue
			}

			start := strings.Index(canonicalText, sentence)
			if start < 0 {
				continue
			}

			claims = append(claims, model.Claim{
				ID:             ClaimID(index),
				Text:           sentence,
				ParagraphIndex: pIdx,
				CharRange:      model.CharRange{Start: start, End: start + len(sentence)},
				Type:           classify(sentence),
				Canonical:      canonicalValue(sentence),
			})
			index++
		}
	}
	return claims
}

// ClaimID formats the stable claim identifier for an index
func ClaimID(index int) string {
	return fmt.Sprintf("claim_%03d", index)
}

func (e *Extractor) looksLikeClaim(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, kw := range claimKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return numberPattern.MatchString(sentence) ||
		addressPattern.MatchString(sentence) ||
		datePattern.MatchString(sentence)
}

// classify assigns a claim type from the strongest matching pattern
func classify(sentence string) model.ClaimType {
	lower := strings.ToLower(sentence)
	switch {
	case datePattern.MatchString(sentence):
		return model.ClaimTypeTemporal
	case strings.Contains(lower, "if ") || strings.Contains(lower, "provided that"):
		return model.ClaimTypeConditional
	case strings.Contains(lower, "more than") || strings.Contains(lower, "less than") ||
		strings.Contains(lower, "higher") || strings.Contains(lower, "lower") ||
		strings.Contains(lower, "compared"):
		return model.ClaimTypeComparative
	case numberPattern.MatchString(sentence):
		return model.ClaimTypeMathematical
	case strings.Contains(lower, "shall") || strings.Contains(lower, "must") ||
		strings.Contains(lower, "process") || strings.Contains(lower, "vote"):
		return model.ClaimTypeProcedural
	}
	return model.ClaimTypeFactual
}

// canonicalValue extracts a normalized identifier for deduplication:
// the first address, URL, number or date found, lowercased with commas
// stripped. Falls back to a prefix of the normalized sentence.
func canonicalValue(sentence string) string {
	for _, p := range []*regexp.Regexp{addressPattern, urlPattern, numberPattern, datePattern} {
		if m := p.FindString(sentence); m != "" {
			return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(m), ",", ""))
		}
	}
	normalized := strings.ToLower(strings.Join(strings.Fields(sentence), " "))
	if len(normalized) > 64 {
		normalized = normalized[:64]
	}
	return normalized
}

// splitSentences splits a paragraph on sentence terminators, avoiding
// splits inside numbers ("1.5") by requiring trailing whitespace
func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder
	for i, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 >= len(text) || text[i+1] == ' ' || text[i+1] == '\t' {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
