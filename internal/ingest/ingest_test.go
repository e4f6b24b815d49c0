package ingest

import (
	"regexp"
	"strings"
	"testing"

	"github.com/xealabs/xea-oracle/internal/model"
)

const sampleProposal = `# Treasury Grant Proposal

The treasury will allocate 500,000 USDC to the grants program over two quarters.
Funds are released from 0x52908400098527886E0F7030069857D2E4169EE7 after approval.

Voting must close by 2026-09-15.
If quorum is not reached, the proposal will be resubmitted next epoch.`

func TestCanonicalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf normalized", "line one\r\nline two", "line one\nline two"},
		{"trailing whitespace stripped", "line one  \t\nline two", "line one\nline two"},
		{"outer whitespace trimmed", "\n\n  body  \n\n", "body"},
		{"already canonical", "a\nb", "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalizeText(tt.in); got != tt.want {
				t.Fatalf("CanonicalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestProposalHashStable(t *testing.T) {
	canonical := CanonicalizeText(sampleProposal)

	first := ProposalHash(canonical)
	second := ProposalHash(canonical)
	if first != second {
		t.Fatalf("hash not stable: %s vs %s", first, second)
	}

	if matched := regexp.MustCompile(`^sha256:[0-9a-f]{64}$`).MatchString(first); !matched {
		t.Fatalf("hash %q does not match sha256:<64-hex>", first)
	}

	other := ProposalHash(canonical + " ")
	if other == first {
		t.Fatal("different text produced the same hash")
	}

	// Formatting differences that canonicalize away do not change it.
	reformatted := CanonicalizeText(strings.ReplaceAll(sampleProposal, "\n", "  \r\n"))
	if ProposalHash(reformatted) != first {
		t.Fatal("canonically equal text hashed differently")
	}
}

func TestParagraphs(t *testing.T) {
	paragraphs := Paragraphs(CanonicalizeText(sampleProposal))
	if len(paragraphs) != 3 {
		t.Fatalf("got %d paragraphs, want 3: %q", len(paragraphs), paragraphs)
	}
	for i, p := range paragraphs {
		if strings.TrimSpace(p) == "" {
			t.Fatalf("paragraph %d is blank", i)
		}
	}
}

func TestExtract(t *testing.T) {
	claims := NewExtractor().Extract(CanonicalizeText(sampleProposal))
	if len(claims) == 0 {
		t.Fatal("no claims extracted from claim-bearing proposal")
	}

	canonical := CanonicalizeText(sampleProposal)
	for i, c := range claims {
		if want := ClaimID(i); c.ID != want {
			t.Errorf("claim %d id = %q, want %q", i, c.ID, want)
		}
		if c.CharRange.End <= c.CharRange.Start {
			t.Errorf("claim %s char range %+v is empty", c.ID, c.CharRange)
		}
		if got := canonical[c.CharRange.Start:c.CharRange.End]; got != c.Text {
			t.Errorf("claim %s char range recovers %q, want %q", c.ID, got, c.Text)
		}
		if len(c.Text) < 30 {
			t.Errorf("claim %s text shorter than minimum: %q", c.ID, c.Text)
		}
	}
}

func TestExtractTypes(t *testing.T) {
	tests := []struct {
		name string
		text string
		want model.ClaimType
	}{
		{
			"dates classify as temporal",
			"The governance vote deadline will be 2026-09-15 for everyone.",
			model.ClaimTypeTemporal,
		},
		{
			"conditionals classify as conditional",
			"If quorum is not reached, the proposal will be resubmitted immediately.",
			model.ClaimTypeConditional,
		},
		{
			"comparisons classify as comparative",
			"The new budget allocates more than the previous treasury cycle did.",
			model.ClaimTypeComparative,
		},
		{
			"numbers classify as mathematical",
			"The treasury will transfer 500,000 USDC to the grants multisig wallet.",
			model.ClaimTypeMathematical,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := NewExtractor().Extract(tt.text)
			if len(claims) != 1 {
				t.Fatalf("extracted %d claims from %q, want 1", len(claims), tt.text)
			}
			if claims[0].Type != tt.want {
				t.Fatalf("type = %s, want %s", claims[0].Type, tt.want)
			}
		})
	}
}

func TestExtractSkipsShortAndUncheckable(t *testing.T) {
	text := CanonicalizeText(`Short note.

Hello everyone and welcome, this sentence promises nothing checkable at all, okay.`)
	claims := NewExtractor().Extract(text)
	if len(claims) != 0 {
		t.Fatalf("extracted %d claims from uncheckable text: %+v", len(claims), claims)
	}
}

func TestCanonicalValue(t *testing.T) {
	tests := []struct {
		sentence string
		want     string
	}{
		{"Funds move to 0x52908400098527886E0F7030069857D2E4169EE7 now.", "0x52908400098527886e0f7030069857d2e4169ee7"},
		{"The treasury will allocate 500,000 USDC for grants.", "500000 usdc"},
	}
	for _, tt := range tests {
		if got := canonicalValue(tt.sentence); got != tt.want {
			t.Errorf("canonicalValue(%q) = %q, want %q", tt.sentence, got, tt.want)
		}
	}
}

func TestSplitSentencesKeepsDecimals(t *testing.T) {
	sentences := splitSentences("The fee rises to 1.5 percent next epoch. Voting follows.")
	if len(sentences) != 2 {
		t.Fatalf("got %d sentences, want 2: %q", len(sentences), sentences)
	}
	if !strings.Contains(sentences[0], "1.5") {
		t.Fatalf("decimal split apart: %q", sentences[0])
	}
}
