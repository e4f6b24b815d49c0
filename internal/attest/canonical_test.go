package attest

import (
	"regexp"
	"testing"

	"github.com/xealabs/xea-oracle/internal/model"
)

func TestCanonicalizeSortsKeys(t *testing.T) {
	type doc struct {
		Zebra string `json:"zebra"`
		Alpha string `json:"alpha"`
		Mango int    `json:"mango"`
	}

	got, err := Canonicalize(doc{Zebra: "z", Alpha: "a", Mango: 3})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"alpha":"a","mango":3,"zebra":"z"}`
	if string(got) != want {
		t.Fatalf("Canonicalize = %s, want %s", got, want)
	}
}

func TestCanonicalizeDeterministic(t *testing.T) {
	payload := map[string]interface{}{
		"b": []float64{0.1, 0.25, 1},
		"a": map[string]string{"k": "v"},
	}
	first, err := Canonicalize(payload)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		next, err := Canonicalize(payload)
		if err != nil {
			t.Fatal(err)
		}
		if string(next) != string(first) {
			t.Fatalf("run %d produced %s, want %s", i, next, first)
		}
	}
}

func TestHashFormat(t *testing.T) {
	h := Hash([]byte("governance proposal body"))
	if !regexp.MustCompile(`^sha256:[0-9a-f]{64}$`).MatchString(h) {
		t.Fatalf("Hash = %q, want sha256:<64-hex>", h)
	}
	if Hash([]byte("a")) == Hash([]byte("b")) {
		t.Fatal("different inputs hashed identically")
	}
}

func TestEvidenceHashStable(t *testing.T) {
	bundle := &model.EvidenceBundle{
		ProposalHash: "sha256:deadbeef",
		JobID:        "job_1",
		Claims: []model.ClaimAggregation{
			{ClaimID: "claim_001", PoIAgreement: 0.8, ConsensusVerdict: model.VerdictVerified},
		},
		Timestamp: "2026-08-29T12:00:00Z",
	}

	first, err := EvidenceHash(bundle)
	if err != nil {
		t.Fatal(err)
	}
	second, err := EvidenceHash(bundle)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("hash not stable: %s vs %s", first, second)
	}

	bundle.Timestamp = "2026-08-29T12:00:01Z"
	changed, err := EvidenceHash(bundle)
	if err != nil {
		t.Fatal(err)
	}
	if changed == first {
		t.Fatal("mutated bundle kept the same hash")
	}
}
