package attest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"

	"github.com/xealabs/xea-oracle/internal/model"
)

// Canonicalize serializes v as RFC 8785 canonical JSON: key-sorted,
// whitespace-free, with normalized number formatting. This is the
// single canonicalization routine; the signer and any verifier both go
// through it, so the same bundle can never hash two ways.
func Canonicalize(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return canonical, nil
}

// Hash returns the content address of data as "sha256:<64-hex>"
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// EvidenceHash canonicalizes an evidence bundle and hashes it. The
// result is what the signing collaborator signs.
func EvidenceHash(bundle *model.EvidenceBundle) (string, error) {
	canonical, err := Canonicalize(bundle)
	if err != nil {
		return "", err
	}
	return Hash(canonical), nil
}
