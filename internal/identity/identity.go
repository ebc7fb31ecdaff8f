package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/seitarof/projgen/internal/schema"
)

// hashLen is the number of hex characters kept from the digest. The
// truncation keeps generated type names readable; the registry falls back
// to full-signature comparison, so a collision is detected rather than
// silently merged.
const hashLen = 8

// fieldSep separates field tuples inside a signature. Newlines cannot
// appear in field or type names.
const fieldSep = "\n"

// Identity is the content-addressed identity of one schema.
type Identity struct {
	Hash      string
	Signature string
}

// Signature builds the canonical signature string for s: one
// name:type:optional tuple per field, in declaration order. Nested
// schemas contribute through their generated type name, which already
// encodes their own hash, so identical nested shapes fold transitively.
func Signature(s *schema.Schema) string {
	parts := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		parts = append(parts, f.Name+":"+f.DeclaredType.DisplayName()+":"+strconv.FormatBool(f.IsOptional))
	}
	return strings.Join(parts, fieldSep)
}

// Compute hashes the schema's signature. Two schemas with identical
// field sequences always produce the same identity.
func Compute(s *schema.Schema) Identity {
	sig := Signature(s)
	sum := sha256.Sum256([]byte(sig))
	return Identity{
		Hash:      hex.EncodeToString(sum[:])[:hashLen],
		Signature: sig,
	}
}
