package query

import (
	"crypto/sha256"
	"encoding/hex"
)

// Structural equality and hashing ride on the canonical String renderings:
// logical terms and sort terms render in declared order (order is meaning),
// include children and selection entries render sorted (order is not).
// Hashes are therefore consistent with equality by construction.

// FilterEqual reports structural equality of two filter trees. Two nil
// filters are equal.
func FilterEqual(a, b FilterNode) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}

// HashFilter returns a stable hex digest of a filter tree.
func HashFilter(f FilterNode) string {
	if f == nil {
		return ""
	}
	return digest(f.String())
}

// Equal reports structural equality of two layers.
func (l *Layer) Equal(other *Layer) bool {
	if l == nil || other == nil {
		return l == nil && other == nil
	}
	return l.String() == other.String()
}

// Hash returns a stable hex digest of the whole descriptor.
func (l *Layer) Hash() string {
	return digest(l.String())
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
