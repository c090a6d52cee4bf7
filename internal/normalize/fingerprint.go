package normalize

import (
	"strconv"
	"strings"
)

const (
	fnvOffset32 = 0x811c9dc5
	fnvPrime32  = 0x01000193

	// MinNearDupLen is the minimum canonical-key length for fuzzy matching.
	// Shorter keys are too likely to be coincidental substrings of each other.
	MinNearDupLen = 16

	// NearDupRatio is the minimum shorter/longer length ratio for two keys
	// to be considered truncation or continuation variants.
	NearDupRatio = 0.9
)

// Fingerprint computes a 32-bit FNV-1a hash of a canonical key, encoded in
// base 36. It is a fast pre-filter for exact duplicates only; the canonical
// key map is always consulted independently.
func Fingerprint(key string) string {
	h := uint32(fnvOffset32)
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= fnvPrime32
	}
	return strconv.FormatUint(uint64(h), 36)
}

// IsNearDuplicate reports whether two canonical keys describe the same
// underlying submission. True when the keys are equal, or when both are at
// least MinNearDupLen long, one contains the other, and their lengths differ
// by no more than NearDupRatio.
func IsNearDuplicate(a, b string) bool {
	return isNearDuplicate(a, b, MinNearDupLen, NearDupRatio)
}

func isNearDuplicate(a, b string, minLen int, ratio float64) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	short, long := len(a), len(b)
	if short > long {
		short, long = long, short
	}
	if short < minLen {
		return false
	}
	if float64(short)/float64(long) < ratio {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
