// Package index maintains the per-conversation ordered index of unique
// user-authored entries, together with the lookup structures used for
// duplicate rejection: fingerprint, canonical key, and identifier.
package index

// Entry is one indexed unique user submission. Entries are immutable after
// creation; they are removed only by Reset or replaced wholesale by LoadFrom.
type Entry struct {
	// ID is the stable identifier. It comes from a source-provided stable
	// attribute when present, otherwise it is generated (time-seeded random
	// token). IDs are never reused or reassigned.
	ID string `json:"id"`

	// Text is the canonicalized display text, truncated at extraction time.
	Text string `json:"text"`
}
