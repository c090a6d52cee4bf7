package index

import (
	"fmt"

	"github.com/promptdex/promptdex/internal/normalize"
)

// CheckConsistency verifies that the three lookup maps agree with the
// ordered sequence: every entry appears in exactly one slot of each map and
// every map slot points back at an entry. Intended for tests and diagnostic
// paths; the store never runs this on the hot path.
func (s *Store) CheckConsistency() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.byID) != len(s.entries) {
		return fmt.Errorf("id map has %d slots, sequence has %d entries", len(s.byID), len(s.entries))
	}
	if len(s.byFingerprint) != len(s.entries) {
		return fmt.Errorf("fingerprint map has %d slots, sequence has %d entries", len(s.byFingerprint), len(s.entries))
	}
	if len(s.byCanonical) != len(s.entries) {
		return fmt.Errorf("canonical map has %d slots, sequence has %d entries", len(s.byCanonical), len(s.entries))
	}

	for i, e := range s.entries {
		pos, ok := s.byID[e.ID]
		if !ok {
			return fmt.Errorf("entry %q missing from id map", e.ID)
		}
		if pos != i {
			return fmt.Errorf("entry %q at position %d but id map says %d", e.ID, i, pos)
		}

		canonical := normalize.Canonicalize(e.Text)
		if got := s.byCanonical[canonical]; got != e.ID {
			return fmt.Errorf("canonical key of %q maps to %q", e.ID, got)
		}
		if got := s.byFingerprint[normalize.Fingerprint(canonical)]; got != e.ID {
			return fmt.Errorf("fingerprint of %q maps to %q", e.ID, got)
		}
	}
	return nil
}
