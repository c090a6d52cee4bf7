package index

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/promptdex/promptdex/internal/normalize"
)

// InsertResult reports the outcome of TryInsert.
type InsertResult struct {
	// Inserted is true when a new Entry was appended.
	Inserted bool

	// ExistingID is the identifier of the entry that caused rejection.
	// Empty when Inserted is true.
	ExistingID string
}

// Store is the in-memory ordered index for a single conversation. The
// ordered sequence is the display and export order (first-seen order); the
// three maps are derived lookup structures and are rebuilt, never persisted.
//
// All mutating operations are serialized by an internal mutex so the
// persistence adapter's debounce timer can snapshot a consistent view from
// its own goroutine.
type Store struct {
	mu            sync.RWMutex
	entries       []Entry
	byID          map[string]int    // id -> position in entries
	byFingerprint map[string]string // fingerprint -> id
	byCanonical   map[string]string // canonical key -> id

	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for consistency warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		byID:          make(map[string]int),
		byFingerprint: make(map[string]string),
		byCanonical:   make(map[string]string),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TryInsert attempts to add a new entry. The duplicate checks run in fixed
// order and the first match wins:
//
//  1. fingerprint already mapped (O(1), identical re-render)
//  2. canonical key already mapped (O(1), exact after normalization)
//  3. canonical key near-duplicates an existing key (O(n), last resort;
//     runs once per new candidate, not per render)
//
// On rejection the existing entry's id is returned so the caller can tag the
// source node for navigation. Identifier equality is never a dedup signal;
// an id that is already present without a text match only means the same
// tagged node is being re-ingested, and is rejected to keep the maps
// one-to-one.
func (s *Store) TryInsert(id, text string) InsertResult {
	canonical := normalize.Canonicalize(text)
	fingerprint := normalize.Fingerprint(canonical)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byFingerprint[fingerprint]; ok {
		return InsertResult{ExistingID: existing}
	}
	if existing, ok := s.byCanonical[canonical]; ok {
		return InsertResult{ExistingID: existing}
	}
	for candidate, existing := range s.byCanonical {
		if normalize.IsNearDuplicate(canonical, candidate) {
			return InsertResult{ExistingID: existing}
		}
	}
	if _, ok := s.byID[id]; ok {
		// Reaching here with fresh text means an id collision, not a
		// duplicate. The entry is still rejected to keep the maps
		// one-to-one, but it is a defect worth surfacing, not a dedup.
		s.logger.Warn("id already present with different text, rejecting to keep maps consistent",
			slog.String("id", id))
		return InsertResult{ExistingID: id}
	}

	s.entries = append(s.entries, Entry{ID: id, Text: text})
	s.byID[id] = len(s.entries) - 1
	s.byFingerprint[fingerprint] = id
	s.byCanonical[canonical] = id
	return InsertResult{Inserted: true}
}

// Reset atomically clears the ordered sequence and all lookup maps.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Store) clearLocked() {
	s.entries = nil
	s.byID = make(map[string]int)
	s.byFingerprint = make(map[string]string)
	s.byCanonical = make(map[string]string)
}

// LoadFrom replaces the current state wholesale with entries rebuilt from a
// persisted record. Fingerprints and canonical keys are recomputed; only the
// ordered entry list is the source of truth across restarts. Entries that
// would violate the uniqueness invariant (a corrupt or hand-edited record)
// are skipped with a warning.
func (s *Store) LoadFrom(entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearLocked()
	for _, e := range entries {
		canonical := normalize.Canonicalize(e.Text)
		fingerprint := normalize.Fingerprint(canonical)
		if _, dup := s.byFingerprint[fingerprint]; dup {
			s.logger.Warn("skipping persisted entry with duplicate fingerprint",
				slog.String("id", e.ID))
			continue
		}
		if _, dup := s.byCanonical[canonical]; dup {
			s.logger.Warn("skipping persisted entry with duplicate canonical key",
				slog.String("id", e.ID))
			continue
		}
		if _, dup := s.byID[e.ID]; dup {
			s.logger.Warn("skipping persisted entry with duplicate id",
				slog.String("id", e.ID))
			continue
		}
		s.entries = append(s.entries, e)
		s.byID[e.ID] = len(s.entries) - 1
		s.byFingerprint[fingerprint] = e.ID
		s.byCanonical[canonical] = e.ID
	}
}

// Search returns entries whose text contains needle case-insensitively,
// preserving first-seen order. An empty needle returns all entries.
func (s *Store) Search(needle string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if needle == "" {
		return append([]Entry(nil), s.entries...)
	}
	lower := strings.ToLower(needle)
	var out []Entry
	for _, e := range s.entries {
		if strings.Contains(strings.ToLower(e.Text), lower) {
			out = append(out, e)
		}
	}
	return out
}

// Entries returns a copy of the ordered sequence.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.entries...)
}

// Get returns the entry with the given identifier.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.byID[id]
	if !ok {
		return Entry{}, false
	}
	return s.entries[pos], true
}

// Len returns the number of indexed entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
