// Package persist implements the persistence adapter: a debounced save of
// the index store to the durable key-value service, keyed by conversation
// identity, and the load/rehydrate path.
package persist

import (
	"encoding/json"
	"time"

	"github.com/promptdex/promptdex/internal/index"
)

// RecordVersion is the schema version stamped on every persisted record.
const RecordVersion = "1"

// Record is the persisted form of one conversation's index. Only the
// ordered entry list is the source of truth; the store's lookup maps are
// derived and rebuilt on load.
type Record struct {
	Entries      []index.Entry `json:"entries"`
	SavedAt      time.Time     `json:"saved_at"`
	Origin       string        `json:"origin"`
	Conversation string        `json:"conversation"`
	URL          string        `json:"url,omitempty"`
	Title        string        `json:"title,omitempty"`
	Version      string        `json:"version"`
}

// Encode marshals the record for storage.
func (r *Record) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// DecodeRecord parses a stored record. Malformed data returns an error; the
// adapter treats that as "no prior index", not a failure.
func DecodeRecord(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
