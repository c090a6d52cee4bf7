package index

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_TryInsert_New(t *testing.T) {
	s := New()

	res := s.TryInsert("id-1", "please review my pull request")

	assert.True(t, res.Inserted)
	assert.Empty(t, res.ExistingID)
	assert.Equal(t, 1, s.Len())
	require.NoError(t, s.CheckConsistency())
}

func TestStore_TryInsert_ExactDuplicate(t *testing.T) {
	// Given: an entry already in the store
	s := New()
	require.True(t, s.TryInsert("id-1", "please review my pull request").Inserted)

	// When: the identical text arrives under a different id
	res := s.TryInsert("id-2", "please review my pull request")

	// Then: rejected, pointing at the original entry
	assert.False(t, res.Inserted)
	assert.Equal(t, "id-1", res.ExistingID)
	assert.Equal(t, 1, s.Len())
}

func TestStore_TryInsert_NormalizedDuplicate(t *testing.T) {
	s := New()
	require.True(t, s.TryInsert("id-1", "Please review my pull request!").Inserted)

	// Case and punctuation differences canonicalize to the same key.
	res := s.TryInsert("id-2", "please   review my pull request")

	assert.False(t, res.Inserted)
	assert.Equal(t, "id-1", res.ExistingID)
}

func TestStore_TryInsert_MultiPartMarkerMerges(t *testing.T) {
	s := New()
	base := "please summarize this long article about geese"
	require.True(t, s.TryInsert("id-1", base).Inserted)

	res := s.TryInsert("id-2", base+" (1/2)")

	assert.False(t, res.Inserted)
	assert.Equal(t, "id-1", res.ExistingID)
}

func TestStore_TryInsert_NearDuplicateMerges(t *testing.T) {
	s := New()
	base := "please summarize this long article about geese"
	require.True(t, s.TryInsert("id-1", base).Inserted)

	// Re-render with a short continuation appended: containment + ratio >= 0.9.
	res := s.TryInsert("id-2", base+" now")

	assert.False(t, res.Inserted)
	assert.Equal(t, "id-1", res.ExistingID)
}

func TestStore_TryInsert_IDCollisionRejectedAndWarned(t *testing.T) {
	// Given: a store whose logger is captured
	var buf bytes.Buffer
	s := New(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	require.True(t, s.TryInsert("id-1", "please review my pull request").Inserted)

	// When: genuinely different text arrives under an already used id
	res := s.TryInsert("id-1", "now write a changelog for the release")

	// Then: rejected only to keep the maps one-to-one, and logged as a
	// defect rather than passed off as a duplicate
	assert.False(t, res.Inserted)
	assert.Equal(t, "id-1", res.ExistingID)
	assert.Equal(t, 1, s.Len())
	assert.Contains(t, buf.String(), "id already present")
	require.NoError(t, s.CheckConsistency())
}

func TestStore_TryInsert_ShortSubstringDoesNotMerge(t *testing.T) {
	s := New()
	long := "please summarize this long article about geese"
	require.True(t, s.TryInsert("id-1", long).Inserted)

	// 10-char substring is below the length-16 floor.
	res := s.TryInsert("id-2", "summarize")

	assert.True(t, res.Inserted)
	assert.Equal(t, 2, s.Len())
}

func TestStore_OrderPreservation(t *testing.T) {
	s := New()
	for _, text := range []string{"a", "b", "c"} {
		require.True(t, s.TryInsert("id-"+text, text).Inserted)
	}

	got := s.Search("")

	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Text)
	assert.Equal(t, "b", got[1].Text)
	assert.Equal(t, "c", got[2].Text)
}

func TestStore_Search(t *testing.T) {
	s := New()
	require.True(t, s.TryInsert("1", "fix the Foo handler").Inserted)
	require.True(t, s.TryInsert("2", "write release notes").Inserted)
	require.True(t, s.TryInsert("3", "refactor foobar module").Inserted)

	got := s.Search("foo")

	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
	assert.Len(t, s.Search(""), s.Len())
	assert.Empty(t, s.Search("nonexistent"))
}

func TestStore_Reset(t *testing.T) {
	s := New()
	require.True(t, s.TryInsert("1", "hello there world").Inserted)

	s.Reset()

	assert.Equal(t, 0, s.Len())
	require.NoError(t, s.CheckConsistency())

	// Previously rejected text inserts cleanly after reset.
	assert.True(t, s.TryInsert("2", "hello there world").Inserted)
}

func TestStore_LoadFrom_RebuildsMaps(t *testing.T) {
	// Given: a store with local state
	s := New()
	require.True(t, s.TryInsert("local", "local only entry").Inserted)

	// When: a persisted list replaces it wholesale
	persisted := []Entry{
		{ID: "p1", Text: "first persisted prompt"},
		{ID: "p2", Text: "second persisted prompt"},
	}
	s.LoadFrom(persisted)

	// Then: the sequence equals the persisted list and maps are rebuilt
	assert.Equal(t, persisted, s.Entries())
	require.NoError(t, s.CheckConsistency())

	// Duplicates of loaded entries are rejected against recomputed maps.
	res := s.TryInsert("p3", "first persisted prompt")
	assert.False(t, res.Inserted)
	assert.Equal(t, "p1", res.ExistingID)

	// The pre-load local entry is gone.
	_, ok := s.Get("local")
	assert.False(t, ok)
}

func TestStore_LoadFrom_SkipsCorruptDuplicates(t *testing.T) {
	s := New()

	s.LoadFrom([]Entry{
		{ID: "a", Text: "same text"},
		{ID: "b", Text: "same text"},
	})

	assert.Equal(t, 1, s.Len())
	require.NoError(t, s.CheckConsistency())
}

func TestStore_Get(t *testing.T) {
	s := New()
	require.True(t, s.TryInsert("id-1", "hello world").Inserted)

	e, ok := s.Get("id-1")
	require.True(t, ok)
	assert.Equal(t, "hello world", e.Text)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestStore_ConsistencyUnderChurn(t *testing.T) {
	s := New()
	for i := 0; i < 50; i++ {
		s.TryInsert(fmt.Sprintf("id-%d", i), fmt.Sprintf("unique prompt number %d with enough text", i))
	}
	require.NoError(t, s.CheckConsistency())

	s.LoadFrom(s.Entries()[:25])
	require.NoError(t, s.CheckConsistency())
	assert.Equal(t, 25, s.Len())
}
