package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends under test; each constructor returns a fresh store.
func testBackends(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"badger": func(t *testing.T) Store {
			s, err := OpenBadger(BadgerConfig{InMemory: true})
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "kv.db"), nil)
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_GetSetDelete(t *testing.T) {
	for name, open := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer func() { _ = s.Close() }()
			ctx := context.Background()

			// Absent key is not an error.
			_, ok, err := s.Get(ctx, "promptdex:example.com:missing")
			require.NoError(t, err)
			assert.False(t, ok)

			// Round trip.
			require.NoError(t, s.Set(ctx, "promptdex:example.com:abc", []byte(`{"v":1}`)))
			got, ok, err := s.Get(ctx, "promptdex:example.com:abc")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, []byte(`{"v":1}`), got)

			// Overwrite.
			require.NoError(t, s.Set(ctx, "promptdex:example.com:abc", []byte(`{"v":2}`)))
			got, _, err = s.Get(ctx, "promptdex:example.com:abc")
			require.NoError(t, err)
			assert.Equal(t, []byte(`{"v":2}`), got)

			// Delete, including absent keys.
			require.NoError(t, s.Delete(ctx, "promptdex:example.com:abc"))
			require.NoError(t, s.Delete(ctx, "promptdex:example.com:abc"))
			_, ok, err = s.Get(ctx, "promptdex:example.com:abc")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStore_KeysByPrefix(t *testing.T) {
	for name, open := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer func() { _ = s.Close() }()
			ctx := context.Background()

			require.NoError(t, s.Set(ctx, "promptdex:a.com:one", []byte("1")))
			require.NoError(t, s.Set(ctx, "promptdex:a.com:two", []byte("2")))
			require.NoError(t, s.Set(ctx, "other:a.com:three", []byte("3")))

			keys, err := s.Keys(ctx, "promptdex:")
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"promptdex:a.com:one", "promptdex:a.com:two"}, keys)
		})
	}
}

func TestStore_WatchDeliversChanges(t *testing.T) {
	for name, open := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer func() { _ = s.Close() }()
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			ch, err := s.Watch(ctx, "promptdex:")
			require.NoError(t, err)

			require.NoError(t, s.Set(ctx, "promptdex:a.com:conv", []byte("payload")))

			select {
			case ev := <-ch:
				assert.Equal(t, "promptdex:a.com:conv", ev.Key)
				assert.Equal(t, []byte("payload"), ev.Value)
			case <-time.After(3 * time.Second):
				t.Fatal("timeout waiting for change event")
			}
		})
	}
}

func TestStore_WatchIgnoresOtherPrefixes(t *testing.T) {
	s := NewMemoryStore()
	defer func() { _ = s.Close() }()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Watch(ctx, "promptdex:")
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "unrelated:key", []byte("x")))

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event for %q", ev.Key)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMemoryStore_CloseClosesWatchers(t *testing.T) {
	s := NewMemoryStore()
	ch, err := s.Watch(context.Background(), "promptdex:")
	require.NoError(t, err)

	require.NoError(t, s.Close())

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
}

func TestDirLock_Exclusive(t *testing.T) {
	dir := t.TempDir()

	l1 := NewDirLock(dir)
	acquired, err := l1.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)

	// A second lock on the same directory must fail without blocking.
	l2 := NewDirLock(dir)
	acquired, err = l2.TryLock()
	require.NoError(t, err)
	assert.False(t, acquired)

	require.NoError(t, l1.Unlock())

	acquired, err = l2.TryLock()
	require.NoError(t, err)
	assert.True(t, acquired)
	require.NoError(t, l2.Unlock())
}
