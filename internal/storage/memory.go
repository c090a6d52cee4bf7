package storage

import (
	"context"
	"strings"
	"sync"

	pdexerrors "github.com/promptdex/promptdex/internal/errors"
)

// MemoryStore is an in-memory Store used in tests and ephemeral runs.
// Change notifications are delivered to all watchers whose prefix matches.
type MemoryStore struct {
	mu       sync.RWMutex
	data     map[string][]byte
	watchers map[int]*memWatcher
	nextID   int
	closed   bool
}

type memWatcher struct {
	prefix string
	ch     chan Event
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:     make(map[string][]byte),
		watchers: make(map[int]*memWatcher),
	}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, pdexerrors.New(pdexerrors.ErrCodeStorageClosed, "store closed", nil)
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return pdexerrors.New(pdexerrors.ErrCodeStorageClosed, "store closed", nil)
	}
	m.data[key] = append([]byte(nil), value...)
	m.notifyLocked(Event{Key: key, Value: append([]byte(nil), value...)})
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return pdexerrors.New(pdexerrors.ErrCodeStorageClosed, "store closed", nil)
	}
	delete(m.data, key)
	m.notifyLocked(Event{Key: key, Value: nil})
	return nil
}

// Keys implements Store.
func (m *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, pdexerrors.New(pdexerrors.ErrCodeStorageClosed, "store closed", nil)
	}
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Watch implements Store.
func (m *MemoryStore) Watch(ctx context.Context, prefix string) (<-chan Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, pdexerrors.New(pdexerrors.ErrCodeStorageClosed, "store closed", nil)
	}

	w := &memWatcher{prefix: prefix, ch: make(chan Event, 16)}
	id := m.nextID
	m.nextID++
	m.watchers[id] = w

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.watchers[id]; ok {
			delete(m.watchers, id)
			close(w.ch)
		}
	}()

	return w.ch, nil
}

// notifyLocked fans an event out to matching watchers. Non-blocking sends;
// a full watcher misses the event and re-reads on the next one.
func (m *MemoryStore) notifyLocked(ev Event) {
	for _, w := range m.watchers {
		if !strings.HasPrefix(ev.Key, w.prefix) {
			continue
		}
		select {
		case w.ch <- ev:
		default:
		}
	}
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for id, w := range m.watchers {
		delete(m.watchers, id)
		close(w.ch)
	}
	return nil
}
