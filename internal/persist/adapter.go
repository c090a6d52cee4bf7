package persist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/promptdex/promptdex/internal/conversation"
	"github.com/promptdex/promptdex/internal/storage"
)

// DefaultDebounceWindow is the quiescence window for collapsing save
// requests into a single write.
const DefaultDebounceWindow = 500 * time.Millisecond

// recordCacheSize bounds the number of decoded records kept for rapid
// conversation switches.
const recordCacheSize = 64

// Snapshot builds the record to persist. It runs when the debounce window
// closes, so the write captures the state at that moment, not at schedule
// time.
type Snapshot func() *Record

// Adapter debounces saves of the index store to durable storage and loads
// persisted records on navigation. Write failures are swallowed: the
// in-memory index stays authoritative for the process lifetime, and the
// next mutation schedules a fresh attempt.
type Adapter struct {
	store     storage.Store
	namespace string
	window    time.Duration
	logger    *slog.Logger

	// currentFn reports the conversation identity the controller considers
	// current. A save scheduled under an identity that is no longer current
	// when the timer fires is dropped instead of overwriting the new
	// conversation's record.
	currentFn func() conversation.Identity

	mu      sync.Mutex
	timer   *time.Timer
	pending *pendingSave
	stopped bool

	cache *lru.Cache[string, *Record]
}

type pendingSave struct {
	identity conversation.Identity
	snapshot Snapshot
}

// Config configures an Adapter.
type Config struct {
	Store     storage.Store
	Namespace string
	Window    time.Duration
	Logger    *slog.Logger

	// Current reports the identity that is current at flush time.
	Current func() conversation.Identity
}

// New creates an Adapter.
func New(cfg Config) *Adapter {
	window := cfg.Window
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	currentFn := cfg.Current
	if currentFn == nil {
		currentFn = func() conversation.Identity { return conversation.Identity{} }
	}

	// lru.New only fails for non-positive sizes.
	cache, _ := lru.New[string, *Record](recordCacheSize)

	return &Adapter{
		store:     cfg.Store,
		namespace: cfg.Namespace,
		window:    window,
		logger:    logger,
		currentFn: currentFn,
		cache:     cache,
	}
}

// Schedule requests a save for the given identity. Repeated requests within
// the debounce window collapse into a single write; each request resets the
// timer. The snapshot runs when the window closes.
func (a *Adapter) Schedule(id conversation.Identity, snapshot Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return
	}

	a.pending = &pendingSave{identity: id, snapshot: snapshot}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.window, a.flush)
}

// Flush forces any pending save to run now. Used on shutdown and by the
// CLI's one-shot commands.
func (a *Adapter) Flush() {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()
	a.flush()
}

func (a *Adapter) flush() {
	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()

	if pending == nil {
		return
	}

	// Drop writes scheduled under an identity that has since been switched
	// away; completing them could clobber the new conversation's record.
	if current := a.currentFn(); current != pending.identity {
		a.logger.Debug("dropping stale save",
			slog.String("scheduled", pending.identity.String()),
			slog.String("current", current.String()))
		return
	}

	record := pending.snapshot()
	if record == nil {
		return
	}
	data, err := record.Encode()
	if err != nil {
		a.logger.Warn("encode record failed", slog.String("error", err.Error()))
		return
	}

	key := pending.identity.Key(a.namespace)
	if err := a.store.Set(context.Background(), key, data); err != nil {
		// Best effort: the next mutation reschedules.
		a.logger.Warn("persist write failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return
	}
	a.cache.Add(key, record)
	a.logger.Debug("record persisted",
		slog.String("key", key),
		slog.Int("entries", len(record.Entries)))
}

// Load reads the persisted record for an identity. Absence and malformed
// records both return ok=false; neither is an error for the caller.
func (a *Adapter) Load(ctx context.Context, id conversation.Identity) (*Record, bool) {
	key := id.Key(a.namespace)

	data, ok, err := a.store.Get(ctx, key)
	if err != nil {
		a.logger.Warn("persist read failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	record, err := DecodeRecord(data)
	if err != nil {
		a.logger.Warn("malformed record treated as absent",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, false
	}
	a.cache.Add(key, record)
	return record, true
}

// Cached returns the last decoded record for a key, if any. The change
// feed invalidates through Remember.
func (a *Adapter) Cached(key string) (*Record, bool) {
	return a.cache.Get(key)
}

// Remember replaces the cached record for a key after an external change
// notification.
func (a *Adapter) Remember(key string, record *Record) {
	a.cache.Add(key, record)
}

// Stop cancels any pending timer without flushing.
func (a *Adapter) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.pending = nil
}
