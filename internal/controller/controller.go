// Package controller implements the conversation state machine: it owns the
// current conversation identity, serializes ingestion with the
// reset/rehydrate/rescan sequence on navigation, and reconciles external
// storage changes from concurrent observers.
package controller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/promptdex/promptdex/internal/conversation"
	"github.com/promptdex/promptdex/internal/index"
	"github.com/promptdex/promptdex/internal/ingest"
	"github.com/promptdex/promptdex/internal/persist"
	"github.com/promptdex/promptdex/internal/source"
	"github.com/promptdex/promptdex/internal/storage"
	"github.com/promptdex/promptdex/internal/ui"
)

// DefaultPollInterval is the low-frequency address poll that backstops
// missed navigation notifications.
const DefaultPollInterval = 800 * time.Millisecond

const eventBuffer = 64

type eventKind int

const (
	eventNavigation eventKind = iota
	eventContent
	eventStorage
)

// event is one unit of work for the consumer loop. Content events carry the
// identity that was current when they were enqueued; the loop drops them if
// the conversation has switched since.
type event struct {
	kind     eventKind
	url      string
	identity conversation.Identity
	root     source.Node
	key      string
	value    []byte
}

// Controller drives the Idle(identity) state machine. All mutation flows
// through a single consumer goroutine, so a reset/load/rescan transition can
// never interleave with ingestion.
type Controller struct {
	store     *index.Store
	adapter   *persist.Adapter
	kv        storage.Store
	sink      ui.Sink
	pipeline  *ingest.Pipeline
	namespace string
	logger    *slog.Logger

	docFn    func() source.Node
	urlFn    func() string
	titleFn  func() string
	identify func(string) conversation.Identity

	pollInterval time.Duration

	mu      sync.RWMutex
	current conversation.Identity

	events chan event
	group  singleflight.Group
}

// Config configures a Controller.
type Config struct {
	Store   *index.Store
	Adapter *persist.Adapter

	// KV is the durable service whose change feed carries writes from
	// other observers of the same conversation.
	KV storage.Store

	Sink      ui.Sink
	Namespace string
	Logger    *slog.Logger

	// Doc returns the current observed document root for rescans.
	Doc func() source.Node

	// URL returns the document's current address; the poller watches it
	// as the fallback navigation trigger.
	URL func() string

	// Title returns the document title recorded on saves.
	Title func() string

	// Identify derives a conversation identity from an observed address.
	// Defaults to conversation.FromURL; watch mode substitutes
	// conversation.FromFile.
	Identify func(string) conversation.Identity

	// Strategies and MaxText are handed to the ingestion pipeline.
	Strategies []source.Strategy
	MaxText    int

	PollInterval time.Duration
}

// New creates a Controller and its ingestion pipeline.
func New(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := cfg.Sink
	if sink == nil {
		sink = ui.NopSink{}
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	identify := cfg.Identify
	if identify == nil {
		identify = conversation.FromURL
	}

	c := &Controller{
		store:        cfg.Store,
		adapter:      cfg.Adapter,
		kv:           cfg.KV,
		sink:         sink,
		namespace:    cfg.Namespace,
		logger:       logger,
		docFn:        cfg.Doc,
		urlFn:        cfg.URL,
		titleFn:      cfg.Title,
		identify:     identify,
		pollInterval: pollInterval,
		events:       make(chan event, eventBuffer),
	}
	c.pipeline = ingest.New(ingest.Config{
		Store:      cfg.Store,
		Sink:       sink,
		Save:       c.scheduleSave,
		Strategies: cfg.Strategies,
		MaxText:    cfg.MaxText,
		Logger:     logger,
	})
	return c
}

// Current returns the conversation identity the controller considers
// current. The persistence adapter consults it to drop stale writes.
func (c *Controller) Current() conversation.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *Controller) setCurrent(id conversation.Identity) {
	c.mu.Lock()
	c.current = id
	c.mu.Unlock()
}

// Pipeline exposes the controller's ingestion pipeline for direct one-shot
// use by the CLI.
func (c *Controller) Pipeline() *ingest.Pipeline {
	return c.pipeline
}

// NotifyNavigation reports an observed address change. Redundant firings
// for the unchanged identity are absorbed by the handler.
func (c *Controller) NotifyNavigation(url string) {
	c.events <- event{kind: eventNavigation, url: url}
}

// NotifyContent reports new or changed content under root. The current
// identity is captured now; if the conversation switches before the event
// is consumed, the loop discards it rather than ingesting under the wrong
// maps.
func (c *Controller) NotifyContent(root source.Node) {
	c.events <- event{kind: eventContent, identity: c.Current(), root: root}
}

// Bootstrap performs the initial load-and-scan for the address reported by
// the URL source, before the event loop starts.
func (c *Controller) Bootstrap(ctx context.Context) {
	url := ""
	if c.urlFn != nil {
		url = c.urlFn()
	}
	c.switchTo(ctx, c.identify(url))
}

// Run consumes events until ctx is cancelled. It starts the address poller
// and the storage change feed, and flushes any pending save on the way out.
func (c *Controller) Run(ctx context.Context) error {
	if c.urlFn != nil {
		go c.pollAddress(ctx)
	}
	if c.kv != nil {
		if err := c.watchStorage(ctx); err != nil {
			return err
		}
	}

	defer c.adapter.Flush()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-c.events:
			c.handle(ctx, ev)
		}
	}
}

func (c *Controller) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case eventNavigation:
		next := c.identify(ev.url)
		if next == c.Current() {
			return
		}
		c.switchTo(ctx, next)
	case eventContent:
		if ev.identity != c.Current() {
			c.logger.Debug("dropping content event from previous conversation",
				slog.String("scheduled", ev.identity.String()))
			return
		}
		c.pipeline.Scan(ev.root)
		c.sink.SetStatus(ui.StatusText(c.store.Len()))
	case eventStorage:
		c.reconcile(ev.key, ev.value)
	}
}

// switchTo runs the Idle(old) -> Idle(new) transition: reset, clear UI,
// rehydrate from storage, re-render, rescan the live document. The
// singleflight key collapses redundant triggers (history hook and poller
// both firing) into one transition.
func (c *Controller) switchTo(ctx context.Context, next conversation.Identity) {
	c.group.Do(next.String(), func() (any, error) {
		if next == c.Current() && c.store.Len() > 0 {
			return nil, nil
		}
		c.logger.Info("conversation switch",
			slog.String("from", c.Current().String()),
			slog.String("to", next.String()))

		c.setCurrent(next)
		c.store.Reset()
		c.sink.Clear()

		if rec, ok := c.adapter.Load(ctx, next); ok {
			c.store.LoadFrom(rec.Entries)
		}
		c.sink.Render(c.store.Entries())
		c.sink.SetStatus(ui.StatusText(c.store.Len()))

		if c.docFn != nil {
			if root := c.docFn(); root != nil {
				c.pipeline.Scan(root)
			}
		}
		return nil, nil
	})
}

// reconcile applies an external write to the current conversation's record:
// wholesale replace, no merge. Writes for other conversations only refresh
// the record cache.
func (c *Controller) reconcile(key string, value []byte) {
	rec, err := persist.DecodeRecord(value)
	if err != nil {
		c.logger.Warn("ignoring malformed storage change",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return
	}

	// The feed echoes our own writes. The adapter caches every record it
	// persists, so an echo matches the cache and needs no replace.
	if cached, ok := c.adapter.Cached(key); ok && cached.SavedAt.Equal(rec.SavedAt) {
		return
	}
	c.adapter.Remember(key, rec)

	if key != c.Current().Key(c.namespace) {
		return
	}
	c.store.LoadFrom(rec.Entries)
	c.sink.Render(c.store.Entries())
	c.sink.SetStatus(ui.StatusText(c.store.Len()))
	c.logger.Debug("index replaced from storage change",
		slog.String("key", key),
		slog.Int("entries", c.store.Len()))
}

// scheduleSave is the pipeline's save hook. The snapshot runs when the
// debounce window closes and reads the store under its own lock.
func (c *Controller) scheduleSave() {
	id := c.Current()
	c.adapter.Schedule(id, func() *persist.Record {
		rec := &persist.Record{
			Entries:      c.store.Entries(),
			SavedAt:      time.Now(),
			Origin:       id.Origin,
			Conversation: id.Conversation,
			Version:      persist.RecordVersion,
		}
		if c.urlFn != nil {
			rec.URL = c.urlFn()
		}
		if c.titleFn != nil {
			rec.Title = c.titleFn()
		}
		return rec
	})
}

// Clear empties the current conversation's index and persists the cleared
// record immediately.
func (c *Controller) Clear() {
	c.store.Reset()
	c.sink.Clear()
	c.sink.SetStatus(ui.StatusText(0))
	c.scheduleSave()
	c.adapter.Flush()
}

// pollAddress is the fallback navigation trigger: a low-frequency poll of
// the document address funneling into the same handler as explicit
// notifications. Each tick compares the observed address against the
// controller's current identity rather than a privately remembered one, so
// a change that lands before the first tick is still caught; the handler
// absorbs redundant firings.
func (c *Controller) pollAddress(ctx context.Context) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			url := c.urlFn()
			if c.identify(url) == c.Current() {
				continue
			}
			c.NotifyNavigation(url)
		}
	}
}

// watchStorage subscribes to the durable service's change feed and forwards
// record updates into the event loop.
func (c *Controller) watchStorage(ctx context.Context) error {
	ch, err := c.kv.Watch(ctx, c.namespace+":")
	if err != nil {
		return err
	}
	go func() {
		for ev := range ch {
			select {
			case c.events <- event{kind: eventStorage, key: ev.Key, value: ev.Value}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
