// Package ingest implements the ingestion pipeline: it consumes observed
// content nodes, extracts and normalizes their text, deduplicates through
// the index store, and tags nodes so reprocessing stays idempotent.
package ingest

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/promptdex/promptdex/internal/index"
	"github.com/promptdex/promptdex/internal/normalize"
	"github.com/promptdex/promptdex/internal/source"
	"github.com/promptdex/promptdex/internal/ui"
)

// Pipeline drives nodes from the observed document into the index store.
type Pipeline struct {
	store      *index.Store
	sink       ui.Sink
	save       func()
	strategies []source.Strategy
	maxText    int
	logger     *slog.Logger
}

// Config configures a Pipeline.
type Config struct {
	Store *index.Store
	Sink  ui.Sink

	// Save schedules the debounced persistence write after an insert. The
	// controller binds it to the current conversation identity.
	Save func()

	// Strategies override the default user-submission predicates.
	Strategies []source.Strategy

	// MaxText caps extracted text length in runes; zero means
	// source.MaxEntryText.
	MaxText int

	Logger *slog.Logger
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	sink := cfg.Sink
	if sink == nil {
		sink = ui.NopSink{}
	}
	save := cfg.Save
	if save == nil {
		save = func() {}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:      cfg.Store,
		sink:       sink,
		save:       save,
		strategies: cfg.Strategies,
		maxText:    cfg.MaxText,
		logger:     logger,
	}
}

// Ingest processes a single node. Nodes already marked processed are
// skipped. Empty extractions are skipped without marking, so a later render
// of the same node with actual text is still captured. Duplicate text tags
// the node with the existing entry's id instead of creating a second entry.
func (p *Pipeline) Ingest(n source.Node) {
	defer func() {
		// One bad node never aborts its siblings' scan.
		if r := recover(); r != nil {
			p.logger.Warn("node ingestion failed",
				slog.Any("panic", r))
		}
	}()

	if n == nil {
		return
	}
	if marker, ok := n.Attr(source.AttrProcessed); ok && marker == source.ProcessedValue {
		return
	}

	text := normalize.Normalize(source.ExtractText(n, p.maxText))
	if text == "" {
		return
	}

	id := resolveID(n)
	result := p.store.TryInsert(id, text)
	if !result.Inserted {
		// Keep navigation working for this render of the duplicate.
		if result.ExistingID != "" && result.ExistingID != id {
			n.SetAttr(source.AttrID, result.ExistingID)
		}
		n.SetAttr(source.AttrProcessed, source.ProcessedValue)
		return
	}

	n.SetAttr(source.AttrProcessed, source.ProcessedValue)
	p.sink.AppendOne(index.Entry{ID: id, Text: text})
	p.save()
	p.logger.Debug("entry indexed",
		slog.String("id", id),
		slog.Int("length", len(text)))
}

// Scan discovers all qualifying nodes under root and ingests each in
// document order. Used for the initial pass and for newly-added subtrees.
func (p *Pipeline) Scan(root source.Node) int {
	before := p.store.Len()
	for _, n := range source.FindUserMessages(root, p.strategies) {
		p.Ingest(n)
	}
	return p.store.Len() - before
}

// resolveID returns the node's stable identifier, preferring one assigned
// on a prior pass, then the source-native ids, then a fresh generated one.
// The resolved id is written back so every later pass agrees.
func resolveID(n source.Node) string {
	id, ok := n.Attr(source.AttrID)
	if !ok || id == "" {
		if v, ok := n.Attr(source.AttrMessageID); ok && v != "" {
			id = v
		} else if v, ok := n.Attr("id"); ok && v != "" {
			id = v
		} else {
			id = generateID()
		}
	}
	n.SetAttr(source.AttrID, id)
	return id
}

// generateID builds a time-seeded token with a random suffix wide enough
// that collision is negligible. Identifier equality is never a dedup
// signal, so a collision would corrupt the id map rather than merge text.
func generateID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), suffix)
}
