package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/promptdex/promptdex/internal/config"
	"github.com/promptdex/promptdex/internal/controller"
	"github.com/promptdex/promptdex/internal/conversation"
	"github.com/promptdex/promptdex/internal/index"
	"github.com/promptdex/promptdex/internal/persist"
	"github.com/promptdex/promptdex/internal/source"
	"github.com/promptdex/promptdex/internal/storage"
	"github.com/promptdex/promptdex/internal/ui"
)

// session wires one command invocation: durable storage, the in-memory
// index, the persistence adapter, and the controller that owns the current
// conversation.
type session struct {
	cfg     *config.Config
	kv      storage.Store
	store   *index.Store
	adapter *persist.Adapter
	ctrl    *controller.Controller
}

// sessionConfig carries the per-command observation hooks.
type sessionConfig struct {
	sink     ui.Sink
	doc      func() source.Node
	url      func() string
	title    func() string
	identify func(string) conversation.Identity
}

func openSession(cfg *config.Config, sc sessionConfig) (*session, error) {
	kv, err := openKV(cfg)
	if err != nil {
		return nil, err
	}

	store := index.New()

	// The adapter asks the controller for the current identity at flush
	// time; the controller does not exist yet, so bind late.
	var ctrl *controller.Controller
	adapter := persist.New(persist.Config{
		Store:     kv,
		Namespace: cfg.Persist.Namespace,
		Window:    cfg.DebounceDuration(),
		Current: func() conversation.Identity {
			if ctrl == nil {
				return conversation.Identity{}
			}
			return ctrl.Current()
		},
	})

	ctrl = controller.New(controller.Config{
		Store:        store,
		Adapter:      adapter,
		KV:           kv,
		Sink:         sc.sink,
		Namespace:    cfg.Persist.Namespace,
		Doc:          sc.doc,
		URL:          sc.url,
		Title:        sc.title,
		Identify:     sc.identify,
		MaxText:      cfg.Index.MaxTextLen,
		PollInterval: cfg.PollDuration(),
	})

	return &session{
		cfg:     cfg,
		kv:      kv,
		store:   store,
		adapter: adapter,
		ctrl:    ctrl,
	}, nil
}

// Close flushes pending writes and releases the backend.
func (s *session) Close() {
	s.adapter.Flush()
	s.adapter.Stop()
	_ = s.kv.Close()
}

func openKV(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.StoragePath()), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		return storage.OpenSQLite(cfg.StoragePath(), slog.Default())
	default:
		if err := os.MkdirAll(cfg.StoragePath(), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		return storage.OpenBadger(storage.BadgerConfig{
			Path:   cfg.StoragePath(),
			Logger: slog.Default(),
		})
	}
}

// parseTranscript parses a saved transcript file into an observable tree.
func parseTranscript(path string) (source.HTMLNode, error) {
	f, err := os.Open(path)
	if err != nil {
		return source.HTMLNode{}, fmt.Errorf("open transcript: %w", err)
	}
	defer func() { _ = f.Close() }()
	return source.ParseDocument(f)
}

// addIdentityFlags registers the flags that pick which conversation a
// command operates on.
func addIdentityFlags(cmd *cobra.Command, url, file *string) {
	cmd.Flags().StringVar(url, "url", "", "Conversation URL (derives the conversation identity)")
	cmd.Flags().StringVar(file, "file", "", "Transcript file (derives the conversation identity)")
}

func resolveIdentity(url, file string) conversation.Identity {
	if url != "" {
		return conversation.FromURL(url)
	}
	if file != "" {
		return conversation.FromFile(file)
	}
	return conversation.FromURL("")
}

// loadConversation opens a session and hydrates the index for an identity,
// without scanning any document. Used by the read-only commands.
func loadConversation(cfg *config.Config, id conversation.Identity) (*session, error) {
	s, err := openSession(cfg, sessionConfig{
		sink: ui.NopSink{},
		url:  func() string { return "" },
		identify: func(string) conversation.Identity {
			return id
		},
	})
	if err != nil {
		return nil, err
	}
	s.ctrl.Bootstrap(context.Background())
	return s, nil
}
