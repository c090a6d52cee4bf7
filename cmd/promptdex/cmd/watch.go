package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/promptdex/promptdex/internal/conversation"
	"github.com/promptdex/promptdex/internal/source"
	"github.com/promptdex/promptdex/internal/ui"
)

type watchOptions struct {
	noColor bool
}

func newWatchCmd() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <transcript>",
		Short: "Watch a transcript file and index it continuously",
		Long: `Watch a saved transcript file for changes and re-index it on every
write. New prompts are appended to the rendered index as they appear;
re-renders of already indexed prompts are deduplicated.

Runs until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colors")

	return cmd
}

func runWatch(cmd *cobra.Command, path string, opts *watchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	doc, err := parseTranscript(path)
	if err != nil {
		return err
	}

	// The document is re-parsed on every file change; docFn always hands the
	// controller the latest tree.
	var mu sync.RWMutex
	current := doc

	latest := func() source.HTMLNode {
		mu.RLock()
		defer mu.RUnlock()
		return current
	}

	sink := ui.NewSink(ui.Config{
		Output:  cmd.OutOrStdout(),
		NoColor: opts.noColor,
	})

	s, err := openSession(cfg, sessionConfig{
		sink:     sink,
		doc:      func() source.Node { return latest() },
		url:      func() string { return path },
		title:    func() string { return latest().Title() },
		identify: conversation.FromFile,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s.ctrl.Bootstrap(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory, not the file: editors and browsers replace the
	// file on save, which drops a watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	target, err := filepath.Abs(path)
	if err != nil {
		target = path
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
					continue
				}
				name, err := filepath.Abs(ev.Name)
				if err != nil || name != target {
					continue
				}
				next, err := parseTranscript(path)
				if err != nil {
					slog.Warn("re-parse failed, keeping previous tree",
						slog.String("path", path),
						slog.String("error", err.Error()))
					continue
				}
				mu.Lock()
				current = next
				mu.Unlock()
				s.ctrl.NotifyContent(next)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("watcher error", slog.String("error", err.Error()))
			}
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (%s)\n", path, s.ctrl.Current())

	if err := s.ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
