package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/promptdex/promptdex/internal/index"
)

// PlainSink writes the index as numbered lines, one per entry. Suitable for
// pipes and one-shot commands; Render rewrites the whole list, AppendOne
// continues the numbering.
type PlainSink struct {
	mu     sync.Mutex
	out    io.Writer
	styles Styles
	count  int
}

// NewPlainSink creates a plain text sink.
func NewPlainSink(out io.Writer, styles Styles) *PlainSink {
	return &PlainSink{out: out, styles: styles}
}

// Render implements Sink.
func (s *PlainSink) Render(entries []index.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count = 0
	for _, e := range entries {
		s.writeEntry(e)
	}
}

// AppendOne implements Sink.
func (s *PlainSink) AppendOne(entry index.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeEntry(entry)
}

func (s *PlainSink) writeEntry(e index.Entry) {
	s.count++
	number := s.styles.Number.Render(fmt.Sprintf("%3d.", s.count))
	text := s.styles.Entry.Render(DisplayText(e.Text))
	_, _ = fmt.Fprintf(s.out, "%s %s\n", number, text)
}

// SetStatus implements Sink.
func (s *PlainSink) SetStatus(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintln(s.out, s.styles.Status.Render(text))
}

// Clear implements Sink. Plain output is append-only; a cleared view just
// restarts the numbering.
func (s *PlainSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = 0
}
