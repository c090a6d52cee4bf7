package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-isatty"
)

// DisplayRunes is the rendered length cap per entry. The full text stays in
// the index; only the view truncates.
const DisplayRunes = 160

// Config configures a sink.
type Config struct {
	Output  io.Writer
	NoColor bool
}

// NewSink returns a plain sink writing to cfg.Output, colored when the
// output is an interactive terminal.
func NewSink(cfg Config) Sink {
	noColor := cfg.NoColor || DetectNoColor() || !IsTTY(cfg.Output)
	return NewPlainSink(cfg.Output, GetStyles(noColor))
}

// StatusText renders the count line shown under the index.
func StatusText(n int) string {
	switch n {
	case 0:
		return "No prompts"
	case 1:
		return "1 prompt"
	default:
		return fmt.Sprintf("%d prompts", n)
	}
}

// DisplayText collapses whitespace and truncates to DisplayRunes with an
// ellipsis.
func DisplayText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= DisplayRunes {
		return s
	}
	return string([]rune(s)[:DisplayRunes]) + "…"
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor checks if the NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}
