// Package export renders the ordered index as a flat document: markdown
// with escaped entry text, or plain text. One numbered line per entry,
// first-seen order.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	pdexerrors "github.com/promptdex/promptdex/internal/errors"
	"github.com/promptdex/promptdex/internal/index"
)

// Format selects the output flavor.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
)

// ParseFormat maps a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text", "plain":
		return FormatText, nil
	default:
		return "", pdexerrors.ValidationError(fmt.Sprintf("unknown export format %q", s), nil)
	}
}

// Ext returns the file extension for the format.
func (f Format) Ext() string {
	if f == FormatMarkdown {
		return "md"
	}
	return "txt"
}

// Metadata is the conversation header stamped on every export.
type Metadata struct {
	Title      string
	URL        string
	ExportedAt time.Time
}

// mdEscaper escapes the characters markdown assigns meaning to, so entry
// text renders literally.
var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`[`, `\[`,
	`]`, `\]`,
	`(`, `\(`,
	`)`, `\)`,
	`#`, `\#`,
	`+`, `\+`,
	`-`, `\-`,
	`.`, `\.`,
	`!`, `\!`,
	`|`, `\|`,
	`>`, `\>`,
)

// Write renders entries to w with a header followed by numbered lines.
func Write(w io.Writer, format Format, meta Metadata, entries []index.Entry) error {
	exportedAt := meta.ExportedAt
	if exportedAt.IsZero() {
		exportedAt = time.Now()
	}
	title := meta.Title
	if title == "" {
		title = "Conversation"
	}

	var sb strings.Builder
	if format == FormatMarkdown {
		sb.WriteString("# Conversation Index\n\n")
		fmt.Fprintf(&sb, "- Title: %s\n", mdEscaper.Replace(title))
		fmt.Fprintf(&sb, "- URL: %s\n", mdEscaper.Replace(meta.URL))
		fmt.Fprintf(&sb, "- Exported: %s\n", exportedAt.UTC().Format(time.RFC3339))
		sb.WriteString("\n---\n\n")
	} else {
		sb.WriteString("Conversation Index\n")
		fmt.Fprintf(&sb, "Title: %s\n", title)
		fmt.Fprintf(&sb, "URL: %s\n", meta.URL)
		fmt.Fprintf(&sb, "Exported: %s\n\n", exportedAt.UTC().Format(time.RFC3339))
	}

	for i, e := range entries {
		text := strings.Join(strings.Fields(e.Text), " ")
		line := fmt.Sprintf("%3d. %s", i+1, text)
		if format == FormatMarkdown {
			line = mdEscaper.Replace(line)
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return pdexerrors.Wrap(pdexerrors.ErrCodeStorageWrite, err)
	}
	return nil
}

// Filename builds the conventional export file name for a conversation.
func Filename(conversationID string, format Format, at time.Time) string {
	stamp := at.UTC().Format("20060102T150405Z")
	return fmt.Sprintf("promptdex_%s_%s.%s", conversationID, stamp, format.Ext())
}
