// Package source models the observed content stream: element-like nodes,
// the structural predicates that identify user submissions in the observed
// tree, and visible-text extraction.
package source

import (
	"strings"
	"unicode/utf8"
)

// Attribute names the pipeline tags nodes with, plus the source-native
// attributes it reads back.
const (
	// AttrID carries the stable identifier assigned on first ingestion.
	AttrID = "data-promptdex-id"

	// AttrProcessed marks a node that has been through the pipeline.
	AttrProcessed = "data-promptdex-processed"

	// AttrMessageID is the source-native stable id, preferred over a
	// generated one when present.
	AttrMessageID = "data-message-id"

	// AttrRole identifies the author of a message container.
	AttrRole = "data-message-author-role"

	AttrTestID = "data-testid"
	AttrAuthor = "data-author"
)

// ProcessedValue is the value stored under AttrProcessed.
const ProcessedValue = "1"

// MaxEntryText bounds extracted text length in runes. Applied at extraction
// time so neither the index nor the persisted record grows unbounded.
const MaxEntryText = 4000

// Node is the minimal element surface the pipeline needs from an observed
// document: string attributes it can read and write back, visible text, and
// tree traversal.
type Node interface {
	// Tag is the lowercase element name, empty for non-element nodes.
	Tag() string

	Attr(name string) (string, bool)
	SetAttr(name, value string)

	// Text is the node's visible text including descendants, raw.
	Text() string

	Parent() Node
	Children() []Node
}

// Walk visits n and its descendants in document order. It stops early when
// fn returns false.
func Walk(n Node, fn func(Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, child := range n.Children() {
		if !Walk(child, fn) {
			return false
		}
	}
	return true
}

// ExtractText returns a node's visible text with whitespace runs collapsed
// to single spaces, trimmed, and truncated to max runes. A non-positive max
// means MaxEntryText.
func ExtractText(n Node, max int) string {
	if n == nil {
		return ""
	}
	if max <= 0 {
		max = MaxEntryText
	}
	text := strings.Join(strings.Fields(n.Text()), " ")
	if utf8.RuneCountInString(text) > max {
		runes := []rune(text)
		text = string(runes[:max])
	}
	return text
}
