// Package ui renders the ordered index: a plain writer for one-shot
// commands and scripts, and an interactive terminal panel for browsing.
package ui

import "github.com/promptdex/promptdex/internal/index"

// Sink receives index mutations from the pipeline and controller. Render
// replaces the whole view, AppendOne adds a single new entry, SetStatus
// updates the count line. Implementations never feed back into the index
// beyond the current filter text.
type Sink interface {
	Render(entries []index.Entry)
	AppendOne(entry index.Entry)
	SetStatus(text string)
	Clear()
}

// NopSink discards all updates. Used where no rendering is wanted, such as
// one-shot index rebuilds and tests.
type NopSink struct{}

func (NopSink) Render([]index.Entry)  {}
func (NopSink) AppendOne(index.Entry) {}
func (NopSink) SetStatus(string)      {}
func (NopSink) Clear()                {}
