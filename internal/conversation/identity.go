// Package conversation derives the identity that scopes the index and its
// persisted record to one logical conversation. The identity combines the
// observed document's origin with a conversation path segment, falling back
// to a constant session identity when no segment is present.
package conversation

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultConversation is the fallback identity for documents whose address
// carries no conversation segment.
const DefaultConversation = "session"

// conversationSegment matches the conversation id in a path like
// "/c/abc-123". Word characters and hyphens only.
var conversationSegment = regexp.MustCompile(`(?i)/c/([\w-]+)`)

// unsafeKeyChars are stripped when deriving an identity from a file name.
var unsafeKeyChars = regexp.MustCompile(`[^\w-]+`)

// Identity scopes a store and its persisted record to one conversation.
// The zero value is not a valid identity; use FromURL or FromFile.
type Identity struct {
	// Origin is the host of the observed document, or "file" for local
	// transcript files.
	Origin string

	// Conversation is the conversation id segment, or DefaultConversation.
	Conversation string
}

// FromURL derives an identity from a document address. Unparseable
// addresses and addresses without a conversation segment fall back to the
// session identity for their origin.
func FromURL(raw string) Identity {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return Identity{Origin: "local", Conversation: conversationFromPath(raw)}
	}
	return Identity{Origin: u.Host, Conversation: conversationFromPath(u.Path)}
}

// FromFile derives an identity from a local transcript file path. The base
// name (without extension) becomes the conversation id.
func FromFile(path string) Identity {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = unsafeKeyChars.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	if base == "" {
		base = DefaultConversation
	}
	return Identity{Origin: "file", Conversation: base}
}

func conversationFromPath(path string) string {
	if m := conversationSegment.FindStringSubmatch(path); m != nil {
		return m[1]
	}
	return DefaultConversation
}

// Key returns the storage key for this identity under the given namespace,
// in the form "<namespace>:<origin>:<conversation>".
func (id Identity) Key(namespace string) string {
	return fmt.Sprintf("%s:%s:%s", namespace, id.Origin, id.Conversation)
}

// String implements fmt.Stringer.
func (id Identity) String() string {
	return id.Origin + "/" + id.Conversation
}
