package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/promptdex/promptdex/internal/source"
)

// locateNeedleRunes is how much of the fallback text the containment scan
// uses. Long entries drift at the tail across re-renders; the head is
// stable.
const locateNeedleRunes = 64

// Locate resolves an indexed entry back to its node in the observed
// document: by assigned stable id first, then by the source-native message
// id, then by a case-insensitive text-containment scan over a fresh
// listing. Scroll and highlight are the caller's concern.
func Locate(root source.Node, id, fallbackText string) (source.Node, bool) {
	if root == nil {
		return nil, false
	}

	if n, ok := findByAttr(root, source.AttrID, id); ok {
		return n, true
	}
	if n, ok := findByAttr(root, source.AttrMessageID, id); ok {
		return n, true
	}

	needle := strings.ToLower(headRunes(fallbackText, locateNeedleRunes))
	if needle == "" {
		return nil, false
	}
	for _, n := range source.FindUserMessages(root, nil) {
		text := strings.ToLower(source.ExtractText(n, 0))
		if strings.Contains(text, needle) {
			return n, true
		}
	}
	return nil, false
}

func findByAttr(root source.Node, attr, want string) (source.Node, bool) {
	if want == "" {
		return nil, false
	}
	var found source.Node
	source.Walk(root, func(n source.Node) bool {
		if v, ok := n.Attr(attr); ok && v == want {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

func headRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
