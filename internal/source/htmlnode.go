package source

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	pdexerrors "github.com/promptdex/promptdex/internal/errors"
)

// HTMLNode adapts a parsed HTML tree to the Node interface. It is a value
// type wrapping the underlying parse node, so two HTMLNodes for the same
// element compare equal and the matcher's dedup works across traversals.
// Attribute writes mutate the parse tree, so assigned ids and processed
// markers survive a rescan of the same document.
type HTMLNode struct {
	n *html.Node
}

// ParseDocument parses an HTML transcript into a traversable root.
func ParseDocument(r io.Reader) (HTMLNode, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return HTMLNode{}, pdexerrors.ExtractionError("parse document", err)
	}
	return HTMLNode{n: doc}, nil
}

// Title returns the document's <title> text, if any.
func (h HTMLNode) Title() string {
	var title string
	Walk(h, func(n Node) bool {
		hn, ok := n.(HTMLNode)
		if !ok || hn.Tag() != "title" {
			return true
		}
		title = strings.TrimSpace(hn.ownText())
		return false
	})
	return title
}

func (h HTMLNode) Tag() string {
	if h.n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(h.n.Data)
}

func (h HTMLNode) Attr(name string) (string, bool) {
	for _, a := range h.n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (h HTMLNode) SetAttr(name, value string) {
	for i, a := range h.n.Attr {
		if a.Key == name {
			h.n.Attr[i].Val = value
			return
		}
	}
	h.n.Attr = append(h.n.Attr, html.Attribute{Key: name, Val: value})
}

// Text concatenates the subtree's text nodes, skipping script and style
// content.
func (h HTMLNode) Text() string {
	var sb strings.Builder
	collectHTMLText(h.n, &sb)
	return sb.String()
}

func (h HTMLNode) ownText() string {
	var sb strings.Builder
	for c := h.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

func collectHTMLText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
		return
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectHTMLText(c, sb)
	}
}

func (h HTMLNode) Parent() Node {
	for p := h.n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return HTMLNode{n: p}
		}
	}
	return nil
}

func (h HTMLNode) Children() []Node {
	var out []Node
	for c := h.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, HTMLNode{n: c})
		}
	}
	return out
}
