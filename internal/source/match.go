package source

import "strings"

// Strategy is one structural "is this a user submission" predicate. The
// matcher tries strategies in priority order; every strategy runs over the
// whole tree, and the first strategy to claim a node wins for that node.
type Strategy struct {
	Name  string
	Match func(Node) bool
}

// DefaultStrategies covers the container shapes the observed transcripts
// use, most specific first. The last strategy is a loose structural catch
// for markdown-rendered prompts; it over-matches, and container resolution
// plus the index store's dedup absorb the noise.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "role-attr", Match: func(n Node) bool {
			return n.Tag() == "div" && attrEquals(n, AttrRole, "user")
		}},
		{Name: "testid-attr", Match: func(n Node) bool {
			return n.Tag() == "div" && attrEquals(n, AttrTestID, "user")
		}},
		{Name: "author-attr", Match: func(n Node) bool {
			return n.Tag() == "div" && attrEquals(n, AttrAuthor, "user")
		}},
		{Name: "article-with-role", Match: func(n Node) bool {
			if n.Tag() != "article" {
				return false
			}
			found := false
			Walk(n, func(d Node) bool {
				if d != n && attrEquals(d, AttrRole, "user") {
					found = true
					return false
				}
				return true
			})
			return found
		}},
		{Name: "markdown-prewrap", Match: func(n Node) bool {
			if n.Tag() != "div" || !classContains(n, "whitespace-pre-wrap") {
				return false
			}
			for p := n.Parent(); p != nil; p = p.Parent() {
				if classContains(p, "markdown") {
					return true
				}
			}
			return false
		}},
	}
}

// FindUserMessages lists the user-submission containers currently present
// under root. Each strategy match is resolved to its nearest qualifying
// ancestor container; containers claimed by more than one strategy appear
// once. The result is in document order regardless of which strategy found
// each container.
func FindUserMessages(root Node, strategies []Strategy) []Node {
	if root == nil {
		return nil
	}
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}

	seen := make(map[Node]bool)
	for _, strat := range strategies {
		Walk(root, func(n Node) bool {
			if !strat.Match(n) {
				return true
			}
			if container := containerOf(n); container != nil {
				seen[container] = true
			}
			return true
		})
	}
	if len(seen) == 0 {
		return nil
	}

	// Strategies overlap: an article match and its inner role-carrying div
	// both resolve to containers. Keep the innermost so one submission maps
	// to one container.
	var nested []Node
	for n := range seen {
		for p := n.Parent(); p != nil; p = p.Parent() {
			if seen[p] {
				nested = append(nested, p)
			}
		}
	}
	for _, n := range nested {
		delete(seen, n)
	}

	results := make([]Node, 0, len(seen))
	Walk(root, func(n Node) bool {
		if seen[n] {
			results = append(results, n)
		}
		return true
	})
	return results
}

// containerOf resolves a matched node to its nearest qualifying ancestor,
// the node itself included: an explicit user-role or message-id carrier, or
// the closest block-level wrapper.
func containerOf(n Node) Node {
	for cur := n; cur != nil; cur = cur.Parent() {
		if attrEquals(cur, AttrRole, "user") {
			return cur
		}
		if _, ok := cur.Attr(AttrMessageID); ok {
			return cur
		}
		switch cur.Tag() {
		case "article", "section", "div":
			return cur
		}
	}
	return nil
}

func attrEquals(n Node, name, want string) bool {
	v, ok := n.Attr(name)
	return ok && v == want
}

func classContains(n Node, needle string) bool {
	v, ok := n.Attr("class")
	return ok && strings.Contains(v, needle)
}
