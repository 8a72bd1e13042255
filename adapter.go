package treesitter

import (
	"context"
	"sort"
	"unicode/utf8"
)

// Source is an immutable snapshot of a candidate Lua program. It is
// always valid UTF-8.
type Source string

// Lang is the only grammar this adapter is wired to. Widening this to
// other languages would require binding packages that register them
// the way lua/binding.go registers Lua, and none of the spec's passes
// need them.
const Lang = "lua"

// ParseLua parses source under the Lua grammar. Partial trees
// containing error nodes are returned without an error: candidate
// selection is responsible for excluding the erroneous nodes (see
// RunQuery and TopChildren).
func ParseLua(ctx context.Context, source Source) (*Tree, error) {
	n, err := Parse(ctx, []byte(source), Lang)
	if err != nil {
		return nil, &ParseError{Lang: Lang, Err: err}
	}
	return n.t, nil
}

// TopChildren returns the direct children of the tree's root, in
// source order, excluding any subtree that contains a parse error.
func TopChildren(tree *Tree) []Node {
	root := tree.RootNode()
	var out []Node
	for _, child := range root.NamedChildren() {
		if child.HasError() || child.IsError() {
			continue
		}
		out = append(out, child)
	}
	return out
}

// QueryFilter narrows a capture beyond what the query pattern itself
// expresses — e.g. requiring a particular capture's node kind.
type QueryFilter func(capture QueryCapture) bool

// KindIs returns a QueryFilter that keeps only captures whose node
// kind equals want. Used to restrict the imports query's outer
// @func_call capture to function_call nodes (the pattern also yields
// the inner @p identifier and @args captures).
func KindIs(want string) QueryFilter {
	return func(c QueryCapture) bool { return c.Node.Type() == want }
}

// RunQuery evaluates pattern over tree's root node and returns the
// captured nodes, in match order, after dropping any capture whose
// node contains a parse error and applying the optional filter.
func RunQuery(tree *Tree, pattern string, filter QueryFilter) ([]Node, error) {
	q, err := NewQuery([]byte(pattern), Lang)
	if err != nil {
		return nil, err
	}
	defer q.Close()

	cursor := NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q, tree.RootNode())

	var out []Node
	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			if c.Node.HasError() || c.Node.IsError() {
				continue
			}
			if filter != nil && !filter(c) {
				continue
			}
			out = append(out, c.Node)
		}
	}
	return out, nil
}

// nodeRange is the half-open byte range [Start, End) a node occupies
// in the source that produced its tree.
type nodeRange struct {
	Start, End int
}

// DeleteRanges produces a new Source with each node's byte range
// removed from source. Ranges are deduplicated and processed in
// descending end-offset order so earlier offsets stay valid while
// later (higher-offset) ranges are deleted first.
func DeleteRanges(source Source, nodes []Node) (Source, error) {
	seen := map[nodeRange]struct{}{}
	var ranges []nodeRange
	for _, n := range nodes {
		r := nodeRange{Start: n.StartByte(), End: n.EndByte()}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		ranges = append(ranges, r)
	}

	sort.Slice(ranges, func(i, j int) bool { return ranges[i].End > ranges[j].End })

	buf := []byte(source)
	for _, r := range ranges {
		if r.Start < 0 || r.End > len(buf) || r.Start > r.End {
			return "", &RewriteError{Reason: "node range out of bounds of source"}
		}
		buf = append(buf[:r.Start], buf[r.End:]...)
	}

	if !utf8.Valid(buf) {
		return "", &RewriteError{Reason: "deletion produced invalid UTF-8"}
	}
	return Source(buf), nil
}
