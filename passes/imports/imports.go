// Package imports implements the reduction pass that removes
// require(...) calls, at any nesting depth, from a Lua program.
package imports

import (
	"context"
	"strings"

	sitter "github.com/jubnzv-go/godd"
	"github.com/jubnzv-go/godd/passes"
)

// Query matches every call, at any nesting depth, whose callee is a
// plain identifier and whose arguments are a function_arguments node.
// The outer @func_call capture is the whole call expression; it is the
// only capture kept after filtering to function_call nodes, since the
// pattern also yields the inner @p identifier and @args captures. The
// #match? predicate is checked for syntax when the query is built but
// is not applied to matches, so Run keeps only the calls whose callee
// is require.
const Query = `((function_call
    prefix: ((identifier) @p (#match? @p "require"))
    args: (function_arguments) @args) @func_call)`

// Pass reduces the set of require(...) calls in the program.
type Pass struct {
	*passes.Base
}

// New constructs the imports pass.
func New(cfg passes.Config) *Pass {
	return &Pass{Base: passes.NewBase("Imports", cfg)}
}

// Run selects every require(...) call as a candidate and minimizes
// that set.
func (p *Pass) Run(ctx context.Context, source sitter.Source) (sitter.Source, error) {
	return p.Reduce(ctx, source, func(tree *sitter.Tree) ([]sitter.Node, error) {
		calls, err := sitter.RunQuery(tree, Query, sitter.KindIs("function_call"))
		if err != nil {
			return nil, err
		}
		var out []sitter.Node
		for _, n := range calls {
			rest, ok := strings.CutPrefix(string(source[n.StartByte():n.EndByte()]), "require")
			if ok && rest != "" && strings.ContainsRune(" \t\r\n(\"'{[", rune(rest[0])) {
				out = append(out, n)
			}
		}
		return out, nil
	})
}
