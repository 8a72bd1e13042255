// Package top implements the reduction pass that removes whole
// top-level statements (function declarations, do...end blocks,
// assignments, ...) from a Lua program.
package top

import (
	"context"

	sitter "github.com/jubnzv-go/godd"
	"github.com/jubnzv-go/godd/passes"
)

// Pass reduces the set of direct children of the program root.
type Pass struct {
	*passes.Base
}

// New constructs the top pass.
func New(cfg passes.Config) *Pass {
	return &Pass{Base: passes.NewBase("Top", cfg)}
}

// Run selects every top-level statement as a candidate and minimizes
// that set.
func (p *Pass) Run(ctx context.Context, source sitter.Source) (sitter.Source, error) {
	return p.Reduce(ctx, source, func(tree *sitter.Tree) ([]sitter.Node, error) {
		return sitter.TopChildren(tree), nil
	})
}
