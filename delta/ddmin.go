// Package delta implements the minimizing delta-debugging algorithm
// (ddmin) of Zeller & Hildebrandt, 2002, applied to a sequence of
// tree-sitter AST node handles rather than individual bytes or lines.
package delta

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	sitter "github.com/jubnzv-go/godd"
	"github.com/jubnzv-go/godd/runner"
)

// ErrNoChange is returned when the original source does not reproduce
// a failure: there is nothing for ddmin to minimize.
var ErrNoChange = errors.New("delta: input does not reproduce a failure")

// Oracle is the callback interface ddmin drives. A Pass implements it;
// ddmin itself only knows how to bisect a sequence and ask "does
// removing this subset still fail?"
type Oracle interface {
	// TestWithout deletes toRemove's byte ranges from source (as
	// parsed by the tree that produced toRemove), writes the result
	// to a fresh trial file, runs the predicate on it, and returns the
	// outcome plus the source that was actually tested.
	TestWithout(ctx context.Context, source sitter.Source, toRemove []sitter.Node) (runner.TestOutcome, sitter.Source, error)

	// Test runs the predicate on an already-materialized source.
	Test(ctx context.Context, source sitter.Source) (runner.TestOutcome, error)
}

// Engine runs ddmin. The zero value is ready to use; Logger may be set
// to trace bisection steps.
type Engine struct {
	Logger *logrus.Logger
}

func (e *Engine) log() *logrus.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return logrus.StandardLogger()
}

// Minimize reduces seq to a subsequence that still reproduces a failure
// when fed through oracle, returning that subsequence and the source it
// produced. Each round cuts the working sequence into chunks of len/2
// elements and keeps the first chunk that still fails on its own. The
// result is not guaranteed to be 1-minimal: once no single chunk fails
// on its own, the working sequence is returned as it stands, even if
// some of its elements could still be removed one at a time.
//
// Precondition: oracle.Test(original) must not report Pass — if it
// does, there is nothing to minimize and Minimize returns ErrNoChange.
// An Unresolved initial test (predicate timed out) is treated like
// Fail and the bisection proceeds; since only an explicit Fail moves
// working/source forward, a run where every trial is Unresolved simply
// never progresses and Minimize returns seq and original unchanged.
func (e *Engine) Minimize(ctx context.Context, seq []sitter.Node, original sitter.Source, oracle Oracle) ([]sitter.Node, sitter.Source, error) {
	outcome, err := oracle.Test(ctx, original)
	if err != nil {
		return nil, "", err
	}
	if outcome == runner.Pass {
		return nil, "", ErrNoChange
	}

	// removed accumulates every node proven removable so far. Every
	// trial deletes removed+outside directly from the untouched
	// original source, rather than layering a delete on top of the
	// previous trial's already-shrunk source. Node byte ranges only
	// ever refer to the tree that parsed original, so this sidesteps
	// the stale-offset problem a reparse-and-match approach would
	// otherwise need to solve.
	//
	// On a failing trial, working collapses to the chunk under test
	// and everything outside it (outside, below) joins removed. This
	// keeps the chunk that was isolated, rather than keeping the
	// surviving complement around it — the reference implementation's
	// behavior, confirmed against the end-to-end scenarios as the one
	// that matches (see the design notes on the ddmin complement
	// question).
	source := original
	working := append([]sitter.Node(nil), seq...)
	var removed []sitter.Node
	granularity := 2

	for len(working) >= 2 {
		chunk := len(working) / 2
		if chunk == 0 {
			break
		}

		progressed := false
		for start := 0; start < len(working); start += chunk {
			end := start + chunk
			if end > len(working) {
				end = len(working)
			}
			keep := working[start:end]
			outside := concat(working[:start], working[end:])
			trialRemoved := concat(removed, outside)

			e.log().WithFields(logrus.Fields{
				"granularity": granularity,
				"seq_len":     len(working),
				"start":       start,
				"chunk":       chunk,
			}).Debug("delta: trying chunk")

			outcome, newSource, err := oracle.TestWithout(ctx, original, trialRemoved)
			if err != nil {
				return nil, "", err
			}
			if outcome == runner.Fail {
				working = append([]sitter.Node(nil), keep...)
				removed = trialRemoved
				source = newSource
				if granularity > 2 {
					granularity--
				}
				progressed = true
				e.log().WithField("seq_len", len(working)).Debug("delta: reduced sequence")
				break
			}
			// Pass or Unresolved: this chunk alone isn't enough, try next start.
		}

		if !progressed {
			if granularity == len(working) {
				break
			}
			granularity *= 2
			if granularity > len(working) {
				granularity = len(working)
			}
		}
	}

	return working, source, nil
}

func concat(a, b []sitter.Node) []sitter.Node {
	out := make([]sitter.Node, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}
