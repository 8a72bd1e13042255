// Package passes defines the contract every reduction pass obeys: pick
// an ordered candidate sequence of AST nodes from the current source,
// delegate minimization to the delta-debugging engine, and return the
// reduced source. It also implements the Oracle side of that contract
// (delta.Oracle) shared by every concrete pass.
package passes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	sitter "github.com/jubnzv-go/godd"
	"github.com/jubnzv-go/godd/delta"
	"github.com/jubnzv-go/godd/runner"
)

// ErrNoChange re-exports delta.ErrNoChange so callers of this package
// never need to import delta directly just to check for it.
var ErrNoChange = delta.ErrNoChange

// Counter is a monotonically increasing, concurrency-safe allocator
// for trial file names. A single Counter is shared by every pass in
// one run, mirroring the original's process-wide counter without
// resorting to a package-level global: it is threaded explicitly
// through Config.
type Counter struct{ n int64 }

// Next returns the next counter value, starting at 1.
func (c *Counter) Next() int64 { return atomic.AddInt64(&c.n, 1) }

// Config carries what every pass needs to run a trial: where to write
// candidate files, which script to run, and how long to let it run.
type Config struct {
	Script    string
	OutputDir string
	Timeout   time.Duration
	Counter   *Counter
	Logger    *logrus.Logger
}

// Pass is the driver-facing contract: a name (used to label its temp
// directory) and an entry point that reduces source as far as this
// pass's notion of "removable unit" allows.
type Pass interface {
	Name() string
	TempDir() string
	Run(ctx context.Context, source sitter.Source) (sitter.Source, error)
}

// SelectFunc parses source and returns the ordered candidate sequence
// a concrete pass wants ddmin to bisect.
type SelectFunc func(tree *sitter.Tree) ([]sitter.Node, error)

// Base implements the oracle half of the Pass contract (delta.Oracle)
// and the shared Run skeleton: parse, select, minimize. Concrete
// passes embed Base and supply only a name and a SelectFunc.
type Base struct {
	Config
	name string
}

// NewBase constructs a Base for a pass named name.
func NewBase(name string, cfg Config) *Base {
	return &Base{Config: cfg, name: name}
}

func (b *Base) Name() string { return b.name }

// TempDir is the directory this pass writes its trial files under:
// OutputDir/Name.
func (b *Base) TempDir() string { return filepath.Join(b.OutputDir, b.name) }

// TempFile allocates a fresh, unique path inside TempDir for one
// trial.
func (b *Base) TempFile() string {
	id := b.Counter.Next()
	return filepath.Join(b.TempDir(), strconv.FormatInt(id, 10))
}

func (b *Base) log() *logrus.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return logrus.StandardLogger()
}

// Test writes source to a fresh trial file and runs the predicate on
// it. It implements delta.Oracle.Test.
func (b *Base) Test(ctx context.Context, source sitter.Source) (runner.TestOutcome, error) {
	path := b.TempFile()
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		return runner.Unresolved, fmt.Errorf("%s: write trial file %s: %w", b.name, path, err)
	}
	outcome := runner.Run(ctx, b.Script, path, b.Timeout)
	b.log().WithFields(logrus.Fields{"pass": b.name, "file": path, "outcome": outcome.String()}).Debug("passes: ran predicate")
	return outcome, nil
}

// TestWithout deletes toRemove's ranges from source and tests the
// result. It implements delta.Oracle.TestWithout.
func (b *Base) TestWithout(ctx context.Context, source sitter.Source, toRemove []sitter.Node) (runner.TestOutcome, sitter.Source, error) {
	reduced, err := sitter.DeleteRanges(source, toRemove)
	if err != nil {
		return runner.Unresolved, "", err
	}
	outcome, err := b.Test(ctx, reduced)
	if err != nil {
		return runner.Unresolved, "", err
	}
	return outcome, reduced, nil
}

// Reduce parses source, runs selectFn to build the candidate
// sequence, and hands both to a delta.Engine with b as the oracle. It
// is the common body every concrete pass's Run delegates to.
func (b *Base) Reduce(ctx context.Context, source sitter.Source, selectFn SelectFunc) (sitter.Source, error) {
	tree, err := sitter.ParseLua(ctx, source)
	if err != nil {
		return "", err
	}
	candidates, err := selectFn(tree)
	if err != nil {
		return "", err
	}

	b.log().WithFields(logrus.Fields{"pass": b.name, "candidates": len(candidates)}).Debug("passes: bisecting candidate sequence")

	engine := &delta.Engine{Logger: b.Logger}
	_, reduced, err := engine.Minimize(ctx, candidates, source, b)
	if err != nil {
		return "", err
	}
	if len(candidates) < 2 || reduced == source {
		// Too few candidates to bisect, or bisection never found a
		// single failing trial (every candidate set either passed or
		// was unresolved): this pass leaves the source untouched.
		return "", ErrNoChange
	}
	return reduced, nil
}
