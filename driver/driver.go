// Package driver orchestrates the configured passes into a single
// reduction run: prepare the output directory tree, run each enabled
// pass in order over the shrinking source, and report whether any
// pass actually reduced anything.
package driver

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	sitter "github.com/jubnzv-go/godd"
	"github.com/jubnzv-go/godd/config"
	"github.com/jubnzv-go/godd/passes"
	"github.com/jubnzv-go/godd/passes/imports"
	"github.com/jubnzv-go/godd/passes/top"
)

// ErrNoChange is returned when every enabled pass left the input
// untouched, mirroring passes.ErrNoChange at the whole-run level.
var ErrNoChange = passes.ErrNoChange

// Driver runs a sequence of passes over a source file.
type Driver struct {
	Passes []passes.Pass
	Logger *logrus.Logger
}

// New builds the pass sequence named in passNames, in that order,
// each configured with cfg. Unknown names are a programmer error by
// this point: config.ParsePasses should have already rejected them.
func New(passNames []string, cfg passes.Config) (*Driver, error) {
	d := &Driver{Logger: cfg.Logger}
	for _, name := range passNames {
		switch name {
		case "imports":
			d.Passes = append(d.Passes, imports.New(cfg))
		case "top":
			d.Passes = append(d.Passes, top.New(cfg))
		default:
			return nil, fmt.Errorf("driver: unknown pass %q", name)
		}
	}
	return d, nil
}

func (d *Driver) log() *logrus.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return logrus.StandardLogger()
}

// Run executes every configured pass in order, threading the reduced
// source from one pass into the next. A pass that reports
// passes.ErrNoChange is skipped and the source carries forward
// unchanged. If no pass ever reduces the source, Run returns
// ErrNoChange and the original source is discarded by the caller.
func (d *Driver) Run(ctx context.Context, source sitter.Source) (sitter.Source, error) {
	current := source
	var reducedAny bool

	for _, p := range d.Passes {
		reduced, err := p.Run(ctx, current)
		if errors.Is(err, passes.ErrNoChange) {
			d.log().WithField("pass", p.Name()).Debug("driver: pass made no change")
			continue
		}
		if err != nil {
			return "", fmt.Errorf("pass %s: %w", p.Name(), err)
		}
		d.log().WithFields(logrus.Fields{
			"pass":       p.Name(),
			"from_bytes": len(current),
			"to_bytes":   len(reduced),
		}).Info("driver: pass reduced source")
		current = reduced
		reducedAny = true
	}

	if !reducedAny {
		return "", ErrNoChange
	}
	return current, nil
}

// PrepareOutputDirs creates outputDir and a subdirectory per pass for
// trial files. If outputDir already exists, it is removed first when
// force is set, otherwise PrepareOutputDirs fails rather than reuse
// stale trial files from a previous run.
func PrepareOutputDirs(outputDir string, force bool, ps []passes.Pass) error {
	if _, err := os.Stat(outputDir); err == nil {
		if !force {
			return &config.Error{Msg: fmt.Sprintf("driver: output directory %q already exists; rerun with --force", outputDir)}
		}
		if err := os.RemoveAll(outputDir); err != nil {
			return fmt.Errorf("driver: remove existing output directory %q: %w", outputDir, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("driver: stat output directory %q: %w", outputDir, err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("driver: create output directory %q: %w", outputDir, err)
	}
	for _, p := range ps {
		if err := os.MkdirAll(p.TempDir(), 0o755); err != nil {
			return fmt.Errorf("driver: create pass directory %q: %w", p.TempDir(), err)
		}
	}
	return nil
}
