// Package runner spawns the external interestingness predicate and
// classifies its result.
package runner

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

// TestOutcome classifies how the interestingness predicate resolved
// for a candidate file.
type TestOutcome int

const (
	// Pass means the predicate exited zero: the candidate is
	// uninteresting.
	Pass TestOutcome = iota
	// Fail means the predicate exited non-zero without timing out:
	// the candidate still reproduces the failure.
	Fail
	// Unresolved means the predicate could not be spawned, was
	// killed after a timeout, or otherwise produced no usable verdict.
	// Complements that produce Unresolved are rejected, same as Pass.
	Unresolved
)

func (o TestOutcome) String() string {
	switch o {
	case Pass:
		return "Pass"
	case Fail:
		return "Fail"
	default:
		return "Unresolved"
	}
}

// Run spawns script with candidateFile as its only argument. If
// timeout is positive and the child has not exited within timeout,
// the child is killed and Unresolved is returned. No
// stdout/stderr is captured; predicate diagnostics are out of scope.
func Run(ctx context.Context, script, candidateFile string, timeout time.Duration) TestOutcome {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, script, candidateFile)
	err := cmd.Run()
	if err == nil {
		return Pass
	}
	if ctx.Err() == context.DeadlineExceeded {
		return Unresolved
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Fail
	}
	// Spawn failure (not found, permission denied, etc.).
	return Unresolved
}
