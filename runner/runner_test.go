package runner_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jubnzv-go/godd/runner"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "script")
	assert.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestRun_Pass(t *testing.T) {
	script := writeScript(t, "exit 0\n")
	out := runner.Run(context.Background(), script, "candidate.lua", 0)
	assert.Equal(t, runner.Pass, out)
}

func TestRun_Fail(t *testing.T) {
	script := writeScript(t, "exit 1\n")
	out := runner.Run(context.Background(), script, "candidate.lua", 0)
	assert.Equal(t, runner.Fail, out)
}

func TestRun_PassesCandidatePath(t *testing.T) {
	dir := t.TempDir()
	candidate := filepath.Join(dir, "in.lua")
	assert.NoError(t, os.WriteFile(candidate, []byte("require(\"mod2\")"), 0o644))

	script := writeScript(t, `grep -q -E "require\(\"mod2\"\)" "$1"`+"\n")
	out := runner.Run(context.Background(), script, candidate, 0)
	assert.Equal(t, runner.Pass, out)
}

func TestRun_Timeout(t *testing.T) {
	script := writeScript(t, "sleep 5\n")
	start := time.Now()
	out := runner.Run(context.Background(), script, "candidate.lua", 200*time.Millisecond)
	assert.Equal(t, runner.Unresolved, out)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRun_SpawnFailure(t *testing.T) {
	out := runner.Run(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"), "candidate.lua", 0)
	assert.Equal(t, runner.Unresolved, out)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "Pass", runner.Pass.String())
	assert.Equal(t, "Fail", runner.Fail.String())
	assert.Equal(t, "Unresolved", runner.Unresolved.String())
}
