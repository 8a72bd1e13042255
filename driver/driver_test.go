package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sitter "github.com/jubnzv-go/godd"
	"github.com/jubnzv-go/godd/driver"
	_ "github.com/jubnzv-go/godd/lua"
	"github.com/jubnzv-go/godd/passes"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

// TestRun_PassComposition reproduces spec.md scenario S4: with passes
// "top;imports", the top pass removes the function containing
// assert(false) and the imports pass can no longer touch the sole
// remaining require("mod1") without making the predicate pass.
func TestRun_PassComposition(t *testing.T) {
	script := writeScript(t, `! grep -q -E 'assert\(false\)|require\("mod1"\)' "$1"`+"\n")

	cfg := passes.Config{
		Script:    script,
		OutputDir: t.TempDir(),
		Counter:   &passes.Counter{},
	}

	d, err := driver.New([]string{"top", "imports"}, cfg)
	require.NoError(t, err)
	require.NoError(t, driver.PrepareOutputDirs(cfg.OutputDir, false, d.Passes))

	src := sitter.Source("require(\"mod1\")\nfunction foo()  assert(false) end\nfunction bar()  return true  end\n")
	got, err := d.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, `require("mod1")`, strings.TrimSpace(string(got)))
}

// TestRun_TimeoutClassification reproduces spec.md scenario S5: a
// predicate that always exceeds the timeout yields Unresolved on every
// trial, so no pass ever reduces the input and Run reports
// driver.ErrNoChange.
func TestRun_TimeoutClassification(t *testing.T) {
	script := writeScript(t, "sleep 5\n")

	cfg := passes.Config{
		Script:    script,
		OutputDir: t.TempDir(),
		Timeout:   50 * time.Millisecond,
		Counter:   &passes.Counter{},
	}

	d, err := driver.New([]string{"imports", "top"}, cfg)
	require.NoError(t, err)
	require.NoError(t, driver.PrepareOutputDirs(cfg.OutputDir, false, d.Passes))

	_, err = d.Run(context.Background(), sitter.Source("require(\"mod1\")\nfunction foo() end\n"))
	assert.ErrorIs(t, err, driver.ErrNoChange)
}

// TestPrepareOutputDirs_RefusesExistingWithoutForce guards against
// silently reusing stale trial files from a previous run.
func TestPrepareOutputDirs_RefusesExistingWithoutForce(t *testing.T) {
	cfg := passes.Config{
		Script:    writeScript(t, "exit 0\n"),
		OutputDir: t.TempDir(),
		Counter:   &passes.Counter{},
	}
	d, err := driver.New([]string{"imports"}, cfg)
	require.NoError(t, err)

	err = driver.PrepareOutputDirs(cfg.OutputDir, false, d.Passes)
	assert.Error(t, err)

	err = driver.PrepareOutputDirs(cfg.OutputDir, true, d.Passes)
	assert.NoError(t, err)
}
