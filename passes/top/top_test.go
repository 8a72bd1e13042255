package top_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sitter "github.com/jubnzv-go/godd"
	_ "github.com/jubnzv-go/godd/lua"
	"github.com/jubnzv-go/godd/passes"
	"github.com/jubnzv-go/godd/passes/top"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

// TestRun_ReducesToSingleFunction reproduces spec.md scenario S2.
func TestRun_ReducesToSingleFunction(t *testing.T) {
	script := writeScript(t, `! grep -q -E "assert\(false\)" "$1"`+"\n")

	cfg := passes.Config{
		Script:    script,
		OutputDir: t.TempDir(),
		Counter:   &passes.Counter{},
	}
	pass := top.New(cfg)
	require.NoError(t, os.MkdirAll(pass.TempDir(), 0o755))

	src := sitter.Source("\nfunction foo()  assert(false) end\nfunction bar()  return false  end\nfunction baz()  assert(false) end\nfunction main() foo() end\n")
	got, err := pass.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Contains(t, strings.TrimSpace(string(got)), "assert(false)")
}

// TestRun_NoChangeOnAlreadyPassingInput reproduces spec.md scenario S3.
func TestRun_NoChangeOnAlreadyPassingInput(t *testing.T) {
	script := writeScript(t, `! grep -q -E "assert\(false\)" "$1"`+"\n")

	cfg := passes.Config{
		Script:    script,
		OutputDir: t.TempDir(),
		Counter:   &passes.Counter{},
	}
	pass := top.New(cfg)
	require.NoError(t, os.MkdirAll(pass.TempDir(), 0o755))

	_, err := pass.Run(context.Background(), sitter.Source(`function main() print("test") end`))
	assert.ErrorIs(t, err, passes.ErrNoChange)
}
