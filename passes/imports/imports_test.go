package imports_test

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
	"github.com/jubnzv-go/godd/passes/imports"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

// TestRun_ReducesToSingleRequire reproduces spec.md scenario S1.
func TestRun_ReducesToSingleRequire(t *testing.T) {
	script := writeScript(t, `! grep -q -E 'require\("mod2"\)' "$1"`+"\n")

	cfg := passes.Config{
		Script:    script,
		OutputDir: t.TempDir(),
		Counter:   &passes.Counter{},
	}
	pass := imports.New(cfg)
	require.NoError(t, os.MkdirAll(pass.TempDir(), 0o755))

	src := sitter.Source("require(\"mod1\")\nrequire(\"mod2\")\nrequire(\"mod3\")\nrequire(\"mod4\")\n")
	got, err := pass.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, `require("mod2")`, strings.TrimSpace(string(got)))
}

func TestRun_NoChangeWhenOriginalPasses(t *testing.T) {
	script := writeScript(t, "exit 0\n")

	cfg := passes.Config{
		Script:    script,
		OutputDir: t.TempDir(),
		Counter:   &passes.Counter{},
	}
	pass := imports.New(cfg)
	require.NoError(t, os.MkdirAll(pass.TempDir(), 0o755))

	_, err := pass.Run(context.Background(), sitter.Source("require(\"mod1\")\n"))
	assert.ErrorIs(t, err, passes.ErrNoChange)
}
