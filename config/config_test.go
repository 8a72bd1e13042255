package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jubnzv-go/godd/config"
)

func TestParsePasses_OrdersAndDeduplicates(t *testing.T) {
	got, err := config.ParsePasses("top;imports;top")
	require.NoError(t, err)
	assert.Equal(t, []string{"top", "imports"}, got)
}

func TestParsePasses_RejectsUnknownName(t *testing.T) {
	_, err := config.ParsePasses("imports;nonsense")
	require.Error(t, err)
	var cfgErr *config.Error
	require.ErrorAs(t, err, &cfgErr)
}

func TestParsePasses_RejectsEmpty(t *testing.T) {
	_, err := config.ParsePasses("")
	assert.Error(t, err)
}

func TestNew_DefaultsOutputDir(t *testing.T) {
	cfg, err := config.New(config.Options{
		Script:    "/bin/true",
		File:      "t.lua",
		PassesArg: "imports",
	})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, []string{"imports"}, cfg.Passes)
}

func TestNew_ResolvesRelativeScriptPath(t *testing.T) {
	cfg, err := config.New(config.Options{
		Script:    "check.sh",
		File:      "t.lua",
		PassesArg: "top",
		Timeout:   5 * time.Second,
	})
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(cfg.Script))
}

func TestNew_AbsoluteScriptPathUnchanged(t *testing.T) {
	cfg, err := config.New(config.Options{
		Script:    "/usr/local/bin/check.sh",
		File:      "t.lua",
		PassesArg: "top",
	})
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/check.sh", cfg.Script)
}

func TestNew_PropagatesPassesError(t *testing.T) {
	_, err := config.New(config.Options{
		Script:    "/bin/true",
		File:      "t.lua",
		PassesArg: "bogus",
	})
	require.Error(t, err)
	var cfgErr *config.Error
	require.ErrorAs(t, err, &cfgErr)
}
