package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("groups and defaults", func(t *testing.T) {
		var out bytes.Buffer
		cfg, exit, err := Parse([]string{"core", "code"}, &out)
		require.NoError(t, err)
		require.False(t, exit)
		assert.Equal(t, []string{"core", "code"}, cfg.Groups)
		assert.Equal(t, "assets", cfg.AssetsDir)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, 0, cfg.StatusPort)
		assert.Empty(t, cfg.Languages)
	})

	t.Run("help requests a clean exit", func(t *testing.T) {
		var out bytes.Buffer
		cfg, exit, err := Parse([]string{"-h"}, &out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
	})

	t.Run("no groups prints usage and exits cleanly", func(t *testing.T) {
		var out bytes.Buffer
		cfg, exit, err := Parse(nil, &out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	})

	t.Run("registry shorthand", func(t *testing.T) {
		var out bytes.Buffer
		cfg, _, err := Parse([]string{"-r", "site.hcl", "core"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "site.hcl", cfg.RegistryPath)
	})

	t.Run("long registry flag wins over shorthand", func(t *testing.T) {
		var out bytes.Buffer
		cfg, _, err := Parse([]string{"-registry", "a.hcl", "-r", "b.hcl", "core"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "a.hcl", cfg.RegistryPath)
	})

	t.Run("languages split on commas", func(t *testing.T) {
		var out bytes.Buffer
		cfg, _, err := Parse([]string{"-languages", "go, rust,,python", "code"}, &out)
		require.NoError(t, err)
		assert.Equal(t, []string{"go", "rust", "python"}, cfg.Languages)
	})

	t.Run("invalid log format", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := Parse([]string{"-log-format", "xml", "core"}, &out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})

	t.Run("invalid log level", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := Parse([]string{"-log-level", "loud", "core"}, &out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})

	t.Run("unknown flag", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := Parse([]string{"-no-such-flag", "core"}, &out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})
}
