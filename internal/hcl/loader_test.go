package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/assetgridgo/internal/config"
	"github.com/vk/assetgridgo/internal/registry"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	model, err := NewLoader().Load(context.Background())
	require.NoError(t, err)

	t.Run("providers", func(t *testing.T) {
		for _, name := range []string{"jsdelivr", "cdnjs", "unpkg", config.LocalProvider} {
			assert.Contains(t, model.Providers, name)
		}
		assert.Equal(t, "{path}", model.Providers[config.LocalProvider].URLTemplate)
	})

	t.Run("timeouts", func(t *testing.T) {
		if diff := cmp.Diff(config.DefaultTimeouts(), model.Timeouts); diff != "" {
			t.Errorf("timeout table mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("versions", func(t *testing.T) {
		assert.Equal(t, "1.29.0", model.Versions["prismjs"])
		assert.Equal(t, "0.16.9", model.Versions["katex"])
		assert.Equal(t, "6.5.1", model.Versions["font-awesome"])
	})

	t.Run("icon font resource", func(t *testing.T) {
		desc, ok := model.Resources["font-awesome"]
		require.True(t, ok)
		assert.Equal(t, config.Stylesheet, desc.Kind)
		assert.Equal(t, config.Critical, desc.Priority)
		assert.Equal(t, config.CDNFirst, desc.Strategy)
		require.Len(t, desc.Fallbacks, 2)
		assert.True(t, desc.Fallbacks[1].IsLocal())
		assert.Equal(t, "fontawesome", desc.Attributes["degraded"])
	})

	t.Run("language components", func(t *testing.T) {
		langs := 0
		for name := range model.Resources {
			if len(name) > len("prism-lang-") && name[:len("prism-lang-")] == "prism-lang-" {
				langs++
			}
		}
		assert.Equal(t, 16, langs)
	})

	t.Run("groups", func(t *testing.T) {
		require.Contains(t, model.Groups, "code")
		assert.Equal(t, []string{"prism-core", "prism-theme"}, model.Groups["code"].Resources)
	})

	t.Run("defaults pass registry validation", func(t *testing.T) {
		require.NoError(t, registry.New(model).ValidateRegistry(context.Background()))
	})
}

func TestLoadOverlaysUserManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := `
versions {
  prismjs = "2.0.0"
}

timeouts {
  critical = "1s"
}

resource "script" "prism-core" {
  priority = "critical"
  strategy = "cdn_only"
  source {
    provider = "unpkg"
    package  = "prismjs"
    path     = "prism.min.js"
  }
}

resource "script" "custom-widget" {
  source {
    provider = "jsdelivr"
    package  = "widget"
    version  = "3.1.4"
    path     = "widget.min.js"
  }
}
`
	path := filepath.Join(dir, "site.hcl")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))

	model, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	t.Run("later definitions win", func(t *testing.T) {
		assert.Equal(t, "2.0.0", model.Versions["prismjs"])
		desc := model.Resources["prism-core"]
		require.NotNil(t, desc)
		assert.Equal(t, config.CDNOnly, desc.Strategy)
		assert.Equal(t, "unpkg", desc.Primary.Provider)
		assert.Empty(t, desc.Fallbacks, "overlay replaces the whole definition")
	})

	t.Run("unmentioned defaults survive", func(t *testing.T) {
		assert.Contains(t, model.Resources, "katex-core")
		assert.Equal(t, 6*time.Second, model.Timeouts[config.High])
	})

	t.Run("overridden timeout tier", func(t *testing.T) {
		assert.Equal(t, time.Second, model.Timeouts[config.Critical])
	})

	t.Run("new resource with inline version", func(t *testing.T) {
		desc := model.Resources["custom-widget"]
		require.NotNil(t, desc)
		assert.Equal(t, "3.1.4", desc.Primary.Version)
	})
}

func TestLoadWalksDirectories(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "conf.d")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	manifest := `
resource "script" "from-dir" {
  source {
    provider = "unpkg"
    package  = "x"
    version  = "1.0.0"
    path     = "x.js"
  }
}
`
	require.NoError(t, os.WriteFile(filepath.Join(nested, "extra.hcl"), []byte(manifest), 0o644))
	// A non-manifest file in the tree must be ignored.
	require.NoError(t, os.WriteFile(filepath.Join(nested, "notes.txt"), []byte("not hcl"), 0o644))

	model, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Contains(t, model.Resources, "from-dir")
}

func TestLoadRejectsBadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`resource "script" {`), 0o644))

	_, err := NewLoader().Load(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.hcl")
}

func TestLoadRejectsMissingPath(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "absent.hcl"))
	require.Error(t, err)
}
