package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/assetgridgo/internal/config"
)

func testModel() *config.Model {
	model := config.NewModel()
	model.Providers["jsdelivr"] = &config.ProviderDefinition{
		Name:        "jsdelivr",
		URLTemplate: "https://cdn.jsdelivr.net/npm/{package}@{version}/{path}",
	}
	model.Providers["cdnjs"] = &config.ProviderDefinition{
		Name:        "cdnjs",
		URLTemplate: "https://cdnjs.cloudflare.com/ajax/libs/{package}/{version}/{path}",
	}
	model.Providers[config.LocalProvider] = &config.ProviderDefinition{
		Name:        config.LocalProvider,
		URLTemplate: "{path}",
	}
	model.Versions["prismjs"] = "1.29.0"
	model.Resources["prism-core"] = &config.Descriptor{
		Kind:        config.Script,
		LogicalName: "prism-core",
		Primary:     config.SourceSpec{Provider: "jsdelivr", Package: "prismjs", Path: "prism.min.js"},
		Fallbacks: []config.SourceSpec{
			{Provider: config.LocalProvider, Path: "prism/prism.min.js"},
		},
		Priority: config.High,
	}
	model.Groups["code"] = &config.Group{Name: "code", Resources: []string{"prism-core"}}
	return model
}

func TestResolve(t *testing.T) {
	reg := New(testModel())

	t.Run("known resource", func(t *testing.T) {
		desc, err := reg.Resolve("prism-core")
		require.NoError(t, err)
		assert.Equal(t, "prism-core", desc.LogicalName)
	})

	t.Run("unknown resource", func(t *testing.T) {
		_, err := reg.Resolve("nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestBuildURL(t *testing.T) {
	reg := New(testModel())

	t.Run("version from central table", func(t *testing.T) {
		url := reg.BuildURL(config.SourceSpec{Provider: "jsdelivr", Package: "prismjs", Path: "prism.min.js"})
		assert.Equal(t, "https://cdn.jsdelivr.net/npm/prismjs@1.29.0/prism.min.js", url)
	})

	t.Run("explicit version overrides table", func(t *testing.T) {
		url := reg.BuildURL(config.SourceSpec{Provider: "jsdelivr", Package: "prismjs", Version: "2.0.0", Path: "prism.min.js"})
		assert.Equal(t, "https://cdn.jsdelivr.net/npm/prismjs@2.0.0/prism.min.js", url)
	})

	t.Run("local source substitutes only the path", func(t *testing.T) {
		url := reg.BuildURL(config.SourceSpec{Provider: config.LocalProvider, Path: "prism/prism.min.js"})
		assert.Equal(t, "prism/prism.min.js", url)
	})

	t.Run("unknown provider is an empty marker", func(t *testing.T) {
		assert.Empty(t, reg.BuildURL(config.SourceSpec{Provider: "ghost", Path: "x"}))
	})

	t.Run("missing version is an empty marker", func(t *testing.T) {
		assert.Empty(t, reg.BuildURL(config.SourceSpec{Provider: "jsdelivr", Package: "unknown-pkg", Path: "x.js"}))
	})

	t.Run("missing path is an empty marker", func(t *testing.T) {
		assert.Empty(t, reg.BuildURL(config.SourceSpec{Provider: "jsdelivr", Package: "prismjs"}))
	})
}

func TestLocalURL(t *testing.T) {
	reg := New(testModel())

	t.Run("declared local source resolves", func(t *testing.T) {
		desc, err := reg.Resolve("prism-core")
		require.NoError(t, err)
		assert.Equal(t, "prism/prism.min.js", reg.LocalURL(desc))
	})

	t.Run("chain without local source yields empty", func(t *testing.T) {
		desc := &config.Descriptor{
			Primary: config.SourceSpec{Provider: "jsdelivr", Package: "prismjs", Path: "x.js"},
		}
		assert.Empty(t, reg.LocalURL(desc))
	})
}

func TestValidateRegistry(t *testing.T) {
	t.Run("valid model passes", func(t *testing.T) {
		reg := New(testModel())
		assert.NoError(t, reg.ValidateRegistry(context.Background()))
	})

	t.Run("unknown provider is rejected", func(t *testing.T) {
		model := testModel()
		model.Resources["bad"] = &config.Descriptor{
			LogicalName: "bad",
			Primary:     config.SourceSpec{Provider: "ghost", Path: "x"},
		}
		err := New(model).ValidateRegistry(context.Background())
		assert.ErrorContains(t, err, "unknown provider")
	})

	t.Run("unresolvable source is rejected", func(t *testing.T) {
		model := testModel()
		model.Resources["bad"] = &config.Descriptor{
			LogicalName: "bad",
			Primary:     config.SourceSpec{Provider: "jsdelivr", Package: "no-version", Path: "x"},
		}
		err := New(model).ValidateRegistry(context.Background())
		assert.ErrorContains(t, err, "does not resolve")
	})

	t.Run("local_only without local source is rejected", func(t *testing.T) {
		model := testModel()
		model.Resources["bad"] = &config.Descriptor{
			LogicalName: "bad",
			Primary:     config.SourceSpec{Provider: "jsdelivr", Package: "prismjs", Path: "x"},
			Strategy:    config.LocalOnly,
		}
		err := New(model).ValidateRegistry(context.Background())
		assert.ErrorContains(t, err, "no local source")
	})

	t.Run("group member must exist", func(t *testing.T) {
		model := testModel()
		model.Groups["broken"] = &config.Group{Name: "broken", Resources: []string{"missing"}}
		err := New(model).ValidateRegistry(context.Background())
		assert.ErrorContains(t, err, "unknown resource")
	})
}
