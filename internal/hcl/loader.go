package hcl

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/assetgridgo/internal/config"
	"github.com/vk/assetgridgo/internal/ctxlog"
	"github.com/vk/assetgridgo/internal/fsutil"
	"github.com/vk/assetgridgo/internal/schema"
)

//go:embed defaults.hcl
var defaultManifest []byte

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

// NewLoader returns a ready Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses the embedded default manifest, then overlays every .hcl file
// found at the given paths (files or directories, recursively), in order.
// Later definitions win.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	model, err := l.parse("defaults.hcl", defaultManifest)
	if err != nil {
		return nil, fmt.Errorf("parsing embedded default manifest: %w", err)
	}

	for _, path := range paths {
		files, err := manifestFiles(path)
		if err != nil {
			return nil, fmt.Errorf("locating manifests under %q: %w", path, err)
		}
		for _, file := range files {
			src, err := os.ReadFile(file)
			if err != nil {
				return nil, fmt.Errorf("reading manifest %q: %w", file, err)
			}
			overlay, err := l.parse(file, src)
			if err != nil {
				return nil, err
			}
			model.Merge(overlay)
			logger.Debug("Manifest merged.", "file", file)
		}
	}

	logger.Debug("Registry manifests loaded.",
		"providers", len(model.Providers), "resources", len(model.Resources), "groups", len(model.Groups))
	return model, nil
}

// parse reads one manifest into the agnostic model.
func (l *Loader) parse(filename string, src []byte) (*config.Model, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %q: %s", filename, diags.Error())
	}

	var root schema.Root
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %q: %s", filename, diags.Error())
	}

	return translate(&root)
}

// manifestFiles expands a path into the .hcl files it names.
func manifestFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	return fsutil.FindFilesByExtension(path, ".hcl")
}
