package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/assetgridgo/internal/config"
)

// ErrNotFound is returned by Resolve for an unknown logical name.
var ErrNotFound = errors.New("logical resource not found")

// Registry is the read-only lookup surface over the loaded config model.
// It owns URL templating so a SourceSpec resolves to the same URL
// everywhere, with the version taken from the central table.
type Registry struct {
	model *config.Model
}

// New wraps a loaded model. The model must not be mutated afterwards.
func New(model *config.Model) *Registry {
	return &Registry{model: model}
}

// Resolve returns the descriptor for a logical name.
func (r *Registry) Resolve(logicalName string) (*config.Descriptor, error) {
	desc, ok := r.model.Resources[logicalName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, logicalName)
	}
	return desc, nil
}

// Group returns a named resource group.
func (r *Registry) Group(name string) (*config.Group, error) {
	g, ok := r.model.Groups[name]
	if !ok {
		return nil, fmt.Errorf("%w: group %q", ErrNotFound, name)
	}
	return g, nil
}

// Timeouts returns the configured priority tier table.
func (r *Registry) Timeouts() config.TimeoutTable {
	return r.model.Timeouts
}

// Version returns the central version pinned for a package, or "".
func (r *Registry) Version(pkg string) string {
	return r.model.Versions[pkg]
}

// BuildURL resolves a SourceSpec to a concrete URL by pure template
// substitution. It returns "" when the provider is unknown or a placeholder
// the template requires has no value; callers treat "" as a configuration
// error, never as a retryable failure.
func (r *Registry) BuildURL(spec config.SourceSpec) string {
	prov, ok := r.model.Providers[spec.Provider]
	if !ok {
		return ""
	}

	version := spec.Version
	if version == "" {
		version = r.model.Versions[spec.Package]
	}

	url := prov.URLTemplate
	url = substitute(url, "package", spec.Package)
	url = substitute(url, "version", version)
	url = substitute(url, "path", spec.Path)
	if strings.Contains(url, "{") {
		// An unfilled placeholder means the source is missing a required field.
		return ""
	}
	return url
}

// LocalURL returns the resolved URL of the descriptor's local source, or ""
// when the chain declares none.
func (r *Registry) LocalURL(desc *config.Descriptor) string {
	for _, src := range desc.Sources() {
		if src.IsLocal() {
			return r.BuildURL(src)
		}
	}
	return ""
}

// substitute fills one {placeholder}. An empty value leaves the placeholder
// in place so BuildURL can detect the missing field.
func substitute(tmpl, name, value string) string {
	if value == "" {
		return tmpl
	}
	return strings.ReplaceAll(tmpl, "{"+name+"}", value)
}
