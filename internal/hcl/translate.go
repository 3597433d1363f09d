package hcl

import (
	"fmt"
	"time"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/assetgridgo/internal/config"
	"github.com/vk/assetgridgo/internal/schema"
)

// translate converts the HCL-specific schema into the agnostic model.
func translate(root *schema.Root) (*config.Model, error) {
	model := config.NewModel()
	model.Timeouts = config.TimeoutTable{}

	for _, p := range root.Providers {
		model.Providers[p.Name] = &config.ProviderDefinition{
			Name:        p.Name,
			URLTemplate: p.URLTemplate,
		}
	}

	if root.Versions != nil {
		versions, err := versionAttributes(root.Versions)
		if err != nil {
			return nil, err
		}
		model.Versions = versions
	}

	if root.Timeouts != nil {
		if err := translateTimeouts(root.Timeouts, model.Timeouts); err != nil {
			return nil, err
		}
	}

	for _, r := range root.Resources {
		desc, err := translateResource(r)
		if err != nil {
			return nil, err
		}
		model.Resources[desc.LogicalName] = desc
	}

	for _, g := range root.Groups {
		model.Groups[g.Name] = &config.Group{
			Name:      g.Name,
			Resources: g.Resources,
		}
	}

	return model, nil
}

func translateResource(r *schema.Resource) (*config.Descriptor, error) {
	kind, err := config.ParseKind(r.Kind)
	if err != nil {
		return nil, fmt.Errorf("resource %q: %w", r.Name, err)
	}
	priority, err := config.ParsePriority(r.Priority)
	if err != nil {
		return nil, fmt.Errorf("resource %q: %w", r.Name, err)
	}
	strategy, err := config.ParseStrategy(r.Strategy)
	if err != nil {
		return nil, fmt.Errorf("resource %q: %w", r.Name, err)
	}
	if r.Source == nil {
		return nil, fmt.Errorf("resource %q: missing source block", r.Name)
	}

	desc := &config.Descriptor{
		Kind:        kind,
		LogicalName: r.Name,
		Primary:     translateSource(r.Source),
		Priority:    priority,
		Strategy:    strategy,
		Attributes:  r.Attributes,
	}
	for _, f := range r.Fallbacks {
		desc.Fallbacks = append(desc.Fallbacks, translateSource(f))
	}
	return desc, nil
}

func translateSource(s *schema.Source) config.SourceSpec {
	return config.SourceSpec{
		Provider: s.Provider,
		Package:  s.Package,
		Version:  s.Version,
		Path:     s.Path,
	}
}

// versionAttributes extracts the version table from the raw block body;
// every attribute name is a package name and every value must convert to a
// string.
func versionAttributes(v *schema.Versions) (map[string]string, error) {
	out := make(map[string]string)
	attrs, diags := v.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("decoding versions block: %s", diags.Error())
	}
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("versions.%s: %s", name, diags.Error())
		}
		strVal, err := convert.Convert(val, cty.String)
		if err != nil || strVal.IsNull() {
			return nil, fmt.Errorf("versions.%s: value must be a string", name)
		}
		out[name] = strVal.AsString()
	}
	return out, nil
}

func translateTimeouts(t *schema.Timeouts, table config.TimeoutTable) error {
	entries := []struct {
		priority config.Priority
		value    string
	}{
		{config.Critical, t.Critical},
		{config.High, t.High},
		{config.Medium, t.Medium},
		{config.Low, t.Low},
	}
	for _, e := range entries {
		if e.value == "" {
			continue
		}
		d, err := time.ParseDuration(e.value)
		if err != nil {
			return fmt.Errorf("timeouts.%s: %w", e.priority.String(), err)
		}
		table[e.priority] = d
	}
	return nil
}
