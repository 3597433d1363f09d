// Package schema defines the HCL shapes of registry manifests. These
// structs mirror the manifest syntax exactly; the hcl package translates
// them into the format-agnostic config model.
package schema

import "github.com/hashicorp/hcl/v2"

// Provider declares one CDN URL template.
//
//	provider "jsdelivr" {
//	  url_template = "https://cdn.jsdelivr.net/npm/{package}@{version}/{path}"
//	}
type Provider struct {
	Name        string `hcl:"name,label"`
	URLTemplate string `hcl:"url_template"`
}

// Source is one concrete way to fetch a resource, inside a `source` or
// `fallback` block.
type Source struct {
	Provider string `hcl:"provider"`
	Package  string `hcl:"package,optional"`
	Version  string `hcl:"version,optional"`
	Path     string `hcl:"path"`
}

// Resource declares one logical resource and its ordered fallback chain.
//
//	resource "script" "prism-core" {
//	  priority = "high"
//	  source   { ... }
//	  fallback { ... }
//	}
type Resource struct {
	Kind       string            `hcl:"kind,label"`
	Name       string            `hcl:"name,label"`
	Priority   string            `hcl:"priority,optional"`
	Strategy   string            `hcl:"strategy,optional"`
	Source     *Source           `hcl:"source,block"`
	Fallbacks  []*Source         `hcl:"fallback,block"`
	Attributes map[string]string `hcl:"attributes,optional"`
}

// Group names a set of resources loaded together by a page feature.
type Group struct {
	Name      string   `hcl:"name,label"`
	Resources []string `hcl:"resources"`
}

// Versions pins one version per package; the attribute names are package
// names. Kept as a raw body so arbitrary package names work.
type Versions struct {
	Body hcl.Body `hcl:",remain"`
}

// Timeouts overrides the priority tier durations.
type Timeouts struct {
	Critical string `hcl:"critical,optional"`
	High     string `hcl:"high,optional"`
	Medium   string `hcl:"medium,optional"`
	Low      string `hcl:"low,optional"`
}

// Root is the top-level structure of one manifest file.
type Root struct {
	Providers []*Provider `hcl:"provider,block"`
	Versions  *Versions   `hcl:"versions,block"`
	Timeouts  *Timeouts   `hcl:"timeouts,block"`
	Resources []*Resource `hcl:"resource,block"`
	Groups    []*Group    `hcl:"group,block"`
}
