package config

import (
	"fmt"
	"strings"
	"time"
)

// Kind distinguishes the two asset flavours the loader knows how to attach.
type Kind int

const (
	Stylesheet Kind = iota
	Script
)

// String returns the manifest spelling of the kind.
func (k Kind) String() string {
	switch k {
	case Stylesheet:
		return "stylesheet"
	case Script:
		return "script"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts a manifest string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "stylesheet", "style", "css":
		return Stylesheet, nil
	case "script", "js":
		return Script, nil
	}
	return 0, fmt.Errorf("unknown resource kind %q", s)
}

// Priority affects only the timeout tier and has no scheduling meaning.
type Priority int

const (
	Low Priority = iota
	Medium
	High
	Critical
)

// String returns the manifest spelling of the priority.
func (p Priority) String() string {
	switch p {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	case Critical:
		return "critical"
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// ParsePriority converts a manifest string into a Priority. An empty string
// selects Medium.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(s) {
	case "":
		return Medium, nil
	case "low":
		return Low, nil
	case "medium":
		return Medium, nil
	case "high":
		return High, nil
	case "critical":
		return Critical, nil
	}
	return 0, fmt.Errorf("unknown priority %q", s)
}

// Strategy selects which source classes participate in the fallback chain
// for a logical resource.
type Strategy int

const (
	// CDNFirst tries every CDN source, then the local file, then degrades.
	CDNFirst Strategy = iota
	// CDNOnly never touches the local file even when every CDN fails.
	CDNOnly
	// LocalOnly goes straight to the local file; no CDN request is made.
	LocalOnly
)

// String returns the manifest spelling of the strategy.
func (s Strategy) String() string {
	switch s {
	case CDNFirst:
		return "cdn_first"
	case CDNOnly:
		return "cdn_only"
	case LocalOnly:
		return "local_only"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy converts a manifest string into a Strategy. An empty string
// selects CDNFirst.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "", "cdn_first", "cdn-first":
		return CDNFirst, nil
	case "cdn_only", "cdn-only":
		return CDNOnly, nil
	case "local_only", "local-only":
		return LocalOnly, nil
	}
	return 0, fmt.Errorf("unknown fallback strategy %q", s)
}

// ProviderDefinition describes one URL template. Placeholders {package},
// {version} and {path} are substituted when a SourceSpec is resolved.
type ProviderDefinition struct {
	Name        string
	URLTemplate string
}

// LocalProvider is the reserved provider name for file-backed sources. A
// local source is always the last resort of a fallback chain.
const LocalProvider = "local"

// SourceSpec is one concrete way to fetch a resource. Resolving it to a URL
// is a pure function of its fields plus the provider and version tables.
type SourceSpec struct {
	Provider string
	Package  string
	// Version overrides the central version table when non-empty. Leaving
	// it empty keeps primary and fallback URLs on the same version.
	Version string
	Path    string
}

// IsLocal reports whether the source is served from the local assets dir.
func (s SourceSpec) IsLocal() bool {
	return s.Provider == LocalProvider
}

// Descriptor identifies one fetchable asset and its full fallback chain.
// Descriptors are immutable after the model is loaded.
type Descriptor struct {
	Kind        Kind
	LogicalName string
	Primary     SourceSpec
	Fallbacks   []SourceSpec
	Priority    Priority
	Strategy    Strategy
	// Attributes is opaque metadata attached to the document element, used
	// for later identification (degraded handler key, global symbol name).
	Attributes map[string]string
}

// Sources returns the full chain in declared order, primary first.
func (d *Descriptor) Sources() []SourceSpec {
	out := make([]SourceSpec, 0, 1+len(d.Fallbacks))
	out = append(out, d.Primary)
	out = append(out, d.Fallbacks...)
	return out
}

// Group names a set of logical resources loaded together by a page feature.
type Group struct {
	Name      string
	Resources []string
}

// TimeoutTable maps a priority tier to the duration after which an in-flight
// load is forcibly aborted.
type TimeoutTable map[Priority]time.Duration

// DefaultTimeouts carries the stock tier durations. Higher priority gets a
// shorter leash so critical assets converge to a fallback decision sooner.
func DefaultTimeouts() TimeoutTable {
	return TimeoutTable{
		Critical: 4 * time.Second,
		High:     6 * time.Second,
		Medium:   8 * time.Second,
		Low:      10 * time.Second,
	}
}

// For returns the duration for a tier, falling back to the Medium entry and
// then to the stock default when the table has gaps.
func (t TimeoutTable) For(p Priority) time.Duration {
	if d, ok := t[p]; ok {
		return d
	}
	if d, ok := t[Medium]; ok {
		return d
	}
	return DefaultTimeouts()[p]
}

// Model is the unified, format-agnostic representation of the resource
// registry: providers, version table, descriptors, groups and timeout tiers.
// It is assembled once at startup and never mutated afterwards.
type Model struct {
	Providers map[string]*ProviderDefinition
	Versions  map[string]string
	Resources map[string]*Descriptor
	Groups    map[string]*Group
	Timeouts  TimeoutTable
}

// NewModel returns an empty model with all maps initialised.
func NewModel() *Model {
	return &Model{
		Providers: make(map[string]*ProviderDefinition),
		Versions:  make(map[string]string),
		Resources: make(map[string]*Descriptor),
		Groups:    make(map[string]*Group),
		Timeouts:  DefaultTimeouts(),
	}
}

// Merge overlays another model on top of this one. Later definitions win,
// which lets a user manifest override the embedded defaults.
func (m *Model) Merge(other *Model) {
	for k, v := range other.Providers {
		m.Providers[k] = v
	}
	for k, v := range other.Versions {
		m.Versions[k] = v
	}
	for k, v := range other.Resources {
		m.Resources[k] = v
	}
	for k, v := range other.Groups {
		m.Groups[k] = v
	}
	for k, v := range other.Timeouts {
		m.Timeouts[k] = v
	}
}
