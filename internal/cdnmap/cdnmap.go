// Package cdnmap derives the ordered CDN candidate list for a logical
// resource. Declared registry order is the tie-break; no scoring. URLs
// discovered on live document elements tagged with the logical name are
// appended, so a resource inserted by static markup still participates in
// fallback.
package cdnmap

import (
	"github.com/vk/assetgridgo/internal/config"
	"github.com/vk/assetgridgo/internal/document"
	"github.com/vk/assetgridgo/internal/registry"
)

// Mapper scans the registry chain and the live document.
type Mapper struct {
	registry *registry.Registry
	doc      *document.Document
}

// New builds a Mapper over the given registry and document.
func New(reg *registry.Registry, doc *document.Document) *Mapper {
	return &Mapper{registry: reg, doc: doc}
}

// Candidates returns every CDN URL for the logical resource in order:
// primary, declared fallbacks, then document-discovered extras. Local
// sources are excluded; the fallback procedure handles the local file as a
// separate, strategy-gated step. Sources that fail to resolve are skipped.
func (m *Mapper) Candidates(desc *config.Descriptor) []string {
	var out []string
	seen := make(map[string]bool)

	for _, src := range desc.Sources() {
		if src.IsLocal() {
			continue
		}
		url := m.registry.BuildURL(src)
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		out = append(out, url)
	}

	for _, el := range m.doc.ByAttr(document.AttrResourceID, desc.LogicalName) {
		if el.URL == "" || seen[el.URL] {
			continue
		}
		seen[el.URL] = true
		out = append(out, el.URL)
	}

	return out
}

// NextURL returns the first candidate not yet in tried, or "" when the CDN
// side of the chain is exhausted.
func (m *Mapper) NextURL(desc *config.Descriptor, tried map[string]bool) string {
	for _, url := range m.Candidates(desc) {
		if !tried[url] {
			return url
		}
	}
	return ""
}
