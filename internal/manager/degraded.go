package manager

import (
	"context"

	"github.com/vk/assetgridgo/internal/config"
	"github.com/vk/assetgridgo/internal/ctxlog"
	"github.com/vk/assetgridgo/internal/document"
	"github.com/vk/assetgridgo/internal/eventbus"
)

// AttrDegraded selects which degraded handler applies when every source of
// a resource is exhausted. Absent, the logical name is the key.
const AttrDegraded = "degraded"

// applyFinalFallback runs the per-resource degraded handler, exactly once
// per resource regardless of how many failure paths converge here. Without
// a handler the exhaustion is only logged, at a severity derived from the
// declared priority. Rendering is never blocked either way.
func (m *Manager) applyFinalFallback(ctx context.Context, desc *config.Descriptor) {
	logger := ctxlog.FromContext(ctx)

	key := desc.Attributes[AttrDegraded]
	if key == "" {
		key = desc.LogicalName
	}

	m.mu.Lock()
	handler := m.degraded[key]
	m.mu.Unlock()

	marker := "degraded-" + desc.LogicalName
	if handler != nil && !m.doc.HasMarker(marker) {
		handler(m.doc)
		m.doc.Append(&document.Element{
			Attrs: map[string]string{document.AttrMarker: marker},
		})
		logger.Info("Applied degraded fallback.", "resource", desc.LogicalName, "handler", key)
	} else if handler == nil {
		switch desc.Priority {
		case config.Critical, config.High:
			logger.Warn("All sources exhausted; no degraded handler.", "resource", desc.LogicalName)
		default:
			logger.Debug("All sources exhausted; no degraded handler.", "resource", desc.LogicalName)
		}
	}

	m.bus.Emit(eventbus.Event{
		Type:        eventbus.FallbackFailure,
		LogicalName: desc.LogicalName,
		Priority:    desc.Priority,
	})
}

// Stock inline substitutes. Kept deliberately tiny: just enough styling for
// the page to stay readable when a third-party library never arrives.
const (
	// GlyphCSS replaces icon-font classes with unicode glyphs.
	GlyphCSS = `.fa-home::before{content:"\2302"}.fa-search::before{content:"\1F50D"}.fa-bars::before{content:"\2630"}.fa-link::before{content:"\1F517"}.fa-file::before{content:"\1F4C4"}.fa-folder::before{content:"\1F4C1"}`

	// TableCSS is the minimal grid styling applied when the table library
	// is unavailable.
	TableCSS = `table{border-collapse:collapse;width:100%}td,th{border:1px solid #ddd;padding:6px 10px;text-align:left}th{background:#f5f5f5}`

	// MathCSS keeps raw math markup legible without the math renderer.
	MathCSS = `.math{font-family:"Times New Roman",serif;font-style:italic;white-space:pre-wrap}`
)

// RegisterDefaultDegraded installs the stock handlers: unicode glyphs for
// the icon font, minimal inline styles for table and math rendering.
func (m *Manager) RegisterDefaultDegraded() {
	m.RegisterDegraded("fontawesome", func(doc *document.Document) {
		doc.Append(&document.Element{
			Inline: GlyphCSS,
			Attrs:  map[string]string{document.AttrMarker: "no-fontawesome"},
		})
	})
	m.RegisterDegraded("gridjs", func(doc *document.Document) {
		doc.Append(&document.Element{
			Inline: TableCSS,
			Attrs:  map[string]string{document.AttrMarker: "no-gridjs"},
		})
	})
	m.RegisterDegraded("katex", func(doc *document.Document) {
		doc.Append(&document.Element{
			Inline: MathCSS,
			Attrs:  map[string]string{document.AttrMarker: "no-katex"},
		})
	})
}
