// Package document models the target the loaders attach assets to: an
// ordered list of stylesheet/script elements, the stand-in for the head of
// the rendered page. Elements carry data-* attributes for identification
// and idempotence checks, and the document can be pre-seeded with elements
// the loading subsystem did not create itself (static markup).
package document

import "sync"

// Well-known attribute keys written by the loaders and read back by the
// CDN mapper and the fallback procedure.
const (
	AttrResourceType   = "data-resource-type"
	AttrResourceID     = "data-resource-id"
	AttrLocalFallback  = "data-local-fallback"
	AttrPriority       = "data-priority"
	AttrTimeoutAborted = "data-timeout-aborted"
	AttrMarker         = "data-marker"
)

// Element is one attached asset. Inline is non-empty only for degraded
// substitute styles, which have no URL.
type Element struct {
	URL      string
	Attrs    map[string]string
	Inline   string
	Disabled bool
}

// Attr returns one attribute value, or "" when absent.
func (e *Element) Attr(key string) string {
	if e.Attrs == nil {
		return ""
	}
	return e.Attrs[key]
}

// ErrorHook observes failures of elements the subsystem did not insert
// itself, the analogue of a capturing-phase error listener on the window.
type ErrorHook func(el *Element)

// Document is an ordered, concurrency-safe element container.
type Document struct {
	mu    sync.Mutex
	elems []*Element
	hook  ErrorHook
}

// New returns an empty document.
func New() *Document {
	return &Document{}
}

// Append inserts an element at the end of the document.
func (d *Document) Append(el *Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elems = append(d.elems, el)
}

// ByURL returns the first element with the given URL, or nil.
func (d *Document) ByURL(url string) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, el := range d.elems {
		if el.URL == url {
			return el
		}
	}
	return nil
}

// ByAttr returns all elements whose attribute key equals value, in document
// order.
func (d *Document) ByAttr(key, value string) []*Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*Element
	for _, el := range d.elems {
		if el.Attr(key) == value {
			out = append(out, el)
		}
	}
	return out
}

// Remove deletes the first element with the given URL. It reports whether
// an element was removed.
func (d *Document) Remove(url string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, el := range d.elems {
		if el.URL == url {
			d.elems = append(d.elems[:i], d.elems[i+1:]...)
			return true
		}
	}
	return false
}

// SetAttr writes one attribute on the first element with the given URL.
func (d *Document) SetAttr(url, key, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, el := range d.elems {
		if el.URL == url {
			if el.Attrs == nil {
				el.Attrs = make(map[string]string)
			}
			el.Attrs[key] = value
			return
		}
	}
}

// Enable clears the disabled flag on a stylesheet inserted in non-blocking
// mode, switching it to the applying state after its fetch completed.
func (d *Document) Enable(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, el := range d.elems {
		if el.URL == url {
			el.Disabled = false
			return
		}
	}
}

// HasMarker reports whether a marker element with the given name exists.
// Degraded handlers use markers to stay idempotent across repeated
// exhaustion of the same resource.
func (d *Document) HasMarker(name string) bool {
	return len(d.ByAttr(AttrMarker, name)) > 0
}

// Len returns the number of attached elements.
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.elems)
}

// Elements returns a snapshot of the attached elements in document order.
func (d *Document) Elements() []*Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Element, len(d.elems))
	copy(out, d.elems)
	return out
}

// OnElementError registers the hook invoked by FailElement. Only one hook
// is supported; the orchestrator owns it.
func (d *Document) OnElementError(h ErrorHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hook = h
}

// FailElement reports a native-style failure for the element with the given
// URL, typically one seeded from static markup rather than inserted by a
// loader. The registered hook runs inline.
func (d *Document) FailElement(url string) {
	d.mu.Lock()
	hook := d.hook
	var target *Element
	for _, el := range d.elems {
		if el.URL == url {
			target = el
			break
		}
	}
	d.mu.Unlock()

	if hook != nil && target != nil {
		hook(target)
	}
}
