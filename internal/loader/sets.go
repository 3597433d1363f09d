package loader

import "sync"

// Sets is the shared loaded/failed bookkeeping every loader reads and
// writes. It is owned by the orchestrator and constructor-injected into the
// leaf loaders, so separate orchestrator instances are fully isolated.
//
// Both sets are keyed by URL. A URL in the failed set is a tripped one-shot
// breaker: it is never retried, though a different URL for the same logical
// resource still is.
type Sets struct {
	mu     sync.Mutex
	loaded map[string]bool
	failed map[string]bool
}

// NewSets returns empty bookkeeping.
func NewSets() *Sets {
	return &Sets{
		loaded: make(map[string]bool),
		failed: make(map[string]bool),
	}
}

// IsLoaded reports whether the URL already settled successfully.
func (s *Sets) IsLoaded(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded[url]
}

// IsFailed reports whether the URL's breaker has tripped.
func (s *Sets) IsFailed(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed[url]
}

// MarkLoaded records a successful settle.
func (s *Sets) MarkLoaded(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded[url] = true
}

// MarkFailed trips the breaker for a URL. It reports whether this call was
// the first to do so; a false return means another path (timeout abort
// racing a native error) already handled the failure.
func (s *Sets) MarkFailed(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed[url] {
		return false
	}
	s.failed[url] = true
	return true
}

// Counts returns the set sizes for the status report.
func (s *Sets) Counts() (loaded, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.loaded), len(s.failed)
}
