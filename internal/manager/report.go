package manager

import (
	"sort"
	"time"

	"github.com/vk/assetgridgo/internal/loader"
)

// Report is the per-resource summary surfaced by the CLI and the status
// endpoint.
type Report struct {
	LogicalName string        `json:"resource"`
	Outcome     string        `json:"outcome"`
	FinalURL    string        `json:"final_url,omitempty"`
	Attempts    int           `json:"attempts"`
	Duration    time.Duration `json:"duration"`
	Degraded    bool          `json:"degraded"`
}

func (m *Manager) record(logicalName string, outcome loader.Outcome, finalURL string, attempts int, duration time.Duration, degraded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[logicalName] = &Report{
		LogicalName: logicalName,
		Outcome:     outcome.String(),
		FinalURL:    finalURL,
		Attempts:    attempts,
		Duration:    duration,
		Degraded:    degraded,
	}
}

// Reports returns the per-resource summaries sorted by logical name.
func (m *Manager) Reports() []Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Report, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LogicalName < out[j].LogicalName })
	return out
}

// Stats is the live snapshot served by the status endpoint.
type Stats struct {
	LoadedURLs    int `json:"loaded_urls"`
	FailedURLs    int `json:"failed_urls"`
	Settled       int `json:"settled_resources"`
	PendingTimers int `json:"pending_timers"`
}

// Stats returns current counters.
func (m *Manager) Stats() Stats {
	loaded, failed := m.sets.Counts()
	m.mu.Lock()
	settled := len(m.results)
	m.mu.Unlock()
	return Stats{
		LoadedURLs:    loaded,
		FailedURLs:    failed,
		Settled:       settled,
		PendingTimers: m.timeouts.Pending(),
	}
}
