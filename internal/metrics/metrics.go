package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	SourcesProcessed   int64
	SourcesFailed      int64
	EntriesSeen        int64
	ArticlesStored     int64
	ExtractionFailures int64
	DigestsGenerated   int64
	DigestsFailed      int64
	BriefingsDelivered int64

	// Timings
	LastRunDuration  time.Duration
	TotalRunDuration time.Duration
	RunCount         int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) IncrementSourcesProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourcesProcessed++
}

func (m *Metrics) IncrementSourcesFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourcesFailed++
}

func (m *Metrics) AddEntriesSeen(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EntriesSeen += n
}

func (m *Metrics) IncrementArticlesStored() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesStored++
}

func (m *Metrics) IncrementExtractionFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExtractionFailures++
}

func (m *Metrics) IncrementDigestsGenerated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DigestsGenerated++
}

func (m *Metrics) IncrementDigestsFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DigestsFailed++
}

func (m *Metrics) IncrementBriefingsDelivered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BriefingsDelivered++
}

func (m *Metrics) RecordRunDuration(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastRunDuration = duration
	m.TotalRunDuration += duration
	m.RunCount++
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"sources_processed":     m.SourcesProcessed,
		"sources_failed":        m.SourcesFailed,
		"entries_seen":          m.EntriesSeen,
		"articles_stored":       m.ArticlesStored,
		"extraction_failures":   m.ExtractionFailures,
		"digests_generated":     m.DigestsGenerated,
		"digests_failed":        m.DigestsFailed,
		"briefings_delivered":   m.BriefingsDelivered,
		"last_run_duration_ms":  m.LastRunDuration.Milliseconds(),
		"total_run_duration_ms": m.TotalRunDuration.Milliseconds(),
		"run_count":             m.RunCount,
		"last_run_time":         m.LastRunTime.Format(time.RFC3339),
		"last_error_time":       m.LastErrorTime.Format(time.RFC3339),
		"last_error":            m.LastError,
		"is_healthy":            m.IsHealthy,
	}
}
