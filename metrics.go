package bpx

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks validation counters using lock-free atomic operations.
// All methods are safe for concurrent use.
type Metrics struct {
	documentsTotal atomic.Uint64
	documentsValid atomic.Uint64

	// nanoseconds
	durationTotal atomic.Uint64
	durationMin   atomic.Uint64
	durationMax   atomic.Uint64

	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64

	errorsByKind   sync.Map // map[string]*atomic.Uint64
	warningsByCode sync.Map // map[string]*atomic.Uint64

	phases sync.Map // map[string]*phaseMetrics
}

type phaseMetrics struct {
	invocations atomic.Uint64
	totalTime   atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.durationMin.Store(^uint64(0))
	return m
}

// RecordDocument records one finished validation.
func (m *Metrics) RecordDocument(duration time.Duration, valid bool) {
	m.documentsTotal.Add(1)
	if valid {
		m.documentsValid.Add(1)
	}

	ns := uint64(duration.Nanoseconds()) //nolint:gosec // durations are non-negative
	m.durationTotal.Add(ns)

	for {
		old := m.durationMin.Load()
		if ns >= old || m.durationMin.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.durationMax.Load()
		if ns <= old || m.durationMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordError counts a fatal error of the given kind.
func (m *Metrics) RecordError(kind string) {
	counter(&m.errorsByKind, kind).Add(1)
}

// RecordWarning counts a warning with the given code.
func (m *Metrics) RecordWarning(code string) {
	counter(&m.warningsByCode, code).Add(1)
}

// RecordCache adds compiled-expression cache lookups.
func (m *Metrics) RecordCache(hits, misses uint64) {
	m.cacheHits.Add(hits)
	m.cacheMisses.Add(misses)
}

// RecordPhase records the time spent in one validation phase.
func (m *Metrics) RecordPhase(name string, duration time.Duration) {
	v, ok := m.phases.Load(name)
	if !ok {
		v, _ = m.phases.LoadOrStore(name, &phaseMetrics{})
	}
	pm := v.(*phaseMetrics)
	pm.invocations.Add(1)
	pm.totalTime.Add(uint64(duration.Nanoseconds())) //nolint:gosec // durations are non-negative
}

func counter(m *sync.Map, key string) *atomic.Uint64 {
	if v, ok := m.Load(key); ok {
		return v.(*atomic.Uint64)
	}
	v, _ := m.LoadOrStore(key, new(atomic.Uint64))
	return v.(*atomic.Uint64)
}

func counts(m *sync.Map) map[string]uint64 {
	out := make(map[string]uint64)
	m.Range(func(k, v any) bool {
		out[k.(string)] = v.(*atomic.Uint64).Load()
		return true
	})
	return out
}

// DocumentsTotal returns the number of documents validated.
func (m *Metrics) DocumentsTotal() uint64 { return m.documentsTotal.Load() }

// DocumentsValid returns the number of documents that passed.
func (m *Metrics) DocumentsValid() uint64 { return m.documentsValid.Load() }

// ValidRate returns the fraction of documents that passed (0.0 to 1.0).
func (m *Metrics) ValidRate() float64 {
	total := m.documentsTotal.Load()
	if total == 0 {
		return 0
	}
	return float64(m.documentsValid.Load()) / float64(total)
}

// AverageDuration returns the mean validation time.
func (m *Metrics) AverageDuration() time.Duration {
	total := m.documentsTotal.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.durationTotal.Load() / total) //nolint:gosec // nanoseconds within int64 range
}

// MinDuration returns the fastest validation time.
func (m *Metrics) MinDuration() time.Duration {
	v := m.durationMin.Load()
	if v == ^uint64(0) {
		return 0
	}
	return time.Duration(v) //nolint:gosec // nanoseconds within int64 range
}

// MaxDuration returns the slowest validation time.
func (m *Metrics) MaxDuration() time.Duration {
	return time.Duration(m.durationMax.Load()) //nolint:gosec // nanoseconds within int64 range
}

// CacheHitRate returns the compiled-expression cache hit rate.
func (m *Metrics) CacheHitRate() float64 {
	hits, misses := m.cacheHits.Load(), m.cacheMisses.Load()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

// ErrorsByKind returns fatal error counts keyed by error kind.
func (m *Metrics) ErrorsByKind() map[string]uint64 { return counts(&m.errorsByKind) }

// WarningsByCode returns warning counts keyed by issue code.
func (m *Metrics) WarningsByCode() map[string]uint64 { return counts(&m.warningsByCode) }

// PhaseStats summarises one validation phase.
type PhaseStats struct {
	Name        string        `json:"name"`
	Invocations uint64        `json:"invocations"`
	TotalTime   time.Duration `json:"total_time_ns"`
	AvgTime     time.Duration `json:"avg_time_ns"`
}

// AllPhaseStats returns statistics for every phase, sorted by name.
func (m *Metrics) AllPhaseStats() []PhaseStats {
	var stats []PhaseStats
	m.phases.Range(func(k, v any) bool {
		pm := v.(*phaseMetrics)
		n := pm.invocations.Load()
		total := pm.totalTime.Load()
		var avg time.Duration
		if n > 0 {
			avg = time.Duration(total / n) //nolint:gosec // nanoseconds within int64 range
		}
		stats = append(stats, PhaseStats{
			Name:        k.(string),
			Invocations: n,
			TotalTime:   time.Duration(total), //nolint:gosec // nanoseconds within int64 range
			AvgTime:     avg,
		})
		return true
	})
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`

	DocumentsTotal uint64  `json:"documents_total"`
	DocumentsValid uint64  `json:"documents_valid"`
	ValidRate      float64 `json:"valid_rate"`

	AvgDurationNs uint64 `json:"avg_duration_ns"`
	MinDurationNs uint64 `json:"min_duration_ns"`
	MaxDurationNs uint64 `json:"max_duration_ns"`

	CacheHits    uint64  `json:"cache_hits"`
	CacheMisses  uint64  `json:"cache_misses"`
	CacheHitRate float64 `json:"cache_hit_rate"`

	ErrorsByKind   map[string]uint64 `json:"errors_by_kind"`
	WarningsByCode map[string]uint64 `json:"warnings_by_code"`

	Phases []PhaseStats `json:"phases,omitempty"`
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:      time.Now(),
		DocumentsTotal: m.DocumentsTotal(),
		DocumentsValid: m.DocumentsValid(),
		ValidRate:      m.ValidRate(),
		AvgDurationNs:  uint64(m.AverageDuration()), //nolint:gosec // non-negative
		MinDurationNs:  uint64(m.MinDuration()),     //nolint:gosec // non-negative
		MaxDurationNs:  m.durationMax.Load(),
		CacheHits:      m.cacheHits.Load(),
		CacheMisses:    m.cacheMisses.Load(),
		CacheHitRate:   m.CacheHitRate(),
		ErrorsByKind:   m.ErrorsByKind(),
		WarningsByCode: m.WarningsByCode(),
		Phases:         m.AllPhaseStats(),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.documentsTotal.Store(0)
	m.documentsValid.Store(0)
	m.durationTotal.Store(0)
	m.durationMin.Store(^uint64(0))
	m.durationMax.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	for _, sm := range []*sync.Map{&m.errorsByKind, &m.warningsByCode, &m.phases} {
		sm.Range(func(k, _ any) bool {
			sm.Delete(k)
			return true
		})
	}
}
