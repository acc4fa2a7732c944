package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SearchMetrics records cache behavior for external product searches.
type SearchMetrics struct {
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	staleServed   prometheus.Counter
	externalCalls *prometheus.CounterVec
}

// NewSearchMetrics registers the search metrics on the provided registerer.
func NewSearchMetrics(reg prometheus.Registerer) *SearchMetrics {
	if reg == nil {
		return &SearchMetrics{}
	}
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "search_cache_hits_total",
		Help: "External searches answered by a fresh cache entry.",
	})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "search_cache_misses_total",
		Help: "External searches with no fresh cache entry.",
	})
	staleServed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "search_stale_fallbacks_total",
		Help: "Searches served from a stale cache entry after a fetch failure.",
	})
	externalCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "search_external_calls_total",
		Help: "Outbound product search requests by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(cacheHits, cacheMisses, staleServed, externalCalls)
	return &SearchMetrics{
		cacheHits:     cacheHits,
		cacheMisses:   cacheMisses,
		staleServed:   staleServed,
		externalCalls: externalCalls,
	}
}

// IncCacheHit counts a search answered from fresh cache.
func (m *SearchMetrics) IncCacheHit() {
	if m == nil || m.cacheHits == nil {
		return
	}
	m.cacheHits.Inc()
}

// IncCacheMiss counts a search that had to go upstream.
func (m *SearchMetrics) IncCacheMiss() {
	if m == nil || m.cacheMisses == nil {
		return
	}
	m.cacheMisses.Inc()
}

// IncStaleFallback counts a stale entry served after a fetch failure.
func (m *SearchMetrics) IncStaleFallback() {
	if m == nil || m.staleServed == nil {
		return
	}
	m.staleServed.Inc()
}

// IncExternalCall counts an outbound request with the given outcome.
func (m *SearchMetrics) IncExternalCall(outcome string) {
	if m == nil || m.externalCalls == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.externalCalls.WithLabelValues(outcome).Inc()
}
