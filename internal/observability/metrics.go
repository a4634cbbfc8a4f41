package observability

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects per-route turn counters.
type Metrics struct {
	mu sync.Mutex

	turnTotal      atomic.Int64
	turnFailed     atomic.Int64
	memoryFailures atomic.Int64

	routes map[string]*RouteMetrics
	tools  map[string]*ToolMetrics
}

// RouteMetrics represents metrics for one route.
type RouteMetrics struct {
	count         atomic.Int64
	totalDuration atomic.Int64 // milliseconds
	errorCount    atomic.Int64
}

// ToolMetrics represents metrics for one tool.
type ToolMetrics struct {
	calls         atomic.Int64
	failures      atomic.Int64
	totalDuration atomic.Int64 // milliseconds
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		routes: make(map[string]*RouteMetrics),
		tools:  make(map[string]*ToolMetrics),
	}
}

// RecordToolCall records one tool execution including its retries.
func (m *Metrics) RecordToolCall(_ context.Context, toolName string, duration time.Duration, success bool) {
	m.mu.Lock()
	tm, ok := m.tools[toolName]
	if !ok {
		tm = &ToolMetrics{}
		m.tools[toolName] = tm
	}
	m.mu.Unlock()

	tm.calls.Add(1)
	tm.totalDuration.Add(duration.Milliseconds())
	if !success {
		tm.failures.Add(1)
	}
}

// RecordTurn records a completed turn on a route.
func (m *Metrics) RecordTurn(route string, duration time.Duration) {
	m.turnTotal.Add(1)
	rm := m.route(route)
	rm.count.Add(1)
	rm.totalDuration.Add(duration.Milliseconds())
}

// RecordFailure records a turn whose handler failed.
func (m *Metrics) RecordFailure(route string) {
	m.turnFailed.Add(1)
	m.route(route).errorCount.Add(1)
}

// RecordMemoryFailure records an absorbed memory load or update failure.
func (m *Metrics) RecordMemoryFailure() {
	m.memoryFailures.Add(1)
}

func (m *Metrics) route(name string) *RouteMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	rm, ok := m.routes[name]
	if !ok {
		rm = &RouteMetrics{}
		m.routes[name] = rm
	}
	return rm
}

// Reset resets all metrics.
func (m *Metrics) Reset() {
	m.turnTotal.Store(0)
	m.turnFailed.Store(0)
	m.memoryFailures.Store(0)

	m.mu.Lock()
	m.routes = make(map[string]*RouteMetrics)
	m.tools = make(map[string]*ToolMetrics)
	m.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	routes := make([]RouteSnapshot, 0, len(m.routes))
	for name, rm := range m.routes {
		count := rm.count.Load()
		var avg int64
		if count > 0 {
			avg = rm.totalDuration.Load() / count
		}
		routes = append(routes, RouteSnapshot{
			Route:             name,
			Count:             count,
			ErrorCount:        rm.errorCount.Load(),
			AverageDurationMs: avg,
		})
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].Route < routes[j].Route })

	tools := make([]ToolSnapshot, 0, len(m.tools))
	for name, tm := range m.tools {
		tools = append(tools, ToolSnapshot{
			Tool:            name,
			Calls:           tm.calls.Load(),
			Failures:        tm.failures.Load(),
			TotalDurationMs: tm.totalDuration.Load(),
		})
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Tool < tools[j].Tool })

	return &MetricsSnapshot{
		TurnTotal:      m.turnTotal.Load(),
		TurnFailed:     m.turnFailed.Load(),
		MemoryFailures: m.memoryFailures.Load(),
		Routes:         routes,
		Tools:          tools,
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	TurnTotal      int64           `json:"turn_total"`
	TurnFailed     int64           `json:"turn_failed"`
	MemoryFailures int64           `json:"memory_failures"`
	Routes         []RouteSnapshot `json:"routes"`
	Tools          []ToolSnapshot  `json:"tools"`
}

// RouteSnapshot represents metrics for one route.
type RouteSnapshot struct {
	Route             string `json:"route"`
	Count             int64  `json:"count"`
	ErrorCount        int64  `json:"error_count"`
	AverageDurationMs int64  `json:"average_duration_ms"`
}

// ToolSnapshot represents metrics for one tool.
type ToolSnapshot struct {
	Tool            string `json:"tool"`
	Calls           int64  `json:"calls"`
	Failures        int64  `json:"failures"`
	TotalDurationMs int64  `json:"total_duration_ms"`
}

// SuccessRate returns the success rate as a percentage (0-100).
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.TurnTotal == 0 {
		return 100.0
	}
	return float64(s.TurnTotal-s.TurnFailed) / float64(s.TurnTotal) * 100.0
}
