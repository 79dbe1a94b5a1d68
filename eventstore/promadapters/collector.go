// Package promadapters implements eventstore.MetricsCollector directly on prometheus/client_golang.
//
// It is the lightweight alternative to oteladapters for deployments that scrape a /metrics endpoint
// and do not run an OpenTelemetry pipeline. Vectors are created and registered on first use; the label
// names of that first observation fix the vector's schema. Later observations with different label names
// are dropped and counted in DroppedSamples.
package promadapters

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AntonStoeckl/circulation-engine-go/eventstore"
)

// DurationBuckets cover sub-millisecond in-memory appends up to slow multi-second database calls.
var DurationBuckets = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// MetricsCollector implements eventstore.MetricsCollector with CounterVec, HistogramVec and GaugeVec.
type MetricsCollector struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	histograms map[string]*prometheus.HistogramVec
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec

	dropped atomic.Uint64
}

// NewMetricsCollector creates a collector registering its vectors on registerer.
func NewMetricsCollector(registerer prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		registerer: registerer,
		histograms: make(map[string]*prometheus.HistogramVec),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}
}

func (m *MetricsCollector) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	histogram := m.histogramVec(metric, labels)
	if histogram == nil {
		return
	}

	observer, err := histogram.GetMetricWith(labels)
	if err != nil {
		m.dropped.Add(1)
		return
	}

	observer.Observe(duration.Seconds())
}

func (m *MetricsCollector) IncrementCounter(metric string, labels map[string]string) {
	counter := m.counterVec(metric, labels)
	if counter == nil {
		return
	}

	c, err := counter.GetMetricWith(labels)
	if err != nil {
		m.dropped.Add(1)
		return
	}

	c.Inc()
}

func (m *MetricsCollector) RecordValue(metric string, value float64, labels map[string]string) {
	gauge := m.gaugeVec(metric, labels)
	if gauge == nil {
		return
	}

	g, err := gauge.GetMetricWith(labels)
	if err != nil {
		m.dropped.Add(1)
		return
	}

	g.Set(value)
}

// DroppedSamples returns how many observations could not be recorded.
func (m *MetricsCollector) DroppedSamples() uint64 {
	return m.dropped.Load()
}

func (m *MetricsCollector) histogramVec(name string, labels map[string]string) *prometheus.HistogramVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vec, ok := m.histograms[name]; ok {
		return vec
	}

	vec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: name, Help: describe(name), Buckets: DurationBuckets},
		labelNamesOf(labels),
	)

	if !m.register(vec) {
		return nil
	}

	m.histograms[name] = vec

	return vec
}

func (m *MetricsCollector) counterVec(name string, labels map[string]string) *prometheus.CounterVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vec, ok := m.counters[name]; ok {
		return vec
	}

	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: describe(name)}, labelNamesOf(labels))

	if !m.register(vec) {
		return nil
	}

	m.counters[name] = vec

	return vec
}

func (m *MetricsCollector) gaugeVec(name string, labels map[string]string) *prometheus.GaugeVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vec, ok := m.gauges[name]; ok {
		return vec
	}

	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: describe(name)}, labelNamesOf(labels))

	if !m.register(vec) {
		return nil
	}

	m.gauges[name] = vec

	return vec
}

// register must be called with mu held.
func (m *MetricsCollector) register(c prometheus.Collector) bool {
	if err := m.registerer.Register(c); err != nil {
		m.dropped.Add(1)
		return false
	}

	return true
}

func labelNamesOf(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for key := range labels {
		names = append(names, key)
	}
	slices.Sort(names)

	return names
}

func describe(name string) string {
	name = strings.TrimSuffix(strings.TrimSuffix(name, "_total"), "_seconds")

	return strings.ReplaceAll(name, "_", " ")
}

var _ eventstore.MetricsCollector = (*MetricsCollector)(nil)
