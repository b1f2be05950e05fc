// Package metrics exports cache accounting as Prometheus metrics.
//
// A [Collector] is a [cache.Observer]: pass it to [cache.WithObserver] and
// register it with a Prometheus registry.
//
//	col := metrics.NewCollector("")
//	l1, _ := cache.NewL1(10_000, cache.WithObserver(col))
//	col.Watch(l1)
//	reg := prometheus.NewRegistry()
//	reg.MustRegister(col)
//	http.Handle("/metrics", metrics.Handler(reg))
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Keksclan/gencache/cache"
)

// DefaultNamespace prefixes every metric name when NewCollector is given an
// empty namespace.
const DefaultNamespace = "gencache"

// Sizer reports the number of entries held by a cache.
type Sizer interface {
	Len() int
}

// Collector counts cache events and reports the size of a watched cache.
type Collector struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
	loads     *prometheus.CounterVec
	entries   *prometheus.Desc

	mu    sync.Mutex
	sizer Sizer
}

var _ cache.Observer = (*Collector)(nil)
var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a Collector whose metrics live under namespace.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Collector{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hits_total",
			Help:      "Number of lookups that found a live entry.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "misses_total",
			Help:      "Number of lookups that found nothing.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Number of entries discarded by the cache itself.",
		}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Number of loader invocations by result.",
		}, []string{"result"}),
		entries: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "entries"),
			"Number of entries currently held by the watched cache.",
			nil, nil,
		),
	}
}

// Watch makes the entries gauge report s.Len() on every scrape. Without a
// watched cache the gauge is not exported.
func (c *Collector) Watch(s Sizer) {
	c.mu.Lock()
	c.sizer = s
	c.mu.Unlock()
}

// Hit implements cache.Observer.
func (c *Collector) Hit() { c.hits.Inc() }

// Miss implements cache.Observer.
func (c *Collector) Miss() { c.misses.Inc() }

// Evicted implements cache.Observer.
func (c *Collector) Evicted() { c.evictions.Inc() }

// Loaded implements cache.Observer. Loads are labelled result="ok" or
// result="error".
func (c *Collector) Loaded(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.loads.WithLabelValues(result).Inc()
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.hits.Describe(ch)
	c.misses.Describe(ch)
	c.evictions.Describe(ch)
	c.loads.Describe(ch)
	ch <- c.entries
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.hits.Collect(ch)
	c.misses.Collect(ch)
	c.evictions.Collect(ch)
	c.loads.Collect(ch)

	c.mu.Lock()
	s := c.sizer
	c.mu.Unlock()
	if s != nil {
		ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(s.Len()))
	}
}

// Handler returns an http.Handler that serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
