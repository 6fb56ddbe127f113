package metrics

import (
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RuntimeCollector отдаёт метрики Go-рантайма: горутины, память, GC.
// Регистрируется вместе с остальными метриками в InitMetrics.
type RuntimeCollector struct {
	goroutines *prometheus.Desc
	memAlloc   *prometheus.Desc
	memTotal   *prometheus.Desc
	memSys     *prometheus.Desc
	gcPause    *prometheus.Desc
	gcRuns     *prometheus.Desc
}

// NewRuntimeCollector создаёт коллектор рантайм-метрик
func NewRuntimeCollector(namespace, subsystem string) *RuntimeCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, name),
			help, nil, nil,
		)
	}

	return &RuntimeCollector{
		goroutines: desc("runtime_goroutines", "Number of goroutines"),
		memAlloc:   desc("runtime_memory_alloc_bytes", "Bytes allocated and still in use"),
		memTotal:   desc("runtime_memory_total_alloc_bytes", "Total bytes allocated (even if freed)"),
		memSys:     desc("runtime_memory_sys_bytes", "Bytes obtained from system"),
		gcPause:    desc("runtime_gc_pause_seconds", "GC pause duration"),
		gcRuns:     desc("runtime_gc_runs_total", "Total number of completed GC cycles"),
	}
}

// Describe implements prometheus.Collector
func (c *RuntimeCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.goroutines, c.memAlloc, c.memTotal, c.memSys, c.gcPause, c.gcRuns,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector
func (c *RuntimeCollector) Collect(ch chan<- prometheus.Metric) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	ch <- prometheus.MustNewConstMetric(c.goroutines, prometheus.GaugeValue, float64(runtime.NumGoroutine()))
	ch <- prometheus.MustNewConstMetric(c.memAlloc, prometheus.GaugeValue, float64(ms.Alloc))
	ch <- prometheus.MustNewConstMetric(c.memTotal, prometheus.CounterValue, float64(ms.TotalAlloc))
	ch <- prometheus.MustNewConstMetric(c.memSys, prometheus.GaugeValue, float64(ms.Sys))
	ch <- prometheus.MustNewConstMetric(c.gcRuns, prometheus.CounterValue, float64(ms.NumGC))

	// PauseNs кольцевой буфер на 256 записей, берём последнюю
	if ms.NumGC > 0 {
		last := ms.PauseNs[(ms.NumGC-1)%uint32(len(ms.PauseNs))]
		ch <- prometheus.MustNewConstMetric(c.gcPause, prometheus.GaugeValue, float64(last)/1e9)
	}
}

// RequestTracker считает запросы в обработке с разбивкой по пути
type RequestTracker struct {
	mu       sync.Mutex
	active   map[string]int
	inFlight prometheus.Gauge
}

// NewRequestTracker создаёт трекер; gauge обычно HTTPRequestsInFlight
func NewRequestTracker(inFlight prometheus.Gauge) *RequestTracker {
	return &RequestTracker{
		active:   make(map[string]int),
		inFlight: inFlight,
	}
}

// Start отмечает вход запроса в обработку
func (t *RequestTracker) Start(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active[path]++
	t.inFlight.Inc()
}

// End отмечает завершение; лишние вызовы не уводят счётчик в минус
func (t *RequestTracker) End(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active[path] > 0 {
		t.active[path]--
		t.inFlight.Dec()
	}
}

// Timer измеряет длительность операции для гистограммы
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer запускает отсчёт для указанных label-значений
func NewTimer(histogram *prometheus.HistogramVec, labels ...string) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: histogram.WithLabelValues(labels...),
	}
}

// ObserveDuration записывает прошедшее время и возвращает его
func (t *Timer) ObserveDuration() time.Duration {
	d := time.Since(t.start)
	t.observer.Observe(d.Seconds())
	return d
}
