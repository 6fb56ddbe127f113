package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics глобальный контейнер метрик
type Metrics struct {
	// HTTP метрики
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Бизнес-метрики
	SessionsActive        prometheus.Gauge
	SessionsCreatedTotal  prometheus.Counter
	GenerationsTotal      *prometheus.CounterVec
	GenerationDuration    *prometheus.HistogramVec
	SolveRequestsTotal    *prometheus.CounterVec
	SolveDuration         *prometheus.HistogramVec
	FallbacksTotal        *prometheus.CounterVec
	SolveCacheTotal       *prometheus.CounterVec
	HeuristicTourLength   *prometheus.GaugeVec
	InstanceSizeTotal     *prometheus.HistogramVec
	ExportsTotal          *prometheus.CounterVec

	// Системные метрики
	MemoryUsage *prometheus.GaugeVec
	Goroutines  prometheus.Gauge

	// Информация о сервисе
	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics инициализирует метрики
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		// HTTP метрики
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		// Бизнес-метрики
		SessionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sessions_active",
				Help:      "Current number of active showcase sessions",
			},
		),

		SessionsCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sessions_created_total",
				Help:      "Total number of sessions created",
			},
		),

		GenerationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "generations_total",
				Help:      "Total number of generated problem instances",
			},
			[]string{"problem_type", "difficulty", "status"},
		),

		GenerationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "generation_duration_seconds",
				Help:      "Duration of instance generation",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"problem_type"},
		),

		SolveRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_requests_total",
				Help:      "Total number of solve attempts",
			},
			[]string{"route", "status"},
		),

		SolveDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_duration_seconds",
				Help:      "Duration of solve attempts",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"route"},
		),

		FallbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "fallbacks_total",
				Help:      "Total number of fallback solutions produced",
			},
			[]string{"problem_type", "reason"},
		),

		SolveCacheTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_cache_total",
				Help:      "Solve cache lookups by result",
			},
			[]string{"result"},
		),

		HeuristicTourLength: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "heuristic_tour_length",
				Help:      "Last tour length produced by the heuristic",
			},
			[]string{"heuristic"},
		),

		InstanceSizeTotal: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "instance_size_total",
				Help:      "Size of generated instances (cities or weights)",
				Buckets:   []float64{5, 10, 20, 30, 50, 75, 100, 200},
			},
			[]string{"problem_type"},
		),

		ExportsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "exports_total",
				Help:      "Total number of snapshot exports",
			},
			[]string{"format", "status"},
		),

		// Системные метрики
		MemoryUsage: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "memory_usage_bytes",
				Help:      "Current memory usage",
			},
			[]string{"type"},
		),

		Goroutines: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "goroutines",
				Help:      "Current number of goroutines",
			},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}

	// Register игнорирует повторную регистрацию: InitMetrics может
	// вызываться дважды, если Get() сработал до явной инициализации
	_ = prometheus.Register(NewRuntimeCollector(namespace, subsystem)) //nolint:errcheck

	defaultMetrics = m
	return m
}

// Get возвращает глобальные метрики
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("resonance", "")
	}
	return defaultMetrics
}

// RecordHTTPRequest записывает метрики HTTP запроса
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordGeneration записывает метрики генерации экземпляра
func (m *Metrics) RecordGeneration(problemType, difficulty string, success bool, size int, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}

	m.GenerationsTotal.WithLabelValues(problemType, difficulty, status).Inc()
	m.GenerationDuration.WithLabelValues(problemType).Observe(duration.Seconds())
	if success {
		m.InstanceSizeTotal.WithLabelValues(problemType).Observe(float64(size))
	}
}

// RecordSolve записывает метрики попытки решения
func (m *Metrics) RecordSolve(route string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}

	m.SolveRequestsTotal.WithLabelValues(route, status).Inc()
	m.SolveDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordFallback записывает срабатывание резервного решения
func (m *Metrics) RecordFallback(problemType, reason string) {
	m.FallbacksTotal.WithLabelValues(problemType, reason).Inc()
}

// RecordCacheLookup записывает результат обращения к кэшу решений
func (m *Metrics) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.SolveCacheTotal.WithLabelValues(result).Inc()
}

// RecordTourLength записывает длину маршрута эвристики
func (m *Metrics) RecordTourLength(heuristic string, length float64) {
	m.HeuristicTourLength.WithLabelValues(heuristic).Set(length)
}

// RecordExport записывает метрики экспорта снимка
func (m *Metrics) RecordExport(format string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.ExportsTotal.WithLabelValues(format, status).Inc()
}

// SetServiceInfo устанавливает информацию о сервисе
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler возвращает HTTP handler для /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer запускает HTTP сервер для метрик
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		// Игнорируем ошибку записи - response уже отправлен
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint, ошибка записи не критична
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
