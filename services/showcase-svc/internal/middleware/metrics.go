package middleware

import (
	"net/http"
	"strconv"

	"resonance/pkg/metrics"
)

// Metrics записывает HTTP-метрики: счётчик по методу/пути/статусу,
// гистограмму длительности и gauge запросов в полёте
func Metrics(next http.Handler) http.Handler {
	m := metrics.Get()
	tracker := metrics.NewRequestTracker(m.HTTPRequestsInFlight)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		tracker.Start(key)
		defer tracker.End(key)

		// Таймер сам наблюдает гистограмму, счётчик инкрементируем
		// отдельно, когда известен статус
		timer := metrics.NewTimer(m.HTTPRequestDuration, r.Method, r.URL.Path)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		timer.ObserveDuration()
		m.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(sw.status)).Inc()
	})
}
