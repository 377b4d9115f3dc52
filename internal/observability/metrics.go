package observability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics – liczniki eksportu feedów na własnym rejestrze
type Metrics struct {
	Registry *prometheus.Registry

	exports *prometheus.CounterVec
	items   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feed_exports_total",
				Help: "Liczba eksportów feedów wg formatu i wyniku",
			},
			[]string{"format", "result"},
		),
		items: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feed_items_written_total",
				Help: "Liczba produktów zapisanych do feedów",
			},
			[]string{"format"},
		),
	}
	m.Registry.MustRegister(m.exports, m.items)
	return m
}

// ObserveExport implementuje feed.Recorder
func (m *Metrics) ObserveExport(format string, items int, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.exports.WithLabelValues(format, result).Inc()
	if success {
		m.items.WithLabelValues(format).Add(float64(items))
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Start wystawia /metrics na podanym porcie (w tle). Pusty port = wyłączone.
func Start(log zerolog.Logger, port string, m *Metrics) *http.Server {
	if port == "" {
		return nil
	}
	if _, err := strconv.Atoi(port); err != nil {
		log.Warn().Str("port", port).Msg("metrics: niepoprawny port — pomijam")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("port", port).Msg("metrics server error")
		}
	}()
	log.Info().Str("port", port).Msg("metrics: /metrics wystawione")
	return srv
}
