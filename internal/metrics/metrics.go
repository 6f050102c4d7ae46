package metrics

import (
	"errors"
	"gravatarlib/internal/gravatar"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry      *prometheus.Registry
	urlsBuilt     *prometheus.CounterVec
	invalidConfig *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		urlsBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gravatar_urls_built_total",
			Help: "Avatar URLs built, by transport.",
		}, []string{"transport"}),
		invalidConfig: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gravatar_invalid_configuration_total",
			Help: "Rejected display options, by field.",
		}, []string{"field"}),
	}

	m.registry.MustRegister(
		m.urlsBuilt,
		m.invalidConfig,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) URLBuilt(secure bool) {
	transport := "http"
	if secure {
		transport = "https"
	}
	m.urlsBuilt.WithLabelValues(transport).Inc()
}

// Rejected counts err under its field when it is a gravatar.ConfigError.
func (m *Metrics) Rejected(err error) {
	var cfgErr *gravatar.ConfigError
	if !errors.As(err, &cfgErr) {
		return
	}
	m.invalidConfig.WithLabelValues(cfgErr.Field).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
