package dashboard

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	simulations *prometheus.CounterVec
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	m := &metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "abeval",
			Subsystem: "dashboard",
			Name:      "requests_total",
			Help:      "HTTP requests served by route and status code.",
		}, []string{"route", "code"}),
		simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "abeval",
			Subsystem: "dashboard",
			Name:      "simulations_total",
			Help:      "Simulator runs by outcome (ship, hold, invalid, throttled).",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.requests, m.simulations, collectors.NewGoCollector())
	return m
}

func (m *metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, statusLabel(c.Writer.Status())).Inc()
	}
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
