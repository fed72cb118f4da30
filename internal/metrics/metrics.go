// Package metrics defines the Prometheus instruments for the bridge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Heartbeats counts successful session heartbeats (login pings included).
	Heartbeats = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chartsbridge_heartbeats_total",
		Help: "Number of successful session heartbeats against the ClassCharts backend.",
	})

	// SessionRetries counts resource calls that hit an expired session and
	// were retried after a forced refresh.
	SessionRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chartsbridge_session_retries_total",
		Help: "Number of resource calls retried after the backend reported session expiry.",
	})

	// DroppedItems counts malformed list items silently skipped while parsing
	// a resource response. A non-zero rate means the backend changed shape.
	DroppedItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chartsbridge_dropped_items_total",
		Help: "Number of malformed items dropped from list responses.",
	}, []string{"endpoint"})

	// LoginFailures counts failed login attempts by reason.
	LoginFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chartsbridge_login_failures_total",
		Help: "Number of failed login attempts.",
	}, []string{"reason"})
)
