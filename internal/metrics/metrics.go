// Package metrics owns the Prometheus collectors exported on /metrics.
//
// All recording methods are safe to call on a nil *Metrics, which records
// nothing. Tests and tools that do not care about metrics pass nil.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fundledger"

const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultConflict = "conflict"
	ResultError    = "error"
)

type Metrics struct {
	ledgerOps         *prometheus.CounterVec
	ledgerConflicts   *prometheus.CounterVec
	fundraisersClosed prometheus.Counter
	eventsDispatched  *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers every collector with reg. Passing a fresh
// prometheus.NewRegistry keeps tests isolated from the global registry.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		ledgerOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_operations_total",
			Help:      "Ledger mutations by operation and outcome.",
		}, []string{"op", "result"}),
		ledgerConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_conflicts_total",
			Help:      "Optimistic version conflicts that triggered a retry.",
		}, []string{"op"}),
		fundraisersClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fundraisers_closed_total",
			Help:      "Fundraisers that reached their goal.",
		}),
		eventsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dispatched_total",
			Help:      "Ledger outbox events handed to the broker, by outcome.",
		}, []string{"result"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.ledgerOps,
		m.ledgerConflicts,
		m.fundraisersClosed,
		m.eventsDispatched,
		m.httpDuration,
	)
	return m
}

func (m *Metrics) LedgerOperation(op, result string) {
	if m == nil {
		return
	}
	m.ledgerOps.WithLabelValues(op, result).Inc()
}

func (m *Metrics) LedgerConflict(op string) {
	if m == nil {
		return
	}
	m.ledgerConflicts.WithLabelValues(op).Inc()
}

func (m *Metrics) FundraiserClosed() {
	if m == nil {
		return
	}
	m.fundraisersClosed.Inc()
}

func (m *Metrics) EventDispatched(result string) {
	if m == nil {
		return
	}
	m.eventsDispatched.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler serves the registry this Metrics was built with.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
