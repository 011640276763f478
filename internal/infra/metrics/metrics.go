// Package metrics счётчики журнала и HTTP в собственном реестре Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "site_materials"

type Metrics struct {
	reg *prometheus.Registry

	PurchasesAdded   prometheus.Counter
	PurchasesDeleted prometheus.Counter
	UsageAdded       prometheus.Counter
	UsageDeleted     prometheus.Counter
	UsageRejected    *prometheus.CounterVec
	ReadFallbacks    *prometheus.CounterVec
	StorageErrors    *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New регистрирует все метрики. withRuntime добавляет go_* и process_* коллекторы.
func New(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		PurchasesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "purchases_added_total",
			Help: "Purchases appended to the log.",
		}),
		PurchasesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "purchases_deleted_total",
			Help: "Purchases deleted from the log.",
		}),
		UsageAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "usage_added_total",
			Help: "Usage records appended to the log.",
		}),
		UsageDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "usage_deleted_total",
			Help: "Usage records deleted from the log.",
		}),
		UsageRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "usage_rejected_total",
			Help: "Usage records rejected on append.",
		}, []string{"reason"}),
		ReadFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "storage_read_fallbacks_total",
			Help: "Unreadable logs treated as empty under the lenient policy.",
		}, []string{"log"}),
		StorageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "storage_errors_total",
			Help: "Storage failures surfaced to callers.",
		}, []string{"op"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		m.PurchasesAdded, m.PurchasesDeleted,
		m.UsageAdded, m.UsageDeleted, m.UsageRejected,
		m.ReadFallbacks, m.StorageErrors,
		m.HTTPRequests, m.HTTPDuration,
	)
	if withRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler отдаёт /metrics для этого реестра.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
