package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bladeshare/bladeshare/pkg/errors"
)

// Collector tracks share lifecycle operations and array capacity on a
// private Prometheus registry. A nil *Collector is valid and records
// nothing, so the driver can run with metrics disabled.
type Collector struct {
	registry *prometheus.Registry

	operationCounter  *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	errorCounter      *prometheus.CounterVec

	capacityTotal       prometheus.Gauge
	capacityFree        prometheus.Gauge
	capacityProvisioned prometheus.Gauge
	dataReduction       prometheus.Gauge
}

// NewCollector creates a collector with all metrics registered under the
// given namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		operationCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total share lifecycle operations by operation and result",
		}, []string{"operation", "result"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Share lifecycle operation latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		errorCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Operation errors by driver error code",
		}, []string{"operation", "code"}),
		capacityTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "array_capacity_bytes",
			Help:      "Total array capacity",
		}),
		capacityFree: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "array_free_bytes",
			Help:      "Free array capacity",
		}),
		capacityProvisioned: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "array_provisioned_bytes",
			Help:      "Provisioned (unique) array capacity",
		}),
		dataReduction: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "array_data_reduction_ratio",
			Help:      "Array-reported data reduction ratio",
		}),
	}

	registry.MustRegister(
		c.operationCounter,
		c.operationDuration,
		c.errorCounter,
		c.capacityTotal,
		c.capacityFree,
		c.capacityProvisioned,
		c.dataReduction,
	)

	return c
}

// ObserveOperation records one completed lifecycle operation.
func (c *Collector) ObserveOperation(operation string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
		c.errorCounter.WithLabelValues(operation, string(errors.CodeOf(err))).Inc()
	}
	c.operationCounter.WithLabelValues(operation, result).Inc()
	c.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetCapacity publishes the latest array capacity readings.
func (c *Collector) SetCapacity(total, free, provisioned int64) {
	if c == nil {
		return
	}
	c.capacityTotal.Set(float64(total))
	c.capacityFree.Set(float64(free))
	c.capacityProvisioned.Set(float64(provisioned))
}

// SetDataReduction publishes the array's data reduction ratio.
func (c *Collector) SetDataReduction(ratio float64) {
	if c == nil {
		return
	}
	c.dataReduction.Set(ratio)
}

// Handler serves the collector's registry in Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
