package metrics

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "snel"

// Metrics exposes application-level instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	readings        *prometheus.CounterVec
	invoices        prometheus.Counter
	invoicedAmount  prometheus.Counter
	payments        *prometheus.CounterVec
	collectedAmount *prometheus.CounterVec
	complaints      *prometheus.CounterVec
	tickets         *prometheus.CounterVec
	snapshotWrites  *prometheus.CounterVec
	snapshotFailure *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
	jobRuns         *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewRegistry returns a registry carrying the runtime collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_total",
			Help:      "Meter readings by lifecycle transition.",
		}, []string{"status"}),
		invoices: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_generated_total",
			Help:      "Invoices generated from validated readings.",
		}),
		invoicedAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoiced_amount_total",
			Help:      "Sum of generated invoice totals, tax included.",
		}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Payments applied to invoices.",
		}, []string{"mode", "channel"}),
		collectedAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collected_amount_total",
			Help:      "Sum of applied payment amounts.",
		}, []string{"mode"}),
		complaints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "complaints_total",
			Help:      "Complaints by lifecycle transition.",
		}, []string{"status"}),
		tickets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_total",
			Help:      "Tickets by lifecycle transition.",
		}, []string{"status"}),
		snapshotWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_writes_total",
			Help:      "Collection snapshot writes by store and result.",
		}, []string{"store", "result"}),
		snapshotFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_failures_total",
			Help:      "Collection snapshot writes that failed and left the store degraded.",
		}, []string{"store", "key"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events handed to the publisher.",
		}, []string{"type", "result"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Maintenance job runs by job and result.",
		}, []string{"job", "result"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Maintenance job latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.readings,
		m.invoices,
		m.invoicedAmount,
		m.payments,
		m.collectedAmount,
		m.complaints,
		m.tickets,
		m.snapshotWrites,
		m.snapshotFailure,
		m.eventsPublished,
		m.jobRuns,
		m.jobDuration,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

func (m *Metrics) RecordReading(status string) {
	if m == nil {
		return
	}
	m.readings.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordInvoice(total float64) {
	if m == nil {
		return
	}
	m.invoices.Inc()
	m.invoicedAmount.Add(total)
}

func (m *Metrics) RecordPayment(mode, channel string, amount float64) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(mode, channel).Inc()
	m.collectedAmount.WithLabelValues(mode).Add(amount)
}

func (m *Metrics) RecordComplaint(status string) {
	if m == nil {
		return
	}
	m.complaints.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordTickets(status string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.tickets.WithLabelValues(status).Add(float64(count))
}

func (m *Metrics) RecordSnapshotWrite(store, key string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
		m.snapshotFailure.WithLabelValues(store, key).Inc()
	}
	m.snapshotWrites.WithLabelValues(store, result).Inc()
}

func (m *Metrics) RecordEvent(eventType string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.eventsPublished.WithLabelValues(eventType, result).Inc()
}

// RecordJob counts one scheduler job run. Timeouts are reported apart from
// errors.
func (m *Metrics) RecordJob(job string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		result = "timeout"
	case err != nil:
		result = "error"
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
	m.jobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}

// JobRunsForTest exposes the job run counter to tests in other packages.
func (m *Metrics) JobRunsForTest(job, result string) prometheus.Counter {
	return m.jobRuns.WithLabelValues(job, result)
}

// GinMiddleware records request counts and latency per route template.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
