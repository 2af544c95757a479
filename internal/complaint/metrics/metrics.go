package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the complaint lifecycle.
// Secondary effects (uploads, fine sync, notifications) fail without failing
// the operation, so each gets its own failure counter.
type Metrics struct {
	Transitions       *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	UploadFailures    prometheus.Counter
	FineSyncFailures  prometheus.Counter
	FinesWritten      prometheus.Counter
	NotifyFailures    prometheus.Counter
}

// New registers the complaint metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaintdesk_complaint_operations_total",
			Help: "Lifecycle operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "complaintdesk_complaint_operation_duration_seconds",
			Help:    "Duration of lifecycle operations including uploads",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),
		UploadFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "complaintdesk_upload_failures_total",
			Help: "Attachment uploads that failed and were skipped",
		}),
		FineSyncFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "complaintdesk_fine_sync_failures_total",
			Help: "Fine ledger replacements that failed after the investigation was saved",
		}),
		FinesWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "complaintdesk_fines_written_total",
			Help: "Fine rows written by the ledger",
		}),
		NotifyFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "complaintdesk_notify_failures_total",
			Help: "Best-effort notifications that could not be delivered",
		}),
	}
}

// ObserveOperation records the outcome and duration of a lifecycle operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.Transitions.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementUploadFailures() {
	m.UploadFailures.Inc()
}

func (m *Metrics) IncrementFineSyncFailures() {
	m.FineSyncFailures.Inc()
}

func (m *Metrics) AddFinesWritten(n int) {
	m.FinesWritten.Add(float64(n))
}

func (m *Metrics) IncrementNotifyFailures() {
	m.NotifyFailures.Inc()
}
