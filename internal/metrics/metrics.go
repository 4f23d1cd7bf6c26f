// Package metrics exposes prometheus collectors for attendance flows.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the services report to.
type Recorder interface {
	RecordIntake(outcome string)
	RecordEnrollment(success bool)
	RecordExport(format string, err error)
	RecordReportLatency(d time.Duration)
}

// Collector is the prometheus Recorder.
type Collector struct {
	intake        *prometheus.CounterVec
	enrollments   *prometheus.CounterVec
	exports       *prometheus.CounterVec
	reportLatency prometheus.Histogram
}

// NewCollector registers the collectors on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		intake: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_intake_total",
			Help: "Attendance attempts by terminal state.",
		}, []string{"outcome"}),
		enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_enrollments_total",
			Help: "Student enrollment attempts.",
		}, []string{"result"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_exports_total",
			Help: "Report exports by format and result.",
		}, []string{"format", "result"}),
		reportLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rollcall_report_generate_seconds",
			Help:    "Time spent aggregating a report.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(c.intake, c.enrollments, c.exports, c.reportLatency)
	return c
}

func (c *Collector) RecordIntake(outcome string) {
	c.intake.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordEnrollment(success bool) {
	c.enrollments.WithLabelValues(result(success)).Inc()
}

func (c *Collector) RecordExport(format string, err error) {
	c.exports.WithLabelValues(format, result(err == nil)).Inc()
}

func (c *Collector) RecordReportLatency(d time.Duration) {
	c.reportLatency.Observe(d.Seconds())
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordIntake(string)               {}
func (Nop) RecordEnrollment(bool)             {}
func (Nop) RecordExport(string, error)        {}
func (Nop) RecordReportLatency(time.Duration) {}

// Handler serves the registry for scraping.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
