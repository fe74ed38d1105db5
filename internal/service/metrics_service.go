package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/uniead-br/sigaa-sync/internal/models"
)

// Record result labels for sync_records_total.
const (
	RecordCreated  = "created"
	RecordExisting = "existing"
	RecordSkipped  = "skipped"
	RecordMissing  = "missing"
	RecordFailed   = "failed"
)

// MetricsService encapsulates Prometheus instrumentation for the admin API
// and the sync runs.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	runTotal        *prometheus.CounterVec
	recordTotal     *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_run_duration_seconds",
		Help:    "Duration of sync runs",
		Buckets: []float64{1, 5, 15, 60, 300, 900, 1800, 3600},
	}, []string{"job"})

	runTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_runs_total",
		Help: "Total sync runs by outcome",
	}, []string{"job", "outcome"})

	recordTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_records_total",
		Help: "Records processed by sync runs, by result",
	}, []string{"job", "result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, runDuration, runTotal, recordTotal, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		runDuration:     runDuration,
		runTotal:        runTotal,
		recordTotal:     recordTotal,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveRun records one sync run's outcome and duration.
func (m *MetricsService) ObserveRun(job, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.runTotal.WithLabelValues(job, outcome).Inc()
	m.runDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// AddRecords counts processed records for a job by result.
func (m *MetricsService) AddRecords(job, result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.recordTotal.WithLabelValues(job, result).Add(float64(n))
}

// RecordCourseReport feeds a course sync report into the record counters.
func (m *MetricsService) RecordCourseReport(job string, report *models.CourseSyncReport) {
	if m == nil || report == nil {
		return
	}
	m.AddRecords(job, RecordCreated, report.CoursesCreated)
	m.AddRecords(job, RecordExisting, report.CoursesExisting)
	m.AddRecords(job, RecordSkipped, report.Duplicates)
	m.AddRecords(job, RecordFailed, report.Failures)
}

// RecordEnrollmentReport feeds an enrollment sync report into the record
// counters.
func (m *MetricsService) RecordEnrollmentReport(job string, report *models.EnrollmentSyncReport) {
	if m == nil || report == nil {
		return
	}
	m.AddRecords(job, RecordCreated, report.Enrolled)
	m.AddRecords(job, RecordExisting, report.AlreadyEnrolled)
	m.AddRecords(job, RecordMissing, report.MissingCourses+report.MissingLearners)
	m.AddRecords(job, RecordFailed, report.Failures)
}

// RecordArchiveReport feeds an archive report into the record counters.
func (m *MetricsService) RecordArchiveReport(job string, report *models.ArchiveReport) {
	if m == nil || report == nil {
		return
	}
	m.AddRecords(job, RecordCreated, report.Archived)
	m.AddRecords(job, RecordExisting, report.AlreadyArchived)
	m.AddRecords(job, RecordFailed, report.Failures)
}
