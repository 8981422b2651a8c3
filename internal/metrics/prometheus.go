package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/thanhtrungnguyen/voice-detection-app/internal/vad"
)

// Metrics contains all Prometheus metrics for the voice activity service
type Metrics struct {
	// Detection metrics
	WindowsClassified prometheus.Counter
	SpeechWindows     prometheus.Counter
	IntervalsEmitted  prometheus.Counter
	AnalysesCompleted prometheus.Counter
	AnalysesFailed    *prometheus.CounterVec
	AnalysisDuration  prometheus.Histogram
	AudioDuration     prometheus.Histogram
	SpeechRatio       prometheus.Histogram

	// Background job metrics
	JobsInFlight prometheus.Gauge
	JobsRetained prometheus.Gauge

	// Segment export metrics
	SegmentsExported prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Detection metrics
		WindowsClassified: factory.NewCounter(prometheus.CounterOpts{
			Name: "vad_windows_classified_total",
			Help: "Total number of analysis windows classified",
		}),
		SpeechWindows: factory.NewCounter(prometheus.CounterOpts{
			Name: "vad_speech_windows_total",
			Help: "Total number of analysis windows labelled speech after smoothing",
		}),
		IntervalsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "vad_speech_intervals_total",
			Help: "Total number of speech intervals extracted",
		}),
		AnalysesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "vad_analyses_completed_total",
			Help: "Total number of signals analysed successfully",
		}),
		AnalysesFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vad_analyses_failed_total",
			Help: "Total number of failed analyses",
		}, []string{"reason"}),
		AnalysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vad_analysis_duration_seconds",
			Help:    "Time spent analysing one signal",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}),
		AudioDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vad_audio_duration_seconds",
			Help:    "Duration of analysed signals",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34 minutes
		}),
		SpeechRatio: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vad_speech_ratio",
			Help:    "Fraction of each analysed signal covered by speech intervals",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11), // 0.0 to 1.0
		}),

		// Background job metrics
		JobsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vad_jobs_in_flight",
			Help: "Current number of queued or running analysis jobs",
		}),
		JobsRetained: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vad_jobs_retained",
			Help: "Current number of jobs kept by the manager",
		}),

		// Segment export metrics
		SegmentsExported: factory.NewCounter(prometheus.CounterOpts{
			Name: "vad_segments_exported_total",
			Help: "Total number of speech segments written as WAV files",
		}),

		// HTTP API metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vad_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vad_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vad_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordAnalysis records a finished detection pass
func (m *Metrics) RecordAnalysis(result *vad.Result, processingTimeSeconds float64) {
	m.AnalysesCompleted.Inc()
	m.WindowsClassified.Add(float64(result.Summary.TotalWindows))
	m.SpeechWindows.Add(float64(result.Summary.SpeechWindows))
	m.IntervalsEmitted.Add(float64(len(result.Intervals)))
	m.AnalysisDuration.Observe(processingTimeSeconds)
	m.AudioDuration.Observe(result.Summary.Duration)
	m.SpeechRatio.Observe(result.Summary.SpeechRatio)
}

// RecordAnalysisFailure increments the failed analyses counter
func (m *Metrics) RecordAnalysisFailure(reason string) {
	m.AnalysesFailed.WithLabelValues(reason).Inc()
}

// SetJobsInFlight sets the current number of pending jobs
func (m *Metrics) SetJobsInFlight(count int) {
	m.JobsInFlight.Set(float64(count))
}

// SetJobsRetained sets the number of jobs held by the manager
func (m *Metrics) SetJobsRetained(count int) {
	m.JobsRetained.Set(float64(count))
}

// RecordSegmentsExported adds exported speech segments
func (m *Metrics) RecordSegmentsExported(count int) {
	m.SegmentsExported.Add(float64(count))
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
