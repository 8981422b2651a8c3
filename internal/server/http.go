package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thanhtrungnguyen/voice-detection-app/internal/analysis"
	"github.com/thanhtrungnguyen/voice-detection-app/internal/audio"
	"github.com/thanhtrungnguyen/voice-detection-app/internal/config"
	"github.com/thanhtrungnguyen/voice-detection-app/internal/metrics"
	"github.com/thanhtrungnguyen/voice-detection-app/internal/vad"
)

const (
	serviceName    = "spectral-vad"
	serviceVersion = "1.0.0"
)

// HTTPServer provides the analysis API and monitoring endpoints
type HTTPServer struct {
	server   *http.Server
	logger   *slog.Logger
	config   *config.Config
	manager  *analysis.Manager
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer

	maxUploadBytes int64
	startTime      time.Time
}

// NewHTTPServer creates a new HTTP API server
func NewHTTPServer(logger *slog.Logger, appConfig *config.Config, mgr *analysis.Manager,
	m *metrics.Metrics, gatherer prometheus.Gatherer) *HTTPServer {

	h := &HTTPServer{
		logger:         logger,
		config:         appConfig,
		manager:        mgr,
		metrics:        m,
		gatherer:       gatherer,
		maxUploadBytes: appConfig.HTTP.GetMaxUploadBytes(),
		startTime:      time.Now(),
	}

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", appConfig.HTTP.Address, appConfig.HTTP.Port),
		Handler:      h.Routes(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// Routes returns the API router
func (h *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/", h.withMetrics("/", h.handleRoot))
	r.Get("/health", h.withMetrics("/health", h.handleHealth))
	r.Get("/config", h.withMetrics("/config", h.handleConfig))
	r.Get("/stats", h.withMetrics("/stats", h.handleStats))

	r.Post("/analyze", h.withMetrics("/analyze", h.handleAnalyze))

	r.Route("/jobs", func(r chi.Router) {
		r.Post("/", h.withMetrics("/jobs", h.handleSubmitJob))
		r.Get("/", h.withMetrics("/jobs", h.handleListJobs))
		r.Get("/{id}", h.withMetrics("/jobs/{id}", h.handleJobDetail))
		r.Delete("/{id}", h.withMetrics("/jobs/{id}", h.handleDeleteJob))
	})

	// Prometheus metrics endpoint (no metrics needed for metrics endpoint)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	return r
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		// Create a response writer wrapper to capture status code
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": serviceName,
		"version": serviceVersion,
		"endpoints": map[string]string{
			"GET /":             "API documentation",
			"GET /health":       "Service health check",
			"GET /config":       "Detector configuration",
			"GET /stats":        "Analysis statistics",
			"POST /analyze":     "Analyse a WAV body and return speech intervals",
			"POST /jobs":        "Queue a WAV body for background analysis",
			"GET /jobs":         "List retained jobs",
			"GET /jobs/{id}":    "Get a job and its result",
			"DELETE /jobs/{id}": "Forget a job",
			"GET /metrics":      "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	})
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := h.manager.Stats()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
		"service": map[string]interface{}{
			"name":    serviceName,
			"version": serviceVersion,
		},
		"components": map[string]interface{}{
			"analysis_manager": map[string]interface{}{
				"status":    "running",
				"workers":   stats.Workers,
				"in_flight": stats.InFlight,
			},
		},
	})
}

// handleConfig implements the /config endpoint
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	detector := h.manager.Detector().Config()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"vad":      detector,
		"analysis": h.config.Analysis,
		"export":   h.config.Export,
		"http": map[string]interface{}{
			"address":        h.config.HTTP.Address,
			"port":           h.config.HTTP.Port,
			"max_upload_mib": h.config.HTTP.MaxUploadMiB,
		},
		"logging": h.config.Logging,
	})
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uptime":    time.Since(h.startTime).String(),
		"timestamp": time.Now().UTC(),
		"analysis":  h.manager.Stats(),
	})
}

// handleAnalyze decodes the WAV body and returns its speech intervals
func (h *HTTPServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	clip, ok := h.readClip(w, r)
	if !ok {
		return
	}

	name := uploadName(r)
	result, err := h.manager.Analyze(r.Context(), name, clip.Signal)
	if err != nil {
		h.writeAnalysisError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":   name,
		"audio":  clip.Info(),
		"result": result,
	})
}

// handleSubmitJob queues the WAV body for background analysis
func (h *HTTPServer) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	clip, ok := h.readClip(w, r)
	if !ok {
		return
	}

	id, err := h.manager.Submit(uploadName(r), clip)
	if err != nil {
		h.writeAnalysisError(w, err)
		return
	}

	w.Header().Set("Location", "/jobs/"+id)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     id,
		"status": string(analysis.StatusQueued),
	})
}

// handleListJobs implements GET /jobs
func (h *HTTPServer) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.manager.List()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_jobs": len(jobs),
		"timestamp":  time.Now().UTC(),
		"jobs":       jobs,
	})
}

// handleJobDetail implements GET /jobs/{id}
func (h *HTTPServer) handleJobDetail(w http.ResponseWriter, r *http.Request) {
	info, err := h.manager.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeAnalysisError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleDeleteJob implements DELETE /jobs/{id}
func (h *HTTPServer) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Remove(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readClip reads and decodes a WAV request body, writing the error response on failure
func (h *HTTPServer) readClip(w http.ResponseWriter, r *http.Request) (*audio.Clip, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "request body must be a WAV file")
		return nil, false
	}

	clip, err := audio.Decode(bytes.NewReader(body))
	if err != nil {
		h.metrics.RecordAnalysisFailure(analysis.FailureReason(err))
		h.writeAnalysisError(w, err)
		return nil, false
	}
	return clip, true
}

func (h *HTTPServer) writeAnalysisError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		h.logger.Error("Request failed", slog.String("error", err.Error()))
	}
	writeError(w, status, err.Error())
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, analysis.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, audio.ErrDecode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, vad.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, analysis.ErrManagerStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func uploadName(r *http.Request) string {
	if name := r.URL.Query().Get("name"); name != "" {
		return name
	}
	return "upload.wav"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
