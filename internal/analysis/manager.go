package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/thanhtrungnguyen/voice-detection-app/internal/audio"
	"github.com/thanhtrungnguyen/voice-detection-app/internal/metrics"
	"github.com/thanhtrungnguyen/voice-detection-app/internal/vad"
)

var (
	// ErrJobNotFound is returned for unknown or expired job ids.
	ErrJobNotFound = errors.New("job not found")
	// ErrManagerStopped is returned once Stop has been called.
	ErrManagerStopped = errors.New("analysis manager stopped")
)

// JobStatus is the lifecycle state of an analysis job
type JobStatus string

const (
	StatusQueued  JobStatus = "queued"
	StatusRunning JobStatus = "running"
	StatusDone    JobStatus = "done"
	StatusFailed  JobStatus = "failed"
)

// job is one submitted signal and, once finished, its result
type job struct {
	id          string
	name        string
	info        audio.Info
	status      JobStatus
	submittedAt time.Time
	startedAt   time.Time
	finishedAt  time.Time
	result      *vad.Result
	err         error

	mu sync.RWMutex
}

// JobInfo is a snapshot of a job for monitoring and APIs
type JobInfo struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Status      JobStatus   `json:"status"`
	Audio       audio.Info  `json:"audio"`
	SubmittedAt time.Time   `json:"submitted_at"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	FinishedAt  *time.Time  `json:"finished_at,omitempty"`
	Error       string      `json:"error,omitempty"`
	Result      *vad.Result `json:"result,omitempty"`
}

// ManagerConfig contains configuration for the analysis manager
type ManagerConfig struct {
	Workers         int
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ManagerStats represents manager statistics
type ManagerStats struct {
	Workers   int    `json:"workers"`
	Retained  int    `json:"retained_jobs"`
	InFlight  int    `json:"in_flight"`
	Submitted uint64 `json:"submitted"`
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
}

// Manager runs detection jobs on a bounded pool of workers
type Manager struct {
	jobs     map[string]*job
	mu       sync.RWMutex
	logger   *slog.Logger
	detector *vad.Detector
	metrics  *metrics.Metrics
	config   ManagerConfig
	sem      *semaphore.Weighted

	// Statistics
	inFlight  int
	submitted uint64
	completed uint64
	failed    uint64

	// Lifecycle
	stopped bool // guarded by mu; no job is added once set
	ctx     context.Context
	cancel  context.CancelFunc
	running sync.WaitGroup
	cleanup chan struct{}
}

// NewManager creates a new analysis manager and starts its cleanup routine
func NewManager(logger *slog.Logger, detector *vad.Detector, m *metrics.Metrics, config ManagerConfig) (*Manager, error) {
	if detector == nil {
		return nil, fmt.Errorf("detector is required")
	}
	if m == nil {
		return nil, fmt.Errorf("metrics are required")
	}
	if config.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", config.Workers)
	}
	if config.ResultTTL <= 0 || config.CleanupInterval <= 0 {
		return nil, fmt.Errorf("result ttl and cleanup interval must be positive")
	}

	ctx, cancel := context.WithCancel(context.Background())
	mgr := &Manager{
		jobs:     make(map[string]*job),
		logger:   logger,
		detector: detector,
		metrics:  m,
		config:   config,
		sem:      semaphore.NewWeighted(int64(config.Workers)),
		ctx:      ctx,
		cancel:   cancel,
		cleanup:  make(chan struct{}),
	}

	go mgr.startCleanupRoutine()

	return mgr, nil
}

// Detector returns the detector used for every job
func (m *Manager) Detector() *vad.Detector {
	return m.detector
}

// Submit queues sig for background analysis and returns the job id
func (m *Manager) Submit(name string, clip *audio.Clip) (string, error) {
	j := &job{
		id:          uuid.NewString(),
		name:        name,
		info:        clip.Info(),
		status:      StatusQueued,
		submittedAt: time.Now(),
	}

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return "", ErrManagerStopped
	}
	m.jobs[j.id] = j
	m.submitted++
	m.inFlight++
	m.publishGauges()
	m.running.Add(1)
	m.mu.Unlock()

	m.logger.Debug("Analysis job queued",
		slog.String("job_id", j.id),
		slog.String("name", name),
		slog.Float64("duration", j.info.Duration),
	)

	go m.run(j, clip.Signal)

	return j.id, nil
}

// Analyze runs the detector on sig in the caller's goroutine, sharing the
// worker limit with queued jobs.
func (m *Manager) Analyze(ctx context.Context, name string, sig vad.Signal[int32]) (*vad.Result, error) {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer m.sem.Release(1)

	return m.detect(name, sig)
}

func (m *Manager) run(j *job, sig vad.Signal[int32]) {
	defer m.running.Done()

	if err := m.sem.Acquire(m.ctx, 1); err != nil {
		m.finish(j, nil, ErrManagerStopped)
		return
	}
	defer m.sem.Release(1)

	j.mu.Lock()
	j.status = StatusRunning
	j.startedAt = time.Now()
	j.mu.Unlock()

	result, err := m.detect(j.name, sig)
	m.finish(j, result, err)
}

// detect runs one detection pass and records it
func (m *Manager) detect(name string, sig vad.Signal[int32]) (*vad.Result, error) {
	startTime := time.Now()

	result, err := vad.Analyze(m.detector, sig)
	if err != nil {
		m.metrics.RecordAnalysisFailure(FailureReason(err))
		m.logger.Warn("Analysis failed",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	elapsed := time.Since(startTime)
	m.metrics.RecordAnalysis(result, elapsed.Seconds())
	m.logger.Info("Analysis completed",
		slog.String("name", name),
		slog.Float64("audio_duration", result.Summary.Duration),
		slog.Int("windows", result.Summary.TotalWindows),
		slog.Int("speech_windows", result.Summary.SpeechWindows),
		slog.Int("intervals", len(result.Intervals)),
		slog.Duration("processing_time", elapsed),
	)

	return result, nil
}

func (m *Manager) finish(j *job, result *vad.Result, err error) {
	j.mu.Lock()
	j.finishedAt = time.Now()
	j.result = result
	j.err = err
	if err != nil {
		j.status = StatusFailed
	} else {
		j.status = StatusDone
	}
	j.mu.Unlock()

	m.mu.Lock()
	m.inFlight--
	if err != nil {
		m.failed++
	} else {
		m.completed++
	}
	m.publishGauges()
	m.mu.Unlock()
}

// publishGauges must be called with m.mu held
func (m *Manager) publishGauges() {
	m.metrics.SetJobsInFlight(m.inFlight)
	m.metrics.SetJobsRetained(len(m.jobs))
}

// Get returns a snapshot of the job with the given id
func (m *Manager) Get(id string) (JobInfo, error) {
	m.mu.RLock()
	j, exists := m.jobs[id]
	m.mu.RUnlock()

	if !exists {
		return JobInfo{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return j.snapshot(), nil
}

// List returns snapshots of all retained jobs, oldest first, without results
func (m *Manager) List() []JobInfo {
	m.mu.RLock()
	infos := make([]JobInfo, 0, len(m.jobs))
	for _, j := range m.jobs {
		info := j.snapshot()
		info.Result = nil
		infos = append(infos, info)
	}
	m.mu.RUnlock()

	sort.Slice(infos, func(a, b int) bool {
		return infos[a].SubmittedAt.Before(infos[b].SubmittedAt)
	})
	return infos
}

// Remove forgets a job; a running job still completes but its result is dropped
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[id]; !exists {
		return false
	}
	delete(m.jobs, id)
	m.publishGauges()
	return true
}

// Stats returns current manager statistics
func (m *Manager) Stats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return ManagerStats{
		Workers:   m.config.Workers,
		Retained:  len(m.jobs),
		InFlight:  m.inFlight,
		Submitted: m.submitted,
		Completed: m.completed,
		Failed:    m.failed,
	}
}

// Wait blocks until every submitted job has finished
func (m *Manager) Wait() {
	m.running.Wait()
}

// Stop cancels queued jobs, waits for running ones and stops the cleanup routine
func (m *Manager) Stop() {
	m.logger.Info("Stopping analysis manager...")

	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()

	m.cancel()
	m.running.Wait()
	<-m.cleanup

	stats := m.Stats()
	m.logger.Info("Analysis manager stopped",
		slog.Uint64("submitted", stats.Submitted),
		slog.Uint64("completed", stats.Completed),
		slog.Uint64("failed", stats.Failed),
	)
}

// startCleanupRoutine runs in a separate goroutine to drop expired results
func (m *Manager) startCleanupRoutine() {
	defer close(m.cleanup)

	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return

		case <-ticker.C:
			m.cleanupExpiredJobs(time.Now())
		}
	}
}

// cleanupExpiredJobs removes finished jobs older than the result TTL
func (m *Manager) cleanupExpiredJobs(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, j := range m.jobs {
		j.mu.RLock()
		finishedAt := j.finishedAt
		j.mu.RUnlock()

		if !finishedAt.IsZero() && now.Sub(finishedAt) > m.config.ResultTTL {
			delete(m.jobs, id)
			removed++
		}
	}

	if removed > 0 {
		m.publishGauges()
		m.logger.Info("Cleaned up expired jobs", slog.Int("expired_count", removed))
	}
	return removed
}

func (j *job) snapshot() JobInfo {
	j.mu.RLock()
	defer j.mu.RUnlock()

	info := JobInfo{
		ID:          j.id,
		Name:        j.name,
		Status:      j.status,
		Audio:       j.info,
		SubmittedAt: j.submittedAt,
		Result:      j.result,
	}
	if !j.startedAt.IsZero() {
		started := j.startedAt
		info.StartedAt = &started
	}
	if !j.finishedAt.IsZero() {
		finished := j.finishedAt
		info.FinishedAt = &finished
	}
	if j.err != nil {
		info.Error = j.err.Error()
	}
	return info
}

// FailureReason classifies an analysis error for metrics and HTTP responses
func FailureReason(err error) string {
	switch {
	case errors.Is(err, audio.ErrDecode):
		return "decode"
	case errors.Is(err, vad.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrManagerStopped):
		return "cancelled"
	default:
		return "internal"
	}
}
