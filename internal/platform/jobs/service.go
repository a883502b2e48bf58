package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

const (
	JobPayrollRun = "payroll_run"

	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Recorder persists job bookkeeping. Recording failures never fail a job.
type Recorder interface {
	StartRun(ctx context.Context, jobType, referenceID string) (string, error)
	FinishRun(ctx context.Context, runID, status string, detailsJSON []byte) error
}

type RunFunc func(context.Context) (any, error)

type Service struct {
	recorder Recorder
	timeout  time.Duration
	queue    chan job
	wg       sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

type job struct {
	Type        string
	ReferenceID string
	Run         RunFunc
}

func New(recorder Recorder, timeout time.Duration) *Service {
	return &Service{
		recorder: recorder,
		timeout:  timeout,
		queue:    make(chan job, 128),
	}
}

// Start launches the queue worker. Once ctx is cancelled the worker stops
// accepting jobs and runs whatever is still queued with the cancelled ctx,
// so every accepted job gets to close its own bookkeeping.
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker(ctx)
	}()
}

// Wait blocks until the worker has drained the queue and exited.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Enqueue schedules run in the background and reports whether it was
// accepted. Jobs are refused once the worker is shutting down.
func (s *Service) Enqueue(jobType, referenceID string, run RunFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		slog.Warn("job queue stopped", "jobType", jobType, "referenceId", referenceID)
		return false
	}
	select {
	case s.queue <- job{Type: jobType, ReferenceID: referenceID, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType, "referenceId", referenceID)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, referenceID string, run RunFunc) (any, error) {
	return s.runJob(ctx, job{Type: jobType, ReferenceID: referenceID, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.drain(ctx)
			return
		case j := <-s.queue:
			s.runQueued(ctx, j)
		}
	}
}

func (s *Service) drain(ctx context.Context) {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	for {
		select {
		case j := <-s.queue:
			slog.Info("running queued job at shutdown", "jobType", j.Type, "referenceId", j.ReferenceID)
			s.runQueued(ctx, j)
		default:
			return
		}
	}
}

func (s *Service) runQueued(ctx context.Context, j job) {
	if _, err := s.runJob(ctx, j); err != nil {
		slog.Warn("job run failed", "jobType", j.Type, "referenceId", j.ReferenceID, "err", err)
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	// Bookkeeping outlives ctx so a job run during shutdown is still recorded.
	recordCtx := context.WithoutCancel(ctx)
	runID := ""
	if s.recorder != nil {
		id, err := s.recorder.StartRun(recordCtx, j.Type, j.ReferenceID)
		if err != nil {
			slog.Warn("job run insert failed", "jobType", j.Type, "err", err)
		}
		runID = id
	}

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	details, err := j.Run(runCtx)

	status := StatusCompleted
	if err != nil {
		status = StatusFailed
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if updErr := s.recorder.FinishRun(recordCtx, runID, status, detailsJSON); updErr != nil {
			slog.Warn("job run update failed", "runId", runID, "err", updErr)
		}
	}
	return details, err
}
