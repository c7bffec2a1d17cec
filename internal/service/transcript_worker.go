package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-transcript-api/internal/models"
	appErrors "github.com/noah-isme/sma-transcript-api/pkg/errors"
	"github.com/noah-isme/sma-transcript-api/pkg/jobs"
)

// TranscriptJobType tags queued transcript calculations.
const TranscriptJobType = "transcript.calculate"

// TranscriptJobPayload is carried by queued calculations.
type TranscriptJobPayload struct {
	StudentID   string
	InitiatedBy string
}

type transcriptRunner interface {
	CalculateFinalTranscript(ctx context.Context, studentID, initiatingUserID string) (*models.FinalTranscriptResult, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
	TryEnqueue(job jobs.Job) error
}

type failureNotifier interface {
	TranscriptFailed(ctx context.Context, studentID, initiatedBy string, attempts int, cause error) error
}

// TranscriptWorker runs queued calculations and keeps at most one job per
// student in flight, so runs for the same student never race on the upsert.
type TranscriptWorker struct {
	calculator transcriptRunner
	queue      jobEnqueuer
	notifier   failureNotifier
	metrics    *MetricsService
	logger     *zap.Logger

	mu       sync.Mutex
	inFlight map[string]string
}

// NewTranscriptWorker constructs a worker. The queue is attached with
// AttachQueue once it exists, since the queue needs the worker's handler.
func NewTranscriptWorker(calculator transcriptRunner, notifier failureNotifier, metrics *MetricsService, logger *zap.Logger) *TranscriptWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptWorker{
		calculator: calculator,
		notifier:   notifier,
		metrics:    metrics,
		logger:     logger,
		inFlight:   make(map[string]string),
	}
}

// AttachQueue sets the queue used by Submit.
func (w *TranscriptWorker) AttachQueue(queue jobEnqueuer) {
	w.queue = queue
}

// Submit queues a calculation for the student. When one is already queued or
// running the existing job id is returned with queued=false.
func (w *TranscriptWorker) Submit(studentID, initiatedBy string) (string, bool, error) {
	if studentID == "" || initiatedBy == "" {
		return "", false, appErrors.Clone(appErrors.ErrValidation, "student and initiating user required")
	}
	if w.queue == nil {
		return "", false, appErrors.Clone(appErrors.ErrUnavailable, "transcript queue not running")
	}

	w.mu.Lock()
	if id, ok := w.inFlight[studentID]; ok {
		w.mu.Unlock()
		return id, false, nil
	}
	id := uuid.NewString()
	w.inFlight[studentID] = id
	w.mu.Unlock()

	job := jobs.Job{ID: id, Type: TranscriptJobType, Payload: TranscriptJobPayload{StudentID: studentID, InitiatedBy: initiatedBy}}
	if err := w.queue.TryEnqueue(job); err != nil {
		w.release(studentID)
		if errors.Is(err, jobs.ErrQueueFull) {
			return "", false, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "transcript queue is full, retry later")
		}
		return "", false, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to queue transcript calculation")
	}
	w.logger.Debug("transcript calculation queued", zap.String("job_id", id), zap.String("student_id", studentID))
	return id, true, nil
}

// Handle processes a queue job. Validation errors are not retried.
func (w *TranscriptWorker) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(TranscriptJobPayload)
	if !ok {
		return jobs.Permanent(fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID))
	}
	_, err := w.calculator.CalculateFinalTranscript(ctx, payload.StudentID, payload.InitiatedBy)
	if err == nil {
		w.release(payload.StudentID)
		return nil
	}
	if errors.Is(err, appErrors.ErrValidation) {
		return jobs.Permanent(err)
	}
	return err
}

// DeadLetter is the queue hook for jobs that will not be attempted again.
func (w *TranscriptWorker) DeadLetter(job jobs.Job, cause error) {
	payload, _ := job.Payload.(TranscriptJobPayload)
	if payload.StudentID != "" {
		w.release(payload.StudentID)
	}
	w.metrics.RecordDeadLetter()
	w.logger.Error("transcript calculation abandoned",
		zap.String("job_id", job.ID),
		zap.String("student_id", payload.StudentID),
		zap.Int("attempts", job.Attempt),
		zap.Error(cause),
	)
	if w.notifier != nil {
		_ = w.notifier.TranscriptFailed(context.Background(), payload.StudentID, payload.InitiatedBy, job.Attempt, cause)
	}
}

// pending reports whether a job for the student is queued or running.
func (w *TranscriptWorker) pending(studentID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.inFlight[studentID]
	return ok
}

func (w *TranscriptWorker) release(studentID string) {
	w.mu.Lock()
	delete(w.inFlight, studentID)
	w.mu.Unlock()
}
