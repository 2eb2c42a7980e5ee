package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coursehub/notify/internal/domain"
	"github.com/coursehub/notify/internal/queue"
	"github.com/coursehub/notify/internal/repository"
)

// EnqueueService is the producer-facing API: it validates a job payload
// synchronously, persists the job, and places it on the queue. The caller
// returns as soon as the job is durably queued; delivery outcomes are only
// observable later via the job row.
type EnqueueService struct {
	jobs       repository.JobRepository
	users      repository.UserRepository
	classifier *domain.RoleClassifier
	q          *queue.JobQueue
	maxRetries int
	logger     *zap.Logger
}

func NewEnqueueService(
	jobs repository.JobRepository,
	users repository.UserRepository,
	classifier *domain.RoleClassifier,
	q *queue.JobQueue,
	maxRetries int,
	logger *zap.Logger,
) *EnqueueService {
	return &EnqueueService{
		jobs:       jobs,
		users:      users,
		classifier: classifier,
		q:          q,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Enqueue validates, persists, and queues a notification job.
// A malformed payload is rejected here and never reaches the worker.
func (s *EnqueueService) Enqueue(ctx context.Context, kind domain.JobKind, payload domain.JobPayload) (*domain.Job, error) {
	if !kind.IsValid() {
		return nil, domain.ErrInvalidJobKind
	}
	if err := payload.Validate(kind); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	j := &domain.Job{
		ID:         uuid.New().String(),
		Kind:       kind,
		Payload:    payload,
		Status:     domain.StatusQueued,
		MaxRetries: s.maxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// Persist before the channel enqueue so a worker that dequeues the item
	// immediately always finds the row.
	if err := s.jobs.Create(ctx, j); err != nil {
		return nil, fmt.Errorf("persist job: %w", err)
	}

	if err := s.q.Enqueue(queue.Item{JobID: j.ID, Kind: j.Kind}); err != nil {
		s.logger.Warn("queue full: job rejected",
			zap.String("job_id", j.ID), zap.String("kind", string(j.Kind)))
		if markErr := s.jobs.MarkFailed(ctx, j.ID, "queue full at enqueue"); markErr != nil {
			s.logger.Error("failed to mark rejected job", zap.String("job_id", j.ID), zap.Error(markErr))
		}
		return nil, err
	}

	return j, nil
}

// GetJob returns a job's current status and, once done, its dispatch summary.
func (s *EnqueueService) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	return s.jobs.GetByID(ctx, id)
}

// RegisterPushToken stores a user's push token on the collection their email
// classifies into. Writes are last-write-wins; there is no version check.
func (s *EnqueueService) RegisterPushToken(ctx context.Context, email, token string) error {
	if email == "" {
		return domain.ErrMissingEmail
	}
	if token == "" {
		return domain.ErrMissingToken
	}

	switch s.classifier.Classify(email) {
	case domain.RoleStudent:
		return s.users.SetStudentPushToken(ctx, email, token)
	case domain.RoleTeacher:
		return s.users.SetTeacherPushToken(ctx, email, token)
	default:
		return domain.ErrUnrecognizedEmail
	}
}
