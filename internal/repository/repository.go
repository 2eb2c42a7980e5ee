package repository

import (
	"context"
	"time"

	"github.com/coursehub/notify/internal/domain"
)

// JobRepository defines all persistence operations for notification jobs.
// The pgx implementation is in pg_job_repo.go; tests use a hand-written mock.
type JobRepository interface {
	Create(ctx context.Context, j *domain.Job) error
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	UpdateStatus(ctx context.Context, id string, status domain.JobStatus) error
	MarkDone(ctx context.Context, id string, result domain.DispatchSummary) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	ScheduleRetry(ctx context.Context, id string, attempts int, nextRetry time.Time, errMsg string) error
	FindDueRetries(ctx context.Context) ([]*domain.Job, error)
	// FindStranded returns queued/processing jobs not touched since cutoff.
	// Their in-memory queue items were lost (process restart, crash mid-job);
	// the retry worker re-enqueues them, which may deliver a job twice —
	// the queue is at-least-once.
	FindStranded(ctx context.Context, cutoff time.Time) ([]*domain.Job, error)
}

// UserRepository covers the two user collections. Students are additionally
// addressable by their numeric id (for enrollment-range resolution).
type UserRepository interface {
	StudentByEmail(ctx context.Context, email string) (*domain.Student, error)
	TeacherByEmail(ctx context.Context, email string) (*domain.Teacher, error)
	StudentEmails(ctx context.Context) ([]string, error)
	TeacherEmails(ctx context.Context) ([]string, error)
	// StudentEmailsByIDs returns the emails of students that exist among the
	// given ids, ordered by id. Ids with no matching student are skipped.
	StudentEmailsByIDs(ctx context.Context, ids []int64) ([]string, error)
	// Push-token writes are last-write-wins; there is no version check.
	SetStudentPushToken(ctx context.Context, email, token string) error
	SetTeacherPushToken(ctx context.Context, email, token string) error
}

// EnrollmentRepository reads the course → id-range index.
type EnrollmentRepository interface {
	RangesByCourse(ctx context.Context, courseID string) ([]domain.EnrollmentRange, error)
}
