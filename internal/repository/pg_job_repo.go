package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coursehub/notify/internal/domain"
)

type pgJobRepository struct {
	pool *pgxpool.Pool
}

// NewPgJobRepository returns a JobRepository backed by PostgreSQL.
func NewPgJobRepository(pool *pgxpool.Pool) JobRepository {
	return &pgJobRepository{pool: pool}
}

func (r *pgJobRepository) Create(ctx context.Context, j *domain.Job) error {
	payload, err := json.Marshal(j.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO notification_jobs
			(id, kind, payload, status, attempts, max_retries, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		j.ID, j.Kind, payload, j.Status, j.Attempts, j.MaxRetries, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *pgJobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, kind, payload, status, attempts, max_retries,
		       next_retry_at, error_message, result, created_at, updated_at
		FROM notification_jobs WHERE id = $1`, id)

	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return j, err
}

func (r *pgJobRepository) UpdateStatus(ctx context.Context, id string, status domain.JobStatus) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_jobs SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	return err
}

func (r *pgJobRepository) MarkDone(ctx context.Context, id string, result domain.DispatchSummary) error {
	res, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE notification_jobs
		SET status = 'done', result = $1, error_message = NULL,
		    next_retry_at = NULL, updated_at = NOW()
		WHERE id = $2`, res, id)
	return err
}

func (r *pgJobRepository) MarkFailed(ctx context.Context, id, errMsg string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_jobs
		SET status = 'failed', error_message = $1, next_retry_at = NULL, updated_at = NOW()
		WHERE id = $2`, errMsg, id)
	return err
}

func (r *pgJobRepository) ScheduleRetry(ctx context.Context, id string, attempts int, nextRetry time.Time, errMsg string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_jobs
		SET status = 'failed', attempts = $1, next_retry_at = $2,
		    error_message = $3, updated_at = NOW()
		WHERE id = $4`, attempts, nextRetry, errMsg, id)
	return err
}

func (r *pgJobRepository) FindDueRetries(ctx context.Context) ([]*domain.Job, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, payload, status, attempts, max_retries,
		       next_retry_at, error_message, result, created_at, updated_at
		FROM notification_jobs
		WHERE status = 'failed'
		  AND attempts <= max_retries
		  AND next_retry_at IS NOT NULL
		  AND next_retry_at <= NOW()
		ORDER BY next_retry_at ASC
		LIMIT 500`)
	if err != nil {
		return nil, fmt.Errorf("find due retries: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *pgJobRepository) FindStranded(ctx context.Context, cutoff time.Time) ([]*domain.Job, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, payload, status, attempts, max_retries,
		       next_retry_at, error_message, result, created_at, updated_at
		FROM notification_jobs
		WHERE status IN ('queued', 'processing')
		  AND updated_at <= $1
		ORDER BY updated_at ASC
		LIMIT 500`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("find stranded jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// scanJob reads a single job row from any pgx row type, decoding the jsonb
// payload and optional result columns.
func scanJob(row pgx.Row) (*domain.Job, error) {
	var (
		j       domain.Job
		payload []byte
		result  []byte
	)
	err := row.Scan(
		&j.ID, &j.Kind, &payload, &j.Status, &j.Attempts, &j.MaxRetries,
		&j.NextRetryAt, &j.ErrorMessage, &result, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &j.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	if len(result) > 0 {
		var s domain.DispatchSummary
		if err := json.Unmarshal(result, &s); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		j.Result = &s
	}
	return &j, nil
}
