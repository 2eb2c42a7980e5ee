package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coursehub/notify/internal/domain"
)

type pgUserRepository struct {
	pool *pgxpool.Pool
}

// NewPgUserRepository returns a UserRepository backed by PostgreSQL.
func NewPgUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgUserRepository{pool: pool}
}

func (r *pgUserRepository) StudentByEmail(ctx context.Context, email string) (*domain.Student, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT student_id, email, name, push_token
		FROM students WHERE email = $1`, email)

	var s domain.Student
	err := row.Scan(&s.StudentID, &s.Email, &s.Name, &s.PushToken)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &s, nil
}

func (r *pgUserRepository) TeacherByEmail(ctx context.Context, email string) (*domain.Teacher, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT email, name, push_token
		FROM teachers WHERE email = $1`, email)

	var t domain.Teacher
	err := row.Scan(&t.Email, &t.Name, &t.PushToken)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	return &t, nil
}

func (r *pgUserRepository) StudentEmails(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT email FROM students ORDER BY student_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list student emails: %w", err)
	}
	defer rows.Close()
	return scanEmails(rows)
}

func (r *pgUserRepository) TeacherEmails(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT email FROM teachers ORDER BY email ASC`)
	if err != nil {
		return nil, fmt.Errorf("list teacher emails: %w", err)
	}
	defer rows.Close()
	return scanEmails(rows)
}

func (r *pgUserRepository) StudentEmailsByIDs(ctx context.Context, ids []int64) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT email FROM students
		WHERE student_id = ANY($1)
		ORDER BY student_id ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("list students by ids: %w", err)
	}
	defer rows.Close()
	return scanEmails(rows)
}

func (r *pgUserRepository) SetStudentPushToken(ctx context.Context, email, token string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE students SET push_token = $1 WHERE email = $2`, token, email)
	if err != nil {
		return fmt.Errorf("set student push token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *pgUserRepository) SetTeacherPushToken(ctx context.Context, email, token string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE teachers SET push_token = $1 WHERE email = $2`, token, email)
	if err != nil {
		return fmt.Errorf("set teacher push token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanEmails(rows pgx.Rows) ([]string, error) {
	var emails []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

type pgEnrollmentRepository struct {
	pool *pgxpool.Pool
}

// NewPgEnrollmentRepository returns an EnrollmentRepository backed by PostgreSQL.
func NewPgEnrollmentRepository(pool *pgxpool.Pool) EnrollmentRepository {
	return &pgEnrollmentRepository{pool: pool}
}

func (r *pgEnrollmentRepository) RangesByCourse(ctx context.Context, courseID string) ([]domain.EnrollmentRange, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT course_id, start_id, end_id, section
		FROM course_enrollments
		WHERE course_id = $1
		ORDER BY start_id ASC`, courseID)
	if err != nil {
		return nil, fmt.Errorf("list enrollment ranges: %w", err)
	}
	defer rows.Close()

	var ranges []domain.EnrollmentRange
	for rows.Next() {
		var er domain.EnrollmentRange
		if err := rows.Scan(&er.CourseID, &er.StartID, &er.EndID, &er.Section); err != nil {
			return nil, err
		}
		ranges = append(ranges, er)
	}
	return ranges, rows.Err()
}
