package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/coursehub/notify/internal/domain"
)

// MockJobRepository is a hand-written, in-memory implementation of
// JobRepository used in unit tests. No mock-generation library needed.
type MockJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job

	// Optional error overrides — set in tests to simulate failure paths.
	CreateErr  error
	GetByIDErr error
}

func NewMockJobRepository() *MockJobRepository {
	return &MockJobRepository{jobs: make(map[string]*domain.Job)}
}

func (m *MockJobRepository) Create(_ context.Context, j *domain.Job) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *j
	m.jobs[j.ID] = &clone
	return nil
}

func (m *MockJobRepository) GetByID(_ context.Context, id string) (*domain.Job, error) {
	if m.GetByIDErr != nil {
		return nil, m.GetByIDErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *j
	return &clone, nil
}

func (m *MockJobRepository) UpdateStatus(_ context.Context, id string, status domain.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.Status = status
		j.UpdatedAt = time.Now()
	}
	return nil
}

func (m *MockJobRepository) MarkDone(_ context.Context, id string, result domain.DispatchSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.Status = domain.StatusDone
		j.Result = &result
		j.ErrorMessage = nil
		j.NextRetryAt = nil
	}
	return nil
}

func (m *MockJobRepository) MarkFailed(_ context.Context, id, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.Status = domain.StatusFailed
		j.ErrorMessage = &errMsg
		j.NextRetryAt = nil
	}
	return nil
}

func (m *MockJobRepository) ScheduleRetry(_ context.Context, id string, attempts int, nextRetry time.Time, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.Status = domain.StatusFailed
		j.Attempts = attempts
		j.NextRetryAt = &nextRetry
		j.ErrorMessage = &errMsg
	}
	return nil
}

// CountByStatus is a test helper for asserting repository state.
func (m *MockJobRepository) CountByStatus(status domain.JobStatus) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, j := range m.jobs {
		if j.Status == status {
			n++
		}
	}
	return n
}

func (m *MockJobRepository) FindDueRetries(_ context.Context) ([]*domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	var due []*domain.Job
	for _, j := range m.jobs {
		if j.Status == domain.StatusFailed &&
			j.Attempts <= j.MaxRetries &&
			j.NextRetryAt != nil && !j.NextRetryAt.After(now) {
			clone := *j
			due = append(due, &clone)
		}
	}
	return due, nil
}

func (m *MockJobRepository) FindStranded(_ context.Context, cutoff time.Time) ([]*domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stranded []*domain.Job
	for _, j := range m.jobs {
		if (j.Status == domain.StatusQueued || j.Status == domain.StatusProcessing) &&
			!j.UpdatedAt.After(cutoff) {
			clone := *j
			stranded = append(stranded, &clone)
		}
	}
	return stranded, nil
}

// MockUserRepository serves students/teachers from in-memory maps.
type MockUserRepository struct {
	mu       sync.RWMutex
	students map[string]*domain.Student // by email
	teachers map[string]*domain.Teacher // by email

	StudentEmailsErr error
	TeacherEmailsErr error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		students: make(map[string]*domain.Student),
		teachers: make(map[string]*domain.Teacher),
	}
}

func (m *MockUserRepository) AddStudent(s domain.Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := s
	m.students[s.Email] = &clone
}

func (m *MockUserRepository) AddTeacher(t domain.Teacher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := t
	m.teachers[t.Email] = &clone
}

func (m *MockUserRepository) StudentByEmail(_ context.Context, email string) (*domain.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (m *MockUserRepository) TeacherByEmail(_ context.Context, email string) (*domain.Teacher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.teachers[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (m *MockUserRepository) StudentEmails(_ context.Context) ([]string, error) {
	if m.StudentEmailsErr != nil {
		return nil, m.StudentEmailsErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]*domain.Student, 0, len(m.students))
	for _, s := range m.students {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].StudentID < list[j].StudentID })
	emails := make([]string, len(list))
	for i, s := range list {
		emails[i] = s.Email
	}
	return emails, nil
}

func (m *MockUserRepository) TeacherEmails(_ context.Context) ([]string, error) {
	if m.TeacherEmailsErr != nil {
		return nil, m.TeacherEmailsErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	emails := make([]string, 0, len(m.teachers))
	for e := range m.teachers {
		emails = append(emails, e)
	}
	sort.Strings(emails)
	return emails, nil
}

func (m *MockUserRepository) StudentEmailsByIDs(_ context.Context, ids []int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var matched []*domain.Student
	for _, s := range m.students {
		if wanted[s.StudentID] {
			matched = append(matched, s)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].StudentID < matched[j].StudentID })
	emails := make([]string, len(matched))
	for i, s := range matched {
		emails[i] = s.Email
	}
	return emails, nil
}

func (m *MockUserRepository) SetStudentPushToken(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[email]
	if !ok {
		return domain.ErrNotFound
	}
	s.PushToken = &token
	return nil
}

func (m *MockUserRepository) SetTeacherPushToken(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teachers[email]
	if !ok {
		return domain.ErrNotFound
	}
	t.PushToken = &token
	return nil
}

// MockEnrollmentRepository serves enrollment ranges from a map keyed by course.
type MockEnrollmentRepository struct {
	mu     sync.RWMutex
	ranges map[string][]domain.EnrollmentRange
}

func NewMockEnrollmentRepository() *MockEnrollmentRepository {
	return &MockEnrollmentRepository{ranges: make(map[string][]domain.EnrollmentRange)}
}

func (m *MockEnrollmentRepository) AddRange(r domain.EnrollmentRange) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ranges[r.CourseID] = append(m.ranges[r.CourseID], r)
}

func (m *MockEnrollmentRepository) RangesByCourse(_ context.Context, courseID string) ([]domain.EnrollmentRange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.EnrollmentRange(nil), m.ranges[courseID]...), nil
}
