package domain

import "time"

// JobKind identifies which dispatch operation a queued job performs.
// The set is closed: the worker routes with an exhaustive switch and treats
// anything else as a fatal-to-that-job error.
type JobKind string

const (
	KindSendToUser   JobKind = "send-to-user"
	KindSendToUsers  JobKind = "send-to-users"
	KindSendToCourse JobKind = "send-to-course"
	KindSendToRole   JobKind = "send-to-role"
	KindSendBatch    JobKind = "send-batch"
)

func (k JobKind) IsValid() bool {
	switch k {
	case KindSendToUser, KindSendToUsers, KindSendToCourse, KindSendToRole, KindSendBatch:
		return true
	}
	return false
}

// Kinds lists every job kind in a fixed order. The worker starts one consumer
// per entry and the metrics snapshot reports depths in this order.
func Kinds() []JobKind {
	return []JobKind{KindSendToUser, KindSendToUsers, KindSendToCourse, KindSendToRole, KindSendBatch}
}

// JobStatus tracks the lifecycle of a queued job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusDone       JobStatus = "done"
	StatusFailed     JobStatus = "failed"
)

// BatchItem is one entry of a send-batch payload. Unlike the other kinds,
// each item carries its own title/body/data.
type BatchItem struct {
	Email string            `json:"email"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// JobPayload is the union of all per-kind payload shapes. Which fields are
// required depends on the job kind; Validate enforces the shape for a kind.
// Stored as jsonb on the job row, immutable once enqueued.
type JobPayload struct {
	Email         string            `json:"email,omitempty"`
	Emails        []string          `json:"emails,omitempty"`
	CourseID      string            `json:"course_id,omitempty"`
	Role          Role              `json:"role,omitempty"`
	Title         string            `json:"title,omitempty"`
	Body          string            `json:"body,omitempty"`
	Data          map[string]string `json:"data,omitempty"`
	Notifications []BatchItem       `json:"notifications,omitempty"`
}

// Validate checks that the payload carries every field the kind requires.
// Called at enqueue time so malformed payloads never reach the worker.
func (p JobPayload) Validate(kind JobKind) error {
	switch kind {
	case KindSendToUser:
		if p.Email == "" {
			return ErrMissingEmail
		}
		return p.validateContent()
	case KindSendToUsers:
		if len(p.Emails) == 0 {
			return ErrMissingEmails
		}
		return p.validateContent()
	case KindSendToCourse:
		if p.CourseID == "" {
			return ErrMissingCourse
		}
		return p.validateContent()
	case KindSendToRole:
		if !p.Role.IsValid() {
			return ErrInvalidRole
		}
		return p.validateContent()
	case KindSendBatch:
		if len(p.Notifications) == 0 {
			return ErrBatchEmpty
		}
		if len(p.Notifications) > 1000 {
			return ErrBatchTooLarge
		}
		for _, item := range p.Notifications {
			if item.Email == "" {
				return ErrMissingEmail
			}
			if item.Title == "" {
				return ErrMissingTitle
			}
			if item.Body == "" {
				return ErrMissingBody
			}
		}
		return nil
	default:
		return ErrInvalidJobKind
	}
}

func (p JobPayload) validateContent() error {
	if p.Title == "" {
		return ErrMissingTitle
	}
	if p.Body == "" {
		return ErrMissingBody
	}
	return nil
}

// Job is the persisted unit of work. The queue carries only the ID; the row
// is authoritative, so a restart can recover anything not yet done.
type Job struct {
	ID           string           `json:"id"`
	Kind         JobKind          `json:"kind"`
	Payload      JobPayload       `json:"payload"`
	Status       JobStatus        `json:"status"`
	Attempts     int              `json:"attempts"`
	MaxRetries   int              `json:"max_retries"`
	NextRetryAt  *time.Time       `json:"next_retry_at,omitempty"`
	ErrorMessage *string          `json:"error_message,omitempty"`
	Result       *DispatchSummary `json:"result,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}
