package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidJobKind    = errors.New("invalid job kind")
	ErrInvalidRole       = errors.New("invalid role: must be student or teacher")
	ErrMissingEmail      = errors.New("email must not be empty")
	ErrMissingEmails     = errors.New("emails must contain at least one address")
	ErrMissingCourse     = errors.New("course_id must not be empty")
	ErrMissingTitle      = errors.New("title must not be empty")
	ErrMissingBody       = errors.New("body must not be empty")
	ErrMissingToken      = errors.New("push token must not be empty")
	ErrUnrecognizedEmail = errors.New("email does not match any known account format")
	ErrBatchEmpty        = errors.New("batch must contain at least one notification")
	ErrBatchTooLarge     = errors.New("batch exceeds maximum of 1000 notifications")
	ErrQueueFull         = errors.New("queue is at capacity, try again later")
)
