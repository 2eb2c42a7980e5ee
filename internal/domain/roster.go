package domain

// Student is a row of the students collection, keyed by numeric id.
type Student struct {
	StudentID int64   `json:"student_id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	PushToken *string `json:"push_token,omitempty"`
}

// Teacher is a row of the teachers collection, keyed by email.
type Teacher struct {
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	PushToken *string `json:"push_token,omitempty"`
}

// EnrollmentRange enrolls the closed interval [StartID, EndID] of student ids
// in a course section. A course may have several rows; they do not overlap by
// construction elsewhere. A student is enrolled if any row contains their id.
type EnrollmentRange struct {
	CourseID string `json:"course_id"`
	StartID  int64  `json:"start_id"`
	EndID    int64  `json:"end_id"`
	Section  string `json:"section"`
}

// Contains reports whether id falls inside the closed interval.
func (r EnrollmentRange) Contains(id int64) bool {
	return id >= r.StartID && id <= r.EndID
}
