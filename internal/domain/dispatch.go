package domain

// Channel is the delivery channel for a single outbound attempt.
type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
)

// NoTokenDetail is recorded as the push outcome's error detail when the
// recipient has no stored push token. It is a resolution miss, not an error:
// the push gateway is never called and only email is attempted.
const NoTokenDetail = "no-token"

// DeliveryOutcome is the result of one channel attempt for one target.
type DeliveryOutcome struct {
	Channel     Channel `json:"channel"`
	Success     bool    `json:"success"`
	ErrorDetail string  `json:"error_detail,omitempty"`
}

// TargetResult is the per-recipient pair of channel outcomes.
// Success is true when at least one channel succeeded: a stale push token
// must not count as total failure while email still gets through.
type TargetResult struct {
	Recipient string          `json:"recipient"`
	Success   bool            `json:"success"`
	Push      DeliveryOutcome `json:"push"`
	Email     DeliveryOutcome `json:"email"`
}

// DispatchSummary aggregates per-target results for one job.
// Invariant: Total == Successful + Failed == len(Results).
type DispatchSummary struct {
	Total      int            `json:"total"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	Results    []TargetResult `json:"results"`
}

// NewDispatchSummary computes the counters from results, preserving order.
func NewDispatchSummary(results []TargetResult) DispatchSummary {
	s := DispatchSummary{
		Total:   len(results),
		Results: results,
	}
	for _, r := range results {
		if r.Success {
			s.Successful++
		} else {
			s.Failed++
		}
	}
	return s
}

// TargetKind discriminates the RecipientDescriptor variants.
type TargetKind string

const (
	TargetEmail  TargetKind = "email"
	TargetEmails TargetKind = "emails"
	TargetCourse TargetKind = "course"
	TargetRole   TargetKind = "role"
)

// Target is a logical recipient descriptor. It is resolved at dispatch time,
// never stored, so membership changes between enqueue and drain are picked up.
type Target struct {
	Kind     TargetKind
	Email    string
	Emails   []string
	CourseID string
	Role     Role
}

func SingleTarget(email string) Target    { return Target{Kind: TargetEmail, Email: email} }
func ListTarget(emails []string) Target   { return Target{Kind: TargetEmails, Emails: emails} }
func CourseTarget(courseID string) Target { return Target{Kind: TargetCourse, CourseID: courseID} }
func RoleTarget(role Role) Target         { return Target{Kind: TargetRole, Role: role} }
