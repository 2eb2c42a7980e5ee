package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/coursehub/notify/internal/dispatch"
	"github.com/coursehub/notify/internal/domain"
	"github.com/coursehub/notify/internal/gateway"
	"github.com/coursehub/notify/internal/ratelimiter"
	"github.com/coursehub/notify/internal/repository"
	"github.com/coursehub/notify/internal/resolver"
)

// fakeTokens implements dispatch.TokenSource from a plain map.
type fakeTokens struct {
	tokens map[string]string
	err    error
}

func (f *fakeTokens) PushToken(_ context.Context, email string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.tokens[email], nil
}

// fakePush records every delivered message and answers with configurable tickets.
type fakePush struct {
	mu           sync.Mutex
	messages     []gateway.PushMessage
	sendErr      error
	ticketDetail string // non-empty = gateway-reported per-message error
}

func (f *fakePush) Send(_ context.Context, messages []gateway.PushMessage) ([]gateway.PushTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.messages = append(f.messages, messages...)
	tickets := make([]gateway.PushTicket, len(messages))
	for i := range tickets {
		if f.ticketDetail != "" {
			tickets[i] = gateway.PushTicket{Status: gateway.TicketError, Message: f.ticketDetail}
		} else {
			tickets[i] = gateway.PushTicket{Status: gateway.TicketOK, ID: "ticket-1"}
		}
	}
	return tickets, nil
}

func (f *fakePush) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

// fakeEmail records recipients and optionally fails every send.
type fakeEmail struct {
	mu         sync.Mutex
	recipients []string
	sendErr    error
}

func (f *fakeEmail) Send(_ context.Context, msg gateway.EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.recipients = append(f.recipients, msg.To)
	return nil
}

func (f *fakeEmail) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recipients)
}

type fixture struct {
	disp        *dispatch.Dispatcher
	push        *fakePush
	email       *fakeEmail
	tokens      *fakeTokens
	users       *repository.MockUserRepository
	enrollments *repository.MockEnrollmentRepository
}

func newFixture(chunkSize int, chunkDelay time.Duration) *fixture {
	users := repository.NewMockUserRepository()
	enrollments := repository.NewMockEnrollmentRepository()
	push := &fakePush{}
	email := &fakeEmail{}
	tokens := &fakeTokens{tokens: map[string]string{}}

	disp := dispatch.New(
		resolver.New(users, enrollments),
		tokens, push, email,
		ratelimiter.New(10000),
		zap.NewNop(),
		chunkSize, chunkDelay,
	)
	return &fixture{disp: disp, push: push, email: email, tokens: tokens, users: users, enrollments: enrollments}
}

func checkInvariant(t *testing.T, s domain.DispatchSummary) {
	t.Helper()
	if s.Total != s.Successful+s.Failed || s.Total != len(s.Results) {
		t.Fatalf("summary invariant violated: total=%d successful=%d failed=%d len(results)=%d",
			s.Total, s.Successful, s.Failed, len(s.Results))
	}
}

func TestNotify_NoToken(t *testing.T) {
	f := newFixture(100, 0)

	res, err := f.disp.Notify(context.Background(), "a@x.com", "T", "B", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Push.Success {
		t.Fatal("expected push failure without a token")
	}
	if res.Push.ErrorDetail != domain.NoTokenDetail {
		t.Fatalf("expected %q detail, got %q", domain.NoTokenDetail, res.Push.ErrorDetail)
	}
	if f.push.count() != 0 {
		t.Fatal("push gateway must not be called without a token")
	}
	// Overall success tracks the email outcome when push is skipped.
	if res.Success != res.Email.Success || !res.Success {
		t.Fatalf("expected success to follow email outcome, got %+v", res)
	}
}

func TestNotify_OrSemantics(t *testing.T) {
	tests := []struct {
		name         string
		token        string
		pushErr      error
		ticketDetail string
		emailErr     error
		want         bool
	}{
		{"both succeed", "tok", nil, "", nil, true},
		{"push fails email succeeds", "tok", errors.New("gateway down"), "", nil, true},
		{"push ticket error email succeeds", "tok", nil, "DeviceNotRegistered", nil, true},
		{"push succeeds email fails", "tok", nil, "", errors.New("webhook down"), true},
		{"both fail", "tok", errors.New("gateway down"), "", errors.New("webhook down"), false},
		{"no token email fails", "", nil, "", errors.New("webhook down"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(100, 0)
			if tc.token != "" {
				f.tokens.tokens["a@x.com"] = tc.token
			}
			f.push.sendErr = tc.pushErr
			f.push.ticketDetail = tc.ticketDetail
			f.email.sendErr = tc.emailErr

			res, err := f.disp.Notify(context.Background(), "a@x.com", "T", "B", nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Success != tc.want {
				t.Fatalf("expected success=%v, got %+v", tc.want, res)
			}
			if res.Success != (res.Push.Success || res.Email.Success) {
				t.Fatal("success must be the OR of the channel outcomes")
			}
		})
	}
}

func TestNotify_PushTicketDetailRecorded(t *testing.T) {
	f := newFixture(100, 0)
	f.tokens.tokens["a@x.com"] = "tok"
	f.push.ticketDetail = "DeviceNotRegistered"

	res, err := f.disp.Notify(context.Background(), "a@x.com", "T", "B", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Push.ErrorDetail != "DeviceNotRegistered" {
		t.Fatalf("expected ticket detail recorded, got %q", res.Push.ErrorDetail)
	}
}

func TestNotifyMany_OrderAndCounts(t *testing.T) {
	f := newFixture(100, 0)
	emails := []string{"a@x.com", "b@x.com", "c@x.com"}

	s := f.disp.NotifyMany(context.Background(), emails, "T", "B", nil)

	checkInvariant(t, s)
	if s.Total != 3 || s.Successful != 3 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	for i, email := range emails {
		if s.Results[i].Recipient != email {
			t.Fatalf("result order not preserved: want %s at %d, got %s", email, i, s.Results[i].Recipient)
		}
	}
}

// Duplicate input addresses are dispatched twice; the list is trusted as-is.
func TestNotifyMany_NoDedup(t *testing.T) {
	f := newFixture(100, 0)

	s := f.disp.NotifyMany(context.Background(), []string{"a@x.com", "a@x.com"}, "T", "B", nil)

	checkInvariant(t, s)
	if s.Total != 2 {
		t.Fatalf("expected 2 dispatches for duplicate input, got %d", s.Total)
	}
	if f.email.count() != 2 {
		t.Fatalf("expected 2 email sends, got %d", f.email.count())
	}
}

// A token-lookup datastore failure is caught at the fan-out boundary and
// downgraded to a failed result for that target only — settle-all.
func TestNotifyMany_SettleAllOnTargetError(t *testing.T) {
	f := newFixture(100, 0)
	f.tokens.err = errors.New("datastore unreachable")

	s := f.disp.NotifyMany(context.Background(), []string{"a@x.com", "b@x.com"}, "T", "B", nil)

	checkInvariant(t, s)
	if s.Total != 2 || s.Failed != 2 {
		t.Fatalf("expected both targets recorded as failed, got %+v", s)
	}
}

func TestNotifyCourse_EmptyShortCircuit(t *testing.T) {
	f := newFixture(100, 0)

	s, err := f.disp.NotifyCourse(context.Background(), "EMPTY999", "T", "B", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checkInvariant(t, s)
	if s.Total != 0 || s.Successful != 0 || s.Failed != 0 || len(s.Results) != 0 {
		t.Fatalf("expected zero summary, got %+v", s)
	}
	if f.push.count() != 0 || f.email.count() != 0 {
		t.Fatal("delivery clients must not be invoked for an empty course")
	}
}

func TestNotifyCourse_ResolvesEnrolledStudents(t *testing.T) {
	f := newFixture(100, 0)
	f.users.AddStudent(domain.Student{StudentID: 101, Email: "u0000101@campus.edu"})
	f.users.AddStudent(domain.Student{StudentID: 102, Email: "u0000102@campus.edu"})
	f.users.AddStudent(domain.Student{StudentID: 105, Email: "u0000105@campus.edu"})
	f.enrollments.AddRange(domain.EnrollmentRange{CourseID: "CS101", StartID: 101, EndID: 103})
	f.enrollments.AddRange(domain.EnrollmentRange{CourseID: "CS101", StartID: 105, EndID: 105})

	s, err := f.disp.NotifyCourse(context.Background(), "CS101", "T", "B", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checkInvariant(t, s)
	if s.Total != 3 || s.Successful != 3 {
		t.Fatalf("expected 3 successful targets, got %+v", s)
	}
}

func TestNotifyRole_EmptyShortCircuit(t *testing.T) {
	f := newFixture(100, 0)

	s, err := f.disp.NotifyRole(context.Background(), domain.RoleTeacher, "T", "B", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checkInvariant(t, s)
	if s.Total != 0 || f.email.count() != 0 {
		t.Fatalf("expected zero summary without delivery calls, got %+v", s)
	}
}

func TestNotifyRole_InvalidRolePropagates(t *testing.T) {
	f := newFixture(100, 0)

	if _, err := f.disp.NotifyRole(context.Background(), "admin", "T", "B", nil); err == nil {
		t.Fatal("expected error for invalid role")
	}
}

// 250 items with chunk size 100 → chunks of 100/100/50 processed
// sequentially with exactly 2 inter-chunk pauses, results in input order.
// The delay dominates dispatch overhead, so elapsed time brackets the pause
// count: at least 2 delays, strictly under 3 (no pause after the last chunk).
func TestNotifyBatch_Chunking(t *testing.T) {
	const delay = 200 * time.Millisecond
	f := newFixture(100, delay)

	items := make([]domain.BatchItem, 250)
	for i := range items {
		items[i] = domain.BatchItem{
			Email: "user" + string(rune('a'+i%26)) + "@x.com",
			Title: "T", Body: "B",
		}
	}

	start := time.Now()
	s := f.disp.NotifyBatch(context.Background(), items)
	elapsed := time.Since(start)

	checkInvariant(t, s)
	if s.Total != 250 {
		t.Fatalf("expected total=250, got %d", s.Total)
	}
	for i, item := range items {
		if s.Results[i].Recipient != item.Email {
			t.Fatalf("result order not preserved at index %d", i)
		}
	}
	// Two pauses (after chunk 1 and chunk 2, never after the last chunk).
	if elapsed < 2*delay {
		t.Fatalf("expected two inter-chunk delays (%v), elapsed %v", 2*delay, elapsed)
	}
	if elapsed >= 3*delay {
		t.Fatalf("expected no pause after the last chunk, elapsed %v >= %v", elapsed, 3*delay)
	}
	if f.email.count() != 250 {
		t.Fatalf("expected 250 email sends, got %d", f.email.count())
	}
}

func TestNotifyBatch_SingleChunkNoDelay(t *testing.T) {
	const delay = 500 * time.Millisecond
	f := newFixture(100, delay)

	items := []domain.BatchItem{
		{Email: "a@x.com", Title: "T1", Body: "B1"},
		{Email: "b@x.com", Title: "T2", Body: "B2"},
	}

	start := time.Now()
	s := f.disp.NotifyBatch(context.Background(), items)
	elapsed := time.Since(start)

	checkInvariant(t, s)
	if s.Total != 2 || s.Successful != 2 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if elapsed >= delay {
		t.Fatalf("a single chunk must not pause, elapsed %v", elapsed)
	}
}
