package resolver_test

import (
	"context"
	"testing"

	"github.com/coursehub/notify/internal/domain"
	"github.com/coursehub/notify/internal/repository"
	"github.com/coursehub/notify/internal/resolver"
)

func newTokenLookup(t *testing.T) (*resolver.TokenLookup, *repository.MockUserRepository) {
	t.Helper()
	classifier, err := domain.NewRoleClassifier(`^u\d{7}@campus\.edu$`, "@faculty.campus.edu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	users := repository.NewMockUserRepository()
	return resolver.NewTokenLookup(users, classifier), users
}

func TestTokenLookup_StudentWithToken(t *testing.T) {
	l, users := newTokenLookup(t)
	token := "ExponentPushToken[abc123]"
	users.AddStudent(domain.Student{StudentID: 101, Email: "u0000101@campus.edu", PushToken: &token})

	got, err := l.PushToken(context.Background(), "u0000101@campus.edu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != token {
		t.Fatalf("expected %q, got %q", token, got)
	}
}

func TestTokenLookup_TeacherWithToken(t *testing.T) {
	l, users := newTokenLookup(t)
	token := "ExponentPushToken[teach1]"
	users.AddTeacher(domain.Teacher{Email: "jane.doe@faculty.campus.edu", PushToken: &token})

	got, err := l.PushToken(context.Background(), "jane.doe@faculty.campus.edu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != token {
		t.Fatalf("expected %q, got %q", token, got)
	}
}

// Every miss — unclassifiable address, missing user, user without a stored
// token — must yield ("", nil): absence is not an error.
func TestTokenLookup_Misses(t *testing.T) {
	l, users := newTokenLookup(t)
	users.AddStudent(domain.Student{StudentID: 102, Email: "u0000102@campus.edu"}) // no token

	tests := []struct {
		name  string
		email string
	}{
		{"student without token", "u0000102@campus.edu"},
		{"student not in collection", "u0000999@campus.edu"},
		{"teacher not in collection", "ghost@faculty.campus.edu"},
		{"unclassifiable address", "random@gmail.com"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := l.PushToken(context.Background(), tc.email)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != "" {
				t.Fatalf("expected empty token, got %q", got)
			}
		})
	}
}
