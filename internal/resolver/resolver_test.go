package resolver_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/coursehub/notify/internal/domain"
	"github.com/coursehub/notify/internal/repository"
	"github.com/coursehub/notify/internal/resolver"
)

func seedRoster() (*repository.MockUserRepository, *repository.MockEnrollmentRepository) {
	users := repository.NewMockUserRepository()
	enrollments := repository.NewMockEnrollmentRepository()

	users.AddStudent(domain.Student{StudentID: 101, Email: "u0000101@campus.edu"})
	users.AddStudent(domain.Student{StudentID: 102, Email: "u0000102@campus.edu"})
	users.AddStudent(domain.Student{StudentID: 105, Email: "u0000105@campus.edu"})
	users.AddTeacher(domain.Teacher{Email: "jane.doe@faculty.campus.edu"})
	users.AddTeacher(domain.Teacher{Email: "john.roe@faculty.campus.edu"})

	return users, enrollments
}

func TestResolver_SingleAndListPassThrough(t *testing.T) {
	users, enrollments := seedRoster()
	r := resolver.New(users, enrollments)
	ctx := context.Background()

	got, err := r.Resolve(ctx, domain.SingleTarget("a@x.com"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"a@x.com"}) {
		t.Fatalf("unexpected single resolution: %v", got)
	}

	// The caller's list is trusted as-is: duplicates are NOT removed.
	list := []string{"a@x.com", "b@x.com", "a@x.com"}
	got, err = r.Resolve(ctx, domain.ListTarget(list))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, list) {
		t.Fatalf("expected list pass-through without dedup, got %v", got)
	}
}

// TestResolver_CourseRanges covers the range-union semantics: ranges
// [101-103] and [105-105] with only students 101, 102, 105 existing must
// yield exactly those three emails (103 does not exist, 104 never in range).
func TestResolver_CourseRanges(t *testing.T) {
	users, enrollments := seedRoster()
	enrollments.AddRange(domain.EnrollmentRange{CourseID: "CS101", StartID: 101, EndID: 103, Section: "A"})
	enrollments.AddRange(domain.EnrollmentRange{CourseID: "CS101", StartID: 105, EndID: 105, Section: "B"})

	r := resolver.New(users, enrollments)

	got, err := r.Resolve(context.Background(), domain.CourseTarget("CS101"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"u0000101@campus.edu", "u0000102@campus.edu", "u0000105@campus.edu"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestResolver_CourseWithoutEnrollments(t *testing.T) {
	users, enrollments := seedRoster()
	r := resolver.New(users, enrollments)

	got, err := r.Resolve(context.Background(), domain.CourseTarget("EMPTY999"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty resolution, got %v", got)
	}
}

func TestResolver_CourseOverlappingRanges(t *testing.T) {
	users, enrollments := seedRoster()
	enrollments.AddRange(domain.EnrollmentRange{CourseID: "CS102", StartID: 101, EndID: 102})
	enrollments.AddRange(domain.EnrollmentRange{CourseID: "CS102", StartID: 102, EndID: 105})

	r := resolver.New(users, enrollments)

	got, err := r.Resolve(context.Background(), domain.CourseTarget("CS102"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Overlap at 102 must not produce a duplicate email.
	want := []string{"u0000101@campus.edu", "u0000102@campus.edu", "u0000105@campus.edu"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestResolver_Roles(t *testing.T) {
	users, enrollments := seedRoster()
	r := resolver.New(users, enrollments)
	ctx := context.Background()

	students, err := r.Resolve(ctx, domain.RoleTarget(domain.RoleStudent))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(students) != 3 {
		t.Fatalf("expected 3 student emails, got %v", students)
	}

	teachers, err := r.Resolve(ctx, domain.RoleTarget(domain.RoleTeacher))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(teachers) != 2 {
		t.Fatalf("expected 2 teacher emails, got %v", teachers)
	}

	if _, err := r.Resolve(ctx, domain.RoleTarget("admin")); err != domain.ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestResolver_UnknownTargetKind(t *testing.T) {
	users, enrollments := seedRoster()
	r := resolver.New(users, enrollments)

	if _, err := r.Resolve(context.Background(), domain.Target{Kind: "carrier-pigeon"}); err == nil {
		t.Fatal("expected error for unknown target kind")
	}
}
