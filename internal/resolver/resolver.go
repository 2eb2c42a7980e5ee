// Package resolver turns logical recipient descriptors (a user, a list of
// users, a course, a role) into concrete email addresses. Resolution is
// recomputed per dispatch, so roster changes between enqueue and drain are
// reflected at drain time.
package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/coursehub/notify/internal/domain"
	"github.com/coursehub/notify/internal/repository"
)

// Resolver resolves targets against the user and enrollment collections.
type Resolver struct {
	users       repository.UserRepository
	enrollments repository.EnrollmentRepository
}

func New(users repository.UserRepository, enrollments repository.EnrollmentRepository) *Resolver {
	return &Resolver{users: users, enrollments: enrollments}
}

// Resolve returns the concrete email addresses for a target.
//
// Single and list targets pass through without lookups. The worker fast-paths
// those two kinds straight to the dispatcher; the variants are kept here so
// Resolve covers the complete target contract for any caller holding a
// domain.Target. A list is NOT deduplicated: the caller's list is trusted
// as-is, so duplicate input addresses receive duplicate notifications (known
// quirk, kept on purpose). Course and role targets are deduplicated by
// construction. An empty resolution (no enrollments, no matching students,
// empty collection) is not an error; the dispatcher short-circuits to an
// empty summary.
func (r *Resolver) Resolve(ctx context.Context, target domain.Target) ([]string, error) {
	switch target.Kind {
	case domain.TargetEmail:
		return []string{target.Email}, nil
	case domain.TargetEmails:
		return target.Emails, nil
	case domain.TargetCourse:
		return r.courseEmails(ctx, target.CourseID)
	case domain.TargetRole:
		return r.roleEmails(ctx, target.Role)
	default:
		return nil, fmt.Errorf("unknown target kind %q", target.Kind)
	}
}

// courseEmails unions the course's enrollment ranges into a candidate id set
// and returns the emails of students that actually exist in that set.
// Students with ids inside a range but no row are silently excluded.
func (r *Resolver) courseEmails(ctx context.Context, courseID string) ([]string, error) {
	ranges, err := r.enrollments.RangesByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("enrollment ranges for course %s: %w", courseID, err)
	}
	if len(ranges) == 0 {
		return nil, nil
	}

	ids := expandRanges(ranges)
	if len(ids) == 0 {
		return nil, nil
	}

	emails, err := r.users.StudentEmailsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("students in course %s: %w", courseID, err)
	}
	return emails, nil
}

func (r *Resolver) roleEmails(ctx context.Context, role domain.Role) ([]string, error) {
	switch role {
	case domain.RoleStudent:
		return r.users.StudentEmails(ctx)
	case domain.RoleTeacher:
		return r.users.TeacherEmails(ctx)
	default:
		return nil, domain.ErrInvalidRole
	}
}

// expandRanges unions closed intervals into a sorted, deduplicated id slice.
// Ranges are small bulk-enrollment blocks; expansion in memory is fine.
func expandRanges(ranges []domain.EnrollmentRange) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, er := range ranges {
		if er.EndID < er.StartID {
			continue
		}
		for id := er.StartID; id <= er.EndID; id++ {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
