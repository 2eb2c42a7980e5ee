package resolver

import (
	"context"
	"errors"

	"github.com/coursehub/notify/internal/domain"
	"github.com/coursehub/notify/internal/repository"
)

// TokenLookup finds the stored push token for an email address.
// The address is first classified to pick the user collection, then that
// user's push_token field is read. Every miss — unclassifiable address,
// no such user, user without a token — yields ("", nil): absence is not an
// error, it just means push delivery is skipped for that target.
type TokenLookup struct {
	users      repository.UserRepository
	classifier *domain.RoleClassifier
}

func NewTokenLookup(users repository.UserRepository, classifier *domain.RoleClassifier) *TokenLookup {
	return &TokenLookup{users: users, classifier: classifier}
}

func (l *TokenLookup) PushToken(ctx context.Context, email string) (string, error) {
	var token *string

	switch l.classifier.Classify(email) {
	case domain.RoleStudent:
		s, err := l.users.StudentByEmail(ctx, email)
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		token = s.PushToken
	case domain.RoleTeacher:
		t, err := l.users.TeacherByEmail(ctx, email)
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		token = t.PushToken
	default:
		return "", nil
	}

	if token == nil {
		return "", nil
	}
	return *token, nil
}
