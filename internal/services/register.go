package services

import (
	"context"
	"errors"

	"task-tracker/backend/internal/apperr"
	"task-tracker/backend/internal/models"

	"github.com/gofrs/uuid"
)

// Register creates an account. The email pre-check gives the common case a
// clean answer; the unique index settles races between concurrent signups.
func (s *AuthServiceImpl) Register(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.ErrDuplicateEmail
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &models.User{
		ID:    id,
		Name:  req.Name,
		Email: req.Email,
	}
	if err := user.SetPassword(req.Password, s.bcryptCost); err != nil {
		return nil, apperr.Internal(err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrDuplicateEmail) {
			return nil, apperr.ErrDuplicateEmail
		}
		return nil, err
	}

	s.log.InfoContext(ctx, "user registered", "user_id", user.ID.String())
	return user, nil
}
