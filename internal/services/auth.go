package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"task-tracker/backend/internal/apperr"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/repositories"

	"github.com/gofrs/uuid"
)

type AuthService interface {
	Register(ctx context.Context, req models.SignupRequest) (*models.User, error)
	Authenticate(ctx context.Context, req models.LoginRequest) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update models.ProfileUpdate) (*models.User, error)
}

type AuthServiceImpl struct {
	users      repositories.UserRepository
	bcryptCost int
	log        *slog.Logger

	dummyOnce sync.Once
	dummy     models.User
}

func NewAuthService(users repositories.UserRepository, bcryptCost int, log *slog.Logger) *AuthServiceImpl {
	if log == nil {
		log = slog.Default()
	}
	return &AuthServiceImpl{users: users, bcryptCost: bcryptCost, log: log}
}

// Authenticate resolves credentials to a user. Unknown emails and wrong
// passwords are indistinguishable to the caller, including in timing: an
// unknown email is still compared against a hash of the same cost.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	req.Email = models.NormalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.dummyUser().CheckPassword(req.Password)
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.CheckPassword(req.Password) {
		return nil, apperr.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthServiceImpl) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

// UpdateProfile changes name and/or password. The stored hash is replaced
// only when the new password differs from the current one.
func (s *AuthServiceImpl) UpdateProfile(ctx context.Context, id uuid.UUID, update models.ProfileUpdate) (*models.User, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Password != nil && !user.CheckPassword(*update.Password) {
		if err := user.SetPassword(*update.Password, s.bcryptCost); err != nil {
			return nil, apperr.Internal(err)
		}
		s.log.InfoContext(ctx, "password changed", "user_id", user.ID.String())
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthServiceImpl) dummyUser() *models.User {
	s.dummyOnce.Do(func() {
		if err := s.dummy.SetPassword("dummy-password-for-timing", s.bcryptCost); err != nil {
			s.log.Error("failed to prepare dummy hash", "error", err)
		}
	})
	return &s.dummy
}
