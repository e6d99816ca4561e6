package service

import (
	"context"
	"fmt"
	"time"

	"dao-tracker-backend/internal/auth"
	apperrors "dao-tracker-backend/internal/errors"
	"dao-tracker-backend/internal/models"
	"dao-tracker-backend/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// SessionInvalidator revokes every active session of a user. Satisfied
// by the auth service; injected so user management can cut access
// immediately on deactivation.
type SessionInvalidator interface {
	InvalidateUserSessions(userID string)
}

// UserService handles user account management
type UserService struct {
	users       repository.UserRepository
	credentials repository.CredentialRepository
	sessions    SessionInvalidator
	notifier    *NotificationService
	validator   *validator.Validate
}

// NewUserService creates a new user service
func NewUserService(
	users repository.UserRepository,
	credentials repository.CredentialRepository,
	sessions SessionInvalidator,
	notifier *NotificationService,
	validator *validator.Validate,
) *UserService {
	return &UserService{
		users:       users,
		credentials: credentials,
		sessions:    sessions,
		notifier:    notifier,
		validator:   validator,
	}
}

// CreateUserRequest represents the request to create a user account
type CreateUserRequest struct {
	Name     string          `json:"name" validate:"required,min=1,max=200"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=8"`
	Role     models.UserRole `json:"role" validate:"required,oneof=admin user viewer"`
}

// Create registers a new account with a hashed credential.
func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Role:      req.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.credentials.Upsert(ctx, &models.Credential{
		UserID:       user.ID,
		PasswordHash: hash,
		UpdatedAt:    now,
	}); err != nil {
		return nil, err
	}

	return user, nil
}

// List returns every account, active and deactivated.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// GetByID retrieves an account by id.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

// Deactivate soft-deletes the account and revokes its sessions so the
// user is cut off immediately, not at token expiry.
func (s *UserService) Deactivate(ctx context.Context, actorID, id string) (*models.User, error) {
	if actorID == id {
		return nil, apperrors.NewValidationError("id", "cannot deactivate your own account")
	}

	user, err := s.users.SetActive(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}

	s.sessions.InvalidateUserSessions(id)
	s.notifier.Broadcast(models.NotificationUserDeactivated,
		"Compte desactive",
		fmt.Sprintf("Le compte de %s a ete desactive", user.Name),
		map[string]interface{}{"userId": user.ID},
	)
	return user, nil
}

// Reactivate restores a deactivated account.
func (s *UserService) Reactivate(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.SetActive(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}
