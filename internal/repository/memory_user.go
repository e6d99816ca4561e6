package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "dao-tracker-backend/internal/errors"
	"dao-tracker-backend/internal/models"
)

// MemoryUserRepository keeps user accounts in a process-local map.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// NewMemoryUserRepository creates an empty in-memory user store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]models.User)}
}

// Create stores the user, enforcing case-insensitive email uniqueness.
func (r *MemoryUserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lower := strings.ToLower(user.Email)
	for id := range r.users {
		if strings.ToLower(r.users[id].Email) == lower {
			return apperrors.ErrUserExists
		}
	}

	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lower := strings.ToLower(email)
	for id := range r.users {
		if strings.ToLower(r.users[id].Email) == lower {
			user := r.users[id]
			return &user, nil
		}
	}
	return nil, nil
}

// List returns every user sorted by creation time, oldest first.
func (r *MemoryUserRepository) List(ctx context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]models.User, 0, len(r.users))
	for id := range r.users {
		users = append(users, r.users[id])
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// SetActive flips the soft-delete flag and returns the updated user.
func (r *MemoryUserRepository) SetActive(ctx context.Context, id string, active bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	user.IsActive = active
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return &user, nil
}

func (r *MemoryUserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	user.LastLoginAt = &at
	r.users[id] = user
	return nil
}

func (r *MemoryUserRepository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = make(map[string]models.User)
	return nil
}

// MemoryCredentialRepository keeps password hashes in a map keyed by user id.
type MemoryCredentialRepository struct {
	mu    sync.RWMutex
	creds map[string]models.Credential
}

// NewMemoryCredentialRepository creates an empty in-memory credential store.
func NewMemoryCredentialRepository() *MemoryCredentialRepository {
	return &MemoryCredentialRepository{creds: make(map[string]models.Credential)}
}

func (r *MemoryCredentialRepository) Upsert(ctx context.Context, cred *models.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.creds[cred.UserID] = *cred
	return nil
}

func (r *MemoryCredentialRepository) GetByUserID(ctx context.Context, userID string) (*models.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cred, ok := r.creds[userID]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

func (r *MemoryCredentialRepository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.creds = make(map[string]models.Credential)
	return nil
}
