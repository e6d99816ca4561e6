package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "dao-tracker-backend/internal/errors"
	"dao-tracker-backend/internal/models"
	"dao-tracker-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Config carries the token parameters of the auth service.
type Config struct {
	Secret   string
	Issuer   string
	Audience string
	TokenTTL time.Duration
}

// Claims represents JWT token claims
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// session is one entry of the active-session set. The expiry mirrors
// the token's exp claim so stale entries can be swept.
type session struct {
	userID    string
	expiresAt time.Time
}

// Service provides authentication: password verification, token
// issuance and validation, and the server-side active-session set.
type Service struct {
	config Config
	users  repository.UserRepository
	creds  repository.CredentialRepository

	// sessions maps token id (jti) to its session. A cryptographically
	// valid token whose jti is missing from the set is re-admitted,
	// which tolerates process restarts.
	sessions     map[string]session
	sessionMutex sync.RWMutex

	now func() time.Time
}

// NewService creates a new authentication service
func NewService(config Config, users repository.UserRepository, creds repository.CredentialRepository) (*Service, error) {
	if config.Secret == "" {
		return nil, fmt.Errorf("auth: secret must not be empty")
	}
	if config.TokenTTL <= 0 {
		config.TokenTTL = 24 * time.Hour
	}
	return &Service{
		config:   config,
		users:    users,
		creds:    creds,
		sessions: make(map[string]session),
		now:      time.Now,
	}, nil
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login verifies the email/password pair, admits a session, and stamps
// the user's last login.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrUserInactive
	}

	cred, err := s.creds.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, jti, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.sessionMutex.Lock()
	s.sweepExpiredLocked()
	s.sessions[jti] = session{userID: user.ID, expiresAt: s.now().Add(s.config.TokenTTL)}
	s.sessionMutex.Unlock()

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	return &LoginResult{Token: token, User: user}, nil
}

// generateToken signs a JWT with issuer/audience claims and a fresh jti.
func (s *Service) generateToken(user *models.User) (string, string, error) {
	now := time.Now()
	jti := uuid.NewString()
	claims := &Claims{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.config.Issuer,
			Audience:  jwt.ClaimStrings{s.config.Audience},
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	return signed, jti, err
}

// ValidateToken parses and verifies a JWT and resolves the acting user.
// Tokens absent from the session set but otherwise valid are re-admitted
// unless the account was deactivated in the meantime.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*models.User, *Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(s.config.Issuer), jwt.WithAudience(s.config.Audience))
	if err != nil {
		return nil, nil, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, nil, apperrors.ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !user.IsActive {
		return nil, nil, apperrors.ErrInvalidToken
	}

	expiry := s.now().Add(s.config.TokenTTL)
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	s.sessionMutex.Lock()
	if _, active := s.sessions[claims.ID]; !active {
		s.sessions[claims.ID] = session{userID: user.ID, expiresAt: expiry}
	}
	s.sessionMutex.Unlock()

	return user, claims, nil
}

// Logout removes the token's session. Idempotent.
func (s *Service) Logout(jti string) {
	s.sessionMutex.Lock()
	delete(s.sessions, jti)
	s.sessionMutex.Unlock()
}

// InvalidateUserSessions drops every session of the user. Called on
// deactivation so outstanding tokens stop working immediately.
func (s *Service) InvalidateUserSessions(userID string) {
	s.sessionMutex.Lock()
	for jti, sess := range s.sessions {
		if sess.userID == userID {
			delete(s.sessions, jti)
		}
	}
	s.sessionMutex.Unlock()
}

// ResetSessions empties the active-session set. Admin reset path.
func (s *Service) ResetSessions() {
	s.sessionMutex.Lock()
	s.sessions = make(map[string]session)
	s.sessionMutex.Unlock()
}

// sweepExpiredLocked drops sessions whose tokens have expired; such
// entries would otherwise accumulate for the process lifetime. Callers
// must hold the write lock.
func (s *Service) sweepExpiredLocked() {
	now := s.now()
	for jti, sess := range s.sessions {
		if sess.expiresAt.Before(now) {
			delete(s.sessions, jti)
		}
	}
}

// HashPassword produces a bcrypt hash for storage in the credential table.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
