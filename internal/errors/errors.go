package errors

import (
	"errors"
	"fmt"
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

// Is enables errors.Is() comparison for NotFoundError
func (e *NotFoundError) Is(target error) bool {
	t, ok := target.(*NotFoundError)
	if !ok {
		return false
	}
	return e.Entity == t.Entity
}

// AlreadyExistsError represents an error when a unique field collides
type AlreadyExistsError struct {
	Entity  string
	Context string // Additional context like "with this email"
}

func (e *AlreadyExistsError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s already exists %s", e.Entity, e.Context)
	}
	return fmt.Sprintf("%s already exists", e.Entity)
}

// Is enables errors.Is() comparison for AlreadyExistsError
func (e *AlreadyExistsError) Is(target error) bool {
	t, ok := target.(*AlreadyExistsError)
	if !ok {
		return false
	}
	return e.Entity == t.Entity
}

// ValidationError represents a validation error on a single field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// AuthenticationError represents authentication-related errors (401)
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

// AuthorizationError represents authorization-related errors (403).
// Code carries a machine-readable reason the frontend can branch on.
type AuthorizationError struct {
	Code    string
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

// Is enables errors.Is() comparison for AuthorizationError by code
func (e *AuthorizationError) Is(target error) bool {
	t, ok := target.(*AuthorizationError)
	if !ok {
		return false
	}
	return t.Code == "" || e.Code == t.Code
}

// StorageError represents an underlying database failure (500). The
// wrapped cause is logged but never leaked to clients in production.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Authorization codes
const (
	CodeAdminNotLeader = "ADMIN_NOT_LEADER_FORBIDDEN"
	CodeNotTeamLead    = "NOT_TEAM_LEAD_FORBIDDEN"
	CodeAdminOnly      = "ADMIN_ONLY_FORBIDDEN"
	CodeViewerReadOnly = "VIEWER_READ_ONLY"
)

// Entity Not Found Errors
var (
	ErrDaoNotFound          = &NotFoundError{Entity: "dao"}
	ErrTaskNotFound         = &NotFoundError{Entity: "task"}
	ErrUserNotFound         = &NotFoundError{Entity: "user"}
	ErrCommentNotFound      = &NotFoundError{Entity: "comment"}
	ErrNotificationNotFound = &NotFoundError{Entity: "notification"}
	ErrCredentialNotFound   = &NotFoundError{Entity: "credential"}
)

// Already Exists Errors
var (
	ErrUserExists      = &AlreadyExistsError{Entity: "user", Context: "with this email"}
	ErrDaoNumberExists = &AlreadyExistsError{Entity: "dao", Context: "with this numeroListe"}
)

// Authorization Errors
var (
	ErrAdminNotLeader = &AuthorizationError{
		Code:    CodeAdminNotLeader,
		Message: "admins may not change task progress, applicability or assignment on a dossier they do not lead",
	}
	ErrNotTeamLead = &AuthorizationError{
		Code:    CodeNotTeamLead,
		Message: "only the team lead of this dossier may change task execution state",
	}
	ErrAdminOnly = &AuthorizationError{
		Code:    CodeAdminOnly,
		Message: "this operation requires the admin role",
	}
	ErrViewerReadOnly = &AuthorizationError{
		Code:    CodeViewerReadOnly,
		Message: "viewers have read-only access",
	}
)

// Authentication Errors
var (
	ErrInvalidCredentials = &AuthenticationError{Message: "invalid email or password"}
	ErrUserInactive       = &AuthenticationError{Message: "account is deactivated"}
	ErrInvalidToken       = &AuthenticationError{Message: "invalid or expired token"}
	ErrMissingToken       = &AuthenticationError{Message: "authorization header is required"}
)

// Business Logic Errors
var (
	ErrDaoNumberConflict       = errors.New("dao numbering conflict after retries")
	ErrInvalidPaginationParams = errors.New("invalid pagination parameters")
	ErrInvalidDateRange        = errors.New("dateFrom must not be after dateTo")
	ErrTaskOrderMismatch       = errors.New("task reorder must contain every existing task id exactly once")
)

// Helper Functions

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// IsAlreadyExists checks if an error is an AlreadyExistsError
func IsAlreadyExists(err error) bool {
	var existsErr *AlreadyExistsError
	return errors.As(err, &existsErr)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsAuthentication checks if an error is an AuthenticationError
func IsAuthentication(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// IsAuthorization checks if an error is an AuthorizationError
func IsAuthorization(err error) bool {
	var authzErr *AuthorizationError
	return errors.As(err, &authzErr)
}

// IsStorage checks if an error is a StorageError
func IsStorage(err error) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr)
}

// AuthorizationCode extracts the machine-readable code from an
// AuthorizationError, or "" when err is not one.
func AuthorizationCode(err error) string {
	var authzErr *AuthorizationError
	if errors.As(err, &authzErr) {
		return authzErr.Code
	}
	return ""
}

// NewNotFoundError creates a new NotFoundError for a custom entity
func NewNotFoundError(entity string) error {
	return &NotFoundError{Entity: entity}
}

// NewAlreadyExistsError creates a new AlreadyExistsError for a custom entity
func NewAlreadyExistsError(entity, context string) error {
	return &AlreadyExistsError{Entity: entity, Context: context}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewAuthenticationError creates a new AuthenticationError
func NewAuthenticationError(message string) error {
	return &AuthenticationError{Message: message}
}

// NewAuthorizationError creates a new AuthorizationError
func NewAuthorizationError(code, message string) error {
	return &AuthorizationError{Code: code, Message: message}
}

// NewStorageError wraps a database failure with the failed operation
func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
