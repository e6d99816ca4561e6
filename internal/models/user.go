package models

import "time"

// UserRole represents the global role of a user
type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleUser   UserRole = "user"
	UserRoleViewer UserRole = "viewer"
)

// User is an account of the application. Users are never hard-deleted;
// deactivation flips IsActive and invalidates sessions. The password
// hash lives in a separate credential record, never on the entity.
type User struct {
	ID          string     `json:"id" bson:"_id"`
	Name        string     `json:"name" bson:"name"`
	Email       string     `json:"email" bson:"email"`
	Role        UserRole   `json:"role" bson:"role"`
	IsActive    bool       `json:"isActive" bson:"isActive"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" bson:"lastLoginAt,omitempty"`
}

// IsAdmin reports whether the user carries the global admin role.
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// Credential stores the salted password hash for a user in a side table.
type Credential struct {
	UserID       string    `json:"userId" bson:"_id"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}
