package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the account role driving capability checks.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTechnician Role = "technician"
	RoleDean       Role = "dean"
	RoleITSD       Role = "itsd"
)

func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleAdmin, RoleTechnician, RoleDean, RoleITSD:
		return r, nil
	}
	return "", fmt.Errorf("invalid role %q: must be one of admin, dean, itsd, technician", raw)
}

// Placeholder credentials of the seeded admin account.
const (
	DefaultAdminName     = "admin"
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme"
)

// User represents the users table
type User struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	Name                  string    `gorm:"size:100;not null" json:"name"`
	Email                 string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash          string    `gorm:"size:255;not null" json:"-"`
	Role                  Role      `gorm:"size:20;not null;default:'technician'" json:"role"`
	Year                  string    `gorm:"size:20" json:"year"`
	ProfileImage          string    `gorm:"size:255" json:"profile"`
	IsDefaultAdmin        bool      `gorm:"not null;default:false" json:"is_default_admin"`
	NeedsCredentialUpdate bool      `gorm:"not null;default:false" json:"needs_credential_update"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// RefreshToken represents the refresh_tokens table
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	TokenHash string    `gorm:"not null;size:255;index" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for RefreshToken model
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
