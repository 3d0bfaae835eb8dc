package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SystemRole is a user's global role, independent of any project.
type SystemRole string

const (
	SystemRoleAdmin   SystemRole = "admin"
	SystemRoleManager SystemRole = "manager"
	SystemRoleUser    SystemRole = "user"
	SystemRoleViewer  SystemRole = "viewer"
)

// ParseSystemRole validates a raw role string against the closed role set.
func ParseSystemRole(raw string) (SystemRole, bool) {
	switch SystemRole(raw) {
	case SystemRoleAdmin, SystemRoleManager, SystemRoleUser, SystemRoleViewer:
		return SystemRole(raw), true
	}
	return "", false
}

// User represents the central user entity for logic and database structure
type User struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email      string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password   string         `gorm:"type:varchar(255);not null" json:"-"` // Omit password from JSON requests/responses
	FullName   string         `gorm:"type:varchar(255);not null" json:"full_name"`
	Department string         `gorm:"type:varchar(100)" json:"department"`
	Role       SystemRole     `gorm:"type:varchar(50);not null;default:'user'" json:"role"`
	IsActive   bool           `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
