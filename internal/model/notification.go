package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType enum constants
const (
	NotificationInfo    = "info"
	NotificationWarning = "warning"
	NotificationError   = "error"
	NotificationSuccess = "success"
)

// Notification is a per-user message created exclusively by the dispatcher.
// The only mutation after insert is flipping the read flag.
type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Type      string    `gorm:"type:varchar(20);not null;default:'info'" json:"type"`
	IsRead    bool      `gorm:"default:false;index" json:"is_read"`
	ActionURL string    `gorm:"type:text" json:"action_url"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
