package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProjectStatus enum constants
const (
	ProjectStatusPlanning  = "planning"
	ProjectStatusActive    = "active"
	ProjectStatusOnHold    = "on_hold"
	ProjectStatusCompleted = "completed"
	ProjectStatusCancelled = "cancelled"
)

// ValidProjectStatus reports whether s belongs to the closed project status set.
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusOnHold,
		ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}

// Project is the unit of budget ownership. ManagerID is the creator/primary owner.
type Project struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name            string          `gorm:"type:varchar(255);not null" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	TotalBudget     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_budget"`
	AllocatedBudget decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"allocated_budget"`
	SpentBudget     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"spent_budget"`
	Currency        string          `gorm:"type:varchar(10);not null;default:'USD'" json:"currency"`
	StartDate       *time.Time      `json:"start_date"`
	EndDate         *time.Time      `json:"end_date"`
	Status          string          `gorm:"type:varchar(20);not null;default:'planning';index" json:"status"`
	BusinessUnitID  *uuid.UUID      `gorm:"type:uuid;index" json:"business_unit_id"`
	BusinessUnit    *BusinessUnit   `gorm:"foreignKey:BusinessUnitID" json:"business_unit,omitempty"`
	ManagerID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"manager_id"`
	Manager         *User           `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BusinessUnit groups projects under an owning organisation branch
type BusinessUnit struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	HeadUserID  *uuid.UUID `gorm:"type:uuid" json:"head_user_id"`
	Head        *User      `gorm:"foreignKey:HeadUserID" json:"head,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// MilestoneStatus enum constants
const (
	MilestoneStatusPending    = "pending"
	MilestoneStatusInProgress = "in_progress"
	MilestoneStatusCompleted  = "completed"
)

// ValidMilestoneStatus reports whether s belongs to the closed milestone status set.
func ValidMilestoneStatus(s string) bool {
	switch s {
	case MilestoneStatusPending, MilestoneStatusInProgress, MilestoneStatusCompleted:
		return true
	}
	return false
}

// Milestone is a dated checkpoint inside a project
type Milestone struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"project_id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Progress    int        `gorm:"not null;default:0" json:"progress"` // 0..100
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
