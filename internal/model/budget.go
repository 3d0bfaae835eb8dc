package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetCategory splits a project's budget into named buckets.
// Name is unique per project.
type BudgetCategory struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_project_category" json:"project_id"`
	Name            string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_project_category" json:"name"`
	AllocatedAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"allocated_amount"`
	SpentAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"spent_amount"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// BudgetVersion is an append-only snapshot of a project's budget figures,
// written on every budget mutation so edits stay auditable.
type BudgetVersion struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"project_id"`
	VersionNo       int             `gorm:"not null" json:"version_no"`
	TotalBudget     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_budget"`
	AllocatedBudget decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"allocated_budget"`
	SpentBudget     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"spent_budget"`
	Reason          string          `gorm:"type:text" json:"reason"`
	ChangedBy       *uuid.UUID      `gorm:"type:uuid" json:"changed_by"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
}
