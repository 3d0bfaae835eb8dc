package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseStatus enum constants
const (
	ExpenseStatusPending  = "pending"
	ExpenseStatusApproved = "approved"
	ExpenseStatusRejected = "rejected"
	ExpenseStatusPaid     = "paid"
)

// ValidExpenseStatus reports whether s belongs to the closed expense status set.
func ValidExpenseStatus(s string) bool {
	switch s {
	case ExpenseStatusPending, ExpenseStatusApproved, ExpenseStatusRejected, ExpenseStatusPaid:
		return true
	}
	return false
}

// Expense is a cost entry charged against a project's budget category.
// Status moves pending -> approved | rejected exactly once; terminal states
// are only revisited through the admin override endpoint.
type Expense struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"project_id"`
	Project       *Project        `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	CategoryID    *uuid.UUID      `gorm:"type:uuid;index" json:"category_id"`
	Category      *BudgetCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Currency      string          `gorm:"type:varchar(10);not null;default:'USD'" json:"currency"`
	Description   string          `gorm:"type:text;not null" json:"description"`
	ExpenseDate   time.Time       `gorm:"not null" json:"expense_date"`
	Status        string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	SubmittedBy   uuid.UUID       `gorm:"type:uuid;not null;index" json:"submitted_by"`
	Submitter     *User           `gorm:"foreignKey:SubmittedBy" json:"submitter,omitempty"`
	ApprovedBy    *uuid.UUID      `gorm:"type:uuid" json:"approved_by"`
	Approver      *User           `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
	ReviewComment string          `gorm:"type:text" json:"review_comment"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
