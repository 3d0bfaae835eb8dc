package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateProject    = "CREATE_PROJECT"
	ActionUpdateProject    = "UPDATE_PROJECT"
	ActionDeleteProject    = "DELETE_PROJECT"
	ActionUpdateBudget     = "UPDATE_BUDGET"
	ActionCreateUser       = "CREATE_USER"
	ActionUpdateUser       = "UPDATE_USER"
	ActionDeleteUser       = "DELETE_USER"
	ActionAssignAdmin      = "ASSIGN_PROJECT_ADMIN"
	ActionRemoveAdmin      = "REMOVE_PROJECT_ADMIN"
	ActionApproveExpense   = "APPROVE_EXPENSE"
	ActionRejectExpense    = "REJECT_EXPENSE"
	ActionOverrideExpense  = "OVERRIDE_EXPENSE_STATUS"
	ActionDeleteExpense    = "DELETE_EXPENSE"
	ActionDeleteBudgetCat  = "DELETE_BUDGET_CATEGORY"
	ActionDeleteBizUnit    = "DELETE_BUSINESS_UNIT"
)

// AdminActivityLog tracks Who, What, and When for admin-initiated mutations.
// Append-only — rows are never updated or deleted.
type AdminActivityLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
