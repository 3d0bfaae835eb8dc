package model

import (
	"time"

	"github.com/google/uuid"
)

// ProjectRole is a user's role within one project's team.
type ProjectRole string

const (
	ProjectRoleMember  ProjectRole = "member"
	ProjectRoleLead    ProjectRole = "lead"
	ProjectRoleManager ProjectRole = "manager"
	ProjectRoleAdmin   ProjectRole = "admin"
)

// ParseProjectRole validates a raw role string against the closed role set.
func ParseProjectRole(raw string) (ProjectRole, bool) {
	switch ProjectRole(raw) {
	case ProjectRoleMember, ProjectRoleLead, ProjectRoleManager, ProjectRoleAdmin:
		return ProjectRole(raw), true
	}
	return "", false
}

// Permission codes granted to project roles via the role_permissions table
const (
	PermViewProject      = "view_project"
	PermSubmitExpenses   = "submit_expenses"
	PermApproveExpenses  = "approve_expenses"
	PermManageBudget     = "manage_budget"
	PermManageMilestones = "manage_milestones"
	PermManageTeam       = "manage_team"
	PermManageProject    = "manage_project"
)

// ProjectTeamMembership links a user to a project with a project-scoped role.
// One row per (project, user) pair; revoking the admin role demotes the row
// to member instead of deleting it, so the user keeps ordinary access.
type ProjectTeamMembership struct {
	ID        uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_project_user" json:"project_id"`
	Project   *Project    `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	UserID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_project_user" json:"user_id"`
	User      *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      ProjectRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RolePermission maps a project-scoped role name to one permission code.
// Seeded at boot, read-only reference data for the authorization resolver.
type RolePermission struct {
	ID         uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Role       ProjectRole `gorm:"type:varchar(20);not null;uniqueIndex:idx_role_perm" json:"role"`
	Permission string      `gorm:"type:varchar(100);not null;uniqueIndex:idx_role_perm" json:"permission"`
	CreatedAt  time.Time   `json:"created_at"`
}

// DefaultRolePermissions is the seed mapping for the role_permissions table.
// Each role inherits everything from the roles before it.
var DefaultRolePermissions = map[ProjectRole][]string{
	ProjectRoleMember: {PermViewProject, PermSubmitExpenses},
	ProjectRoleLead:   {PermViewProject, PermSubmitExpenses, PermManageMilestones},
	ProjectRoleManager: {PermViewProject, PermSubmitExpenses, PermManageMilestones,
		PermManageBudget, PermApproveExpenses},
	ProjectRoleAdmin: {PermViewProject, PermSubmitExpenses, PermManageMilestones,
		PermManageBudget, PermApproveExpenses, PermManageTeam, PermManageProject},
}
