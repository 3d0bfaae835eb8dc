package repository

import (
	"context"

	"budgetdesk/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PermissionRepository reads the role -> permission reference data.
type PermissionRepository interface {
	PermissionsForRole(ctx context.Context, role model.ProjectRole) ([]string, error)
	Seed(ctx context.Context) error
}

type permissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

func (r *permissionRepository) PermissionsForRole(ctx context.Context, role model.ProjectRole) ([]string, error) {
	var codes []string
	err := GetDB(ctx, r.db).Model(&model.RolePermission{}).
		Where("role = ?", role).
		Pluck("permission", &codes).Error
	return codes, err
}

// Seed inserts the default role -> permission rows, skipping pairs that
// already exist so boot stays idempotent.
func (r *permissionRepository) Seed(ctx context.Context) error {
	db := GetDB(ctx, r.db)
	for role, perms := range model.DefaultRolePermissions {
		for _, perm := range perms {
			row := model.RolePermission{Role: role, Permission: perm}
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
