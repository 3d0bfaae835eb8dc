package database

import (
	"log"

	"budgetdesk/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.BusinessUnit{},
		&model.Project{},
		&model.ProjectTeamMembership{},
		&model.RolePermission{},
		&model.BudgetCategory{},
		&model.BudgetVersion{},
		&model.Expense{},
		&model.Milestone{},
		&model.Notification{},
		&model.AdminActivityLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
