package repository

import (
	"context"

	"budgetdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BudgetRepository interface {
	CreateCategory(ctx context.Context, category *model.BudgetCategory) error
	UpdateCategory(ctx context.Context, category *model.BudgetCategory) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*model.BudgetCategory, error)
	FindCategoryByName(ctx context.Context, projectID uuid.UUID, name string) (*model.BudgetCategory, error)
	ListCategories(ctx context.Context, projectID uuid.UUID) ([]model.BudgetCategory, error)

	CreateVersion(ctx context.Context, version *model.BudgetVersion) error
	NextVersionNo(ctx context.Context, projectID uuid.UUID) (int, error)
	ListVersions(ctx context.Context, projectID uuid.UUID, page, limit int) ([]model.BudgetVersion, int64, error)
}

type budgetRepository struct {
	db *gorm.DB
}

func NewBudgetRepository(db *gorm.DB) BudgetRepository {
	return &budgetRepository{db: db}
}

func (r *budgetRepository) CreateCategory(ctx context.Context, category *model.BudgetCategory) error {
	return GetDB(ctx, r.db).Create(category).Error
}

func (r *budgetRepository) UpdateCategory(ctx context.Context, category *model.BudgetCategory) error {
	return GetDB(ctx, r.db).Save(category).Error
}

func (r *budgetRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.BudgetCategory{}).Error
}

func (r *budgetRepository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*model.BudgetCategory, error) {
	var category model.BudgetCategory
	if err := GetDB(ctx, r.db).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *budgetRepository) FindCategoryByName(ctx context.Context, projectID uuid.UUID, name string) (*model.BudgetCategory, error) {
	var category model.BudgetCategory
	if err := GetDB(ctx, r.db).
		First(&category, "project_id = ? AND name = ?", projectID, name).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *budgetRepository) ListCategories(ctx context.Context, projectID uuid.UUID) ([]model.BudgetCategory, error) {
	var categories []model.BudgetCategory
	err := GetDB(ctx, r.db).
		Where("project_id = ?", projectID).
		Order("name ASC").
		Find(&categories).Error
	return categories, err
}

func (r *budgetRepository) CreateVersion(ctx context.Context, version *model.BudgetVersion) error {
	return GetDB(ctx, r.db).Create(version).Error
}

func (r *budgetRepository) NextVersionNo(ctx context.Context, projectID uuid.UUID) (int, error) {
	var max int
	err := GetDB(ctx, r.db).Model(&model.BudgetVersion{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(MAX(version_no), 0)").
		Scan(&max).Error
	return max + 1, err
}

func (r *budgetRepository) ListVersions(ctx context.Context, projectID uuid.UUID, page, limit int) ([]model.BudgetVersion, int64, error) {
	var versions []model.BudgetVersion
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.BudgetVersion{}).
		Where("project_id = ?", projectID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Where("project_id = ?", projectID).
		Order("version_no DESC").Offset(offset).Limit(limit).
		Find(&versions).Error; err != nil {
		return nil, 0, err
	}

	return versions, total, nil
}
