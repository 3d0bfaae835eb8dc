package repository

import (
	"context"
	"time"

	"budgetdesk/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseFilter narrows the expense listing. ScopeUserID, when set, restricts
// results to expenses the user submitted or can see through project access.
// One predicate list feeds both the count and the data query.
type ExpenseFilter struct {
	ProjectID   *uuid.UUID
	CategoryID  *uuid.UUID
	Status      string
	From        *time.Time
	To          *time.Time
	ScopeUserID *uuid.UUID
	Page        int
	Limit       int
}

func (f ExpenseFilter) apply(db *gorm.DB) *gorm.DB {
	if f.ProjectID != nil {
		db = db.Where("expenses.project_id = ?", *f.ProjectID)
	}
	if f.CategoryID != nil {
		db = db.Where("expenses.category_id = ?", *f.CategoryID)
	}
	if f.Status != "" {
		db = db.Where("expenses.status = ?", f.Status)
	}
	if f.From != nil {
		db = db.Where("expenses.expense_date >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("expenses.expense_date <= ?", *f.To)
	}
	if f.ScopeUserID != nil {
		db = db.Where(
			"expenses.submitted_by = ? OR expenses.project_id IN (SELECT id FROM projects WHERE manager_id = ?) OR expenses.project_id IN (SELECT project_id FROM project_team_memberships WHERE user_id = ?)",
			*f.ScopeUserID, *f.ScopeUserID, *f.ScopeUserID,
		)
	}
	return db
}

type ExpenseRepository interface {
	Create(ctx context.Context, expense *model.Expense) error
	Update(ctx context.Context, expense *model.Expense) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Expense, error)
	List(ctx context.Context, filter ExpenseFilter) ([]model.Expense, int64, error)
	CountPendingBySubmitter(ctx context.Context, userID uuid.UUID) (int64, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
	SumApprovedByProject(ctx context.Context, projectID uuid.UUID) (decimal.Decimal, error)
	SumApprovedByCategory(ctx context.Context, categoryID uuid.UUID) (decimal.Decimal, error)
	NullifyApprover(ctx context.Context, userID uuid.UUID) error
}

type expenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) Create(ctx context.Context, expense *model.Expense) error {
	return GetDB(ctx, r.db).Create(expense).Error
}

func (r *expenseRepository) Update(ctx context.Context, expense *model.Expense) error {
	return GetDB(ctx, r.db).Save(expense).Error
}

func (r *expenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Expense{}).Error
}

func (r *expenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	var expense model.Expense
	if err := GetDB(ctx, r.db).
		Preload("Submitter").Preload("Approver").Preload("Category").
		First(&expense, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *expenseRepository) List(ctx context.Context, filter ExpenseFilter) ([]model.Expense, int64, error) {
	var expenses []model.Expense
	var total int64

	db := GetDB(ctx, r.db)
	if err := filter.apply(db.Model(&model.Expense{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := filter.apply(db.Model(&model.Expense{})).
		Preload("Submitter").Preload("Approver").Preload("Category").
		Order("created_at DESC").Offset(offset).Limit(filter.Limit).
		Find(&expenses).Error; err != nil {
		return nil, 0, err
	}

	return expenses, total, nil
}

func (r *expenseRepository) CountPendingBySubmitter(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Expense{}).
		Where("submitted_by = ? AND status = ?", userID, model.ExpenseStatusPending).
		Count(&total).Error
	return total, err
}

func (r *expenseRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Expense{}).
		Where("category_id = ?", categoryID).Count(&total).Error
	return total, err
}

func (r *expenseRepository) SumApprovedByProject(ctx context.Context, projectID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := GetDB(ctx, r.db).Model(&model.Expense{}).
		Where("project_id = ? AND status IN ?", projectID,
			[]string{model.ExpenseStatusApproved, model.ExpenseStatusPaid}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}

func (r *expenseRepository) SumApprovedByCategory(ctx context.Context, categoryID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := GetDB(ctx, r.db).Model(&model.Expense{}).
		Where("category_id = ? AND status IN ?", categoryID,
			[]string{model.ExpenseStatusApproved, model.ExpenseStatusPaid}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}

func (r *expenseRepository) NullifyApprover(ctx context.Context, userID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Expense{}).
		Where("approved_by = ?", userID).
		Update("approved_by", nil).Error
}
