package repository

import (
	"context"
	"time"

	"budgetdesk/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProjectFilter narrows the project listing. ScopeUserID, when set, restricts
// results to projects the user manages or belongs to — the same predicate list
// is applied to the count query and the data query so pagination metadata can
// never drift from the rows.
type ProjectFilter struct {
	Search         string
	Status         string
	BusinessUnitID *uuid.UUID
	Year           int
	ScopeUserID    *uuid.UUID
	IDs            []uuid.UUID
	Page           int
	Limit          int
}

func (f ProjectFilter) apply(db *gorm.DB) *gorm.DB {
	if f.Search != "" {
		like := "%" + f.Search + "%"
		db = db.Where("projects.name ILIKE ? OR projects.description ILIKE ?", like, like)
	}
	if f.Status != "" {
		db = db.Where("projects.status = ?", f.Status)
	}
	if f.BusinessUnitID != nil {
		db = db.Where("projects.business_unit_id = ?", *f.BusinessUnitID)
	}
	if f.Year != 0 {
		start := time.Date(f.Year, 1, 1, 0, 0, 0, 0, time.UTC)
		db = db.Where("projects.start_date >= ? AND projects.start_date < ?", start, start.AddDate(1, 0, 0))
	}
	if f.IDs != nil {
		db = db.Where("projects.id IN ?", f.IDs)
	}
	if f.ScopeUserID != nil {
		db = db.Where(
			"projects.manager_id = ? OR projects.id IN (SELECT project_id FROM project_team_memberships WHERE user_id = ?)",
			*f.ScopeUserID, *f.ScopeUserID,
		)
	}
	return db
}

// DashboardMetrics aggregates the numbers the dashboard cards render.
type DashboardMetrics struct {
	TotalProjects   int64           `json:"total_projects"`
	ActiveProjects  int64           `json:"active_projects"`
	TotalBudget     decimal.Decimal `json:"total_budget"`
	SpentBudget     decimal.Decimal `json:"spent_budget"`
	OverBudget      int64           `json:"over_budget_projects"`
	PendingExpenses int64           `json:"pending_expenses"`
}

type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteCascade(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]model.Project, int64, error)
	CountDependents(ctx context.Context, id uuid.UUID) (members, expenses, milestones int64, err error)
	CountActiveManagedBy(ctx context.Context, userID uuid.UUID) (int64, error)
	CountByBusinessUnit(ctx context.Context, unitID uuid.UUID) (int64, error)
	Metrics(ctx context.Context, scopeUserID *uuid.UUID) (*DashboardMetrics, error)
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *model.Project) error {
	return GetDB(ctx, r.db).Create(project).Error
}

func (r *projectRepository) Update(ctx context.Context, project *model.Project) error {
	return GetDB(ctx, r.db).Save(project).Error
}

func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Project{}).Error
}

// DeleteCascade removes the project together with every dependent row.
// Callers are expected to run this inside a transaction.
func (r *projectRepository) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("project_id = ?", id).Delete(&model.ProjectTeamMembership{}).Error; err != nil {
		return err
	}
	if err := db.Where("project_id = ?", id).Delete(&model.Expense{}).Error; err != nil {
		return err
	}
	if err := db.Where("project_id = ?", id).Delete(&model.Milestone{}).Error; err != nil {
		return err
	}
	if err := db.Where("project_id = ?", id).Delete(&model.BudgetCategory{}).Error; err != nil {
		return err
	}
	if err := db.Where("project_id = ?", id).Delete(&model.BudgetVersion{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Project{}).Error
}

func (r *projectRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := GetDB(ctx, r.db).
		Preload("Manager").Preload("BusinessUnit").
		First(&project, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) List(ctx context.Context, filter ProjectFilter) ([]model.Project, int64, error) {
	var projects []model.Project
	var total int64

	db := GetDB(ctx, r.db)
	if err := filter.apply(db.Model(&model.Project{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := filter.apply(db.Model(&model.Project{})).
		Preload("Manager").Preload("BusinessUnit").
		Order("created_at DESC").Offset(offset).Limit(filter.Limit).
		Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

func (r *projectRepository) CountDependents(ctx context.Context, id uuid.UUID) (int64, int64, int64, error) {
	db := GetDB(ctx, r.db)
	var members, expenses, milestones int64

	if err := db.Model(&model.ProjectTeamMembership{}).Where("project_id = ?", id).Count(&members).Error; err != nil {
		return 0, 0, 0, err
	}
	if err := db.Model(&model.Expense{}).Where("project_id = ?", id).Count(&expenses).Error; err != nil {
		return 0, 0, 0, err
	}
	if err := db.Model(&model.Milestone{}).Where("project_id = ?", id).Count(&milestones).Error; err != nil {
		return 0, 0, 0, err
	}
	return members, expenses, milestones, nil
}

func (r *projectRepository) CountActiveManagedBy(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Project{}).
		Where("manager_id = ? AND status IN ?", userID,
			[]string{model.ProjectStatusPlanning, model.ProjectStatusActive, model.ProjectStatusOnHold}).
		Count(&total).Error
	return total, err
}

func (r *projectRepository) CountByBusinessUnit(ctx context.Context, unitID uuid.UUID) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Project{}).
		Where("business_unit_id = ?", unitID).Count(&total).Error
	return total, err
}

func (r *projectRepository) Metrics(ctx context.Context, scopeUserID *uuid.UUID) (*DashboardMetrics, error) {
	db := GetDB(ctx, r.db)
	scope := ProjectFilter{ScopeUserID: scopeUserID}

	var m DashboardMetrics
	if err := scope.apply(db.Model(&model.Project{})).Count(&m.TotalProjects).Error; err != nil {
		return nil, err
	}
	if err := scope.apply(db.Model(&model.Project{})).
		Where("projects.status = ?", model.ProjectStatusActive).Count(&m.ActiveProjects).Error; err != nil {
		return nil, err
	}

	var sums struct {
		Total decimal.Decimal
		Spent decimal.Decimal
	}
	if err := scope.apply(db.Model(&model.Project{})).
		Select("COALESCE(SUM(total_budget), 0) AS total, COALESCE(SUM(spent_budget), 0) AS spent").
		Scan(&sums).Error; err != nil {
		return nil, err
	}
	m.TotalBudget = sums.Total
	m.SpentBudget = sums.Spent

	if err := scope.apply(db.Model(&model.Project{})).
		Where("projects.spent_budget > projects.total_budget").Count(&m.OverBudget).Error; err != nil {
		return nil, err
	}

	pending := db.Model(&model.Expense{}).Where("expenses.status = ?", model.ExpenseStatusPending)
	if scopeUserID != nil {
		pending = pending.Where(
			"expenses.submitted_by = ? OR expenses.project_id IN (SELECT id FROM projects WHERE manager_id = ?) OR expenses.project_id IN (SELECT project_id FROM project_team_memberships WHERE user_id = ?)",
			*scopeUserID, *scopeUserID, *scopeUserID,
		)
	}
	if err := pending.Count(&m.PendingExpenses).Error; err != nil {
		return nil, err
	}

	return &m, nil
}
