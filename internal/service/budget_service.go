package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"budgetdesk/internal/authz"
	"budgetdesk/internal/model"
	"budgetdesk/internal/repository"
	"budgetdesk/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateCategoryRequest struct {
	Name            string `json:"name" binding:"required"`
	AllocatedAmount string `json:"allocated_amount" binding:"required"`
}

type UpdateCategoryRequest struct {
	Name            string `json:"name"`
	AllocatedAmount string `json:"allocated_amount"`
}

// --- Interface ---

type BudgetService interface {
	ListCategories(ctx context.Context, ident authz.Identity, projectID uuid.UUID) ([]model.BudgetCategory, error)
	CreateCategory(ctx context.Context, ident authz.Identity, projectID uuid.UUID, req CreateCategoryRequest) (*model.BudgetCategory, error)
	UpdateCategory(ctx context.Context, ident authz.Identity, categoryID uuid.UUID, req UpdateCategoryRequest) (*model.BudgetCategory, error)
	DeleteCategory(ctx context.Context, ident authz.Identity, categoryID uuid.UUID) error
	ListVersions(ctx context.Context, ident authz.Identity, projectID uuid.UUID, page, limit int) ([]model.BudgetVersion, int64, error)
}

type budgetService struct {
	budgetRepo  repository.BudgetRepository
	projectRepo repository.ProjectRepository
	expenseRepo repository.ExpenseRepository
	auditRepo   repository.AuditRepository
	resolver    authz.Resolver
	txManager   repository.TransactionManager
	dispatcher  Dispatcher
}

func NewBudgetService(
	budgetRepo repository.BudgetRepository,
	projectRepo repository.ProjectRepository,
	expenseRepo repository.ExpenseRepository,
	auditRepo repository.AuditRepository,
	resolver authz.Resolver,
	txManager repository.TransactionManager,
	dispatcher Dispatcher,
) BudgetService {
	return &budgetService{
		budgetRepo:  budgetRepo,
		projectRepo: projectRepo,
		expenseRepo: expenseRepo,
		auditRepo:   auditRepo,
		resolver:    resolver,
		txManager:   txManager,
		dispatcher:  dispatcher,
	}
}

// --- Implementation ---

func (s *budgetService) ListCategories(ctx context.Context, ident authz.Identity, projectID uuid.UUID) ([]model.BudgetCategory, error) {
	if _, err := s.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	if !ident.HasOversight() && !s.resolver.Can(ctx, ident, projectID, model.PermViewProject) {
		return nil, apperr.Forbidden("no access to this project")
	}

	categories, err := s.budgetRepo.ListCategories(ctx, projectID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return categories, nil
}

func (s *budgetService) CreateCategory(ctx context.Context, ident authz.Identity, projectID uuid.UUID, req CreateCategoryRequest) (*model.BudgetCategory, error) {
	project, err := s.requireProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !s.resolver.Can(ctx, ident, projectID, model.PermManageBudget) {
		return nil, apperr.Forbidden("no permission to manage this project's budget")
	}

	allocated, err := decimal.NewFromString(req.AllocatedAmount)
	if err != nil || allocated.IsNegative() {
		return nil, apperr.Validation("allocated_amount must be a non-negative decimal")
	}

	category := &model.BudgetCategory{
		ProjectID:       projectID,
		Name:            req.Name,
		AllocatedAmount: allocated,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, lookupErr := s.budgetRepo.FindCategoryByName(txCtx, projectID, req.Name); lookupErr == nil {
			return apperr.Conflict("a category with this name already exists")
		} else if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			return apperr.Internal(lookupErr)
		}
		if createErr := s.budgetRepo.CreateCategory(txCtx, category); createErr != nil {
			return apperr.Internal(createErr)
		}

		// Roll the allocation up to the project and snapshot a budget version.
		project.AllocatedBudget = project.AllocatedBudget.Add(allocated)
		if saveErr := s.projectRepo.Update(txCtx, project); saveErr != nil {
			return apperr.Internal(saveErr)
		}
		return s.snapshotVersion(txCtx, project, ident.ID, "category added: "+req.Name)
	})
	if err != nil {
		return nil, err
	}

	s.warnOverAllocated(ctx, project)
	return category, nil
}

func (s *budgetService) UpdateCategory(ctx context.Context, ident authz.Identity, categoryID uuid.UUID, req UpdateCategoryRequest) (*model.BudgetCategory, error) {
	category, err := s.budgetRepo.FindCategoryByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("budget category not found")
		}
		return nil, apperr.Internal(err)
	}
	projectID := category.ProjectID

	project, err := s.requireProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !s.resolver.Can(ctx, ident, projectID, model.PermManageBudget) {
		return nil, apperr.Forbidden("no permission to manage this project's budget")
	}

	var delta decimal.Decimal
	if req.AllocatedAmount != "" {
		allocated, parseErr := decimal.NewFromString(req.AllocatedAmount)
		if parseErr != nil || allocated.IsNegative() {
			return nil, apperr.Validation("allocated_amount must be a non-negative decimal")
		}
		delta = allocated.Sub(category.AllocatedAmount)
		category.AllocatedAmount = allocated
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if req.Name != "" && req.Name != category.Name {
			if _, lookupErr := s.budgetRepo.FindCategoryByName(txCtx, projectID, req.Name); lookupErr == nil {
				return apperr.Conflict("a category with this name already exists")
			} else if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
				return apperr.Internal(lookupErr)
			}
			category.Name = req.Name
		}
		if saveErr := s.budgetRepo.UpdateCategory(txCtx, category); saveErr != nil {
			return apperr.Internal(saveErr)
		}
		if !delta.IsZero() {
			project.AllocatedBudget = project.AllocatedBudget.Add(delta)
			if saveErr := s.projectRepo.Update(txCtx, project); saveErr != nil {
				return apperr.Internal(saveErr)
			}
			return s.snapshotVersion(txCtx, project, ident.ID, "category reallocated: "+category.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.warnOverAllocated(ctx, project)
	return category, nil
}

func (s *budgetService) DeleteCategory(ctx context.Context, ident authz.Identity, categoryID uuid.UUID) error {
	category, err := s.budgetRepo.FindCategoryByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("budget category not found")
		}
		return apperr.Internal(err)
	}
	projectID := category.ProjectID

	project, err := s.requireProject(ctx, projectID)
	if err != nil {
		return err
	}
	if !s.resolver.Can(ctx, ident, projectID, model.PermManageBudget) {
		return apperr.Forbidden("no permission to manage this project's budget")
	}

	count, err := s.expenseRepo.CountByCategory(ctx, categoryID)
	if err != nil {
		return apperr.Internal(err)
	}
	if count > 0 {
		return apperr.DependencyConflict("category has expenses and cannot be deleted")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.budgetRepo.DeleteCategory(txCtx, categoryID); deleteErr != nil {
			return apperr.Internal(deleteErr)
		}

		project.AllocatedBudget = project.AllocatedBudget.Sub(category.AllocatedAmount)
		if saveErr := s.projectRepo.Update(txCtx, project); saveErr != nil {
			return apperr.Internal(saveErr)
		}
		if snapErr := s.snapshotVersion(txCtx, project, ident.ID, "category removed: "+category.Name); snapErr != nil {
			return snapErr
		}

		details, _ := json.Marshal(map[string]interface{}{
			"project_id": projectID,
			"allocated":  category.AllocatedAmount.StringFixed(4),
		})
		entry := &model.AdminActivityLog{
			UserID:     &ident.ID,
			Action:     model.ActionDeleteBudgetCat,
			EntityID:   categoryID.String(),
			EntityName: category.Name,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, entry); auditErr != nil {
			return apperr.Internal(auditErr)
		}
		return nil
	})
}

func (s *budgetService) ListVersions(ctx context.Context, ident authz.Identity, projectID uuid.UUID, page, limit int) ([]model.BudgetVersion, int64, error) {
	if _, err := s.requireProject(ctx, projectID); err != nil {
		return nil, 0, err
	}
	if !ident.HasOversight() && !s.resolver.Can(ctx, ident, projectID, model.PermViewProject) {
		return nil, 0, apperr.Forbidden("no access to this project")
	}

	versions, total, err := s.budgetRepo.ListVersions(ctx, projectID, page, limit)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return versions, total, nil
}

// snapshotVersion records the project's budget figures as the next version.
func (s *budgetService) snapshotVersion(ctx context.Context, project *model.Project, changedBy uuid.UUID, reason string) error {
	versionNo, err := s.budgetRepo.NextVersionNo(ctx, project.ID)
	if err != nil {
		return apperr.Internal(err)
	}
	version := &model.BudgetVersion{
		ProjectID:       project.ID,
		VersionNo:       versionNo,
		TotalBudget:     project.TotalBudget,
		AllocatedBudget: project.AllocatedBudget,
		SpentBudget:     project.SpentBudget,
		Reason:          reason,
		ChangedBy:       &changedBy,
	}
	if err := s.budgetRepo.CreateVersion(ctx, version); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// warnOverAllocated notifies project admins when category allocations exceed
// the total budget. Best effort, dispatch failures are logged.
func (s *budgetService) warnOverAllocated(ctx context.Context, project *model.Project) {
	if !project.AllocatedBudget.GreaterThan(project.TotalBudget) {
		return
	}
	if err := s.dispatcher.NotifyProjectAdmins(ctx, project.ID,
		"Budget over-allocated",
		"Category allocations on "+project.Name+" ("+project.AllocatedBudget.StringFixed(2)+") exceed the total budget ("+project.TotalBudget.StringFixed(2)+")",
		model.NotificationWarning, "/projects/"+project.ID.String()+"/budget"); err != nil {
		log.Printf("over-allocation notification failed: %v", err)
	}
}

func (s *budgetService) requireProject(ctx context.Context, projectID uuid.UUID) (*model.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project not found")
		}
		return nil, apperr.Internal(err)
	}
	return project, nil
}
