package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"budgetdesk/internal/authz"
	"budgetdesk/internal/model"
	"budgetdesk/internal/repository"
	"budgetdesk/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateExpenseRequest struct {
	ProjectID   string `json:"project_id" binding:"required"`
	CategoryID  string `json:"category_id"`
	Amount      string `json:"amount" binding:"required"` // Decimal string
	Currency    string `json:"currency"`
	Description string `json:"description" binding:"required"`
	ExpenseDate string `json:"expense_date"` // RFC3339 or YYYY-MM-DD, defaults to today
}

type UpdateExpenseRequest struct {
	CategoryID  string `json:"category_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	ExpenseDate string `json:"expense_date"`
}

type ReviewExpenseRequest struct {
	Status  string `json:"status" binding:"required,oneof=approved rejected"`
	Comment string `json:"comment"`
}

type ExpenseListFilter struct {
	ProjectID  string
	CategoryID string
	Status     string
	From       string
	To         string
	Page       int
	Limit      int
}

// --- Interface ---

type ExpenseService interface {
	CreateExpense(ctx context.Context, ident authz.Identity, req CreateExpenseRequest) (*model.Expense, error)
	ListExpenses(ctx context.Context, ident authz.Identity, filter ExpenseListFilter) ([]model.Expense, int64, error)
	UpdateExpense(ctx context.Context, ident authz.Identity, id uuid.UUID, req UpdateExpenseRequest) (*model.Expense, error)
	DeleteExpense(ctx context.Context, ident authz.Identity, id uuid.UUID) error
	ReviewExpense(ctx context.Context, ident authz.Identity, id uuid.UUID, req ReviewExpenseRequest) (*model.Expense, error)
}

type expenseService struct {
	expenseRepo repository.ExpenseRepository
	projectRepo repository.ProjectRepository
	budgetRepo  repository.BudgetRepository
	auditRepo   repository.AuditRepository
	resolver    authz.Resolver
	txManager   repository.TransactionManager
	dispatcher  Dispatcher
}

func NewExpenseService(
	expenseRepo repository.ExpenseRepository,
	projectRepo repository.ProjectRepository,
	budgetRepo repository.BudgetRepository,
	auditRepo repository.AuditRepository,
	resolver authz.Resolver,
	txManager repository.TransactionManager,
	dispatcher Dispatcher,
) ExpenseService {
	return &expenseService{
		expenseRepo: expenseRepo,
		projectRepo: projectRepo,
		budgetRepo:  budgetRepo,
		auditRepo:   auditRepo,
		resolver:    resolver,
		txManager:   txManager,
		dispatcher:  dispatcher,
	}
}

// --- Implementation ---

func (s *expenseService) CreateExpense(ctx context.Context, ident authz.Identity, req CreateExpenseRequest) (*model.Expense, error) {
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return nil, apperr.Validation("invalid project_id")
	}

	if !s.resolver.Can(ctx, ident, projectID, model.PermSubmitExpenses) {
		return nil, apperr.Forbidden("no permission to submit expenses on this project")
	}

	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project not found")
		}
		return nil, apperr.Internal(err)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, apperr.Validation("amount must be a positive decimal")
	}

	expenseDate := time.Now()
	if req.ExpenseDate != "" {
		parsed, parseErr := parseDate(req.ExpenseDate)
		if parseErr != nil {
			return nil, apperr.Validation("invalid expense_date")
		}
		expenseDate = *parsed
	}

	currency := req.Currency
	if currency == "" {
		currency = project.Currency
	}

	expense := &model.Expense{
		ProjectID:   projectID,
		Amount:      amount,
		Currency:    currency,
		Description: req.Description,
		ExpenseDate: expenseDate,
		Status:      model.ExpenseStatusPending,
		SubmittedBy: ident.ID,
	}

	if req.CategoryID != "" {
		categoryID, parseErr := uuid.Parse(req.CategoryID)
		if parseErr != nil {
			return nil, apperr.Validation("invalid category_id")
		}
		category, catErr := s.budgetRepo.FindCategoryByID(ctx, categoryID)
		if catErr != nil {
			return nil, apperr.Validation("budget category not found")
		}
		if category.ProjectID != projectID {
			return nil, apperr.Validation("budget category belongs to a different project")
		}
		expense.CategoryID = &categoryID
	}

	if err := s.expenseRepo.Create(ctx, expense); err != nil {
		return nil, apperr.Internal(err)
	}

	if notifyErr := s.dispatcher.NotifyProjectAdmins(ctx, projectID,
		"New expense pending",
		ident.FullName+" submitted an expense of "+amount.StringFixed(2)+" "+currency+" on "+project.Name,
		model.NotificationInfo, "/projects/"+projectID.String()+"/expenses"); notifyErr != nil {
		log.Printf("expense-submitted notification failed: %v", notifyErr)
	}

	return expense, nil
}

func (s *expenseService) ListExpenses(ctx context.Context, ident authz.Identity, filter ExpenseListFilter) ([]model.Expense, int64, error) {
	repoFilter := repository.ExpenseFilter{
		Status: filter.Status,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if filter.ProjectID != "" {
		projectID, err := uuid.Parse(filter.ProjectID)
		if err != nil {
			return nil, 0, apperr.Validation("invalid project_id")
		}
		repoFilter.ProjectID = &projectID
	}
	if filter.CategoryID != "" {
		categoryID, err := uuid.Parse(filter.CategoryID)
		if err != nil {
			return nil, 0, apperr.Validation("invalid category_id")
		}
		repoFilter.CategoryID = &categoryID
	}
	if filter.From != "" {
		from, err := parseDate(filter.From)
		if err != nil {
			return nil, 0, apperr.Validation("invalid from date")
		}
		repoFilter.From = from
	}
	if filter.To != "" {
		to, err := parseDate(filter.To)
		if err != nil {
			return nil, 0, apperr.Validation("invalid to date")
		}
		repoFilter.To = to
	}
	if !ident.HasOversight() {
		repoFilter.ScopeUserID = &ident.ID
	}

	expenses, total, err := s.expenseRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return expenses, total, nil
}

func (s *expenseService) UpdateExpense(ctx context.Context, ident authz.Identity, id uuid.UUID, req UpdateExpenseRequest) (*model.Expense, error) {
	expense, err := s.expenseRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("expense not found")
		}
		return nil, apperr.Internal(err)
	}

	// Only the submitter edits, and only while the expense is still pending;
	// resolved expenses are immutable except via the admin override.
	if expense.SubmittedBy != ident.ID && !ident.IsSystemAdmin() {
		return nil, apperr.Forbidden("only the submitter can edit this expense")
	}
	if expense.Status != model.ExpenseStatusPending && !ident.IsSystemAdmin() {
		return nil, apperr.Conflict("expense is already " + expense.Status + " and can no longer be edited")
	}

	amountChanged := false
	if req.Amount != "" {
		amount, parseErr := decimal.NewFromString(req.Amount)
		if parseErr != nil || !amount.IsPositive() {
			return nil, apperr.Validation("amount must be a positive decimal")
		}
		amountChanged = !amount.Equal(expense.Amount)
		expense.Amount = amount
	}
	if req.Description != "" {
		expense.Description = req.Description
	}
	if req.ExpenseDate != "" {
		parsed, parseErr := parseDate(req.ExpenseDate)
		if parseErr != nil {
			return nil, apperr.Validation("invalid expense_date")
		}
		expense.ExpenseDate = *parsed
	}
	if req.CategoryID != "" {
		categoryID, parseErr := uuid.Parse(req.CategoryID)
		if parseErr != nil {
			return nil, apperr.Validation("invalid category_id")
		}
		category, catErr := s.budgetRepo.FindCategoryByID(ctx, categoryID)
		if catErr != nil {
			return nil, apperr.Validation("budget category not found")
		}
		if category.ProjectID != expense.ProjectID {
			return nil, apperr.Validation("budget category belongs to a different project")
		}
		expense.CategoryID = &categoryID
	}

	// An admin edit of an already counted amount must not let the roll-ups
	// drift: recompute project and category spend from the approved expenses.
	recompute := amountChanged &&
		(expense.Status == model.ExpenseStatusApproved || expense.Status == model.ExpenseStatusPaid)
	if !recompute {
		if err := s.expenseRepo.Update(ctx, expense); err != nil {
			return nil, apperr.Internal(err)
		}
		return expense, nil
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.expenseRepo.Update(txCtx, expense); saveErr != nil {
			return apperr.Internal(saveErr)
		}

		spent, sumErr := s.expenseRepo.SumApprovedByProject(txCtx, expense.ProjectID)
		if sumErr != nil {
			return apperr.Internal(sumErr)
		}
		project, projErr := s.projectRepo.FindByID(txCtx, expense.ProjectID)
		if projErr != nil {
			return apperr.Internal(projErr)
		}
		project.SpentBudget = spent
		if saveErr := s.projectRepo.Update(txCtx, project); saveErr != nil {
			return apperr.Internal(saveErr)
		}

		if expense.CategoryID != nil {
			catSpent, catSumErr := s.expenseRepo.SumApprovedByCategory(txCtx, *expense.CategoryID)
			if catSumErr != nil {
				return apperr.Internal(catSumErr)
			}
			category, catErr := s.budgetRepo.FindCategoryByID(txCtx, *expense.CategoryID)
			if catErr != nil {
				return apperr.Internal(catErr)
			}
			category.SpentAmount = catSpent
			if saveErr := s.budgetRepo.UpdateCategory(txCtx, category); saveErr != nil {
				return apperr.Internal(saveErr)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *expenseService) DeleteExpense(ctx context.Context, ident authz.Identity, id uuid.UUID) error {
	expense, err := s.expenseRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("expense not found")
		}
		return apperr.Internal(err)
	}

	if expense.SubmittedBy != ident.ID && !ident.IsSystemAdmin() {
		return apperr.Forbidden("only the submitter can delete this expense")
	}
	if expense.Status != model.ExpenseStatusPending && !ident.IsSystemAdmin() {
		return apperr.Conflict("expense is already " + expense.Status + " and can no longer be deleted")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.expenseRepo.Delete(txCtx, id); deleteErr != nil {
			return apperr.Internal(deleteErr)
		}
		if ident.IsSystemAdmin() && expense.SubmittedBy != ident.ID {
			details, _ := json.Marshal(map[string]interface{}{
				"amount": expense.Amount.StringFixed(4),
				"status": expense.Status,
			})
			entry := &model.AdminActivityLog{
				UserID:     &ident.ID,
				Action:     model.ActionDeleteExpense,
				EntityID:   expense.ID.String(),
				EntityName: expense.Description,
				Details:    string(details),
			}
			if auditErr := s.auditRepo.Log(txCtx, entry); auditErr != nil {
				return apperr.Internal(auditErr)
			}
		}
		return nil
	})
}

// ReviewExpense moves a pending expense to approved or rejected exactly once.
// Authorized reviewers: system admins, the project creator, and holders of
// the approve_expenses permission on the project.
func (s *expenseService) ReviewExpense(ctx context.Context, ident authz.Identity, id uuid.UUID, req ReviewExpenseRequest) (*model.Expense, error) {
	expense, err := s.expenseRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("expense not found")
		}
		return nil, apperr.Internal(err)
	}

	if !s.resolver.Can(ctx, ident, expense.ProjectID, model.PermApproveExpenses) {
		return nil, apperr.Forbidden("no permission to review expenses on this project")
	}

	var project *model.Project
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Re-read inside the transaction so two concurrent reviews cannot
		// both see "pending".
		current, findErr := s.expenseRepo.FindByID(txCtx, id)
		if findErr != nil {
			return apperr.Internal(findErr)
		}
		if current.Status != model.ExpenseStatusPending {
			return apperr.Conflict("expense is already " + current.Status)
		}

		current.Status = req.Status
		current.ApprovedBy = &ident.ID
		current.ReviewComment = req.Comment
		if saveErr := s.expenseRepo.Update(txCtx, current); saveErr != nil {
			return apperr.Internal(saveErr)
		}

		if req.Status == model.ExpenseStatusApproved {
			// Roll the approved amount up into project and category spend.
			proj, projErr := s.projectRepo.FindByID(txCtx, current.ProjectID)
			if projErr != nil {
				return apperr.Internal(projErr)
			}
			proj.SpentBudget = proj.SpentBudget.Add(current.Amount)
			if saveErr := s.projectRepo.Update(txCtx, proj); saveErr != nil {
				return apperr.Internal(saveErr)
			}
			project = proj

			if current.CategoryID != nil {
				category, catErr := s.budgetRepo.FindCategoryByID(txCtx, *current.CategoryID)
				if catErr != nil {
					// The project roll-up already happened; skip only the
					// category figure rather than failing the approval.
					log.Printf("category lookup failed during expense approval, skipping category roll-up: %v", catErr)
				} else {
					category.SpentAmount = category.SpentAmount.Add(current.Amount)
					if saveErr := s.budgetRepo.UpdateCategory(txCtx, category); saveErr != nil {
						return apperr.Internal(saveErr)
					}
				}
			}
		}

		action := model.ActionApproveExpense
		if req.Status == model.ExpenseStatusRejected {
			action = model.ActionRejectExpense
		}
		details, _ := json.Marshal(map[string]interface{}{
			"amount":  current.Amount.StringFixed(4),
			"status":  req.Status,
			"comment": req.Comment,
		})
		entry := &model.AdminActivityLog{
			UserID:     &ident.ID,
			Action:     action,
			EntityID:   current.ID.String(),
			EntityName: current.Description,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, entry); auditErr != nil {
			return apperr.Internal(auditErr)
		}

		expense = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	title := "Expense approved"
	ntype := model.NotificationSuccess
	if req.Status == model.ExpenseStatusRejected {
		title = "Expense rejected"
		ntype = model.NotificationWarning
	}
	message := "Your expense \"" + expense.Description + "\" was " + req.Status
	if req.Comment != "" {
		message += ": " + req.Comment
	}
	if notifyErr := s.dispatcher.NotifyUser(ctx, expense.SubmittedBy, title, message,
		ntype, "/expenses/"+expense.ID.String()); notifyErr != nil {
		log.Printf("expense-review notification failed: %v", notifyErr)
	}

	if project != nil && project.SpentBudget.GreaterThan(project.TotalBudget) {
		if notifyErr := s.dispatcher.NotifyProjectAdmins(ctx, project.ID,
			"Budget exceeded",
			"Approved spend on "+project.Name+" ("+project.SpentBudget.StringFixed(2)+") exceeds the total budget ("+project.TotalBudget.StringFixed(2)+")",
			model.NotificationWarning, "/projects/"+project.ID.String()); notifyErr != nil {
			log.Printf("over-budget notification failed: %v", notifyErr)
		}
	}

	return expense, nil
}
