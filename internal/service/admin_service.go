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
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type AdminCreateUserRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=6"`
	FullName   string `json:"full_name" binding:"required"`
	Department string `json:"department"`
	Role       string `json:"role"`
}

type AdminUpdateUserRequest struct {
	FullName   string `json:"full_name"`
	Department string `json:"department"`
	Role       string `json:"role"`
	IsActive   *bool  `json:"is_active"`
	Password   string `json:"password" binding:"omitempty,min=6"`
}

type UserListFilter struct {
	Search string
	Role   string
	Page   int
	Limit  int
}

type ActivityListFilter struct {
	Action string
	UserID string
	Page   int
	Limit  int
}

type OverrideExpenseRequest struct {
	Status  string `json:"status" binding:"required"`
	Comment string `json:"comment"`
}

// SystemOverview aggregates the admin dashboard numbers.
type SystemOverview struct {
	Users    int64                        `json:"users"`
	Projects *repository.DashboardMetrics `json:"projects"`
}

// --- Interface ---

// AdminService backs the /admin surface. Handlers gate every route with the
// system-admin role check; the service still receives the identity for the
// audit trail and self-targeting rules.
type AdminService interface {
	ListUsers(ctx context.Context, filter UserListFilter) ([]model.User, int64, error)
	CreateUser(ctx context.Context, ident authz.Identity, req AdminCreateUserRequest) (*UserResponse, error)
	UpdateUser(ctx context.Context, ident authz.Identity, id uuid.UUID, req AdminUpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, ident authz.Identity, id uuid.UUID) error
	ListActivity(ctx context.Context, filter ActivityListFilter) ([]model.AdminActivityLog, int64, error)
	Overview(ctx context.Context) (*SystemOverview, error)
	OverrideExpenseStatus(ctx context.Context, ident authz.Identity, expenseID uuid.UUID, req OverrideExpenseRequest) (*model.Expense, error)
}

type adminService struct {
	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
	expenseRepo repository.ExpenseRepository
	budgetRepo  repository.BudgetRepository
	teamRepo    repository.TeamRepository
	notifRepo   repository.NotificationRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	dispatcher  Dispatcher
}

func NewAdminService(
	userRepo repository.UserRepository,
	projectRepo repository.ProjectRepository,
	expenseRepo repository.ExpenseRepository,
	budgetRepo repository.BudgetRepository,
	teamRepo repository.TeamRepository,
	notifRepo repository.NotificationRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	dispatcher Dispatcher,
) AdminService {
	return &adminService{
		userRepo:    userRepo,
		projectRepo: projectRepo,
		expenseRepo: expenseRepo,
		budgetRepo:  budgetRepo,
		teamRepo:    teamRepo,
		notifRepo:   notifRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		dispatcher:  dispatcher,
	}
}

// --- Implementation ---

func (s *adminService) ListUsers(ctx context.Context, filter UserListFilter) ([]model.User, int64, error) {
	users, total, err := s.userRepo.List(ctx, repository.UserFilter{
		Search: filter.Search,
		Role:   filter.Role,
		Page:   filter.Page,
		Limit:  filter.Limit,
	})
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return users, total, nil
}

func (s *adminService) CreateUser(ctx context.Context, ident authz.Identity, req AdminCreateUserRequest) (*UserResponse, error) {
	role := model.SystemRoleUser
	if req.Role != "" {
		parsed, ok := model.ParseSystemRole(req.Role)
		if !ok {
			return nil, apperr.Validation("invalid role")
		}
		role = parsed
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &model.User{
		Email:      req.Email,
		Password:   string(hashed),
		FullName:   req.FullName,
		Department: req.Department,
		Role:       role,
		IsActive:   true,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, lookupErr := s.userRepo.GetByEmail(txCtx, req.Email); lookupErr == nil {
			return apperr.Conflict("email already registered")
		} else if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			return apperr.Internal(lookupErr)
		}
		if createErr := s.userRepo.Create(txCtx, user); createErr != nil {
			return apperr.Internal(createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{"email": req.Email, "role": role})
		entry := &model.AdminActivityLog{
			UserID:     &ident.ID,
			Action:     model.ActionCreateUser,
			EntityID:   user.ID.String(),
			EntityName: user.FullName,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, entry); auditErr != nil {
			return apperr.Internal(auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *adminService) UpdateUser(ctx context.Context, ident authz.Identity, id uuid.UUID, req AdminUpdateUserRequest) (*UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err)
	}

	changes := map[string]interface{}{}
	if req.FullName != "" {
		user.FullName = req.FullName
		changes["full_name"] = req.FullName
	}
	if req.Department != "" {
		user.Department = req.Department
		changes["department"] = req.Department
	}
	if req.Role != "" {
		role, ok := model.ParseSystemRole(req.Role)
		if !ok {
			return nil, apperr.Validation("invalid role")
		}
		// An admin cannot strip their own admin role.
		if id == ident.ID && role != model.SystemRoleAdmin {
			return nil, apperr.Validation("cannot change your own role")
		}
		user.Role = role
		changes["role"] = role
	}
	if req.IsActive != nil {
		if id == ident.ID && !*req.IsActive {
			return nil, apperr.Validation("cannot deactivate your own account")
		}
		user.IsActive = *req.IsActive
		changes["is_active"] = *req.IsActive
	}
	if req.Password != "" {
		hashed, hashErr := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if hashErr != nil {
			return nil, apperr.Internal(hashErr)
		}
		user.Password = string(hashed)
		changes["password"] = "changed"
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.userRepo.Update(txCtx, user); saveErr != nil {
			return apperr.Internal(saveErr)
		}
		// Deactivation revokes live sessions.
		if req.IsActive != nil && !*req.IsActive {
			if revokeErr := s.userRepo.DeleteRefreshTokensByUser(txCtx, id); revokeErr != nil {
				return apperr.Internal(revokeErr)
			}
		}

		details, _ := json.Marshal(changes)
		entry := &model.AdminActivityLog{
			UserID:     &ident.ID,
			Action:     model.ActionUpdateUser,
			EntityID:   user.ID.String(),
			EntityName: user.FullName,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, entry); auditErr != nil {
			return apperr.Internal(auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// DeleteUser soft-deletes the account after detaching everything that points
// at it. Users who still manage active projects or have pending expenses are
// refused so the approval chain is never left dangling.
func (s *adminService) DeleteUser(ctx context.Context, ident authz.Identity, id uuid.UUID) error {
	if id == ident.ID {
		return apperr.Validation("cannot delete your own account")
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Internal(err)
	}

	managed, err := s.projectRepo.CountActiveManagedBy(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if managed > 0 {
		return apperr.DependencyConflict("user still manages active projects")
	}
	pending, err := s.expenseRepo.CountPendingBySubmitter(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if pending > 0 {
		return apperr.DependencyConflict("user still has pending expenses")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if txErr := s.teamRepo.DeleteByUser(txCtx, id); txErr != nil {
			return apperr.Internal(txErr)
		}
		if txErr := s.userRepo.DeleteRefreshTokensByUser(txCtx, id); txErr != nil {
			return apperr.Internal(txErr)
		}
		if txErr := s.notifRepo.DeleteByUser(txCtx, id); txErr != nil {
			return apperr.Internal(txErr)
		}
		if txErr := s.expenseRepo.NullifyApprover(txCtx, id); txErr != nil {
			return apperr.Internal(txErr)
		}
		if txErr := s.userRepo.Delete(txCtx, id); txErr != nil {
			return apperr.Internal(txErr)
		}

		details, _ := json.Marshal(map[string]interface{}{"email": user.Email})
		entry := &model.AdminActivityLog{
			UserID:     &ident.ID,
			Action:     model.ActionDeleteUser,
			EntityID:   id.String(),
			EntityName: user.FullName,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, entry); auditErr != nil {
			return apperr.Internal(auditErr)
		}
		return nil
	})
}

func (s *adminService) ListActivity(ctx context.Context, filter ActivityListFilter) ([]model.AdminActivityLog, int64, error) {
	repoFilter := repository.AuditFilter{
		Action: filter.Action,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if filter.UserID != "" {
		userID, err := uuid.Parse(filter.UserID)
		if err != nil {
			return nil, 0, apperr.Validation("invalid user_id")
		}
		repoFilter.UserID = &userID
	}

	logs, total, err := s.auditRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return logs, total, nil
}

func (s *adminService) Overview(ctx context.Context) (*SystemOverview, error) {
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	metrics, err := s.projectRepo.Metrics(ctx, nil)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &SystemOverview{Users: users, Projects: metrics}, nil
}

// OverrideExpenseStatus forces an expense into any valid status, including
// moves out of terminal states the normal review flow refuses. Project and
// category spend are recomputed from scratch afterwards so the roll-ups stay
// consistent no matter which direction the override went.
func (s *adminService) OverrideExpenseStatus(ctx context.Context, ident authz.Identity, expenseID uuid.UUID, req OverrideExpenseRequest) (*model.Expense, error) {
	if !model.ValidExpenseStatus(req.Status) {
		return nil, apperr.Validation("invalid status")
	}

	expense, err := s.expenseRepo.FindByID(ctx, expenseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("expense not found")
		}
		return nil, apperr.Internal(err)
	}
	previous := expense.Status

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		expense.Status = req.Status
		expense.ReviewComment = req.Comment
		if req.Status == model.ExpenseStatusApproved || req.Status == model.ExpenseStatusRejected {
			expense.ApprovedBy = &ident.ID
		}
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

		details, _ := json.Marshal(map[string]interface{}{
			"from":    previous,
			"to":      req.Status,
			"comment": req.Comment,
		})
		entry := &model.AdminActivityLog{
			UserID:     &ident.ID,
			Action:     model.ActionOverrideExpense,
			EntityID:   expense.ID.String(),
			EntityName: expense.Description,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, entry); auditErr != nil {
			return apperr.Internal(auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if notifyErr := s.dispatcher.NotifyUser(ctx, expense.SubmittedBy,
		"Expense status changed",
		"An administrator set your expense \""+expense.Description+"\" from "+previous+" to "+req.Status,
		model.NotificationInfo, "/expenses/"+expense.ID.String()); notifyErr != nil {
		log.Printf("expense-override notification failed: %v", notifyErr)
	}
	return expense, nil
}
