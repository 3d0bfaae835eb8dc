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

type CreateProjectRequest struct {
	Name           string `json:"name" binding:"required"`
	Description    string `json:"description"`
	TotalBudget    string `json:"total_budget" binding:"required"` // Decimal string
	Currency       string `json:"currency"`
	StartDate      string `json:"start_date"` // RFC3339 or YYYY-MM-DD
	EndDate        string `json:"end_date"`
	Status         string `json:"status"`
	BusinessUnitID string `json:"business_unit_id"`
}

type UpdateProjectRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	TotalBudget    string `json:"total_budget"`
	Currency       string `json:"currency"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Status         string `json:"status"`
	BusinessUnitID string `json:"business_unit_id"`
	BudgetReason   string `json:"budget_reason"` // recorded on the budget version when figures change
}

type ProjectListFilter struct {
	Search         string
	Status         string
	BusinessUnitID string
	Year           int
	Page           int
	Limit          int
}

// ProjectDetailResponse bundles the project with its team, milestones and
// budget categories for the single-project endpoint.
type ProjectDetailResponse struct {
	Project    *model.Project                `json:"project"`
	Team       []model.ProjectTeamMembership `json:"team"`
	Milestones []model.Milestone             `json:"milestones"`
	Categories []model.BudgetCategory        `json:"budget_categories"`
}

// --- Interface ---

type ProjectService interface {
	CreateProject(ctx context.Context, ident authz.Identity, req CreateProjectRequest) (*model.Project, error)
	ListProjects(ctx context.Context, ident authz.Identity, filter ProjectListFilter) ([]model.Project, int64, error)
	GetProject(ctx context.Context, ident authz.Identity, id uuid.UUID) (*ProjectDetailResponse, error)
	UpdateProject(ctx context.Context, ident authz.Identity, id uuid.UUID, req UpdateProjectRequest) (*model.Project, error)
	DeleteProject(ctx context.Context, ident authz.Identity, id uuid.UUID, cascade bool) error
	DashboardMetrics(ctx context.Context, ident authz.Identity) (*repository.DashboardMetrics, error)
	ListAdminProjects(ctx context.Context, ident authz.Identity, page, limit int) ([]model.Project, int64, error)
}

type projectService struct {
	projectRepo   repository.ProjectRepository
	teamRepo      repository.TeamRepository
	budgetRepo    repository.BudgetRepository
	milestoneRepo repository.MilestoneRepository
	auditRepo     repository.AuditRepository
	resolver      authz.Resolver
	txManager     repository.TransactionManager
	dispatcher    Dispatcher
}

func NewProjectService(
	projectRepo repository.ProjectRepository,
	teamRepo repository.TeamRepository,
	budgetRepo repository.BudgetRepository,
	milestoneRepo repository.MilestoneRepository,
	auditRepo repository.AuditRepository,
	resolver authz.Resolver,
	txManager repository.TransactionManager,
	dispatcher Dispatcher,
) ProjectService {
	return &projectService{
		projectRepo:   projectRepo,
		teamRepo:      teamRepo,
		budgetRepo:    budgetRepo,
		milestoneRepo: milestoneRepo,
		auditRepo:     auditRepo,
		resolver:      resolver,
		txManager:     txManager,
		dispatcher:    dispatcher,
	}
}

// --- Implementation ---

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *projectService) CreateProject(ctx context.Context, ident authz.Identity, req CreateProjectRequest) (*model.Project, error) {
	if ident.Role == model.SystemRoleViewer {
		return nil, apperr.Forbidden("viewers cannot create projects")
	}

	totalBudget, err := decimal.NewFromString(req.TotalBudget)
	if err != nil || totalBudget.IsNegative() {
		return nil, apperr.Validation("total_budget must be a non-negative decimal")
	}

	status := req.Status
	if status == "" {
		status = model.ProjectStatusPlanning
	}
	if !model.ValidProjectStatus(status) {
		return nil, apperr.Validation("invalid project status")
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return nil, apperr.Validation("invalid start_date")
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return nil, apperr.Validation("invalid end_date")
	}
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return nil, apperr.Validation("end_date must not precede start_date")
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	project := &model.Project{
		Name:        req.Name,
		Description: req.Description,
		TotalBudget: totalBudget,
		Currency:    currency,
		StartDate:   startDate,
		EndDate:     endDate,
		Status:      status,
		ManagerID:   ident.ID,
	}

	if req.BusinessUnitID != "" {
		unitID, parseErr := uuid.Parse(req.BusinessUnitID)
		if parseErr != nil {
			return nil, apperr.Validation("invalid business_unit_id")
		}
		project.BusinessUnitID = &unitID
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.projectRepo.Create(txCtx, project); createErr != nil {
			return apperr.Internal(createErr)
		}
		// The creator administers their own project from day one.
		membership := &model.ProjectTeamMembership{
			ProjectID: project.ID,
			UserID:    ident.ID,
			Role:      model.ProjectRoleAdmin,
		}
		if upsertErr := s.teamRepo.Upsert(txCtx, membership); upsertErr != nil {
			return apperr.Internal(upsertErr)
		}
		// Initial budget snapshot: version 1.
		version := &model.BudgetVersion{
			ProjectID:   project.ID,
			VersionNo:   1,
			TotalBudget: project.TotalBudget,
			Reason:      "initial budget",
			ChangedBy:   &ident.ID,
		}
		if versionErr := s.budgetRepo.CreateVersion(txCtx, version); versionErr != nil {
			return apperr.Internal(versionErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return project, nil
}

func (s *projectService) ListProjects(ctx context.Context, ident authz.Identity, filter ProjectListFilter) ([]model.Project, int64, error) {
	repoFilter := repository.ProjectFilter{
		Search: filter.Search,
		Status: filter.Status,
		Year:   filter.Year,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if filter.BusinessUnitID != "" {
		unitID, err := uuid.Parse(filter.BusinessUnitID)
		if err != nil {
			return nil, 0, apperr.Validation("invalid business_unit_id")
		}
		repoFilter.BusinessUnitID = &unitID
	}
	// Admins and managers see everything; everyone else only what they
	// manage or belong to.
	if !ident.HasOversight() {
		repoFilter.ScopeUserID = &ident.ID
	}

	projects, total, err := s.projectRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return projects, total, nil
}

func (s *projectService) GetProject(ctx context.Context, ident authz.Identity, id uuid.UUID) (*ProjectDetailResponse, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project not found")
		}
		return nil, apperr.Internal(err)
	}

	if !ident.HasOversight() && !s.resolver.Can(ctx, ident, id, model.PermViewProject) {
		return nil, apperr.Forbidden("no access to this project")
	}

	team, err := s.teamRepo.ListMembers(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	milestones, _, err := s.milestoneRepo.ListByProject(ctx, id, 1, 100)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	categories, err := s.budgetRepo.ListCategories(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &ProjectDetailResponse{
		Project:    project,
		Team:       team,
		Milestones: milestones,
		Categories: categories,
	}, nil
}

func (s *projectService) UpdateProject(ctx context.Context, ident authz.Identity, id uuid.UUID, req UpdateProjectRequest) (*model.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project not found")
		}
		return nil, apperr.Internal(err)
	}

	if !s.resolver.Can(ctx, ident, id, model.PermManageProject) {
		return nil, apperr.Forbidden("no permission to edit this project")
	}

	budgetChanged := false
	if req.TotalBudget != "" {
		totalBudget, parseErr := decimal.NewFromString(req.TotalBudget)
		if parseErr != nil || totalBudget.IsNegative() {
			return nil, apperr.Validation("total_budget must be a non-negative decimal")
		}
		if !totalBudget.Equal(project.TotalBudget) {
			project.TotalBudget = totalBudget
			budgetChanged = true
		}
	}
	if req.Name != "" {
		project.Name = req.Name
	}
	if req.Description != "" {
		project.Description = req.Description
	}
	if req.Currency != "" {
		project.Currency = req.Currency
	}
	if req.Status != "" {
		if !model.ValidProjectStatus(req.Status) {
			return nil, apperr.Validation("invalid project status")
		}
		project.Status = req.Status
	}
	if req.StartDate != "" {
		startDate, parseErr := parseDate(req.StartDate)
		if parseErr != nil {
			return nil, apperr.Validation("invalid start_date")
		}
		project.StartDate = startDate
	}
	if req.EndDate != "" {
		endDate, parseErr := parseDate(req.EndDate)
		if parseErr != nil {
			return nil, apperr.Validation("invalid end_date")
		}
		project.EndDate = endDate
	}
	if req.BusinessUnitID != "" {
		unitID, parseErr := uuid.Parse(req.BusinessUnitID)
		if parseErr != nil {
			return nil, apperr.Validation("invalid business_unit_id")
		}
		project.BusinessUnitID = &unitID
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.projectRepo.Update(txCtx, project); saveErr != nil {
			return apperr.Internal(saveErr)
		}
		if budgetChanged {
			versionNo, vErr := s.budgetRepo.NextVersionNo(txCtx, project.ID)
			if vErr != nil {
				return apperr.Internal(vErr)
			}
			version := &model.BudgetVersion{
				ProjectID:       project.ID,
				VersionNo:       versionNo,
				TotalBudget:     project.TotalBudget,
				AllocatedBudget: project.AllocatedBudget,
				SpentBudget:     project.SpentBudget,
				Reason:          req.BudgetReason,
				ChangedBy:       &ident.ID,
			}
			if vErr := s.budgetRepo.CreateVersion(txCtx, version); vErr != nil {
				return apperr.Internal(vErr)
			}
			details, _ := json.Marshal(map[string]interface{}{
				"total_budget": project.TotalBudget.StringFixed(4),
				"version_no":   versionNo,
			})
			entry := &model.AdminActivityLog{
				UserID:     &ident.ID,
				Action:     model.ActionUpdateBudget,
				EntityID:   project.ID.String(),
				EntityName: project.Name,
				Details:    string(details),
			}
			if auditErr := s.auditRepo.Log(txCtx, entry); auditErr != nil {
				return apperr.Internal(auditErr)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if budgetChanged {
		if notifyErr := s.dispatcher.NotifyProjectAdmins(ctx, project.ID,
			"Budget updated",
			"Total budget for "+project.Name+" is now "+project.TotalBudget.StringFixed(2)+" "+project.Currency,
			model.NotificationInfo, "/projects/"+project.ID.String()); notifyErr != nil {
			log.Printf("budget-update notification failed: %v", notifyErr)
		}
		if project.SpentBudget.GreaterThan(project.TotalBudget) {
			s.warnOverBudget(ctx, project)
		}
	}

	return project, nil
}

// warnOverBudget surfaces overspend as a risk signal instead of blocking the
// mutation that caused it.
func (s *projectService) warnOverBudget(ctx context.Context, project *model.Project) {
	if err := s.dispatcher.NotifyProjectAdmins(ctx, project.ID,
		"Budget exceeded",
		"Approved spend on "+project.Name+" ("+project.SpentBudget.StringFixed(2)+") exceeds the total budget ("+project.TotalBudget.StringFixed(2)+")",
		model.NotificationWarning, "/projects/"+project.ID.String()); err != nil {
		log.Printf("over-budget notification failed: %v", err)
	}
}

func (s *projectService) DeleteProject(ctx context.Context, ident authz.Identity, id uuid.UUID, cascade bool) error {
	if !ident.HasOversight() {
		return apperr.Forbidden("only admins and managers can delete projects")
	}

	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("project not found")
		}
		return apperr.Internal(err)
	}

	members, expenses, milestones, err := s.projectRepo.CountDependents(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if (members > 0 || expenses > 0 || milestones > 0) && !cascade {
		return apperr.DependencyConflict("project still has team members, expenses or milestones; pass cascade=true to delete them as well")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var deleteErr error
		if cascade {
			deleteErr = s.projectRepo.DeleteCascade(txCtx, id)
		} else {
			deleteErr = s.projectRepo.Delete(txCtx, id)
		}
		if deleteErr != nil {
			return apperr.Internal(deleteErr)
		}

		details, _ := json.Marshal(map[string]interface{}{"cascade": cascade})
		entry := &model.AdminActivityLog{
			UserID:     &ident.ID,
			Action:     model.ActionDeleteProject,
			EntityID:   id.String(),
			EntityName: project.Name,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, entry); auditErr != nil {
			return apperr.Internal(auditErr)
		}
		return nil
	})
}

func (s *projectService) DashboardMetrics(ctx context.Context, ident authz.Identity) (*repository.DashboardMetrics, error) {
	var scope *uuid.UUID
	if !ident.HasOversight() {
		scope = &ident.ID
	}
	metrics, err := s.projectRepo.Metrics(ctx, scope)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return metrics, nil
}

func (s *projectService) ListAdminProjects(ctx context.Context, ident authz.Identity, page, limit int) ([]model.Project, int64, error) {
	ids, all, err := s.resolver.AdminProjects(ctx, ident)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}

	filter := repository.ProjectFilter{Page: page, Limit: limit}
	if !all {
		if len(ids) == 0 {
			return []model.Project{}, 0, nil
		}
		filter.IDs = ids
	}

	projects, total, err := s.projectRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return projects, total, nil
}
