package service

import (
	"context"
	"errors"

	"budgetdesk/internal/authz"
	"budgetdesk/internal/model"
	"budgetdesk/internal/repository"
	"budgetdesk/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateMilestoneRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
}

type UpdateMilestoneRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status"`
	Progress    *int   `json:"progress"`
}

// --- Interface ---

type MilestoneService interface {
	ListMilestones(ctx context.Context, ident authz.Identity, projectID uuid.UUID, page, limit int) ([]model.Milestone, int64, error)
	CreateMilestone(ctx context.Context, ident authz.Identity, projectID uuid.UUID, req CreateMilestoneRequest) (*model.Milestone, error)
	UpdateMilestone(ctx context.Context, ident authz.Identity, milestoneID uuid.UUID, req UpdateMilestoneRequest) (*model.Milestone, error)
	DeleteMilestone(ctx context.Context, ident authz.Identity, milestoneID uuid.UUID) error
}

type milestoneService struct {
	milestoneRepo repository.MilestoneRepository
	projectRepo   repository.ProjectRepository
	resolver      authz.Resolver
	dispatcher    Dispatcher
}

func NewMilestoneService(
	milestoneRepo repository.MilestoneRepository,
	projectRepo repository.ProjectRepository,
	resolver authz.Resolver,
	dispatcher Dispatcher,
) MilestoneService {
	return &milestoneService{
		milestoneRepo: milestoneRepo,
		projectRepo:   projectRepo,
		resolver:      resolver,
		dispatcher:    dispatcher,
	}
}

// --- Implementation ---

func (s *milestoneService) ListMilestones(ctx context.Context, ident authz.Identity, projectID uuid.UUID, page, limit int) ([]model.Milestone, int64, error) {
	if _, err := s.requireProject(ctx, projectID); err != nil {
		return nil, 0, err
	}
	if !ident.HasOversight() && !s.resolver.Can(ctx, ident, projectID, model.PermViewProject) {
		return nil, 0, apperr.Forbidden("no access to this project")
	}

	milestones, total, err := s.milestoneRepo.ListByProject(ctx, projectID, page, limit)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return milestones, total, nil
}

func (s *milestoneService) CreateMilestone(ctx context.Context, ident authz.Identity, projectID uuid.UUID, req CreateMilestoneRequest) (*model.Milestone, error) {
	if _, err := s.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	if !s.resolver.Can(ctx, ident, projectID, model.PermManageMilestones) {
		return nil, apperr.Forbidden("no permission to manage milestones on this project")
	}

	milestone := &model.Milestone{
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      model.MilestoneStatusPending,
	}
	if req.DueDate != "" {
		due, err := parseDate(req.DueDate)
		if err != nil {
			return nil, apperr.Validation("invalid due_date")
		}
		milestone.DueDate = due
	}

	if err := s.milestoneRepo.Create(ctx, milestone); err != nil {
		return nil, apperr.Internal(err)
	}
	return milestone, nil
}

func (s *milestoneService) UpdateMilestone(ctx context.Context, ident authz.Identity, milestoneID uuid.UUID, req UpdateMilestoneRequest) (*model.Milestone, error) {
	milestone, err := s.milestoneRepo.FindByID(ctx, milestoneID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("milestone not found")
		}
		return nil, apperr.Internal(err)
	}
	projectID := milestone.ProjectID

	project, err := s.requireProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !s.resolver.Can(ctx, ident, projectID, model.PermManageMilestones) {
		return nil, apperr.Forbidden("no permission to manage milestones on this project")
	}

	if req.Title != "" {
		milestone.Title = req.Title
	}
	if req.Description != "" {
		milestone.Description = req.Description
	}
	if req.DueDate != "" {
		due, parseErr := parseDate(req.DueDate)
		if parseErr != nil {
			return nil, apperr.Validation("invalid due_date")
		}
		milestone.DueDate = due
	}
	if req.Progress != nil {
		if *req.Progress < 0 || *req.Progress > 100 {
			return nil, apperr.Validation("progress must be between 0 and 100")
		}
		milestone.Progress = *req.Progress
	}

	completed := false
	if req.Status != "" {
		if !model.ValidMilestoneStatus(req.Status) {
			return nil, apperr.Validation("invalid status")
		}
		completed = req.Status == model.MilestoneStatusCompleted && milestone.Status != model.MilestoneStatusCompleted
		milestone.Status = req.Status
		if completed {
			milestone.Progress = 100
		}
	}

	if err := s.milestoneRepo.Update(ctx, milestone); err != nil {
		return nil, apperr.Internal(err)
	}

	if completed {
		// Best effort, the milestone update already committed.
		_ = s.dispatcher.NotifyProjectTeam(ctx, projectID,
			"Milestone completed",
			"\""+milestone.Title+"\" on "+project.Name+" is complete",
			model.NotificationSuccess, "/projects/"+projectID.String()+"/milestones")
	}
	return milestone, nil
}

func (s *milestoneService) DeleteMilestone(ctx context.Context, ident authz.Identity, milestoneID uuid.UUID) error {
	milestone, err := s.milestoneRepo.FindByID(ctx, milestoneID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("milestone not found")
		}
		return apperr.Internal(err)
	}
	projectID := milestone.ProjectID

	if _, err := s.requireProject(ctx, projectID); err != nil {
		return err
	}
	if !s.resolver.Can(ctx, ident, projectID, model.PermManageMilestones) {
		return apperr.Forbidden("no permission to manage milestones on this project")
	}

	if err := s.milestoneRepo.Delete(ctx, milestoneID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *milestoneService) requireProject(ctx context.Context, projectID uuid.UUID) (*model.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project not found")
		}
		return nil, apperr.Internal(err)
	}
	return project, nil
}
