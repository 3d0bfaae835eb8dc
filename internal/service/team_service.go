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
	"gorm.io/gorm"
)

// --- DTOs ---

type AddMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role"`
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// --- Interface ---

type TeamService interface {
	ListTeam(ctx context.Context, ident authz.Identity, projectID uuid.UUID) ([]model.ProjectTeamMembership, error)
	AddMember(ctx context.Context, ident authz.Identity, projectID uuid.UUID, req AddMemberRequest) (*model.ProjectTeamMembership, error)
	UpdateMemberRole(ctx context.Context, ident authz.Identity, projectID, userID uuid.UUID, req UpdateMemberRoleRequest) error
	RemoveMember(ctx context.Context, ident authz.Identity, projectID, userID uuid.UUID) error
	AssignAdmin(ctx context.Context, ident authz.Identity, projectID, userID uuid.UUID) error
	RemoveAdmin(ctx context.Context, ident authz.Identity, projectID, userID uuid.UUID) error
}

type teamService struct {
	teamRepo    repository.TeamRepository
	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
	auditRepo   repository.AuditRepository
	resolver    authz.Resolver
	txManager   repository.TransactionManager
	dispatcher  Dispatcher
}

func NewTeamService(
	teamRepo repository.TeamRepository,
	userRepo repository.UserRepository,
	projectRepo repository.ProjectRepository,
	auditRepo repository.AuditRepository,
	resolver authz.Resolver,
	txManager repository.TransactionManager,
	dispatcher Dispatcher,
) TeamService {
	return &teamService{
		teamRepo:    teamRepo,
		userRepo:    userRepo,
		projectRepo: projectRepo,
		auditRepo:   auditRepo,
		resolver:    resolver,
		txManager:   txManager,
		dispatcher:  dispatcher,
	}
}

// --- Implementation ---

func (s *teamService) ListTeam(ctx context.Context, ident authz.Identity, projectID uuid.UUID) ([]model.ProjectTeamMembership, error) {
	if _, err := s.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	if !ident.HasOversight() && !s.resolver.Can(ctx, ident, projectID, model.PermViewProject) {
		return nil, apperr.Forbidden("no access to this project")
	}

	members, err := s.teamRepo.ListMembers(ctx, projectID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return members, nil
}

func (s *teamService) AddMember(ctx context.Context, ident authz.Identity, projectID uuid.UUID, req AddMemberRequest) (*model.ProjectTeamMembership, error) {
	project, err := s.requireProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !s.resolver.Can(ctx, ident, projectID, model.PermManageTeam) {
		return nil, apperr.Forbidden("no permission to manage this team")
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, apperr.Validation("invalid user_id")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.Validation("user not found")
	}
	if !user.IsActive {
		return nil, apperr.Validation("cannot add a deactivated user")
	}

	role := model.ProjectRoleMember
	if req.Role != "" {
		parsed, ok := model.ParseProjectRole(req.Role)
		if !ok {
			return nil, apperr.Validation("invalid role")
		}
		role = parsed
	}

	membership := &model.ProjectTeamMembership{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, lookupErr := s.teamRepo.GetMembership(txCtx, projectID, userID); lookupErr == nil {
			return apperr.Conflict("user is already a member of this project")
		} else if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			return apperr.Internal(lookupErr)
		}
		if upsertErr := s.teamRepo.Upsert(txCtx, membership); upsertErr != nil {
			return apperr.Internal(upsertErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if notifyErr := s.dispatcher.NotifyUser(ctx, userID,
		"Added to project",
		"You were added to "+project.Name+" as "+string(role),
		model.NotificationInfo, "/projects/"+projectID.String()); notifyErr != nil {
		log.Printf("member-added notification failed: %v", notifyErr)
	}

	membership.User = user
	return membership, nil
}

func (s *teamService) UpdateMemberRole(ctx context.Context, ident authz.Identity, projectID, userID uuid.UUID, req UpdateMemberRoleRequest) error {
	if _, err := s.requireProject(ctx, projectID); err != nil {
		return err
	}
	if !s.resolver.Can(ctx, ident, projectID, model.PermManageTeam) {
		return apperr.Forbidden("no permission to manage this team")
	}

	role, ok := model.ParseProjectRole(req.Role)
	if !ok {
		return apperr.Validation("invalid role")
	}

	if _, err := s.teamRepo.GetMembership(ctx, projectID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("membership not found")
		}
		return apperr.Internal(err)
	}

	if err := s.teamRepo.UpdateRole(ctx, projectID, userID, role); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *teamService) RemoveMember(ctx context.Context, ident authz.Identity, projectID, userID uuid.UUID) error {
	if _, err := s.requireProject(ctx, projectID); err != nil {
		return err
	}
	if !s.resolver.Can(ctx, ident, projectID, model.PermManageTeam) {
		return apperr.Forbidden("no permission to manage this team")
	}

	membership, err := s.teamRepo.GetMembership(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("membership not found")
		}
		return apperr.Internal(err)
	}
	// Admins are removed through the admin endpoints, which demote first.
	if membership.Role == model.ProjectRoleAdmin {
		return apperr.Conflict("remove the admin role before removing this member")
	}

	if err := s.teamRepo.Remove(ctx, projectID, userID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *teamService) AssignAdmin(ctx context.Context, ident authz.Identity, projectID, userID uuid.UUID) error {
	project, err := s.requireProject(ctx, projectID)
	if err != nil {
		return err
	}
	if !s.resolver.Can(ctx, ident, projectID, model.PermManageTeam) {
		return apperr.Forbidden("no permission to manage this team")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return apperr.Validation("user not found")
	}
	if !user.IsActive {
		return apperr.Validation("cannot assign a deactivated user")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Upsert makes re-assignment idempotent: an existing membership is
		// promoted in place.
		membership := &model.ProjectTeamMembership{
			ProjectID: projectID,
			UserID:    userID,
			Role:      model.ProjectRoleAdmin,
		}
		if upsertErr := s.teamRepo.Upsert(txCtx, membership); upsertErr != nil {
			return apperr.Internal(upsertErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"project_id": projectID,
			"user_id":    userID,
		})
		entry := &model.AdminActivityLog{
			UserID:     &ident.ID,
			Action:     model.ActionAssignAdmin,
			EntityID:   projectID.String(),
			EntityName: project.Name,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, entry); auditErr != nil {
			return apperr.Internal(auditErr)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if notifyErr := s.dispatcher.NotifyUser(ctx, userID,
		"Project admin assigned",
		"You are now an admin of "+project.Name,
		model.NotificationSuccess, "/projects/"+projectID.String()); notifyErr != nil {
		log.Printf("admin-assigned notification failed: %v", notifyErr)
	}
	return nil
}

// RemoveAdmin demotes the membership to member. It never deletes the row, so
// the user keeps ordinary access to the project.
func (s *teamService) RemoveAdmin(ctx context.Context, ident authz.Identity, projectID, userID uuid.UUID) error {
	project, err := s.requireProject(ctx, projectID)
	if err != nil {
		return err
	}
	if !s.resolver.Can(ctx, ident, projectID, model.PermManageTeam) {
		return apperr.Forbidden("no permission to manage this team")
	}

	membership, err := s.teamRepo.GetMembership(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("membership not found")
		}
		return apperr.Internal(err)
	}
	if membership.Role != model.ProjectRoleAdmin {
		return apperr.Conflict("user is not an admin of this project")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if roleErr := s.teamRepo.UpdateRole(txCtx, projectID, userID, model.ProjectRoleMember); roleErr != nil {
			return apperr.Internal(roleErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"project_id": projectID,
			"user_id":    userID,
		})
		entry := &model.AdminActivityLog{
			UserID:     &ident.ID,
			Action:     model.ActionRemoveAdmin,
			EntityID:   projectID.String(),
			EntityName: project.Name,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, entry); auditErr != nil {
			return apperr.Internal(auditErr)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if notifyErr := s.dispatcher.NotifyUser(ctx, userID,
		"Project admin removed",
		"You are no longer an admin of "+project.Name,
		model.NotificationInfo, "/projects/"+projectID.String()); notifyErr != nil {
		log.Printf("admin-removed notification failed: %v", notifyErr)
	}
	return nil
}

func (s *teamService) requireProject(ctx context.Context, projectID uuid.UUID) (*model.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project not found")
		}
		return nil, apperr.Internal(err)
	}
	return project, nil
}
