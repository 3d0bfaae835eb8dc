package service

import (
	"context"
	"encoding/json"
	"errors"

	"budgetdesk/internal/authz"
	"budgetdesk/internal/model"
	"budgetdesk/internal/repository"
	"budgetdesk/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type BusinessUnitRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	HeadUserID  string `json:"head_user_id"`
}

// --- Interface ---

type BusinessUnitService interface {
	ListBusinessUnits(ctx context.Context, search string, page, limit int) ([]model.BusinessUnit, int64, error)
	GetBusinessUnit(ctx context.Context, id uuid.UUID) (*model.BusinessUnit, error)
	CreateBusinessUnit(ctx context.Context, ident authz.Identity, req BusinessUnitRequest) (*model.BusinessUnit, error)
	UpdateBusinessUnit(ctx context.Context, ident authz.Identity, id uuid.UUID, req BusinessUnitRequest) (*model.BusinessUnit, error)
	DeleteBusinessUnit(ctx context.Context, ident authz.Identity, id uuid.UUID) error
}

type businessUnitService struct {
	unitRepo    repository.BusinessUnitRepository
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewBusinessUnitService(
	unitRepo repository.BusinessUnitRepository,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) BusinessUnitService {
	return &businessUnitService{
		unitRepo:    unitRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

// --- Implementation ---

func (s *businessUnitService) ListBusinessUnits(ctx context.Context, search string, page, limit int) ([]model.BusinessUnit, int64, error) {
	units, total, err := s.unitRepo.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return units, total, nil
}

func (s *businessUnitService) GetBusinessUnit(ctx context.Context, id uuid.UUID) (*model.BusinessUnit, error) {
	unit, err := s.unitRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("business unit not found")
		}
		return nil, apperr.Internal(err)
	}
	return unit, nil
}

func (s *businessUnitService) CreateBusinessUnit(ctx context.Context, ident authz.Identity, req BusinessUnitRequest) (*model.BusinessUnit, error) {
	unit := &model.BusinessUnit{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.HeadUserID != "" {
		headID, err := uuid.Parse(req.HeadUserID)
		if err != nil {
			return nil, apperr.Validation("invalid head_user_id")
		}
		if _, err := s.userRepo.GetByID(ctx, headID); err != nil {
			return nil, apperr.Validation("head user not found")
		}
		unit.HeadUserID = &headID
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, lookupErr := s.unitRepo.FindByName(txCtx, req.Name); lookupErr == nil {
			return apperr.Conflict("a business unit with this name already exists")
		} else if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			return apperr.Internal(lookupErr)
		}
		if createErr := s.unitRepo.Create(txCtx, unit); createErr != nil {
			return apperr.Internal(createErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return unit, nil
}

func (s *businessUnitService) UpdateBusinessUnit(ctx context.Context, ident authz.Identity, id uuid.UUID, req BusinessUnitRequest) (*model.BusinessUnit, error) {
	unit, err := s.unitRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("business unit not found")
		}
		return nil, apperr.Internal(err)
	}

	if req.HeadUserID != "" {
		headID, parseErr := uuid.Parse(req.HeadUserID)
		if parseErr != nil {
			return nil, apperr.Validation("invalid head_user_id")
		}
		if _, lookupErr := s.userRepo.GetByID(ctx, headID); lookupErr != nil {
			return nil, apperr.Validation("head user not found")
		}
		unit.HeadUserID = &headID
	}
	if req.Description != "" {
		unit.Description = req.Description
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if req.Name != "" && req.Name != unit.Name {
			if _, lookupErr := s.unitRepo.FindByName(txCtx, req.Name); lookupErr == nil {
				return apperr.Conflict("a business unit with this name already exists")
			} else if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
				return apperr.Internal(lookupErr)
			}
			unit.Name = req.Name
		}
		if saveErr := s.unitRepo.Update(txCtx, unit); saveErr != nil {
			return apperr.Internal(saveErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return unit, nil
}

func (s *businessUnitService) DeleteBusinessUnit(ctx context.Context, ident authz.Identity, id uuid.UUID) error {
	unit, err := s.unitRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("business unit not found")
		}
		return apperr.Internal(err)
	}

	count, err := s.projectRepo.CountByBusinessUnit(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if count > 0 {
		return apperr.DependencyConflict("business unit has projects and cannot be deleted")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.unitRepo.Delete(txCtx, id); deleteErr != nil {
			return apperr.Internal(deleteErr)
		}
		details, _ := json.Marshal(map[string]interface{}{"name": unit.Name})
		entry := &model.AdminActivityLog{
			UserID:     &ident.ID,
			Action:     model.ActionDeleteBizUnit,
			EntityID:   id.String(),
			EntityName: unit.Name,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, entry); auditErr != nil {
			return apperr.Internal(auditErr)
		}
		return nil
	})
}
