package repository

import (
	"context"

	"budgetdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TeamRepository interface {
	GetMembership(ctx context.Context, projectID, userID uuid.UUID) (*model.ProjectTeamMembership, error)
	ListMembers(ctx context.Context, projectID uuid.UUID) ([]model.ProjectTeamMembership, error)
	Upsert(ctx context.Context, membership *model.ProjectTeamMembership) error
	UpdateRole(ctx context.Context, projectID, userID uuid.UUID, role model.ProjectRole) error
	TeamUserIDs(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error)
	AdminUserIDs(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error)
	AdminProjectIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Remove(ctx context.Context, projectID, userID uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type teamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) GetMembership(ctx context.Context, projectID, userID uuid.UUID) (*model.ProjectTeamMembership, error) {
	var m model.ProjectTeamMembership
	if err := GetDB(ctx, r.db).
		First(&m, "project_id = ? AND user_id = ?", projectID, userID).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *teamRepository) ListMembers(ctx context.Context, projectID uuid.UUID) ([]model.ProjectTeamMembership, error) {
	var members []model.ProjectTeamMembership
	err := GetDB(ctx, r.db).Preload("User").
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

// Upsert inserts the membership or, when the (project, user) pair already
// exists, updates its role in place. The unique index is the race guard.
func (r *teamRepository) Upsert(ctx context.Context, membership *model.ProjectTeamMembership) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
	}).Create(membership).Error
}

func (r *teamRepository) UpdateRole(ctx context.Context, projectID, userID uuid.UUID, role model.ProjectRole) error {
	return GetDB(ctx, r.db).Model(&model.ProjectTeamMembership{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Update("role", role).Error
}

func (r *teamRepository) TeamUserIDs(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).Model(&model.ProjectTeamMembership{}).
		Where("project_id = ?", projectID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *teamRepository) AdminUserIDs(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).Model(&model.ProjectTeamMembership{}).
		Where("project_id = ? AND role = ?", projectID, model.ProjectRoleAdmin).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *teamRepository) AdminProjectIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).Model(&model.ProjectTeamMembership{}).
		Where("user_id = ? AND role = ?", userID, model.ProjectRoleAdmin).
		Pluck("project_id", &ids).Error
	return ids, err
}

func (r *teamRepository) Remove(ctx context.Context, projectID, userID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&model.ProjectTeamMembership{}).Error
}

func (r *teamRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("user_id = ?", userID).Delete(&model.ProjectTeamMembership{}).Error
}
