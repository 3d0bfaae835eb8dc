package repository

import (
	"context"

	"budgetdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MilestoneRepository interface {
	Create(ctx context.Context, milestone *model.Milestone) error
	Update(ctx context.Context, milestone *model.Milestone) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Milestone, error)
	ListByProject(ctx context.Context, projectID uuid.UUID, page, limit int) ([]model.Milestone, int64, error)
}

type milestoneRepository struct {
	db *gorm.DB
}

func NewMilestoneRepository(db *gorm.DB) MilestoneRepository {
	return &milestoneRepository{db: db}
}

func (r *milestoneRepository) Create(ctx context.Context, milestone *model.Milestone) error {
	return GetDB(ctx, r.db).Create(milestone).Error
}

func (r *milestoneRepository) Update(ctx context.Context, milestone *model.Milestone) error {
	return GetDB(ctx, r.db).Save(milestone).Error
}

func (r *milestoneRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Milestone{}).Error
}

func (r *milestoneRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Milestone, error) {
	var milestone model.Milestone
	if err := GetDB(ctx, r.db).First(&milestone, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &milestone, nil
}

func (r *milestoneRepository) ListByProject(ctx context.Context, projectID uuid.UUID, page, limit int) ([]model.Milestone, int64, error) {
	var milestones []model.Milestone
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Milestone{}).
		Where("project_id = ?", projectID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Where("project_id = ?", projectID).
		Order("due_date ASC NULLS LAST, created_at ASC").
		Offset(offset).Limit(limit).
		Find(&milestones).Error; err != nil {
		return nil, 0, err
	}

	return milestones, total, nil
}
