package repository

import (
	"context"

	"budgetdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditFilter narrows the admin activity listing.
type AuditFilter struct {
	Action string
	UserID *uuid.UUID
	Page   int
	Limit  int
}

func (f AuditFilter) apply(db *gorm.DB) *gorm.DB {
	if f.Action != "" {
		db = db.Where("action = ?", f.Action)
	}
	if f.UserID != nil {
		db = db.Where("user_id = ?", *f.UserID)
	}
	return db
}

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AdminActivityLog) error
	List(ctx context.Context, filter AuditFilter) ([]model.AdminActivityLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AdminActivityLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]model.AdminActivityLog, int64, error) {
	var logs []model.AdminActivityLog
	var total int64

	db := GetDB(ctx, r.db)
	if err := filter.apply(db.Model(&model.AdminActivityLog{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := filter.apply(db.Model(&model.AdminActivityLog{})).
		Preload("User").Order("created_at DESC").Offset(offset).Limit(filter.Limit).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
