package repository

import (
	"context"

	"budgetdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BusinessUnitRepository interface {
	Create(ctx context.Context, unit *model.BusinessUnit) error
	Update(ctx context.Context, unit *model.BusinessUnit) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.BusinessUnit, error)
	FindByName(ctx context.Context, name string) (*model.BusinessUnit, error)
	List(ctx context.Context, search string, page, limit int) ([]model.BusinessUnit, int64, error)
}

type businessUnitRepository struct {
	db *gorm.DB
}

func NewBusinessUnitRepository(db *gorm.DB) BusinessUnitRepository {
	return &businessUnitRepository{db: db}
}

func (r *businessUnitRepository) Create(ctx context.Context, unit *model.BusinessUnit) error {
	return GetDB(ctx, r.db).Create(unit).Error
}

func (r *businessUnitRepository) Update(ctx context.Context, unit *model.BusinessUnit) error {
	return GetDB(ctx, r.db).Save(unit).Error
}

func (r *businessUnitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.BusinessUnit{}).Error
}

func (r *businessUnitRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.BusinessUnit, error) {
	var unit model.BusinessUnit
	if err := GetDB(ctx, r.db).Preload("Head").First(&unit, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *businessUnitRepository) FindByName(ctx context.Context, name string) (*model.BusinessUnit, error) {
	var unit model.BusinessUnit
	if err := GetDB(ctx, r.db).First(&unit, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *businessUnitRepository) List(ctx context.Context, search string, page, limit int) ([]model.BusinessUnit, int64, error) {
	var units []model.BusinessUnit
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.BusinessUnit{})
	if search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Model(&model.BusinessUnit{}).Preload("Head")
	if search != "" {
		fetch = fetch.Where("name ILIKE ?", "%"+search+"%")
	}
	if err := fetch.Order("name ASC").Offset(offset).Limit(limit).Find(&units).Error; err != nil {
		return nil, 0, err
	}

	return units, total, nil
}
