package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"sopdesk/logger"
	"sopdesk/models"
)

// SOPFilter narrows a SOP listing. Zero values match everything.
type SOPFilter struct {
	Status     models.SOPStatus
	CategoryID uint
	TagID      uint
	Department string
}

// SOPRepository defines the interface for interacting with SOP rows.
type SOPRepository interface {
	Create(ctx context.Context, tx *gorm.DB, sop *models.SOP) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.SOP, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.SOP, error)
	List(ctx context.Context, tx *gorm.DB, filter SOPFilter) ([]*models.SOP, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
	Update(ctx context.Context, tx *gorm.DB, sop *models.SOP) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type sopRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewSOPRepository creates a new instance of SOPRepository.
func NewSOPRepository(db *gorm.DB, baseLog *logger.Logger) SOPRepository {
	return &sopRepository{db: db, log: baseLog.With("component", "SOPRepository")}
}

func (r *sopRepository) Create(ctx context.Context, tx *gorm.DB, sop *models.SOP) error {
	if sop == nil {
		return fmt.Errorf("sop cannot be nil")
	}
	if err := conn(ctx, r.db, tx).Create(sop).Error; err != nil {
		r.log.Error("failed to create SOP", "title", sop.Title, "error", err)
		return fmt.Errorf("failed to create SOP %q: %w", sop.Title, err)
	}
	r.log.Debug("SOP created", "id", sop.ID)
	return nil
}

func (r *sopRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.SOP, error) {
	var sop models.SOP
	if err := conn(ctx, r.db, tx).First(&sop, id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve SOP %d: %w", id, err)
	}
	return &sop, nil
}

func (r *sopRepository) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.SOP, error) {
	var sops []*models.SOP
	if len(ids) == 0 {
		return sops, nil
	}
	if err := conn(ctx, r.db, tx).Where("id IN ?", ids).Find(&sops).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve SOPs %v: %w", ids, err)
	}
	return sops, nil
}

// List returns SOPs matching filter, newest first.
func (r *sopRepository) List(ctx context.Context, tx *gorm.DB, filter SOPFilter) ([]*models.SOP, error) {
	query := conn(ctx, r.db, tx).Model(&models.SOP{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if filter.TagID != 0 {
		query = query.Where("id IN (?)", conn(ctx, r.db, tx).Model(&models.SOPTag{}).Select("sop_id").Where("tag_id = ?", filter.TagID))
	}

	var sops []*models.SOP
	if err := query.Order(newestFirst()).Find(&sops).Error; err != nil {
		return nil, fmt.Errorf("failed to list SOPs: %w", err)
	}
	return sops, nil
}

func (r *sopRepository) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	if err := conn(ctx, r.db, tx).Model(&models.SOP{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count SOPs: %w", err)
	}
	return count, nil
}

// Update writes every column of sop, including nil pointers.
func (r *sopRepository) Update(ctx context.Context, tx *gorm.DB, sop *models.SOP) error {
	if err := conn(ctx, r.db, tx).Save(sop).Error; err != nil {
		r.log.Error("failed to update SOP", "id", sop.ID, "error", err)
		return fmt.Errorf("failed to update SOP %d: %w", sop.ID, err)
	}
	return nil
}

func (r *sopRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if err := conn(ctx, r.db, tx).Delete(&models.SOP{}, id).Error; err != nil {
		r.log.Error("failed to delete SOP", "id", id, "error", err)
		return fmt.Errorf("failed to delete SOP %d: %w", id, err)
	}
	return nil
}
