package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"sopdesk/logger"
	"sopdesk/models"
)

// ProgressRepository defines the interface for per-user SOP progress.
type ProgressRepository interface {
	FindByUserAndSOP(ctx context.Context, tx *gorm.DB, userID, sopID uint) (*models.UserProgress, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.UserProgress, error)
	Save(ctx context.Context, tx *gorm.DB, progress *models.UserProgress) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.UserProgress, error)
	ListBySOP(ctx context.Context, tx *gorm.DB, sopID uint) ([]*models.UserProgress, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*models.UserProgress, error)
	DeleteForSOP(ctx context.Context, tx *gorm.DB, sopID uint) error
	DeleteForUser(ctx context.Context, tx *gorm.DB, userID uint) error
}

type progressRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewProgressRepository creates a new instance of ProgressRepository.
func NewProgressRepository(db *gorm.DB, baseLog *logger.Logger) ProgressRepository {
	return &progressRepository{db: db, log: baseLog.With("component", "ProgressRepository")}
}

func (r *progressRepository) FindByUserAndSOP(ctx context.Context, tx *gorm.DB, userID, sopID uint) (*models.UserProgress, error) {
	var progress models.UserProgress
	err := conn(ctx, r.db, tx).Where("user_id = ? AND sop_id = ?", userID, sopID).First(&progress).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve progress of user %d on SOP %d: %w", userID, sopID, err)
	}
	return &progress, nil
}

func (r *progressRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.UserProgress, error) {
	var progress models.UserProgress
	if err := conn(ctx, r.db, tx).First(&progress, id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve progress %d: %w", id, err)
	}
	return &progress, nil
}

// Save inserts a new record or overwrites an existing one.
func (r *progressRepository) Save(ctx context.Context, tx *gorm.DB, progress *models.UserProgress) error {
	if err := conn(ctx, r.db, tx).Save(progress).Error; err != nil {
		r.log.Error("failed to save progress", "userId", progress.UserID, "sopId", progress.SOPID, "error", err)
		return fmt.Errorf("failed to save progress of user %d on SOP %d: %w", progress.UserID, progress.SOPID, err)
	}
	return nil
}

func (r *progressRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if err := conn(ctx, r.db, tx).Delete(&models.UserProgress{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete progress %d: %w", id, err)
	}
	return nil
}

func (r *progressRepository) ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.UserProgress, error) {
	var records []*models.UserProgress
	if err := conn(ctx, r.db, tx).Where("user_id = ?", userID).Order(orderBy("id")).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list progress of user %d: %w", userID, err)
	}
	return records, nil
}

func (r *progressRepository) ListBySOP(ctx context.Context, tx *gorm.DB, sopID uint) ([]*models.UserProgress, error) {
	var records []*models.UserProgress
	if err := conn(ctx, r.db, tx).Where("sop_id = ?", sopID).Order(orderBy("id")).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list progress on SOP %d: %w", sopID, err)
	}
	return records, nil
}

func (r *progressRepository) ListAll(ctx context.Context, tx *gorm.DB) ([]*models.UserProgress, error) {
	var records []*models.UserProgress
	if err := conn(ctx, r.db, tx).Order(orderBy("id")).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	return records, nil
}

func (r *progressRepository) DeleteForSOP(ctx context.Context, tx *gorm.DB, sopID uint) error {
	if err := conn(ctx, r.db, tx).Where("sop_id = ?", sopID).Delete(&models.UserProgress{}).Error; err != nil {
		return fmt.Errorf("failed to delete progress on SOP %d: %w", sopID, err)
	}
	return nil
}

func (r *progressRepository) DeleteForUser(ctx context.Context, tx *gorm.DB, userID uint) error {
	if err := conn(ctx, r.db, tx).Where("user_id = ?", userID).Delete(&models.UserProgress{}).Error; err != nil {
		return fmt.Errorf("failed to delete progress of user %d: %w", userID, err)
	}
	return nil
}
