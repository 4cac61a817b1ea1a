package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"sopdesk/logger"
	"sopdesk/models"
)

// StepRepository defines the interface for interacting with SOP steps.
type StepRepository interface {
	Create(ctx context.Context, tx *gorm.DB, step *models.SOPStep) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.SOPStep, error)
	StepsForSOP(ctx context.Context, tx *gorm.DB, sopID uint) ([]*models.SOPStep, error)
	CountForSOP(ctx context.Context, tx *gorm.DB, sopID uint) (int64, error)
	Update(ctx context.Context, tx *gorm.DB, step *models.SOPStep) error
	UpdateNumbers(ctx context.Context, tx *gorm.DB, steps []*models.SOPStep) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	DeleteForSOP(ctx context.Context, tx *gorm.DB, sopID uint) error
}

type stepRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewStepRepository creates a new instance of StepRepository.
func NewStepRepository(db *gorm.DB, baseLog *logger.Logger) StepRepository {
	return &stepRepository{db: db, log: baseLog.With("component", "StepRepository")}
}

func (r *stepRepository) Create(ctx context.Context, tx *gorm.DB, step *models.SOPStep) error {
	if err := conn(ctx, r.db, tx).Create(step).Error; err != nil {
		r.log.Error("failed to create step", "sopId", step.SOPID, "error", err)
		return fmt.Errorf("failed to create step for SOP %d: %w", step.SOPID, err)
	}
	return nil
}

func (r *stepRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.SOPStep, error) {
	var step models.SOPStep
	if err := conn(ctx, r.db, tx).First(&step, id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve step %d: %w", id, err)
	}
	return &step, nil
}

// StepsForSOP returns the steps in display order.
func (r *stepRepository) StepsForSOP(ctx context.Context, tx *gorm.DB, sopID uint) ([]*models.SOPStep, error) {
	var steps []*models.SOPStep
	err := conn(ctx, r.db, tx).Where("sop_id = ?", sopID).Order(orderBy("step_number", "id")).Find(&steps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve steps for SOP %d: %w", sopID, err)
	}
	return steps, nil
}

func (r *stepRepository) CountForSOP(ctx context.Context, tx *gorm.DB, sopID uint) (int64, error) {
	var count int64
	if err := conn(ctx, r.db, tx).Model(&models.SOPStep{}).Where("sop_id = ?", sopID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count steps for SOP %d: %w", sopID, err)
	}
	return count, nil
}

func (r *stepRepository) Update(ctx context.Context, tx *gorm.DB, step *models.SOPStep) error {
	if err := conn(ctx, r.db, tx).Save(step).Error; err != nil {
		r.log.Error("failed to update step", "id", step.ID, "error", err)
		return fmt.Errorf("failed to update step %d: %w", step.ID, err)
	}
	return nil
}

// UpdateNumbers persists only the step_number column of each step.
func (r *stepRepository) UpdateNumbers(ctx context.Context, tx *gorm.DB, steps []*models.SOPStep) error {
	db := conn(ctx, r.db, tx)
	for _, step := range steps {
		if err := db.Model(step).Update("step_number", step.StepNumber).Error; err != nil {
			return fmt.Errorf("failed to renumber step %d: %w", step.ID, err)
		}
	}
	return nil
}

func (r *stepRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if err := conn(ctx, r.db, tx).Delete(&models.SOPStep{}, id).Error; err != nil {
		r.log.Error("failed to delete step", "id", id, "error", err)
		return fmt.Errorf("failed to delete step %d: %w", id, err)
	}
	return nil
}

func (r *stepRepository) DeleteForSOP(ctx context.Context, tx *gorm.DB, sopID uint) error {
	if err := conn(ctx, r.db, tx).Where("sop_id = ?", sopID).Delete(&models.SOPStep{}).Error; err != nil {
		return fmt.Errorf("failed to delete steps for SOP %d: %w", sopID, err)
	}
	return nil
}
