package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"sopdesk/logger"
	"sopdesk/models"
)

// CategoryRepository defines the interface for interacting with category data.
type CategoryRepository interface {
	Create(ctx context.Context, tx *gorm.DB, category *models.Category) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Category, error)
	List(ctx context.Context, tx *gorm.DB) ([]*models.Category, error)
	Update(ctx context.Context, tx *gorm.DB, category *models.Category) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	CountSOPs(ctx context.Context, tx *gorm.DB, id uint) (int64, error)
}

type categoryRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewCategoryRepository creates a new instance of CategoryRepository.
func NewCategoryRepository(db *gorm.DB, baseLog *logger.Logger) CategoryRepository {
	return &categoryRepository{db: db, log: baseLog.With("component", "CategoryRepository")}
}

func (r *categoryRepository) Create(ctx context.Context, tx *gorm.DB, category *models.Category) error {
	if err := conn(ctx, r.db, tx).Create(category).Error; err != nil {
		r.log.Error("failed to create category", "name", category.Name, "error", err)
		return fmt.Errorf("failed to create category %q: %w", category.Name, err)
	}
	return nil
}

// GetByID returns (nil, nil) when no category has the id.
func (r *categoryRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Category, error) {
	var category models.Category
	err := conn(ctx, r.db, tx).First(&category, id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve category %d: %w", id, err)
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context, tx *gorm.DB) ([]*models.Category, error) {
	var categories []*models.Category
	if err := conn(ctx, r.db, tx).Order(orderBy("name", "id")).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *categoryRepository) Update(ctx context.Context, tx *gorm.DB, category *models.Category) error {
	if err := conn(ctx, r.db, tx).Save(category).Error; err != nil {
		r.log.Error("failed to update category", "id", category.ID, "error", err)
		return fmt.Errorf("failed to update category %d: %w", category.ID, err)
	}
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if err := conn(ctx, r.db, tx).Delete(&models.Category{}, id).Error; err != nil {
		r.log.Error("failed to delete category", "id", id, "error", err)
		return fmt.Errorf("failed to delete category %d: %w", id, err)
	}
	return nil
}

// CountSOPs returns how many SOPs are filed under the category.
func (r *categoryRepository) CountSOPs(ctx context.Context, tx *gorm.DB, id uint) (int64, error) {
	var count int64
	err := conn(ctx, r.db, tx).Model(&models.SOP{}).Where("category_id = ?", id).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count SOPs for category %d: %w", id, err)
	}
	return count, nil
}
