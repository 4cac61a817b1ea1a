package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"sopdesk/logger"
	"sopdesk/models"
)

// LearningPathRepository defines the interface for learning paths and their items.
type LearningPathRepository interface {
	Create(ctx context.Context, tx *gorm.DB, path *models.LearningPath) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.LearningPath, error)
	List(ctx context.Context, tx *gorm.DB) ([]*models.LearningPath, error)
	Update(ctx context.Context, tx *gorm.DB, path *models.LearningPath) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	CreateItem(ctx context.Context, tx *gorm.DB, item *models.LearningPathItem) error
	GetItem(ctx context.Context, tx *gorm.DB, pathID, itemID uint) (*models.LearningPathItem, error)
	ItemsForPath(ctx context.Context, tx *gorm.DB, pathID uint) ([]*models.LearningPathItem, error)
	CountItems(ctx context.Context, tx *gorm.DB, pathID uint) (int64, error)
	HasSOP(ctx context.Context, tx *gorm.DB, pathID, sopID uint) (bool, error)
	PathIDsForSOP(ctx context.Context, tx *gorm.DB, sopID uint) ([]uint, error)
	UpdatePositions(ctx context.Context, tx *gorm.DB, items []*models.LearningPathItem) error
	DeleteItem(ctx context.Context, tx *gorm.DB, itemID uint) error
	DeleteItemsForPath(ctx context.Context, tx *gorm.DB, pathID uint) error
	DeleteItemsForSOP(ctx context.Context, tx *gorm.DB, sopID uint) error
}

type learningPathRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewLearningPathRepository creates a new instance of LearningPathRepository.
func NewLearningPathRepository(db *gorm.DB, baseLog *logger.Logger) LearningPathRepository {
	return &learningPathRepository{db: db, log: baseLog.With("component", "LearningPathRepository")}
}

func (r *learningPathRepository) Create(ctx context.Context, tx *gorm.DB, path *models.LearningPath) error {
	if err := conn(ctx, r.db, tx).Create(path).Error; err != nil {
		r.log.Error("failed to create learning path", "title", path.Title, "error", err)
		return fmt.Errorf("failed to create learning path %q: %w", path.Title, err)
	}
	return nil
}

func (r *learningPathRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.LearningPath, error) {
	var path models.LearningPath
	if err := conn(ctx, r.db, tx).First(&path, id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve learning path %d: %w", id, err)
	}
	return &path, nil
}

func (r *learningPathRepository) List(ctx context.Context, tx *gorm.DB) ([]*models.LearningPath, error) {
	var paths []*models.LearningPath
	if err := conn(ctx, r.db, tx).Order(newestFirst()).Find(&paths).Error; err != nil {
		return nil, fmt.Errorf("failed to list learning paths: %w", err)
	}
	return paths, nil
}

func (r *learningPathRepository) Update(ctx context.Context, tx *gorm.DB, path *models.LearningPath) error {
	if err := conn(ctx, r.db, tx).Save(path).Error; err != nil {
		r.log.Error("failed to update learning path", "id", path.ID, "error", err)
		return fmt.Errorf("failed to update learning path %d: %w", path.ID, err)
	}
	return nil
}

func (r *learningPathRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if err := conn(ctx, r.db, tx).Delete(&models.LearningPath{}, id).Error; err != nil {
		r.log.Error("failed to delete learning path", "id", id, "error", err)
		return fmt.Errorf("failed to delete learning path %d: %w", id, err)
	}
	return nil
}

func (r *learningPathRepository) CreateItem(ctx context.Context, tx *gorm.DB, item *models.LearningPathItem) error {
	if err := conn(ctx, r.db, tx).Create(item).Error; err != nil {
		r.log.Error("failed to add SOP to learning path", "pathId", item.LearningPathID, "sopId", item.SOPID, "error", err)
		return fmt.Errorf("failed to add SOP %d to learning path %d: %w", item.SOPID, item.LearningPathID, err)
	}
	return nil
}

// GetItem returns the item only if it belongs to pathID.
func (r *learningPathRepository) GetItem(ctx context.Context, tx *gorm.DB, pathID, itemID uint) (*models.LearningPathItem, error) {
	var item models.LearningPathItem
	err := conn(ctx, r.db, tx).Where("learning_path_id = ?", pathID).First(&item, itemID).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve item %d of learning path %d: %w", itemID, pathID, err)
	}
	return &item, nil
}

// ItemsForPath returns the items in position order.
func (r *learningPathRepository) ItemsForPath(ctx context.Context, tx *gorm.DB, pathID uint) ([]*models.LearningPathItem, error) {
	var items []*models.LearningPathItem
	err := conn(ctx, r.db, tx).Where("learning_path_id = ?", pathID).Order(orderBy("position", "id")).Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve items of learning path %d: %w", pathID, err)
	}
	return items, nil
}

func (r *learningPathRepository) CountItems(ctx context.Context, tx *gorm.DB, pathID uint) (int64, error) {
	var count int64
	err := conn(ctx, r.db, tx).Model(&models.LearningPathItem{}).Where("learning_path_id = ?", pathID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count items of learning path %d: %w", pathID, err)
	}
	return count, nil
}

func (r *learningPathRepository) HasSOP(ctx context.Context, tx *gorm.DB, pathID, sopID uint) (bool, error) {
	var count int64
	err := conn(ctx, r.db, tx).Model(&models.LearningPathItem{}).
		Where("learning_path_id = ? AND sop_id = ?", pathID, sopID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up SOP %d in learning path %d: %w", sopID, pathID, err)
	}
	return count > 0, nil
}

// PathIDsForSOP lists the learning paths that contain the SOP.
func (r *learningPathRepository) PathIDsForSOP(ctx context.Context, tx *gorm.DB, sopID uint) ([]uint, error) {
	var ids []uint
	err := conn(ctx, r.db, tx).Model(&models.LearningPathItem{}).
		Where("sop_id = ?", sopID).
		Distinct().
		Pluck("learning_path_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find learning paths containing SOP %d: %w", sopID, err)
	}
	return ids, nil
}

// UpdatePositions persists only the position column of each item.
func (r *learningPathRepository) UpdatePositions(ctx context.Context, tx *gorm.DB, items []*models.LearningPathItem) error {
	db := conn(ctx, r.db, tx)
	for _, item := range items {
		if err := db.Model(item).Update("position", item.Position).Error; err != nil {
			return fmt.Errorf("failed to reposition item %d: %w", item.ID, err)
		}
	}
	return nil
}

func (r *learningPathRepository) DeleteItem(ctx context.Context, tx *gorm.DB, itemID uint) error {
	if err := conn(ctx, r.db, tx).Delete(&models.LearningPathItem{}, itemID).Error; err != nil {
		return fmt.Errorf("failed to delete learning path item %d: %w", itemID, err)
	}
	return nil
}

func (r *learningPathRepository) DeleteItemsForPath(ctx context.Context, tx *gorm.DB, pathID uint) error {
	if err := conn(ctx, r.db, tx).Where("learning_path_id = ?", pathID).Delete(&models.LearningPathItem{}).Error; err != nil {
		return fmt.Errorf("failed to delete items of learning path %d: %w", pathID, err)
	}
	return nil
}

func (r *learningPathRepository) DeleteItemsForSOP(ctx context.Context, tx *gorm.DB, sopID uint) error {
	if err := conn(ctx, r.db, tx).Where("sop_id = ?", sopID).Delete(&models.LearningPathItem{}).Error; err != nil {
		return fmt.Errorf("failed to remove SOP %d from learning paths: %w", sopID, err)
	}
	return nil
}
