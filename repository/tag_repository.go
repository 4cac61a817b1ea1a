package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sopdesk/logger"
	"sopdesk/models"
)

// TagRepository defines the interface for tags and their links to SOPs.
type TagRepository interface {
	Create(ctx context.Context, tx *gorm.DB, tag *models.Tag) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Tag, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*models.Tag, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Tag, error)
	List(ctx context.Context, tx *gorm.DB) ([]*models.Tag, error)
	Update(ctx context.Context, tx *gorm.DB, tag *models.Tag) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	CountSOPs(ctx context.Context, tx *gorm.DB, id uint) (int64, error)

	TagsForSOP(ctx context.Context, tx *gorm.DB, sopID uint) ([]*models.Tag, error)
	ReplaceSOPTags(ctx context.Context, tx *gorm.DB, sopID uint, tagIDs []uint) error
	DetachSOP(ctx context.Context, tx *gorm.DB, sopID uint) error
	DetachTag(ctx context.Context, tx *gorm.DB, tagID uint) error
}

type tagRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewTagRepository creates a new instance of TagRepository.
func NewTagRepository(db *gorm.DB, baseLog *logger.Logger) TagRepository {
	return &tagRepository{db: db, log: baseLog.With("component", "TagRepository")}
}

func (r *tagRepository) Create(ctx context.Context, tx *gorm.DB, tag *models.Tag) error {
	if err := conn(ctx, r.db, tx).Create(tag).Error; err != nil {
		r.log.Error("failed to create tag", "name", tag.Name, "error", err)
		return fmt.Errorf("failed to create tag %q: %w", tag.Name, err)
	}
	return nil
}

func (r *tagRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := conn(ctx, r.db, tx).First(&tag, id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve tag %d: %w", id, err)
	}
	return &tag, nil
}

func (r *tagRepository) GetByName(ctx context.Context, tx *gorm.DB, name string) (*models.Tag, error) {
	var tag models.Tag
	if err := conn(ctx, r.db, tx).Where("name = ?", name).First(&tag).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve tag %q: %w", name, err)
	}
	return &tag, nil
}

// GetByIDs returns the tags that exist among ids, ordered by name.
func (r *tagRepository) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Tag, error) {
	var tags []*models.Tag
	if len(ids) == 0 {
		return tags, nil
	}
	if err := conn(ctx, r.db, tx).Where("id IN ?", ids).Order(orderBy("name", "id")).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve tags %v: %w", ids, err)
	}
	return tags, nil
}

func (r *tagRepository) List(ctx context.Context, tx *gorm.DB) ([]*models.Tag, error) {
	var tags []*models.Tag
	if err := conn(ctx, r.db, tx).Order(orderBy("name", "id")).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

func (r *tagRepository) Update(ctx context.Context, tx *gorm.DB, tag *models.Tag) error {
	if err := conn(ctx, r.db, tx).Save(tag).Error; err != nil {
		r.log.Error("failed to update tag", "id", tag.ID, "error", err)
		return fmt.Errorf("failed to update tag %d: %w", tag.ID, err)
	}
	return nil
}

func (r *tagRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if err := conn(ctx, r.db, tx).Delete(&models.Tag{}, id).Error; err != nil {
		r.log.Error("failed to delete tag", "id", id, "error", err)
		return fmt.Errorf("failed to delete tag %d: %w", id, err)
	}
	return nil
}

func (r *tagRepository) CountSOPs(ctx context.Context, tx *gorm.DB, id uint) (int64, error) {
	var count int64
	if err := conn(ctx, r.db, tx).Model(&models.SOPTag{}).Where("tag_id = ?", id).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count SOPs for tag %d: %w", id, err)
	}
	return count, nil
}

func (r *tagRepository) TagsForSOP(ctx context.Context, tx *gorm.DB, sopID uint) ([]*models.Tag, error) {
	var tags []*models.Tag
	err := conn(ctx, r.db, tx).
		Joins("JOIN sop_tags ON sop_tags.tag_id = tags.id").
		Where("sop_tags.sop_id = ?", sopID).
		Order("tags.name, tags.id").
		Find(&tags).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tags for SOP %d: %w", sopID, err)
	}
	return tags, nil
}

// ReplaceSOPTags makes tagIDs the exact tag set of the SOP. Callers pass ids
// that are known to exist.
func (r *tagRepository) ReplaceSOPTags(ctx context.Context, tx *gorm.DB, sopID uint, tagIDs []uint) error {
	db := conn(ctx, r.db, tx)
	if err := db.Where("sop_id = ?", sopID).Delete(&models.SOPTag{}).Error; err != nil {
		return fmt.Errorf("failed to clear tags for SOP %d: %w", sopID, err)
	}
	if len(tagIDs) == 0 {
		return nil
	}
	links := make([]models.SOPTag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		links = append(links, models.SOPTag{SOPID: sopID, TagID: tagID})
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
		r.log.Error("failed to link tags", "sopId", sopID, "error", err)
		return fmt.Errorf("failed to link tags to SOP %d: %w", sopID, err)
	}
	return nil
}

func (r *tagRepository) DetachSOP(ctx context.Context, tx *gorm.DB, sopID uint) error {
	if err := conn(ctx, r.db, tx).Where("sop_id = ?", sopID).Delete(&models.SOPTag{}).Error; err != nil {
		return fmt.Errorf("failed to detach tags from SOP %d: %w", sopID, err)
	}
	return nil
}

func (r *tagRepository) DetachTag(ctx context.Context, tx *gorm.DB, tagID uint) error {
	if err := conn(ctx, r.db, tx).Where("tag_id = ?", tagID).Delete(&models.SOPTag{}).Error; err != nil {
		return fmt.Errorf("failed to detach tag %d: %w", tagID, err)
	}
	return nil
}
