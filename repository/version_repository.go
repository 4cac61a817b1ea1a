package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sopdesk/logger"
	"sopdesk/models"
)

// VersionRepository stores the immutable snapshots of SOPs.
type VersionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, version *models.SOPVersion) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.SOPVersion, error)
	ListForSOP(ctx context.Context, tx *gorm.DB, sopID uint) ([]*models.SOPVersion, error)
	CountForSOP(ctx context.Context, tx *gorm.DB, sopID uint) (int64, error)
	DeleteForSOP(ctx context.Context, tx *gorm.DB, sopID uint) error
}

type versionRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewVersionRepository creates a new instance of VersionRepository.
func NewVersionRepository(db *gorm.DB, baseLog *logger.Logger) VersionRepository {
	return &versionRepository{db: db, log: baseLog.With("component", "VersionRepository")}
}

func (r *versionRepository) Create(ctx context.Context, tx *gorm.DB, version *models.SOPVersion) error {
	if err := conn(ctx, r.db, tx).Create(version).Error; err != nil {
		r.log.Error("failed to store version", "sopId", version.SOPID, "versionNumber", version.VersionNumber, "error", err)
		return fmt.Errorf("failed to store version %d of SOP %d: %w", version.VersionNumber, version.SOPID, err)
	}
	return nil
}

func (r *versionRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.SOPVersion, error) {
	var version models.SOPVersion
	if err := conn(ctx, r.db, tx).First(&version, id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve version %d: %w", id, err)
	}
	return &version, nil
}

// ListForSOP returns the SOP's versions, highest version number first.
func (r *versionRepository) ListForSOP(ctx context.Context, tx *gorm.DB, sopID uint) ([]*models.SOPVersion, error) {
	var versions []*models.SOPVersion
	err := conn(ctx, r.db, tx).
		Where("sop_id = ?", sopID).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "version_number"}, Desc: true},
			{Column: clause.Column{Name: "id"}, Desc: true},
		}}).
		Find(&versions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list versions for SOP %d: %w", sopID, err)
	}
	return versions, nil
}

func (r *versionRepository) CountForSOP(ctx context.Context, tx *gorm.DB, sopID uint) (int64, error) {
	var count int64
	if err := conn(ctx, r.db, tx).Model(&models.SOPVersion{}).Where("sop_id = ?", sopID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count versions for SOP %d: %w", sopID, err)
	}
	return count, nil
}

func (r *versionRepository) DeleteForSOP(ctx context.Context, tx *gorm.DB, sopID uint) error {
	if err := conn(ctx, r.db, tx).Where("sop_id = ?", sopID).Delete(&models.SOPVersion{}).Error; err != nil {
		return fmt.Errorf("failed to delete versions for SOP %d: %w", sopID, err)
	}
	return nil
}
