package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"sopdesk/apperr"
	"sopdesk/logger"
	"sopdesk/metrics"
	"sopdesk/models"
	"sopdesk/repository"
)

// VersionService exposes the stored snapshots of a SOP.
type VersionService interface {
	List(ctx context.Context, sopID uint) ([]models.VersionHeader, error)
	Get(ctx context.Context, sopID, versionID uint) (*models.VersionDetail, error)
	Restore(ctx context.Context, sopID, versionID uint) (*models.RestoreResult, error)
	Compare(ctx context.Context, sopID, firstID, secondID uint) (*models.VersionComparison, error)
}

type versionService struct {
	repos *repository.Set
	log   *logger.Logger
	now   Clock
}

// NewVersionService creates a new instance of VersionService.
func NewVersionService(repos *repository.Set, baseLog *logger.Logger, clock Clock) VersionService {
	return &versionService{
		repos: repos,
		log:   baseLog.With("component", "VersionService"),
		now:   orClock(clock),
	}
}

func (s *versionService) List(ctx context.Context, sopID uint) ([]models.VersionHeader, error) {
	sop, err := s.repos.SOPs.GetByID(ctx, nil, sopID)
	if err != nil {
		return nil, fmt.Errorf("failed to load SOP %d: %w", sopID, err)
	}
	if sop == nil {
		return nil, apperr.NotFound("SOP not found")
	}
	versions, err := s.repos.Versions.ListForSOP(ctx, nil, sopID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions of SOP %d: %w", sopID, err)
	}
	headers := make([]models.VersionHeader, 0, len(versions))
	for _, v := range versions {
		header, err := s.header(ctx, v)
		if err != nil {
			return nil, err
		}
		headers = append(headers, header)
	}
	return headers, nil
}

func (s *versionService) Get(ctx context.Context, sopID, versionID uint) (*models.VersionDetail, error) {
	version, err := s.version(ctx, nil, sopID, versionID, "version not found")
	if err != nil {
		return nil, err
	}
	header, err := s.header(ctx, version)
	if err != nil {
		return nil, err
	}
	return &models.VersionDetail{VersionHeader: header, Content: version.Content}, nil
}

// Restore snapshots the SOP and then copies the version's content back onto
// it. The SOP's status is kept.
func (s *versionService) Restore(ctx context.Context, sopID, versionID uint) (*models.RestoreResult, error) {
	var result *models.RestoreResult
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		version, err := s.version(ctx, tx, sopID, versionID, "version not found")
		if err != nil {
			return err
		}
		sop, err := s.repos.SOPs.GetByID(ctx, tx, sopID)
		if err != nil {
			return err
		}
		if sop == nil {
			return apperr.NotFound("SOP not found")
		}
		if err := s.repos.Versions.Create(ctx, tx, NewSnapshot(sop, s.now())); err != nil {
			return err
		}
		if err := RestoreContent(sop, version.Content); err != nil {
			return err
		}
		sop.VersionNumber++
		sop.UpdatedAt = nowPtr(s.now)
		if err := s.repos.SOPs.Update(ctx, tx, sop); err != nil {
			return err
		}
		result = &models.RestoreResult{RestoredVersion: version.VersionNumber, NewVersionNumber: sop.VersionNumber}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) != "" {
			return nil, err
		}
		s.log.Error("failed to restore version", "sopId", sopID, "versionId", versionID, "error", err)
		return nil, fmt.Errorf("failed to restore version %d of SOP %d: %w", versionID, sopID, err)
	}
	metrics.VersionSnapshots.WithLabelValues(metrics.ReasonRestore).Inc()
	s.log.Info("SOP restored", "sopId", sopID, "restoredVersion", result.RestoredVersion, "newVersionNumber", result.NewVersionNumber)
	return result, nil
}

// Compare diffs two versions; each must belong to the SOP.
func (s *versionService) Compare(ctx context.Context, sopID, firstID, secondID uint) (*models.VersionComparison, error) {
	first, err := s.version(ctx, nil, sopID, firstID, "version 1 not found")
	if err != nil {
		return nil, err
	}
	second, err := s.version(ctx, nil, sopID, secondID, "version 2 not found")
	if err != nil {
		return nil, err
	}
	firstHeader, err := s.header(ctx, first)
	if err != nil {
		return nil, err
	}
	secondHeader, err := s.header(ctx, second)
	if err != nil {
		return nil, err
	}
	return &models.VersionComparison{
		Version1:    firstHeader,
		Version2:    secondHeader,
		Differences: DiffVersions(first, second),
	}, nil
}

func (s *versionService) version(ctx context.Context, tx *gorm.DB, sopID, versionID uint, missing string) (*models.SOPVersion, error) {
	version, err := s.repos.Versions.GetByID(ctx, tx, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load version %d: %w", versionID, err)
	}
	if version == nil || version.SOPID != sopID {
		s.log.Warn("version not found", "sopId", sopID, "versionId", versionID)
		return nil, apperr.NotFound("%s", missing)
	}
	return version, nil
}

func (s *versionService) header(ctx context.Context, v *models.SOPVersion) (models.VersionHeader, error) {
	author, err := userRef(ctx, nil, s.repos.Users, v.CreatedByID)
	if err != nil {
		return models.VersionHeader{}, err
	}
	return models.VersionHeader{
		ID:            v.ID,
		VersionNumber: v.VersionNumber,
		CreatedAt:     v.CreatedAt,
		CreatedBy:     author,
	}, nil
}
