package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"sopdesk/apperr"
	"sopdesk/logger"
	"sopdesk/metrics"
	"sopdesk/models"
	"sopdesk/repository"
)

// SOPService defines the interface for managing SOPs.
type SOPService interface {
	List(ctx context.Context, filter repository.SOPFilter) ([]models.SOPRecord, error)
	Get(ctx context.Context, id uint) (*models.SOPDetail, error)
	Create(ctx context.Context, input models.SOPCreate) (*models.SOPRecord, error)
	// Update snapshots the SOP, applies the patch and bumps its version number.
	Update(ctx context.Context, id uint, patch models.SOPPatch) (*models.SOPRecord, error)
	Delete(ctx context.Context, id uint) error
	// SetStatus changes only the status and updatedAt; no version is recorded.
	SetStatus(ctx context.Context, id uint, status models.SOPStatus) (*models.SOPRecord, error)
}

type sopService struct {
	repos *repository.Set
	log   *logger.Logger
	now   Clock
}

// NewSOPService creates a new instance of SOPService.
func NewSOPService(repos *repository.Set, baseLog *logger.Logger, clock Clock) SOPService {
	return &sopService{
		repos: repos,
		log:   baseLog.With("component", "SOPService"),
		now:   orClock(clock),
	}
}

func (s *sopService) List(ctx context.Context, filter repository.SOPFilter) ([]models.SOPRecord, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperr.Validation("invalid status %q", filter.Status)
	}
	sops, err := s.repos.SOPs.List(ctx, nil, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list SOPs: %w", err)
	}
	records := make([]models.SOPRecord, 0, len(sops))
	for _, sop := range sops {
		record, err := s.record(ctx, nil, sop)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, nil
}

func (s *sopService) Get(ctx context.Context, id uint) (*models.SOPDetail, error) {
	sop, err := s.find(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	record, err := s.record(ctx, nil, sop)
	if err != nil {
		return nil, err
	}
	steps, err := s.repos.Steps.StepsForSOP(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load steps of SOP %d: %w", id, err)
	}
	versions, err := s.repos.Versions.CountForSOP(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count versions of SOP %d: %w", id, err)
	}

	detail := &models.SOPDetail{SOPRecord: *record, Steps: make([]models.SOPStep, 0, len(steps)), VersionsCount: versions}
	for _, step := range steps {
		detail.Steps = append(detail.Steps, *step)
	}
	return detail, nil
}

func (s *sopService) Create(ctx context.Context, input models.SOPCreate) (*models.SOPRecord, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || strings.TrimSpace(input.Description) == "" || input.CategoryID == 0 {
		return nil, apperr.Validation("title, description, and categoryId are required")
	}
	if len(title) > 255 {
		return nil, apperr.Validation("title must be at most 255 characters")
	}
	if input.Department != nil && len(*input.Department) > 100 {
		return nil, apperr.Validation("department must be at most 100 characters")
	}
	status := input.Status
	if status == "" {
		status = models.SOPStatusDraft
	}
	if !status.Valid() {
		return nil, apperr.Validation("invalid status %q", status)
	}

	sop := &models.SOP{
		Title:         title,
		Description:   input.Description,
		Summary:       input.Summary,
		Difficulty:    input.Difficulty,
		Department:    input.Department,
		Status:        status,
		VersionNumber: 1,
		CreatedAt:     s.now(),
		CategoryID:    input.CategoryID,
	}

	var record *models.SOPRecord
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		category, err := s.repos.Categories.GetByID(ctx, tx, input.CategoryID)
		if err != nil {
			return err
		}
		if category == nil {
			return apperr.NotFound("category not found")
		}
		if input.CreatedByID != nil {
			author, err := s.repos.Users.GetByID(ctx, tx, *input.CreatedByID)
			if err != nil {
				return err
			}
			if author != nil {
				sop.CreatedByID = &author.ID
			}
		}
		if err := s.repos.SOPs.Create(ctx, tx, sop); err != nil {
			return err
		}
		if err := s.replaceTags(ctx, tx, sop.ID, input.TagIDs); err != nil {
			return err
		}
		record, err = s.record(ctx, tx, sop)
		return err
	})
	if err != nil {
		return nil, s.fail("create", 0, err)
	}
	s.log.Info("SOP created", "id", sop.ID, "categoryId", sop.CategoryID)
	return record, nil
}

func (s *sopService) Update(ctx context.Context, id uint, patch models.SOPPatch) (*models.SOPRecord, error) {
	var record *models.SOPRecord
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		sop, err := s.find(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.repos.Versions.Create(ctx, tx, NewSnapshot(sop, s.now())); err != nil {
			return err
		}
		if err := ApplyPatch(sop, patch); err != nil {
			return err
		}
		if patch.CategoryID.Has() {
			category, err := s.repos.Categories.GetByID(ctx, tx, *patch.CategoryID.Value)
			if err != nil {
				return err
			}
			if category == nil {
				return apperr.NotFound("category not found")
			}
			sop.CategoryID = category.ID
		}
		if patch.TagIDs.Set {
			var tagIDs []uint
			if patch.TagIDs.Value != nil {
				tagIDs = *patch.TagIDs.Value
			}
			if err := s.replaceTags(ctx, tx, sop.ID, tagIDs); err != nil {
				return err
			}
		}
		sop.VersionNumber++
		sop.UpdatedAt = nowPtr(s.now)
		if err := s.repos.SOPs.Update(ctx, tx, sop); err != nil {
			return err
		}
		record, err = s.record(ctx, tx, sop)
		return err
	})
	if err != nil {
		return nil, s.fail("update", id, err)
	}
	metrics.VersionSnapshots.WithLabelValues(metrics.ReasonUpdate).Inc()
	s.log.Info("SOP updated", "id", id, "versionNumber", record.VersionNumber)
	return record, nil
}

// Delete removes the SOP together with its steps, versions, tag links,
// progress records and learning path items. Paths that contained the SOP
// have their remaining items renumbered.
func (s *sopService) Delete(ctx context.Context, id uint) error {
	renumbered := 0
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.find(ctx, tx, id); err != nil {
			return err
		}

		pathIDs, err := s.repos.LearningPaths.PathIDsForSOP(ctx, tx, id)
		if err != nil {
			return err
		}
		for _, pathID := range pathIDs {
			items, err := s.repos.LearningPaths.ItemsForPath(ctx, tx, pathID)
			if err != nil {
				return err
			}
			var removed *models.LearningPathItem
			rest := make([]*models.LearningPathItem, 0, len(items))
			for _, item := range items {
				if item.SOPID == id && removed == nil {
					removed = item
					continue
				}
				rest = append(rest, item)
			}
			if removed == nil {
				continue
			}
			if err := s.repos.LearningPaths.DeleteItem(ctx, tx, removed.ID); err != nil {
				return err
			}
			changed := CloseGap(rest, removed.Position)
			if err := s.repos.LearningPaths.UpdatePositions(ctx, tx, changed); err != nil {
				return err
			}
			renumbered += len(changed)
		}

		if err := s.repos.Steps.DeleteForSOP(ctx, tx, id); err != nil {
			return err
		}
		if err := s.repos.Versions.DeleteForSOP(ctx, tx, id); err != nil {
			return err
		}
		if err := s.repos.Tags.DetachSOP(ctx, tx, id); err != nil {
			return err
		}
		if err := s.repos.Progress.DeleteForSOP(ctx, tx, id); err != nil {
			return err
		}
		return s.repos.SOPs.Delete(ctx, tx, id)
	})
	if err != nil {
		return s.fail("delete", id, err)
	}
	metrics.RenumberedRows.WithLabelValues(metrics.CollectionPathItems).Add(float64(renumbered))
	s.log.Info("SOP deleted", "id", id)
	return nil
}

func (s *sopService) SetStatus(ctx context.Context, id uint, status models.SOPStatus) (*models.SOPRecord, error) {
	if !status.Valid() {
		return nil, apperr.Validation("invalid status %q", status)
	}
	var record *models.SOPRecord
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		sop, err := s.find(ctx, tx, id)
		if err != nil {
			return err
		}
		sop.Status = status
		sop.UpdatedAt = nowPtr(s.now)
		if err := s.repos.SOPs.Update(ctx, tx, sop); err != nil {
			return err
		}
		record, err = s.record(ctx, tx, sop)
		return err
	})
	if err != nil {
		return nil, s.fail("set status of", id, err)
	}
	s.log.Info("SOP status changed", "id", id, "status", status)
	return record, nil
}

func (s *sopService) find(ctx context.Context, tx *gorm.DB, id uint) (*models.SOP, error) {
	sop, err := s.repos.SOPs.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if sop == nil {
		s.log.Warn("SOP not found", "id", id)
		return nil, apperr.NotFound("SOP not found")
	}
	return sop, nil
}

// replaceTags links the existing tags among ids; unknown ids are dropped.
func (s *sopService) replaceTags(ctx context.Context, tx *gorm.DB, sopID uint, ids []uint) error {
	tags, err := s.repos.Tags.GetByIDs(ctx, tx, ids)
	if err != nil {
		return err
	}
	found := make([]uint, 0, len(tags))
	for _, tag := range tags {
		found = append(found, tag.ID)
	}
	return s.repos.Tags.ReplaceSOPTags(ctx, tx, sopID, found)
}

func (s *sopService) record(ctx context.Context, tx *gorm.DB, sop *models.SOP) (*models.SOPRecord, error) {
	record := &models.SOPRecord{SOP: *sop, Tags: []models.NamedRef{}}

	category, err := s.repos.Categories.GetByID(ctx, tx, sop.CategoryID)
	if err != nil {
		return nil, err
	}
	if category != nil {
		record.Category = &models.NamedRef{ID: category.ID, Name: category.Name}
	}
	if record.CreatedBy, err = userRef(ctx, tx, s.repos.Users, sop.CreatedByID); err != nil {
		return nil, err
	}
	tags, err := s.repos.Tags.TagsForSOP(ctx, tx, sop.ID)
	if err != nil {
		return nil, err
	}
	for _, tag := range tags {
		record.Tags = append(record.Tags, models.NamedRef{ID: tag.ID, Name: tag.Name})
	}
	return record, nil
}

// fail logs store failures and passes domain errors through untouched.
func (s *sopService) fail(action string, id uint, err error) error {
	if apperr.KindOf(err) != "" {
		return err
	}
	s.log.Error("SOP operation failed", "action", action, "id", id, "error", err)
	return fmt.Errorf("failed to %s SOP %d: %w", action, id, err)
}
