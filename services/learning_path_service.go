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

// LearningPathService defines the interface for managing learning paths and
// the ordered SOPs they contain.
type LearningPathService interface {
	List(ctx context.Context) ([]models.LearningPathSummary, error)
	Get(ctx context.Context, id uint) (*models.LearningPathDetail, error)
	Create(ctx context.Context, input models.LearningPathCreate) (*models.LearningPathDetail, error)
	Update(ctx context.Context, id uint, patch models.LearningPathPatch) (*models.LearningPathDetail, error)
	Delete(ctx context.Context, id uint) error
	AddItem(ctx context.Context, pathID uint, input models.PathItemCreate) (*models.PathItemRecord, error)
	RemoveItem(ctx context.Context, pathID, itemID uint) error
	Reorder(ctx context.Context, pathID uint, ids []uint) (*models.LearningPathDetail, error)
}

type learningPathService struct {
	repos *repository.Set
	log   *logger.Logger
	now   Clock
}

// NewLearningPathService creates a new instance of LearningPathService.
func NewLearningPathService(repos *repository.Set, baseLog *logger.Logger, clock Clock) LearningPathService {
	return &learningPathService{
		repos: repos,
		log:   baseLog.With("component", "LearningPathService"),
		now:   orClock(clock),
	}
}

func (s *learningPathService) List(ctx context.Context) ([]models.LearningPathSummary, error) {
	paths, err := s.repos.LearningPaths.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list learning paths: %w", err)
	}
	summaries := make([]models.LearningPathSummary, 0, len(paths))
	for _, path := range paths {
		count, err := s.repos.LearningPaths.CountItems(ctx, nil, path.ID)
		if err != nil {
			return nil, err
		}
		author, err := userRef(ctx, nil, s.repos.Users, path.CreatedByID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, models.LearningPathSummary{LearningPath: *path, CreatedBy: author, SOPCount: count})
	}
	return summaries, nil
}

func (s *learningPathService) Get(ctx context.Context, id uint) (*models.LearningPathDetail, error) {
	path, err := s.path(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, nil, path)
}

// Create stores the path and appends the given SOPs in order. Unknown and
// repeated SOP ids are skipped.
func (s *learningPathService) Create(ctx context.Context, input models.LearningPathCreate) (*models.LearningPathDetail, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	if len(title) > 255 {
		return nil, apperr.Validation("title must be at most 255 characters")
	}

	var detail *models.LearningPathDetail
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		path := &models.LearningPath{Title: title, Description: input.Description, CreatedAt: s.now()}
		if input.CreatedByID != nil {
			author, err := s.repos.Users.GetByID(ctx, tx, *input.CreatedByID)
			if err != nil {
				return err
			}
			if author != nil {
				path.CreatedByID = &author.ID
			}
		}
		if err := s.repos.LearningPaths.Create(ctx, tx, path); err != nil {
			return err
		}

		position := 0
		added := make(map[uint]bool, len(input.SOPIDs))
		for _, sopID := range input.SOPIDs {
			if added[sopID] {
				continue
			}
			sop, err := s.repos.SOPs.GetByID(ctx, tx, sopID)
			if err != nil {
				return err
			}
			if sop == nil {
				continue
			}
			position++
			item := &models.LearningPathItem{LearningPathID: path.ID, SOPID: sopID, Position: position}
			if err := s.repos.LearningPaths.CreateItem(ctx, tx, item); err != nil {
				return err
			}
			added[sopID] = true
		}

		var err error
		detail, err = s.detail(ctx, tx, path)
		return err
	})
	if err != nil {
		return nil, s.fail("create", 0, err)
	}
	s.log.Info("learning path created", "id", detail.ID, "items", len(detail.Items))
	return detail, nil
}

func (s *learningPathService) Update(ctx context.Context, id uint, patch models.LearningPathPatch) (*models.LearningPathDetail, error) {
	if patch.Title.Has() && strings.TrimSpace(*patch.Title.Value) == "" {
		return nil, apperr.Validation("title cannot be blank")
	}

	var detail *models.LearningPathDetail
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		path, err := s.path(ctx, tx, id)
		if err != nil {
			return err
		}
		if patch.Title.Has() {
			path.Title = strings.TrimSpace(*patch.Title.Value)
		}
		if patch.Description.Set {
			path.Description = patch.Description.Value
		}
		if err := s.repos.LearningPaths.Update(ctx, tx, path); err != nil {
			return err
		}
		detail, err = s.detail(ctx, tx, path)
		return err
	})
	if err != nil {
		return nil, s.fail("update", id, err)
	}
	s.log.Info("learning path updated", "id", id)
	return detail, nil
}

func (s *learningPathService) Delete(ctx context.Context, id uint) error {
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.path(ctx, tx, id); err != nil {
			return err
		}
		if err := s.repos.LearningPaths.DeleteItemsForPath(ctx, tx, id); err != nil {
			return err
		}
		return s.repos.LearningPaths.Delete(ctx, tx, id)
	})
	if err != nil {
		return s.fail("delete", id, err)
	}
	s.log.Info("learning path deleted", "id", id)
	return nil
}

// AddItem appends a SOP to the path, or places it at the requested position
// without shifting the other items.
func (s *learningPathService) AddItem(ctx context.Context, pathID uint, input models.PathItemCreate) (*models.PathItemRecord, error) {
	if input.SOPID == 0 {
		return nil, apperr.Validation("sopId is required")
	}
	if input.Position != nil && *input.Position < 1 {
		return nil, apperr.Validation("position must be a positive integer")
	}

	var record *models.PathItemRecord
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.path(ctx, tx, pathID); err != nil {
			return err
		}
		sop, err := s.repos.SOPs.GetByID(ctx, tx, input.SOPID)
		if err != nil {
			return err
		}
		if sop == nil {
			return apperr.NotFound("SOP not found")
		}
		exists, err := s.repos.LearningPaths.HasSOP(ctx, tx, pathID, input.SOPID)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("SOP is already in this learning path")
		}
		count, err := s.repos.LearningPaths.CountItems(ctx, tx, pathID)
		if err != nil {
			return err
		}
		item := &models.LearningPathItem{
			LearningPathID: pathID,
			SOPID:          sop.ID,
			Position:       NextSequence(count, input.Position),
		}
		if err := s.repos.LearningPaths.CreateItem(ctx, tx, item); err != nil {
			return err
		}
		record = &models.PathItemRecord{ID: item.ID, Position: item.Position, SOP: briefOf(sop)}
		return nil
	})
	if err != nil {
		return nil, s.fail("add item to", pathID, err)
	}
	s.log.Info("SOP added to learning path", "pathId", pathID, "sopId", input.SOPID, "position", record.Position)
	return record, nil
}

// RemoveItem deletes the item and closes the gap it leaves.
func (s *learningPathService) RemoveItem(ctx context.Context, pathID, itemID uint) error {
	var changed []*models.LearningPathItem
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		item, err := s.repos.LearningPaths.GetItem(ctx, tx, pathID, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			s.log.Warn("learning path item not found", "pathId", pathID, "itemId", itemID)
			return apperr.NotFound("item not found")
		}
		if err := s.repos.LearningPaths.DeleteItem(ctx, tx, item.ID); err != nil {
			return err
		}
		siblings, err := s.repos.LearningPaths.ItemsForPath(ctx, tx, pathID)
		if err != nil {
			return err
		}
		changed = CloseGap(siblings, item.Position)
		return s.repos.LearningPaths.UpdatePositions(ctx, tx, changed)
	})
	if err != nil {
		return s.fail("remove item from", pathID, err)
	}
	metrics.RenumberedRows.WithLabelValues(metrics.CollectionPathItems).Add(float64(len(changed)))
	s.log.Info("item removed from learning path", "pathId", pathID, "itemId", itemID, "renumbered", len(changed))
	return nil
}

// Reorder positions the listed items 1..n in list order. A nil list is
// rejected; an empty one changes nothing.
func (s *learningPathService) Reorder(ctx context.Context, pathID uint, ids []uint) (*models.LearningPathDetail, error) {
	if ids == nil {
		return nil, apperr.Validation("order array is required")
	}

	var (
		detail  *models.LearningPathDetail
		changed []*models.LearningPathItem
	)
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		path, err := s.path(ctx, tx, pathID)
		if err != nil {
			return err
		}
		items, err := s.repos.LearningPaths.ItemsForPath(ctx, tx, pathID)
		if err != nil {
			return err
		}
		changed = Reorder(items, ids)
		if err := s.repos.LearningPaths.UpdatePositions(ctx, tx, changed); err != nil {
			return err
		}
		detail, err = s.detail(ctx, tx, path)
		return err
	})
	if err != nil {
		return nil, s.fail("reorder", pathID, err)
	}
	metrics.RenumberedRows.WithLabelValues(metrics.CollectionPathItems).Add(float64(len(changed)))
	s.log.Info("learning path reordered", "id", pathID, "changed", len(changed))
	return detail, nil
}

func (s *learningPathService) path(ctx context.Context, tx *gorm.DB, id uint) (*models.LearningPath, error) {
	path, err := s.repos.LearningPaths.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if path == nil {
		s.log.Warn("learning path not found", "id", id)
		return nil, apperr.NotFound("learning path not found")
	}
	return path, nil
}

func (s *learningPathService) detail(ctx context.Context, tx *gorm.DB, path *models.LearningPath) (*models.LearningPathDetail, error) {
	items, err := s.repos.LearningPaths.ItemsForPath(ctx, tx, path.ID)
	if err != nil {
		return nil, err
	}
	sopIDs := make([]uint, 0, len(items))
	for _, item := range items {
		sopIDs = append(sopIDs, item.SOPID)
	}
	sops, err := s.repos.SOPs.GetByIDs(ctx, tx, sopIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.SOP, len(sops))
	for _, sop := range sops {
		byID[sop.ID] = sop
	}

	author, err := userRef(ctx, tx, s.repos.Users, path.CreatedByID)
	if err != nil {
		return nil, err
	}
	detail := &models.LearningPathDetail{LearningPath: *path, CreatedBy: author, Items: make([]models.PathItemRecord, 0, len(items))}
	for _, item := range items {
		record := models.PathItemRecord{ID: item.ID, Position: item.Position}
		if sop, ok := byID[item.SOPID]; ok {
			record.SOP = briefOf(sop)
		}
		detail.Items = append(detail.Items, record)
	}
	return detail, nil
}

func (s *learningPathService) fail(action string, id uint, err error) error {
	if apperr.KindOf(err) != "" {
		return err
	}
	s.log.Error("learning path operation failed", "action", action, "id", id, "error", err)
	return fmt.Errorf("failed to %s learning path %d: %w", action, id, err)
}
