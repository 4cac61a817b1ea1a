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

// StepService defines the interface for managing the ordered steps of a SOP.
// Every mutation also stamps the parent SOP's updatedAt.
type StepService interface {
	List(ctx context.Context, sopID uint) ([]*models.SOPStep, error)
	Get(ctx context.Context, sopID, stepID uint) (*models.SOPStep, error)
	Create(ctx context.Context, sopID uint, input models.StepCreate) (*models.SOPStep, error)
	Update(ctx context.Context, sopID, stepID uint, patch models.StepPatch) (*models.SOPStep, error)
	Delete(ctx context.Context, sopID, stepID uint) error
	Reorder(ctx context.Context, sopID uint, ids []uint) ([]*models.SOPStep, error)
}

type stepService struct {
	repos *repository.Set
	log   *logger.Logger
	now   Clock
}

// NewStepService creates a new instance of StepService.
func NewStepService(repos *repository.Set, baseLog *logger.Logger, clock Clock) StepService {
	return &stepService{
		repos: repos,
		log:   baseLog.With("component", "StepService"),
		now:   orClock(clock),
	}
}

func (s *stepService) List(ctx context.Context, sopID uint) ([]*models.SOPStep, error) {
	if _, err := s.sop(ctx, nil, sopID); err != nil {
		return nil, err
	}
	steps, err := s.repos.Steps.StepsForSOP(ctx, nil, sopID)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps of SOP %d: %w", sopID, err)
	}
	return steps, nil
}

func (s *stepService) Get(ctx context.Context, sopID, stepID uint) (*models.SOPStep, error) {
	return s.step(ctx, nil, sopID, stepID)
}

func (s *stepService) Create(ctx context.Context, sopID uint, input models.StepCreate) (*models.SOPStep, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, apperr.Validation("content is required")
	}
	if input.StepNumber != nil && *input.StepNumber < 1 {
		return nil, apperr.Validation("stepNumber must be a positive integer")
	}
	if err := checkAttachment(input.Attachment); err != nil {
		return nil, err
	}

	var step *models.SOPStep
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		sop, err := s.sop(ctx, tx, sopID)
		if err != nil {
			return err
		}
		count, err := s.repos.Steps.CountForSOP(ctx, tx, sopID)
		if err != nil {
			return err
		}
		step = &models.SOPStep{
			SOPID:      sopID,
			StepNumber: NextSequence(count, input.StepNumber),
			Content:    input.Content,
			Attachment: input.Attachment,
		}
		if err := s.repos.Steps.Create(ctx, tx, step); err != nil {
			return err
		}
		return s.touch(ctx, tx, sop)
	})
	if err != nil {
		return nil, s.fail("create step of", sopID, err)
	}
	s.log.Info("step created", "sopId", sopID, "id", step.ID, "stepNumber", step.StepNumber)
	return step, nil
}

func (s *stepService) Update(ctx context.Context, sopID, stepID uint, patch models.StepPatch) (*models.SOPStep, error) {
	if patch.StepNumber.Has() && *patch.StepNumber.Value < 1 {
		return nil, apperr.Validation("stepNumber must be a positive integer")
	}
	if patch.Content.Has() && strings.TrimSpace(*patch.Content.Value) == "" {
		return nil, apperr.Validation("content cannot be blank")
	}
	if patch.Attachment.Set {
		if err := checkAttachment(patch.Attachment.Value); err != nil {
			return nil, err
		}
	}

	var step *models.SOPStep
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		sop, err := s.sop(ctx, tx, sopID)
		if err != nil {
			return err
		}
		if step, err = s.step(ctx, tx, sopID, stepID); err != nil {
			return err
		}
		if patch.StepNumber.Has() {
			step.StepNumber = *patch.StepNumber.Value
		}
		if patch.Content.Has() {
			step.Content = *patch.Content.Value
		}
		if patch.Attachment.Set {
			step.Attachment = patch.Attachment.Value
		}
		if err := s.repos.Steps.Update(ctx, tx, step); err != nil {
			return err
		}
		return s.touch(ctx, tx, sop)
	})
	if err != nil {
		return nil, s.fail("update step of", sopID, err)
	}
	s.log.Info("step updated", "sopId", sopID, "id", stepID)
	return step, nil
}

// Delete removes the step and shifts every later step up by one.
func (s *stepService) Delete(ctx context.Context, sopID, stepID uint) error {
	var changed []*models.SOPStep
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		sop, err := s.sop(ctx, tx, sopID)
		if err != nil {
			return err
		}
		step, err := s.step(ctx, tx, sopID, stepID)
		if err != nil {
			return err
		}
		if err := s.repos.Steps.Delete(ctx, tx, step.ID); err != nil {
			return err
		}
		siblings, err := s.repos.Steps.StepsForSOP(ctx, tx, sopID)
		if err != nil {
			return err
		}
		changed = CloseGap(siblings, step.StepNumber)
		if err := s.repos.Steps.UpdateNumbers(ctx, tx, changed); err != nil {
			return err
		}
		return s.touch(ctx, tx, sop)
	})
	if err != nil {
		return s.fail("delete step of", sopID, err)
	}
	metrics.RenumberedRows.WithLabelValues(metrics.CollectionSteps).Add(float64(len(changed)))
	s.log.Info("step deleted", "sopId", sopID, "id", stepID, "renumbered", len(changed))
	return nil
}

// Reorder numbers the listed steps 1..n in list order. A nil list is
// rejected; an empty one changes nothing.
func (s *stepService) Reorder(ctx context.Context, sopID uint, ids []uint) ([]*models.SOPStep, error) {
	if ids == nil {
		return nil, apperr.Validation("order array is required")
	}

	var steps, changed []*models.SOPStep
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		sop, err := s.sop(ctx, tx, sopID)
		if err != nil {
			return err
		}
		current, err := s.repos.Steps.StepsForSOP(ctx, tx, sopID)
		if err != nil {
			return err
		}
		changed = Reorder(current, ids)
		if len(changed) == 0 {
			steps = current
			return nil
		}
		if err := s.repos.Steps.UpdateNumbers(ctx, tx, changed); err != nil {
			return err
		}
		if err := s.touch(ctx, tx, sop); err != nil {
			return err
		}
		steps, err = s.repos.Steps.StepsForSOP(ctx, tx, sopID)
		return err
	})
	if err != nil {
		return nil, s.fail("reorder steps of", sopID, err)
	}
	metrics.RenumberedRows.WithLabelValues(metrics.CollectionSteps).Add(float64(len(changed)))
	s.log.Info("steps reordered", "sopId", sopID, "changed", len(changed))
	return steps, nil
}

func (s *stepService) sop(ctx context.Context, tx *gorm.DB, id uint) (*models.SOP, error) {
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

// step loads a step and checks that it belongs to the SOP.
func (s *stepService) step(ctx context.Context, tx *gorm.DB, sopID, stepID uint) (*models.SOPStep, error) {
	step, err := s.repos.Steps.GetByID(ctx, tx, stepID)
	if err != nil {
		return nil, err
	}
	if step == nil || step.SOPID != sopID {
		s.log.Warn("step not found", "sopId", sopID, "id", stepID)
		return nil, apperr.NotFound("step not found")
	}
	return step, nil
}

func (s *stepService) touch(ctx context.Context, tx *gorm.DB, sop *models.SOP) error {
	sop.UpdatedAt = nowPtr(s.now)
	return s.repos.SOPs.Update(ctx, tx, sop)
}

func (s *stepService) fail(action string, sopID uint, err error) error {
	if apperr.KindOf(err) != "" {
		return err
	}
	s.log.Error("step operation failed", "action", action, "sopId", sopID, "error", err)
	return fmt.Errorf("failed to %s SOP %d: %w", action, sopID, err)
}

func checkAttachment(attachment *string) error {
	if attachment != nil && len(*attachment) > 255 {
		return apperr.Validation("attachment must be at most 255 characters")
	}
	return nil
}
