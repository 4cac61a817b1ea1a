package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"sopdesk/apperr"
	"sopdesk/logger"
	"sopdesk/models"
	"sopdesk/repository"
)

// ProgressService defines the interface for tracking and reporting how far
// users got through SOPs.
type ProgressService interface {
	ForUser(ctx context.Context, userID uint) (*models.UserProgressReport, error)
	ForSOP(ctx context.Context, sopID uint) (*models.SOPProgressReport, error)
	// Upsert creates or updates the (user, SOP) record and reports whether it
	// was created.
	Upsert(ctx context.Context, input models.ProgressInput) (*models.UserProgress, bool, error)
	Start(ctx context.Context, userID, sopID uint) (*models.UserProgress, error)
	Complete(ctx context.Context, userID, sopID uint) (*models.UserProgress, error)
	Delete(ctx context.Context, id uint) error
	Dashboard(ctx context.Context) (*models.ProgressDashboard, error)
}

type progressService struct {
	repos *repository.Set
	log   *logger.Logger
	now   Clock
}

// NewProgressService creates a new instance of ProgressService.
func NewProgressService(repos *repository.Set, baseLog *logger.Logger, clock Clock) ProgressService {
	return &progressService{
		repos: repos,
		log:   baseLog.With("component", "ProgressService"),
		now:   orClock(clock),
	}
}

func (s *progressService) ForUser(ctx context.Context, userID uint) (*models.UserProgressReport, error) {
	user, err := s.repos.Users.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	if user == nil {
		s.log.Warn("user not found", "userId", userID)
		return nil, apperr.NotFound("user not found")
	}
	records, err := s.repos.Progress.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress of user %d: %w", userID, err)
	}

	report := &models.UserProgressReport{
		User:            models.NamedRef{ID: user.ID, Name: user.Name},
		ProgressSummary: Summarize(records),
		Progress:        make([]models.ProgressEntry, 0, len(records)),
	}
	for _, r := range records {
		entry := models.ProgressEntry{ID: r.ID, Status: r.Status, CompletedAt: r.CompletedAt}
		sop, err := s.repos.SOPs.GetByID(ctx, nil, r.SOPID)
		if err != nil {
			return nil, err
		}
		if sop != nil {
			entry.SOP = briefOf(sop)
		}
		report.Progress = append(report.Progress, entry)
	}
	return report, nil
}

func (s *progressService) ForSOP(ctx context.Context, sopID uint) (*models.SOPProgressReport, error) {
	sop, err := s.repos.SOPs.GetByID(ctx, nil, sopID)
	if err != nil {
		return nil, fmt.Errorf("failed to load SOP %d: %w", sopID, err)
	}
	if sop == nil {
		s.log.Warn("SOP not found", "sopId", sopID)
		return nil, apperr.NotFound("SOP not found")
	}
	records, err := s.repos.Progress.ListBySOP(ctx, nil, sopID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress on SOP %d: %w", sopID, err)
	}

	report := &models.SOPProgressReport{
		SOP:             models.SOPBrief{ID: sop.ID, Title: sop.Title},
		ProgressSummary: Summarize(records),
		Progress:        make([]models.ProgressEntry, 0, len(records)),
	}
	for _, r := range records {
		entry := models.ProgressEntry{ID: r.ID, Status: r.Status, CompletedAt: r.CompletedAt}
		if entry.User, err = userRef(ctx, nil, s.repos.Users, &r.UserID); err != nil {
			return nil, err
		}
		report.Progress = append(report.Progress, entry)
	}
	return report, nil
}

func (s *progressService) Upsert(ctx context.Context, input models.ProgressInput) (*models.UserProgress, bool, error) {
	if input.UserID == 0 || input.SOPID == 0 {
		return nil, false, apperr.Validation("userId and sopId are required")
	}
	status := input.Status
	if status == "" {
		status = models.ProgressNotStarted
	}
	if !status.Valid() {
		return nil, false, apperr.Validation("invalid status %q", status)
	}

	var (
		progress *models.UserProgress
		created  bool
	)
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		user, err := s.repos.Users.GetByID(ctx, tx, input.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return apperr.NotFound("user not found")
		}
		sop, err := s.repos.SOPs.GetByID(ctx, tx, input.SOPID)
		if err != nil {
			return err
		}
		if sop == nil {
			return apperr.NotFound("SOP not found")
		}

		progress, err = s.repos.Progress.FindByUserAndSOP(ctx, tx, input.UserID, input.SOPID)
		if err != nil {
			return err
		}
		if progress == nil {
			created = true
			progress = &models.UserProgress{UserID: input.UserID, SOPID: input.SOPID}
		}
		ApplyStatus(progress, status, s.now())
		return s.repos.Progress.Save(ctx, tx, progress)
	})
	if err != nil {
		if apperr.KindOf(err) != "" {
			return nil, false, err
		}
		s.log.Error("failed to save progress", "userId", input.UserID, "sopId", input.SOPID, "error", err)
		return nil, false, fmt.Errorf("failed to save progress of user %d on SOP %d: %w", input.UserID, input.SOPID, err)
	}
	s.log.Info("progress saved", "userId", input.UserID, "sopId", input.SOPID, "status", status, "created", created)
	return progress, created, nil
}

func (s *progressService) Start(ctx context.Context, userID, sopID uint) (*models.UserProgress, error) {
	progress, _, err := s.Upsert(ctx, models.ProgressInput{UserID: userID, SOPID: sopID, Status: models.ProgressInProgress})
	return progress, err
}

func (s *progressService) Complete(ctx context.Context, userID, sopID uint) (*models.UserProgress, error) {
	progress, _, err := s.Upsert(ctx, models.ProgressInput{UserID: userID, SOPID: sopID, Status: models.ProgressCompleted})
	return progress, err
}

func (s *progressService) Delete(ctx context.Context, id uint) error {
	progress, err := s.repos.Progress.GetByID(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("failed to load progress %d: %w", id, err)
	}
	if progress == nil {
		s.log.Warn("progress not found", "id", id)
		return apperr.NotFound("progress not found")
	}
	if err := s.repos.Progress.Delete(ctx, nil, id); err != nil {
		s.log.Error("failed to delete progress", "id", id, "error", err)
		return err
	}
	s.log.Info("progress deleted", "id", id)
	return nil
}

func (s *progressService) Dashboard(ctx context.Context) (*models.ProgressDashboard, error) {
	records, err := s.repos.Progress.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress records: %w", err)
	}
	dashboard := Dashboard(records)
	return &dashboard, nil
}
