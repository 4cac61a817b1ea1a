package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"sopdesk/models"
	"sopdesk/repository"
)

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

func orClock(c Clock) Clock {
	if c == nil {
		return systemClock
	}
	return c
}

// userRef resolves an optional user id into a short reference. Dangling ids
// resolve to nil.
func userRef(ctx context.Context, tx *gorm.DB, users repository.UserRepository, id *uint) (*models.NamedRef, error) {
	if id == nil {
		return nil, nil
	}
	user, err := users.GetByID(ctx, tx, *id)
	if err != nil || user == nil {
		return nil, err
	}
	return &models.NamedRef{ID: user.ID, Name: user.Name}, nil
}

func briefOf(sop *models.SOP) *models.SOPBrief {
	return &models.SOPBrief{
		ID:          sop.ID,
		Title:       sop.Title,
		Description: sop.Description,
		Difficulty:  sop.Difficulty,
		Status:      sop.Status,
	}
}

func nowPtr(c Clock) *time.Time {
	t := c()
	return &t
}
