package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"sopdesk/apperr"
	"sopdesk/logger"
	"sopdesk/models"
	"sopdesk/repository"
)

// CategoryService defines the interface for managing categories.
type CategoryService interface {
	List(ctx context.Context) ([]models.CategoryRecord, error)
	Get(ctx context.Context, id uint) (*models.CategoryRecord, error)
	Create(ctx context.Context, input models.CategoryCreate) (*models.Category, error)
	Update(ctx context.Context, id uint, patch models.CategoryPatch) (*models.Category, error)
	// Delete refuses to remove a category that still has SOPs.
	Delete(ctx context.Context, id uint) error
}

type categoryService struct {
	repos *repository.Set
	log   *logger.Logger
}

// NewCategoryService creates a new instance of CategoryService.
func NewCategoryService(repos *repository.Set, baseLog *logger.Logger) CategoryService {
	return &categoryService{repos: repos, log: baseLog.With("component", "CategoryService")}
}

func (s *categoryService) List(ctx context.Context) ([]models.CategoryRecord, error) {
	categories, err := s.repos.Categories.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	records := make([]models.CategoryRecord, 0, len(categories))
	for _, c := range categories {
		count, err := s.repos.Categories.CountSOPs(ctx, nil, c.ID)
		if err != nil {
			return nil, err
		}
		records = append(records, models.CategoryRecord{Category: *c, SOPsCount: count})
	}
	return records, nil
}

func (s *categoryService) Get(ctx context.Context, id uint) (*models.CategoryRecord, error) {
	category, err := s.find(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	count, err := s.repos.Categories.CountSOPs(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return &models.CategoryRecord{Category: *category, SOPsCount: count}, nil
}

func (s *categoryService) Create(ctx context.Context, input models.CategoryCreate) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	category := &models.Category{Name: name, Description: input.Description}
	if err := s.repos.Categories.Create(ctx, nil, category); err != nil {
		return nil, err
	}
	s.log.Info("category created", "id", category.ID, "name", name)
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id uint, patch models.CategoryPatch) (*models.Category, error) {
	if patch.Name.Has() && strings.TrimSpace(*patch.Name.Value) == "" {
		return nil, apperr.Validation("name cannot be blank")
	}
	category, err := s.find(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if patch.Name.Has() {
		category.Name = strings.TrimSpace(*patch.Name.Value)
	}
	if patch.Description.Set {
		category.Description = patch.Description.Value
	}
	if err := s.repos.Categories.Update(ctx, nil, category); err != nil {
		return nil, err
	}
	s.log.Info("category updated", "id", id)
	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, id uint) error {
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.find(ctx, tx, id); err != nil {
			return err
		}
		count, err := s.repos.Categories.CountSOPs(ctx, tx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return apperr.Conflict("cannot delete category with existing SOPs")
		}
		return s.repos.Categories.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("category deleted", "id", id)
	return nil
}

func (s *categoryService) find(ctx context.Context, tx *gorm.DB, id uint) (*models.Category, error) {
	category, err := s.repos.Categories.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		s.log.Warn("category not found", "id", id)
		return nil, apperr.NotFound("category not found")
	}
	return category, nil
}

// TagService defines the interface for managing tags.
type TagService interface {
	List(ctx context.Context) ([]models.TagRecord, error)
	Get(ctx context.Context, id uint) (*models.TagRecord, error)
	Create(ctx context.Context, input models.TagInput) (*models.Tag, error)
	Update(ctx context.Context, id uint, input models.TagInput) (*models.Tag, error)
	// Delete detaches the tag from every SOP before removing it.
	Delete(ctx context.Context, id uint) error
}

type tagService struct {
	repos *repository.Set
	log   *logger.Logger
}

// NewTagService creates a new instance of TagService.
func NewTagService(repos *repository.Set, baseLog *logger.Logger) TagService {
	return &tagService{repos: repos, log: baseLog.With("component", "TagService")}
}

func (s *tagService) List(ctx context.Context) ([]models.TagRecord, error) {
	tags, err := s.repos.Tags.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	records := make([]models.TagRecord, 0, len(tags))
	for _, t := range tags {
		count, err := s.repos.Tags.CountSOPs(ctx, nil, t.ID)
		if err != nil {
			return nil, err
		}
		records = append(records, models.TagRecord{Tag: *t, SOPsCount: count})
	}
	return records, nil
}

func (s *tagService) Get(ctx context.Context, id uint) (*models.TagRecord, error) {
	tag, err := s.find(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	count, err := s.repos.Tags.CountSOPs(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return &models.TagRecord{Tag: *tag, SOPsCount: count}, nil
}

func (s *tagService) Create(ctx context.Context, input models.TagInput) (*models.Tag, error) {
	name, err := tagName(input.Name)
	if err != nil {
		return nil, err
	}
	tag := &models.Tag{Name: name}
	err = s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		existing, err := s.repos.Tags.GetByName(ctx, tx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.Conflict("tag with this name already exists")
		}
		return s.repos.Tags.Create(ctx, tx, tag)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("tag created", "id", tag.ID, "name", name)
	return tag, nil
}

func (s *tagService) Update(ctx context.Context, id uint, input models.TagInput) (*models.Tag, error) {
	name, err := tagName(input.Name)
	if err != nil {
		return nil, err
	}
	var tag *models.Tag
	err = s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		found, err := s.find(ctx, tx, id)
		if err != nil {
			return err
		}
		tag = found
		existing, err := s.repos.Tags.GetByName(ctx, tx, name)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != id {
			return apperr.Conflict("tag with this name already exists")
		}
		tag.Name = name
		return s.repos.Tags.Update(ctx, tx, tag)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("tag renamed", "id", id, "name", name)
	return tag, nil
}

func (s *tagService) Delete(ctx context.Context, id uint) error {
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.find(ctx, tx, id); err != nil {
			return err
		}
		if err := s.repos.Tags.DetachTag(ctx, tx, id); err != nil {
			return err
		}
		return s.repos.Tags.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("tag deleted", "id", id)
	return nil
}

func (s *tagService) find(ctx context.Context, tx *gorm.DB, id uint) (*models.Tag, error) {
	tag, err := s.repos.Tags.GetByID(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load tag %d: %w", id, err)
	}
	if tag == nil {
		s.log.Warn("tag not found", "id", id)
		return nil, apperr.NotFound("tag not found")
	}
	return tag, nil
}

func tagName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", apperr.Validation("name is required")
	}
	if len(name) > 100 {
		return "", apperr.Validation("name must be at most 100 characters")
	}
	return name, nil
}
