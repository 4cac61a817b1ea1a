package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"sopdesk/logger"
	"sopdesk/models"
)

// UserRepository defines the interface for interacting with user accounts.
type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	List(ctx context.Context, tx *gorm.DB) ([]*models.User, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type userRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *gorm.DB, baseLog *logger.Logger) UserRepository {
	return &userRepository{db: db, log: baseLog.With("component", "UserRepository")}
}

func (r *userRepository) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	if err := conn(ctx, r.db, tx).Create(user).Error; err != nil {
		r.log.Error("failed to create user", "email", user.Email, "error", err)
		return fmt.Errorf("failed to create user %q: %w", user.Email, err)
	}
	r.log.Info("user created", "id", user.ID)
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db, tx).First(&user, id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve user %d: %w", id, err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db, tx).Where("email = ?", email).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve user %q: %w", email, err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, tx *gorm.DB) ([]*models.User, error) {
	var users []*models.User
	if err := conn(ctx, r.db, tx).Order(newestFirst()).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	if err := conn(ctx, r.db, tx).Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (r *userRepository) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	if err := conn(ctx, r.db, tx).Save(user).Error; err != nil {
		r.log.Error("failed to update user", "id", user.ID, "error", err)
		return fmt.Errorf("failed to update user %d: %w", user.ID, err)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if err := conn(ctx, r.db, tx).Delete(&models.User{}, id).Error; err != nil {
		r.log.Error("failed to delete user", "id", id, "error", err)
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	r.log.Info("user deleted", "id", id)
	return nil
}
