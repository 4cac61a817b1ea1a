package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"sopdesk/apperr"
	"sopdesk/logger"
	"sopdesk/models"
	"sopdesk/repository"
)

// PasswordHasher hashes and checks account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a PasswordHasher using bcrypt at the given cost.
// A cost outside bcrypt's range falls back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return bcryptHasher{cost: cost}
}

func (h bcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h bcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// UserService defines the interface for managing user accounts.
type UserService interface {
	List(ctx context.Context) ([]*models.User, error)
	Get(ctx context.Context, id uint) (*models.User, error)
	Create(ctx context.Context, input models.UserCreate) (*models.User, error)
	Update(ctx context.Context, id uint, patch models.UserPatch) (*models.User, error)
	// Delete removes the account and its progress. actorID is the user
	// performing the deletion; nobody may delete their own account.
	Delete(ctx context.Context, actorID, id uint) error
}

type userService struct {
	repos  *repository.Set
	hasher PasswordHasher
	log    *logger.Logger
	now    Clock
}

// NewUserService creates a new instance of UserService.
func NewUserService(repos *repository.Set, hasher PasswordHasher, baseLog *logger.Logger, clock Clock) UserService {
	return &userService{
		repos:  repos,
		hasher: hasher,
		log:    baseLog.With("component", "UserService"),
		now:    orClock(clock),
	}
}

func (s *userService) List(ctx context.Context) ([]*models.User, error) {
	return s.repos.Users.List(ctx, nil)
}

func (s *userService) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.find(ctx, nil, id)
}

func (s *userService) Create(ctx context.Context, input models.UserCreate) (*models.User, error) {
	name := strings.TrimSpace(input.Name)
	switch {
	case name == "":
		return nil, apperr.Validation("name is required")
	case strings.TrimSpace(input.Email) == "":
		return nil, apperr.Validation("email is required")
	case input.Password == "":
		return nil, apperr.Validation("password is required")
	case input.ConfirmPassword != nil && *input.ConfirmPassword != input.Password:
		return nil, apperr.Validation("passwords do not match")
	}
	email := normalizeEmail(input.Email)
	role := input.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, apperr.Validation("invalid role %q", role)
	}
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Name: name, Email: email, PasswordHash: hash, Role: role, CreatedAt: s.now()}
	err = s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		existing, err := s.repos.Users.GetByEmail(ctx, tx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.Conflict("email is already registered")
		}
		return s.repos.Users.Create(ctx, tx, user)
	})
	if err != nil {
		return nil, s.fail("create", 0, err)
	}
	s.log.Info("user registered", "id", user.ID, "role", role)
	return user, nil
}

// Update changes the present fields; the password is re-hashed only when a
// non-empty one is given.
func (s *userService) Update(ctx context.Context, id uint, patch models.UserPatch) (*models.User, error) {
	if patch.Name.Has() && strings.TrimSpace(*patch.Name.Value) == "" {
		return nil, apperr.Validation("name cannot be blank")
	}
	if patch.Role.Has() && !patch.Role.Value.Valid() {
		return nil, apperr.Validation("invalid role %q", *patch.Role.Value)
	}
	var email string
	if patch.Email.Has() {
		if email = normalizeEmail(*patch.Email.Value); email == "" {
			return nil, apperr.Validation("email cannot be blank")
		}
	}
	var hash string
	if patch.Password.Has() && *patch.Password.Value != "" {
		h, err := s.hasher.Hash(*patch.Password.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		hash = h
	}

	var user *models.User
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		found, err := s.find(ctx, tx, id)
		if err != nil {
			return err
		}
		user = found
		if email != "" && email != user.Email {
			existing, err := s.repos.Users.GetByEmail(ctx, tx, email)
			if err != nil {
				return err
			}
			if existing != nil {
				return apperr.Conflict("email is already registered")
			}
			user.Email = email
		}
		if patch.Name.Has() {
			user.Name = strings.TrimSpace(*patch.Name.Value)
		}
		if patch.Role.Has() {
			user.Role = *patch.Role.Value
		}
		if hash != "" {
			user.PasswordHash = hash
		}
		return s.repos.Users.Update(ctx, tx, user)
	})
	if err != nil {
		return nil, s.fail("update", id, err)
	}
	s.log.Info("user updated", "id", id, "passwordChanged", hash != "")
	return user, nil
}

func (s *userService) Delete(ctx context.Context, actorID, id uint) error {
	if actorID != 0 && actorID == id {
		return apperr.Conflict("you cannot delete your own account")
	}
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.find(ctx, tx, id); err != nil {
			return err
		}
		if err := s.repos.Progress.DeleteForUser(ctx, tx, id); err != nil {
			return err
		}
		return s.repos.Users.Delete(ctx, tx, id)
	})
	if err != nil {
		return s.fail("delete", id, err)
	}
	s.log.Info("user deleted", "id", id, "actorId", actorID)
	return nil
}

func (s *userService) find(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	user, err := s.repos.Users.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.log.Warn("user not found", "id", id)
		return nil, apperr.NotFound("user not found")
	}
	return user, nil
}

// fail logs store failures and passes domain errors through untouched.
func (s *userService) fail(action string, id uint, err error) error {
	if apperr.KindOf(err) != "" {
		return err
	}
	s.log.Error("user operation failed", "action", action, "id", id, "error", err)
	return fmt.Errorf("failed to %s user %d: %w", action, id, err)
}

// normalizeEmail lower-cases an address; its format is checked at the HTTP
// boundary.
func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
