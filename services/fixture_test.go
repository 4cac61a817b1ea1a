package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"sopdesk/database"
	"sopdesk/logger"
	"sopdesk/models"
	"sopdesk/repository"
)

// fixture wires every service to a private in-memory database and a clock
// that advances one second per call.
type fixture struct {
	ctx   context.Context
	db    *gorm.DB
	repos *repository.Set

	sops       SOPService
	steps      StepService
	versions   VersionService
	paths      LearningPathService
	progress   ProgressService
	categories CategoryService
	tags       TagService
	users      UserService

	category *models.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewNop()
	db, err := database.Open("sqlite", database.MemoryDSN, "silent", log)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	current := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		current = current.Add(time.Second)
		return current
	}

	repos := repository.NewSet(db, log)
	f := &fixture{
		ctx:        context.Background(),
		db:         db,
		repos:      repos,
		sops:       NewSOPService(repos, log, clock),
		steps:      NewStepService(repos, log, clock),
		versions:   NewVersionService(repos, log, clock),
		paths:      NewLearningPathService(repos, log, clock),
		progress:   NewProgressService(repos, log, clock),
		categories: NewCategoryService(repos, log),
		tags:       NewTagService(repos, log),
		users:      NewUserService(repos, NewBcryptHasher(bcrypt.MinCost), log, clock),
	}

	f.category, err = f.categories.Create(f.ctx, models.CategoryCreate{Name: "Operations"})
	require.NoError(t, err)
	return f
}

func (f *fixture) createSOP(t *testing.T, title string) *models.SOPRecord {
	t.Helper()
	sop, err := f.sops.Create(f.ctx, models.SOPCreate{
		Title:       title,
		Description: title + " procedure",
		CategoryID:  f.category.ID,
	})
	require.NoError(t, err)
	return sop
}

func (f *fixture) createUser(t *testing.T, name, email string) *models.User {
	t.Helper()
	user, err := f.users.Create(f.ctx, models.UserCreate{Name: name, Email: email, Password: "s3cret"})
	require.NoError(t, err)
	return user
}

func (f *fixture) addSteps(t *testing.T, sopID uint, contents ...string) []*models.SOPStep {
	t.Helper()
	steps := make([]*models.SOPStep, 0, len(contents))
	for _, content := range contents {
		step, err := f.steps.Create(f.ctx, sopID, models.StepCreate{Content: content})
		require.NoError(t, err)
		steps = append(steps, step)
	}
	return steps
}

func stepNumbers(t *testing.T, f *fixture, sopID uint) map[string]int {
	t.Helper()
	steps, err := f.steps.List(f.ctx, sopID)
	require.NoError(t, err)
	numbers := make(map[string]int, len(steps))
	for _, s := range steps {
		numbers[s.Content] = s.StepNumber
	}
	return numbers
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
