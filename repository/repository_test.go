package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"sopdesk/database"
	"sopdesk/logger"
	"sopdesk/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", database.MemoryDSN, "silent", logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedSOP(t *testing.T, db *gorm.DB, title string) *models.SOP {
	t.Helper()
	category := &models.Category{Name: "Ops " + title}
	require.NoError(t, db.Create(category).Error)
	sop := &models.SOP{Title: title, Description: title + " description", CategoryID: category.ID}
	require.NoError(t, db.Create(sop).Error)
	return sop
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tags := NewTagRepository(db, logger.NewNop())
	boom := errors.New("boom")

	err := NewTransactor(db).WithinTransaction(ctx, func(tx *gorm.DB) error {
		require.NoError(t, tags.Create(ctx, tx, &models.Tag{Name: "ephemeral"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	found, err := tags.GetByName(ctx, nil, "ephemeral")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestTagRepository_ReplaceSOPTags(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewTagRepository(db, logger.NewNop())
	sop := seedSOP(t, db, "Lockout")

	safety := &models.Tag{Name: "safety"}
	electrical := &models.Tag{Name: "electrical"}
	require.NoError(t, repo.Create(ctx, nil, safety))
	require.NoError(t, repo.Create(ctx, nil, electrical))

	t.Run("sets the exact tag set", func(t *testing.T) {
		require.NoError(t, repo.ReplaceSOPTags(ctx, nil, sop.ID, []uint{safety.ID, electrical.ID, safety.ID}))
		tags, err := repo.TagsForSOP(ctx, nil, sop.ID)
		require.NoError(t, err)
		require.Len(t, tags, 2)
		assert.Equal(t, "electrical", tags[0].Name)
		assert.Equal(t, "safety", tags[1].Name)
	})

	t.Run("replacing drops old links", func(t *testing.T) {
		require.NoError(t, repo.ReplaceSOPTags(ctx, nil, sop.ID, []uint{electrical.ID}))
		count, err := repo.CountSOPs(ctx, nil, safety.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("missing tag returns nil without error", func(t *testing.T) {
		tag, err := repo.GetByID(ctx, nil, 999)
		assert.NoError(t, err)
		assert.Nil(t, tag)
	})
}

func TestSOPRepository_ListFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewSOPRepository(db, logger.NewNop())
	tags := NewTagRepository(db, logger.NewNop())

	first := seedSOP(t, db, "First")
	second := seedSOP(t, db, "Second")
	second.Status = models.SOPStatusPublished
	require.NoError(t, repo.Update(ctx, nil, second))

	tag := &models.Tag{Name: "onboarding"}
	require.NoError(t, tags.Create(ctx, nil, tag))
	require.NoError(t, tags.ReplaceSOPTags(ctx, nil, first.ID, []uint{tag.ID}))

	all, err := repo.List(ctx, nil, SOPFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	published, err := repo.List(ctx, nil, SOPFilter{Status: models.SOPStatusPublished})
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, second.ID, published[0].ID)

	tagged, err := repo.List(ctx, nil, SOPFilter{TagID: tag.ID})
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, first.ID, tagged[0].ID)

	byCategory, err := repo.List(ctx, nil, SOPFilter{CategoryID: first.CategoryID})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, first.ID, byCategory[0].ID)
}

func TestStepRepository_OrderAndRenumber(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewStepRepository(db, logger.NewNop())
	sop := seedSOP(t, db, "Steps")

	for i, content := range []string{"c", "a", "b"} {
		require.NoError(t, repo.Create(ctx, nil, &models.SOPStep{SOPID: sop.ID, StepNumber: []int{3, 1, 2}[i], Content: content}))
	}

	steps, err := repo.StepsForSOP(ctx, nil, sop.ID)
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{steps[0].Content, steps[1].Content, steps[2].Content})

	steps[2].StepNumber = 7
	require.NoError(t, repo.UpdateNumbers(ctx, nil, steps[2:]))
	reloaded, err := repo.GetByID(ctx, nil, steps[2].ID)
	require.NoError(t, err)
	assert.Equal(t, 7, reloaded.StepNumber)
	assert.Equal(t, "c", reloaded.Content)

	require.NoError(t, repo.DeleteForSOP(ctx, nil, sop.ID))
	count, err := repo.CountForSOP(ctx, nil, sop.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestVersionRepository_ListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewVersionRepository(db, logger.NewNop())
	sop := seedSOP(t, db, "Versions")

	for n := 1; n <= 3; n++ {
		require.NoError(t, repo.Create(ctx, nil, &models.SOPVersion{
			SOPID:         sop.ID,
			VersionNumber: n,
			Content:       map[string]interface{}{"title": "v"},
		}))
	}

	versions, err := repo.ListForSOP(ctx, nil, sop.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, 3, versions[0].VersionNumber)
	assert.Equal(t, 1, versions[2].VersionNumber)
	assert.Equal(t, "v", versions[0].Content["title"])
}

func TestLearningPathRepository_Items(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewLearningPathRepository(db, logger.NewNop())
	sop := seedSOP(t, db, "Path SOP")

	path := &models.LearningPath{Title: "Onboarding"}
	require.NoError(t, repo.Create(ctx, nil, path))
	item := &models.LearningPathItem{LearningPathID: path.ID, SOPID: sop.ID, Position: 1}
	require.NoError(t, repo.CreateItem(ctx, nil, item))

	has, err := repo.HasSOP(ctx, nil, path.ID, sop.ID)
	require.NoError(t, err)
	assert.True(t, has)

	t.Run("unique index rejects a second copy", func(t *testing.T) {
		err := repo.CreateItem(ctx, nil, &models.LearningPathItem{LearningPathID: path.ID, SOPID: sop.ID, Position: 2})
		assert.Error(t, err)
	})

	t.Run("item lookup is scoped to its path", func(t *testing.T) {
		found, err := repo.GetItem(ctx, nil, path.ID+1, item.ID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	ids, err := repo.PathIDsForSOP(ctx, nil, sop.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{path.ID}, ids)
}

func TestProgressRepository_FindAndSave(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewProgressRepository(db, logger.NewNop())

	missing, err := repo.FindByUserAndSOP(ctx, nil, 1, 1)
	require.NoError(t, err)
	assert.Nil(t, missing)

	record := &models.UserProgress{UserID: 1, SOPID: 1, Status: models.ProgressInProgress}
	require.NoError(t, repo.Save(ctx, nil, record))
	record.Status = models.ProgressCompleted
	require.NoError(t, repo.Save(ctx, nil, record))

	all, err := repo.ListAll(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.ProgressCompleted, all[0].Status)

	require.NoError(t, repo.DeleteForUser(ctx, nil, 1))
	all, err = repo.ListAll(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}
