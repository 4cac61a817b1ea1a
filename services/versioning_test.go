package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sopdesk/apperr"
	"sopdesk/models"
)

func sampleSOP() *models.SOP {
	return &models.SOP{
		ID:            7,
		Title:         "Forklift inspection",
		Description:   "Daily check",
		Summary:       strPtr("Short"),
		Difficulty:    intPtr(3),
		Status:        models.SOPStatusPublished,
		VersionNumber: 4,
	}
}

func TestSnapshotContent(t *testing.T) {
	content := SnapshotContent(sampleSOP())

	assert.Len(t, content, len(models.VersionedFields))
	assert.Equal(t, "Forklift inspection", content["title"])
	assert.Equal(t, 3, content["difficulty"])
	assert.Nil(t, content["department"])
	assert.Contains(t, content, "department", "null fields keep their key")
	assert.Equal(t, "published", content["status"])
}

func TestNewSnapshot_DoesNotBumpVersion(t *testing.T) {
	sop := sampleSOP()
	snapshot := NewSnapshot(sop, sop.CreatedAt)

	assert.Equal(t, 4, snapshot.VersionNumber)
	assert.Equal(t, 4, sop.VersionNumber)
	assert.Equal(t, sop.ID, snapshot.SOPID)
}

func TestApplyPatch(t *testing.T) {
	t.Run("absent fields are untouched", func(t *testing.T) {
		sop := sampleSOP()
		require.NoError(t, ApplyPatch(sop, models.SOPPatch{Title: models.Some("Renamed")}))
		assert.Equal(t, "Renamed", sop.Title)
		assert.Equal(t, "Short", *sop.Summary)
		assert.Equal(t, 3, *sop.Difficulty)
	})

	t.Run("null clears nullable fields only", func(t *testing.T) {
		var patch models.SOPPatch
		require.NoError(t, json.Unmarshal([]byte(`{"summary":null,"difficulty":null,"title":null,"status":null}`), &patch))

		sop := sampleSOP()
		require.NoError(t, ApplyPatch(sop, patch))
		assert.Nil(t, sop.Summary)
		assert.Nil(t, sop.Difficulty)
		assert.Equal(t, "Forklift inspection", sop.Title)
		assert.Equal(t, models.SOPStatusPublished, sop.Status)
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		err := ApplyPatch(sampleSOP(), models.SOPPatch{Status: models.Some(models.SOPStatus("archived"))})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("rejects a blank title", func(t *testing.T) {
		err := ApplyPatch(sampleSOP(), models.SOPPatch{Title: models.Some("  ")})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})
}

func TestRestoreContent(t *testing.T) {
	t.Run("copies fields but never status", func(t *testing.T) {
		sop := sampleSOP()
		content := map[string]interface{}{
			"title":       "Old title",
			"description": "Old description",
			"summary":     nil,
			"difficulty":  float64(1),
			"department":  "Logistics",
			"status":      "draft",
		}
		require.NoError(t, RestoreContent(sop, content))
		assert.Equal(t, "Old title", sop.Title)
		assert.Nil(t, sop.Summary)
		assert.Equal(t, 1, *sop.Difficulty)
		assert.Equal(t, "Logistics", *sop.Department)
		assert.Equal(t, models.SOPStatusPublished, sop.Status)
	})

	t.Run("missing keys are left alone", func(t *testing.T) {
		sop := sampleSOP()
		require.NoError(t, RestoreContent(sop, map[string]interface{}{"title": "Only title"}))
		assert.Equal(t, "Only title", sop.Title)
		assert.Equal(t, "Daily check", sop.Description)
		assert.Equal(t, "Short", *sop.Summary)
	})

	t.Run("accepts json numbers", func(t *testing.T) {
		sop := sampleSOP()
		require.NoError(t, RestoreContent(sop, map[string]interface{}{"difficulty": json.Number("5")}))
		assert.Equal(t, 5, *sop.Difficulty)
	})

	t.Run("rejects malformed content", func(t *testing.T) {
		assert.Error(t, RestoreContent(sampleSOP(), map[string]interface{}{"title": 12}))
	})

	t.Run("null title is skipped", func(t *testing.T) {
		sop := sampleSOP()
		title := sop.Title
		require.NoError(t, RestoreContent(sop, map[string]interface{}{"title": nil, "department": nil}))
		assert.Equal(t, title, sop.Title)
		assert.Nil(t, sop.Department)
	})
}

func TestDiffVersions(t *testing.T) {
	a := &models.SOPVersion{VersionNumber: 1, Content: map[string]interface{}{
		"title":      "A",
		"difficulty": 2,
		"summary":    nil,
	}}
	b := &models.SOPVersion{VersionNumber: 3, Content: map[string]interface{}{
		"title":      "B",
		"difficulty": float64(2),
		"department": "Ops",
	}}

	diff := DiffVersions(a, b)

	assert.Equal(t, map[string]interface{}{"version1": "A", "version3": "B"}, diff["title"])
	assert.Equal(t, map[string]interface{}{"version1": nil, "version3": "Ops"}, diff["department"])
	assert.NotContains(t, diff, "difficulty", "numbers compare by value")
	assert.NotContains(t, diff, "summary", "missing and null are equal")
	assert.Empty(t, DiffVersions(a, a))
}
