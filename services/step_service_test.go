package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sopdesk/apperr"
	"sopdesk/models"
)

func TestStepService_AppendAndRemoveStayContiguous(t *testing.T) {
	f := newFixture(t)
	sop := f.createSOP(t, "Contiguous")
	steps := f.addSteps(t, sop.ID, "a", "b", "c", "d")

	for i, step := range steps {
		assert.Equal(t, i+1, step.StepNumber)
	}

	require.NoError(t, f.steps.Delete(f.ctx, sop.ID, steps[1].ID))
	assert.Equal(t, map[string]int{"a": 1, "c": 2, "d": 3}, stepNumbers(t, f, sop.ID))

	require.NoError(t, f.steps.Delete(f.ctx, sop.ID, steps[0].ID))
	assert.Equal(t, map[string]int{"c": 1, "d": 2}, stepNumbers(t, f, sop.ID))

	appended := f.addSteps(t, sop.ID, "e")
	assert.Equal(t, 3, appended[0].StepNumber)

	detail, err := f.sops.Get(f.ctx, sop.ID)
	require.NoError(t, err)
	assert.NotNil(t, detail.UpdatedAt, "step mutations stamp the SOP")
	assert.Equal(t, 1, detail.VersionNumber, "step mutations do not version the SOP")
}

func TestStepService_Reorder(t *testing.T) {
	f := newFixture(t)
	sop := f.createSOP(t, "Reorder")
	steps := f.addSteps(t, sop.ID, "A", "B", "C")

	t.Run("partial order leaves the rest", func(t *testing.T) {
		_, err := f.steps.Reorder(f.ctx, sop.ID, []uint{steps[2].ID, steps[0].ID})
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"C": 1, "A": 2, "B": 2}, stepNumbers(t, f, sop.ID))
	})

	t.Run("foreign step ids are skipped", func(t *testing.T) {
		other := f.createSOP(t, "Other")
		foreign := f.addSteps(t, other.ID, "X")

		_, err := f.steps.Reorder(f.ctx, sop.ID, []uint{foreign[0].ID, steps[1].ID, steps[0].ID, steps[2].ID})
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"B": 1, "A": 2, "C": 3}, stepNumbers(t, f, sop.ID))
		assert.Equal(t, map[string]int{"X": 1}, stepNumbers(t, f, other.ID))
	})

	t.Run("empty list is a no-op", func(t *testing.T) {
		reordered, err := f.steps.Reorder(f.ctx, sop.ID, []uint{})
		require.NoError(t, err)
		assert.Len(t, reordered, 3)
	})

	t.Run("missing list is rejected", func(t *testing.T) {
		_, err := f.steps.Reorder(f.ctx, sop.ID, nil)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})
}

func TestStepService_CreateAndUpdate(t *testing.T) {
	f := newFixture(t)
	sop := f.createSOP(t, "Steps")

	t.Run("content is required", func(t *testing.T) {
		_, err := f.steps.Create(f.ctx, sop.ID, models.StepCreate{Content: " "})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("explicit number is used verbatim", func(t *testing.T) {
		step, err := f.steps.Create(f.ctx, sop.ID, models.StepCreate{Content: "late", StepNumber: intPtr(10)})
		require.NoError(t, err)
		assert.Equal(t, 10, step.StepNumber)
	})

	t.Run("update clears the attachment", func(t *testing.T) {
		step, err := f.steps.Create(f.ctx, sop.ID, models.StepCreate{Content: "with file", Attachment: strPtr("manual.pdf")})
		require.NoError(t, err)

		updated, err := f.steps.Update(f.ctx, sop.ID, step.ID, models.StepPatch{
			Content:    models.Some("renamed"),
			Attachment: models.Null[string](),
		})
		require.NoError(t, err)
		assert.Equal(t, "renamed", updated.Content)
		assert.Nil(t, updated.Attachment)
	})

	t.Run("steps of another SOP are not found", func(t *testing.T) {
		other := f.createSOP(t, "Elsewhere")
		foreign := f.addSteps(t, other.ID, "x")

		_, err := f.steps.Get(f.ctx, sop.ID, foreign[0].ID)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
		err = f.steps.Delete(f.ctx, sop.ID, foreign[0].ID)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("unknown SOP is not found", func(t *testing.T) {
		_, err := f.steps.List(f.ctx, 31337)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}
