package services

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"gorm.io/datatypes"

	"sopdesk/apperr"
	"sopdesk/models"
)

// SnapshotContent captures the versioned fields of sop. Nil pointers become
// JSON nulls so every key is always present.
func SnapshotContent(sop *models.SOP) datatypes.JSONMap {
	content := datatypes.JSONMap{
		models.VersionFieldTitle:       sop.Title,
		models.VersionFieldDescription: sop.Description,
		models.VersionFieldSummary:     nil,
		models.VersionFieldDifficulty:  nil,
		models.VersionFieldDepartment:  nil,
		models.VersionFieldStatus:      string(sop.Status),
	}
	if sop.Summary != nil {
		content[models.VersionFieldSummary] = *sop.Summary
	}
	if sop.Difficulty != nil {
		content[models.VersionFieldDifficulty] = *sop.Difficulty
	}
	if sop.Department != nil {
		content[models.VersionFieldDepartment] = *sop.Department
	}
	return content
}

// NewSnapshot builds the version row recording sop as it is now. It does not
// change sop.VersionNumber.
func NewSnapshot(sop *models.SOP, now time.Time) *models.SOPVersion {
	return &models.SOPVersion{
		SOPID:         sop.ID,
		VersionNumber: sop.VersionNumber,
		Content:       SnapshotContent(sop),
		CreatedAt:     now,
		CreatedByID:   sop.CreatedByID,
	}
}

// ApplyPatch copies the present fields of patch onto sop. Null clears the
// nullable fields and is ignored for title, description and status.
// Category and tag changes are handled by the caller.
func ApplyPatch(sop *models.SOP, patch models.SOPPatch) error {
	if patch.Title.Has() {
		title := strings.TrimSpace(*patch.Title.Value)
		if title == "" {
			return apperr.Validation("title cannot be blank")
		}
		if len(title) > 255 {
			return apperr.Validation("title must be at most 255 characters")
		}
		sop.Title = title
	}
	if patch.Description.Has() {
		if strings.TrimSpace(*patch.Description.Value) == "" {
			return apperr.Validation("description cannot be blank")
		}
		sop.Description = *patch.Description.Value
	}
	if patch.Status.Has() {
		if !patch.Status.Value.Valid() {
			return apperr.Validation("invalid status %q", *patch.Status.Value)
		}
		sop.Status = *patch.Status.Value
	}
	if patch.Summary.Set {
		sop.Summary = patch.Summary.Value
	}
	if patch.Difficulty.Set {
		sop.Difficulty = patch.Difficulty.Value
	}
	if patch.Department.Set {
		if patch.Department.Has() && len(*patch.Department.Value) > 100 {
			return apperr.Validation("department must be at most 100 characters")
		}
		sop.Department = patch.Department.Value
	}
	return nil
}

// RestoreContent copies title, description, summary, difficulty and
// department from a version's content onto sop. Keys missing from the
// content are left alone, a null title or description is skipped, and
// status is never restored.
func RestoreContent(sop *models.SOP, content map[string]interface{}) error {
	if v, ok := content[models.VersionFieldTitle]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("version title has unexpected type %T", v)
		}
		sop.Title = s
	}
	if v, ok := content[models.VersionFieldDescription]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("version description has unexpected type %T", v)
		}
		sop.Description = s
	}
	if v, ok := content[models.VersionFieldSummary]; ok {
		s, err := optionalString(v)
		if err != nil {
			return fmt.Errorf("version summary: %w", err)
		}
		sop.Summary = s
	}
	if v, ok := content[models.VersionFieldDifficulty]; ok {
		n, err := optionalInt(v)
		if err != nil {
			return fmt.Errorf("version difficulty: %w", err)
		}
		sop.Difficulty = n
	}
	if v, ok := content[models.VersionFieldDepartment]; ok {
		s, err := optionalString(v)
		if err != nil {
			return fmt.Errorf("version department: %w", err)
		}
		sop.Department = s
	}
	return nil
}

// DiffVersions compares two version contents over the union of their keys.
// Missing keys count as null and equal values are left out.
func DiffVersions(a, b *models.SOPVersion) models.VersionDiff {
	labelA := fmt.Sprintf("version%d", a.VersionNumber)
	labelB := fmt.Sprintf("version%d", b.VersionNumber)

	keys := make(map[string]struct{}, len(a.Content)+len(b.Content))
	for k := range a.Content {
		keys[k] = struct{}{}
	}
	for k := range b.Content {
		keys[k] = struct{}{}
	}

	diff := models.VersionDiff{}
	for k := range keys {
		va := a.Content[k]
		vb := b.Content[k]
		if sameValue(va, vb) {
			continue
		}
		diff[k] = map[string]interface{}{labelA: va, labelB: vb}
	}
	return diff
}

// sameValue compares decoded JSON values; numbers compare by value whatever
// their Go type.
func sameValue(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func optionalString(v interface{}) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected type %T", v)
	}
	return &s, nil
}

func optionalInt(v interface{}) (*int, error) {
	if v == nil {
		return nil, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return nil, fmt.Errorf("unexpected type %T", v)
	}
	n := int(f)
	return &n, nil
}
