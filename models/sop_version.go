package models

import (
	"time"

	"gorm.io/datatypes"
)

// Version content keys. A SOP field missing from this list is not versioned.
const (
	VersionFieldTitle       = "title"
	VersionFieldDescription = "description"
	VersionFieldSummary     = "summary"
	VersionFieldDifficulty  = "difficulty"
	VersionFieldDepartment  = "department"
	VersionFieldStatus      = "status"
)

// VersionedFields lists the SOP fields captured by every snapshot.
var VersionedFields = []string{
	VersionFieldTitle,
	VersionFieldDescription,
	VersionFieldSummary,
	VersionFieldDifficulty,
	VersionFieldDepartment,
	VersionFieldStatus,
}

// SOPVersion is an immutable snapshot of a SOP's editable fields, tagged
// with the version number it superseded.
type SOPVersion struct {
	ID            uint              `gorm:"primarykey" json:"id"`
	SOPID         uint              `gorm:"column:sop_id;index;not null" json:"sopId"`
	VersionNumber int               `gorm:"not null" json:"versionNumber"`
	Content       datatypes.JSONMap `json:"content"`
	CreatedAt     time.Time         `json:"createdAt"`
	CreatedByID   *uint             `json:"createdById"`
}

func (SOPVersion) TableName() string {
	return "sop_versions"
}
