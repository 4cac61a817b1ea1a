package models

import (
	"time"
)

// SOPStatus defines the publication state of a SOP.
type SOPStatus string

const (
	SOPStatusDraft     SOPStatus = "draft"
	SOPStatusPublished SOPStatus = "published"
	SOPStatusReview    SOPStatus = "review"
)

// Valid reports whether s is one of the known statuses.
func (s SOPStatus) Valid() bool {
	switch s {
	case SOPStatusDraft, SOPStatusPublished, SOPStatusReview:
		return true
	}
	return false
}

// SOP is a standard operating procedure. Steps, versions and tags are
// loaded through their repositories by SOP id.
type SOP struct {
	ID            uint       `gorm:"primarykey" json:"id"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Description   string     `gorm:"type:text;not null" json:"description"`
	Summary       *string    `gorm:"type:text" json:"summary"`
	Difficulty    *int       `json:"difficulty"`
	Department    *string    `gorm:"size:100" json:"department"`
	Status        SOPStatus  `gorm:"type:varchar(20);default:'draft';not null;index" json:"status"`
	VersionNumber int        `gorm:"not null;default:1" json:"versionNumber"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     *time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
	CategoryID    uint       `gorm:"index;not null" json:"categoryId"`
	CreatedByID   *uint      `gorm:"index" json:"createdById"`
}

// TableName specifies the table name for the SOP model.
func (SOP) TableName() string {
	return "sops"
}

// SOPTag links a SOP to a tag. The pair is the primary key, so a tag is
// attached to a SOP at most once.
type SOPTag struct {
	SOPID uint `gorm:"column:sop_id;primaryKey;autoIncrement:false"`
	TagID uint `gorm:"primaryKey;autoIncrement:false;index"`
}

func (SOPTag) TableName() string {
	return "sop_tags"
}

// SOPStep is one numbered instruction of a SOP.
type SOPStep struct {
	ID         uint    `gorm:"primarykey" json:"id"`
	SOPID      uint    `gorm:"column:sop_id;index;not null" json:"sopId"`
	StepNumber int     `gorm:"not null" json:"stepNumber"`
	Content    string  `gorm:"type:text;not null" json:"content"`
	Attachment *string `gorm:"size:255" json:"attachment"`
}

func (SOPStep) TableName() string {
	return "sop_steps"
}

func (s *SOPStep) SequenceID() uint { return s.ID }
func (s *SOPStep) Sequence() int { return s.StepNumber }
func (s *SOPStep) SetSequence(n int) { s.StepNumber = n }
