package models

import "time"

// LearningPath is an ordered curriculum of SOPs.
type LearningPath struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description *string   `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	CreatedByID *uint     `gorm:"index" json:"createdById"`
}

func (LearningPath) TableName() string {
	return "learning_paths"
}

// LearningPathItem places one SOP at a position within a learning path.
type LearningPathItem struct {
	ID             uint `gorm:"primarykey" json:"id"`
	LearningPathID uint `gorm:"not null;uniqueIndex:idx_path_sop" json:"learningPathId"`
	SOPID          uint `gorm:"column:sop_id;not null;uniqueIndex:idx_path_sop;index" json:"sopId"`
	Position       int  `gorm:"not null" json:"position"`
}

func (LearningPathItem) TableName() string {
	return "learning_path_items"
}

func (i *LearningPathItem) SequenceID() uint { return i.ID }
func (i *LearningPathItem) Sequence() int { return i.Position }
func (i *LearningPathItem) SetSequence(n int) { i.Position = n }
