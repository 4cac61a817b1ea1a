package models

import "time"

// ProgressStatus defines how far a user got through a SOP.
type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not_started"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
)

func (s ProgressStatus) Valid() bool {
	switch s {
	case ProgressNotStarted, ProgressInProgress, ProgressCompleted:
		return true
	}
	return false
}

// UserProgress tracks one user's state on one SOP. CompletedAt is set iff
// Status is completed.
type UserProgress struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	UserID      uint           `gorm:"not null;uniqueIndex:idx_progress_user_sop" json:"userId"`
	SOPID       uint           `gorm:"column:sop_id;not null;uniqueIndex:idx_progress_user_sop;index" json:"sopId"`
	Status      ProgressStatus `gorm:"type:varchar(20);default:'not_started';not null" json:"status"`
	CompletedAt *time.Time     `json:"completedAt"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}

// ProgressStats counts progress records by status.
type ProgressStats struct {
	Total      int `json:"total"`
	NotStarted int `json:"notStarted"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
}

// ProgressSummary is the statistics block for one user or one SOP.
type ProgressSummary struct {
	Stats          ProgressStats `json:"stats"`
	CompletionRate float64       `json:"completionRate"`
}

// ProgressDashboard aggregates every progress record in the store.
type ProgressDashboard struct {
	TotalUsers            int     `json:"totalUsers"`
	TotalSops             int     `json:"totalSops"`
	CompletedCount        int     `json:"completedCount"`
	InProgressCount       int     `json:"inProgressCount"`
	NotStartedCount       int     `json:"notStartedCount"`
	OverallCompletionRate float64 `json:"overallCompletionRate"`
}
