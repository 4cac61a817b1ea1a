package services

import (
	"math"
	"time"

	"sopdesk/models"
)

// CompletionRate returns completed/total as a percentage rounded to one
// decimal place, or 0 when total is 0.
func CompletionRate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*1000) / 10
}

// Summarize counts records by status.
func Summarize(records []*models.UserProgress) models.ProgressSummary {
	var stats models.ProgressStats
	for _, r := range records {
		stats.Total++
		switch r.Status {
		case models.ProgressCompleted:
			stats.Completed++
		case models.ProgressInProgress:
			stats.InProgress++
		case models.ProgressNotStarted:
			stats.NotStarted++
		}
	}
	return models.ProgressSummary{Stats: stats, CompletionRate: CompletionRate(stats.Completed, stats.Total)}
}

// Dashboard aggregates every record in one pass.
func Dashboard(records []*models.UserProgress) models.ProgressDashboard {
	users := make(map[uint]struct{})
	sops := make(map[uint]struct{})
	var dashboard models.ProgressDashboard
	for _, r := range records {
		users[r.UserID] = struct{}{}
		sops[r.SOPID] = struct{}{}
		switch r.Status {
		case models.ProgressCompleted:
			dashboard.CompletedCount++
		case models.ProgressInProgress:
			dashboard.InProgressCount++
		case models.ProgressNotStarted:
			dashboard.NotStartedCount++
		}
	}
	dashboard.TotalUsers = len(users)
	dashboard.TotalSops = len(sops)
	dashboard.OverallCompletionRate = CompletionRate(dashboard.CompletedCount, len(records))
	return dashboard
}

// ApplyStatus sets the status and keeps CompletedAt in step with it.
func ApplyStatus(p *models.UserProgress, status models.ProgressStatus, now time.Time) {
	p.Status = status
	if status == models.ProgressCompleted {
		p.CompletedAt = &now
		return
	}
	p.CompletedAt = nil
}
