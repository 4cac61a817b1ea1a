package models

import "time"

// NamedRef is the short form of a related category, tag or user.
type NamedRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// SOPBrief is the short form of a SOP embedded in other records.
type SOPBrief struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Difficulty  *int      `json:"difficulty"`
	Status      SOPStatus `json:"status,omitempty"`
}

// SOPRecord is a SOP with its category, author and tags resolved.
type SOPRecord struct {
	SOP
	Category  *NamedRef  `json:"category"`
	CreatedBy *NamedRef  `json:"createdBy"`
	Tags      []NamedRef `json:"tags"`
}

// SOPDetail adds the ordered steps and the number of stored versions.
type SOPDetail struct {
	SOPRecord
	Steps         []SOPStep `json:"steps"`
	VersionsCount int64     `json:"versionsCount"`
}

type VersionHeader struct {
	ID            uint      `json:"id"`
	VersionNumber int       `json:"versionNumber"`
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     *NamedRef `json:"createdBy"`
}

type VersionDetail struct {
	VersionHeader
	Content map[string]interface{} `json:"content"`
}

// VersionDiff maps a field name to {"version<N>": value} for both sides.
type VersionDiff map[string]map[string]interface{}

type VersionComparison struct {
	Version1    VersionHeader `json:"version1"`
	Version2    VersionHeader `json:"version2"`
	Differences VersionDiff   `json:"differences"`
}

// RestoreResult reports the version a SOP was restored from.
type RestoreResult struct {
	RestoredVersion  int `json:"restoredVersion"`
	NewVersionNumber int `json:"newVersionNumber"`
}

type CategoryRecord struct {
	Category
	SOPsCount int64 `json:"sopsCount"`
}

type TagRecord struct {
	Tag
	SOPsCount int64 `json:"sopsCount"`
}

type LearningPathSummary struct {
	LearningPath
	CreatedBy *NamedRef `json:"createdBy"`
	SOPCount  int64     `json:"sopCount"`
}

type PathItemRecord struct {
	ID       uint      `json:"id"`
	Position int       `json:"position"`
	SOP      *SOPBrief `json:"sop"`
}

type LearningPathDetail struct {
	LearningPath
	CreatedBy *NamedRef        `json:"createdBy"`
	Items     []PathItemRecord `json:"items"`
}

// ProgressEntry is one progress record; SOP is set in per-user reports and
// User in per-SOP reports.
type ProgressEntry struct {
	ID          uint           `json:"id"`
	Status      ProgressStatus `json:"status"`
	CompletedAt *time.Time     `json:"completedAt"`
	SOP         *SOPBrief      `json:"sop,omitempty"`
	User        *NamedRef      `json:"user,omitempty"`
}

type UserProgressReport struct {
	User NamedRef `json:"user"`
	ProgressSummary
	Progress []ProgressEntry `json:"progress"`
}

type SOPProgressReport struct {
	SOP SOPBrief `json:"sop"`
	ProgressSummary
	Progress []ProgressEntry `json:"progress"`
}
