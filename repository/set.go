package repository

import (
	"gorm.io/gorm"

	"sopdesk/logger"
)

// Set bundles every repository together with the transactor they share.
type Set struct {
	Tx            Transactor
	Categories    CategoryRepository
	Tags          TagRepository
	Users         UserRepository
	SOPs          SOPRepository
	Steps         StepRepository
	Versions      VersionRepository
	LearningPaths LearningPathRepository
	Progress      ProgressRepository
}

// NewSet wires the gorm implementations of all repositories to db.
func NewSet(db *gorm.DB, baseLog *logger.Logger) *Set {
	return &Set{
		Tx:            NewTransactor(db),
		Categories:    NewCategoryRepository(db, baseLog),
		Tags:          NewTagRepository(db, baseLog),
		Users:         NewUserRepository(db, baseLog),
		SOPs:          NewSOPRepository(db, baseLog),
		Steps:         NewStepRepository(db, baseLog),
		Versions:      NewVersionRepository(db, baseLog),
		LearningPaths: NewLearningPathRepository(db, baseLog),
		Progress:      NewProgressRepository(db, baseLog),
	}
}
