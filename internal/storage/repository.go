package storage

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Timmy93/MyJDProxy/internal/models"
)

// Repository records accepted package submissions so the history survives
// restarts. The remote service stays the source of truth for live status.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// RecordSubmission persists a submission and returns the stored row.
func (r *Repository) RecordSubmission(name, category, destinationPath string, linkCount int, autoStart bool) (*models.Submission, error) {
	submission := &models.Submission{
		ID:              uuid.NewString(),
		Name:            name,
		Category:        category,
		LinkCount:       linkCount,
		DestinationPath: destinationPath,
		AutoStart:       autoStart,
		CreatedAt:       time.Now(),
	}
	if err := r.db.Create(submission).Error; err != nil {
		return nil, err
	}
	return submission, nil
}

// ListSubmissions returns all submissions, newest first.
func (r *Repository) ListSubmissions() ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.Order("created_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

// RecentSubmissions returns the newest limit submissions.
func (r *Repository) RecentSubmissions(limit int) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.Order("created_at DESC").Limit(limit).Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}
