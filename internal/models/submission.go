package models

import (
	"time"
)

// Submission is the persisted record of an accepted package submission.
type Submission struct {
	ID              string    `gorm:"primaryKey" json:"id"`
	Name            string    `json:"name"`
	Category        string    `json:"category"`
	LinkCount       int       `json:"link_count"`
	DestinationPath string    `json:"destination_path"`
	AutoStart       bool      `json:"auto_start"`
	CreatedAt       time.Time `json:"created_at"`
}
