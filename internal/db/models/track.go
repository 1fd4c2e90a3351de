package models

import "time"

// Track is one music catalog entry.
type Track struct {
	ID              uint      `json:"id" gorm:"primarykey"`
	Title           string    `json:"title" gorm:"not null"`
	URL             string    `json:"url" gorm:"not null;type:text"`
	DurationSeconds float64   `json:"duration_seconds"`
	Tags            []string  `json:"tags" gorm:"type:jsonb;serializer:json"`
	AIGenerated     bool      `json:"ai_generated" gorm:"not null;default:false"`
	CreatedAt       time.Time `json:"created_at"`
}
