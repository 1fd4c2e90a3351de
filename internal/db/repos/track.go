package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/reelforge/reelforge/internal/db/models"
)

// TrackRepository provides access to the internal music catalog
type TrackRepository struct {
	db *gorm.DB
}

// NewTrackRepository creates a new track repository instance
func NewTrackRepository(db *gorm.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create adds a track to the catalog
func (r *TrackRepository) Create(ctx context.Context, track *models.Track) error {
	if track.URL == "" {
		return fmt.Errorf("track url cannot be empty")
	}
	return r.db.WithContext(ctx).Create(track).Error
}

// List returns the whole catalog in insertion order. Tag matching happens in
// the selection engine; catalogs are small enough to filter in memory.
func (r *TrackRepository) List(ctx context.Context) ([]models.Track, error) {
	var tracks []models.Track
	err := r.db.WithContext(ctx).Order("id ASC").Find(&tracks).Error
	return tracks, err
}

// ListByDurationWindow returns tracks whose duration falls inside [min, max].
func (r *TrackRepository) ListByDurationWindow(ctx context.Context, min, max float64) ([]models.Track, error) {
	var tracks []models.Track
	err := r.db.WithContext(ctx).
		Where("duration_seconds >= ? AND duration_seconds <= ?", min, max).
		Order("id ASC").
		Find(&tracks).Error
	return tracks, err
}

// Any returns a single track from the catalog, or nil when the catalog is empty.
func (r *TrackRepository) Any(ctx context.Context) (*models.Track, error) {
	var track models.Track
	err := r.db.WithContext(ctx).Order("id ASC").First(&track).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track: %w", err)
	}
	return &track, nil
}
