package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/reelforge/reelforge/internal/db/models"
)

// JobRepository provides access to job-related database operations
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository instance
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create creates a new job in the database
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		return fmt.Errorf("job id cannot be empty")
	}
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid job: %w", err)
	}
	return r.db.WithContext(ctx).Create(job).Error
}

// GetByID retrieves a job by its ID. Returns nil when no record is found.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).Where(&models.Job{ID: id}).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// Update saves the full job record
func (r *JobRepository) Update(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// Patch applies a partial field update to a single job record. The write is an
// atomic single-row UPDATE and refreshes updated_at.
func (r *JobRepository) Patch(ctx context.Context, id string, fields map[string]interface{}) (*models.Job, error) {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where(&models.Job{ID: id}).
		Updates(fields)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to patch job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	return r.GetByID(ctx, id)
}

// AdvanceStatus moves a job forward through the status sequence. A transition
// to an earlier status is rejected; use ForceStatus for salvage.
func (r *JobRepository) AdvanceStatus(ctx context.Context, id string, status models.JobStatus) error {
	job, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job not found: %s", id)
	}
	if status.Order() < job.Status.Order() {
		return fmt.Errorf("cannot move job %s from %s back to %s", id, job.Status, status)
	}
	_, err = r.Patch(ctx, id, map[string]interface{}{"status": status})
	return err
}

// ForceStatus rewrites a job's status unconditionally. Reserved for the manual
// salvage operation.
func (r *JobRepository) ForceStatus(ctx context.Context, id string, status models.JobStatus) error {
	_, err := r.Patch(ctx, id, map[string]interface{}{"status": status, "error": ""})
	return err
}

// List returns jobs ordered by creation time, newest first
func (r *JobRepository) List(ctx context.Context, opts *models.ListOptions) ([]models.Job, error) {
	limit := models.DefaultLimit
	offset := 0
	if opts != nil {
		if opts.Limit > 0 {
			limit = opts.Limit
		}
		offset = opts.Offset
	}
	var jobs []models.Job
	err := r.db.WithContext(ctx).Model(&models.Job{}).
		Limit(limit).Offset(offset).
		Order("created_at DESC").
		Find(&jobs).Error
	return jobs, err
}

// ListUnfinished returns all jobs whose status is not terminal. Used by the
// resume supervisor on process start.
func (r *JobRepository) ListUnfinished(ctx context.Context) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.WithContext(ctx).
		Where("status NOT IN ?", []string{
			models.JobStatusCompleted.String(),
			models.JobStatusFailed.String(),
		}).
		Order("created_at ASC").
		Find(&jobs).Error
	return jobs, err
}

// GetLastForRequester retrieves the most recent job created by a requester.
// Returns nil when the requester has no jobs.
func (r *JobRepository) GetLastForRequester(ctx context.Context, requesterID string) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).
		Where(&models.Job{RequesterID: requesterID}).
		Order("created_at DESC").
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last job for requester: %w", err)
	}
	return &job, nil
}
