package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/reelforge/reelforge/internal/db/models"
)

// ApprovalRepository provides access to approval checkpoint records
type ApprovalRepository struct {
	db *gorm.DB
}

// NewApprovalRepository creates a new approval repository instance
func NewApprovalRepository(db *gorm.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// CreateOrReplace stores a new approval request, replacing any prior record
// for the same (job id, checkpoint) key. At most one record exists per key.
func (r *ApprovalRepository) CreateOrReplace(ctx context.Context, req *models.ApprovalRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid approval request: %w", err)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&models.ApprovalRequest{
			JobID:      req.JobID,
			Checkpoint: req.Checkpoint,
		}).Delete(&models.ApprovalRequest{}).Error; err != nil {
			return err
		}
		return tx.Create(req).Error
	})
}

// Get retrieves the approval record for a (job id, checkpoint) key.
// Returns nil when no record is found.
func (r *ApprovalRepository) Get(ctx context.Context, jobID, checkpoint string) (*models.ApprovalRequest, error) {
	var req models.ApprovalRequest
	err := r.db.WithContext(ctx).Where(&models.ApprovalRequest{
		JobID:      jobID,
		Checkpoint: checkpoint,
	}).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get approval request: %w", err)
	}
	return &req, nil
}

// Resolve moves a pending record to a terminal status. The conditional UPDATE
// guarantees first-resolution-wins: it reports false when the record is
// missing or already resolved.
func (r *ApprovalRepository) Resolve(ctx context.Context, jobID, checkpoint string, status models.ApprovalStatus, feedback string) (bool, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.ApprovalRequest{}).
		Where("job_id = ? AND checkpoint = ? AND status = ?",
			jobID, checkpoint, models.ApprovalStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"feedback":    feedback,
			"resolved_at": &now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to resolve approval request: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// GC deletes approval records older than the retention window, regardless of
// outcome. Returns the number of rows removed.
func (r *ApprovalRepository) GC(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.ApprovalRequest{})
	return res.RowsAffected, res.Error
}
