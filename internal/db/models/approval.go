package models

import (
	"fmt"
	"time"
)

// ApprovalStatus represents the current state of an approval request
type ApprovalStatus string

// Approval status constants
const (
	// ApprovalStatusPending indicates the request is waiting for a decision
	ApprovalStatusPending ApprovalStatus = "pending"
	// ApprovalStatusApproved indicates a human approved the checkpoint
	ApprovalStatusApproved ApprovalStatus = "approved"
	// ApprovalStatusRejected indicates a human rejected the checkpoint
	ApprovalStatusRejected ApprovalStatus = "rejected"
	// ApprovalStatusTimeout indicates no decision arrived within the budget
	ApprovalStatusTimeout ApprovalStatus = "timeout"
)

// Checkpoint names
const (
	// CheckpointScript gates the generated script before voice synthesis
	CheckpointScript = "script"
	// CheckpointVisuals gates the generated visuals before subtitle generation
	CheckpointVisuals = "visuals"
)

// ApprovalRequest is a checkpoint record keyed by (job id, checkpoint name).
type ApprovalRequest struct {
	ID             uint           `json:"id" gorm:"primarykey"`
	JobID          string         `json:"job_id" gorm:"not null;uniqueIndex:idx_approval_key"`
	Checkpoint     string         `json:"checkpoint" gorm:"not null;uniqueIndex:idx_approval_key"`
	TimeoutSeconds int            `json:"timeout_seconds"`
	Status         ApprovalStatus `json:"status" gorm:"not null;index"`
	Summary        string         `json:"summary" gorm:"type:text"`
	Feedback       string         `json:"feedback,omitempty" gorm:"type:text"`
	CreatedAt      time.Time      `json:"created_at" gorm:"index"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty"`
}

// Validate ensures the approval request data is valid
func (a *ApprovalRequest) Validate() error {
	if a.JobID == "" {
		return fmt.Errorf("approval request job id cannot be empty")
	}
	if a.Checkpoint != CheckpointScript && a.Checkpoint != CheckpointVisuals {
		return fmt.Errorf("invalid checkpoint: %s", a.Checkpoint)
	}
	return nil
}
