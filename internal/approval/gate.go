// Package approval implements the human-review checkpoint gate that can
// suspend a pipeline until a decision arrives or a bounded wait elapses.
package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/reelforge/reelforge/internal/db/models"
	"github.com/reelforge/reelforge/internal/db/repos"
	"github.com/reelforge/reelforge/internal/logger"
	"github.com/reelforge/reelforge/internal/notify"
	"github.com/reelforge/reelforge/internal/poll"
)

// Decision reasons
const (
	// ReasonNoChannel means no review channel was configured; fast approval
	ReasonNoChannel = "no-channel"
	// ReasonDecision means a human resolved the checkpoint
	ReasonDecision = "decision"
	// ReasonTimeout means the wait budget elapsed; fail-open approval
	ReasonTimeout = "timeout"
)

// checkpointTimeouts holds the per-checkpoint wait budget.
var checkpointTimeouts = map[string]time.Duration{
	models.CheckpointScript:  60 * time.Second,
	models.CheckpointVisuals: 120 * time.Second,
}

const pollInterval = time.Second

// Decision is the gate's verdict for a checkpoint.
type Decision struct {
	Approved bool
	Reason   string
	Feedback string
}

// Gate suspends pipelines at named checkpoints and resolves them through
// external decisions or timeouts.
type Gate struct {
	approvals *repos.ApprovalRepository
	channel   notify.Channel
}

// NewGate creates an approval gate. channel may be nil when no review channel
// exists at all.
func NewGate(approvals *repos.ApprovalRepository, channel notify.Channel) *Gate {
	return &Gate{approvals: approvals, channel: channel}
}

// RequestApproval creates a pending record, notifies the reviewer, and waits
// for a decision. Jobs without a review channel address are approved
// immediately: API-initiated jobs skip human review. A timeout is treated as
// approval so a silent reviewer never blocks a job.
func (g *Gate) RequestApproval(ctx context.Context, jobID, channelAddress, checkpoint, summary string) (Decision, error) {
	if channelAddress == "" || g.channel == nil {
		return Decision{Approved: true, Reason: ReasonNoChannel}, nil
	}

	timeout, ok := checkpointTimeouts[checkpoint]
	if !ok {
		return Decision{}, fmt.Errorf("unknown checkpoint: %s", checkpoint)
	}

	record := &models.ApprovalRequest{
		JobID:          jobID,
		Checkpoint:     checkpoint,
		TimeoutSeconds: int(timeout.Seconds()),
		Status:         models.ApprovalStatusPending,
		Summary:        summary,
	}
	if err := g.approvals.CreateOrReplace(ctx, record); err != nil {
		return Decision{}, fmt.Errorf("failed to create approval request: %w", err)
	}

	msg := fmt.Sprintf("Review requested (%s) for job %s, auto-approves in %s:\n%s",
		checkpoint, jobID, timeout, summary)
	if err := g.channel.Send(ctx, channelAddress, msg); err != nil {
		logger.Warnf("Failed to send approval summary for job %s: %v", jobID, err)
	}

	var resolved *models.ApprovalRequest
	done, err := poll.Until(ctx, pollInterval, timeout, func(ctx context.Context) (bool, error) {
		current, err := g.approvals.Get(ctx, jobID, checkpoint)
		if err != nil {
			return false, err
		}
		if current == nil || current.Status == models.ApprovalStatusPending {
			return false, nil
		}
		resolved = current
		return true, nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("approval wait failed: %w", err)
	}

	if done {
		return Decision{
			Approved: resolved.Status == models.ApprovalStatusApproved,
			Reason:   ReasonDecision,
			Feedback: resolved.Feedback,
		}, nil
	}

	// The budget elapsed: record the timeout and fail open. The conditional
	// resolve keeps a racing human decision authoritative.
	marked, err := g.approvals.Resolve(ctx, jobID, checkpoint, models.ApprovalStatusTimeout, "")
	if err != nil {
		logger.Warnf("Failed to mark approval timeout for job %s: %v", jobID, err)
	}
	if !marked {
		// A decision landed between the last poll and the timeout write.
		if current, err := g.approvals.Get(ctx, jobID, checkpoint); err == nil && current != nil {
			return Decision{
				Approved: current.Status != models.ApprovalStatusRejected,
				Reason:   ReasonDecision,
				Feedback: current.Feedback,
			}, nil
		}
	}
	return Decision{Approved: true, Reason: ReasonTimeout}, nil
}

// HandleDecision resolves a pending checkpoint exactly once. Decisions for
// unknown or already-resolved checkpoints are no-ops returning false.
func (g *Gate) HandleDecision(ctx context.Context, jobID, checkpoint string, approved bool, feedback string) bool {
	status := models.ApprovalStatusRejected
	if approved {
		status = models.ApprovalStatusApproved
	}
	ok, err := g.approvals.Resolve(ctx, jobID, checkpoint, status, feedback)
	if err != nil {
		logger.Errorf("Failed to resolve approval %s/%s: %v", jobID, checkpoint, err)
		return false
	}
	return ok
}
