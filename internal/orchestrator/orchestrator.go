// Package orchestrator owns the end-to-end lifecycle of a job: it selects the
// pipeline variant, runs it, promotes the finished video to durable storage,
// and delivers terminal notifications exactly once.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/reelforge/reelforge/internal/db/models"
	"github.com/reelforge/reelforge/internal/db/repos"
	"github.com/reelforge/reelforge/internal/faults"
	"github.com/reelforge/reelforge/internal/logger"
	"github.com/reelforge/reelforge/internal/notify"
	"github.com/reelforge/reelforge/internal/pipeline"
	"github.com/reelforge/reelforge/internal/providers/storage"
)

// Orchestrator runs jobs to a terminal state.
type Orchestrator struct {
	jobs     *repos.JobRepository
	deps     *pipeline.Deps
	uploader storage.Uploader // optional
	webhook  *notify.Webhook
	channel  notify.Channel // optional
}

// New creates an orchestrator. uploader and channel may be nil; webhook must
// not be.
func New(jobs *repos.JobRepository, deps *pipeline.Deps, uploader storage.Uploader,
	webhook *notify.Webhook, channel notify.Channel) *Orchestrator {
	return &Orchestrator{
		jobs:     jobs,
		deps:     deps,
		uploader: uploader,
		webhook:  webhook,
		channel:  channel,
	}
}

// ProcessJob drives the job with the given ID to completion or failure.
// Terminal jobs are left untouched, which keeps restarts and duplicate
// submissions from re-running work or re-firing notifications.
func (o *Orchestrator) ProcessJob(ctx context.Context, jobID string) error {
	job, err := o.jobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job == nil {
		return fmt.Errorf("job %s not found", jobID)
	}
	if job.Terminal() {
		logger.Infof("Job %s already %s, nothing to do", job.ID, job.Status)
		return nil
	}

	engine := pipeline.NewStandard(o.deps)
	if job.Promo != nil {
		engine = pipeline.NewPromo(o.deps)
	}

	if err := engine.Run(ctx, job); err != nil {
		o.fail(ctx, job, err)
		return err
	}

	o.promote(ctx, job)

	if err := o.jobs.AdvanceStatus(ctx, job.ID, models.JobStatusCompleted); err != nil {
		return fmt.Errorf("failed to complete job %s: %w", job.ID, err)
	}
	job.Status = models.JobStatusCompleted
	logger.InfoWithFields("Job completed", map[string]interface{}{
		"job_id":    job.ID,
		"video_url": job.VideoURL,
	})

	o.webhook.Notify(ctx, job)
	if o.channel != nil && job.ChatID != "" {
		msg := fmt.Sprintf("Your video is ready!\n%s", job.VideoURL)
		if err := o.channel.Send(ctx, job.ChatID, msg); err != nil {
			logger.Warnf("Failed to notify chat %s for job %s: %v", job.ChatID, job.ID, err)
		}
	}
	return nil
}

// promote copies the rendered video to durable storage. Promotion is
// best-effort: the render host's URL still works if the copy fails.
func (o *Orchestrator) promote(ctx context.Context, job *models.Job) {
	if o.uploader == nil || job.VideoURL == "" {
		return
	}
	if err := o.jobs.AdvanceStatus(ctx, job.ID, models.JobStatusUploading); err != nil {
		logger.Warnf("Failed to mark job %s uploading: %v", job.ID, err)
		return
	}
	job.Status = models.JobStatusUploading

	key := fmt.Sprintf("jobs/%s/video.mp4", job.ID)
	durable, err := o.uploader.Upload(ctx, job.VideoURL, key)
	if err != nil {
		logger.Warnf("Storage promotion failed for job %s, keeping render URL: %v", job.ID, err)
		return
	}
	job.VideoURL = durable
	if err := o.jobs.Update(ctx, job); err != nil {
		logger.Warnf("Failed to persist durable URL for job %s: %v", job.ID, err)
	}
}

// fail records the raw error on the job, marks it failed, and sends the
// user-facing message derived from the failure kind.
func (o *Orchestrator) fail(ctx context.Context, job *models.Job, cause error) {
	logger.ErrorWithFields("Job failed", map[string]interface{}{
		"job_id": job.ID,
		"status": job.Status.String(),
		"kind":   string(faults.KindOf(cause)),
		"error":  cause.Error(),
	})

	if _, err := o.jobs.Patch(ctx, job.ID, map[string]interface{}{
		"status": models.JobStatusFailed,
		"error":  cause.Error(),
	}); err != nil {
		logger.Errorf("Failed to mark job %s failed: %v", job.ID, err)
	}
	job.Status = models.JobStatusFailed
	job.Error = cause.Error()

	o.webhook.Notify(ctx, job)
	if o.channel != nil && job.ChatID != "" {
		if err := o.channel.Send(ctx, job.ChatID, faults.UserMessage(cause)); err != nil {
			logger.Warnf("Failed to notify chat %s for job %s: %v", job.ChatID, job.ID, err)
		}
	}
}
