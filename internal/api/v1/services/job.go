// Package services provides business logic between the HTTP handlers and the
// repositories.
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge/internal/db/models"
	"github.com/reelforge/reelforge/internal/db/repos"
	"github.com/reelforge/reelforge/internal/orchestrator"
)

// JobService provides business logic for job operations
type JobService struct {
	jobs       *repos.JobRepository
	supervisor *orchestrator.Supervisor
}

// NewJobService creates a new job service instance
func NewJobService(jobs *repos.JobRepository, supervisor *orchestrator.Supervisor) *JobService {
	return &JobService{jobs: jobs, supervisor: supervisor}
}

// CreateJob validates and persists a new job, then launches it. The launch
// outlives the request context.
func (s *JobService) CreateJob(ctx context.Context, job *models.Job) (*models.Job, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.Status = models.JobStatusPending

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	s.supervisor.Launch(context.WithoutCancel(ctx), job.ID)
	return job, nil
}

// GetJob retrieves a job by its ID
func (s *JobService) GetJob(ctx context.Context, id string) (*models.Job, error) {
	return s.jobs.GetByID(ctx, id)
}

// ListJobs retrieves a paginated list of jobs
func (s *JobService) ListJobs(ctx context.Context, opts *models.ListOptions) ([]models.Job, error) {
	return s.jobs.List(ctx, opts)
}

// GetLastForRequester retrieves the most recent job submitted by a requester
func (s *JobService) GetLastForRequester(ctx context.Context, requesterID string) (*models.Job, error) {
	return s.jobs.GetLastForRequester(ctx, requesterID)
}

// RetryJob creates a fresh job from the inputs of an existing one. The
// original job is left in place; failed jobs are immutable history.
func (s *JobService) RetryJob(ctx context.Context, id string) (*models.Job, error) {
	source, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("job %s not found", id)
	}

	retry := &models.Job{
		AudioURL:           source.AudioURL,
		Text:               source.Text,
		Promo:              source.Promo,
		MinDurationSeconds: source.MinDurationSeconds,
		MaxDurationSeconds: source.MaxDurationSeconds,
		RequesterID:        source.RequesterID,
		ChatID:             source.ChatID,
		CallbackURL:        source.CallbackURL,
		ForcedMode:         source.ForcedMode,
		TargetLanguage:     source.TargetLanguage,
		Voice:              source.Voice,
	}
	return s.CreateJob(ctx, retry)
}

// SalvageRequest carries operator-recovered artifact URLs for a stuck or
// failed job. Only the fields that were recovered need to be set.
type SalvageRequest struct {
	VoiceoverURL      string         `json:"voiceover_url,omitempty"`
	MusicURL          string         `json:"music_url,omitempty"`
	SegmentVisualURLs map[int]string `json:"segment_visual_urls,omitempty"`
	VideoURL          string         `json:"video_url,omitempty"`
}

// SalvageJob attaches recovered media to a job and rewinds it to manifest
// assembly so the remaining steps re-run against the recovered artifacts.
// This covers async provider tasks that finished after the job gave up on
// them.
func (s *JobService) SalvageJob(ctx context.Context, id string, req SalvageRequest) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("job %s not found", id)
	}
	if job.Status == models.JobStatusCompleted {
		return nil, fmt.Errorf("job %s already completed", id)
	}

	if req.VoiceoverURL != "" {
		job.VoiceoverURL = req.VoiceoverURL
	}
	if req.MusicURL != "" {
		job.MusicURL = req.MusicURL
	}
	for index, url := range req.SegmentVisualURLs {
		if index < 0 || index >= len(job.Segments) {
			return nil, fmt.Errorf("segment index %d out of range for job %s", index, id)
		}
		job.Segments[index].VisualURL = url
	}
	job.VideoURL = req.VideoURL
	job.Manifest = nil

	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, err
	}
	if err := s.jobs.ForceStatus(ctx, id, models.JobStatusBuildingManifest); err != nil {
		return nil, err
	}
	job.Status = models.JobStatusBuildingManifest
	job.Error = ""
	s.supervisor.Launch(context.WithoutCancel(ctx), id)
	return job, nil
}
