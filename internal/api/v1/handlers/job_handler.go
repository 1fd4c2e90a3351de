package handlers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/reelforge/reelforge/internal/api/v1/services"
	"github.com/reelforge/reelforge/internal/db/models"
)

// CreateJobRequest is the body of POST /jobs.
type CreateJobRequest struct {
	AudioURL           string               `json:"audio_url,omitempty"`
	Text               string               `json:"text,omitempty"`
	Promo              *models.PromoRequest `json:"promo,omitempty"`
	MinDurationSeconds int                  `json:"min_duration_seconds"`
	MaxDurationSeconds int                  `json:"max_duration_seconds"`
	RequesterID        string               `json:"requester_id,omitempty"`
	ChatID             string               `json:"chat_id,omitempty"`
	CallbackURL        string               `json:"callback_url,omitempty"`
	ForcedMode         string               `json:"forced_mode,omitempty"`
	TargetLanguage     string               `json:"target_language,omitempty"`
	Voice              string               `json:"voice,omitempty"`
}

// JobHandler exposes job operations over HTTP
type JobHandler struct {
	jobService *services.JobService
}

// NewJobHandler creates a new job handler instance
func NewJobHandler(jobService *services.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

// CreateJob accepts a new generation request and launches it
func (h *JobHandler) CreateJob(c *fiber.Ctx) error {
	var req CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput(fmt.Sprintf("invalid request body: %v", err)))
	}

	job := &models.Job{
		AudioURL:           req.AudioURL,
		Text:               req.Text,
		Promo:              req.Promo,
		MinDurationSeconds: req.MinDurationSeconds,
		MaxDurationSeconds: req.MaxDurationSeconds,
		RequesterID:        req.RequesterID,
		ChatID:             req.ChatID,
		CallbackURL:        req.CallbackURL,
		ForcedMode:         models.ContentMode(req.ForcedMode),
		TargetLanguage:     req.TargetLanguage,
		Voice:              req.Voice,
	}

	created, err := h.jobService.CreateJob(c.Context(), job)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}
	return c.Status(fiber.StatusCreated).JSON(success(created))
}

// GetJob returns one job by ID
func (h *JobHandler) GetJob(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput("job id is required"))
	}

	job, err := h.jobService.GetJob(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(fmt.Sprintf("failed to get job: %v", err)))
	}
	if job == nil {
		return c.Status(fiber.StatusNotFound).JSON(errNotFound(fmt.Sprintf("job %s not found", id)))
	}
	return c.JSON(success(job))
}

// ListJobs returns a paginated list of jobs
func (h *JobHandler) ListJobs(c *fiber.Ctx) error {
	opts := &models.ListOptions{Limit: models.DefaultLimit}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput("limit must be a positive integer"))
		}
		opts.Limit = n
	}
	if offset := c.Query("offset"); offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput("offset must be a non-negative integer"))
		}
		opts.Offset = n
	}

	jobs, err := h.jobService.ListJobs(c.Context(), opts)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(fmt.Sprintf("failed to list jobs: %v", err)))
	}
	return c.JSON(success(jobs))
}

// GetLastForRequester returns a requester's most recent job
func (h *JobHandler) GetLastForRequester(c *fiber.Ctx) error {
	requesterID := c.Params("id")
	if requesterID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput("requester id is required"))
	}

	job, err := h.jobService.GetLastForRequester(c.Context(), requesterID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(fmt.Sprintf("failed to get last job: %v", err)))
	}
	if job == nil {
		return c.Status(fiber.StatusNotFound).
			JSON(errNotFound(fmt.Sprintf("no jobs for requester %s", requesterID)))
	}
	return c.JSON(success(job))
}

// RetryJob creates a fresh job from an existing job's inputs
func (h *JobHandler) RetryJob(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput("job id is required"))
	}

	job, err := h.jobService.RetryJob(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}
	return c.Status(fiber.StatusCreated).JSON(success(job))
}

// SalvageJob attaches recovered media to a job and re-runs its tail
func (h *JobHandler) SalvageJob(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput("job id is required"))
	}

	var req services.SalvageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput(fmt.Sprintf("invalid request body: %v", err)))
	}

	job, err := h.jobService.SalvageJob(c.Context(), id, req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}
	return c.JSON(success(job))
}
