package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/reelforge/reelforge/internal/db/models"
	"github.com/reelforge/reelforge/internal/logger"
)

const (
	webhookTimeout = 10 * time.Second

	// captionTruncateLen bounds captions derived from long transcripts.
	captionTruncateLen = 180

	genericCaption = "Your video is ready!"
)

// WebhookPayload is the JSON contract POSTed to a job's callback URL on every
// terminal transition.
type WebhookPayload struct {
	JobID    string          `json:"jobId"`
	Status   string          `json:"status"`
	Caption  string          `json:"caption"`
	Hashtags []string        `json:"hashtags"`
	Metadata WebhookMetadata `json:"metadata"`

	// The video URL is repeated under three aliases for downstream consumer
	// compatibility.
	VideoURLSnake string `json:"video_url,omitempty"`
	URL           string `json:"url,omitempty"`
	VideoURL      string `json:"videoUrl,omitempty"`

	Error string `json:"error,omitempty"`
}

// WebhookMetadata carries timing details of the finished job.
type WebhookMetadata struct {
	Duration    float64   `json:"duration"`
	CreatedAt   time.Time `json:"createdAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// Webhook delivers terminal-state payloads to callback URLs.
type Webhook struct {
	httpc *http.Client
}

// NewWebhook creates a webhook sender.
func NewWebhook() *Webhook {
	return &Webhook{httpc: &http.Client{Timeout: webhookTimeout}}
}

// Notify POSTs the terminal payload for job. Failures are logged, never
// returned: the generation work is already done.
func (w *Webhook) Notify(ctx context.Context, job *models.Job) {
	if job.CallbackURL == "" {
		return
	}

	payload := BuildPayload(job)
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Errorf("Failed to marshal webhook payload for job %s: %v", job.ID, err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, job.CallbackURL, bytes.NewBuffer(body))
	if err != nil {
		logger.Errorf("Failed to create webhook request for job %s: %v", job.ID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpc.Do(req)
	if err != nil {
		logger.Warnf("Webhook delivery failed for job %s: %v", job.ID, err)
		return
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= http.StatusBadRequest {
		logger.Warnf("Webhook for job %s returned status %d", job.ID, resp.StatusCode)
		return
	}
	logger.Infof("Webhook delivered for job %s (%s)", job.ID, job.Status)
}

// BuildPayload assembles the webhook body for a terminal job.
func BuildPayload(job *models.Job) WebhookPayload {
	payload := WebhookPayload{
		JobID:   job.ID,
		Status:  job.Status.String(),
		Caption: ResolveCaption(job),
		Metadata: WebhookMetadata{
			CreatedAt:   job.CreatedAt,
			CompletedAt: job.UpdatedAt,
		},
	}
	if job.Plan != nil {
		payload.Hashtags = job.Plan.Hashtags
		payload.Metadata.Duration = job.Plan.TargetDurationSeconds
	}
	if payload.Hashtags == nil {
		payload.Hashtags = []string{}
	}
	if job.Status == models.JobStatusCompleted {
		payload.VideoURLSnake = job.VideoURL
		payload.URL = job.VideoURL
		payload.VideoURL = job.VideoURL
	}
	if job.Status == models.JobStatusFailed {
		payload.Error = job.Error
	}
	return payload
}

// ResolveCaption picks the first non-empty caption source: the plan caption,
// the first segment's caption, the transcript, the concatenated narration,
// then a fixed generic string.
func ResolveCaption(job *models.Job) string {
	if job.Plan != nil && strings.TrimSpace(job.Plan.Caption) != "" {
		return job.Plan.Caption
	}
	if len(job.Segments) > 0 && strings.TrimSpace(job.Segments[0].Caption) != "" {
		return job.Segments[0].Caption
	}
	if strings.TrimSpace(job.Transcript) != "" {
		return truncate(job.Transcript, captionTruncateLen)
	}
	var narrations []string
	for _, seg := range job.Segments {
		if strings.TrimSpace(seg.Narration) != "" {
			narrations = append(narrations, seg.Narration)
		}
	}
	if len(narrations) > 0 {
		return truncate(strings.Join(narrations, " "), captionTruncateLen)
	}
	return genericCaption
}

// truncate caps s at max bytes, backing up to a rune boundary so multi-byte
// text is never cut mid-rune.
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return fmt.Sprintf("%s...", strings.TrimSpace(s[:max]))
}
