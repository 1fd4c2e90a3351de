package beam

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reelforge/reelforge/internal/faults"
	"github.com/reelforge/reelforge/internal/poll"
	"github.com/reelforge/reelforge/internal/providers"
)

const (
	imageTimeout       = 2 * time.Minute
	videoSubmitTimeout = 30 * time.Second
	videoPollInterval  = 5 * time.Second
	videoPollTimeout   = 15 * time.Minute
)

// ImageGenerator produces a still image per segment via the SDXL endpoint.
type ImageGenerator struct {
	c *Client
}

// NewImageGenerator creates an image generation provider
func NewImageGenerator(c *Client) *ImageGenerator {
	return &ImageGenerator{c: c}
}

// Name implements providers.Provider.
func (g *ImageGenerator) Name() string {
	return "beam-sdxl"
}

// Execute implements providers.Provider.
func (g *ImageGenerator) Execute(ctx context.Context, req providers.VisualRequest) (providers.VisualResult, error) {
	var resp struct {
		ImageURL string `json:"image_url"`
	}
	err := g.c.post(ctx, "/sdxl", map[string]interface{}{
		"prompt": req.Prompt,
		"width":  1080,
		"height": 1920,
	}, &resp, imageTimeout)
	if err != nil {
		return providers.VisualResult{}, classify(faults.KindImage, err)
	}
	if resp.ImageURL == "" {
		return providers.VisualResult{}, faults.Newf(faults.KindImage, "sdxl returned no image")
	}
	return providers.VisualResult{MediaURL: resp.ImageURL}, nil
}

// VideoGenerator produces a short animated clip per segment. Generation is
// asynchronous on the endpoint side: submit returns a task id which is polled
// until the clip is ready.
type VideoGenerator struct {
	c *Client
}

// NewVideoGenerator creates an animated-video generation provider
func NewVideoGenerator(c *Client) *VideoGenerator {
	return &VideoGenerator{c: c}
}

// Name implements providers.Provider.
func (g *VideoGenerator) Name() string {
	return "beam-hunyuan"
}

// Execute implements providers.Provider.
func (g *VideoGenerator) Execute(ctx context.Context, req providers.VisualRequest) (providers.VisualResult, error) {
	var submit struct {
		TaskID string `json:"task_id"`
	}
	err := g.c.post(ctx, "/hunyuan-video", map[string]interface{}{
		"prompt":           req.Prompt,
		"duration_seconds": req.DurationSeconds,
	}, &submit, videoSubmitTimeout)
	if err != nil {
		return providers.VisualResult{}, classify(faults.KindImage, err)
	}
	if submit.TaskID == "" {
		return providers.VisualResult{}, faults.Newf(faults.KindImage, "video endpoint returned no task id")
	}

	var videoURL string
	done, err := poll.Until(ctx, videoPollInterval, videoPollTimeout, func(ctx context.Context) (bool, error) {
		var status struct {
			Status   string `json:"status"`
			VideoURL string `json:"video_url"`
			Error    string `json:"error"`
		}
		if err := g.c.post(ctx, "/task/"+submit.TaskID, map[string]interface{}{}, &status, videoSubmitTimeout); err != nil {
			return false, err
		}
		switch status.Status {
		case "complete":
			videoURL = status.VideoURL
			return true, nil
		case "error":
			return false, fmt.Errorf("video generation failed: %s", status.Error)
		default:
			return false, nil
		}
	})
	if err != nil {
		return providers.VisualResult{}, classify(faults.KindImage, err)
	}
	if !done {
		return providers.VisualResult{}, faults.Newf(faults.KindImage,
			"video task %s did not finish within %s", submit.TaskID, videoPollTimeout)
	}
	return providers.VisualResult{MediaURL: videoURL}, nil
}

// classify attaches the capability kind, promoting rate-limit responses to
// the quota kind.
func classify(kind faults.Kind, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsRateLimited() {
		return faults.New(faults.KindQuota, err)
	}
	return faults.New(kind, err)
}
