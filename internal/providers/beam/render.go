package beam

import (
	"context"
	"time"

	"github.com/reelforge/reelforge/internal/db/models"
	"github.com/reelforge/reelforge/internal/faults"
	"github.com/reelforge/reelforge/internal/providers"
)

const renderTimeout = 10 * time.Minute

// Renderer composes the final video via the ffmpeg render endpoint.
type Renderer struct {
	c    *Client
	path string
}

// NewRenderer creates a rendering provider. path selects the endpoint
// revision, defaulting to the current one.
func NewRenderer(c *Client, path string) *Renderer {
	if path == "" {
		path = "/ffmpeg-render"
	}
	return &Renderer{c: c, path: path}
}

// Name implements providers.Provider.
func (r *Renderer) Name() string {
	return "beam-ffmpeg" + r.path
}

// Execute implements providers.Provider.
func (r *Renderer) Execute(ctx context.Context, manifest *models.RenderManifest) (providers.RenderResult, error) {
	var resp struct {
		VideoURL        string  `json:"video_url"`
		DurationSeconds float64 `json:"duration_seconds"`
	}
	if err := r.c.post(ctx, r.path, manifest, &resp, renderTimeout); err != nil {
		return providers.RenderResult{}, classify(faults.KindRender, err)
	}
	if resp.VideoURL == "" {
		return providers.RenderResult{}, faults.Newf(faults.KindRender, "render endpoint returned no video")
	}
	return providers.RenderResult{
		VideoURL:        resp.VideoURL,
		DurationSeconds: resp.DurationSeconds,
	}, nil
}
