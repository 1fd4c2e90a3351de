package beam

import (
	"context"
	"time"

	"github.com/reelforge/reelforge/internal/faults"
	"github.com/reelforge/reelforge/internal/providers"
)

const musicTimeout = 5 * time.Minute

// MusicGenerator produces an instrumental track from a free-text prompt via
// the musicgen endpoint.
type MusicGenerator struct {
	c *Client
}

// NewMusicGenerator creates a music generation provider
func NewMusicGenerator(c *Client) *MusicGenerator {
	return &MusicGenerator{c: c}
}

// Name implements providers.Provider.
func (g *MusicGenerator) Name() string {
	return "beam-musicgen"
}

// Execute implements providers.Provider. Generated tracks are always
// instrumental; vocals clash with the voiceover.
func (g *MusicGenerator) Execute(ctx context.Context, req providers.MusicRequest) (providers.MusicResult, error) {
	var resp struct {
		AudioURL        string  `json:"audio_url"`
		DurationSeconds float64 `json:"duration_seconds"`
	}
	err := g.c.post(ctx, "/musicgen", map[string]interface{}{
		"prompt":           req.Prompt,
		"duration_seconds": req.DurationSeconds,
		"instrumental":     true,
	}, &resp, musicTimeout)
	if err != nil {
		return providers.MusicResult{}, classify(faults.KindMusic, err)
	}
	if resp.AudioURL == "" {
		return providers.MusicResult{}, faults.Newf(faults.KindMusic, "musicgen returned no audio")
	}
	if resp.DurationSeconds == 0 {
		resp.DurationSeconds = req.DurationSeconds
	}
	return providers.MusicResult{
		AudioURL:        resp.AudioURL,
		DurationSeconds: resp.DurationSeconds,
	}, nil
}
