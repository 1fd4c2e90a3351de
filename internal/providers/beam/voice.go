package beam

import (
	"context"
	"time"

	"github.com/reelforge/reelforge/internal/faults"
	"github.com/reelforge/reelforge/internal/providers"
)

const voiceTimeout = 2 * time.Minute

// VoiceSynthesizer is the fallback tier behind the OpenAI text-to-speech
// provider.
type VoiceSynthesizer struct {
	c *Client
}

// NewVoiceSynthesizer creates a voice synthesis provider
func NewVoiceSynthesizer(c *Client) *VoiceSynthesizer {
	return &VoiceSynthesizer{c: c}
}

// Name implements providers.Provider.
func (v *VoiceSynthesizer) Name() string {
	return "beam-tts"
}

// Execute implements providers.Provider.
func (v *VoiceSynthesizer) Execute(ctx context.Context, req providers.SpeechRequest) (providers.SpeechResult, error) {
	var resp struct {
		AudioURL        string  `json:"audio_url"`
		DurationSeconds float64 `json:"duration_seconds"`
	}
	err := v.c.post(ctx, "/tts", map[string]interface{}{
		"text":     req.Text,
		"voice":    req.Voice,
		"language": req.Language,
	}, &resp, voiceTimeout)
	if err != nil {
		return providers.SpeechResult{}, classify(faults.KindAIService, err)
	}
	if resp.AudioURL == "" {
		return providers.SpeechResult{}, faults.Newf(faults.KindAIService, "tts endpoint returned no audio")
	}
	return providers.SpeechResult{
		AudioURL:        resp.AudioURL,
		DurationSeconds: resp.DurationSeconds,
	}, nil
}

// WebClassifier detects a website's business category via the dedicated
// classifier endpoint. The LLM classifier sits behind it in a fallback chain.
type WebClassifier struct {
	c *Client
}

// NewWebClassifier creates a web classification provider
func NewWebClassifier(c *Client) *WebClassifier {
	return &WebClassifier{c: c}
}

// Name implements providers.Provider.
func (w *WebClassifier) Name() string {
	return "beam-web-classifier"
}

// Execute implements providers.Provider.
func (w *WebClassifier) Execute(ctx context.Context, siteText string) (string, error) {
	var resp struct {
		Format string `json:"format"`
	}
	err := w.c.post(ctx, "/web-classifier", map[string]interface{}{
		"main_text": siteText,
	}, &resp, imageTimeout)
	if err != nil {
		return "", classify(faults.KindAIService, err)
	}
	if resp.Format == "" {
		return "", faults.Newf(faults.KindAIService, "classifier returned no format")
	}
	return resp.Format, nil
}
