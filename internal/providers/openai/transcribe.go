package openai

import (
	"context"
	"net/http"

	"github.com/openai/openai-go/v3"

	"github.com/reelforge/reelforge/internal/faults"
)

// Transcriber converts an audio reference into text using the OpenAI
// transcription API.
type Transcriber struct {
	c     *Client
	httpc *http.Client
}

// NewTranscriber creates a transcription provider backed by the shared client.
func NewTranscriber(c *Client) *Transcriber {
	return &Transcriber{
		c:     c,
		httpc: &http.Client{Timeout: transcribeTimeout},
	}
}

// Name implements providers.Provider.
func (t *Transcriber) Name() string {
	return "openai-whisper"
}

// Execute implements providers.Provider. The input is a fetchable audio URL.
func (t *Transcriber) Execute(ctx context.Context, audioURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", faults.New(faults.KindTranscription, err)
	}
	resp, err := t.httpc.Do(req)
	if err != nil {
		return "", faults.Newf(faults.KindTranscription, "failed to fetch audio: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", faults.Newf(faults.KindTranscription, "audio fetch returned status %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	defer cancel()

	transcription, err := t.c.api.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModelWhisper1,
		File:  openai.File(resp.Body, "voice-note.mp3", "audio/mpeg"),
	})
	if err != nil {
		return "", faults.New(faults.KindTranscription, err)
	}
	if transcription.Text == "" {
		return "", faults.Newf(faults.KindTranscription, "empty transcript for %s", audioURL)
	}
	return transcription.Text, nil
}
