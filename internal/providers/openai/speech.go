package openai

import (
	"context"
	"encoding/base64"
	"io"
	"strings"

	"github.com/openai/openai-go/v3"

	"github.com/reelforge/reelforge/internal/faults"
	"github.com/reelforge/reelforge/internal/providers"
)

// wordsPerSecond approximates spoken narration pace. The render endpoint
// probes the real audio duration; this estimate only sizes segment spans.
const wordsPerSecond = 2.5

// Speech synthesizes a voiceover using the OpenAI text-to-speech API. The
// audio is returned as a data URL so downstream consumers need no shared
// filesystem.
type Speech struct {
	c *Client
}

// NewSpeech creates a voice synthesis provider backed by the shared client.
func NewSpeech(c *Client) *Speech {
	return &Speech{c: c}
}

// Name implements providers.Provider.
func (s *Speech) Name() string {
	return "openai-tts"
}

// Execute implements providers.Provider.
func (s *Speech) Execute(ctx context.Context, req providers.SpeechRequest) (providers.SpeechResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.c.timeout)
	defer cancel()

	voice := openai.AudioSpeechNewParamsVoice(req.Voice)
	if req.Voice == "" {
		voice = openai.AudioSpeechNewParamsVoiceAlloy
	}

	resp, err := s.c.api.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: openai.SpeechModelTTS1,
		Voice: voice,
		Input: req.Text,
	})
	if err != nil {
		return providers.SpeechResult{}, faults.New(faults.KindAIService, err)
	}
	defer func() { _ = resp.Body.Close() }()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.SpeechResult{}, faults.Newf(faults.KindAIService, "failed to read audio: %v", err)
	}
	if len(audio) == 0 {
		return providers.SpeechResult{}, faults.Newf(faults.KindAIService, "speech synthesis returned no audio")
	}

	return providers.SpeechResult{
		AudioURL:        "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString(audio),
		DurationSeconds: EstimateSpeechSeconds(req.Text),
	}, nil
}

// EstimateSpeechSeconds approximates how long a narration takes to speak.
func EstimateSpeechSeconds(text string) float64 {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return float64(words) / wordsPerSecond
}
