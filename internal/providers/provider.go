// Package providers defines the capability contracts satisfied by external
// content-generation services and the fallback combinator that composes them.
package providers

import "context"

// Provider is the uniform operation contract implemented by every capability
// adapter. Implementations must be idempotent from the caller's perspective:
// a failed attempt leaves no state behind that affects a retry elsewhere.
type Provider[I, O any] interface {
	// Name identifies the provider in logs.
	Name() string
	// Execute performs the capability operation.
	Execute(ctx context.Context, in I) (O, error)
}

// Func adapts a plain function to the Provider interface.
type Func[I, O any] struct {
	ProviderName string
	Fn           func(ctx context.Context, in I) (O, error)
}

// Name implements Provider.
func (f Func[I, O]) Name() string {
	return f.ProviderName
}

// Execute implements Provider.
func (f Func[I, O]) Execute(ctx context.Context, in I) (O, error) {
	return f.Fn(ctx, in)
}

// SpeechRequest is the input of a voice synthesis provider.
type SpeechRequest struct {
	Text     string
	Voice    string
	Language string
}

// SpeechResult is the output of a voice synthesis provider.
type SpeechResult struct {
	AudioURL        string
	DurationSeconds float64
}

// VisualRequest is the input of an image or animated-video provider.
type VisualRequest struct {
	Prompt          string
	DurationSeconds float64
}

// VisualResult is the output of a visual provider.
type VisualResult struct {
	MediaURL string
}

// RenderResult is the output of a video rendering provider.
type RenderResult struct {
	VideoURL        string
	DurationSeconds float64
}

// TranslateRequest is the input of a translation provider.
type TranslateRequest struct {
	Texts      []string
	TargetLang string
	SourceLang string
}

// PlanRequest carries the transcript and constraints into the planning LLM.
type PlanRequest struct {
	Transcript         string
	ContentMode        string
	MinDurationSeconds int
	MaxDurationSeconds int
	TargetLanguage     string
}

// ScriptRequest asks for per-segment content matching an existing plan.
type ScriptRequest struct {
	Transcript            string
	ContentMode           string
	SegmentCount          int
	TargetDurationSeconds float64
	TargetLanguage        string
	// Feedback carries reviewer notes from a rejected checkpoint, empty on the
	// first attempt.
	Feedback string
}

// SegmentContent is one generated beat: narration plus its visual prompt.
type SegmentContent struct {
	Narration    string `json:"narration"`
	VisualPrompt string `json:"visual_prompt"`
	Caption      string `json:"caption,omitempty"`
}

// MusicRequest is the input of an AI music generation provider.
type MusicRequest struct {
	Prompt          string
	DurationSeconds float64
}

// MusicResult is the output of an AI music generation provider.
type MusicResult struct {
	AudioURL        string
	DurationSeconds float64
}
