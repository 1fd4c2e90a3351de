// Package faults defines the closed taxonomy of failure kinds used to derive
// user-facing error messages. Kinds are attached at the point of failure so
// downstream reporting never needs to inspect raw error text.
package faults

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

// Failure kinds
const (
	// KindTranscription covers audio download and speech-to-text failures.
	KindTranscription Kind = "transcription"
	// KindAIService covers LLM planning, script generation, and auth failures.
	KindAIService Kind = "ai-service"
	// KindImage covers still-image and animated-visual generation failures.
	KindImage Kind = "image"
	// KindRender covers final video composition failures and render timeouts.
	KindRender Kind = "render"
	// KindDuration covers invalid or unsatisfiable duration constraints.
	KindDuration Kind = "duration"
	// KindMusic covers music catalog and music generation failures.
	KindMusic Kind = "music"
	// KindQuota covers provider rate-limit and quota exhaustion.
	KindQuota Kind = "quota"
	// KindStorage covers durable storage promotion failures.
	KindStorage Kind = "storage"
	// KindInternal is the default for unclassified failures.
	KindInternal Kind = "internal"
)

// Fault wraps an error with its failure kind.
type Fault struct {
	Kind Kind
	Err  error
}

// New wraps err with the given kind. A nil err returns nil.
func New(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Fault{Kind: kind, Err: err}
}

// Newf creates a kinded error from a format string.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Fault{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// KindOf returns the kind attached to err, or KindInternal if none is.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindInternal
}

var userMessages = map[Kind]string{
	KindTranscription: "We couldn't understand the audio. Please try recording again in a quiet place.",
	KindAIService:     "Our AI service is temporarily unavailable. Please try again in a few minutes.",
	KindImage:         "We couldn't generate the visuals for your video. Please try again.",
	KindRender:        "Video assembly took too long or failed. Please try again.",
	KindDuration:      "The requested video length isn't supported. Try a duration between 10 and 180 seconds.",
	KindMusic:         "We couldn't pick a soundtrack for your video. Please try again.",
	KindQuota:         "We're at capacity right now. Please try again shortly.",
	KindStorage:       "Your video was created but saving it failed. Please contact support.",
	KindInternal:      "Something went wrong while creating your video. Please try again.",
}

// UserMessage returns the human-readable message for err's kind.
func UserMessage(err error) string {
	return userMessages[KindOf(err)]
}
