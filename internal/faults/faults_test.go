package faults

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := New(KindRender, errors.New("ffmpeg exited 1"))
	assert.Equal(t, KindRender, KindOf(err))

	// Wrapping preserves the kind
	wrapped := fmt.Errorf("step render: %w", err)
	assert.Equal(t, KindRender, KindOf(wrapped))

	// Plain errors default to internal
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestNewNil(t *testing.T) {
	assert.Nil(t, New(KindMusic, nil))
}

func TestUserMessage(t *testing.T) {
	err := Newf(KindQuota, "429 from provider")
	assert.Equal(t, userMessages[KindQuota], UserMessage(err))
	assert.Equal(t, userMessages[KindInternal], UserMessage(errors.New("x")))
}

func TestErrorString(t *testing.T) {
	err := New(KindTranscription, errors.New("download failed"))
	assert.Equal(t, "transcription: download failed", err.Error())
}
