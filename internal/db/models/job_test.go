package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatusOrderIsMonotonic(t *testing.T) {
	sequence := []JobStatus{
		JobStatusPending,
		JobStatusTranscribing,
		JobStatusDetectingIntent,
		JobStatusPlanning,
		JobStatusGeneratingScript,
		JobStatusSynthesizingVoice,
		JobStatusSelectingMusic,
		JobStatusGeneratingVisuals,
		JobStatusGeneratingSubtitles,
		JobStatusBuildingManifest,
		JobStatusRendering,
		JobStatusUploading,
		JobStatusCompleted,
	}
	for i := 1; i < len(sequence); i++ {
		assert.Greater(t, sequence[i].Order(), sequence[i-1].Order(),
			"%s must come after %s", sequence[i], sequence[i-1])
	}
}

func TestJobStatusTerminal(t *testing.T) {
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusRendering.Terminal())
}

func TestParseJobStatus(t *testing.T) {
	status, err := ParseJobStatus("rendering")
	require.NoError(t, err)
	assert.Equal(t, JobStatusRendering, status)

	_, err = ParseJobStatus("spinning")
	assert.Error(t, err)

	unknown := JobStatus("spinning")
	assert.Equal(t, -1, unknown.Order())
}

func TestJobValidate(t *testing.T) {
	base := func() Job {
		return Job{MinDurationSeconds: 15, MaxDurationSeconds: 60}
	}

	t.Run("requires one input", func(t *testing.T) {
		job := base()
		assert.Error(t, job.Validate())
	})

	t.Run("rejects multiple inputs", func(t *testing.T) {
		job := base()
		job.Text = "hello"
		job.AudioURL = "https://example.com/a.mp3"
		assert.Error(t, job.Validate())
	})

	t.Run("accepts each single input", func(t *testing.T) {
		audio := base()
		audio.AudioURL = "https://example.com/a.mp3"
		assert.NoError(t, audio.Validate())

		text := base()
		text.Text = "hello"
		assert.NoError(t, text.Validate())

		promo := base()
		promo.Promo = &PromoRequest{WebsiteURL: "https://example.com"}
		assert.NoError(t, promo.Validate())
	})

	t.Run("promo requires website url", func(t *testing.T) {
		job := base()
		job.Promo = &PromoRequest{BusinessName: "Acme"}
		assert.Error(t, job.Validate())
	})

	t.Run("rejects bad duration ranges", func(t *testing.T) {
		job := base()
		job.Text = "hello"
		job.MinDurationSeconds = 0
		assert.Error(t, job.Validate())

		job = base()
		job.Text = "hello"
		job.MinDurationSeconds = 90
		assert.Error(t, job.Validate())
	})
}
