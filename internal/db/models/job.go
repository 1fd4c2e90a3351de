package models

import (
	"fmt"
	"time"
)

// JobStatus represents the current state of a generation job
type JobStatus string

// Job status constants, in pipeline order
const (
	// JobStatusPending indicates the job has been created but not started
	JobStatusPending JobStatus = "pending"
	// JobStatusTranscribing indicates the input audio is being transcribed
	JobStatusTranscribing JobStatus = "transcribing"
	// JobStatusDetectingIntent indicates the content mode is being detected
	JobStatusDetectingIntent JobStatus = "detecting-intent"
	// JobStatusPlanning indicates the video plan is being produced
	JobStatusPlanning JobStatus = "planning"
	// JobStatusGeneratingScript indicates per-segment script generation
	JobStatusGeneratingScript JobStatus = "generating-script"
	// JobStatusSynthesizingVoice indicates voiceover synthesis
	JobStatusSynthesizingVoice JobStatus = "synthesizing-voice"
	// JobStatusSelectingMusic indicates music selection
	JobStatusSelectingMusic JobStatus = "selecting-music"
	// JobStatusGeneratingVisuals indicates per-segment visual generation
	JobStatusGeneratingVisuals JobStatus = "generating-visuals"
	// JobStatusGeneratingSubtitles indicates subtitle generation
	JobStatusGeneratingSubtitles JobStatus = "generating-subtitles"
	// JobStatusBuildingManifest indicates render manifest assembly
	JobStatusBuildingManifest JobStatus = "building-manifest"
	// JobStatusRendering indicates the final video is being composed
	JobStatusRendering JobStatus = "rendering"
	// JobStatusUploading indicates durable storage promotion
	JobStatusUploading JobStatus = "uploading"
	// JobStatusCompleted indicates the job has finished successfully
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job has failed to complete
	JobStatusFailed JobStatus = "failed"
)

var statusOrder = map[JobStatus]int{
	JobStatusPending:             0,
	JobStatusTranscribing:        1,
	JobStatusDetectingIntent:     2,
	JobStatusPlanning:            3,
	JobStatusGeneratingScript:    4,
	JobStatusSynthesizingVoice:   5,
	JobStatusSelectingMusic:      6,
	JobStatusGeneratingVisuals:   7,
	JobStatusGeneratingSubtitles: 8,
	JobStatusBuildingManifest:    9,
	JobStatusRendering:           10,
	JobStatusUploading:           11,
	JobStatusCompleted:           12,
	JobStatusFailed:              13,
}

// String returns the string representation of the job status
func (s JobStatus) String() string {
	return string(s)
}

// Order returns the position of the status in the pipeline sequence, or -1 for
// an unknown status.
func (s JobStatus) Order() int {
	if o, ok := statusOrder[s]; ok {
		return o
	}
	return -1
}

// Terminal reports whether the status allows no further automatic mutation.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ParseJobStatus converts a string to a JobStatus type
func ParseJobStatus(str string) (JobStatus, error) {
	s := JobStatus(str)
	if _, ok := statusOrder[s]; !ok {
		return "", fmt.Errorf("invalid job status: %s", str)
	}
	return s, nil
}

// ContentMode selects the narrative treatment of the generated video.
type ContentMode string

// Content modes
const (
	// ContentModeDirect narrates the input as-is
	ContentModeDirect ContentMode = "direct"
	// ContentModeParable retells the input as a short illustrative story
	ContentModeParable ContentMode = "parable"
	// ContentModePromo promotes a business website
	ContentModePromo ContentMode = "promo"
)

// Plan is the LLM-produced outline for a video.
type Plan struct {
	TargetDurationSeconds float64  `json:"target_duration_seconds"`
	SegmentCount          int      `json:"segment_count"`
	Caption               string   `json:"caption"`
	MoodTags              []string `json:"mood_tags,omitempty"`
	Hashtags              []string `json:"hashtags,omitempty"`
}

// Segment is one narrated beat of the output video.
type Segment struct {
	Index        int     `json:"index"`
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
	Narration    string  `json:"narration"`
	VisualPrompt string  `json:"visual_prompt"`
	VisualURL    string  `json:"visual_url,omitempty"`
	Caption      string  `json:"caption,omitempty"`
}

// PromoRequest carries the website-promo input of a job.
type PromoRequest struct {
	WebsiteURL   string            `json:"website_url"`
	BusinessName string            `json:"business_name,omitempty"`
	SiteText     string            `json:"site_text,omitempty"`
	LogoURL      string            `json:"logo_url,omitempty"`
	LogoPosition string            `json:"logo_position,omitempty"`
	Branding     map[string]string `json:"branding,omitempty"`
}

// ManifestSegment is one timed visual in the render manifest.
type ManifestSegment struct {
	ImageURL     string  `json:"image_url,omitempty"`
	VideoURL     string  `json:"video_url,omitempty"`
	StartSeconds float64 `json:"start"`
	EndSeconds   float64 `json:"end"`
}

// RenderManifest is the full input contract of the render endpoint.
type RenderManifest struct {
	VoiceoverURL         string            `json:"voiceover_url"`
	Segments             []ManifestSegment `json:"segments"`
	MusicURL             string            `json:"music_url,omitempty"`
	MusicDurationSeconds float64           `json:"music_duration_seconds,omitempty"`
	SubtitlesURL         string            `json:"subtitles_url,omitempty"`
	DurationSeconds      float64           `json:"duration_seconds"`
	LogoURL              string            `json:"logo_url,omitempty"`
	LogoPosition         string            `json:"logo_position,omitempty"`
	Overlay              string            `json:"overlay,omitempty"`
	Branding             map[string]string `json:"branding,omitempty"`
}

// Job represents one end-to-end request to produce a video
type Job struct {
	ID     string    `json:"id" gorm:"primaryKey"`
	Status JobStatus `json:"status" gorm:"not null;index"`

	// Input: exactly one of AudioURL, Text, Promo is set at creation.
	AudioURL string        `json:"audio_url,omitempty" gorm:"type:text"`
	Text     string        `json:"text,omitempty" gorm:"type:text"`
	Promo    *PromoRequest `json:"promo,omitempty" gorm:"type:jsonb;serializer:json"`

	MinDurationSeconds int `json:"min_duration_seconds"`
	MaxDurationSeconds int `json:"max_duration_seconds"`

	// Routing metadata
	RequesterID    string      `json:"requester_id,omitempty" gorm:"index"`
	ChatID         string      `json:"chat_id,omitempty"`
	CallbackURL    string      `json:"callback_url,omitempty" gorm:"type:text"`
	ForcedMode     ContentMode `json:"forced_mode,omitempty"`
	TargetLanguage string      `json:"target_language,omitempty"`
	Voice          string      `json:"voice,omitempty"`

	// Artifacts accumulated as the pipeline advances
	Transcript               string          `json:"transcript,omitempty" gorm:"type:text"`
	ContentMode              ContentMode     `json:"content_mode,omitempty"`
	Category                 string          `json:"category,omitempty"`
	Plan                     *Plan           `json:"plan,omitempty" gorm:"type:jsonb;serializer:json"`
	Segments                 []Segment       `json:"segments,omitempty" gorm:"type:jsonb;serializer:json"`
	VoiceoverURL             string          `json:"voiceover_url,omitempty" gorm:"type:text"`
	VoiceoverDurationSeconds float64         `json:"voiceover_duration_seconds,omitempty"`
	MusicURL                 string          `json:"music_url,omitempty" gorm:"type:text"`
	MusicDurationSeconds     float64         `json:"music_duration_seconds,omitempty"`
	MusicSource              string          `json:"music_source,omitempty"`
	SubtitlesURL             string          `json:"subtitles_url,omitempty" gorm:"type:text"`
	Manifest                 *RenderManifest `json:"manifest,omitempty" gorm:"type:jsonb;serializer:json"`
	VideoURL                 string          `json:"video_url,omitempty" gorm:"type:text"`

	Error string `json:"error,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Terminal reports whether the job reached a terminal state.
func (j *Job) Terminal() bool {
	return j.Status.Terminal()
}

// Validate ensures the job was constructed with exactly one input kind and a
// sane duration range. Violations are construction-time failures and never
// reach the pipeline.
func (j *Job) Validate() error {
	inputs := 0
	if j.AudioURL != "" {
		inputs++
	}
	if j.Text != "" {
		inputs++
	}
	if j.Promo != nil {
		inputs++
	}
	if inputs == 0 {
		return fmt.Errorf("job requires one of audio_url, text, or promo")
	}
	if inputs > 1 {
		return fmt.Errorf("job accepts exactly one input kind, got %d", inputs)
	}
	if j.Promo != nil && j.Promo.WebsiteURL == "" {
		return fmt.Errorf("promo input requires website_url")
	}
	if j.MinDurationSeconds <= 0 || j.MaxDurationSeconds <= 0 {
		return fmt.Errorf("duration range must be positive, got [%d, %d]",
			j.MinDurationSeconds, j.MaxDurationSeconds)
	}
	if j.MinDurationSeconds > j.MaxDurationSeconds {
		return fmt.Errorf("min duration %d exceeds max duration %d",
			j.MinDurationSeconds, j.MaxDurationSeconds)
	}
	return nil
}
