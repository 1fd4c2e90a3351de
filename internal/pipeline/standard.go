package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/reelforge/reelforge/internal/db/models"
	"github.com/reelforge/reelforge/internal/faults"
	"github.com/reelforge/reelforge/internal/logger"
	"github.com/reelforge/reelforge/internal/providers"
)

// NewStandard builds the pipeline for audio and text jobs: transcription,
// intent detection, planning, scripting with review, voiceover, music,
// visuals with review, subtitles, manifest assembly, and rendering.
func NewStandard(d *Deps) *Engine {
	return NewEngine(d.Jobs, []Step{
		{
			Name:   "transcribe",
			Status: models.JobStatusTranscribing,
			Done:   func(j *models.Job) bool { return j.Transcript != "" },
			Run:    d.transcribe,
		},
		{
			Name:   "detect-intent",
			Status: models.JobStatusDetectingIntent,
			Done:   func(j *models.Job) bool { return j.ContentMode != "" },
			Run:    d.detectIntent,
		},
		{
			Name:   "plan",
			Status: models.JobStatusPlanning,
			Done:   func(j *models.Job) bool { return j.Plan != nil },
			Run:    d.plan,
		},
		{
			Name:   "script",
			Status: models.JobStatusGeneratingScript,
			Done:   func(j *models.Job) bool { return len(j.Segments) > 0 },
			Run:    d.script,
		},
		{
			Name:   "voiceover",
			Status: models.JobStatusSynthesizingVoice,
			Done:   func(j *models.Job) bool { return j.VoiceoverURL != "" },
			Run:    d.voiceover,
		},
		{
			Name:   "music",
			Status: models.JobStatusSelectingMusic,
			Done:   func(j *models.Job) bool { return j.MusicURL != "" },
			Run:    d.selectMusic,
		},
		{
			Name:   "visuals",
			Status: models.JobStatusGeneratingVisuals,
			Done:   visualsDone,
			Run:    d.visuals,
		},
		{
			Name:   "subtitles",
			Status: models.JobStatusGeneratingSubtitles,
			Done:   func(j *models.Job) bool { return j.SubtitlesURL != "" },
			Run:    d.subtitles,
		},
		{
			Name:   "manifest",
			Status: models.JobStatusBuildingManifest,
			Done:   func(j *models.Job) bool { return j.Manifest != nil },
			Run:    d.buildManifest,
		},
		{
			Name:   "render",
			Status: models.JobStatusRendering,
			Done:   func(j *models.Job) bool { return j.VideoURL != "" },
			Run:    d.render,
		},
	})
}

func visualsDone(j *models.Job) bool {
	if len(j.Segments) == 0 {
		return false
	}
	for _, seg := range j.Segments {
		if seg.VisualURL == "" {
			return false
		}
	}
	return true
}

// transcribe resolves the job's transcript. Text jobs carry it already;
// audio jobs go through the speech-to-text provider.
func (d *Deps) transcribe(ctx context.Context, job *models.Job) error {
	if job.Text != "" {
		job.Transcript = job.Text
		return nil
	}
	transcript, err := d.Transcriber.Execute(ctx, job.AudioURL)
	if err != nil {
		return err
	}
	if strings.TrimSpace(transcript) == "" {
		return faults.New(faults.KindTranscription, fmt.Errorf("transcription produced no text"))
	}
	job.Transcript = transcript
	return nil
}

func (d *Deps) detectIntent(ctx context.Context, job *models.Job) error {
	if job.ForcedMode != "" {
		job.ContentMode = job.ForcedMode
		return nil
	}
	mode, err := d.Intent.Execute(ctx, job.Transcript)
	if err != nil {
		return err
	}
	job.ContentMode = mode
	return nil
}

func (d *Deps) plan(ctx context.Context, job *models.Job) error {
	plan, err := d.Planner.Execute(ctx, providers.PlanRequest{
		Transcript:         job.Transcript,
		ContentMode:        string(job.ContentMode),
		MinDurationSeconds: job.MinDurationSeconds,
		MaxDurationSeconds: job.MaxDurationSeconds,
		TargetLanguage:     job.TargetLanguage,
	})
	if err != nil {
		return err
	}
	job.Plan = &plan
	return nil
}

// script generates per-segment narration and visual prompts, then holds the
// job at the script review checkpoint. A rejection earns one regeneration
// that carries the reviewer's feedback; a second rejection aborts the job.
func (d *Deps) script(ctx context.Context, job *models.Job) error {
	req := providers.ScriptRequest{
		Transcript:            job.Transcript,
		ContentMode:           string(job.ContentMode),
		SegmentCount:          job.Plan.SegmentCount,
		TargetDurationSeconds: job.Plan.TargetDurationSeconds,
		TargetLanguage:        job.TargetLanguage,
	}

	segments, err := d.generateSegments(ctx, job, req)
	if err != nil {
		return err
	}
	job.Segments = segments

	decision, err := d.Gate.RequestApproval(ctx, job.ID, job.ChatID,
		models.CheckpointScript, scriptSummary(segments))
	if err != nil {
		return err
	}
	if decision.Approved {
		return nil
	}

	logger.Infof("Job %s: script rejected (%q), regenerating once", job.ID, decision.Feedback)
	req.Feedback = decision.Feedback
	segments, err = d.generateSegments(ctx, job, req)
	if err != nil {
		return err
	}
	job.Segments = segments

	decision, err = d.Gate.RequestApproval(ctx, job.ID, job.ChatID,
		models.CheckpointScript, scriptSummary(segments))
	if err != nil {
		return err
	}
	if !decision.Approved {
		return faults.New(faults.KindAIService,
			fmt.Errorf("script rejected twice: %s", decision.Feedback))
	}
	return nil
}

// generateSegments runs the script provider, validates its output against the
// plan, optionally translates the narration, and assigns proportional time
// spans across the plan's target duration.
func (d *Deps) generateSegments(ctx context.Context, job *models.Job,
	req providers.ScriptRequest) ([]models.Segment, error) {
	contents, err := d.Script.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(contents) != job.Plan.SegmentCount {
		return nil, faults.New(faults.KindAIService,
			fmt.Errorf("script produced %d segments, plan requires %d",
				len(contents), job.Plan.SegmentCount))
	}
	for i, c := range contents {
		if strings.TrimSpace(c.Narration) == "" {
			return nil, faults.New(faults.KindAIService,
				fmt.Errorf("script segment %d has empty narration", i))
		}
	}

	if job.TargetLanguage != "" && job.TargetLanguage != "en" && d.Translator != nil {
		texts := make([]string, len(contents))
		for i, c := range contents {
			texts[i] = c.Narration
		}
		translated, err := d.Translator.Execute(ctx, providers.TranslateRequest{
			Texts:      texts,
			TargetLang: job.TargetLanguage,
		})
		if err != nil {
			return nil, err
		}
		for i := range contents {
			contents[i].Narration = translated[i]
		}
	}

	segments := make([]models.Segment, len(contents))
	for i, c := range contents {
		segments[i] = models.Segment{
			Index:        i,
			Narration:    c.Narration,
			VisualPrompt: c.VisualPrompt,
			Caption:      c.Caption,
		}
	}
	assignSpans(segments, job.Plan.TargetDurationSeconds)
	return segments, nil
}

func scriptSummary(segments []models.Segment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Script: %d segments\n", len(segments))
	for _, s := range segments {
		fmt.Fprintf(&b, "%d. %s\n", s.Index+1, s.Narration)
	}
	return strings.TrimRight(b.String(), "\n")
}

// voiceover synthesizes the joined narration and rescales segment spans to
// the actual audio duration, since the timing of the finished voice track
// overrides the plan's estimate.
func (d *Deps) voiceover(ctx context.Context, job *models.Job) error {
	result, err := d.Voice.Execute(ctx, providers.SpeechRequest{
		Text:     joinNarration(job.Segments),
		Voice:    job.Voice,
		Language: job.TargetLanguage,
	})
	if err != nil {
		return err
	}
	job.VoiceoverURL = result.AudioURL
	job.VoiceoverDurationSeconds = result.DurationSeconds
	if job.VoiceoverDurationSeconds > 0 {
		scaleSpans(job.Segments, job.VoiceoverDurationSeconds)
	}
	return nil
}

func joinNarration(segments []models.Segment) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = s.Narration
	}
	return strings.Join(parts, " ")
}

// selectMusic runs the music selection ladder. Selection cannot fail, so the
// step never errors.
func (d *Deps) selectMusic(ctx context.Context, job *models.Job) error {
	target := job.VoiceoverDurationSeconds
	if target <= 0 && job.Plan != nil {
		target = job.Plan.TargetDurationSeconds
	}
	var tags []string
	if job.Plan != nil {
		tags = job.Plan.MoodTags
	}
	prompt := "instrumental background music"
	if len(tags) > 0 {
		prompt = fmt.Sprintf("%s, %s", prompt, strings.Join(tags, ", "))
	}

	selection := d.Music.Select(ctx, tags, target, prompt)
	job.MusicURL = selection.Track.URL
	job.MusicDurationSeconds = selection.Track.DurationSeconds
	job.MusicSource = selection.Source
	return nil
}

// visuals generates one visual per segment, persisting after each so a crash
// mid-step resumes from the first missing visual, then holds the job at the
// visuals review checkpoint.
func (d *Deps) visuals(ctx context.Context, job *models.Job) error {
	if err := d.generateVisuals(ctx, job, ""); err != nil {
		return err
	}

	decision, err := d.Gate.RequestApproval(ctx, job.ID, job.ChatID,
		models.CheckpointVisuals, visualsSummary(job.Segments))
	if err != nil {
		return err
	}
	if decision.Approved {
		return nil
	}

	logger.Infof("Job %s: visuals rejected (%q), regenerating once", job.ID, decision.Feedback)
	for i := range job.Segments {
		job.Segments[i].VisualURL = ""
	}
	if err := d.generateVisuals(ctx, job, decision.Feedback); err != nil {
		return err
	}

	decision, err = d.Gate.RequestApproval(ctx, job.ID, job.ChatID,
		models.CheckpointVisuals, visualsSummary(job.Segments))
	if err != nil {
		return err
	}
	if !decision.Approved {
		return faults.New(faults.KindImage,
			fmt.Errorf("visuals rejected twice: %s", decision.Feedback))
	}
	return nil
}

func (d *Deps) generateVisuals(ctx context.Context, job *models.Job, feedback string) error {
	for i := range job.Segments {
		seg := &job.Segments[i]
		if seg.VisualURL != "" {
			continue
		}
		prompt := seg.VisualPrompt
		if feedback != "" {
			prompt = fmt.Sprintf("%s. Reviewer notes: %s", prompt, feedback)
		}
		result, err := d.Visual.Execute(ctx, providers.VisualRequest{
			Prompt:          prompt,
			DurationSeconds: seg.EndSeconds - seg.StartSeconds,
		})
		if err != nil {
			return err
		}
		seg.VisualURL = result.MediaURL
		if err := d.Jobs.Update(ctx, job); err != nil {
			return fmt.Errorf("failed to persist visual %d for job %s: %w", i, job.ID, err)
		}
	}
	return nil
}

func visualsSummary(segments []models.Segment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Visuals: %d assets\n", len(segments))
	for _, s := range segments {
		fmt.Fprintf(&b, "%d. %s\n", s.Index+1, s.VisualURL)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (d *Deps) subtitles(_ context.Context, job *models.Job) error {
	job.SubtitlesURL = BuildSubtitlesURL(job.Segments)
	return nil
}

func (d *Deps) buildManifest(_ context.Context, job *models.Job) error {
	manifest := &models.RenderManifest{
		VoiceoverURL:         job.VoiceoverURL,
		MusicURL:             job.MusicURL,
		MusicDurationSeconds: job.MusicDurationSeconds,
		SubtitlesURL:         job.SubtitlesURL,
		DurationSeconds:      job.VoiceoverDurationSeconds,
	}
	if manifest.DurationSeconds <= 0 && job.Plan != nil {
		manifest.DurationSeconds = job.Plan.TargetDurationSeconds
	}
	for _, seg := range job.Segments {
		ms := models.ManifestSegment{
			StartSeconds: seg.StartSeconds,
			EndSeconds:   seg.EndSeconds,
		}
		if isVideoURL(seg.VisualURL) {
			ms.VideoURL = seg.VisualURL
		} else {
			ms.ImageURL = seg.VisualURL
		}
		manifest.Segments = append(manifest.Segments, ms)
	}
	if job.Promo != nil {
		manifest.LogoURL = job.Promo.LogoURL
		manifest.LogoPosition = job.Promo.LogoPosition
		manifest.Branding = job.Promo.Branding
		manifest.Overlay = job.Category
	}
	job.Manifest = manifest
	return nil
}

func isVideoURL(url string) bool {
	trimmed := url
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return strings.HasSuffix(trimmed, ".mp4") || strings.HasSuffix(trimmed, ".webm")
}

func (d *Deps) render(ctx context.Context, job *models.Job) error {
	result, err := d.Renderer.Execute(ctx, job.Manifest)
	if err != nil {
		return err
	}
	job.VideoURL = result.VideoURL
	return nil
}

// assignSpans distributes the target duration across segments in proportion
// to their narration length. Spans are half-open and contiguous; the last
// span always ends exactly at the target.
func assignSpans(segments []models.Segment, targetSeconds float64) {
	if len(segments) == 0 || targetSeconds <= 0 {
		return
	}
	weights := make([]float64, len(segments))
	total := 0.0
	for i, s := range segments {
		w := float64(len(strings.Fields(s.Narration)))
		if w <= 0 {
			w = 1
		}
		weights[i] = w
		total += w
	}
	cursor := 0.0
	for i := range segments {
		segments[i].StartSeconds = cursor
		cursor += targetSeconds * weights[i] / total
		segments[i].EndSeconds = cursor
	}
	segments[len(segments)-1].EndSeconds = targetSeconds
}

// scaleSpans rescales existing spans to a new total duration, preserving
// their relative proportions.
func scaleSpans(segments []models.Segment, totalSeconds float64) {
	if len(segments) == 0 || totalSeconds <= 0 {
		return
	}
	current := segments[len(segments)-1].EndSeconds
	if current <= 0 {
		assignSpans(segments, totalSeconds)
		return
	}
	factor := totalSeconds / current
	for i := range segments {
		segments[i].StartSeconds *= factor
		segments[i].EndSeconds *= factor
	}
	segments[len(segments)-1].EndSeconds = totalSeconds
}
