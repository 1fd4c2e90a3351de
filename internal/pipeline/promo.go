package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/reelforge/reelforge/internal/db/models"
	"github.com/reelforge/reelforge/internal/faults"
)

// NewPromo builds the pipeline for website-promo jobs. It replaces the
// transcription and intent stages with site analysis and format
// classification; the remaining stages are shared with the standard pipeline.
func NewPromo(d *Deps) *Engine {
	return NewEngine(d.Jobs, []Step{
		{
			Name:   "analyze-site",
			Status: models.JobStatusTranscribing,
			Done:   func(j *models.Job) bool { return j.Transcript != "" },
			Run:    d.analyzeSite,
		},
		{
			Name:   "classify-site",
			Status: models.JobStatusDetectingIntent,
			Done:   func(j *models.Job) bool { return j.Category != "" },
			Run:    d.classifySite,
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

// analyzeSite produces the promotional brief that the planning and scripting
// stages consume instead of a transcript. Site text supplied with the job
// skips the fetch.
func (d *Deps) analyzeSite(ctx context.Context, job *models.Job) error {
	siteText := job.Promo.SiteText
	if siteText == "" {
		fetched, err := fetchSiteText(ctx, job.Promo.WebsiteURL)
		if err != nil {
			return err
		}
		siteText = fetched
		job.Promo.SiteText = siteText
	}
	if job.Promo.BusinessName != "" {
		siteText = fmt.Sprintf("Business: %s\n\n%s", job.Promo.BusinessName, siteText)
	}

	brief, err := d.SiteAnalyzer.Execute(ctx, siteText)
	if err != nil {
		return err
	}
	job.Transcript = brief
	job.ContentMode = models.ContentModePromo
	return nil
}

func (d *Deps) classifySite(ctx context.Context, job *models.Job) error {
	category, err := d.Categorizer.Execute(ctx, job.Promo.SiteText)
	if err != nil {
		return err
	}
	job.Category = category
	return nil
}

const maxSiteTextBytes = 16 << 10

// fetchSiteText downloads a page and reduces it to plain text for the
// analysis LLM. Rendering fidelity does not matter here, only the words.
func fetchSiteText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", faults.New(faults.KindInternal, fmt.Errorf("invalid website url %q: %w", url, err))
	}
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", faults.New(faults.KindInternal, fmt.Errorf("failed to fetch %s: %w", url, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", faults.New(faults.KindInternal,
			fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode))
	}

	text := extractSiteText(io.LimitReader(resp.Body, 1<<20))
	if text == "" {
		return "", faults.New(faults.KindInternal, fmt.Errorf("site %s yielded no text", url))
	}
	return text, nil
}

// extractSiteText tokenizes HTML and joins the visible text nodes, skipping
// script, style, and noscript subtrees. The result is whitespace-normalized
// and capped at maxSiteTextBytes.
func extractSiteText(r io.Reader) string {
	tokenizer := html.NewTokenizer(r)
	var words []string
	skipDepth := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			text := strings.Join(words, " ")
			if len(text) > maxSiteTextBytes {
				cut := maxSiteTextBytes
				for cut > 0 && !utf8.RuneStart(text[cut]) {
					cut--
				}
				text = text[:cut]
			}
			return text
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if skippedTag(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if skippedTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			words = append(words, strings.Fields(string(tokenizer.Text()))...)
		}
	}
}

func skippedTag(name string) bool {
	switch name {
	case "script", "style", "noscript":
		return true
	}
	return false
}
