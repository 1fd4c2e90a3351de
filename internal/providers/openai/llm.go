package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"

	"github.com/reelforge/reelforge/internal/db/models"
	"github.com/reelforge/reelforge/internal/faults"
	"github.com/reelforge/reelforge/internal/providers"
)

// complete runs a single chat completion and returns the raw message content.
func (c *Client) complete(ctx context.Context, system, user string, jsonResponse bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0.7),
	}
	if jsonResponse {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{Type: "json_object"},
		}
	}

	completion, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", faults.New(faults.KindAIService, err)
	}
	if len(completion.Choices) == 0 {
		return "", faults.Newf(faults.KindAIService, "chat completion returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// completeJSON runs a chat completion with a JSON response format and decodes
// the content into out.
func (c *Client) completeJSON(ctx context.Context, system, user string, out interface{}) error {
	content, err := c.complete(ctx, system, user, true)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return faults.Newf(faults.KindAIService, "malformed completion JSON: %v", err)
	}
	return nil
}

// Planner produces a video plan from a transcript and duration constraints.
type Planner struct {
	c *Client
}

// NewPlanner creates a planning provider backed by the shared client.
func NewPlanner(c *Client) *Planner {
	return &Planner{c: c}
}

// Name implements providers.Provider.
func (p *Planner) Name() string {
	return "openai-planner"
}

const plannerSystem = `You plan short vertical videos. Respond with a JSON object:
{"target_duration_seconds": number, "segment_count": number, "caption": string,
"mood_tags": [string], "hashtags": [string]}.
Pick 2-8 segments, a duration within the given range, a punchy one-line caption,
2-4 lowercase mood tags describing the soundtrack feel, and 3-6 hashtags.`

// Execute implements providers.Provider.
func (p *Planner) Execute(ctx context.Context, req providers.PlanRequest) (models.Plan, error) {
	user := fmt.Sprintf(
		"Content mode: %s\nDuration range: %d-%d seconds\nLanguage: %s\nTranscript:\n%s",
		req.ContentMode, req.MinDurationSeconds, req.MaxDurationSeconds,
		orDefault(req.TargetLanguage, "en"), req.Transcript)

	var plan models.Plan
	if err := p.c.completeJSON(ctx, plannerSystem, user, &plan); err != nil {
		return models.Plan{}, err
	}
	if plan.SegmentCount < 1 {
		return models.Plan{}, faults.Newf(faults.KindAIService, "plan has no segments")
	}
	// Clamp into the requested range rather than failing on a drifting model.
	if plan.TargetDurationSeconds < float64(req.MinDurationSeconds) {
		plan.TargetDurationSeconds = float64(req.MinDurationSeconds)
	}
	if plan.TargetDurationSeconds > float64(req.MaxDurationSeconds) {
		plan.TargetDurationSeconds = float64(req.MaxDurationSeconds)
	}
	return plan, nil
}

// ScriptGenerator produces per-segment narration and visual prompts for an
// existing plan.
type ScriptGenerator struct {
	c *Client
}

// NewScriptGenerator creates a script provider backed by the shared client.
func NewScriptGenerator(c *Client) *ScriptGenerator {
	return &ScriptGenerator{c: c}
}

// Name implements providers.Provider.
func (g *ScriptGenerator) Name() string {
	return "openai-script"
}

const scriptSystem = `You write scripts for short vertical videos. Respond with a
JSON object {"segments": [{"narration": string, "visual_prompt": string,
"caption": string}]} containing exactly the requested number of segments.
Narration is spoken text; visual_prompt describes one generated image or clip.`

// Execute implements providers.Provider.
func (g *ScriptGenerator) Execute(ctx context.Context, req providers.ScriptRequest) ([]providers.SegmentContent, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Content mode: %s\nSegments: %d\nTotal duration: %.0f seconds\nLanguage: %s\n",
		req.ContentMode, req.SegmentCount, req.TargetDurationSeconds,
		orDefault(req.TargetLanguage, "en"))
	if req.Feedback != "" {
		fmt.Fprintf(&sb, "Reviewer feedback on the previous draft, address it:\n%s\n", req.Feedback)
	}
	fmt.Fprintf(&sb, "Source material:\n%s", req.Transcript)

	var resp struct {
		Segments []providers.SegmentContent `json:"segments"`
	}
	if err := g.c.completeJSON(ctx, scriptSystem, sb.String(), &resp); err != nil {
		return nil, err
	}
	return resp.Segments, nil
}

// IntentClassifier detects the content mode of a transcript.
type IntentClassifier struct {
	c *Client
}

// NewIntentClassifier creates an intent detection provider.
func NewIntentClassifier(c *Client) *IntentClassifier {
	return &IntentClassifier{c: c}
}

// Name implements providers.Provider.
func (i *IntentClassifier) Name() string {
	return "openai-intent"
}

const intentSystem = `Classify how a voice note should become a video. Respond with
a JSON object {"mode": "direct"} when the text should be narrated as-is, or
{"mode": "parable"} when it asks for a story, lesson, or metaphorical retelling.`

// Execute implements providers.Provider.
func (i *IntentClassifier) Execute(ctx context.Context, transcript string) (models.ContentMode, error) {
	var resp struct {
		Mode string `json:"mode"`
	}
	if err := i.c.completeJSON(ctx, intentSystem, transcript, &resp); err != nil {
		return "", err
	}
	if resp.Mode == string(models.ContentModeParable) {
		return models.ContentModeParable, nil
	}
	return models.ContentModeDirect, nil
}

// CategoryClassifier detects a website's business category for the promo
// pipeline. It is the LLM fallback tier behind the dedicated classifier
// endpoint.
type CategoryClassifier struct {
	c *Client
}

// NewCategoryClassifier creates a category detection provider.
func NewCategoryClassifier(c *Client) *CategoryClassifier {
	return &CategoryClassifier{c: c}
}

// Name implements providers.Provider.
func (cc *CategoryClassifier) Name() string {
	return "openai-category"
}

// Categories recognized by the promo pipeline.
var PromoCategories = []string{
	"landing-page", "ecommerce", "portfolio", "local-service", "blog",
}

const categorySystem = `Classify a business website. Respond with a JSON object
{"category": string} where category is one of: landing-page, ecommerce,
portfolio, local-service, blog.`

// Execute implements providers.Provider.
func (cc *CategoryClassifier) Execute(ctx context.Context, siteText string) (string, error) {
	var resp struct {
		Category string `json:"category"`
	}
	if err := cc.c.completeJSON(ctx, categorySystem, siteText, &resp); err != nil {
		return "", err
	}
	for _, known := range PromoCategories {
		if resp.Category == known {
			return known, nil
		}
	}
	return "landing-page", nil
}

// SiteAnalyzer condenses scraped website text into a promo brief used as the
// planning input of the website-promo pipeline.
type SiteAnalyzer struct {
	c *Client
}

// NewSiteAnalyzer creates a site analysis provider.
func NewSiteAnalyzer(c *Client) *SiteAnalyzer {
	return &SiteAnalyzer{c: c}
}

// Name implements providers.Provider.
func (a *SiteAnalyzer) Name() string {
	return "openai-site-analyzer"
}

const siteAnalyzerSystem = `Summarize a business website for a promo video writer.
Cover what the business sells, who it serves, and its strongest selling points,
in at most 120 words of plain prose.`

// Execute implements providers.Provider.
func (a *SiteAnalyzer) Execute(ctx context.Context, siteText string) (string, error) {
	return a.c.complete(ctx, siteAnalyzerSystem, siteText, false)
}

// Translator translates batches of texts via chat completion.
type Translator struct {
	c *Client
}

// NewTranslator creates a translation provider.
func NewTranslator(c *Client) *Translator {
	return &Translator{c: c}
}

// Name implements providers.Provider.
func (t *Translator) Name() string {
	return "openai-translator"
}

const translateSystem = `Translate each input text. Respond with a JSON object
{"translations": [string]} preserving order and count.`

// Execute implements providers.Provider.
func (t *Translator) Execute(ctx context.Context, req providers.TranslateRequest) ([]string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"target_language": req.TargetLang,
		"source_language": req.SourceLang,
		"texts":           req.Texts,
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Translations []string `json:"translations"`
	}
	if err := t.c.completeJSON(ctx, translateSystem, string(payload), &resp); err != nil {
		return nil, err
	}
	if len(resp.Translations) != len(req.Texts) {
		return nil, faults.Newf(faults.KindAIService,
			"translation count mismatch: sent %d, got %d", len(req.Texts), len(resp.Translations))
	}
	return resp.Translations, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
