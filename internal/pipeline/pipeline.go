// Package pipeline drives a job through its ordered generation steps,
// persisting state after every step so an interrupted job can resume from its
// last completed step.
package pipeline

import (
	"context"
	"fmt"

	"github.com/reelforge/reelforge/internal/approval"
	"github.com/reelforge/reelforge/internal/db/models"
	"github.com/reelforge/reelforge/internal/db/repos"
	"github.com/reelforge/reelforge/internal/logger"
	"github.com/reelforge/reelforge/internal/music"
	"github.com/reelforge/reelforge/internal/providers"
)

// Deps bundles every external capability a pipeline variant can draw on.
// Provider fields hold the already-composed fallback chains.
type Deps struct {
	Jobs *repos.JobRepository
	Gate *approval.Gate

	Transcriber providers.Provider[string, string]
	Intent      providers.Provider[string, models.ContentMode]
	Planner     providers.Provider[providers.PlanRequest, models.Plan]
	Script      providers.Provider[providers.ScriptRequest, []providers.SegmentContent]
	Translator  providers.Provider[providers.TranslateRequest, []string]
	Voice       providers.Provider[providers.SpeechRequest, providers.SpeechResult]
	Visual      providers.Provider[providers.VisualRequest, providers.VisualResult]
	Renderer    providers.Provider[*models.RenderManifest, providers.RenderResult]
	Music       *music.Selector

	SiteAnalyzer providers.Provider[string, string]
	Categorizer  providers.Provider[string, string]
}

// Step is one named stage of a pipeline. Done reports whether the job already
// carries the step's output, in which case the step is skipped on resume.
type Step struct {
	Name   string
	Status models.JobStatus
	Done   func(job *models.Job) bool
	Run    func(ctx context.Context, job *models.Job) error
}

// Engine executes a fixed sequence of steps against a job, writing the job
// back to storage after each one.
type Engine struct {
	jobs     *repos.JobRepository
	steps    []Step
	observer func(job *models.Job, step string)
}

// NewEngine creates an engine over the given steps.
func NewEngine(jobs *repos.JobRepository, steps []Step) *Engine {
	return &Engine{jobs: jobs, steps: steps}
}

// WithObserver registers a callback invoked after each executed step's write
// has been persisted.
func (e *Engine) WithObserver(fn func(job *models.Job, step string)) *Engine {
	e.observer = fn
	return e
}

// Run drives the job through every remaining step. Steps whose output is
// already present on the job are skipped, so a resumed job picks up where the
// previous run stopped. The job is persisted after every executed step.
func (e *Engine) Run(ctx context.Context, job *models.Job) error {
	for _, step := range e.steps {
		if step.Done != nil && step.Done(job) {
			logger.Debugf("Job %s: step %s already complete, skipping", job.ID, step.Name)
			continue
		}

		if job.Status.Order() < step.Status.Order() {
			if err := e.jobs.AdvanceStatus(ctx, job.ID, step.Status); err != nil {
				return fmt.Errorf("failed to advance job %s to %s: %w", job.ID, step.Status, err)
			}
			job.Status = step.Status
		}

		logger.Infof("Job %s: running step %s", job.ID, step.Name)

		if err := step.Run(ctx, job); err != nil {
			return fmt.Errorf("step %s: %w", step.Name, err)
		}
		if err := e.jobs.Update(ctx, job); err != nil {
			return fmt.Errorf("failed to persist job %s after step %s: %w", job.ID, step.Name, err)
		}
		if e.observer != nil {
			e.observer(job, step.Name)
		}
	}
	return nil
}
