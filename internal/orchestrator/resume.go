package orchestrator

import (
	"context"
	"sync"

	"github.com/reelforge/reelforge/internal/logger"
)

// Supervisor resumes unfinished jobs after a restart and watches in-flight
// jobs launched through it.
type Supervisor struct {
	orchestrator *Orchestrator

	wg       sync.WaitGroup
	failures chan error
}

// NewSupervisor creates a supervisor over the orchestrator.
func NewSupervisor(o *Orchestrator) *Supervisor {
	return &Supervisor{
		orchestrator: o,
		failures:     make(chan error, 64),
	}
}

// ResumeUnfinished loads every non-terminal job and relaunches each in its
// own goroutine. Per-step persistence means a resumed job skips work it
// already finished. Returns the number of jobs relaunched.
func (s *Supervisor) ResumeUnfinished(ctx context.Context) (int, error) {
	jobs, err := s.orchestrator.jobs.ListUnfinished(ctx)
	if err != nil {
		return 0, err
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	logger.Infof("Resuming %d unfinished jobs", len(jobs))
	for _, job := range jobs {
		s.Launch(ctx, job.ID)
	}
	return len(jobs), nil
}

// Launch runs a job in a supervised goroutine. Failures are reported on
// Failures in addition to being recorded on the job itself.
func (s *Supervisor) Launch(ctx context.Context, jobID string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.orchestrator.ProcessJob(ctx, jobID); err != nil {
			select {
			case s.failures <- err:
			default:
				logger.Warnf("Failure channel full, dropping error for job %s: %v", jobID, err)
			}
		}
	}()
}

// Failures exposes errors from supervised jobs.
func (s *Supervisor) Failures() <-chan error {
	return s.failures
}

// Wait blocks until every supervised job has finished.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}
