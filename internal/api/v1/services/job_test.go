package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/reelforge/reelforge/internal/approval"
	"github.com/reelforge/reelforge/internal/db/models"
	"github.com/reelforge/reelforge/internal/db/repos"
	"github.com/reelforge/reelforge/internal/music"
	"github.com/reelforge/reelforge/internal/notify"
	"github.com/reelforge/reelforge/internal/orchestrator"
	"github.com/reelforge/reelforge/internal/pipeline"
	"github.com/reelforge/reelforge/internal/providers"
)

type JobServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	db      *gorm.DB
	jobs    *repos.JobRepository
	service *JobService

	renderCalls atomic.Int64
	voiceCalls  atomic.Int64
}

func TestJobService(t *testing.T) {
	suite.Run(t, new(JobServiceTestSuite))
}

func (s *JobServiceTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_json=1"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)
	require.NoError(s.T(), db.AutoMigrate(&models.Job{}, &models.ApprovalRequest{}, &models.Track{}))
	s.db = db
	s.ctx = context.Background()
	s.jobs = repos.NewJobRepository(db)
	s.renderCalls.Store(0)
	s.voiceCalls.Store(0)

	deps := &pipeline.Deps{
		Jobs: s.jobs,
		Gate: approval.NewGate(repos.NewApprovalRepository(db), nil),
		Transcriber: providers.Func[string, string]{
			ProviderName: "t", Fn: func(_ context.Context, _ string) (string, error) { return "words", nil },
		},
		Intent: providers.Func[string, models.ContentMode]{
			ProviderName: "i", Fn: func(_ context.Context, _ string) (models.ContentMode, error) {
				return models.ContentModeDirect, nil
			},
		},
		Planner: providers.Func[providers.PlanRequest, models.Plan]{
			ProviderName: "p", Fn: func(_ context.Context, _ providers.PlanRequest) (models.Plan, error) {
				return models.Plan{TargetDurationSeconds: 30, SegmentCount: 1, Caption: "c"}, nil
			},
		},
		Script: providers.Func[providers.ScriptRequest, []providers.SegmentContent]{
			ProviderName: "s", Fn: func(_ context.Context, _ providers.ScriptRequest) ([]providers.SegmentContent, error) {
				return []providers.SegmentContent{{Narration: "one beat", VisualPrompt: "scene"}}, nil
			},
		},
		Voice: providers.Func[providers.SpeechRequest, providers.SpeechResult]{
			ProviderName: "v", Fn: func(_ context.Context, _ providers.SpeechRequest) (providers.SpeechResult, error) {
				s.voiceCalls.Add(1)
				return providers.SpeechResult{AudioURL: "https://cdn.test/v.mp3", DurationSeconds: 30}, nil
			},
		},
		Visual: providers.Func[providers.VisualRequest, providers.VisualResult]{
			ProviderName: "vi", Fn: func(_ context.Context, _ providers.VisualRequest) (providers.VisualResult, error) {
				return providers.VisualResult{MediaURL: "https://cdn.test/i.png"}, nil
			},
		},
		Renderer: providers.Func[*models.RenderManifest, providers.RenderResult]{
			ProviderName: "r", Fn: func(_ context.Context, _ *models.RenderManifest) (providers.RenderResult, error) {
				s.renderCalls.Add(1)
				return providers.RenderResult{VideoURL: "https://cdn.test/final.mp4"}, nil
			},
		},
		Music: music.NewSelector(repos.NewTrackRepository(db), nil, nil),
	}
	orch := orchestrator.New(s.jobs, deps, nil, notify.NewWebhook(), nil)
	s.service = NewJobService(s.jobs, orchestrator.NewSupervisor(orch))
}

func (s *JobServiceTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	if err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}
}

func (s *JobServiceTestSuite) waitForStatus(jobID string, want models.JobStatus) *models.Job {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := s.jobs.GetByID(s.ctx, jobID)
		require.NoError(s.T(), err)
		if job != nil && job.Status == want {
			return job
		}
		time.Sleep(20 * time.Millisecond)
	}
	s.T().Fatalf("job %s never reached %s", jobID, want)
	return nil
}

func (s *JobServiceTestSuite) TestCreateJobAssignsIDAndRuns() {
	created, err := s.service.CreateJob(s.ctx, &models.Job{
		Text:               "hello",
		MinDurationSeconds: 15,
		MaxDurationSeconds: 60,
	})
	s.Require().NoError(err)
	s.NotEmpty(created.ID)

	job := s.waitForStatus(created.ID, models.JobStatusCompleted)
	s.Equal("https://cdn.test/final.mp4", job.VideoURL)
}

func (s *JobServiceTestSuite) TestCreateJobRejectsInvalidInput() {
	_, err := s.service.CreateJob(s.ctx, &models.Job{
		MinDurationSeconds: 15,
		MaxDurationSeconds: 60,
	})
	s.Error(err)
}

func (s *JobServiceTestSuite) TestRetryCreatesFreshJob() {
	created, err := s.service.CreateJob(s.ctx, &models.Job{
		Text:               "retry me",
		RequesterID:        "u-1",
		MinDurationSeconds: 15,
		MaxDurationSeconds: 60,
	})
	s.Require().NoError(err)
	s.waitForStatus(created.ID, models.JobStatusCompleted)

	retried, err := s.service.RetryJob(s.ctx, created.ID)
	s.Require().NoError(err)
	s.NotEqual(created.ID, retried.ID)
	s.Equal("retry me", retried.Text)
	s.Equal("u-1", retried.RequesterID)
	s.waitForStatus(retried.ID, models.JobStatusCompleted)

	// The original job is untouched history
	original, err := s.jobs.GetByID(s.ctx, created.ID)
	s.NoError(err)
	s.Equal(models.JobStatusCompleted, original.Status)
}

func (s *JobServiceTestSuite) TestSalvageReattachesMediaAndFinishes() {
	// A job that died during rendering, with everything upstream in place.
	job := &models.Job{
		ID:                 "salvage-1",
		Status:             models.JobStatusPending,
		Text:               "stuck",
		MinDurationSeconds: 15,
		MaxDurationSeconds: 60,
		Transcript:         "stuck",
		ContentMode:        models.ContentModeDirect,
		Plan:               &models.Plan{TargetDurationSeconds: 30, SegmentCount: 1, Caption: "c"},
		Segments: []models.Segment{{
			Index: 0, StartSeconds: 0, EndSeconds: 30,
			Narration: "one beat", VisualPrompt: "scene",
			VisualURL: "https://cdn.test/i.png",
		}},
		VoiceoverURL:             "https://cdn.test/v.mp3",
		VoiceoverDurationSeconds: 30,
		MusicURL:                 "https://cdn.test/m.mp3",
		MusicDurationSeconds:     45,
		SubtitlesURL:             "data:application/x-subrip;base64,MQ==",
	}
	require.NoError(s.T(), s.jobs.Create(s.ctx, job))
	_, err := s.jobs.Patch(s.ctx, job.ID, map[string]interface{}{
		"status": models.JobStatusFailed,
		"error":  "render timed out",
	})
	require.NoError(s.T(), err)

	// The render host finished the video after the job gave up on it.
	salvaged, err := s.service.SalvageJob(s.ctx, job.ID, SalvageRequest{
		VideoURL: "https://render.test/recovered.mp4",
	})
	s.Require().NoError(err)
	s.Equal(models.JobStatusBuildingManifest, salvaged.Status)
	s.Empty(salvaged.Error)

	done := s.waitForStatus(job.ID, models.JobStatusCompleted)
	s.Equal("https://render.test/recovered.mp4", done.VideoURL)
	s.Require().NotNil(done.Manifest)
	s.Equal(int64(0), s.renderCalls.Load(), "recovered video must not be re-rendered")
	s.Equal(int64(0), s.voiceCalls.Load(), "existing voiceover must not be re-synthesized")
}

func (s *JobServiceTestSuite) TestSalvageRejectsCompletedJob() {
	created, err := s.service.CreateJob(s.ctx, &models.Job{
		Text:               "done",
		MinDurationSeconds: 15,
		MaxDurationSeconds: 60,
	})
	s.Require().NoError(err)
	s.waitForStatus(created.ID, models.JobStatusCompleted)

	_, err = s.service.SalvageJob(s.ctx, created.ID, SalvageRequest{
		VideoURL: "https://render.test/x.mp4",
	})
	s.Error(err)
}

func (s *JobServiceTestSuite) TestSalvageRejectsBadSegmentIndex() {
	job := &models.Job{
		ID: "salvage-2", Status: models.JobStatusPending, Text: "x",
		MinDurationSeconds: 15, MaxDurationSeconds: 60,
	}
	require.NoError(s.T(), s.jobs.Create(s.ctx, job))

	_, err := s.service.SalvageJob(s.ctx, job.ID, SalvageRequest{
		SegmentVisualURLs: map[int]string{5: "https://cdn.test/x.png"},
	})
	s.Error(err)
	s.Contains(err.Error(), fmt.Sprintf("segment index %d", 5))
}
