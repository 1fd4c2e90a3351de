package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/reelforge/reelforge/internal/db/models"
)

// DBRepositoryTestSuite provides a base test suite for repository tests
type DBRepositoryTestSuite struct {
	suite.Suite
	db           *gorm.DB
	ctx          context.Context
	jobRepo      *JobRepository
	approvalRepo *ApprovalRepository
	trackRepo    *TrackRepository
}

func (s *DBRepositoryTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_json=1"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err, "Failed to create in-memory database")

	err = db.AutoMigrate(&models.Job{}, &models.ApprovalRequest{}, &models.Track{})
	require.NoError(s.T(), err, "Failed to run database migrations")

	s.db = db
	s.jobRepo = NewJobRepository(s.db)
	s.approvalRepo = NewApprovalRepository(s.db)
	s.trackRepo = NewTrackRepository(s.db)
	s.ctx = context.Background()
}

func (s *DBRepositoryTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	if err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}
}

// Helper methods for creating test data

func (s *DBRepositoryTestSuite) createTestJob() *models.Job {
	job := &models.Job{
		ID:                 uuid.NewString(),
		Status:             models.JobStatusPending,
		Text:               "a short note about morning routines",
		MinDurationSeconds: 10,
		MaxDurationSeconds: 90,
		RequesterID:        "requester-1",
		CallbackURL:        "https://example.com/webhook",
	}
	err := s.jobRepo.Create(s.ctx, job)
	s.Require().NoError(err)
	return job
}

func (s *DBRepositoryTestSuite) createTestApproval(jobID, checkpoint string) *models.ApprovalRequest {
	req := &models.ApprovalRequest{
		JobID:          jobID,
		Checkpoint:     checkpoint,
		TimeoutSeconds: 60,
		Status:         models.ApprovalStatusPending,
		Summary:        "3 segments, 60s total",
	}
	err := s.approvalRepo.CreateOrReplace(s.ctx, req)
	s.Require().NoError(err)
	return req
}

func (s *DBRepositoryTestSuite) createTestTrack(title string, duration float64, tags []string) *models.Track {
	track := &models.Track{
		Title:           title,
		URL:             "https://cdn.example.com/tracks/" + title + ".mp3",
		DurationSeconds: duration,
		Tags:            tags,
	}
	err := s.trackRepo.Create(s.ctx, track)
	s.Require().NoError(err)
	return track
}

// TestDBRepository runs the base suite to verify setup does not panic
func TestDBRepository(t *testing.T) {
	suite.Run(t, new(DBRepositoryTestSuite))
}
