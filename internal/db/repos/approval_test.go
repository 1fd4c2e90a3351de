package repos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/reelforge/reelforge/internal/db/models"
)

type ApprovalRepositoryTestSuite struct {
	DBRepositoryTestSuite
}

func TestApprovalRepository(t *testing.T) {
	suite.Run(t, new(ApprovalRepositoryTestSuite))
}

func (s *ApprovalRepositoryTestSuite) TestCreateOrReplace() {
	job := s.createTestJob()
	s.createTestApproval(job.ID, models.CheckpointScript)

	// Re-requesting the same checkpoint replaces the record instead of erroring
	second := &models.ApprovalRequest{
		JobID:          job.ID,
		Checkpoint:     models.CheckpointScript,
		TimeoutSeconds: 60,
		Status:         models.ApprovalStatusPending,
		Summary:        "regenerated script",
	}
	s.NoError(s.approvalRepo.CreateOrReplace(s.ctx, second))

	found, err := s.approvalRepo.Get(s.ctx, job.ID, models.CheckpointScript)
	s.NoError(err)
	s.Require().NotNil(found)
	s.Equal("regenerated script", found.Summary)
}

func (s *ApprovalRepositoryTestSuite) TestCreateInvalidCheckpoint() {
	req := &models.ApprovalRequest{JobID: "j", Checkpoint: "thumbnails"}
	s.Error(s.approvalRepo.CreateOrReplace(s.ctx, req))
}

func (s *ApprovalRepositoryTestSuite) TestResolveFirstWins() {
	job := s.createTestJob()
	s.createTestApproval(job.ID, models.CheckpointVisuals)

	ok, err := s.approvalRepo.Resolve(s.ctx, job.ID, models.CheckpointVisuals,
		models.ApprovalStatusRejected, "too dark")
	s.NoError(err)
	s.True(ok)

	// A second decision is a no-op
	ok, err = s.approvalRepo.Resolve(s.ctx, job.ID, models.CheckpointVisuals,
		models.ApprovalStatusApproved, "")
	s.NoError(err)
	s.False(ok)

	found, err := s.approvalRepo.Get(s.ctx, job.ID, models.CheckpointVisuals)
	s.NoError(err)
	s.Equal(models.ApprovalStatusRejected, found.Status)
	s.Equal("too dark", found.Feedback)
	s.NotNil(found.ResolvedAt)
}

func (s *ApprovalRepositoryTestSuite) TestResolveUnknownKey() {
	ok, err := s.approvalRepo.Resolve(s.ctx, "missing", models.CheckpointScript,
		models.ApprovalStatusApproved, "")
	s.NoError(err)
	s.False(ok)
}

func (s *ApprovalRepositoryTestSuite) TestGC() {
	job := s.createTestJob()
	old := s.createTestApproval(job.ID, models.CheckpointScript)

	// Age the record past the retention window
	s.NoError(s.db.Model(&models.ApprovalRequest{}).
		Where("id = ?", old.ID).
		Update("created_at", time.Now().Add(-48*time.Hour)).Error)

	fresh := s.createTestJob()
	s.createTestApproval(fresh.ID, models.CheckpointScript)

	removed, err := s.approvalRepo.GC(s.ctx, 24*time.Hour)
	s.NoError(err)
	s.Equal(int64(1), removed)

	remaining, err := s.approvalRepo.Get(s.ctx, fresh.ID, models.CheckpointScript)
	s.NoError(err)
	s.NotNil(remaining)
}
