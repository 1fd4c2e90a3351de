package approval

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/reelforge/reelforge/internal/db/models"
	"github.com/reelforge/reelforge/internal/db/repos"
)

type recordingChannel struct {
	mu       sync.Mutex
	messages []string
}

func (c *recordingChannel) Send(_ context.Context, _, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, text)
	return nil
}

func (c *recordingChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

type GateTestSuite struct {
	suite.Suite
	ctx       context.Context
	db        *gorm.DB
	approvals *repos.ApprovalRepository
	channel   *recordingChannel
	gate      *Gate
}

func TestGate(t *testing.T) {
	suite.Run(t, new(GateTestSuite))
}

func (s *GateTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_json=1"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)
	require.NoError(s.T(), db.AutoMigrate(&models.ApprovalRequest{}))
	s.db = db
	s.approvals = repos.NewApprovalRepository(db)
	s.channel = &recordingChannel{}
	s.gate = NewGate(s.approvals, s.channel)
	s.ctx = context.Background()
}

func (s *GateTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	if err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}
}

func (s *GateTestSuite) TestNoChannelApprovesImmediately() {
	start := time.Now()
	decision, err := s.gate.RequestApproval(s.ctx, "job-1", "", models.CheckpointScript, "summary")
	s.NoError(err)
	s.True(decision.Approved)
	s.Equal(ReasonNoChannel, decision.Reason)
	s.Less(time.Since(start), time.Second)
	s.Zero(s.channel.count())

	// No record is created either
	record, err := s.approvals.Get(s.ctx, "job-1", models.CheckpointScript)
	s.NoError(err)
	s.Nil(record)
}

func (s *GateTestSuite) TestUnknownCheckpoint() {
	_, err := s.gate.RequestApproval(s.ctx, "job-1", "chat-9", "thumbnails", "summary")
	s.Error(err)
}

func (s *GateTestSuite) TestApprovalDecision() {
	go func() {
		// Deliver the decision shortly after the gate starts waiting
		time.Sleep(100 * time.Millisecond)
		for {
			if ok := s.gate.HandleDecision(s.ctx, "job-2", models.CheckpointScript, true, ""); ok {
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
	}()

	decision, err := s.gate.RequestApproval(s.ctx, "job-2", "chat-9", models.CheckpointScript, "3 segments")
	s.NoError(err)
	s.True(decision.Approved)
	s.Equal(ReasonDecision, decision.Reason)
	s.Equal(1, s.channel.count())
}

func (s *GateTestSuite) TestRejectionCarriesFeedback() {
	go func() {
		time.Sleep(100 * time.Millisecond)
		for {
			if ok := s.gate.HandleDecision(s.ctx, "job-3", models.CheckpointVisuals, false, "too dark"); ok {
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
	}()

	decision, err := s.gate.RequestApproval(s.ctx, "job-3", "chat-9", models.CheckpointVisuals, "4 images")
	s.NoError(err)
	s.False(decision.Approved)
	s.Equal(ReasonDecision, decision.Reason)
	s.Equal("too dark", decision.Feedback)
}

func (s *GateTestSuite) TestTimeoutFailsOpen() {
	original := checkpointTimeouts[models.CheckpointScript]
	checkpointTimeouts[models.CheckpointScript] = 150 * time.Millisecond
	defer func() { checkpointTimeouts[models.CheckpointScript] = original }()

	decision, err := s.gate.RequestApproval(s.ctx, "job-4", "chat-9", models.CheckpointScript, "summary")
	s.NoError(err)
	s.True(decision.Approved)
	s.Equal(ReasonTimeout, decision.Reason)

	// The record is marked timed out, so a late decision is a no-op
	s.False(s.gate.HandleDecision(s.ctx, "job-4", models.CheckpointScript, false, "late rejection"))

	record, err := s.approvals.Get(s.ctx, "job-4", models.CheckpointScript)
	s.NoError(err)
	s.Require().NotNil(record)
	s.Equal(models.ApprovalStatusTimeout, record.Status)
}

func (s *GateTestSuite) TestHandleDecisionUnknownKey() {
	s.False(s.gate.HandleDecision(s.ctx, "missing", models.CheckpointScript, true, ""))
}
