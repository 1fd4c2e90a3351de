package music

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/reelforge/reelforge/internal/db/models"
	"github.com/reelforge/reelforge/internal/db/repos"
	"github.com/reelforge/reelforge/internal/providers"
)

type SelectorTestSuite struct {
	suite.Suite
	ctx       context.Context
	db        *gorm.DB
	trackRepo *repos.TrackRepository
}

func TestSelector(t *testing.T) {
	suite.Run(t, new(SelectorTestSuite))
}

func (s *SelectorTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_json=1"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)
	require.NoError(s.T(), db.AutoMigrate(&models.Track{}))
	s.db = db
	s.trackRepo = repos.NewTrackRepository(db)
	s.ctx = context.Background()
}

func (s *SelectorTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	if err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}
}

func (s *SelectorTestSuite) addTrack(title string, duration float64, tags ...string) {
	s.Require().NoError(s.trackRepo.Create(s.ctx, &models.Track{
		Title:           title,
		URL:             "https://cdn.example.com/" + title + ".mp3",
		DurationSeconds: duration,
		Tags:            tags,
	}))
}

type countingGenerator struct {
	calls  int
	result providers.MusicResult
	err    error
}

func (g *countingGenerator) Name() string { return "counting-generator" }

func (g *countingGenerator) Execute(_ context.Context, _ providers.MusicRequest) (providers.MusicResult, error) {
	g.calls++
	return g.result, g.err
}

func (s *SelectorTestSuite) TestDeterministic() {
	s.addTrack("alpha", 30, "calm", "piano")
	s.addTrack("beta", 30, "calm", "piano")
	sel := NewSelector(s.trackRepo, nil, nil)

	first := sel.Select(s.ctx, []string{"calm"}, 30, "")
	for i := 0; i < 5; i++ {
		again := sel.Select(s.ctx, []string{"calm"}, 30, "")
		s.Equal(first.Track.Title, again.Track.Title)
	}
	// Equal scores resolve by catalog order
	s.Equal("alpha", first.Track.Title)
}

func (s *SelectorTestSuite) TestRelaxationNeverSkipsToGeneration() {
	// No track inside the duration window, one matching tags only
	s.addTrack("tagged-but-long", 300, "calm", "piano")
	gen := &countingGenerator{}
	sel := NewSelector(s.trackRepo, nil, gen)

	got := sel.Select(s.ctx, []string{"calm", "piano"}, 30, "calm piano")
	s.Equal("tagged-but-long", got.Track.Title)
	s.Equal(SourceCatalog, got.Source)
	s.Zero(gen.calls)
}

func (s *SelectorTestSuite) TestDurationOnlyPass() {
	// No tag matches at all, but a track inside the duration window
	s.addTrack("untagged-fit", 35, "metal")
	s.addTrack("untagged-misfit", 300, "metal")

	got := NewSelector(s.trackRepo, nil, nil).Select(s.ctx, []string{"calm"}, 30, "")
	s.Equal("untagged-fit", got.Track.Title)
	s.Equal(SourceCatalog, got.Source)
}

func (s *SelectorTestSuite) TestGenerationWhenCatalogEmpty() {
	gen := &countingGenerator{result: providers.MusicResult{
		AudioURL:        "https://cdn.example.com/generated.mp3",
		DurationSeconds: 28,
	}}
	got := NewSelector(s.trackRepo, nil, gen).Select(s.ctx, []string{"calm"}, 30, "calm instrumental")
	s.Equal(1, gen.calls)
	s.Equal(SourceGenerated, got.Source)
	s.True(got.Track.AIGenerated)
	s.Equal("https://cdn.example.com/generated.mp3", got.Track.URL)
}

func (s *SelectorTestSuite) TestSafetyTrackNeverFails() {
	gen := &countingGenerator{err: errors.New("musicgen down")}
	got := NewSelector(s.trackRepo, nil, gen).Select(s.ctx, []string{"calm"}, 30, "x")
	s.Equal(1, gen.calls)
	s.Equal(SourceFallback, got.Source)
	s.Equal(safetyTrack.URL, got.Track.URL)
}

type stubCatalog struct {
	tracks []models.Track
	err    error
}

func (c *stubCatalog) Search(_ context.Context, _ []string, _, _ float64) ([]models.Track, error) {
	return c.tracks, c.err
}

func (s *SelectorTestSuite) TestExternalCatalogPreferred() {
	s.addTrack("internal", 30, "calm")
	external := &stubCatalog{tracks: []models.Track{
		{Title: "licensed", URL: "https://catalog.example.com/licensed.mp3", DurationSeconds: 31, Tags: []string{"calm"}},
	}}
	got := NewSelector(s.trackRepo, external, nil).Select(s.ctx, []string{"calm"}, 30, "")
	s.Equal("licensed", got.Track.Title)
	s.Equal(SourceExternalCatalog, got.Source)
}

func (s *SelectorTestSuite) TestExternalCatalogErrorFallsThrough() {
	s.addTrack("internal", 30, "calm")
	external := &stubCatalog{err: errors.New("catalog unreachable")}
	got := NewSelector(s.trackRepo, external, nil).Select(s.ctx, []string{"calm"}, 30, "")
	s.Equal("internal", got.Track.Title)
	s.Equal(SourceCatalog, got.Source)
}

func TestScoreWorkedExample(t *testing.T) {
	// tags [calm piano], target 30s; a track tagged [piano] at 32s:
	// tagScore = 0.5, diff = 2 within tolerance 9
	track := models.Track{DurationSeconds: 32, Tags: []string{"piano"}}
	got := Score(track, []string{"calm", "piano"}, 30)
	assert.InDelta(t, 0.6556, got, 1e-3)
	assert.InDelta(t, 0.67, got, 0.02)
}

func TestScoreOutsideTolerance(t *testing.T) {
	// diff = 30 against target 30: beyond tolerance, penalized linearly
	track := models.Track{DurationSeconds: 60, Tags: []string{"calm"}}
	got := Score(track, []string{"calm"}, 30)
	// tagScore = 1; durationScore = max(0, 0.5 - (30-9)/30) = 0
	assert.InDelta(t, 0.6, got, 1e-9)
}

func TestScoreNoTagsRequested(t *testing.T) {
	track := models.Track{DurationSeconds: 30}
	// tagScore defaults to 1 when nothing was requested
	assert.InDelta(t, 1.0, Score(track, nil, 30), 1e-9)
}
