// Package music implements the scored, multi-pass relaxation search that
// picks a soundtrack for a job.
package music

import (
	"context"
	"sort"
	"strings"

	"github.com/reelforge/reelforge/internal/db/models"
	"github.com/reelforge/reelforge/internal/db/repos"
	"github.com/reelforge/reelforge/internal/logger"
	"github.com/reelforge/reelforge/internal/providers"
)

// Track sources reported in a Selection.
const (
	// SourceExternalCatalog marks a track from the configured external catalog
	SourceExternalCatalog = "external-catalog"
	// SourceCatalog marks a track from the internal catalog
	SourceCatalog = "catalog"
	// SourceGenerated marks an AI-generated track
	SourceGenerated = "generated"
	// SourceFallback marks the hardcoded safety track
	SourceFallback = "fallback"
)

// Duration window and scoring constants
const (
	durationWindowLow  = 0.7
	durationWindowHigh = 1.5
	tagWeight          = 0.6
	durationWeight     = 0.4
	durationTolerance  = 0.3
)

// safetyTrack is returned when every other source is exhausted. Selection
// must never fail; a silent video is worse than a generic soundtrack.
var safetyTrack = models.Track{
	Title:           "Ambient Horizon",
	URL:             "https://cdn.reelforge.io/library/ambient-horizon.mp3",
	DurationSeconds: 60,
	Tags:            []string{"ambient", "neutral", "calm"},
}

// Catalog is an external music catalog queried ahead of the internal one.
type Catalog interface {
	// Search returns candidate tracks for the tags and duration window.
	Search(ctx context.Context, tags []string, minSeconds, maxSeconds float64) ([]models.Track, error)
}

// Selection is the outcome of a music search.
type Selection struct {
	Track  models.Track
	Source string
}

// Selector runs the relaxation ladder over the catalogs and the generation
// provider.
type Selector struct {
	tracks    *repos.TrackRepository
	external  Catalog // optional
	generator providers.Provider[providers.MusicRequest, providers.MusicResult] // optional
}

// NewSelector creates a music selector. external and generator may be nil.
func NewSelector(tracks *repos.TrackRepository, external Catalog,
	generator providers.Provider[providers.MusicRequest, providers.MusicResult]) *Selector {
	return &Selector{tracks: tracks, external: external, generator: generator}
}

// Select picks the best track for the given mood tags, target duration, and
// free-text prompt. Each relaxation pass runs only when the prior produced no
// usable track; the final safety pass cannot fail.
func (s *Selector) Select(ctx context.Context, tags []string, targetSeconds float64, prompt string) Selection {
	minDur := targetSeconds * durationWindowLow
	maxDur := targetSeconds * durationWindowHigh

	// 1. External catalog, tags + duration window.
	if s.external != nil {
		candidates, err := s.external.Search(ctx, tags, minDur, maxDur)
		if err != nil {
			logger.Warnf("External music catalog search failed: %v", err)
		} else if best := bestMatch(candidates, tags, targetSeconds); best != nil {
			return Selection{Track: *best, Source: SourceExternalCatalog}
		}
	}

	// 2. Internal catalog, tags + duration window (pass A).
	if windowed, err := s.tracks.ListByDurationWindow(ctx, minDur, maxDur); err != nil {
		logger.Warnf("Music catalog duration query failed: %v", err)
	} else if best := bestMatch(filterByTags(windowed, tags), tags, targetSeconds); best != nil {
		return Selection{Track: *best, Source: SourceCatalog}
	}

	all, err := s.tracks.List(ctx)
	if err != nil {
		logger.Warnf("Music catalog listing failed: %v", err)
		all = nil
	}

	if len(all) > 0 {
		// 3. Tags only, no duration bound (pass B).
		if best := bestMatch(filterByTags(all, tags), tags, targetSeconds); best != nil {
			return Selection{Track: *best, Source: SourceCatalog}
		}
		// 4. Duration only, ignoring tags (pass C).
		if windowed, err := s.tracks.ListByDurationWindow(ctx, minDur, maxDur); err == nil {
			if best := bestMatch(windowed, nil, targetSeconds); best != nil {
				return Selection{Track: *best, Source: SourceCatalog}
			}
		}
		// 5. Any single track (pass D).
		return Selection{Track: all[0], Source: SourceCatalog}
	}

	// 6. The catalog is empty: generate an instrumental track.
	if s.generator != nil {
		result, err := s.generator.Execute(ctx, providers.MusicRequest{
			Prompt:          prompt,
			DurationSeconds: targetSeconds,
		})
		if err == nil {
			return Selection{
				Track: models.Track{
					Title:           "Generated soundtrack",
					URL:             result.AudioURL,
					DurationSeconds: result.DurationSeconds,
					Tags:            tags,
					AIGenerated:     true,
				},
				Source: SourceGenerated,
			}
		}
		logger.Warnf("Music generation failed: %v", err)
	}

	// 7. One last unconstrained catalog look before giving up.
	if track, err := s.tracks.Any(ctx); err == nil && track != nil {
		return Selection{Track: *track, Source: SourceCatalog}
	}

	// 8. Hardcoded safety track. This path never errors.
	return Selection{Track: safetyTrack, Source: SourceFallback}
}

// filterByTags keeps tracks carrying at least one requested tag. With no tags
// requested every track qualifies.
func filterByTags(tracks []models.Track, tags []string) []models.Track {
	if len(tags) == 0 {
		return tracks
	}
	var matched []models.Track
	for _, track := range tracks {
		if countTagHits(track, tags) > 0 {
			matched = append(matched, track)
		}
	}
	return matched
}

// bestMatch scores candidates and returns the highest, or nil for an empty
// candidate set. Sorting is stable so catalog order breaks ties.
func bestMatch(candidates []models.Track, tags []string, targetSeconds float64) *models.Track {
	if len(candidates) == 0 {
		return nil
	}
	scored := make([]models.Track, len(candidates))
	copy(scored, candidates)
	sort.SliceStable(scored, func(i, j int) bool {
		return Score(scored[i], tags, targetSeconds) > Score(scored[j], tags, targetSeconds)
	})
	return &scored[0]
}

// Score rates how well a track fits the requested tags and target duration:
// 0.6 weight on tag coverage, 0.4 on duration proximity.
func Score(track models.Track, tags []string, targetSeconds float64) float64 {
	return tagWeight*tagScore(track, tags) + durationWeight*durationScore(track.DurationSeconds, targetSeconds)
}

func tagScore(track models.Track, tags []string) float64 {
	if len(tags) == 0 {
		return 1
	}
	return float64(countTagHits(track, tags)) / float64(len(tags))
}

func countTagHits(track models.Track, tags []string) int {
	hits := 0
	for _, want := range tags {
		for _, have := range track.Tags {
			if strings.EqualFold(want, have) {
				hits++
				break
			}
		}
	}
	return hits
}

func durationScore(trackSeconds, targetSeconds float64) float64 {
	if targetSeconds <= 0 {
		return 0
	}
	diff := trackSeconds - targetSeconds
	if diff < 0 {
		diff = -diff
	}
	tolerance := durationTolerance * targetSeconds
	if diff <= tolerance {
		return 1 - 0.5*(diff/tolerance)
	}
	score := 0.5 - (diff-tolerance)/targetSeconds
	if score < 0 {
		return 0
	}
	return score
}
