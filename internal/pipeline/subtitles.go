package pipeline

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/reelforge/reelforge/internal/db/models"
)

// BuildSubtitlesURL renders the segments as an SRT document and returns it as
// a data URL, one cue per segment over the segment's span.
func BuildSubtitlesURL(segments []models.Segment) string {
	srt := BuildSRT(segments)
	if srt == "" {
		return ""
	}
	return "data:application/x-subrip;base64," +
		base64.StdEncoding.EncodeToString([]byte(srt))
}

// BuildSRT formats segment narrations as SubRip cues.
func BuildSRT(segments []models.Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		text := strings.TrimSpace(seg.Narration)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1, srtTimestamp(seg.StartSeconds), srtTimestamp(seg.EndSeconds), text)
	}
	return strings.TrimRight(b.String(), "\n")
}

func srtTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	millis := int(seconds*1000 + 0.5)
	h := millis / 3600000
	m := millis / 60000 % 60
	s := millis / 1000 % 60
	ms := millis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
