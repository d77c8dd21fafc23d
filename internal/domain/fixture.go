package domain

import (
	"fmt"
	"strings"
)

// Fixture is one validated record from the external fixture feed.
type Fixture struct {
	ExternalID int64
	HomeTeam   string
	AwayTeam   string
	MatchDate  LocalTime
	Score      *Score
}

// FeedWarning describes a feed record that was skipped.
type FeedWarning struct {
	Index      int    `json:"index"`
	ExternalID *int64 `json:"external_id,omitempty"`
	Reason     string `json:"reason"`
}

// FeedBatch is the decoded result of one feed request.
type FeedBatch struct {
	Fixtures []Fixture
	Warnings []FeedWarning
}

// NormalizeFeedTimestamp turns a feed UTC timestamp into a LocalTime by
// stripping the trailing "Z" or "+00:00" marker. The offset is discarded,
// not applied.
func NormalizeFeedTimestamp(s string) (LocalTime, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "Z")
	s = strings.TrimSuffix(s, "+00:00")
	lt, err := ParseLocalTime(s)
	if err != nil {
		return LocalTime{}, fmt.Errorf("normalize feed timestamp: %w", err)
	}
	return lt, nil
}

// ScoreNeedsWrite reports whether a feed score should overwrite the stored
// one. A feed without a score never clears a stored result.
func ScoreNeedsWrite(stored *Match, feed *Score) bool {
	if feed == nil {
		return false
	}
	current, ok := stored.FinalScore()
	if !ok {
		return true
	}
	return current != *feed
}
