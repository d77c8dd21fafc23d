package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// LocalTimeLayout is the naive wall-clock layout kickoff times are kept in.
const LocalTimeLayout = "2006-01-02T15:04:05"

// LocalTime is a kickoff time without a zone. The wall clock is stored as-is
// and never shifted by an offset; the location is always UTC internally.
type LocalTime struct {
	time.Time
}

// NewLocalTime keeps the wall clock of t and drops its zone.
func NewLocalTime(t time.Time) LocalTime {
	return LocalTime{time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)}
}

// ParseLocalTime accepts YYYY-MM-DDTHH:MM:SS or YYYY-MM-DDTHH:MM (seconds are
// taken as zero).
func ParseLocalTime(s string) (LocalTime, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(LocalTimeLayout, s); err == nil {
		return NewLocalTime(t), nil
	}
	t, err := time.Parse("2006-01-02T15:04", s)
	if err != nil {
		return LocalTime{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DDTHH:MM[:SS]", s)
	}
	return NewLocalTime(t), nil
}

func (t LocalTime) String() string {
	return t.Format(LocalTimeLayout)
}

func (t LocalTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *LocalTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseLocalTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Score is a full-time scoreline.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

func (s Score) String() string {
	return fmt.Sprintf("%d:%d", s.Home, s.Away)
}

// Match represents a matches row. HomeScore and AwayScore are both nil until
// the match is finalized and both set afterwards.
type Match struct {
	ID         uuid.UUID `json:"id"`
	HomeTeam   string    `json:"home_team"`
	AwayTeam   string    `json:"away_team"`
	MatchDate  LocalTime `json:"match_date"`
	HomeScore  *int      `json:"home_score"`
	AwayScore  *int      `json:"away_score"`
	ExternalID *int64    `json:"external_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Finalized reports whether any score field is set.
func (m *Match) Finalized() bool {
	return m.HomeScore != nil || m.AwayScore != nil
}

// FinalScore returns the final scoreline when both fields are set.
func (m *Match) FinalScore() (Score, bool) {
	if m.HomeScore == nil || m.AwayScore == nil {
		return Score{}, false
	}
	return Score{Home: *m.HomeScore, Away: *m.AwayScore}, true
}

// SetScore finalizes the match with s, or clears both fields when s is nil.
func (m *Match) SetScore(s *Score) {
	if s == nil {
		m.HomeScore, m.AwayScore = nil, nil
		return
	}
	home, away := s.Home, s.Away
	m.HomeScore, m.AwayScore = &home, &away
}

// NormalizeTeamName collapses inner whitespace and applies NFC so the same
// club spelled with composed or decomposed accents compares equal.
func NormalizeTeamName(name string) string {
	return norm.NFC.String(strings.Join(strings.Fields(name), " "))
}

// NewMatchInput holds the fields of a manually entered match.
type NewMatchInput struct {
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	MatchDate string `json:"match_date"`
}
