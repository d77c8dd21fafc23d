package domain

import (
	"time"

	"github.com/google/uuid"
)

// Prediction status as shown to its owner.
const (
	StatusPending = "pending"
	StatusHit     = "hit"
	StatusMiss    = "miss"
)

// Prediction represents a predictions row: one account's guessed scoreline
// for one match.
type Prediction struct {
	ID            uuid.UUID  `json:"id"`
	AccountID     uuid.UUID  `json:"account_id"`
	MatchID       uuid.UUID  `json:"match_id"`
	PredictedHome int        `json:"predicted_home"`
	PredictedAway int        `json:"predicted_away"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// Guess returns the predicted scoreline.
func (p *Prediction) Guess() Score {
	return Score{Home: p.PredictedHome, Away: p.PredictedAway}
}

// SubmitPredictionInput holds a prediction submission.
type SubmitPredictionInput struct {
	MatchID       uuid.UUID `json:"match_id"`
	PredictedHome int       `json:"predicted_home"`
	PredictedAway int       `json:"predicted_away"`
}

// PredictionWithMatch is a prediction joined with the match it is about.
type PredictionWithMatch struct {
	Prediction
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	MatchDate LocalTime `json:"match_date"`
	HomeScore *int      `json:"home_score"`
	AwayScore *int      `json:"away_score"`
	Status    string    `json:"status"`
}

// ResolveStatus fills Status from the joined match score.
func (p *PredictionWithMatch) ResolveStatus() {
	if p.HomeScore == nil || p.AwayScore == nil {
		p.Status = StatusPending
		return
	}
	if IsHit(p.Guess(), Score{Home: *p.HomeScore, Away: *p.AwayScore}) {
		p.Status = StatusHit
		return
	}
	p.Status = StatusMiss
}

// MatchWithPrediction is a board row: a match plus the viewer's prediction.
type MatchWithPrediction struct {
	Match
	Prediction *Prediction `json:"prediction,omitempty"`
}
