package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/scorecast/platform/internal/domain"
	"github.com/scorecast/platform/internal/guard"
)

const footballDataDateLayout = "2006-01-02"

// ── football-data.org wire types ──

type fdEnvelope struct {
	Matches   []json.RawMessage `json:"matches"`
	ErrorCode *int              `json:"errorCode"`
	Message   string            `json:"message"`
}

type fdMatch struct {
	ID       *int64 `json:"id"`
	UTCDate  string `json:"utcDate"`
	HomeTeam fdTeam `json:"homeTeam"`
	AwayTeam fdTeam `json:"awayTeam"`
	Score    struct {
		FullTime struct {
			Home *int `json:"home"`
			Away *int `json:"away"`
		} `json:"fullTime"`
	} `json:"score"`
}

type fdTeam struct {
	Name string `json:"name"`
}

// ── FootballDataClient ──

// FootballDataClient fetches competition fixtures from the football-data.org v4 API.
type FootballDataClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *guard.CircuitBreaker
	logger  *slog.Logger
}

// NewFootballDataClient creates a feed client. Every request is bounded by
// timeout; breaker may be nil.
func NewFootballDataClient(baseURL, apiKey string, timeout time.Duration, breaker *guard.CircuitBreaker, logger *slog.Logger) *FootballDataClient {
	return &FootballDataClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
		logger:  logger,
	}
}

// FetchFixtures returns every fixture of competition scheduled in [from, to].
// Transport, status and envelope failures abort with EXTERNAL_SOURCE_ERROR;
// malformed individual records are skipped and reported as warnings.
func (c *FootballDataClient) FetchFixtures(ctx context.Context, competition string, from, to time.Time) (*domain.FeedBatch, error) {
	if c.breaker != nil {
		if res := c.breaker.Check(ctx, competition); !res.Allowed {
			return nil, domain.ErrExternalSource(res.Reason, nil)
		}
	}

	batch, err := c.fetch(ctx, competition, from, to)
	if c.breaker != nil {
		if err != nil {
			c.breaker.RecordFailure(competition)
		} else {
			c.breaker.RecordSuccess(competition)
		}
	}
	return batch, err
}

func (c *FootballDataClient) fetch(ctx context.Context, competition string, from, to time.Time) (*domain.FeedBatch, error) {
	q := url.Values{}
	q.Set("dateFrom", from.Format(footballDataDateLayout))
	q.Set("dateTo", to.Format(footballDataDateLayout))
	endpoint := fmt.Sprintf("%s/competitions/%s/matches?%s", c.baseURL, url.PathEscape(competition), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.ErrExternalSource("build feed request", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Auth-Token", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.ErrExternalSource("feed request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, domain.ErrExternalSource("read feed body", err)
	}

	c.logger.Debug("football-data request", "competition", competition, "status", resp.StatusCode,
		"from", q.Get("dateFrom"), "to", q.Get("dateTo"))

	if resp.StatusCode != http.StatusOK {
		return nil, domain.ErrExternalSource(
			fmt.Sprintf("feed returned %d: %s", resp.StatusCode, string(body[:min(200, len(body))])), nil)
	}

	return decodeFeed(body)
}

func decodeFeed(body []byte) (*domain.FeedBatch, error) {
	var env fdEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, domain.ErrExternalSource("decode feed envelope", err)
	}
	if env.Matches == nil {
		msg := "feed response has no matches list"
		if env.ErrorCode != nil || env.Message != "" {
			msg = fmt.Sprintf("feed error: %s", env.Message)
		}
		return nil, domain.ErrExternalSource(msg, nil)
	}

	batch := &domain.FeedBatch{Fixtures: make([]domain.Fixture, 0, len(env.Matches))}
	for i, raw := range env.Matches {
		fx, warn := decodeFixture(i, raw)
		if warn != nil {
			batch.Warnings = append(batch.Warnings, *warn)
			continue
		}
		batch.Fixtures = append(batch.Fixtures, fx)
	}
	return batch, nil
}

func decodeFixture(index int, raw json.RawMessage) (domain.Fixture, *domain.FeedWarning) {
	skip := func(id *int64, reason string) (domain.Fixture, *domain.FeedWarning) {
		return domain.Fixture{}, &domain.FeedWarning{Index: index, ExternalID: id, Reason: reason}
	}

	var m fdMatch
	if err := json.Unmarshal(raw, &m); err != nil {
		return skip(nil, "malformed record: "+err.Error())
	}
	if m.ID == nil {
		return skip(nil, "missing id")
	}

	home := domain.NormalizeTeamName(m.HomeTeam.Name)
	away := domain.NormalizeTeamName(m.AwayTeam.Name)
	switch {
	case home == "":
		return skip(m.ID, "missing homeTeam.name")
	case away == "":
		return skip(m.ID, "missing awayTeam.name")
	case m.UTCDate == "":
		return skip(m.ID, "missing utcDate")
	}

	kickoff, err := domain.NormalizeFeedTimestamp(m.UTCDate)
	if err != nil {
		return skip(m.ID, err.Error())
	}

	fx := domain.Fixture{
		ExternalID: *m.ID,
		HomeTeam:   home,
		AwayTeam:   away,
		MatchDate:  kickoff,
	}

	ft := m.Score.FullTime
	switch {
	case ft.Home != nil && ft.Away != nil:
		if *ft.Home < 0 || *ft.Away < 0 {
			return skip(m.ID, "negative score")
		}
		fx.Score = &domain.Score{Home: *ft.Home, Away: *ft.Away}
	case ft.Home != nil || ft.Away != nil:
		return skip(m.ID, "partial fullTime score")
	}

	return fx, nil
}
