package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/scorecast/platform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var syncNow = time.Date(2026, 9, 10, 15, 30, 0, 0, time.UTC)

type syncFixture struct {
	store *memStore
	feed  *MockFixtureFeed
	svc   *SyncService
}

func newSyncFixture() *syncFixture {
	store := newMemStore()
	feed := new(MockFixtureFeed)
	svc := NewSyncService(&fakePool{}, memMatches{store}, memOutbox{store}, feed, testLogger()).
		WithClock(func() time.Time { return syncNow })
	return &syncFixture{store: store, feed: feed, svc: svc}
}

func fixture(id int64, home, away, date string, score *domain.Score) domain.Fixture {
	lt, err := domain.ParseLocalTime(date)
	if err != nil {
		panic(err)
	}
	return domain.Fixture{ExternalID: id, HomeTeam: home, AwayTeam: away, MatchDate: lt, Score: score}
}

func score(h, a int) *domain.Score { return &domain.Score{Home: h, Away: a} }

func (f *syncFixture) matchByExternalID(id int64) *domain.Match {
	m, _ := memMatches{f.store}.LockByExternalID(context.Background(), nil, id)
	return m
}

func (f *syncFixture) importMatch(id int64, home, away, date string, s *domain.Score) {
	fx := fixture(id, home, away, date, s)
	m := &domain.Match{ID: uuid.New(), HomeTeam: home, AwayTeam: away, MatchDate: fx.MatchDate, ExternalID: &id}
	m.SetScore(s)
	if err := (memMatches{f.store}).Create(context.Background(), nil, m); err != nil {
		panic(err)
	}
	f.store.mu.Lock()
	f.store.matchWrites = 0
	f.store.mu.Unlock()
}

func TestSyncWindow_InsertsAndComputesWindow(t *testing.T) {
	f := newSyncFixture()
	batch := &domain.FeedBatch{Fixtures: []domain.Fixture{
		fixture(1, "Arsenal", "Chelsea", "2026-09-12T14:00:00", nil),
		fixture(2, "Everton", "Fulham", "2026-09-01T16:30:00", score(2, 1)),
	}}

	from := time.Date(2026, 8, 11, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)
	f.feed.On("FetchFixtures", mock.Anything, "PL", from, to).Return(batch, nil).Once()

	res, err := f.svc.SyncWindow(context.Background(), "PL", 30, 30)
	require.NoError(t, err)

	assert.Equal(t, "2026-08-11", res.DateFrom)
	assert.Equal(t, "2026-10-10", res.DateTo)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 0, res.Updated)

	m := f.matchByExternalID(2)
	require.NotNil(t, m)
	assert.Equal(t, "Everton", m.HomeTeam)
	assert.Equal(t, "2026-09-01T16:30:00", m.MatchDate.String())
	final, ok := m.FinalScore()
	require.True(t, ok)
	assert.Equal(t, domain.Score{Home: 2, Away: 1}, final)

	open := f.matchByExternalID(1)
	require.NotNil(t, open)
	assert.False(t, open.Finalized())

	f.feed.AssertExpectations(t)
}

func TestSyncWindow_SecondRunIsNoop(t *testing.T) {
	f := newSyncFixture()
	batch := &domain.FeedBatch{Fixtures: []domain.Fixture{
		fixture(1, "Arsenal", "Chelsea", "2026-09-12T14:00:00", nil),
		fixture(2, "Everton", "Fulham", "2026-09-01T16:30:00", score(2, 1)),
	}}
	f.feed.On("FetchFixtures", mock.Anything, "PL", mock.Anything, mock.Anything).Return(batch, nil).Twice()

	_, err := f.svc.SyncWindow(context.Background(), "PL", 30, 30)
	require.NoError(t, err)
	writesAfterFirst := f.store.writes()
	eventsAfterFirst := len(f.store.eventTypes())

	res, err := f.svc.SyncWindow(context.Background(), "PL", 30, 30)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 2, res.Unchanged)
	assert.Equal(t, writesAfterFirst, f.store.writes())
	assert.Len(t, f.store.eventTypes(), eventsAfterFirst)
}

func TestSyncWindow_ScoreDiffGuard(t *testing.T) {
	tests := []struct {
		name        string
		stored      *domain.Score
		feed        *domain.Score
		wantUpdated int
		wantFinal   *domain.Score
	}{
		{"same score no write", score(1, 1), score(1, 1), 0, score(1, 1)},
		{"different score one write", score(1, 1), score(2, 1), 1, score(2, 1)},
		{"stored null feed set", nil, score(0, 0), 1, score(0, 0)},
		{"both null no write", nil, nil, 0, nil},
		{"feed null never clears", score(3, 1), nil, 0, score(3, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSyncFixture()
			f.importMatch(77, "Roma", "Lazio", "2026-09-05T20:45:00", tt.stored)

			batch := &domain.FeedBatch{Fixtures: []domain.Fixture{
				fixture(77, "AS Roma", "SS Lazio", "2026-09-05T20:45:00", tt.feed),
			}}
			f.feed.On("FetchFixtures", mock.Anything, "SA", mock.Anything, mock.Anything).Return(batch, nil)

			res, err := f.svc.SyncWindow(context.Background(), "SA", 7, 7)
			require.NoError(t, err)
			assert.Equal(t, tt.wantUpdated, res.Updated)
			assert.Equal(t, 0, res.Inserted)
			assert.Equal(t, tt.wantUpdated, f.store.writes())

			m := f.matchByExternalID(77)
			require.NotNil(t, m)
			got, ok := m.FinalScore()
			if tt.wantFinal == nil {
				assert.False(t, ok)
			} else {
				require.True(t, ok)
				assert.Equal(t, *tt.wantFinal, got)
			}
			if tt.wantUpdated == 1 {
				assert.Equal(t, "AS Roma", m.HomeTeam, "full sync rewrites team names with the score")
			} else {
				assert.Equal(t, "Roma", m.HomeTeam)
			}
		})
	}
}

func TestSyncWindow_SkipsMalformedRecords(t *testing.T) {
	f := newSyncFixture()
	badID := int64(3)
	batch := &domain.FeedBatch{
		Fixtures: []domain.Fixture{
			fixture(1, "Arsenal", "Chelsea", "2026-09-12T14:00:00", nil),
			fixture(2, "Everton", "Fulham", "2026-09-13T14:00:00", nil),
		},
		Warnings: []domain.FeedWarning{{Index: 2, ExternalID: &badID, Reason: "missing homeTeam.name"}},
	}
	f.feed.On("FetchFixtures", mock.Anything, "PL", mock.Anything, mock.Anything).Return(batch, nil)

	res, err := f.svc.SyncWindow(context.Background(), "PL", 30, 30)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 3, res.Fetched)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "missing homeTeam.name", res.Warnings[0].Reason)
}

func TestSyncWindow_FeedFailure(t *testing.T) {
	f := newSyncFixture()
	f.feed.On("FetchFixtures", mock.Anything, "PL", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection reset"))

	_, err := f.svc.SyncWindow(context.Background(), "PL", 30, 30)
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeExternalSource))
	assert.Zero(t, f.store.writes())
}

func TestSyncWindow_FeedAppErrorPassesThrough(t *testing.T) {
	f := newSyncFixture()
	f.feed.On("FetchFixtures", mock.Anything, "PL", mock.Anything, mock.Anything).
		Return(nil, domain.ErrExternalSource("feed returned 503", nil))

	_, err := f.svc.SyncWindow(context.Background(), "PL", 30, 30)
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "feed returned 503", appErr.Message)
}

func TestSyncWindow_Validation(t *testing.T) {
	f := newSyncFixture()
	_, err := f.svc.SyncWindow(context.Background(), "PL", -1, 30)
	assert.True(t, domain.IsCode(err, domain.CodeValidation))

	_, err = f.svc.SyncWindow(context.Background(), "", 1, 1)
	assert.True(t, domain.IsCode(err, domain.CodeValidation))
	f.feed.AssertNumberOfCalls(t, "FetchFixtures", 0)
}

func TestSyncWindow_InsertRaceRetriesAsUpdate(t *testing.T) {
	f := newSyncFixture()
	raced := false
	f.store.beforeMatchCreate = func(m *domain.Match) {
		if raced || m.ExternalID == nil {
			return
		}
		raced = true
		id := *m.ExternalID
		rival := &domain.Match{ID: uuid.New(), HomeTeam: m.HomeTeam, AwayTeam: m.AwayTeam, MatchDate: m.MatchDate, ExternalID: &id}
		f.store.mu.Lock()
		f.store.matches[rival.ID] = *rival
		f.store.mu.Unlock()
	}

	batch := &domain.FeedBatch{Fixtures: []domain.Fixture{
		fixture(9, "Ajax", "PSV Eindhoven", "2026-09-06T18:00:00", score(0, 2)),
	}}
	f.feed.On("FetchFixtures", mock.Anything, "DED", mock.Anything, mock.Anything).Return(batch, nil)

	res, err := f.svc.SyncWindow(context.Background(), "DED", 7, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 1, res.Updated)

	m := f.matchByExternalID(9)
	require.NotNil(t, m)
	final, ok := m.FinalScore()
	require.True(t, ok)
	assert.Equal(t, domain.Score{Home: 0, Away: 2}, final)
}

func TestRefreshResultsOnly(t *testing.T) {
	f := newSyncFixture()
	f.importMatch(1, "Arsenal", "Chelsea", "2026-09-08T14:00:00", nil)
	f.importMatch(2, "Everton", "Fulham", "2026-09-09T14:00:00", score(1, 1))

	batch := &domain.FeedBatch{Fixtures: []domain.Fixture{
		fixture(1, "Arsenal FC", "Chelsea FC", "2026-09-08T15:00:00", score(2, 0)),
		fixture(2, "Everton", "Fulham", "2026-09-09T14:00:00", score(1, 1)),
		fixture(3, "Leeds", "Burnley", "2026-09-09T14:00:00", score(0, 0)),
	}}
	from := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	f.feed.On("FetchFixtures", mock.Anything, "PL", from, to).Return(batch, nil)

	res, err := f.svc.RefreshResultsOnly(context.Background(), "PL", 7)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Unchanged)
	assert.Equal(t, 1, res.Unknown)
	assert.Nil(t, f.matchByExternalID(3), "refresh never inserts")

	m := f.matchByExternalID(1)
	require.NotNil(t, m)
	assert.Equal(t, "Arsenal", m.HomeTeam, "refresh only touches scores")
	assert.Equal(t, "2026-09-08T14:00:00", m.MatchDate.String())
	final, ok := m.FinalScore()
	require.True(t, ok)
	assert.Equal(t, domain.Score{Home: 2, Away: 0}, final)
	f.feed.AssertExpectations(t)
}

func TestRefreshResultsOnly_WindowUsesUTCDate(t *testing.T) {
	store := newMemStore()
	feed := new(MockFixtureFeed)
	// 05:00 on the 10th at UTC+10 is still the 9th in UTC.
	local := time.Date(2026, 9, 10, 5, 0, 0, 0, time.FixedZone("AEST", 10*3600))
	svc := NewSyncService(&fakePool{}, memMatches{store}, memOutbox{store}, feed, testLogger()).
		WithClock(func() time.Time { return local })

	from := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC)
	feed.On("FetchFixtures", mock.Anything, "PL", from, to).Return(&domain.FeedBatch{}, nil).Once()

	res, err := svc.RefreshResultsOnly(context.Background(), "PL", 7)
	require.NoError(t, err)
	assert.Equal(t, "2026-09-02", res.DateFrom)
	assert.Equal(t, "2026-09-09", res.DateTo)
	feed.AssertExpectations(t)
}

func TestSync_RejectsOverlappingRun(t *testing.T) {
	f := newSyncFixture()
	started := make(chan struct{})
	release := make(chan struct{})

	f.feed.On("FetchFixtures", mock.Anything, "PL", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&domain.FeedBatch{}, nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.SyncWindow(context.Background(), "PL", 1, 1)
		done <- err
	}()
	<-started

	_, err := f.svc.RefreshResultsOnly(context.Background(), "PL", 1)
	assert.True(t, domain.IsCode(err, domain.CodeSyncInProgress))

	close(release)
	require.NoError(t, <-done)
}
