//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/scorecast/platform/internal/domain"
	"github.com/scorecast/platform/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccount(t *testing.T, db DBTX, username string) *domain.Account {
	t.Helper()
	a := &domain.Account{ID: uuid.New(), Username: username, PasswordHash: "$2a$10$hash", Role: domain.RoleUser}
	require.NoError(t, NewAccountRepository().Create(context.Background(), db, a))
	return a
}

func newMatch(t *testing.T, db DBTX, home, away, kickoff string, score *domain.Score) *domain.Match {
	t.Helper()
	ko, err := domain.ParseLocalTime(kickoff)
	require.NoError(t, err)
	m := &domain.Match{ID: uuid.New(), HomeTeam: home, AwayTeam: away, MatchDate: ko}
	m.SetScore(score)
	require.NoError(t, NewMatchRepository().Create(context.Background(), db, m))
	return m
}

func TestAccountRepository(t *testing.T) {
	tdb := testutil.SetupTestDatabase(t)
	repo := NewAccountRepository()
	ctx := context.Background()

	t.Run("create and find", func(t *testing.T) {
		a := newAccount(t, tdb.Pool, "ana")
		assert.False(t, a.CreatedAt.IsZero())

		byID, err := repo.FindByID(ctx, tdb.Pool, a.ID)
		require.NoError(t, err)
		require.NotNil(t, byID)
		assert.Equal(t, "ana", byID.Username)
		assert.Equal(t, domain.RoleUser, byID.Role)

		byName, err := repo.FindByUsername(ctx, tdb.Pool, "ana")
		require.NoError(t, err)
		require.NotNil(t, byName)
		assert.Equal(t, a.ID, byName.ID)
	})

	t.Run("unknown is nil, nil", func(t *testing.T) {
		a, err := repo.FindByUsername(ctx, tdb.Pool, "nobody")
		require.NoError(t, err)
		assert.Nil(t, a)
	})

	t.Run("duplicate username is a conflict", func(t *testing.T) {
		newAccount(t, tdb.Pool, "bruno")
		err := repo.Create(ctx, tdb.Pool, &domain.Account{ID: uuid.New(), Username: "bruno", PasswordHash: "x", Role: domain.RoleUser})
		require.Error(t, err)
		assert.True(t, domain.IsCode(err, domain.CodeConflict))
	})

	t.Run("update password hash", func(t *testing.T) {
		a := newAccount(t, tdb.Pool, "carla")
		require.NoError(t, repo.UpdatePasswordHash(ctx, tdb.Pool, a.ID, "$2a$10$other"))
		got, err := repo.FindByID(ctx, tdb.Pool, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "$2a$10$other", got.PasswordHash)
	})
}

func TestMatchRepository(t *testing.T) {
	tdb := testutil.SetupTestDatabase(t)
	repo := NewMatchRepository()
	ctx := context.Background()

	t.Run("kickoff wall clock survives a round trip", func(t *testing.T) {
		m := newMatch(t, tdb.Pool, "Arsenal", "Chelsea", "2026-10-20T19:45", nil)
		got, err := repo.FindByID(ctx, tdb.Pool, m.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "2026-10-20T19:45:00", got.MatchDate.String())
		assert.False(t, got.Finalized())
		assert.Nil(t, got.ExternalID)
	})

	t.Run("one-sided score is rejected by the schema", func(t *testing.T) {
		home := 1
		m := &domain.Match{ID: uuid.New(), HomeTeam: "A", AwayTeam: "B", MatchDate: domain.NewLocalTime(time.Now()), HomeScore: &home}
		require.Error(t, repo.Create(ctx, tdb.Pool, m))
	})

	t.Run("negative score is rejected by the schema", func(t *testing.T) {
		m := newMatch(t, tdb.Pool, "C", "D", "2026-10-21T15:00", nil)
		require.Error(t, repo.UpdateScore(ctx, tdb.Pool, m.ID, domain.Score{Home: -1, Away: 0}))
	})

	t.Run("duplicate external id is a conflict", func(t *testing.T) {
		ext := int64(441122)
		first := &domain.Match{ID: uuid.New(), HomeTeam: "E", AwayTeam: "F", MatchDate: domain.NewLocalTime(time.Now()), ExternalID: &ext}
		require.NoError(t, repo.Create(ctx, tdb.Pool, first))

		second := &domain.Match{ID: uuid.New(), HomeTeam: "E", AwayTeam: "F", MatchDate: domain.NewLocalTime(time.Now()), ExternalID: &ext}
		err := repo.Create(ctx, tdb.Pool, second)
		require.Error(t, err)
		assert.True(t, domain.IsCode(err, domain.CodeConflict))
	})

	t.Run("lock by external id", func(t *testing.T) {
		ext := int64(550001)
		m := &domain.Match{ID: uuid.New(), HomeTeam: "G", AwayTeam: "H", MatchDate: domain.NewLocalTime(time.Now()), ExternalID: &ext}
		require.NoError(t, repo.Create(ctx, tdb.Pool, m))

		tx, err := tdb.Pool.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		got, err := repo.LockByExternalID(ctx, tx, ext)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, m.ID, got.ID)

		missing, err := repo.LockByExternalID(ctx, tx, 999999999)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("update score of missing match is not found", func(t *testing.T) {
		err := repo.UpdateScore(ctx, tdb.Pool, uuid.New(), domain.Score{Home: 1, Away: 1})
		assert.True(t, domain.IsCode(err, domain.CodeNotFound))
	})
}

func TestMatchRepository_List(t *testing.T) {
	tdb := testutil.SetupTestDatabase(t)
	repo := NewMatchRepository()
	ctx := context.Background()

	late := newMatch(t, tdb.Pool, "A", "B", "2026-10-03T15:00", nil)
	early := newMatch(t, tdb.Pool, "C", "D", "2026-10-01T15:00", &domain.Score{Home: 2, Away: 2})
	mid := newMatch(t, tdb.Pool, "E", "F", "2026-10-02T15:00", nil)

	t.Run("kickoff order", func(t *testing.T) {
		list, err := repo.List(ctx, tdb.Pool, MatchFilter{})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []uuid.UUID{early.ID, mid.ID, late.ID}, []uuid.UUID{list[0].ID, list[1].ID, list[2].ID})
	})

	t.Run("finished filter", func(t *testing.T) {
		open := false
		list, err := repo.List(ctx, tdb.Pool, MatchFilter{Finished: &open})
		require.NoError(t, err)
		require.Len(t, list, 2)
		for _, m := range list {
			assert.False(t, m.Finalized())
		}
	})

	t.Run("range and limit", func(t *testing.T) {
		from, _ := domain.ParseLocalTime("2026-10-02T00:00")
		list, err := repo.List(ctx, tdb.Pool, MatchFilter{From: &from, Limit: 1})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, mid.ID, list[0].ID)
	})
}

func TestPredictionRepository(t *testing.T) {
	tdb := testutil.SetupTestDatabase(t)
	repo := NewPredictionRepository()
	ctx := context.Background()

	acc := newAccount(t, tdb.Pool, "dora")
	open := newMatch(t, tdb.Pool, "Arsenal", "Chelsea", "2026-10-20T19:45", nil)
	done := newMatch(t, tdb.Pool, "Leeds", "Everton", "2026-09-01T15:00", &domain.Score{Home: 1, Away: 0})

	t.Run("upsert creates then overwrites one row", func(t *testing.T) {
		first, created, err := repo.Upsert(ctx, tdb.Pool, &domain.Prediction{ID: uuid.New(), AccountID: acc.ID, MatchID: open.ID, PredictedHome: 1, PredictedAway: 1})
		require.NoError(t, err)
		assert.True(t, created)
		assert.Nil(t, first.UpdatedAt)

		second, created, err := repo.Upsert(ctx, tdb.Pool, &domain.Prediction{ID: uuid.New(), AccountID: acc.ID, MatchID: open.ID, PredictedHome: 3, PredictedAway: 0})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 3, second.PredictedHome)
		assert.NotNil(t, second.UpdatedAt)

		var n int
		require.NoError(t, tdb.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM predictions WHERE account_id = $1 AND match_id = $2`, acc.ID, open.ID).Scan(&n))
		assert.Equal(t, 1, n)
	})

	t.Run("negative guess is rejected by the schema", func(t *testing.T) {
		_, _, err := repo.Upsert(ctx, tdb.Pool, &domain.Prediction{ID: uuid.New(), AccountID: acc.ID, MatchID: done.ID, PredictedHome: -1, PredictedAway: 0})
		require.Error(t, err)
	})

	t.Run("list by account resolves status", func(t *testing.T) {
		_, _, err := repo.Upsert(ctx, tdb.Pool, &domain.Prediction{ID: uuid.New(), AccountID: acc.ID, MatchID: done.ID, PredictedHome: 1, PredictedAway: 0})
		require.NoError(t, err)

		list, err := repo.ListByAccount(ctx, tdb.Pool, acc.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, open.ID, list[0].MatchID)
		assert.Equal(t, domain.StatusPending, list[0].Status)
		assert.Equal(t, done.ID, list[1].MatchID)
		assert.Equal(t, domain.StatusHit, list[1].Status)
	})

	t.Run("list scored only covers finalized matches", func(t *testing.T) {
		scored, err := repo.ListScored(ctx, tdb.Pool, acc.ID)
		require.NoError(t, err)
		require.Len(t, scored, 1)
		assert.Equal(t, domain.Score{Home: 1, Away: 0}, scored[0].Final)
	})

	t.Run("deleting the match cascades", func(t *testing.T) {
		tmp := newMatch(t, tdb.Pool, "X", "Y", "2026-11-01T12:00", nil)
		p, _, err := repo.Upsert(ctx, tdb.Pool, &domain.Prediction{ID: uuid.New(), AccountID: acc.ID, MatchID: tmp.ID, PredictedHome: 0, PredictedAway: 0})
		require.NoError(t, err)

		_, err = tdb.Pool.Exec(ctx, `DELETE FROM matches WHERE id = $1`, tmp.ID)
		require.NoError(t, err)

		got, err := repo.FindByID(ctx, tdb.Pool, p.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete missing is not found", func(t *testing.T) {
		err := repo.Delete(ctx, tdb.Pool, uuid.New())
		assert.True(t, domain.IsCode(err, domain.CodeNotFound))
	})
}

func TestOutboxRepository(t *testing.T) {
	tdb := testutil.SetupTestDatabase(t)
	repo := NewOutboxRepository()
	ctx := context.Background()

	m := &domain.Match{ID: uuid.New(), HomeTeam: "A", AwayTeam: "B", MatchDate: domain.NewLocalTime(time.Now())}
	require.NoError(t, repo.Insert(ctx, tdb.Pool, domain.NewMatchCreatedEvent(m)))
	require.NoError(t, repo.Insert(ctx, tdb.Pool, domain.NewMatchFinalizedEvent(m)))

	store := OutboxStore{DB: tdb.Pool, Repo: repo}

	events, err := store.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Less(t, events[0].SeqID, events[1].SeqID)
	assert.Equal(t, m.ID.String(), events[0].AggregateID)
	assert.JSONEq(t, string(domain.NewMatchCreatedEvent(m).Payload), string(events[0].Payload))

	require.NoError(t, store.MarkPublished(ctx, []int64{events[0].SeqID}))

	rest, err := store.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, events[1].SeqID, rest[0].SeqID)
}
