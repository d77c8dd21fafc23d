package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/scorecast/platform/internal/domain"
	"github.com/scorecast/platform/internal/repository"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ── transaction fakes ──

type fakePool struct {
	mu        sync.Mutex
	commits   int
	rollbacks int
	beginErr  error
}

func (p *fakePool) Begin(context.Context) (pgx.Tx, error) {
	if p.beginErr != nil {
		return nil, p.beginErr
	}
	return &fakeTx{pool: p}, nil
}

func (p *fakePool) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("fakePool: unexpected Exec")
}

func (p *fakePool) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("fakePool: unexpected Query")
}

func (p *fakePool) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return nil
}

// fakeTx satisfies pgx.Tx; only Commit and Rollback are ever called because
// the in-memory repositories ignore their DBTX argument.
type fakeTx struct {
	pgx.Tx
	pool *fakePool
	done bool
}

func (t *fakeTx) Commit(context.Context) error {
	t.pool.mu.Lock()
	defer t.pool.mu.Unlock()
	t.done = true
	t.pool.commits++
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.pool.mu.Lock()
	defer t.pool.mu.Unlock()
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.pool.rollbacks++
	return nil
}

// ── in-memory store ──

type memStore struct {
	mu          sync.Mutex
	accounts    map[uuid.UUID]domain.Account
	matches     map[uuid.UUID]domain.Match
	predictions map[uuid.UUID]domain.Prediction
	outbox      []domain.OutboxDraft
	matchWrites int

	// beforeMatchCreate runs inside Create before the uniqueness check.
	beforeMatchCreate func(m *domain.Match)
}

func newMemStore() *memStore {
	return &memStore{
		accounts:    map[uuid.UUID]domain.Account{},
		matches:     map[uuid.UUID]domain.Match{},
		predictions: map[uuid.UUID]domain.Prediction{},
	}
}

func (s *memStore) addMatch(home, away string, kickoff time.Time, score *domain.Score) domain.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := domain.Match{ID: uuid.New(), HomeTeam: home, AwayTeam: away, MatchDate: domain.NewLocalTime(kickoff), CreatedAt: time.Now()}
	m.SetScore(score)
	s.matches[m.ID] = m
	return m
}

func (s *memStore) match(id uuid.UUID) domain.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matches[id]
}

func (s *memStore) finalize(id uuid.UUID, score domain.Score) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.matches[id]
	m.SetScore(&score)
	s.matches[id] = m
}

func (s *memStore) predictionsFor(accountID, matchID uuid.UUID) []domain.Prediction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Prediction
	for _, p := range s.predictions {
		if p.AccountID == accountID && p.MatchID == matchID {
			out = append(out, p)
		}
	}
	return out
}

func (s *memStore) eventTypes() []domain.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.EventType, 0, len(s.outbox))
	for _, e := range s.outbox {
		out = append(out, e.EventType)
	}
	return out
}

func (s *memStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchWrites
}

func copyMatch(m domain.Match) *domain.Match {
	out := m
	if m.HomeScore != nil {
		h := *m.HomeScore
		out.HomeScore = &h
	}
	if m.AwayScore != nil {
		a := *m.AwayScore
		out.AwayScore = &a
	}
	if m.ExternalID != nil {
		e := *m.ExternalID
		out.ExternalID = &e
	}
	return &out
}

// ── accounts ──

type memAccounts struct{ s *memStore }

func (r memAccounts) Create(_ context.Context, _ repository.DBTX, a *domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.accounts {
		if existing.Username == a.Username {
			return domain.ErrConflict("username already taken")
		}
	}
	a.CreatedAt = time.Now()
	r.s.accounts[a.ID] = *a
	return nil
}

func (r memAccounts) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r memAccounts) FindByUsername(_ context.Context, _ repository.DBTX, username string) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.Username == username {
			a := a
			return &a, nil
		}
	}
	return nil, nil
}

func (r memAccounts) UpdatePasswordHash(_ context.Context, _ repository.DBTX, id uuid.UUID, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return domain.ErrNotFound("account", id.String())
	}
	a.PasswordHash = hash
	r.s.accounts[id] = a
	return nil
}

func (r memAccounts) DeleteAll(context.Context, repository.DBTX) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := int64(len(r.s.accounts))
	r.s.accounts = map[uuid.UUID]domain.Account{}
	r.s.predictions = map[uuid.UUID]domain.Prediction{}
	return n, nil
}

// ── matches ──

type memMatches struct{ s *memStore }

func (r memMatches) Create(_ context.Context, _ repository.DBTX, m *domain.Match) error {
	if hook := r.s.beforeMatchCreate; hook != nil {
		hook(m)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m.ExternalID != nil {
		for _, existing := range r.s.matches {
			if existing.ExternalID != nil && *existing.ExternalID == *m.ExternalID {
				return domain.ErrConflict("external id already imported")
			}
		}
	}
	m.CreatedAt = time.Now()
	r.s.matches[m.ID] = *copyMatch(*m)
	r.s.matchWrites++
	return nil
}

func (r memMatches) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, nil
	}
	return copyMatch(m), nil
}

func (r memMatches) LockForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*domain.Match, error) {
	return r.FindByID(ctx, nil, id)
}

func (r memMatches) LockForShare(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*domain.Match, error) {
	return r.FindByID(ctx, nil, id)
}

func (r memMatches) LockByExternalID(_ context.Context, _ pgx.Tx, externalID int64) (*domain.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.matches {
		if m.ExternalID != nil && *m.ExternalID == externalID {
			return copyMatch(m), nil
		}
	}
	return nil, nil
}

func (r memMatches) Update(_ context.Context, _ repository.DBTX, m *domain.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.matches[m.ID]
	if !ok {
		return domain.ErrNotFound("match", m.ID.String())
	}
	updated := *copyMatch(*m)
	updated.ExternalID = existing.ExternalID
	updated.CreatedAt = existing.CreatedAt
	r.s.matches[m.ID] = updated
	r.s.matchWrites++
	return nil
}

func (r memMatches) UpdateScore(_ context.Context, _ repository.DBTX, id uuid.UUID, score domain.Score) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return domain.ErrNotFound("match", id.String())
	}
	m.SetScore(&score)
	r.s.matches[id] = m
	r.s.matchWrites++
	return nil
}

func (r memMatches) List(_ context.Context, _ repository.DBTX, f repository.MatchFilter) ([]domain.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Match
	for _, m := range r.s.matches {
		if f.Finished != nil && m.Finalized() != *f.Finished {
			continue
		}
		if f.From != nil && m.MatchDate.Before(f.From.Time) {
			continue
		}
		if f.To != nil && m.MatchDate.After(f.To.Time) {
			continue
		}
		out = append(out, *copyMatch(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchDate.Before(out[j].MatchDate.Time) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r memMatches) DeleteAll(context.Context, repository.DBTX) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := int64(len(r.s.matches))
	r.s.matches = map[uuid.UUID]domain.Match{}
	r.s.predictions = map[uuid.UUID]domain.Prediction{}
	return n, nil
}

// ── predictions ──

type memPredictions struct{ s *memStore }

func (r memPredictions) Upsert(_ context.Context, _ repository.DBTX, p *domain.Prediction) (*domain.Prediction, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, existing := range r.s.predictions {
		if existing.AccountID == p.AccountID && existing.MatchID == p.MatchID {
			now := time.Now()
			existing.PredictedHome = p.PredictedHome
			existing.PredictedAway = p.PredictedAway
			existing.UpdatedAt = &now
			r.s.predictions[id] = existing
			out := existing
			return &out, false, nil
		}
	}
	created := *p
	created.CreatedAt = time.Now()
	created.UpdatedAt = nil
	r.s.predictions[created.ID] = created
	return &created, true, nil
}

func (r memPredictions) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.Prediction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.predictions[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r memPredictions) Delete(_ context.Context, _ repository.DBTX, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.predictions[id]; !ok {
		return domain.ErrNotFound("prediction", id.String())
	}
	delete(r.s.predictions, id)
	return nil
}

func (r memPredictions) ListByAccount(_ context.Context, _ repository.DBTX, accountID uuid.UUID) ([]domain.PredictionWithMatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.PredictionWithMatch
	for _, p := range r.s.predictions {
		if p.AccountID != accountID {
			continue
		}
		m := r.s.matches[p.MatchID]
		pm := domain.PredictionWithMatch{
			Prediction: p,
			HomeTeam:   m.HomeTeam,
			AwayTeam:   m.AwayTeam,
			MatchDate:  m.MatchDate,
			HomeScore:  m.HomeScore,
			AwayScore:  m.AwayScore,
		}
		pm.ResolveStatus()
		out = append(out, pm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchDate.After(out[j].MatchDate.Time) })
	return out, nil
}

func (r memPredictions) ListScored(_ context.Context, _ repository.DBTX, accountID uuid.UUID) ([]domain.ScoredPrediction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.ScoredPrediction
	for _, p := range r.s.predictions {
		if p.AccountID != accountID {
			continue
		}
		m := r.s.matches[p.MatchID]
		final, ok := m.FinalScore()
		if !ok {
			continue
		}
		out = append(out, domain.ScoredPrediction{Guess: p.Guess(), Final: final})
	}
	return out, nil
}

// ── outbox ──

type memOutbox struct{ s *memStore }

func (r memOutbox) Insert(_ context.Context, _ repository.DBTX, d domain.OutboxDraft) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.outbox = append(r.s.outbox, d)
	return nil
}

func (r memOutbox) FetchUnpublished(context.Context, repository.DBTX, int) ([]domain.OutboxRecord, error) {
	return nil, nil
}

func (r memOutbox) MarkPublished(context.Context, repository.DBTX, []int64) error { return nil }

// ── feed mock ──

type MockFixtureFeed struct {
	mock.Mock
}

func (m *MockFixtureFeed) FetchFixtures(ctx context.Context, competition string, from, to time.Time) (*domain.FeedBatch, error) {
	args := m.Called(ctx, competition, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeedBatch), args.Error(1)
}

// ── callers ──

func userCaller() domain.Caller {
	return domain.Caller{AccountID: uuid.New(), Role: domain.RoleUser}
}

func adminCaller() domain.Caller {
	return domain.Caller{AccountID: uuid.New(), Role: domain.RoleAdmin}
}
