package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/scorecast/platform/internal/auth"
	"github.com/scorecast/platform/internal/domain"
	"github.com/scorecast/platform/internal/policy"
	"github.com/scorecast/platform/internal/repository"
)

// AuthService handles account registration, login and credential changes.
type AuthService struct {
	pool     repository.Pool
	accounts repository.AccountRepository
	outbox   repository.OutboxRepository
	hasher   auth.PasswordHasher
	jwtMgr   *auth.JWTManager
	logger   *slog.Logger

	// dummyHash is compared against when the username is unknown so both
	// login failures cost one hash comparison.
	dummyHash func() (string, error)
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	pool repository.Pool,
	accounts repository.AccountRepository,
	outbox repository.OutboxRepository,
	hasher auth.PasswordHasher,
	jwtMgr *auth.JWTManager,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		pool:     pool,
		accounts: accounts,
		outbox:   outbox,
		hasher:   hasher,
		jwtMgr:   jwtMgr,
		logger:   logger,
		dummyHash: sync.OnceValues(func() (string, error) {
			return hasher.Hash("scorecast-unknown-account")
		}),
	}
}

// Credentials holds a username/password pair.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResult is returned on successful registration or login.
type AuthResult struct {
	Token   string          `json:"token"`
	Account *domain.Account `json:"account"`
}

// ChangePasswordInput holds a credential change request.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Register creates a USER account and returns a session token.
func (s *AuthService) Register(ctx context.Context, input Credentials) (*AuthResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	if err := domain.ValidateUsername(input.Username); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	account, err := s.CreateAccount(ctx, input.Username, input.Password, domain.RoleUser)
	if err != nil {
		return nil, err
	}

	token, err := s.jwtMgr.GenerateToken(account)
	if err != nil {
		return nil, domain.ErrInternal("generate token", err)
	}
	return &AuthResult{Token: token, Account: account}, nil
}

// CreateAccount hashes the password and inserts the account together with its
// registration event. A taken username yields CONFLICT.
func (s *AuthService) CreateAccount(ctx context.Context, username, password string, role domain.Role) (*domain.Account, error) {
	existing, err := s.accounts.FindByUsername(ctx, s.pool, username)
	if err != nil {
		return nil, domain.ErrInternal("find account", err)
	}
	if existing != nil {
		return nil, domain.ErrConflict("username already taken")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, domain.ErrInternal("hash password", err)
	}

	account := &domain.Account{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}

	err = inTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.accounts.Create(ctx, tx, account); err != nil {
			return internal("create account", err)
		}
		if err := s.outbox.Insert(ctx, tx, domain.NewAccountRegisteredEvent(account)); err != nil {
			return internal("insert outbox event", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account registered", "account_id", account.ID, "role", account.Role)
	return account, nil
}

// Login verifies credentials and returns a session token. Unknown usernames
// and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, input Credentials) (*AuthResult, error) {
	account, err := s.accounts.FindByUsername(ctx, s.pool, strings.TrimSpace(input.Username))
	if err != nil {
		return nil, domain.ErrInternal("find account", err)
	}
	if account == nil {
		if hash, err := s.dummyHash(); err == nil {
			_, _ = s.hasher.Verify(hash, input.Password)
		}
		return nil, domain.ErrUnauthorized("invalid username or password")
	}

	ok, err := s.hasher.Verify(account.PasswordHash, input.Password)
	if err != nil {
		return nil, domain.ErrInternal("verify password", err)
	}
	if !ok {
		return nil, domain.ErrUnauthorized("invalid username or password")
	}

	token, err := s.jwtMgr.GenerateToken(account)
	if err != nil {
		return nil, domain.ErrInternal("generate token", err)
	}
	return &AuthResult{Token: token, Account: account}, nil
}

// Me returns the caller's own account.
func (s *AuthService) Me(ctx context.Context, caller domain.Caller) (*domain.Account, error) {
	if err := policy.RequireAuthenticated(caller); err != nil {
		return nil, err
	}
	account, err := s.accounts.FindByID(ctx, s.pool, caller.AccountID)
	if err != nil {
		return nil, domain.ErrInternal("find account", err)
	}
	if account == nil {
		return nil, domain.ErrNotFound("account", caller.AccountID.String())
	}
	return account, nil
}

// ChangePassword replaces the caller's credential after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, caller domain.Caller, input ChangePasswordInput) error {
	account, err := s.Me(ctx, caller)
	if err != nil {
		return err
	}
	if err := domain.ValidatePassword(input.NewPassword); err != nil {
		return domain.ErrValidation(err.Error())
	}

	ok, err := s.hasher.Verify(account.PasswordHash, input.CurrentPassword)
	if err != nil {
		return domain.ErrInternal("verify password", err)
	}
	if !ok {
		return domain.ErrUnauthorized("current password is incorrect")
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return domain.ErrInternal("hash password", err)
	}
	if err := s.accounts.UpdatePasswordHash(ctx, s.pool, account.ID, hash); err != nil {
		return internal("update password", err)
	}

	s.logger.Info("password changed", "account_id", account.ID)
	return nil
}
