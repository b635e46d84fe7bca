package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"expensetracker/internal/auth"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

// AccountStore persists credentials.
type AccountStore interface {
	CreateAccount(ctx context.Context, email, username, passwordHash string) (core.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (core.Account, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
}

// AccountService registers accounts and opens and closes sessions.
type AccountService struct {
	store      AccountStore
	sessions   auth.SessionStore
	hasher     PasswordHasher
	sessionTTL time.Duration
	now        func() time.Time
	logger     *log.Logger
}

func NewAccountService(store AccountStore, sessions auth.SessionStore, hasher PasswordHasher, sessionTTL time.Duration, logger *log.Logger) *AccountService {
	return &AccountService{
		store:      store,
		sessions:   sessions,
		hasher:     hasher,
		sessionTTL: sessionTTL,
		now:        time.Now,
		logger:     logger.WithComponent(log.ComponentAccount),
	}
}

// Register creates an account. A duplicate email yields core.ErrAccountExists
// from the store's unique constraint; there is no separate existence check.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (core.Account, error) {
	if err := core.ValidateRegistration(in.Email, in.Username, in.Password); err != nil {
		return core.Account{}, err
	}
	email := core.NormalizeEmail(in.Email)

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return core.Account{}, err
	}

	account, err := s.store.CreateAccount(ctx, email, strings.TrimSpace(in.Username), hash)
	if err != nil {
		if core.KindOf(err) == core.KindConflict {
			s.logger.InfoContext(ctx, "Registration rejected, email already registered", log.FieldOperation, log.OpRegister)
		}
		return core.Account{}, fmt.Errorf("register: %w", err)
	}

	s.logger.InfoContext(ctx, "Account registered",
		log.FieldOperation, log.OpRegister,
		log.FieldAccountID, account.ID)
	return account, nil
}

// Login checks the credentials and stores a new session.
func (s *AccountService) Login(ctx context.Context, email, password string) (core.Session, error) {
	if err := core.ValidateLogin(email, password); err != nil {
		return core.Session{}, err
	}

	account, err := s.store.GetAccountByEmail(ctx, core.NormalizeEmail(email))
	if err != nil {
		return core.Session{}, fmt.Errorf("login: %w", err)
	}

	if err := s.hasher.Compare(account.PasswordHash, password); err != nil {
		if core.KindOf(err) == core.KindAuth {
			s.logger.WarnContext(ctx, "Login failed, wrong password",
				log.FieldOperation, log.OpLogin,
				log.FieldAccountID, account.ID)
		}
		return core.Session{}, err
	}

	session, err := auth.NewSession(account.ID, s.sessionTTL, s.now())
	if err != nil {
		return core.Session{}, err
	}
	if err := s.sessions.Put(ctx, session); err != nil {
		return core.Session{}, fmt.Errorf("store session: %w", err)
	}

	s.logger.InfoContext(ctx, "Session opened",
		log.FieldOperation, log.OpLogin,
		log.FieldAccountID, account.ID,
		"expires_at", session.ExpiresAt)
	return session, nil
}

// Logout invalidates token. Unknown tokens are ignored.
func (s *AccountService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Invalidate(ctx, token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.logger.InfoContext(ctx, "Session closed", log.FieldOperation, log.OpLogout)
	return nil
}
