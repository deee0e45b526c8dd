package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"school/api/internal/config"
	"school/api/internal/models"
	"school/api/internal/repository"
	"school/api/internal/security"
	"school/api/internal/sessions"
)

// AccountStore is the slice of the account repository the auth flows
// need.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (models.Account, error)
	GetByID(ctx context.Context, id int64) (models.Account, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// SessionWriter issues and revokes sessions.
type SessionWriter interface {
	Create(ctx context.Context, accountID int64, remember bool) (sessions.Session, string, error)
	Delete(ctx context.Context, token string) error
}

// TokenUsage marks reset tokens as redeemed so each token works once.
type TokenUsage interface {
	FirstUse(ctx context.Context, value string, ttl time.Duration) (bool, error)
}

type AuthService struct {
	accounts AccountStore
	sessions SessionWriter
	used     TokenUsage
	codec    *security.ResetCodec
	policy   security.PasswordPolicy
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAuthService(
	accounts AccountStore,
	sessionStore SessionWriter,
	used TokenUsage,
	codec *security.ResetCodec,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		accounts: accounts,
		sessions: sessionStore,
		used:     used,
		codec:    codec,
		policy:   security.PasswordPolicy(cfg.Security.PasswordPolicy),
		cfg:      cfg,
		log:      log,
	}
}

type LoginInput struct {
	Email    string
	Password string
	Remember bool
}

type LoginResult struct {
	Token   string
	Session sessions.Session
	Account models.Account
}

// Login verifies credentials and issues a session. An unknown email and
// a wrong password produce the same ErrInvalidCredentials; an inactive
// account is reported as such only after the password check succeeds.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	email := normalizeEmail(input.Email)

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if !security.VerifyPassword(input.Password, account.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}

	if !account.Active {
		return LoginResult{}, ErrAccountInactive
	}

	session, token, err := s.sessions.Create(ctx, account.ID, input.Remember)
	if err != nil {
		return LoginResult{}, err
	}

	s.log.Info().
		Int64("account_id", account.ID).
		Bool("remember", input.Remember).
		Msg("login succeeded")

	return LoginResult{Token: token, Session: session, Account: account}, nil
}

// Logout revokes the session for the token. Absent or already-revoked
// sessions are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

// ForgotPassword issues a reset token when the email belongs to an
// account. The caller must never surface whether a token was issued;
// the empty return with nil error is the no-such-account case.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	account, err := s.accounts.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return "", nil
		}
		return "", err
	}

	token, err := s.codec.Issue(account.Email)
	if err != nil {
		return "", err
	}
	return token, nil
}

type ResetPasswordInput struct {
	Token    string
	Password string
	Confirm  string
}

// ResetPassword redeems a reset token and installs a new password. A
// token is honored at most once within its validity window.
func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if input.Password != input.Confirm {
		return ErrPasswordMismatch
	}
	if err := s.policy.Validate(input.Password); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	email, err := s.codec.Redeem(input.Token, s.cfg.Security.ResetTokenMaxAge)
	if err != nil {
		return ErrInvalidOrExpiredToken
	}

	first, err := s.used.FirstUse(ctx, input.Token, s.cfg.Security.ResetTokenMaxAge)
	if err != nil {
		return err
	}
	if !first {
		return ErrInvalidOrExpiredToken
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return err
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return err
	}
	return s.accounts.UpdatePassword(ctx, account.ID, hash)
}

type ChangePasswordInput struct {
	AccountID int64
	Current   string
	New       string
	Confirm   string
}

// ChangePassword lets an authenticated account replace its own
// password after proving the current one.
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	if input.New != input.Confirm {
		return ErrPasswordMismatch
	}
	if err := s.policy.Validate(input.New); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	account, err := s.accounts.GetByID(ctx, input.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrUnauthenticated
		}
		return err
	}

	if !security.VerifyPassword(input.Current, account.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := security.HashPassword(input.New)
	if err != nil {
		return err
	}
	return s.accounts.UpdatePassword(ctx, account.ID, hash)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
