package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"school/api/internal/config"
	"school/api/internal/models"
	"school/api/internal/repository"
	"school/api/internal/security"
)

// AccountAdminStore is the account repository surface for the
// Director-only CRUD screens and the startup seed.
type AccountAdminStore interface {
	List(ctx context.Context) ([]models.Account, error)
	GetByID(ctx context.Context, id int64) (models.Account, error)
	FindByEmail(ctx context.Context, email string) (models.Account, error)
	Create(ctx context.Context, account *models.Account) error
	Update(ctx context.Context, account models.Account) error
	Delete(ctx context.Context, id int64) error
	WithBootstrapLock(ctx context.Context, fn func(context.Context) error) error
}

// SessionRevoker drops every session an account holds.
type SessionRevoker interface {
	DeleteAll(ctx context.Context, accountID int64) error
}

type AccountService struct {
	accounts AccountAdminStore
	sessions SessionRevoker
	policy   security.PasswordPolicy
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAccountService(
	accounts AccountAdminStore,
	sessionRevoker SessionRevoker,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AccountService {
	return &AccountService{
		accounts: accounts,
		sessions: sessionRevoker,
		policy:   security.PasswordPolicy(cfg.Security.PasswordPolicy),
		cfg:      cfg,
		log:      log,
	}
}

func (s *AccountService) List(ctx context.Context) ([]models.Account, error) {
	return s.accounts.List(ctx)
}

func (s *AccountService) Get(ctx context.Context, id int64) (models.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return models.Account{}, ErrNotFound
	}
	return account, err
}

type CreateAccountInput struct {
	Email    string
	Name     string
	Password string
	Confirm  string
	Role     models.Role
}

func (s *AccountService) Create(ctx context.Context, input CreateAccountInput) (models.Account, error) {
	if input.Password != input.Confirm {
		return models.Account{}, ErrPasswordMismatch
	}
	if err := s.policy.Validate(input.Password); err != nil {
		return models.Account{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if !models.ValidRole(input.Role) {
		return models.Account{}, fmt.Errorf("%w: unknown role %q", ErrMalformedInput, input.Role)
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.Account{}, err
	}

	account := models.Account{
		Email:        normalizeEmail(input.Email),
		Name:         input.Name,
		PasswordHash: hash,
		Role:         input.Role,
		Active:       true,
	}

	if err := s.accounts.Create(ctx, &account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return models.Account{}, ErrDuplicateEmail
		}
		return models.Account{}, err
	}
	return account, nil
}

type UpdateAccountInput struct {
	Email  string
	Name   string
	Role   models.Role
	Active bool
}

// Update rewrites profile fields. The bootstrap account keeps its email
// address; changing it would orphan the delete protection and the seed.
func (s *AccountService) Update(ctx context.Context, id int64, input UpdateAccountInput) (models.Account, error) {
	if !models.ValidRole(input.Role) {
		return models.Account{}, fmt.Errorf("%w: unknown role %q", ErrMalformedInput, input.Role)
	}

	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return models.Account{}, ErrNotFound
		}
		return models.Account{}, err
	}

	email := normalizeEmail(input.Email)
	if s.isBootstrap(account) && email != account.Email {
		return models.Account{}, ErrBootstrapProtected
	}

	wasActive := account.Active

	account.Email = email
	account.Name = input.Name
	account.Role = input.Role
	account.Active = input.Active

	if err := s.accounts.Update(ctx, account); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return models.Account{}, ErrDuplicateEmail
		case errors.Is(err, repository.ErrAccountNotFound):
			return models.Account{}, ErrNotFound
		}
		return models.Account{}, err
	}

	// Deactivation revokes live sessions; an inactive account must not
	// keep an authenticated client.
	if wasActive && !account.Active {
		if err := s.sessions.DeleteAll(ctx, account.ID); err != nil {
			s.log.Warn().Err(err).Int64("account_id", account.ID).Msg("revoke sessions failed")
		}
	}

	return account, nil
}

// Delete removes an account. The bootstrap Director and the calling
// account itself are refused.
func (s *AccountService) Delete(ctx context.Context, id int64, actorID int64) error {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrNotFound
		}
		return err
	}

	if s.isBootstrap(account) {
		return ErrBootstrapProtected
	}
	if account.ID == actorID {
		return ErrSelfDelete
	}

	if err := s.accounts.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.sessions.DeleteAll(ctx, id); err != nil {
		s.log.Warn().Err(err).Int64("account_id", id).Msg("revoke sessions failed")
	}
	return nil
}

// EnsureBootstrap guarantees exactly one active Director account with
// the configured bootstrap email, creating or normalizing it. Safe
// under concurrent startups: workers serialize on an advisory lock, and
// a lost insert race is absorbed through the unique-email constraint.
func (s *AccountService) EnsureBootstrap(ctx context.Context) error {
	return s.accounts.WithBootstrapLock(ctx, s.seedBootstrap)
}

func (s *AccountService) seedBootstrap(ctx context.Context) error {
	email := normalizeEmail(s.cfg.Bootstrap.Email)

	existing, err := s.accounts.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return s.normalizeBootstrap(ctx, existing)
	case errors.Is(err, repository.ErrAccountNotFound):
		// fall through to create
	default:
		return err
	}

	hash, err := security.HashPassword(s.cfg.Bootstrap.Password)
	if err != nil {
		return err
	}

	account := models.Account{
		Email:        email,
		Name:         s.cfg.Bootstrap.Name,
		PasswordHash: hash,
		Role:         models.RoleDirector,
		Active:       true,
	}

	if err := s.accounts.Create(ctx, &account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// Another worker won the race; normalize what it left.
			existing, findErr := s.accounts.FindByEmail(ctx, email)
			if findErr != nil {
				return findErr
			}
			return s.normalizeBootstrap(ctx, existing)
		}
		return err
	}

	s.log.Info().Str("email", email).Msg("bootstrap account created")
	return nil
}

func (s *AccountService) normalizeBootstrap(ctx context.Context, account models.Account) error {
	if account.Role == models.RoleDirector && account.Active {
		return nil
	}
	account.Role = models.RoleDirector
	account.Active = true
	if err := s.accounts.Update(ctx, account); err != nil {
		return err
	}
	s.log.Info().Int64("account_id", account.ID).Msg("bootstrap account normalized")
	return nil
}

func (s *AccountService) isBootstrap(account models.Account) bool {
	return account.Email == normalizeEmail(s.cfg.Bootstrap.Email)
}
