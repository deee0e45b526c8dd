package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"school/api/internal/config"
	"school/api/internal/models"
	"school/api/internal/repository"
	"school/api/internal/sessions"
)

// memAccounts is an in-memory account store satisfying both AccountStore
// and AccountAdminStore. Email uniqueness is enforced the way the
// database does it, so duplicate inserts surface ErrDuplicateEmail.
type memAccounts struct {
	mu     sync.Mutex
	seq    int64
	byID   map[int64]models.Account
	noLock bool // skip serialization in WithBootstrapLock
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: map[int64]models.Account{}}
}

func (m *memAccounts) List(ctx context.Context) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Account, 0, len(m.byID))
	for _, a := range m.byID {
		out = append(out, a)
	}
	return out, nil
}

func (m *memAccounts) GetByID(ctx context.Context, id int64) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return models.Account{}, repository.ErrAccountNotFound
	}
	return a, nil
}

func (m *memAccounts) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return models.Account{}, repository.ErrAccountNotFound
}

func (m *memAccounts) Create(ctx context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Email == account.Email {
			return repository.ErrDuplicateEmail
		}
	}
	m.seq++
	account.ID = m.seq
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	m.byID[account.ID] = *account
	return nil
}

func (m *memAccounts) Update(ctx context.Context, account models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[account.ID]; !ok {
		return repository.ErrAccountNotFound
	}
	for id, a := range m.byID {
		if id != account.ID && a.Email == account.Email {
			return repository.ErrDuplicateEmail
		}
	}
	account.UpdatedAt = time.Now()
	m.byID[account.ID] = account
	return nil
}

func (m *memAccounts) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	a.PasswordHash = passwordHash
	m.byID[id] = a
	return nil
}

func (m *memAccounts) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrAccountNotFound
	}
	delete(m.byID, id)
	return nil
}

var bootstrapLock sync.Mutex

func (m *memAccounts) WithBootstrapLock(ctx context.Context, fn func(context.Context) error) error {
	if m.noLock {
		return fn(ctx)
	}
	bootstrapLock.Lock()
	defer bootstrapLock.Unlock()
	return fn(ctx)
}

// memSessions records issued and revoked sessions.
type memSessions struct {
	mu         sync.Mutex
	seq        int
	created    []int64
	deleted    []string
	deletedAll []int64
	createErr  error
}

func (m *memSessions) Create(ctx context.Context, accountID int64, remember bool) (sessions.Session, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return sessions.Session{}, "", m.createErr
	}
	m.seq++
	token := fmt.Sprintf("token-%d", m.seq)
	m.created = append(m.created, accountID)
	return sessions.Session{ID: token, AccountID: accountID, Remember: remember}, token, nil
}

func (m *memSessions) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, token)
	return nil
}

func (m *memSessions) DeleteAll(ctx context.Context, accountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedAll = append(m.deletedAll, accountID)
	return nil
}

// memTokenUsage emulates the one-shot redeem marker.
type memTokenUsage struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *memTokenUsage) FirstUse(ctx context.Context, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[value] {
		return false, nil
	}
	m.seen[value] = true
	return true, nil
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			SecretKey:        "test-secret",
			SessionTTL:       12 * time.Hour,
			RememberTTL:      7 * 24 * time.Hour,
			ResetTokenMaxAge: time.Hour,
			PasswordPolicy:   "pin6",
			CookieName:       "school_session",
		},
		Bootstrap: config.BootstrapConfig{
			Email:    "diretoria@school.com",
			Name:     "Diretoria",
			Password: "123456",
		},
	}
}
