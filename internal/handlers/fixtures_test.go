package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"school/api/internal/config"
	"school/api/internal/models"
	"school/api/internal/repository"
	"school/api/internal/security"
	"school/api/internal/service"
	"school/api/internal/sessions"
)

// fakeAccounts backs the account repository surfaces with a map.
type fakeAccounts struct {
	mu   sync.Mutex
	seq  int64
	byID map[int64]models.Account
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byID: map[int64]models.Account{}}
}

func (f *fakeAccounts) List(ctx context.Context) ([]models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Account, 0, len(f.byID))
	for _, a := range f.byID {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAccounts) GetByID(ctx context.Context, id int64) (models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return models.Account{}, repository.ErrAccountNotFound
	}
	return a, nil
}

func (f *fakeAccounts) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return models.Account{}, repository.ErrAccountNotFound
}

func (f *fakeAccounts) Create(ctx context.Context, account *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.Email == account.Email {
			return repository.ErrDuplicateEmail
		}
	}
	f.seq++
	account.ID = f.seq
	f.byID[account.ID] = *account
	return nil
}

func (f *fakeAccounts) Update(ctx context.Context, account models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[account.ID]; !ok {
		return repository.ErrAccountNotFound
	}
	f.byID[account.ID] = account
	return nil
}

func (f *fakeAccounts) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	a.PasswordHash = passwordHash
	f.byID[id] = a
	return nil
}

func (f *fakeAccounts) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrAccountNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeAccounts) WithBootstrapLock(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// fakeSessions keeps sessions in a map and hands out sequential tokens.
type fakeSessions struct {
	mu      sync.Mutex
	seq     int
	byToken map[string]sessions.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byToken: map[string]sessions.Session{}}
}

func (f *fakeSessions) Create(ctx context.Context, accountID int64, remember bool) (sessions.Session, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	token := fmt.Sprintf("tok-%d", f.seq)
	session := sessions.Session{ID: token, AccountID: accountID, Remember: remember}
	f.byToken[token] = session
	return session, token, nil
}

func (f *fakeSessions) Get(ctx context.Context, token string) (sessions.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.byToken[token]
	if !ok {
		return sessions.Session{}, sessions.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeSessions) Delete(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byToken, token)
	return nil
}

func (f *fakeSessions) DeleteAll(ctx context.Context, accountID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, session := range f.byToken {
		if session.AccountID == accountID {
			delete(f.byToken, token)
		}
	}
	return nil
}

type fakeTokenUsage struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (f *fakeTokenUsage) FirstUse(ctx context.Context, value string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[value] {
		return false, nil
	}
	f.seen[value] = true
	return true, nil
}

type fixture struct {
	router   *gin.Engine
	accounts *fakeAccounts
	sessions *fakeSessions
	cfg      *config.AppConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.AppConfig{
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

	accounts := newFakeAccounts()
	sess := newFakeSessions()
	logger := zerolog.Nop()
	codec := security.NewResetCodec(cfg.Security.SecretKey)

	authSvc := service.NewAuthService(accounts, sess, &fakeTokenUsage{}, codec, cfg, logger)
	accountSvc := service.NewAccountService(accounts, sess, cfg, logger)
	scheduleSvc := service.NewScheduleService(fakeScheduleStore{})
	tuitionSvc := service.NewTuitionService(fakeTuitionStore{})

	h := NewHandlerSet(logger, cfg, authSvc, accountSvc, scheduleSvc, tuitionSvc, sess, accounts, nil, nil)

	router := gin.New()
	h.Register(router.Group("/api"))

	return &fixture{router: router, accounts: accounts, sessions: sess, cfg: cfg}
}

// seed inserts an account directly into the fake store.
func (f *fixture) seed(t *testing.T, email, password string, role models.Role, active bool) models.Account {
	t.Helper()
	hash, err := security.HashPassword(password)
	require.NoError(t, err)
	account := models.Account{
		Email:        email,
		Name:         "Seeded",
		PasswordHash: hash,
		Role:         role,
		Active:       active,
	}
	require.NoError(t, f.accounts.Create(context.Background(), &account))
	return account
}

// login runs the real login flow and returns the session cookie.
func (f *fixture) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	w := f.postForm("/api/v1/auth/login", url.Values{
		"email":    {email},
		"password": {password},
	}, nil)
	require.Equal(t, http.StatusSeeOther, w.Code)

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == f.cfg.Security.CookieName {
			return cookie
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func (f *fixture) postForm(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) putForm(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("PUT", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) delete(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("DELETE", path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// Minimal stores for the routes these tests do not exercise.
type fakeScheduleStore struct{}

func (fakeScheduleStore) List(ctx context.Context) ([]models.Schedule, error) { return nil, nil }
func (fakeScheduleStore) GetByID(ctx context.Context, id int64) (models.Schedule, error) {
	return models.Schedule{}, repository.ErrScheduleNotFound
}
func (fakeScheduleStore) Create(ctx context.Context, schedule *models.Schedule) error { return nil }
func (fakeScheduleStore) Update(ctx context.Context, schedule models.Schedule) error {
	return repository.ErrScheduleNotFound
}
func (fakeScheduleStore) Delete(ctx context.Context, id int64) error {
	return repository.ErrScheduleNotFound
}

type fakeTuitionStore struct{}

func (fakeTuitionStore) List(ctx context.Context) ([]models.TuitionTier, error) { return nil, nil }
func (fakeTuitionStore) GetByID(ctx context.Context, id int64) (models.TuitionTier, error) {
	return models.TuitionTier{}, repository.ErrTuitionTierNotFound
}
func (fakeTuitionStore) Create(ctx context.Context, tier *models.TuitionTier) error { return nil }
func (fakeTuitionStore) Update(ctx context.Context, tier models.TuitionTier) error {
	return repository.ErrTuitionTierNotFound
}
func (fakeTuitionStore) Delete(ctx context.Context, id int64) error {
	return repository.ErrTuitionTierNotFound
}
