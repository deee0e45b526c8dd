package service

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school/api/internal/models"
	"school/api/internal/security"
)

func newAccountFixture(t *testing.T) (*AccountService, *memAccounts, *memSessions) {
	t.Helper()
	accounts := newMemAccounts()
	sess := &memSessions{}
	svc := NewAccountService(accounts, sess, testConfig(), zerolog.Nop())
	return svc, accounts, sess
}

func TestAccountServiceCreate(t *testing.T) {
	svc, _, _ := newAccountFixture(t)

	account, err := svc.Create(context.Background(), CreateAccountInput{
		Email:    "  JOAO@School.com ",
		Name:     "João",
		Password: "123456",
		Confirm:  "123456",
		Role:     models.RoleStudent,
	})
	require.NoError(t, err)
	assert.Equal(t, "joao@school.com", account.Email)
	assert.Equal(t, models.RoleStudent, account.Role)
	assert.True(t, account.Active)
	assert.NotZero(t, account.ID)
	assert.True(t, security.VerifyPassword("123456", account.PasswordHash))
}

func TestAccountServiceCreate_Validation(t *testing.T) {
	svc, _, _ := newAccountFixture(t)

	_, err := svc.Create(context.Background(), CreateAccountInput{
		Email: "a@school.com", Name: "A", Password: "123456", Confirm: "654321",
		Role: models.RoleStudent,
	})
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	_, err = svc.Create(context.Background(), CreateAccountInput{
		Email: "a@school.com", Name: "A", Password: "12345", Confirm: "12345",
		Role: models.RoleStudent,
	})
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = svc.Create(context.Background(), CreateAccountInput{
		Email: "a@school.com", Name: "A", Password: "123456", Confirm: "123456",
		Role: models.Role("janitor"),
	})
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestAccountServiceCreate_DuplicateEmailLeavesOriginal(t *testing.T) {
	svc, accounts, _ := newAccountFixture(t)

	first, err := svc.Create(context.Background(), CreateAccountInput{
		Email: "joao@school.com", Name: "João", Password: "123456", Confirm: "123456",
		Role: models.RoleStudent,
	})
	require.NoError(t, err)

	// Same address in different case collides and changes nothing.
	_, err = svc.Create(context.Background(), CreateAccountInput{
		Email: "JOAO@school.com", Name: "Impostor", Password: "654321", Confirm: "654321",
		Role: models.RoleTeacher,
	})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	stored, err := accounts.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, "João", stored.Name)
	assert.Equal(t, models.RoleStudent, stored.Role)
	assert.True(t, security.VerifyPassword("123456", stored.PasswordHash))

	all, err := accounts.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAccountServiceUpdate(t *testing.T) {
	svc, _, sess := newAccountFixture(t)

	account, err := svc.Create(context.Background(), CreateAccountInput{
		Email: "joao@school.com", Name: "João", Password: "123456", Confirm: "123456",
		Role: models.RoleStudent,
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), account.ID, UpdateAccountInput{
		Email: "joao@school.com", Name: "João Silva", Role: models.RoleTeacher, Active: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "João Silva", updated.Name)
	assert.Equal(t, models.RoleTeacher, updated.Role)
	assert.Empty(t, sess.deletedAll)

	// Deactivation drops every live session the account holds.
	_, err = svc.Update(context.Background(), account.ID, UpdateAccountInput{
		Email: "joao@school.com", Name: "João Silva", Role: models.RoleTeacher, Active: false,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{account.ID}, sess.deletedAll)
}

func TestAccountServiceUpdate_BootstrapEmailImmutable(t *testing.T) {
	svc, accounts, _ := newAccountFixture(t)
	require.NoError(t, svc.EnsureBootstrap(context.Background()))

	boot, err := accounts.FindByEmail(context.Background(), "diretoria@school.com")
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), boot.ID, UpdateAccountInput{
		Email: "elsewhere@school.com", Name: boot.Name, Role: models.RoleDirector, Active: true,
	})
	assert.ErrorIs(t, err, ErrBootstrapProtected)

	// Other fields remain editable.
	_, err = svc.Update(context.Background(), boot.ID, UpdateAccountInput{
		Email: "diretoria@school.com", Name: "Direção", Role: models.RoleDirector, Active: true,
	})
	assert.NoError(t, err)
}

func TestAccountServiceDelete(t *testing.T) {
	svc, accounts, sess := newAccountFixture(t)

	account, err := svc.Create(context.Background(), CreateAccountInput{
		Email: "joao@school.com", Name: "João", Password: "123456", Confirm: "123456",
		Role: models.RoleStudent,
	})
	require.NoError(t, err)

	actor := seedAccount(t, accounts, "diretoria2@school.com", "123456", models.RoleDirector, true)

	require.NoError(t, svc.Delete(context.Background(), account.ID, actor.ID))
	assert.Equal(t, []int64{account.ID}, sess.deletedAll)

	err = svc.Delete(context.Background(), account.ID, actor.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccountServiceDelete_Refusals(t *testing.T) {
	svc, accounts, _ := newAccountFixture(t)
	require.NoError(t, svc.EnsureBootstrap(context.Background()))

	boot, err := accounts.FindByEmail(context.Background(), "diretoria@school.com")
	require.NoError(t, err)
	actor := seedAccount(t, accounts, "other@school.com", "123456", models.RoleDirector, true)

	assert.ErrorIs(t, svc.Delete(context.Background(), boot.ID, actor.ID), ErrBootstrapProtected)
	assert.ErrorIs(t, svc.Delete(context.Background(), actor.ID, actor.ID), ErrSelfDelete)
}

func TestAccountServiceEnsureBootstrap(t *testing.T) {
	svc, accounts, _ := newAccountFixture(t)

	require.NoError(t, svc.EnsureBootstrap(context.Background()))

	boot, err := accounts.FindByEmail(context.Background(), "diretoria@school.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleDirector, boot.Role)
	assert.True(t, boot.Active)
	assert.True(t, security.VerifyPassword("123456", boot.PasswordHash))

	// Second run is a no-op.
	require.NoError(t, svc.EnsureBootstrap(context.Background()))
	all, err := accounts.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAccountServiceEnsureBootstrap_NormalizesExisting(t *testing.T) {
	svc, accounts, _ := newAccountFixture(t)

	// A demoted, deactivated account under the bootstrap email gets its
	// role and status restored. The password is left alone.
	seeded := seedAccount(t, accounts, "diretoria@school.com", "999999", models.RoleStudent, false)

	require.NoError(t, svc.EnsureBootstrap(context.Background()))

	boot, err := accounts.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleDirector, boot.Role)
	assert.True(t, boot.Active)
	assert.True(t, security.VerifyPassword("999999", boot.PasswordHash))
}

func TestAccountServiceEnsureBootstrap_Concurrent(t *testing.T) {
	// The store's lock is disabled so the goroutines genuinely race; the
	// unique-email constraint is what keeps the seed single.
	accounts := newMemAccounts()
	accounts.noLock = true
	svc := NewAccountService(accounts, &memSessions{}, testConfig(), zerolog.Nop())

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.EnsureBootstrap(context.Background())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	all, err := accounts.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.RoleDirector, all[0].Role)
	assert.True(t, all[0].Active)
}
