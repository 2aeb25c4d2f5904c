package accounts_test

import (
	"context"
	"database/sql"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupRepositoryManager(t *testing.T) accounts.RepositoryManager {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = db.Exec(sqliteCreateAccounts)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
		_ = sqldb.Close()
	})

	repo := accounts.NewRepositoryManager(db)
	repo.MustValidate()

	return repo
}

func TestSignupActivationLoginIntegration(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(true)
	notifier := &countingNotifier{}
	repo := setupRepositoryManager(t)

	register := accounts.NewRegisterAccountHandler(repo, cfg, notifier)
	activate := accounts.NewActivateAccountHandler(repo, cfg, notifier)
	auther := accounts.NewAuthenticator(repo.Accounts(), cfg)

	var created *accounts.Account
	err := register.Execute(ctx, accounts.RegisterAccountMessage{
		Email:                "marge@example.com",
		Password:             "donuts",
		PasswordConfirmation: "donuts",
		OnResponse:           func(a *accounts.Account) { created = a },
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, "marge", created.Login)
	assert.NotEmpty(t, created.ActivationCode)
	assert.Empty(t, created.Password, "plaintext must not survive registration")
	assert.Equal(t, 1, notifier.count(accounts.NotificationSignup))

	// pending accounts cannot log in while activation is required
	_, err = auther.Authenticate(ctx, "marge", "donuts")
	require.ErrorIs(t, err, accounts.ErrNotAuthenticated)

	// an unknown code is reported, not failed
	var resp *accounts.ActivateAccountResponse
	err = activate.Execute(ctx, accounts.ActivateAccountMessage{
		Code:       "not-a-code",
		OnResponse: func(r *accounts.ActivateAccountResponse) { resp = r },
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.False(t, resp.Found)

	err = activate.Execute(ctx, accounts.ActivateAccountMessage{
		Code:       created.ActivationCode,
		OnResponse: func(r *accounts.ActivateAccountResponse) { resp = r },
	})
	require.NoError(t, err)
	require.True(t, resp.Found)
	require.True(t, resp.Activated)
	assert.Equal(t, 1, notifier.count(accounts.NotificationActivation))

	// the code is single use
	err = activate.Execute(ctx, accounts.ActivateAccountMessage{
		Code:       created.ActivationCode,
		OnResponse: func(r *accounts.ActivateAccountResponse) { resp = r },
	})
	require.NoError(t, err)
	assert.False(t, resp.Found, "consumed codes no longer resolve")

	account, err := auther.Authenticate(ctx, "marge", "donuts")
	require.NoError(t, err)
	assert.Equal(t, created.ID, account.ID)

	// remember-me round trip against the real store
	session := newRecordingSession()
	require.NoError(t, auther.LoginWith(ctx, account, session, true))
	token := session.cookies[accounts.DefaultAuthCookieName]
	require.NotEmpty(t, token)

	resolved, err := auther.AuthenticateByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, resolved.ID)

	require.NoError(t, auther.Logout(ctx, resolved, session))
	_, err = auther.AuthenticateByToken(ctx, token)
	assert.ErrorIs(t, err, accounts.ErrNotAuthenticated)

	// token issue/revoke saved the record several times since signup; none of
	// those updates may have re-sent the signup notification
	assert.Equal(t, 1, notifier.count(accounts.NotificationSignup))
}

func TestRegisterCommandValidation(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(false)
	repo := setupRepositoryManager(t)

	register := accounts.NewRegisterAccountHandler(repo, cfg, nil)

	t.Run("field errors pass through untouched", func(t *testing.T) {
		err := register.Execute(ctx, accounts.RegisterAccountMessage{
			Email:                "bad-address",
			Password:             "donuts",
			PasswordConfirmation: "donuts",
		})
		require.Error(t, err)
		assert.True(t, accounts.IsValidationError(err))
		assert.NotEmpty(t, accounts.ErrorOn(err, "email"))
	})

	t.Run("duplicate signup surfaces the login conflict", func(t *testing.T) {
		msg := accounts.RegisterAccountMessage{
			Email:                "ned@example.com",
			Password:             "okilly",
			PasswordConfirmation: "okilly",
		}
		require.NoError(t, register.Execute(ctx, msg))

		err := register.Execute(ctx, msg)
		require.Error(t, err)
		assert.True(t, accounts.IsValidationError(err))
	})

	t.Run("hashid derived ids are stable", func(t *testing.T) {
		var created *accounts.Account
		err := register.Execute(ctx, accounts.RegisterAccountMessage{
			Email:                "rod@example.com",
			Password:             "flanders",
			PasswordConfirmation: "flanders",
			UseHashid:            true,
			OnResponse:           func(a *accounts.Account) { created = a },
		})
		require.NoError(t, err)
		require.NotNil(t, created)

		found, err := repo.Accounts().FindByEmail(ctx, "rod@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})
}
