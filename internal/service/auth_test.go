package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/paysim/gateway/internal/models"
	"github.com/paysim/gateway/internal/repo"
	"github.com/paysim/gateway/internal/tokens"
)

func newTestStore(t *testing.T) *repo.Repo {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Transaction{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return repo.New(db)
}

func newAuthService(t *testing.T) *AuthService {
	t.Helper()

	ts, err := tokens.New(tokens.Config{
		AccessSecret:  []byte("svc-test-access"),
		RefreshSecret: []byte("svc-test-refresh"),
	})
	require.NoError(t, err)

	return &AuthService{
		Store:      newTestStore(t),
		Tokens:     ts,
		BcryptCost: 4,
	}
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	svc := newAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		email    string
		password string
		role     string
	}{
		{name: "username too short", username: "ab", email: "a@x.com", password: "Passw0rd1"},
		{name: "username too long", username: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", email: "a@x.com", password: "Passw0rd1"},
		{name: "bad email", username: "alice", email: "not-an-email", password: "Passw0rd1"},
		{name: "password too short", username: "alice", email: "a@x.com", password: "Pw1"},
		{name: "password without digit", username: "alice", email: "a@x.com", password: "password"},
		{name: "password without letter", username: "alice", email: "a@x.com", password: "12345678"},
		{name: "unknown role", username: "alice", email: "a@x.com", password: "Passw0rd1", role: "ROOT"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.Register(ctx, tt.username, tt.email, tt.password, tt.role)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRegister_DefaultsRoleAndIssuesPair(t *testing.T) {
	t.Parallel()

	svc := newAuthService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, "alice", "Alice@X.com", "Passw0rd1", "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, res.User.Role)
	assert.Equal(t, "alice@x.com", res.User.Email)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)

	claims, err := svc.Tokens.VerifyAccess(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID.String(), claims.Subject)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestRegister_DuplicateEmailConflict(t *testing.T) {
	t.Parallel()

	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@x.com", "Passw0rd1", "")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice2", "ALICE@x.com", "Passw0rd1", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@x.com", "Passw0rd1", models.RoleMerchant)
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		res, err := svc.Login(ctx, "alice@x.com", "Passw0rd1")
		require.NoError(t, err)
		assert.Equal(t, models.RoleMerchant, res.User.Role)
		assert.NotEmpty(t, res.AccessToken)
		assert.NotEmpty(t, res.RefreshToken)
	})

	t.Run("unknown email and wrong password fail identically", func(t *testing.T) {
		_, errUnknown := svc.Login(ctx, "nobody@x.com", "Passw0rd1")
		_, errWrongPw := svc.Login(ctx, "alice@x.com", "WrongPw99")

		assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
		assert.ErrorIs(t, errWrongPw, ErrInvalidCredentials)
		assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
	})

	t.Run("deactivated account", func(t *testing.T) {
		u, err := svc.Store.FindByEmail(ctx, "alice@x.com", false)
		require.NoError(t, err)
		_, err = svc.Store.UpdateActive(ctx, u.ID, false)
		require.NoError(t, err)
		t.Cleanup(func() {
			_, err := svc.Store.UpdateActive(ctx, u.ID, true)
			require.NoError(t, err)
		})

		_, err = svc.Login(ctx, "alice@x.com", "Passw0rd1")
		assert.ErrorIs(t, err, ErrAccountDisabled)
	})
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	svc := newAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "bob", "bob@x.com", "Passw0rd1", "")
	require.NoError(t, err)

	t.Run("mints a fresh access token", func(t *testing.T) {
		access, err := svc.Refresh(ctx, reg.RefreshToken)
		require.NoError(t, err)

		claims, err := svc.Tokens.VerifyAccess(access)
		require.NoError(t, err)
		assert.Equal(t, reg.User.ID.String(), claims.Subject)
		assert.Equal(t, "bob@x.com", claims.Email)
	})

	t.Run("rejects an access token in the refresh slot", func(t *testing.T) {
		_, err := svc.Refresh(ctx, reg.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := svc.Refresh(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("rejects a deleted subject", func(t *testing.T) {
		ghost, err := tokens.New(tokens.Config{
			AccessSecret:  []byte("svc-test-access"),
			RefreshSecret: []byte("svc-test-refresh"),
		})
		require.NoError(t, err)
		raw, err := ghost.IssueRefresh(uuid.New())
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, raw)
		assert.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("rejects a deactivated subject", func(t *testing.T) {
		_, err := svc.Store.UpdateActive(ctx, reg.User.ID, false)
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, reg.RefreshToken)
		assert.ErrorIs(t, err, ErrAccountDisabled)
	})
}

func TestMe_RefetchesRecord(t *testing.T) {
	t.Parallel()

	svc := newAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "carol", "carol@x.com", "Passw0rd1", "")
	require.NoError(t, err)

	_, err = svc.Store.UpdateActive(ctx, reg.User.ID, false)
	require.NoError(t, err)

	me, err := svc.Me(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.False(t, me.IsActive, "me must reflect the live record, not token claims")
	assert.WithinDuration(t, time.Now(), me.CreatedAt, time.Minute)
}
