package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository/memstore"
	"go-inventory-ledger/pkg/jwt"
	"go-inventory-ledger/pkg/validator"
)

func newAuthService(store *memstore.Store) (AuthService, *jwt.Manager) {
	tokens := jwt.NewManager("test-secret", time.Hour, "inventory-test")
	return NewAuthService(store.Users(), store, tokens, zerolog.Nop()), tokens
}

func TestRegisterAdminCreatesCompany(t *testing.T) {
	store := memstore.New()
	svc, tokens := newAuthService(store)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Username:    "  owner ",
		Password:    "hunter22",
		Role:        model.RoleAdmin,
		CompanyName: "Acme",
	})
	require.NoError(t, err)
	assert.Equal(t, "owner", user.Username)
	require.NotNil(t, user.CompanyID)
	require.NotNil(t, user.Company)
	assert.Equal(t, "Acme", user.Company.Name)

	login, err := svc.Login(ctx, "owner", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, login.Role)

	claims, err := tokens.ValidateToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	require.NotNil(t, claims.CompanyID)
	assert.Equal(t, *user.CompanyID, *claims.CompanyID)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthService(memstore.New())
	ctx := context.Background()

	cases := map[string]RegisterInput{
		"username":     {Username: "ab", Password: "hunter22"},
		"password":     {Username: "alice", Password: "123"},
		"role":         {Username: "alice", Password: "hunter22", Role: "root"},
		"company_name": {Username: "alice", Password: "hunter22", Role: model.RoleAdmin},
	}
	for field, in := range cases {
		_, err := svc.Register(ctx, in)
		var vErr *validator.ValidationError
		require.True(t, errors.As(err, &vErr), field)
		assert.Equal(t, field, vErr.Field)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	store := memstore.New()
	svc, _ := newAuthService(store)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.Nil(t, user.CompanyID)

	_, err = svc.Register(ctx, RegisterInput{
		Username: "alice", Password: "hunter22", Role: model.RoleAdmin, CompanyName: "Dup Co",
	})
	assert.ErrorIs(t, err, model.ErrDuplicate)

	// The company insert rolled back with the user.
	_, err = store.Companies().FindByID(ctx, 1)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthService(memstore.New())
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "hunter22"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResetPassword(t *testing.T) {
	svc, _ := newAuthService(memstore.New())
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "hunter22"})
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(ctx, "alice", "new-secret"))
	_, err = svc.Login(ctx, "alice", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "alice", "new-secret")
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.ResetPassword(ctx, "nobody", "new-secret"), model.ErrNotFound)
	var vErr *validator.ValidationError
	assert.True(t, errors.As(svc.ResetPassword(ctx, "alice", "123"), &vErr))
}
