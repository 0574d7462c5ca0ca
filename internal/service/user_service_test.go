package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository/memstore"
	"go-inventory-ledger/pkg/validator"
)

func TestProfileAndChangePassword(t *testing.T) {
	store := memstore.New()
	auth, _ := newAuthService(store)
	users := NewUserService(store.Users(), zerolog.Nop())
	ctx := context.Background()

	registered, err := auth.Register(ctx, RegisterInput{
		Username: "owner", Password: "hunter22", Role: model.RoleAdmin, CompanyName: "Acme",
	})
	require.NoError(t, err)

	profile, err := users.GetProfile(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner", profile.Username)
	require.NotNil(t, profile.Company)
	assert.Equal(t, "Acme", profile.Company.Name)

	_, err = users.GetProfile(ctx, 999)
	assert.ErrorIs(t, err, model.ErrNotFound)

	err = users.ChangePassword(ctx, registered.ID, ChangePasswordRequest{OldPassword: "wrong", NewPassword: "next-secret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = users.ChangePassword(ctx, registered.ID, ChangePasswordRequest{OldPassword: "hunter22", NewPassword: "abc"})
	var vErr *validator.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "new_password", vErr.Field)

	require.NoError(t, users.ChangePassword(ctx, registered.ID, ChangePasswordRequest{OldPassword: "hunter22", NewPassword: "next-secret"}))
	_, err = auth.Login(ctx, "owner", "next-secret")
	assert.NoError(t, err)
}
