package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour, "test")
	companyID := uint(7)

	token, err := m.GenerateToken(3, "ann", "admin", &companyID)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, "ann", claims.Username)
	assert.Equal(t, "admin", claims.Role)
	require.NotNil(t, claims.CompanyID)
	assert.Equal(t, uint(7), *claims.CompanyID)
}

func TestUserTokenHasNoCompany(t *testing.T) {
	m := NewManager("secret", time.Hour, "test")
	token, err := m.GenerateToken(4, "bob", "user", nil)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Nil(t, claims.CompanyID)
}

func TestRejectsWrongSecret(t *testing.T) {
	token, err := NewManager("one", time.Hour, "test").GenerateToken(1, "a", "user", nil)
	require.NoError(t, err)

	_, err = NewManager("two", time.Hour, "test").ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRejectsExpired(t *testing.T) {
	m := NewManager("secret", time.Hour, "test")
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.GenerateToken(1, "a", "user", nil)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMissingToken(t *testing.T) {
	_, err := NewManager("secret", time.Hour, "test").ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)
}
