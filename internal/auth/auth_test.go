package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice-service/internal/models"
)

type stubUserStore struct {
	users map[string]*models.User
}

func (s *stubUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	if u, ok := s.users[username]; ok {
		return u, nil
	}
	return nil, ErrInvalidCredentials
}

func newTestStore(t *testing.T) *stubUserStore {
	t.Helper()
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	return &stubUserStore{users: map[string]*models.User{
		"owner": {
			ID:                1,
			Username:          "owner",
			PasswordHash:      hash,
			FullName:          "Shop Owner",
			CanViewFinancials: true,
		},
	}}
}

func TestLoginAndParseToken(t *testing.T) {
	m := NewManager("test-secret", time.Hour, newTestStore(t))

	resp, err := m.Login(context.Background(), "owner", "secret123")
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "owner", resp.User.Username)
	assert.True(t, resp.User.CanViewFinancials)

	actor, err := m.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), actor.UserID)
	assert.Equal(t, "owner", actor.Username)
	assert.Equal(t, "Shop Owner", actor.FullName)
	assert.True(t, actor.CanViewFinancials)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	m := NewManager("test-secret", time.Hour, newTestStore(t))
	ctx := context.Background()

	_, err := m.Login(ctx, "owner", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = m.Login(ctx, "nobody", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = m.Login(ctx, "", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = m.Login(ctx, "owner", "   ")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseTokenRejectsTampering(t *testing.T) {
	m := NewManager("test-secret", time.Hour, newTestStore(t))

	resp, err := m.Login(context.Background(), "owner", "secret123")
	require.NoError(t, err)

	_, err = m.ParseToken(resp.AccessToken + "x")
	assert.Error(t, err)

	_, err = m.ParseToken("not-a-token")
	assert.Error(t, err)

	// Token signed under a different secret must not validate.
	other := NewManager("other-secret", time.Hour, newTestStore(t))
	_, err = other.ParseToken(resp.AccessToken)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	m := &Manager{secret: []byte("test-secret"), tokenTTL: -time.Minute, users: newTestStore(t)}

	resp, err := m.Login(context.Background(), "owner", "secret123")
	require.NoError(t, err)

	_, err = m.ParseToken(resp.AccessToken)
	assert.Error(t, err)
}

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	hash2, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash2)
}
