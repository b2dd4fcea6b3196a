package auth

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-favorites/internal/apperr"
)

type memoryUsers struct {
	mu      sync.Mutex
	byEmail map[string]User
	seq     int
	err     error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byEmail: make(map[string]User)}
}

func (m *memoryUsers) EmailExists(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.byEmail[email]
	return ok, nil
}

func (m *memoryUsers) Create(_ context.Context, email, passwordHash string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[email]; ok {
		return User{}, apperr.ErrDuplicateIdentity
	}
	m.seq++
	user := User{ID: "user-" + strconv.Itoa(m.seq), Email: email, PasswordHash: passwordHash, CreatedAt: time.Now()}
	m.byEmail[email] = user
	return user, nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return User{}, m.err
	}
	user, ok := m.byEmail[email]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func newTestService(t *testing.T) (*Service, *memoryUsers, *TokenCodec) {
	t.Helper()
	codec, err := NewTokenCodec("test-secret", "movie-favorites", time.Hour)
	require.NoError(t, err)

	users := newMemoryUsers()
	service, err := NewService(users, testArgon2, codec)
	require.NoError(t, err)
	return service, users, codec
}

func TestSignupThenSignin(t *testing.T) {
	service, users, codec := newTestService(t)
	ctx := context.Background()

	signup, err := service.Signup(ctx, "  Alice@Example.COM ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", signup.Email)
	assert.NotEmpty(t, signup.ID)
	assert.NotEqual(t, "pw", users.byEmail["alice@example.com"].PasswordHash)

	subject, err := codec.Verify(signup.Token)
	require.NoError(t, err)
	assert.Equal(t, signup.ID, subject)

	signin, err := service.Signin(ctx, "alice@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, signup.ID, signin.ID)

	subject, err = codec.Verify(signin.Token)
	require.NoError(t, err)
	assert.Equal(t, signup.ID, subject)
}

func TestSignupDuplicate(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.Signup(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	_, err = service.Signup(ctx, "A@X.com", "other")
	require.ErrorIs(t, err, apperr.ErrDuplicateIdentity)
}

func TestCredentialValidation(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"missing email", "", "pw"},
		{"blank email", "   ", "pw"},
		{"missing password", "a@x.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Signup(ctx, tt.email, tt.password)
			require.ErrorIs(t, err, apperr.ErrBadRequest)

			_, err = service.Signin(ctx, tt.email, tt.password)
			require.ErrorIs(t, err, apperr.ErrBadRequest)
		})
	}
}

func TestWhitespacePasswordIsAccepted(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	signup, err := service.Signup(ctx, "spaces@x.com", "   ")
	require.NoError(t, err)

	signin, err := service.Signin(ctx, "spaces@x.com", "   ")
	require.NoError(t, err)
	require.Equal(t, signup.ID, signin.ID)

	_, err = service.Signin(ctx, "spaces@x.com", "  ")
	require.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestSigninFailures(t *testing.T) {
	service, users, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.Signup(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	_, err = service.Signin(ctx, "a@x.com", "wrong")
	require.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	_, err = service.Signin(ctx, "nobody@x.com", "pw")
	require.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	users.err = errors.New("connection reset")
	_, err = service.Signin(ctx, "a@x.com", "pw")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestPasswordIsNotTrimmed(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.Signup(ctx, "a@x.com", " pw ")
	require.NoError(t, err)

	_, err = service.Signin(ctx, "a@x.com", "pw")
	require.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	_, err = service.Signin(ctx, "a@x.com", " pw ")
	require.NoError(t, err)
}
