package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-favorites/internal/apperr"
	"movie-favorites/internal/auth"
	"movie-favorites/internal/favorite"
	"movie-favorites/internal/movie"
	"movie-favorites/internal/observability"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]auth.User
}

func (m *memoryUsers) EmailExists(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[email]
	return ok, nil
}

func (m *memoryUsers) Create(_ context.Context, email, hash string) (auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; ok {
		return auth.User{}, apperr.ErrDuplicateIdentity
	}
	u := auth.User{ID: fmt.Sprintf("user-%d", len(m.users)+1), Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	m.users[email] = u
	return u, nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return u, nil
}

type memoryFavorites struct {
	mu    sync.Mutex
	rows  []favorite.Favorite
	calls int
}

func (m *memoryFavorites) Create(_ context.Context, ownerID string, in favorite.Input) (favorite.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	f := favorite.Favorite{ID: int64(len(m.rows) + 1), MovieAPIID: in.MovieAPIID, Title: in.Title, OwnerID: ownerID, CreatedAt: time.Now().UTC()}
	m.rows = append(m.rows, f)
	return f, nil
}

func (m *memoryFavorites) ListByOwner(_ context.Context, ownerID string) ([]favorite.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	out := make([]favorite.Favorite, 0)
	for _, f := range m.rows {
		if f.OwnerID == ownerID {
			out = append(out, f)
		}
	}
	return out, nil
}

type stubCatalog struct{}

func (stubCatalog) Movie(_ context.Context, id string) (json.RawMessage, error) {
	if id == "0" {
		return nil, errors.New("upstream 404")
	}
	return json.RawMessage(`{"id":` + id + `}`), nil
}

func (stubCatalog) Search(_ context.Context, query, page string) (json.RawMessage, error) {
	return json.RawMessage(`{"query":"` + query + `","page":"` + page + `"}`), nil
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

type testServer struct {
	handler   http.Handler
	favorites *memoryFavorites
}

func newTestServer(t *testing.T, pingErr error) *testServer {
	t.Helper()
	return newTestServerWith(t, pingErr, func(*Deps) {})
}

func newTestServerWith(t *testing.T, pingErr error, configure func(*Deps)) *testServer {
	t.Helper()

	tokens, err := auth.NewTokenCodec("test-secret", "movie-favorites", time.Hour)
	require.NoError(t, err)

	hasher := auth.Argon2Hasher{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	service, err := auth.NewService(&memoryUsers{users: map[string]auth.User{}}, hasher, tokens)
	require.NoError(t, err)

	favorites := &memoryFavorites{}
	deps := Deps{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Auth:           auth.NewHandler(service),
		Tokens:         tokens,
		AuthLimiter:    auth.NewRateLimiter(100, time.Minute),
		Favorites:      favorite.NewHandler(favorites),
		Movies:         movie.NewHandler(stubCatalog{}),
		Health:         stubPinger{err: pingErr},
		AllowedOrigins: []string{"*"},
	}
	configure(&deps)

	return &testServer{handler: NewRouter(deps), favorites: favorites}
}

func (s *testServer) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestFavoritesFlow(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPost, "/auth/signup", "", `{"email":"a@x.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(observability.RequestIDHeader))

	var signup auth.AuthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signup))
	require.NotEmpty(t, signup.Token)

	rec = srv.do(t, http.MethodGet, "/api/favorites", signup.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/api/favorites", signup.Token, `{"movie_api_id":550,"title":"Fight Club"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var created favorite.Favorite
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, signup.ID, created.OwnerID)

	rec = srv.do(t, http.MethodGet, "/api/favorites", "Bearer "+signup.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []favorite.Favorite
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, int64(550), listed[0].MovieAPIID)
	assert.Equal(t, "Fight Club", listed[0].Title)
	assert.Equal(t, signup.ID, listed[0].OwnerID)

	rec = srv.do(t, http.MethodPost, "/auth/signin", "", `{"email":"a@x.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/test", signup.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"in this protected route, we get the user's id like so: `+signup.ID+`"}`, rec.Body.String())
}

func TestProtectedPathsRequireToken(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		target string
		token  string
	}{
		{"list without header", http.MethodGet, "/api/favorites", ""},
		{"create without header", http.MethodPost, "/api/favorites", ""},
		{"test with garbage", http.MethodGet, "/api/test", "garbage"},
		{"unknown api path", http.MethodGet, "/api/nope", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, tt.method, tt.target, tt.token, `{"movie_api_id":1,"title":"x"}`)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}

	assert.Zero(t, srv.favorites.calls, "store must not be reached without a valid token")
}

func TestPublicRoutes(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodGet, "/movies/550", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":550}`, rec.Body.String())

	rec = srv.do(t, http.MethodGet, "/movies/0", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"failed to fetch movie"}`, rec.Body.String())

	rec = srv.do(t, http.MethodGet, "/search?query=alien&page=2", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"query":"alien","page":"2"}`, rec.Body.String())

	rec = srv.do(t, http.MethodGet, "/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	rec := newTestServer(t, nil).do(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = newTestServer(t, errors.New("db down")).do(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded"}`, rec.Body.String())
}

func signinFrom(handler http.Handler, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/auth/signin", strings.NewReader(`{"email":"a@b.c","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestAuthRateLimitIgnoresForwardedForByDefault(t *testing.T) {
	srv := newTestServerWith(t, nil, func(d *Deps) {
		d.AuthLimiter = auth.NewRateLimiter(2, time.Minute)
	})

	for i := 0; i < 2; i++ {
		code := signinFrom(srv.handler, "10.0.0.1:4000", fmt.Sprintf("203.0.113.%d", i))
		require.Equal(t, http.StatusUnauthorized, code)
	}
	for i := 2; i < 20; i++ {
		code := signinFrom(srv.handler, "10.0.0.1:4000", fmt.Sprintf("203.0.113.%d", i))
		assert.Equal(t, http.StatusTooManyRequests, code)
	}
}

func TestAuthRateLimitUsesForwardedForBehindTrustedProxy(t *testing.T) {
	srv := newTestServerWith(t, nil, func(d *Deps) {
		d.AuthLimiter = auth.NewRateLimiter(2, time.Minute)
		d.TrustProxyHeaders = true
	})

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusUnauthorized, signinFrom(srv.handler, "10.0.0.1:4000", "203.0.113.7"))
	}
	assert.Equal(t, http.StatusTooManyRequests, signinFrom(srv.handler, "10.0.0.1:4000", "203.0.113.7"))
	assert.Equal(t, http.StatusUnauthorized, signinFrom(srv.handler, "10.0.0.1:4000", "203.0.113.8"))
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/favorites", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
