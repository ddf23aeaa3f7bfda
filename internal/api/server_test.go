package api

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/photogram/photogram-server/internal/auth"
	"github.com/photogram/photogram-server/internal/domain"
	"github.com/photogram/photogram-server/internal/keylock"
	"github.com/photogram/photogram-server/internal/metrics"
	"github.com/photogram/photogram-server/internal/ratelimit"
	"github.com/photogram/photogram-server/internal/service"
	"github.com/photogram/photogram-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*Server
	api     humatest.TestAPI
	store   *store.Store
	tokens  *auth.TokenService
	cleanup func()
}

// testEnvelope mirrors the wire envelope for decoding responses.
type testEnvelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
	Code    string `json:"code"`
	Error   string `json:"error"`
}

func setupTestServer(t *testing.T, configure ...func(*Options)) *testServer {
	t.Helper()

	// Create temp directory for test database.
	tmpDir, err := os.MkdirTemp("", "photogram-api-test-*")
	require.NoError(t, err)

	// Create a no-op logger for tests (discards all logs).
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := store.New(filepath.Join(tmpDir, "test.db"), logger, store.Options{})
	require.NoError(t, err)

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	likes := service.NewLikeService(s, keylock.New(0), nil, logger)
	photos := service.NewPhotoService(s, likes, logger)
	services := &Services{
		Likes:    likes,
		Comments: service.NewCommentService(s, likes, logger),
		Photos:   photos,
		Users:    service.NewUserService(s, photos, logger),
	}

	opts := Options{Health: s}
	for _, fn := range configure {
		fn(&opts)
	}

	server := NewServer(services, tokens, opts, logger)

	return &testServer{
		Server: server,
		api:    humatest.Wrap(t, server.API()),
		store:  s,
		tokens: tokens,
		cleanup: func() {
			if opts.Limiter != nil {
				opts.Limiter.Stop()
			}
			s.Close()
			os.RemoveAll(tmpDir)
		},
	}
}

// createTestUser stores a profile and returns an Authorization header for it.
func (ts *testServer) createTestUser(t *testing.T, uid, name string) string {
	t.Helper()
	user := &domain.User{UID: uid, Name: &name, Email: uid + "@test.com"}
	require.NoError(t, ts.store.Set(context.Background(), store.UserPath(uid), user))
	return ts.authHeader(t, uid)
}

// authHeader issues a token for uid without creating a profile.
func (ts *testServer) authHeader(t *testing.T, uid string) string {
	t.Helper()
	token, err := ts.tokens.Issue(auth.Identity{UID: uid, Email: uid + "@test.com"})
	require.NoError(t, err)
	return "Authorization: Bearer " + token
}

func (ts *testServer) createTestPhoto(t *testing.T, id, ownerID, category string, createdAt int64) *domain.Photo {
	t.Helper()
	photo := &domain.Photo{
		ID:        id,
		UID:       ownerID,
		ImageURL:  "https://img.test/" + id + ".jpg",
		Category:  category,
		CreatedAt: createdAt,
	}
	ctx := context.Background()
	require.NoError(t, ts.store.Set(ctx, store.PhotoPath(id), photo))
	require.NoError(t, ts.store.Set(ctx, store.Join(store.UserImagesPath(ownerID), id), map[string]string{"imageUrl": photo.ImageURL}))
	return photo
}

func (ts *testServer) getUser(t *testing.T, uid string) *domain.User {
	t.Helper()
	var user domain.User
	found, err := ts.store.Get(context.Background(), store.UserPath(uid), &user)
	require.NoError(t, err)
	require.True(t, found, "user %s should exist", uid)
	return &user
}

func decodeEnvelope[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), "body: %s", resp.Body.String())
	return env
}

func TestNotFoundRoute(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/nope?x=1")

	assert.Equal(t, http.StatusNotFound, resp.Code)
	env := decodeEnvelope[any](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "Route GET /nope?x=1 not found", env.Message)
}

func TestMethodNotAllowed_UsesNotFoundEnvelope(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Patch("/users/me")

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "Route PATCH /users/me not found", decodeEnvelope[any](t, resp).Message)
}

func TestRequireAuth_Messages(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	tests := []struct {
		name    string
		args    []any
		message string
	}{
		{name: "missing header", message: "Unauthorized: No token provided"},
		{name: "wrong scheme", args: []any{"Authorization: Basic abc"}, message: "Unauthorized: Invalid token format"},
		{name: "empty bearer", args: []any{"Authorization: Bearer"}, message: "Unauthorized: Invalid token format"},
		{name: "bad token", args: []any{"Authorization: Bearer not-a-token"}, message: "Unauthorized: Invalid or expired token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get("/users/me", tt.args...)

			assert.Equal(t, http.StatusUnauthorized, resp.Code)
			env := decodeEnvelope[any](t, resp)
			assert.False(t, env.Success)
			assert.Equal(t, tt.message, env.Message)
			assert.Equal(t, "UNAUTHORIZED", env.Code)
		})
	}
}

func TestRequireAuth_RunsBeforeValidation(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/photos/categories?page=0")

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRateLimit(t *testing.T) {
	ts := setupTestServer(t, func(o *Options) {
		o.Limiter = ratelimit.New(0.001, 2)
	})
	defer ts.cleanup()

	assert.Equal(t, http.StatusOK, ts.api.Get("/health").Code)
	assert.Equal(t, http.StatusOK, ts.api.Get("/health").Code)

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	env := decodeEnvelope[any](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "Too many requests from this IP, please try again later.", env.Message)

	// Another client has its own bucket.
	resp = ts.api.Get("/health", "X-Real-IP: 203.0.113.9")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestErrorDetailOnlyInDevelopment(t *testing.T) {
	for _, dev := range []bool{false, true} {
		ts := setupTestServer(t, func(o *Options) { o.Development = dev })
		err := ts.fail(assert.AnError, "Failed to get comments")

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.GetStatus())
		assert.Equal(t, "Failed to get comments", apiErr.Message)
		if dev {
			assert.Equal(t, assert.AnError.Error(), apiErr.detail)
		} else {
			assert.Empty(t, apiErr.detail)
		}
		ts.cleanup()
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t, func(o *Options) {
		o.Metrics = metrics.New()
	})
	defer ts.cleanup()

	require.Equal(t, http.StatusOK, ts.api.Get("/health").Code)

	resp := ts.api.Get("/metrics")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `route="/health"`)
}
