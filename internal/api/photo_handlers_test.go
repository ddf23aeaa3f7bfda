package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/photogram/photogram-server/internal/domain"
	"github.com/photogram/photogram-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPublicPhotos_Pagination(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.createTestUser(t, "u1", "Ada")
	ts.createTestPhoto(t, "p1", "u1", "Nature", 100)
	ts.createTestPhoto(t, "p2", "u1", "Nature", 200)
	ts.createTestPhoto(t, "p3", "u1", "", 150)

	resp := ts.api.Get("/photos/public?page=1&pageSize=1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decodeEnvelope[domain.Categories](t, resp)
	assert.True(t, env.Success)
	assert.Equal(t, "Categories retrieved successfully", env.Message)
	require.Len(t, env.Data["Nature"], 1)
	assert.Equal(t, "p2", env.Data["Nature"][0].Photo.ID)
	assert.Equal(t, "Ada", env.Data["Nature"][0].User.DisplayName())
	assert.False(t, env.Data["Nature"][0].HasLiked)
	require.Len(t, env.Data[domain.DefaultCategory], 1)
	assert.Equal(t, "p3", env.Data[domain.DefaultCategory][0].Photo.ID)

	env = decodeEnvelope[domain.Categories](t, ts.api.Get("/photos/public?page=2&pageSize=1"))
	require.Len(t, env.Data["Nature"], 1)
	assert.Equal(t, "p1", env.Data["Nature"][0].Photo.ID)
	assert.NotContains(t, env.Data, domain.DefaultCategory)

	env = decodeEnvelope[domain.Categories](t, ts.api.Get("/photos/public?page=3&pageSize=1"))
	assert.Empty(t, env.Data)

	resp = ts.api.Get("/photos/public?page=100000000000000000&pageSize=100")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env = decodeEnvelope[domain.Categories](t, resp)
	assert.True(t, env.Success)
	assert.Empty(t, env.Data)
}

func TestListPublicPhotos_Defaults(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.createTestUser(t, "u1", "Ada")
	for i, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		ts.createTestPhoto(t, id, "u1", "Street", int64(i))
	}

	env := decodeEnvelope[domain.Categories](t, ts.api.Get("/photos/public"))
	assert.Len(t, env.Data["Street"], domain.DefaultPageSize)
	assert.Equal(t, "l", env.Data["Street"][0].Photo.ID)
}

func TestListPublicPhotos_InvalidPagination(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	tests := []struct {
		query   string
		message string
	}{
		{query: "?page=0", message: "Page must be greater than 0"},
		{query: "?pageSize=0", message: "Page size must be between 1 and 100"},
		{query: "?pageSize=101", message: "Page size must be between 1 and 100"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := ts.api.Get("/photos/public" + tt.query)

			assert.Equal(t, http.StatusBadRequest, resp.Code)
			env := decodeEnvelope[any](t, resp)
			assert.False(t, env.Success)
			assert.Equal(t, tt.message, env.Message)
		})
	}
}

func TestListPublicPhotos_NonNumericPage(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/photos/public?page=abc")

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.False(t, decodeEnvelope[any](t, resp).Success)
}

func TestListPublicPhotos_OptionalAuthFillsHasLiked(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.createTestUser(t, "owner", "Owner")
	viewer := ts.createTestUser(t, "viewer", "Viewer")
	ts.createTestPhoto(t, "p1", "owner", "Nature", 100)

	require.Equal(t, http.StatusOK, ts.api.Post("/like/toggle/p1", viewer).Code)

	env := decodeEnvelope[domain.Categories](t, ts.api.Get("/photos/public", viewer))
	require.Len(t, env.Data["Nature"], 1)
	assert.True(t, env.Data["Nature"][0].HasLiked)
	assert.Equal(t, 1, env.Data["Nature"][0].Photo.Likes)

	// A bad token on an optional route is treated as anonymous.
	env = decodeEnvelope[domain.Categories](t, ts.api.Get("/photos/public", "Authorization: Bearer junk"))
	require.Len(t, env.Data["Nature"], 1)
	assert.False(t, env.Data["Nature"][0].HasLiked)
}

func TestListCategories_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	assert.Equal(t, http.StatusUnauthorized, ts.api.Get("/photos/categories").Code)

	header := ts.createTestUser(t, "u1", "Ada")
	ts.createTestPhoto(t, "p1", "u1", "Nature", 100)

	resp := ts.api.Get("/photos/categories", header)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decodeEnvelope[domain.Categories](t, resp).Data["Nature"], 1)
}

func TestRecordView(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	header := ts.createTestUser(t, "u1", "Ada")
	ts.createTestPhoto(t, "p1", "u1", "Nature", 100)

	for range 2 {
		resp := ts.api.Post("/photos/p1/view", header)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "View count incremented successfully", decodeEnvelope[any](t, resp).Message)
	}

	views, err := ts.store.Children(context.Background(), store.PhotoViewsPath("p1"))
	require.NoError(t, err)
	assert.Len(t, views, 2)

	env := decodeEnvelope[domain.Categories](t, ts.api.Get("/photos/public"))
	require.Len(t, env.Data["Nature"], 1)
	assert.Equal(t, 2, env.Data["Nature"][0].Photo.Views)
}

func TestRecordView_PhotoNotFound(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	header := ts.createTestUser(t, "u1", "Ada")

	resp := ts.api.Post("/photos/missing/view", header)

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "Photo not found", decodeEnvelope[any](t, resp).Message)
}
