package api

import (
	"net/http"
	"testing"

	"github.com/photogram/photogram-server/internal/domain"
	"github.com/photogram/photogram-server/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTogglePhotoLike_Twice(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.createTestUser(t, "owner", "Owner")
	liker := ts.createTestUser(t, "liker", "Liker")
	ts.createTestPhoto(t, "p1", "owner", "Nature", 100)

	resp := ts.api.Post("/like/toggle/p1", liker)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decodeEnvelope[ToggleData](t, resp)
	assert.True(t, env.Success)
	assert.True(t, env.Data.HasLiked)
	assert.Equal(t, service.MsgLikeAdded, env.Message)
	assert.Equal(t, 1, ts.getUser(t, "owner").TotalLikes)

	resp = ts.api.Post("/like/toggle/p1", liker)
	require.Equal(t, http.StatusOK, resp.Code)
	removed := decodeEnvelope[*ToggleData](t, resp)
	require.NotNil(t, removed.Data, resp.Body.String())
	assert.False(t, removed.Data.HasLiked)
	env = decodeEnvelope[ToggleData](t, resp)
	assert.Equal(t, service.MsgLikeRemoved, env.Message)
	assert.Equal(t, 0, ts.getUser(t, "owner").TotalLikes)
}

func TestTogglePhotoLike_OwnerFieldPresentWhenFalse(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.createTestUser(t, "owner", "Owner")
	liker := ts.createTestUser(t, "liker", "Liker")
	ts.createTestPhoto(t, "p1", "owner", "Nature", 100)

	ts.api.Post("/like/toggle/p1", liker)
	resp := ts.api.Post("/like/toggle/p1", liker)

	env := decodeEnvelope[map[string]any](t, resp)
	assert.Contains(t, env.Data, "hasLiked")
}

func TestTogglePhotoLike_Errors(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	header := ts.createTestUser(t, "u1", "Ada")

	resp := ts.api.Post("/like/toggle/missing", header)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "Photo not found", decodeEnvelope[any](t, resp).Message)

	resp = ts.api.Post("/like/toggle/%20", header)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Photo ID is required", decodeEnvelope[any](t, resp).Message)

	assert.Equal(t, http.StatusUnauthorized, ts.api.Post("/like/toggle/p1").Code)
}

func TestToggleCommentLike(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	author := ts.createTestUser(t, "author", "Author")
	liker := ts.createTestUser(t, "liker", "Liker")
	ts.createTestPhoto(t, "p1", "author", "Nature", 100)

	created := decodeEnvelope[domain.Comment](t, ts.api.Post("/comments/p1", author, map[string]any{"text": "nice"}))
	require.NotEmpty(t, created.Data.ID)

	resp := ts.api.Post("/like/comment/toggle/"+created.Data.ID, liker)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decodeEnvelope[ToggleData](t, resp)
	assert.True(t, env.Data.HasLiked)
	assert.Equal(t, service.MsgCommentLikeAdded, env.Message)

	list := decodeEnvelope[[]domain.CommentWithUser](t, ts.api.Get("/comments/p1", liker))
	require.Len(t, list.Data, 1)
	assert.True(t, list.Data[0].HasLiked)
	assert.Equal(t, 1, list.Data[0].Comment.LikesCount)

	resp = ts.api.Post("/like/comment/toggle/"+created.Data.ID, liker)
	unliked := decodeEnvelope[*ToggleData](t, resp)
	require.NotNil(t, unliked.Data, resp.Body.String())
	assert.False(t, unliked.Data.HasLiked)
	env = decodeEnvelope[ToggleData](t, resp)
	assert.Equal(t, service.MsgCommentLikeRemoved, env.Message)

	// Comment likes never touch the author's photo counter.
	assert.Equal(t, 0, ts.getUser(t, "author").TotalLikes)
}

func TestToggleCommentLike_NotFound(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	header := ts.createTestUser(t, "u1", "Ada")

	resp := ts.api.Post("/like/comment/toggle/missing", header)

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "Comment not found", decodeEnvelope[any](t, resp).Message)
}
