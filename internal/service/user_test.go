package service

import (
	"context"
	"testing"

	"github.com/photogram/photogram-server/internal/domain"
	domainerrors "github.com/photogram/photogram-server/internal/errors"
	"github.com/photogram/photogram-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_GetCurrentUser(t *testing.T) {
	svc, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	createTestUser(t, svc.store, "u1", "Ada")
	createTestPhoto(t, svc.store, "p1", "u1", "Nature", 100)

	user, err := svc.users.GetCurrentUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.DisplayName())
	assert.Equal(t, "u1@test.com", user.Email)
	assert.Equal(t, 1, user.NumberOfUploads)
}

func TestUserService_GetCurrentUser_NotFound(t *testing.T) {
	svc, cleanup := setupTestServices(t)
	defer cleanup()

	_, err := svc.users.GetCurrentUser(context.Background(), "nobody")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestUserService_UpdateCurrentUser_PreservesCounters(t *testing.T) {
	svc, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	createTestUser(t, svc.store, "owner", "Owner")
	createTestPhoto(t, svc.store, "p1", "owner", "Nature", 100)
	_, err := svc.likes.ToggleLike(ctx, "u1", "p1")
	require.NoError(t, err)

	user, err := svc.users.UpdateCurrentUser(ctx, "owner", "ignored@example.com", domain.UpdateProfile{Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", user.DisplayName())
	assert.Equal(t, "owner@test.com", user.Email, "email is never taken from the caller for existing users")
	assert.Equal(t, 1, user.TotalLikes)
	assert.Equal(t, 1, user.NumberOfUploads)
}

func TestUserService_UpdateCurrentUser_CreatesMissingUser(t *testing.T) {
	svc, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	user, err := svc.users.UpdateCurrentUser(ctx, "new-user", "new@example.com", domain.UpdateProfile{Name: "Newcomer"})
	require.NoError(t, err)
	assert.Equal(t, "new-user", user.UID)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, "Newcomer", user.DisplayName())
	assert.Zero(t, user.TotalLikes)
	assert.Zero(t, user.TotalViews)

	exists, err := svc.store.Exists(ctx, store.UserPath("new-user"))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserService_UpdateCurrentUser_InvalidUID(t *testing.T) {
	svc, cleanup := setupTestServices(t)
	defer cleanup()

	_, err := svc.users.UpdateCurrentUser(context.Background(), "a/b", "", domain.UpdateProfile{Name: "x"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}
