package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/photogram/photogram-server/internal/domain"
	domainerrors "github.com/photogram/photogram-server/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func photoIDs(entries []domain.PhotoWithUser) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.Photo.ID
	}
	return ids
}

func TestPhotoService_Feed_NewestFirstPerCategory(t *testing.T) {
	svc, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	createTestUser(t, svc.store, "owner", "Owner")
	createTestPhoto(t, svc.store, "p1", "owner", "Nature", 100)
	createTestPhoto(t, svc.store, "p2", "owner", "Nature", 200)

	feed, err := svc.photos.GetCategoriesWithPagination(ctx, "", domain.Pagination{Page: 1, PageSize: 1})
	require.NoError(t, err)
	require.Contains(t, feed, "Nature")
	assert.Equal(t, []string{"p2"}, photoIDs(feed["Nature"]))

	feed, err = svc.photos.GetCategoriesWithPagination(ctx, "", domain.Pagination{Page: 2, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, photoIDs(feed["Nature"]))
}

func TestPhotoService_Feed_PaginatesEachCategoryIndependently(t *testing.T) {
	svc, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	createTestUser(t, svc.store, "owner", "Owner")
	for i := range 3 {
		createTestPhoto(t, svc.store, fmt.Sprintf("n%d", i), "owner", "Nature", int64(100+i))
	}
	for i := range 10 {
		createTestPhoto(t, svc.store, fmt.Sprintf("u%d", i), "owner", "Urban", int64(100+i))
	}

	feed, err := svc.photos.GetCategoriesWithPagination(ctx, "", domain.Pagination{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"n0"}, photoIDs(feed["Nature"]))
	assert.Equal(t, []string{"u7", "u6"}, photoIDs(feed["Urban"]))

	feed, err = svc.photos.GetCategoriesWithPagination(ctx, "", domain.Pagination{Page: 3, PageSize: 2})
	require.NoError(t, err)
	assert.NotContains(t, feed, "Nature", "exhausted category is omitted")
	assert.Equal(t, []string{"u5", "u4"}, photoIDs(feed["Urban"]))
}

func TestPhotoService_Feed_DefaultCategory(t *testing.T) {
	svc, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	createTestUser(t, svc.store, "owner", "Owner")
	createTestPhoto(t, svc.store, "p1", "owner", "", 100)

	feed, err := svc.photos.GetCategoriesWithPagination(ctx, "", domain.Pagination{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, photoIDs(feed[domain.DefaultCategory]))
}

func TestPhotoService_Feed_OmitsCategoryWithUnresolvableOwners(t *testing.T) {
	svc, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	createTestUser(t, svc.store, "owner", "Owner")
	createTestPhoto(t, svc.store, "p1", "owner", "Nature", 100)
	createTestPhoto(t, svc.store, "p2", "ghost", "Urban", 100)

	feed, err := svc.photos.GetCategoriesWithPagination(ctx, "", domain.Pagination{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Contains(t, feed, "Nature")
	_, present := feed["Urban"]
	assert.False(t, present, "category must be absent, not an empty list")
}

func TestPhotoService_Feed_DerivedFields(t *testing.T) {
	svc, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	createTestUser(t, svc.store, "owner", "Owner")
	createTestPhoto(t, svc.store, "p1", "owner", "Nature", 100)
	createTestPhoto(t, svc.store, "p2", "owner", "Nature", 200)

	for _, uid := range []string{"u1", "u2"} {
		_, err := svc.likes.ToggleLike(ctx, uid, "p1")
		require.NoError(t, err)
	}
	for range 3 {
		require.NoError(t, svc.likes.IncrementViewCount(ctx, "p1"))
	}

	feed, err := svc.photos.GetCategoriesWithPagination(ctx, "u1", domain.Pagination{Page: 1, PageSize: 10})
	require.NoError(t, err)
	entries := feed["Nature"]
	require.Len(t, entries, 2)

	p2, p1 := entries[0], entries[1]
	assert.Equal(t, "p2", p2.Photo.ID)
	assert.Zero(t, p2.Photo.Likes)
	assert.Zero(t, p2.Photo.Views)
	assert.False(t, p2.HasLiked)

	assert.Equal(t, "p1", p1.Photo.ID)
	assert.Equal(t, 2, p1.Photo.Likes)
	assert.Equal(t, 3, p1.Photo.Views)
	assert.True(t, p1.HasLiked)
	assert.Equal(t, "owner", p1.User.UID)
	assert.Equal(t, 2, p1.User.NumberOfUploads)
	assert.Equal(t, 2, p1.User.TotalLikes)
}

func TestPhotoService_Feed_InvalidPagination(t *testing.T) {
	svc, cleanup := setupTestServices(t)
	defer cleanup()

	tests := []struct {
		name    string
		p       domain.Pagination
		wantMsg string
	}{
		{"zero page", domain.Pagination{Page: 0, PageSize: 10}, "Page must be greater than 0"},
		{"negative page", domain.Pagination{Page: -1, PageSize: 10}, "Page must be greater than 0"},
		{"zero size", domain.Pagination{Page: 1, PageSize: 0}, "Page size must be between 1 and 100"},
		{"size too large", domain.Pagination{Page: 1, PageSize: 101}, "Page size must be between 1 and 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.photos.GetCategoriesWithPagination(context.Background(), "", tt.p)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
			assert.Equal(t, tt.wantMsg, domainErr.Message)
		})
	}
}

func TestPhotoService_Feed_Empty(t *testing.T) {
	svc, cleanup := setupTestServices(t)
	defer cleanup()

	feed, err := svc.photos.GetCategoriesWithPagination(context.Background(), "", domain.Pagination{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.NotNil(t, feed)
	assert.Empty(t, feed)
}

func TestPhotoService_GetPhotoByID(t *testing.T) {
	svc, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	createTestPhoto(t, svc.store, "p1", "owner", "Nature", 100)

	photo, err := svc.photos.GetPhotoByID(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, photo)
	assert.Equal(t, "owner", photo.UID)

	photo, err = svc.photos.GetPhotoByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, photo)
}

func TestPhotoService_GetUserByUID(t *testing.T) {
	svc, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	createTestUser(t, svc.store, "owner", "Owner")
	createTestPhoto(t, svc.store, "p1", "owner", "Nature", 100)
	createTestPhoto(t, svc.store, "p2", "owner", "Urban", 100)
	createTestPhoto(t, svc.store, "p3", "owner", "Urban", 100)

	user, err := svc.photos.GetUserByUID(ctx, "owner")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, 3, user.NumberOfUploads)

	user, err = svc.photos.GetUserByUID(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, user)
}
