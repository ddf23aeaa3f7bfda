package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/photogram/photogram-server/internal/domain"
	"github.com/photogram/photogram-server/internal/keylock"
	"github.com/photogram/photogram-server/internal/store"
	"github.com/stretchr/testify/require"
)

type toggleEvent struct {
	target string
	liked  bool
}

type recordingRecorder struct {
	mu      sync.Mutex
	toggles []toggleEvent
	repairs int
}

func (r *recordingRecorder) RecordToggle(target string, liked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toggles = append(r.toggles, toggleEvent{target, liked})
}

func (r *recordingRecorder) RecordCounterRepair() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.repairs++
}

type testServices struct {
	store       *store.Store
	recorder    *recordingRecorder
	likes       *LikeService
	comments    *CommentService
	photos      *PhotoService
	users       *UserService
	maintenance *MaintenanceService
}

func setupTestServices(t *testing.T) (*testServices, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "service-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	testStore, err := store.New(dbPath, nil, store.Options{})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := &recordingRecorder{}

	likes := NewLikeService(testStore, keylock.New(0), recorder, logger)
	photos := NewPhotoService(testStore, likes, logger)
	svc := &testServices{
		store:       testStore,
		recorder:    recorder,
		likes:       likes,
		comments:    NewCommentService(testStore, likes, logger),
		photos:      photos,
		users:       NewUserService(testStore, photos, logger),
		maintenance: NewMaintenanceService(testStore, recorder, logger),
	}

	cleanup := func() {
		testStore.Close()
		os.RemoveAll(tmpDir)
	}

	return svc, cleanup
}

func createTestUser(t *testing.T, s *store.Store, uid, name string) *domain.User {
	t.Helper()
	user := &domain.User{UID: uid, Name: &name, Email: uid + "@test.com"}
	require.NoError(t, s.Set(context.Background(), store.UserPath(uid), user))
	return user
}

func createTestPhoto(t *testing.T, s *store.Store, id, ownerID, category string, createdAt int64) *domain.Photo {
	t.Helper()
	photo := &domain.Photo{
		ID:        id,
		UID:       ownerID,
		ImageURL:  "https://img.test/" + id + ".jpg",
		Category:  category,
		CreatedAt: createdAt,
	}
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, store.PhotoPath(id), photo))
	require.NoError(t, s.Set(ctx, store.Join(store.UserImagesPath(ownerID), id), map[string]string{"imageUrl": photo.ImageURL}))
	return photo
}

func getTestUser(t *testing.T, s *store.Store, uid string) *domain.User {
	t.Helper()
	var user domain.User
	found, err := s.Get(context.Background(), store.UserPath(uid), &user)
	require.NoError(t, err)
	require.True(t, found, "user %s should exist", uid)
	return &user
}
