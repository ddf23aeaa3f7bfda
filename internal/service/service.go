// Package service holds the Photogram business logic: like toggles and
// counters, comment lifecycle, feed assembly, profiles, and maintenance.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/photogram/photogram-server/internal/domain"
	domainerrors "github.com/photogram/photogram-server/internal/errors"
	"github.com/photogram/photogram-server/internal/store"
)

// Recorder receives like-counter events. *metrics.Metrics satisfies it.
type Recorder interface {
	RecordToggle(target string, liked bool)
	RecordCounterRepair()
}

type nopRecorder struct{}

func (nopRecorder) RecordToggle(string, bool) {}
func (nopRecorder) RecordCounterRepair()      {}

// Toggle targets reported to the Recorder.
const (
	targetPhoto   = "photo"
	targetComment = "comment"
)

// Not-found errors returned to callers.
var (
	ErrPhotoNotFound   = domainerrors.NotFound("Photo not found")
	ErrCommentNotFound = domainerrors.NotFound("Comment not found")
	ErrUserNotFound    = domainerrors.NotFound("User not found")
)

// getPhoto loads images/public/{photoID}. Returns nil when absent or when the
// id cannot name a document.
func getPhoto(ctx context.Context, db store.Database, photoID string) (*domain.Photo, error) {
	if !store.ValidKey(photoID) {
		return nil, nil
	}
	var photo domain.Photo
	found, err := db.Get(ctx, store.PhotoPath(photoID), &photo)
	if err != nil || !found {
		return nil, err
	}
	if photo.ID == "" {
		photo.ID = photoID
	}
	return &photo, nil
}

// getUser loads users/{uid} without derived fields.
func getUser(ctx context.Context, db store.Database, uid string) (*domain.User, error) {
	if !store.ValidKey(uid) {
		return nil, nil
	}
	var user domain.User
	found, err := db.Get(ctx, store.UserPath(uid), &user)
	if err != nil || !found {
		return nil, err
	}
	if user.UID == "" {
		user.UID = uid
	}
	return &user, nil
}

func nowMillis(now func() time.Time) int64 {
	return domain.Millis(now())
}

func discardLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
