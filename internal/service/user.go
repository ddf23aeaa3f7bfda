package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/photogram/photogram-server/internal/domain"
	domainerrors "github.com/photogram/photogram-server/internal/errors"
	"github.com/photogram/photogram-server/internal/store"
)

// UserService reads and edits the caller's own profile.
type UserService struct {
	db     store.Database
	photos *PhotoService
	logger *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(db store.Database, photos *PhotoService, logger *slog.Logger) *UserService {
	return &UserService{
		db:     db,
		photos: photos,
		logger: discardLogger(logger),
	}
}

// GetCurrentUser returns the user for uid.
func (s *UserService) GetCurrentUser(ctx context.Context, uid string) (*domain.User, error) {
	user, err := s.photos.GetUserByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateCurrentUser applies the editable profile fields. A missing user
// record is created from the verified uid and email with zeroed counters.
func (s *UserService) UpdateCurrentUser(ctx context.Context, uid, email string, update domain.UpdateProfile) (*domain.User, error) {
	if !store.ValidKey(uid) {
		return nil, domainerrors.Validation("Invalid user ID")
	}

	// 1. Merge or create inside one transaction so counter updates are not lost.
	created := false
	_, err := s.db.Transaction(ctx, store.UserPath(uid), func(current json.RawMessage) (any, error) {
		if current == nil {
			created = true
			name := update.Name
			return domain.User{UID: uid, Name: &name, Email: email}, nil
		}
		created = false
		doc := map[string]json.RawMessage{}
		if err := json.Unmarshal(current, &doc); err != nil {
			return nil, fmt.Errorf("decode user %s: %w", uid, err)
		}
		name, err := json.Marshal(update.Name)
		if err != nil {
			return nil, err
		}
		doc["name"] = name
		return doc, nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.Info("user created", "user_id", uid)
	} else {
		s.logger.Info("user updated", "user_id", uid)
	}

	// 2. Return the stored view.
	return s.GetCurrentUser(ctx, uid)
}
