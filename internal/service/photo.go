package service

import (
	"context"
	"log/slog"
	"sort"

	"github.com/photogram/photogram-server/internal/domain"
	domainerrors "github.com/photogram/photogram-server/internal/errors"
	"github.com/photogram/photogram-server/internal/store"
)

// Pagination errors.
var (
	ErrInvalidPage     = domainerrors.Validation("Page must be greater than 0")
	ErrInvalidPageSize = domainerrors.Validationf("Page size must be between 1 and %d", domain.MaxPageSize)
)

// PhotoService assembles the public feed and resolves photos and their owners.
type PhotoService struct {
	db     store.Database
	likes  *LikeService
	logger *slog.Logger
}

// NewPhotoService creates a new photo service.
func NewPhotoService(db store.Database, likes *LikeService, logger *slog.Logger) *PhotoService {
	return &PhotoService{
		db:     db,
		likes:  likes,
		logger: discardLogger(logger),
	}
}

// ValidatePagination checks page and page size bounds.
func ValidatePagination(p domain.Pagination) error {
	if p.Page < 1 {
		return ErrInvalidPage
	}
	if p.PageSize < 1 || p.PageSize > domain.MaxPageSize {
		return ErrInvalidPageSize
	}
	return nil
}

// GetCategoriesWithPagination returns one page of every category, newest
// photos first. Categories left empty by the window or by missing owners
// are omitted.
func (s *PhotoService) GetCategoriesWithPagination(ctx context.Context, viewerID string, p domain.Pagination) (domain.Categories, error) {
	if err := ValidatePagination(p); err != nil {
		return nil, err
	}

	// 1. Load every public photo.
	snaps, err := s.db.Children(ctx, store.PublicImagesRoot)
	if err != nil {
		return nil, err
	}
	photos := make([]domain.Photo, 0, len(snaps))
	for _, snap := range snaps {
		var photo domain.Photo
		if err := snap.Decode(&photo); err != nil {
			s.logger.Warn("skipping undecodable photo", "photo_id", snap.Key, "error", err)
			continue
		}
		if photo.ID == "" {
			photo.ID = snap.Key
		}
		photos = append(photos, photo)
	}

	// 2. Newest first.
	sort.SliceStable(photos, func(i, j int) bool {
		return photos[i].CreatedAt > photos[j].CreatedAt
	})

	// 3. Partition by category, keeping order.
	byCategory := make(map[string][]domain.Photo)
	for _, photo := range photos {
		category := photo.CategoryOrDefault()
		byCategory[category] = append(byCategory[category], photo)
	}

	// 4. Tally likes in one pass.
	counts, liked, err := s.likes.LikeTallies(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	// 5-7. Window each category, resolve owners and views, drop empty categories.
	owners := make(map[string]*domain.User)
	result := make(domain.Categories)
	for category, list := range byCategory {
		start, end := p.Window(len(list))

		entries := make([]domain.PhotoWithUser, 0, end-start)
		for _, photo := range list[start:end] {
			owner, ok := owners[photo.UID]
			if !ok {
				owner, err = s.GetUserByUID(ctx, photo.UID)
				if err != nil {
					return nil, err
				}
				owners[photo.UID] = owner
			}
			if owner == nil {
				s.logger.Warn("skipping photo with missing owner", "photo_id", photo.ID, "user_id", photo.UID)
				continue
			}

			photo.Likes = counts[photo.ID]
			photo.Views = s.likes.GetPhotoViewsCount(ctx, photo.ID)
			entries = append(entries, domain.PhotoWithUser{
				Photo:    photo,
				User:     *owner,
				HasLiked: liked[photo.ID],
			})
		}

		if len(entries) > 0 {
			result[category] = entries
		}
	}

	return result, nil
}

// GetPhotoByID returns the photo, or nil when it does not exist.
func (s *PhotoService) GetPhotoByID(ctx context.Context, photoID string) (*domain.Photo, error) {
	return getPhoto(ctx, s.db, photoID)
}

// GetUserByUID returns the user with numberOfUploads recomputed, or nil when
// the user does not exist.
func (s *PhotoService) GetUserByUID(ctx context.Context, uid string) (*domain.User, error) {
	user, err := getUser(ctx, s.db, uid)
	if err != nil || user == nil {
		return nil, err
	}

	uploads, err := s.db.Count(ctx, store.UserImagesPath(uid))
	if err != nil {
		s.logger.Warn("failed to count uploads", "user_id", uid, "error", err)
		uploads = 0
	}
	user.NumberOfUploads = uploads
	return user, nil
}
