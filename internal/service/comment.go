package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/photogram/photogram-server/internal/domain"
	domainerrors "github.com/photogram/photogram-server/internal/errors"
	"github.com/photogram/photogram-server/internal/store"
)

// cascadeConcurrency bounds parallel deletes when removing a comment's likes.
const cascadeConcurrency = 8

// Ownership errors for comment changes.
var (
	ErrCannotEditComment   = domainerrors.Forbidden("Unauthorized to edit this comment")
	ErrCannotDeleteComment = domainerrors.Forbidden("Unauthorized to delete this comment")
)

// CommentService manages comments on photos.
type CommentService struct {
	db     store.Database
	likes  *LikeService
	logger *slog.Logger
	now    func() time.Time
}

// NewCommentService creates a new comment service.
func NewCommentService(db store.Database, likes *LikeService, logger *slog.Logger) *CommentService {
	return &CommentService{
		db:     db,
		likes:  likes,
		logger: discardLogger(logger),
		now:    time.Now,
	}
}

// CreateComment adds a comment by userID to the photo.
func (s *CommentService) CreateComment(ctx context.Context, userID, photoID, text string) (*domain.Comment, error) {
	// 1. The photo must exist.
	if !store.ValidKey(photoID) {
		return nil, ErrPhotoNotFound
	}
	exists, err := s.db.Exists(ctx, store.PhotoPath(photoID))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrPhotoNotFound
	}

	// 2. Build the record under a fresh push key.
	commentID, err := s.db.NewKey()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate comment ID")
	}
	comment := &domain.Comment{
		ID:         commentID,
		PhotoID:    photoID,
		UserID:     userID,
		Text:       text,
		CreatedAt:  nowMillis(s.now),
		LikesCount: 0,
	}

	// 3. Persist.
	if err := s.db.Set(ctx, store.CommentPath(commentID), comment); err != nil {
		return nil, err
	}

	s.logger.Info("comment created", "comment_id", commentID, "photo_id", photoID, "user_id", userID)
	return comment, nil
}

// GetCommentByID returns the comment, or nil when it does not exist.
func (s *CommentService) GetCommentByID(ctx context.Context, commentID string) (*domain.Comment, error) {
	if !store.ValidKey(commentID) {
		return nil, nil
	}
	var comment domain.Comment
	found, err := s.db.Get(ctx, store.CommentPath(commentID), &comment)
	if err != nil || !found {
		return nil, err
	}
	if comment.ID == "" {
		comment.ID = commentID
	}
	return &comment, nil
}

// GetPhotoComments returns the photo's comments, newest first, each joined
// with its author. Comments whose author no longer exists are skipped.
func (s *CommentService) GetPhotoComments(ctx context.Context, photoID, viewerID string) ([]domain.CommentWithUser, error) {
	snaps, err := s.db.Children(ctx, store.CommentsRoot)
	if err != nil {
		return nil, err
	}

	result := make([]domain.CommentWithUser, 0)
	authors := make(map[string]*domain.User)
	for _, snap := range snaps {
		var comment domain.Comment
		if err := snap.Decode(&comment); err != nil {
			s.logger.Warn("skipping undecodable comment", "comment_id", snap.Key, "error", err)
			continue
		}
		if comment.PhotoID != photoID {
			continue
		}
		if comment.ID == "" {
			comment.ID = snap.Key
		}

		author, ok := authors[comment.UserID]
		if !ok {
			author, err = getUser(ctx, s.db, comment.UserID)
			if err != nil {
				return nil, err
			}
			authors[comment.UserID] = author
		}
		if author == nil {
			s.logger.Warn("skipping comment with missing author", "comment_id", comment.ID, "user_id", comment.UserID)
			continue
		}

		comment.LikesCount = s.likes.GetCommentLikesCount(ctx, comment.ID)
		result = append(result, domain.CommentWithUser{
			Comment:  comment,
			User:     *author,
			HasLiked: viewerID != "" && s.likes.HasUserLikedComment(ctx, viewerID, comment.ID),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Comment.CreatedAt > result[j].Comment.CreatedAt
	})
	return result, nil
}

// UpdateComment replaces the text of userID's comment and returns the stored
// record. The existence check, ownership check and write run in one store
// transaction, so an update racing a delete cannot recreate the comment.
func (s *CommentService) UpdateComment(ctx context.Context, commentID, userID, text string) (*domain.Comment, error) {
	if !store.ValidKey(commentID) {
		return nil, ErrCommentNotFound
	}

	var updated domain.Comment
	_, err := s.db.Transaction(ctx, store.CommentPath(commentID), func(current json.RawMessage) (any, error) {
		if current == nil {
			return nil, ErrCommentNotFound
		}
		var comment domain.Comment
		if err := json.Unmarshal(current, &comment); err != nil {
			return nil, fmt.Errorf("decode comment %s: %w", commentID, err)
		}
		if !comment.IsOwnedBy(userID) {
			return nil, ErrCannotEditComment
		}

		doc := map[string]json.RawMessage{}
		if err := json.Unmarshal(current, &doc); err != nil {
			return nil, fmt.Errorf("decode comment %s: %w", commentID, err)
		}
		encoded, err := json.Marshal(text)
		if err != nil {
			return nil, err
		}
		doc["text"] = encoded

		comment.Text = text
		updated = comment
		return doc, nil
	})
	if err != nil {
		return nil, err
	}

	if updated.ID == "" {
		updated.ID = commentID
	}
	s.logger.Info("comment updated", "comment_id", commentID, "user_id", userID)
	return &updated, nil
}

// DeleteComment removes userID's comment and every like on it.
func (s *CommentService) DeleteComment(ctx context.Context, commentID, userID string) error {
	if _, err := s.owned(ctx, commentID, userID, ErrCannotDeleteComment); err != nil {
		return err
	}

	// 1. Remove every like referencing the comment, with its index entry.
	snaps, err := s.db.Children(ctx, store.CommentLikesRoot)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cascadeConcurrency)
	removed := 0
	for _, snap := range snaps {
		var like domain.CommentLike
		if err := snap.Decode(&like); err != nil || like.CommentID != commentID {
			continue
		}
		likeID := snap.Key
		updates := map[string]any{store.CommentLikePath(likeID): nil}
		if store.ValidKey(like.UserID) {
			updates[store.CommentLikeIndexPath(commentID, like.UserID)] = nil
		}
		removed++
		g.Go(func() error {
			return s.db.UpdateMulti(gctx, updates)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := s.db.Remove(ctx, store.CommentLikeIndexRootPath(commentID)); err != nil {
		return err
	}

	// 2. Remove the comment itself.
	if err := s.db.Remove(ctx, store.CommentPath(commentID)); err != nil {
		return err
	}

	s.logger.Info("comment deleted", "comment_id", commentID, "user_id", userID, "likes_removed", removed)
	return nil
}

// owned loads the comment and checks that userID wrote it, returning denied otherwise.
func (s *CommentService) owned(ctx context.Context, commentID, userID string, denied error) (*domain.Comment, error) {
	comment, err := s.GetCommentByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, ErrCommentNotFound
	}
	if !comment.IsOwnedBy(userID) {
		return nil, denied
	}
	return comment, nil
}
