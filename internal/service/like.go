package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/photogram/photogram-server/internal/domain"
	domainerrors "github.com/photogram/photogram-server/internal/errors"
	"github.com/photogram/photogram-server/internal/keylock"
	"github.com/photogram/photogram-server/internal/store"
)

// Toggle messages.
const (
	MsgLikeAdded          = "Like added successfully."
	MsgLikeRemoved        = "Like removed successfully."
	MsgCommentLikeAdded   = "Comment liked successfully."
	MsgCommentLikeRemoved = "Comment like removed successfully."
)

// likeKind describes one like collection and its (target, user) index.
type likeKind struct {
	name      string
	root      string
	indexPath func(targetID, userID string) string
	indexRoot func(targetID string) string
	path      func(likeID string) string
	decode    func(snap store.Snapshot) (targetID, userID string, err error)
}

var photoLikes = likeKind{
	name:      "like",
	root:      store.LikesRoot,
	indexPath: store.LikeIndexPath,
	indexRoot: store.LikeIndexRootPath,
	path:      store.LikePath,
	decode: func(snap store.Snapshot) (string, string, error) {
		var l domain.Like
		err := snap.Decode(&l)
		return l.PostID, l.UserID, err
	},
}

var commentLikes = likeKind{
	name:      "comment_like",
	root:      store.CommentLikesRoot,
	indexPath: store.CommentLikeIndexPath,
	indexRoot: store.CommentLikeIndexRootPath,
	path:      store.CommentLikePath,
	decode: func(snap store.Snapshot) (string, string, error) {
		var l domain.CommentLike
		err := snap.Decode(&l)
		return l.CommentID, l.UserID, err
	},
}

// LikeService toggles likes, records views, and answers the like and view
// count questions the feed and comment lists ask.
type LikeService struct {
	db       store.Database
	locks    *keylock.Striped
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time

	// indexed latches once indexes/version has been observed.
	indexed atomic.Bool
}

// NewLikeService creates a new like service. recorder may be nil.
func NewLikeService(db store.Database, locks *keylock.Striped, recorder Recorder, logger *slog.Logger) *LikeService {
	if locks == nil {
		locks = keylock.New(0)
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &LikeService{
		db:       db,
		locks:    locks,
		recorder: recorder,
		logger:   discardLogger(logger),
		now:      time.Now,
	}
}

// ToggleLike likes the photo for userID, or removes the like if it exists.
func (s *LikeService) ToggleLike(ctx context.Context, userID, photoID string) (*domain.ToggleResult, error) {
	if !store.ValidKey(userID) {
		return nil, domainerrors.Validation("Invalid user ID")
	}

	// 1. The photo must exist.
	photo, err := getPhoto(ctx, s.db, photoID)
	if err != nil {
		return nil, err
	}
	if photo == nil {
		return nil, ErrPhotoNotFound
	}

	// 2. Serialize toggles of this pair.
	unlock, err := s.lock(ctx, photoLikes, userID, photoID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// 3. Find the current like.
	likeID, err := s.find(ctx, photoLikes, userID, photoID)
	if err != nil {
		return nil, err
	}

	// 4. Flip it, then move the owner's counter.
	if likeID != "" {
		if err := s.db.UpdateMulti(ctx, map[string]any{
			store.LikePath(likeID):               nil,
			store.LikeIndexPath(photoID, userID): nil,
		}); err != nil {
			return nil, err
		}
		if err := s.adjustTotalLikes(ctx, photo.UID, -1); err != nil {
			return nil, err
		}
		s.recorder.RecordToggle(targetPhoto, false)
		s.logger.Debug("like removed", "photo_id", photoID, "user_id", userID)
		return &domain.ToggleResult{HasLiked: false, Message: MsgLikeRemoved}, nil
	}

	likeID, err = s.db.NewKey()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate like ID")
	}
	like := domain.Like{
		ID:        likeID,
		PostID:    photoID,
		UserID:    userID,
		CreatedAt: nowMillis(s.now),
	}
	if err := s.db.UpdateMulti(ctx, map[string]any{
		store.LikePath(likeID):               like,
		store.LikeIndexPath(photoID, userID): likeID,
	}); err != nil {
		return nil, err
	}
	if err := s.adjustTotalLikes(ctx, photo.UID, 1); err != nil {
		return nil, err
	}
	s.recorder.RecordToggle(targetPhoto, true)
	s.logger.Debug("like added", "photo_id", photoID, "user_id", userID, "like_id", likeID)
	return &domain.ToggleResult{HasLiked: true, Message: MsgLikeAdded}, nil
}

// ToggleCommentLike likes the comment for userID, or removes the like if it exists.
// Comment likes carry no owner counter.
func (s *LikeService) ToggleCommentLike(ctx context.Context, userID, commentID string) (*domain.ToggleResult, error) {
	if !store.ValidKey(userID) {
		return nil, domainerrors.Validation("Invalid user ID")
	}
	if !store.ValidKey(commentID) {
		return nil, ErrCommentNotFound
	}

	exists, err := s.db.Exists(ctx, store.CommentPath(commentID))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrCommentNotFound
	}

	unlock, err := s.lock(ctx, commentLikes, userID, commentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	likeID, err := s.find(ctx, commentLikes, userID, commentID)
	if err != nil {
		return nil, err
	}

	if likeID != "" {
		if err := s.db.UpdateMulti(ctx, map[string]any{
			store.CommentLikePath(likeID):                 nil,
			store.CommentLikeIndexPath(commentID, userID): nil,
		}); err != nil {
			return nil, err
		}
		s.recorder.RecordToggle(targetComment, false)
		return &domain.ToggleResult{HasLiked: false, Message: MsgCommentLikeRemoved}, nil
	}

	likeID, err = s.db.NewKey()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate comment like ID")
	}
	like := domain.CommentLike{
		ID:        likeID,
		CommentID: commentID,
		UserID:    userID,
		CreatedAt: nowMillis(s.now),
	}
	if err := s.db.UpdateMulti(ctx, map[string]any{
		store.CommentLikePath(likeID):                 like,
		store.CommentLikeIndexPath(commentID, userID): likeID,
	}); err != nil {
		return nil, err
	}
	s.recorder.RecordToggle(targetComment, true)
	return &domain.ToggleResult{HasLiked: true, Message: MsgCommentLikeAdded}, nil
}

// IncrementViewCount appends one view event for the photo.
func (s *LikeService) IncrementViewCount(ctx context.Context, photoID string) error {
	photo, err := getPhoto(ctx, s.db, photoID)
	if err != nil {
		return err
	}
	if photo == nil {
		return ErrPhotoNotFound
	}

	view := domain.View{
		Timestamp: nowMillis(s.now),
		PhotoID:   photoID,
		UID:       photo.UID,
	}
	if _, err := s.db.Push(ctx, store.PhotoViewsPath(photoID), view); err != nil {
		return err
	}
	return nil
}

// GetPhotoLikesCount returns the number of likes on a photo, 0 on failure.
func (s *LikeService) GetPhotoLikesCount(ctx context.Context, photoID string) int {
	return s.count(ctx, photoLikes, photoID)
}

// GetCommentLikesCount returns the number of likes on a comment, 0 on failure.
func (s *LikeService) GetCommentLikesCount(ctx context.Context, commentID string) int {
	return s.count(ctx, commentLikes, commentID)
}

// GetPhotoViewsCount returns the number of recorded views, 0 on failure.
func (s *LikeService) GetPhotoViewsCount(ctx context.Context, photoID string) int {
	if !store.ValidKey(photoID) {
		return 0
	}
	n, err := s.db.Count(ctx, store.PhotoViewsPath(photoID))
	if err != nil {
		s.logger.Warn("failed to count views", "photo_id", photoID, "error", err)
		return 0
	}
	return n
}

// HasUserLikedPhoto reports whether userID likes the photo, false on failure.
func (s *LikeService) HasUserLikedPhoto(ctx context.Context, userID, photoID string) bool {
	return s.has(ctx, photoLikes, userID, photoID)
}

// HasUserLikedComment reports whether userID likes the comment, false on failure.
func (s *LikeService) HasUserLikedComment(ctx context.Context, userID, commentID string) bool {
	return s.has(ctx, commentLikes, userID, commentID)
}

// LikeTallies makes one pass over the photo likes, returning like counts per
// photo and the set of photos viewerID has liked. viewerID may be empty.
func (s *LikeService) LikeTallies(ctx context.Context, viewerID string) (counts map[string]int, liked map[string]bool, err error) {
	snaps, err := s.db.Children(ctx, store.LikesRoot)
	if err != nil {
		return nil, nil, err
	}

	counts = make(map[string]int)
	liked = make(map[string]bool)
	for _, snap := range snaps {
		photoID, userID, err := photoLikes.decode(snap)
		if err != nil {
			s.logger.Warn("skipping undecodable like", "like_id", snap.Key, "error", err)
			continue
		}
		counts[photoID]++
		if viewerID != "" && userID == viewerID {
			liked[photoID] = true
		}
	}
	return counts, liked, nil
}

// lock takes the per-(kind, user, target) toggle lock.
func (s *LikeService) lock(ctx context.Context, kind likeKind, userID, targetID string) (func(), error) {
	unlock, err := s.locks.Lock(ctx, keylock.Key(kind.name, userID, targetID))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "request canceled")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeTimeout, "timed out waiting for like lock")
	}
	return unlock, nil
}

// find returns the id of userID's like on targetID, or "" when there is none.
// An index miss falls back to scanning the flat collection until the indexes
// have been backfilled.
func (s *LikeService) find(ctx context.Context, kind likeKind, userID, targetID string) (string, error) {
	if !store.ValidKey(userID) || !store.ValidKey(targetID) {
		return "", nil
	}

	var likeID string
	found, err := s.db.Get(ctx, kind.indexPath(targetID, userID), &likeID)
	if err != nil {
		return "", err
	}
	if found && likeID != "" {
		return likeID, nil
	}
	if s.indexesReady(ctx) {
		return "", nil
	}

	snaps, err := s.db.Children(ctx, kind.root)
	if err != nil {
		return "", err
	}
	for _, snap := range snaps {
		t, u, err := kind.decode(snap)
		if err != nil {
			continue
		}
		if t == targetID && u == userID {
			return snap.Key, nil
		}
	}
	return "", nil
}

func (s *LikeService) has(ctx context.Context, kind likeKind, userID, targetID string) bool {
	if userID == "" {
		return false
	}
	likeID, err := s.find(ctx, kind, userID, targetID)
	if err != nil {
		s.logger.Warn("failed to check like", "kind", kind.name, "target_id", targetID, "user_id", userID, "error", err)
		return false
	}
	return likeID != ""
}

func (s *LikeService) count(ctx context.Context, kind likeKind, targetID string) int {
	if !store.ValidKey(targetID) {
		return 0
	}

	if s.indexesReady(ctx) {
		n, err := s.db.Count(ctx, kind.indexRoot(targetID))
		if err != nil {
			s.logger.Warn("failed to count likes", "kind", kind.name, "target_id", targetID, "error", err)
			return 0
		}
		return n
	}

	snaps, err := s.db.Children(ctx, kind.root)
	if err != nil {
		s.logger.Warn("failed to count likes", "kind", kind.name, "target_id", targetID, "error", err)
		return 0
	}
	n := 0
	for _, snap := range snaps {
		if t, _, err := kind.decode(snap); err == nil && t == targetID {
			n++
		}
	}
	return n
}

// indexesReady reports whether the like indexes are authoritative.
func (s *LikeService) indexesReady(ctx context.Context) bool {
	if s.indexed.Load() {
		return true
	}
	ok, err := s.db.Exists(ctx, store.IndexVersionPath)
	if err != nil {
		return false
	}
	if ok {
		s.indexed.Store(true)
	}
	return ok
}

// adjustTotalLikes moves the owner's totalLikes by delta, flooring at zero.
// Owners without a user record are skipped.
func (s *LikeService) adjustTotalLikes(ctx context.Context, ownerID string, delta int) error {
	if !store.ValidKey(ownerID) {
		s.logger.Warn("photo has no valid owner, counter not updated", "user_id", ownerID)
		return nil
	}

	committed, err := s.db.Transaction(ctx, store.UserPath(ownerID), func(current json.RawMessage) (any, error) {
		if current == nil {
			return nil, store.ErrAbort
		}
		doc := map[string]json.RawMessage{}
		if err := json.Unmarshal(current, &doc); err != nil {
			return nil, fmt.Errorf("decode user %s: %w", ownerID, err)
		}
		total := max(0, readCounter(doc["totalLikes"])+delta)
		encoded, err := json.Marshal(total)
		if err != nil {
			return nil, err
		}
		doc["totalLikes"] = encoded
		return doc, nil
	})
	if err != nil {
		s.logger.Error("failed to update owner like counter", "user_id", ownerID, "delta", delta, "error", err)
		return err
	}
	if !committed {
		s.logger.Debug("owner record missing, counter not updated", "user_id", ownerID)
	}
	return nil
}

// readCounter decodes a stored counter, treating absent or malformed values as 0.
func readCounter(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0
	}
	return int(n)
}
