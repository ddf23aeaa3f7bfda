package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/photogram/photogram-server/internal/domain"
	"github.com/photogram/photogram-server/internal/store"
)

const (
	// indexVersion is written to indexes/version once backfill completes.
	indexVersion = 1

	// backfillBatchSize bounds the paths written per multi-path update.
	backfillBatchSize = 500
)

// IndexMarker is the document stored at indexes/version.
type IndexMarker struct {
	Version     int   `json:"version"`
	CompletedAt int64 `json:"completedAt"`
}

// BackfillResult summarizes one index backfill.
type BackfillResult struct {
	Skipped           bool
	Indexed           int
	DuplicatesRemoved int
}

// ReconcileResult summarizes one counter reconciliation.
type ReconcileResult struct {
	Users int
	Fixed int
}

// MaintenanceService repairs derived data: like indexes and owner counters.
type MaintenanceService struct {
	db       store.Database
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewMaintenanceService creates a new maintenance service. recorder may be nil.
func NewMaintenanceService(db store.Database, recorder Recorder, logger *slog.Logger) *MaintenanceService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &MaintenanceService{
		db:       db,
		recorder: recorder,
		logger:   discardLogger(logger),
		now:      time.Now,
	}
}

// BackfillLikeIndexes builds likeIndex and commentLikeIndex from the flat
// like collections, once. Later duplicates of a (target, user) pair are
// removed; the oldest like wins.
func (s *MaintenanceService) BackfillLikeIndexes(ctx context.Context) (*BackfillResult, error) {
	// 1. Skip when already done.
	done, err := s.db.Exists(ctx, store.IndexVersionPath)
	if err != nil {
		return nil, err
	}
	if done {
		s.logger.Debug("like indexes already built, skipping backfill")
		return &BackfillResult{Skipped: true}, nil
	}

	// 2. Index both collections.
	result := &BackfillResult{}
	for _, kind := range []likeKind{photoLikes, commentLikes} {
		if err := s.backfill(ctx, kind, result); err != nil {
			return nil, err
		}
	}

	// 3. Mark complete.
	marker := IndexMarker{Version: indexVersion, CompletedAt: nowMillis(s.now)}
	if err := s.db.Set(ctx, store.IndexVersionPath, marker); err != nil {
		return nil, err
	}

	s.logger.Info("like indexes backfilled",
		"indexed", result.Indexed,
		"duplicates_removed", result.DuplicatesRemoved,
	)
	return result, nil
}

func (s *MaintenanceService) backfill(ctx context.Context, kind likeKind, result *BackfillResult) error {
	snaps, err := s.db.Children(ctx, kind.root)
	if err != nil {
		return err
	}

	// Children is key-ordered and push keys are time-ordered, so the first
	// like seen for a pair is the oldest.
	seen := make(map[string]bool)
	batch := make(map[string]any)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := s.db.UpdateMulti(ctx, batch)
		batch = make(map[string]any)
		return err
	}

	for _, snap := range snaps {
		targetID, userID, err := kind.decode(snap)
		if err != nil {
			s.logger.Warn("skipping undecodable like", "kind", kind.name, "like_id", snap.Key, "error", err)
			continue
		}
		if !store.ValidKey(targetID) || !store.ValidKey(userID) {
			s.logger.Warn("skipping like with invalid reference", "kind", kind.name, "like_id", snap.Key)
			continue
		}

		pair := targetID + "/" + userID
		if seen[pair] {
			s.logger.Warn("removing duplicate like",
				"kind", kind.name, "like_id", snap.Key, "target_id", targetID, "user_id", userID)
			batch[kind.path(snap.Key)] = nil
			result.DuplicatesRemoved++
		} else {
			seen[pair] = true
			batch[kind.indexPath(targetID, userID)] = snap.Key
			result.Indexed++
		}

		if len(batch) >= backfillBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// ReconcileLikeCounters recomputes every user's totalLikes from the likes on
// the photos they own and rewrites counters that drifted.
func (s *MaintenanceService) ReconcileLikeCounters(ctx context.Context) (*ReconcileResult, error) {
	// 1. Map photos to owners.
	photoSnaps, err := s.db.Children(ctx, store.PublicImagesRoot)
	if err != nil {
		return nil, err
	}
	ownerOf := make(map[string]string, len(photoSnaps))
	for _, snap := range photoSnaps {
		var photo domain.Photo
		if err := snap.Decode(&photo); err != nil {
			continue
		}
		ownerOf[snap.Key] = photo.UID
	}

	// 2. Count likes per owner.
	likeSnaps, err := s.db.Children(ctx, store.LikesRoot)
	if err != nil {
		return nil, err
	}
	expected := make(map[string]int)
	for _, snap := range likeSnaps {
		photoID, _, err := photoLikes.decode(snap)
		if err != nil {
			continue
		}
		if owner, ok := ownerOf[photoID]; ok {
			expected[owner]++
		}
	}

	// 3. Rewrite drifted counters.
	userSnaps, err := s.db.Children(ctx, store.UsersRoot)
	if err != nil {
		return nil, err
	}
	result := &ReconcileResult{Users: len(userSnaps)}
	for _, snap := range userSnaps {
		var user domain.User
		if err := snap.Decode(&user); err != nil {
			s.logger.Warn("skipping undecodable user", "user_id", snap.Key, "error", err)
			continue
		}
		want := expected[snap.Key]
		if user.TotalLikes == want {
			continue
		}

		if err := s.db.Merge(ctx, store.UserPath(snap.Key), map[string]any{"totalLikes": want}); err != nil {
			return nil, err
		}
		result.Fixed++
		s.recorder.RecordCounterRepair()
		s.logger.Info("repaired like counter", "user_id", snap.Key, "was", user.TotalLikes, "now", want)
	}

	s.logger.Info("like counters reconciled", "users", result.Users, "fixed", result.Fixed)
	return result, nil
}
