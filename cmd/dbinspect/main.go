// Package main prints a summary of the database and checks derived data.
//
// Usage:
//
//	DB_PATH=~/photogram/db go run ./cmd/dbinspect
//	DB_PATH=~/photogram/db go run ./cmd/dbinspect --reconcile
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/photogram/photogram-server/internal/config"
	"github.com/photogram/photogram-server/internal/domain"
	"github.com/photogram/photogram-server/internal/id"
	"github.com/photogram/photogram-server/internal/service"
	"github.com/photogram/photogram-server/internal/store"
)

var reconcile = flag.Bool("reconcile", false, "Rewrite drifted totalLikes counters")

func main() {
	flag.Parse()

	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	s, err := store.New(cfg.Database.Path, nil, store.Options{Timeout: cfg.Database.Timeout})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	fmt.Println("=== Database Inspection ===")
	fmt.Printf("Path: %s\n\n", cfg.Database.Path)

	for _, root := range []string{
		store.UsersRoot,
		store.PublicImagesRoot,
		store.LikesRoot,
		store.CommentsRoot,
		store.CommentLikesRoot,
	} {
		n, err := s.Count(ctx, root)
		if err != nil {
			log.Fatalf("Failed to count %s: %v", root, err)
		}
		fmt.Printf("%-16s %d\n", root, n)
	}

	// Views are grouped under each photo, not stored as direct children.
	photos, err := s.Children(ctx, store.PublicImagesRoot)
	if err != nil {
		log.Fatalf("Failed to list photos: %v", err)
	}
	views, viewed := 0, 0
	for _, photo := range photos {
		n, err := s.Count(ctx, store.PhotoViewsPath(photo.Key))
		if err != nil {
			log.Fatalf("Failed to count views for %s: %v", photo.Key, err)
		}
		views += n
		if n > 0 {
			viewed++
		}
	}
	fmt.Printf("%-16s %d (across %d photos)\n", store.ViewsRoot, views, viewed)

	printIndexState(ctx, s)
	checkCounters(ctx, s)

	if *reconcile {
		maintenance := service.NewMaintenanceService(s, nil, nil)
		result, err := maintenance.ReconcileLikeCounters(ctx)
		if err != nil {
			log.Fatalf("Failed to reconcile: %v", err)
		}
		fmt.Printf("\nReconciled %d users, fixed %d counters\n", result.Users, result.Fixed)
	}
}

func printIndexState(ctx context.Context, s *store.Store) {
	var marker service.IndexMarker
	found, err := s.Get(ctx, store.IndexVersionPath, &marker)
	if err != nil {
		log.Fatalf("Failed to read index marker: %v", err)
	}

	fmt.Println()
	if !found {
		fmt.Println("Like indexes: not built (reads fall back to scans)")
		return
	}
	fmt.Printf("Like indexes: version %d, completed %s\n",
		marker.Version, time.UnixMilli(marker.CompletedAt).Format(time.RFC3339))
}

// checkCounters reports users whose stored totalLikes differs from the
// number of likes on their photos.
func checkCounters(ctx context.Context, s *store.Store) {
	photoSnaps, err := s.Children(ctx, store.PublicImagesRoot)
	if err != nil {
		log.Fatalf("Failed to list photos: %v", err)
	}
	owners := make(map[string]string, len(photoSnaps))
	for _, snap := range photoSnaps {
		var photo domain.Photo
		if err := snap.Decode(&photo); err == nil {
			owners[snap.Key] = photo.UID
		}
	}

	likeSnaps, err := s.Children(ctx, store.LikesRoot)
	if err != nil {
		log.Fatalf("Failed to list likes: %v", err)
	}
	if n := len(likeSnaps); n > 0 {
		// Push keys sort by creation time, so the last child is the newest.
		if at, err := id.PushTime(likeSnaps[n-1].Key); err == nil {
			fmt.Printf("\nLatest like:  %s\n", at.Format(time.RFC3339))
		}
	}

	expected := make(map[string]int)
	for _, snap := range likeSnaps {
		var like domain.Like
		if err := snap.Decode(&like); err != nil {
			continue
		}
		if owner, ok := owners[like.PostID]; ok {
			expected[owner]++
		}
	}

	userSnaps, err := s.Children(ctx, store.UsersRoot)
	if err != nil {
		log.Fatalf("Failed to list users: %v", err)
	}
	var drifted []string
	for _, snap := range userSnaps {
		var user domain.User
		if err := snap.Decode(&user); err != nil {
			continue
		}
		if user.TotalLikes != expected[snap.Key] {
			drifted = append(drifted, fmt.Sprintf("%s: stored %d, actual %d", snap.Key, user.TotalLikes, expected[snap.Key]))
		}
	}

	fmt.Println()
	if len(drifted) == 0 {
		fmt.Println("Like counters: consistent")
		return
	}
	fmt.Fprintf(os.Stdout, "Like counters: %d drifted\n  %s\n", len(drifted), strings.Join(drifted, "\n  "))
}
