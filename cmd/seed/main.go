// Package main seeds the database with fake users, photos, likes, comments
// and views for local development.
//
// It writes through the service layer, so owner counters and like indexes
// stay consistent. Stop the server first: the database allows one writer.
//
// Usage:
//
//	DB_PATH=~/photogram/db go run ./cmd/seed
//	DB_PATH=~/photogram/db go run ./cmd/seed --users 20 --photos 100 --tokens
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/photogram/photogram-server/internal/auth"
	"github.com/photogram/photogram-server/internal/config"
	"github.com/photogram/photogram-server/internal/domain"
	"github.com/photogram/photogram-server/internal/keylock"
	"github.com/photogram/photogram-server/internal/service"
	"github.com/photogram/photogram-server/internal/store"
)

var (
	numUsers    = flag.Int("users", 10, "Number of users to create")
	numPhotos   = flag.Int("photos", 40, "Number of public photos to create")
	maxLikes    = flag.Int("max-likes", 6, "Maximum likes per photo")
	maxComments = flag.Int("max-comments", 4, "Maximum comments per photo")
	printTokens = flag.Bool("tokens", false, "Print a PASETO bearer token for every seeded user")
)

var categories = []string{"Nature", "Street", "Portrait", "Architecture", "Food", ""}

func main() {
	flag.Parse()

	// Settings come from the environment and .env, as for the server.
	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.InMemory {
		log.Fatal("Seeding an in-memory database has no effect; unset DB_IN_MEMORY")
	}

	fmt.Printf("Opening database at: %s\n", cfg.Database.Path)

	s, err := store.New(cfg.Database.Path, nil, store.Options{Timeout: cfg.Database.Timeout})
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	gofakeit.Seed(time.Now().UnixNano())

	likes := service.NewLikeService(s, keylock.New(0), nil, nil)
	comments := service.NewCommentService(s, likes, nil)
	maintenance := service.NewMaintenanceService(s, nil, nil)

	users := createUsers(ctx, s, *numUsers)
	photos := createPhotos(ctx, s, users, *numPhotos)

	likeCount, commentCount, viewCount := 0, 0, 0
	for _, photoID := range photos {
		for _, uid := range pick(users, gofakeit.Number(0, *maxLikes)) {
			if _, err := likes.ToggleLike(ctx, uid, photoID); err != nil {
				log.Printf("Failed to like %s: %v", photoID, err)
				continue
			}
			likeCount++
		}

		for range gofakeit.Number(0, *maxComments) {
			author := users[gofakeit.Number(0, len(users)-1)]
			if _, err := comments.CreateComment(ctx, author, photoID, gofakeit.Sentence(gofakeit.Number(3, 12))); err != nil {
				log.Printf("Failed to comment on %s: %v", photoID, err)
				continue
			}
			commentCount++
		}

		for range gofakeit.Number(0, 25) {
			if err := likes.IncrementViewCount(ctx, photoID); err != nil {
				log.Printf("Failed to record view on %s: %v", photoID, err)
				break
			}
			viewCount++
		}
	}

	// Mark the like indexes as complete so the server skips its backfill.
	if _, err := maintenance.BackfillLikeIndexes(ctx); err != nil {
		log.Printf("Failed to backfill like indexes: %v", err)
	}

	fmt.Printf("\nCreated %d users, %d photos, %d likes, %d comments, %d views\n",
		len(users), len(photos), likeCount, commentCount, viewCount)

	if *printTokens {
		issueTokens(cfg, users)
	}

	fmt.Println("\nSeeding complete!")
}

func createUsers(ctx context.Context, s *store.Store, n int) []string {
	uids := make([]string, 0, n)
	for range n {
		uid := uuid.NewString()
		name := gofakeit.Name()
		user := domain.User{UID: uid, Name: &name, Email: gofakeit.Email()}
		if err := s.Set(ctx, store.UserPath(uid), user); err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}
		uids = append(uids, uid)
		fmt.Printf("  User %s (%s)\n", name, uid)
	}
	if len(uids) == 0 {
		log.Fatal("At least one user is required")
	}
	return uids
}

func createPhotos(ctx context.Context, s *store.Store, users []string, n int) []string {
	ids := make([]string, 0, n)
	start := time.Now().Add(-30 * 24 * time.Hour)
	for i := range n {
		photoID, err := s.NewKey()
		if err != nil {
			log.Fatalf("Failed to generate photo ID: %v", err)
		}
		owner := users[gofakeit.Number(0, len(users)-1)]
		photo := domain.Photo{
			ID:        photoID,
			UID:       owner,
			ImageURL:  gofakeit.ImageURL(1080, 1350),
			Category:  gofakeit.RandomString(categories),
			Tags:      []string{gofakeit.Word(), gofakeit.Word()},
			CreatedAt: domain.Millis(start.Add(time.Duration(i) * time.Hour)),
		}

		if err := s.UpdateMulti(ctx, map[string]any{
			store.PhotoPath(photoID): photo,
			store.Join(store.UserImagesPath(owner), photoID): map[string]any{
				"imageUrl":  photo.ImageURL,
				"createdAt": photo.CreatedAt,
			},
		}); err != nil {
			log.Fatalf("Failed to create photo: %v", err)
		}
		ids = append(ids, photoID)
	}
	return ids
}

// pick returns up to n distinct entries of list.
func pick(list []string, n int) []string {
	shuffled := make([]string, len(list))
	copy(shuffled, list)
	gofakeit.ShuffleStrings(shuffled)
	return shuffled[:min(n, len(shuffled))]
}

func issueTokens(cfg *config.Config, users []string) {
	key, err := auth.LoadOrGenerateKey(cfg.Auth.TokenKeyPath)
	if err != nil {
		log.Fatalf("Failed to load token key: %v", err)
	}
	tokens, err := auth.NewTokenService(key, cfg.Auth.TokenDuration)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	fmt.Println("\nBearer tokens:")
	for _, uid := range users {
		token, err := tokens.Issue(auth.Identity{UID: uid})
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Printf("  %s  %s\n", uid, token)
	}
}
