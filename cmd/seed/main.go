// Command seed fills the configured store with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"murmur/internal/bootstrap"
	"murmur/internal/config"
	"murmur/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 100, "Number of posts to create")
	maxFollows := flag.Int("follows", 5, "Maximum accounts each user follows")
	maxLikes := flag.Int("likes", 5, "Maximum likes per post")
	maxComments := flag.Int("comments", 3, "Maximum comments per post")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fakerSeed := flag.Int64("seed", 0, "Random seed; 0 picks one")
	flag.Parse()

	log.Printf("Target: %d users, %d posts, clean=%v", *numUsers, *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = rt.Close(ctx) }()

	if *shouldClean {
		if rt.DB != nil {
			err = seed.ClearRelational(rt.DB)
		} else {
			err = seed.ClearDocuments(ctx, rt.MongoDB)
		}
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	s := seed.NewSeeder(rt.Repos, seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		MaxFollows:  *maxFollows,
		MaxLikes:    *maxLikes,
		MaxComments: *maxComments,
		Seed:        *fakerSeed,
	})
	res, err := s.Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d posts, %d follows, %d likes, %d comments",
		len(res.Users), len(res.Posts), res.Follows, res.Likes, res.Comments)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
