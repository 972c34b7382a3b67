// Package seed populates a store with demo accounts, posts and interactions.
// It writes through the repositories so both backends are seeded the same
// way and follow/like notifications are produced as in normal use.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"murmur/internal/database"
	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded account logs in with.
const DefaultPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers int
	NumPosts int
	// MaxFollows caps how many accounts each seeded account follows.
	MaxFollows int
	// MaxLikes caps how many likes each seeded post receives.
	MaxLikes    int
	MaxComments int
	// Seed makes the generated data reproducible when non-zero.
	Seed int64
	// FastHash stores passwords with bcrypt.MinCost.
	FastHash bool
}

// Result counts what a run created.
type Result struct {
	Users    []models.User
	Posts    []models.Post
	Follows  int
	Likes    int
	Comments int
}

// Seeder creates demo data through a repository set.
type Seeder struct {
	repos repository.Set
	opts  Options
	faker *gofakeit.Faker
}

// NewSeeder returns a Seeder bound to repos.
func NewSeeder(repos repository.Set, opts Options) *Seeder {
	if opts.MaxFollows <= 0 {
		opts.MaxFollows = 5
	}
	if opts.MaxLikes <= 0 {
		opts.MaxLikes = 5
	}
	if opts.MaxComments < 0 {
		opts.MaxComments = 0
	}
	faker := gofakeit.New(opts.Seed)
	return &Seeder{repos: repos, opts: opts, faker: faker}
}

// Run creates accounts, then posts, then follow and like edges and comments.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	middleware.Logger.InfoContext(ctx, "Starting database seeding",
		slog.Int("users", s.opts.NumUsers), slog.Int("posts", s.opts.NumPosts))

	users, err := s.createUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	res := &Result{Users: users}

	if res.Follows, err = s.createFollows(ctx, users); err != nil {
		return nil, fmt.Errorf("failed to create follows: %w", err)
	}
	if res.Posts, err = s.createPosts(ctx, users); err != nil {
		return nil, fmt.Errorf("failed to create posts: %w", err)
	}
	if res.Likes, res.Comments, err = s.createEngagement(ctx, users, res.Posts); err != nil {
		return nil, fmt.Errorf("failed to create engagement: %w", err)
	}

	middleware.Logger.InfoContext(ctx, "Database seeding completed",
		slog.Int("users", len(res.Users)),
		slog.Int("posts", len(res.Posts)),
		slog.Int("follows", res.Follows),
		slog.Int("likes", res.Likes),
		slog.Int("comments", res.Comments),
	)
	return res, nil
}

func (s *Seeder) createUsers(ctx context.Context) ([]models.User, error) {
	cost := bcrypt.DefaultCost
	if s.opts.FastHash {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		person := s.faker.Person()
		username := fmt.Sprintf("%s%d", strings.ToLower(person.FirstName), i+1)
		user := models.User{
			Username:   username,
			FullName:   person.FirstName + " " + person.LastName,
			Email:      username + "@example.com",
			Password:   string(hashed),
			Bio:        s.faker.Sentence(8),
			Link:       s.faker.URL(),
			ProfileImg: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
		}
		if err := s.repos.Users.Create(ctx, &user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// createFollows makes each account follow a random subset of the others.
func (s *Seeder) createFollows(ctx context.Context, users []models.User) (int, error) {
	count := 0
	for i := range users {
		for _, j := range s.pick(len(users), s.faker.Number(0, s.opts.MaxFollows), i) {
			n := &models.Notification{FromID: users[i].ID, ToID: users[j].ID, Type: models.NotificationFollow}
			if err := s.repos.Users.Follow(ctx, users[i].ID, users[j].ID, n); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

func (s *Seeder) createPosts(ctx context.Context, users []models.User) ([]models.Post, error) {
	if len(users) == 0 {
		return nil, nil
	}
	posts := make([]models.Post, 0, s.opts.NumPosts)
	for i := 0; i < s.opts.NumPosts; i++ {
		author := users[s.faker.Number(0, len(users)-1)]
		post := models.Post{UserID: author.ID, Text: s.faker.Sentence(s.faker.Number(4, 16))}
		if s.faker.Number(1, 4) == 1 {
			post.Img = fmt.Sprintf("https://picsum.photos/seed/%s/800/600", s.faker.UUID())
		}
		if err := s.repos.Posts.Create(ctx, &post); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Seeder) createEngagement(ctx context.Context, users []models.User, posts []models.Post) (int, int, error) {
	likes, comments := 0, 0
	for _, post := range posts {
		for _, j := range s.pick(len(users), s.faker.Number(0, s.opts.MaxLikes), -1) {
			n := &models.Notification{FromID: users[j].ID, ToID: post.UserID, Type: models.NotificationLike}
			if err := s.repos.Posts.Like(ctx, users[j].ID, post.ID, n); err != nil {
				return likes, comments, err
			}
			likes++
		}
		if s.opts.MaxComments == 0 {
			continue
		}
		for k := s.faker.Number(0, s.opts.MaxComments); k > 0; k-- {
			commenter := users[s.faker.Number(0, len(users)-1)]
			c := &models.Comment{PostID: post.ID, UserID: commenter.ID, Text: s.faker.Sentence(6)}
			if err := s.repos.Posts.AddComment(ctx, c); err != nil {
				return likes, comments, err
			}
			comments++
		}
	}
	return likes, comments, nil
}

// pick returns up to k distinct indexes in [0, n), never exclude.
func (s *Seeder) pick(n, k, exclude int) []int {
	candidates := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if i != exclude {
			candidates = append(candidates, i)
		}
	}
	s.faker.ShuffleAnySlice(candidates)
	if k > len(candidates) {
		k = len(candidates)
	}
	return candidates[:k]
}

// ClearRelational removes every row the relational schema holds.
func ClearRelational(db *gorm.DB) error {
	middleware.Logger.Info("Clearing existing data")
	for _, table := range []string{"notifications", "likes", "follows", "comments", "posts", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// ClearDocuments empties the document-store collections, keeping indexes.
func ClearDocuments(ctx context.Context, db *mongo.Database) error {
	middleware.Logger.InfoContext(ctx, "Clearing existing data")
	for _, name := range []string{
		database.NotificationsCollection,
		database.PostsCollection,
		database.UsersCollection,
		database.CountersCollection,
	} {
		if _, err := db.Collection(name).DeleteMany(ctx, bson.D{}); err != nil {
			return fmt.Errorf("clear %s: %w", name, err)
		}
	}
	return nil
}
