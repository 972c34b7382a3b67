package service

import (
	"context"
	"log/slog"
	"strings"

	"murmur/internal/media"
	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/repository"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
)

type PostService struct {
	posts     repository.PostRepository
	users     repository.UserRepository
	uploader  media.Uploader
	publisher NotificationPublisher
}

type CreatePostInput struct {
	UserID uint
	Text   string
	Img    string
}

// NewPostService returns a PostService. publisher may be nil.
func NewPostService(posts repository.PostRepository, users repository.UserRepository, uploader media.Uploader, publisher NotificationPublisher) *PostService {
	return &PostService{posts: posts, users: users, uploader: uploader, publisher: publisher}
}

func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if strings.TrimSpace(in.Text) == "" && in.Img == "" {
		return nil, models.NewValidationError("Post must have text or image")
	}

	author, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	img := ""
	if in.Img != "" {
		if s.uploader == nil {
			return nil, models.NewValidationError("Image uploads are not configured")
		}
		if img, err = s.uploader.Upload(ctx, in.Img); err != nil {
			return nil, err
		}
	}

	post := &models.Post{UserID: author.ID, Text: in.Text, Img: img}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	post.User = sanitize(author)
	post.EnsureSets()
	return post, nil
}

// Delete removes a post owned by userID together with its image.
func (s *PostService) Delete(ctx context.Context, userID, postID uint) (string, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return "", err
	}
	if post.UserID != userID {
		return "", models.NewForbiddenError("You are not authorized to delete this post", fiber.StatusUnauthorized)
	}

	if post.Img != "" && s.uploader != nil {
		if err := s.uploader.Destroy(ctx, post.Img); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to destroy post image",
				slog.Uint64("post_id", uint64(postID)), slog.String("error", err.Error()))
		}
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		return "", err
	}
	return "Post deleted successfully", nil
}

// Comment appends a comment and returns the updated post.
func (s *PostService) Comment(ctx context.Context, userID, postID uint, text string) (*models.Post, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.NewValidationError("Text field is required")
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	if err := s.posts.AddComment(ctx, &models.Comment{PostID: postID, UserID: userID, Text: text}); err != nil {
		return nil, err
	}
	observability.SocialActions.WithLabelValues("comment").Inc()
	return s.posts.GetByID(ctx, postID)
}

// LikeUnlike toggles userID's like on the post and returns the post's
// resulting like set. Only a new like notifies the post owner.
func (s *PostService) LikeUnlike(ctx context.Context, userID, postID uint) (likes []uint, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.LikeUnlike",
		attribute.Int64("user.id", int64(userID)), attribute.Int64("post.id", int64(postID)))
	defer func() { observability.EndSpan(span, err) }()

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if post.LikedBy(userID) {
		if err := s.posts.Unlike(ctx, userID, postID); err != nil {
			return nil, err
		}
		observability.SocialActions.WithLabelValues("unlike").Inc()
		return s.posts.Likes(ctx, postID)
	}

	n := &models.Notification{FromID: userID, ToID: post.UserID, Type: models.NotificationLike}
	if err := s.posts.Like(ctx, userID, postID, n); err != nil {
		return nil, err
	}
	observability.SocialActions.WithLabelValues("like").Inc()
	s.publish(ctx, n)

	return s.posts.Likes(ctx, postID)
}

func (s *PostService) publish(ctx context.Context, n *models.Notification) {
	if s.publisher == nil {
		return
	}
	actor, err := s.users.GetByID(ctx, n.FromID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "notification actor lookup failed", slog.String("error", err.Error()))
		return
	}
	n.From = actorOf(actor)
	s.publisher.Publish(ctx, n)
}

// All returns every post, newest first.
func (s *PostService) All(ctx context.Context) ([]models.Post, error) {
	return s.posts.List(ctx)
}

// Following returns posts by the accounts userID follows, newest first.
func (s *PostService) Following(ctx context.Context, userID uint) ([]models.Post, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.posts.ListByAuthors(ctx, user.Following)
}

func (s *PostService) ByUsername(ctx context.Context, username string) ([]models.Post, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.posts.ListByUser(ctx, user.ID)
}

func (s *PostService) LikedBy(ctx context.Context, userID uint) ([]models.Post, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.posts.ListLikedBy(ctx, userID)
}
