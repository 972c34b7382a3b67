package service

import (
	"context"
	"testing"

	"murmur/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPostService_Create(t *testing.T) {
	t.Run("requires text or image", func(t *testing.T) {
		t.Parallel()
		svc := NewPostService(noopPostRepo(), noopUserRepo(), nil, nil)
		_, err := svc.Create(context.Background(), CreatePostInput{UserID: 1, Text: "   "})
		assertAppError(t, err, models.CodeValidation, "Post must have text or image")
	})

	t.Run("unknown author", func(t *testing.T) {
		t.Parallel()
		users := noopUserRepo()
		users.getByIDFn = func(_ context.Context, _ uint) (*models.User, error) {
			return nil, models.NewNotFoundError("User", nil)
		}
		_, err := NewPostService(noopPostRepo(), users, nil, nil).Create(context.Background(), CreatePostInput{UserID: 9, Text: "hi"})
		assertAppError(t, err, models.CodeNotFound, "User not found")
	})

	t.Run("uploads the image and populates the author", func(t *testing.T) {
		t.Parallel()
		users := noopUserRepo()
		users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "ada", Password: "hash"}, nil
		}
		posts := noopPostRepo()
		posts.createFn = func(_ context.Context, p *models.Post) error {
			p.ID = 11
			return nil
		}
		up := new(MockUploader)
		up.On("Upload", mock.Anything, "data:image/png;base64,AAAA").Return("/media/abc.webp", nil)

		post, err := NewPostService(posts, users, up, nil).Create(context.Background(), CreatePostInput{
			UserID: 1,
			Img:    "data:image/png;base64,AAAA",
		})
		require.NoError(t, err)

		assert.Equal(t, uint(11), post.ID)
		assert.Equal(t, "/media/abc.webp", post.Img)
		require.NotNil(t, post.User)
		assert.Equal(t, "ada", post.User.Username)
		assert.Empty(t, post.User.Password)
		assert.Equal(t, []uint{}, post.Likes)
		assert.Equal(t, []models.Comment{}, post.Comments)
		up.AssertExpectations(t)
	})

	t.Run("image without uploader", func(t *testing.T) {
		t.Parallel()
		svc := NewPostService(noopPostRepo(), noopUserRepo(), nil, nil)
		_, err := svc.Create(context.Background(), CreatePostInput{UserID: 1, Img: "data"})
		assertAppError(t, err, models.CodeValidation, "Image uploads are not configured")
	})
}

func TestPostService_Delete(t *testing.T) {
	owned := func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, UserID: 1, Img: "/media/abc.webp"}, nil
	}

	t.Run("owner deletes post and image", func(t *testing.T) {
		t.Parallel()
		posts := noopPostRepo()
		posts.getByIDFn = owned
		deleted := uint(0)
		posts.deleteFn = func(_ context.Context, id uint) error {
			deleted = id
			return nil
		}
		up := new(MockUploader)
		up.On("Destroy", mock.Anything, "/media/abc.webp").Return(nil).Once()

		msg, err := NewPostService(posts, noopUserRepo(), up, nil).Delete(context.Background(), 1, 5)
		require.NoError(t, err)
		assert.Equal(t, "Post deleted successfully", msg)
		assert.Equal(t, uint(5), deleted)
		up.AssertExpectations(t)
	})

	t.Run("non-owner is rejected with 401", func(t *testing.T) {
		t.Parallel()
		posts := noopPostRepo()
		posts.getByIDFn = owned
		posts.deleteFn = func(_ context.Context, _ uint) error {
			t.Fatal("unexpected delete")
			return nil
		}
		up := new(MockUploader)

		_, err := NewPostService(posts, noopUserRepo(), up, nil).Delete(context.Background(), 2, 5)
		assertAppError(t, err, models.CodeForbidden, "You are not authorized to delete this post")
		assert.Equal(t, fiber.StatusUnauthorized, models.StatusFor(err))
		up.AssertNotCalled(t, "Destroy", mock.Anything, mock.Anything)
	})

	t.Run("missing post", func(t *testing.T) {
		t.Parallel()
		posts := noopPostRepo()
		posts.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) {
			return nil, models.NewNotFoundError("Post", nil)
		}
		_, err := NewPostService(posts, noopUserRepo(), nil, nil).Delete(context.Background(), 1, 5)
		assertAppError(t, err, models.CodeNotFound, "Post not found")
	})
}

func TestPostService_Comment(t *testing.T) {
	t.Run("text is required", func(t *testing.T) {
		t.Parallel()
		svc := NewPostService(noopPostRepo(), noopUserRepo(), nil, nil)
		_, err := svc.Comment(context.Background(), 1, 2, "  ")
		assertAppError(t, err, models.CodeValidation, "Text field is required")
	})

	t.Run("returns the refreshed post", func(t *testing.T) {
		t.Parallel()
		posts := noopPostRepo()
		var comments []models.Comment
		posts.addCommentFn = func(_ context.Context, c *models.Comment) error {
			comments = append(comments, *c)
			return nil
		}
		posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, Comments: append([]models.Comment(nil), comments...)}, nil
		}

		post, err := NewPostService(posts, noopUserRepo(), nil, nil).Comment(context.Background(), 3, 2, "nice")
		require.NoError(t, err)
		require.Len(t, post.Comments, 1)
		assert.Equal(t, "nice", post.Comments[0].Text)
		assert.Equal(t, uint(3), post.Comments[0].UserID)
		assert.Equal(t, uint(2), post.Comments[0].PostID)
	})
}

func TestPostService_LikeUnlike(t *testing.T) {
	t.Run("like notifies the owner", func(t *testing.T) {
		t.Parallel()
		posts := noopPostRepo()
		posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, UserID: 9}, nil
		}
		var got *models.Notification
		posts.likeFn = func(_ context.Context, userID, postID uint, n *models.Notification) error {
			assert.Equal(t, uint(1), userID)
			assert.Equal(t, uint(4), postID)
			got = n
			return nil
		}
		posts.likesFn = func(_ context.Context, _ uint) ([]uint, error) { return []uint{1}, nil }
		users := noopUserRepo()
		users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "ada"}, nil
		}
		pub := new(MockPublisher)
		pub.On("Publish", mock.Anything, mock.Anything).Return()

		likes, err := NewPostService(posts, users, nil, pub).LikeUnlike(context.Background(), 1, 4)
		require.NoError(t, err)
		assert.Equal(t, []uint{1}, likes)

		require.NotNil(t, got)
		assert.Equal(t, models.NotificationLike, got.Type)
		assert.Equal(t, uint(9), got.ToID)
		require.NotNil(t, got.From)
		assert.Equal(t, "ada", got.From.Username)
		pub.AssertNumberOfCalls(t, "Publish", 1)
	})

	t.Run("unlike does not notify", func(t *testing.T) {
		t.Parallel()
		posts := noopPostRepo()
		posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, UserID: 9, Likes: []uint{1, 5}}, nil
		}
		unliked := false
		posts.unlikeFn = func(_ context.Context, _, _ uint) error {
			unliked = true
			return nil
		}
		posts.likeFn = func(_ context.Context, _, _ uint, _ *models.Notification) error {
			t.Fatal("unexpected like")
			return nil
		}
		posts.likesFn = func(_ context.Context, _ uint) ([]uint, error) { return []uint{5}, nil }
		pub := new(MockPublisher)

		likes, err := NewPostService(posts, noopUserRepo(), nil, pub).LikeUnlike(context.Background(), 1, 4)
		require.NoError(t, err)
		assert.True(t, unliked)
		assert.Equal(t, []uint{5}, likes)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("self like is allowed", func(t *testing.T) {
		t.Parallel()
		posts := noopPostRepo()
		posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, UserID: 1}, nil
		}
		posts.likesFn = func(_ context.Context, _ uint) ([]uint, error) { return []uint{1}, nil }

		likes, err := NewPostService(posts, noopUserRepo(), nil, nil).LikeUnlike(context.Background(), 1, 4)
		require.NoError(t, err)
		assert.Equal(t, []uint{1}, likes)
	})
}

func TestPostService_Feeds(t *testing.T) {
	t.Run("following feed uses the follow set", func(t *testing.T) {
		t.Parallel()
		users := noopUserRepo()
		users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Following: []uint{2, 3}}, nil
		}
		posts := noopPostRepo()
		posts.listByAuthorsFn = func(_ context.Context, ids []uint) ([]models.Post, error) {
			assert.Equal(t, []uint{2, 3}, ids)
			return []models.Post{{ID: 8}}, nil
		}

		feed, err := NewPostService(posts, users, nil, nil).Following(context.Background(), 1)
		require.NoError(t, err)
		assert.Len(t, feed, 1)
	})

	t.Run("user feed for unknown username", func(t *testing.T) {
		t.Parallel()
		_, err := NewPostService(noopPostRepo(), noopUserRepo(), nil, nil).ByUsername(context.Background(), "nobody")
		assertAppError(t, err, models.CodeNotFound, "User not found")
	})

	t.Run("liked feed for unknown user", func(t *testing.T) {
		t.Parallel()
		users := noopUserRepo()
		users.getByIDFn = func(_ context.Context, _ uint) (*models.User, error) {
			return nil, models.NewNotFoundError("User", nil)
		}
		_, err := NewPostService(noopPostRepo(), users, nil, nil).LikedBy(context.Background(), 42)
		assertAppError(t, err, models.CodeNotFound, "User not found")
	})
}
