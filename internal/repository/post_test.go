package repository

import (
	"context"
	"testing"
	"time"

	"murmur/internal/models"
	"murmur/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_ListOrdersNewestFirst(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "posts" ORDER BY posts\.created_at DESC,\s*posts\.id DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "text", "created_at"}))

	posts, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Post{}, posts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ListByUserQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "posts" WHERE posts\.user_id = \$1 ORDER BY posts\.created_at DESC,\s*posts\.id DESC`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.ListByUser(context.Background(), 7)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ListByAuthorsEmpty(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	posts, err := repo.ListByAuthors(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Integration(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	set := NewGormSet(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "author")
	reader := testutil.CreateUser(t, db, "reader")

	older := &models.Post{UserID: author.ID, Text: "older", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &models.Post{UserID: reader.ID, Img: "https://img.example.com/a.png"}
	require.NoError(t, set.Posts.Create(ctx, older))
	require.NoError(t, set.Posts.Create(ctx, newer))

	t.Run("List is newest first with authors populated", func(t *testing.T) {
		posts, err := set.Posts.List(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, newer.ID, posts[0].ID)
		assert.Equal(t, older.ID, posts[1].ID)
		require.NotNil(t, posts[1].User)
		assert.Equal(t, "author", posts[1].User.Username)
		assert.Empty(t, posts[1].User.Password)
		assert.Equal(t, []models.Comment{}, posts[1].Comments)
	})

	t.Run("Comments keep insertion order", func(t *testing.T) {
		require.NoError(t, set.Posts.AddComment(ctx, &models.Comment{PostID: older.ID, UserID: reader.ID, Text: "first"}))
		require.NoError(t, set.Posts.AddComment(ctx, &models.Comment{PostID: older.ID, UserID: author.ID, Text: "second"}))

		post, err := set.Posts.GetByID(ctx, older.ID)
		require.NoError(t, err)
		require.Len(t, post.Comments, 2)
		assert.Equal(t, "first", post.Comments[0].Text)
		assert.Equal(t, "reader", post.Comments[0].User.Username)
		assert.Equal(t, "second", post.Comments[1].Text)
	})

	t.Run("Feeds filter by author and likes", func(t *testing.T) {
		require.NoError(t, set.Posts.Like(ctx, reader.ID, older.ID, nil))

		byAuthors, err := set.Posts.ListByAuthors(ctx, []uint{author.ID})
		require.NoError(t, err)
		require.Len(t, byAuthors, 1)
		assert.Equal(t, older.ID, byAuthors[0].ID)
		assert.Equal(t, []uint{reader.ID}, byAuthors[0].Likes)

		liked, err := set.Posts.ListLikedBy(ctx, reader.ID)
		require.NoError(t, err)
		require.Len(t, liked, 1)
		assert.Equal(t, older.ID, liked[0].ID)
	})

	t.Run("Delete removes comments and likes", func(t *testing.T) {
		require.NoError(t, set.Posts.Delete(ctx, older.ID))

		_, err := set.Posts.GetByID(ctx, older.ID)
		assert.True(t, models.IsNotFound(err))
		assert.Equal(t, "Post not found", err.Error())

		var comments, likes int64
		db.Model(&models.Comment{}).Count(&comments)
		db.Model(&models.Like{}).Count(&likes)
		assert.Zero(t, comments)
		assert.Zero(t, likes)

		err = set.Posts.Delete(ctx, older.ID)
		assert.True(t, models.IsNotFound(err))
	})
}
