package repository

import (
	"context"
	"testing"

	"murmur/internal/models"
	"murmur/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countNotifications(t *testing.T, repo NotificationRepository, toID uint, typ models.NotificationType) int {
	t.Helper()
	list, err := repo.ListForRecipient(context.Background(), toID)
	require.NoError(t, err)
	n := 0
	for _, item := range list {
		if item.Type == typ {
			n++
		}
	}
	return n
}

func TestFollowUnfollow_Integration(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	set := NewGormSet(db)
	ctx := context.Background()

	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")

	t.Run("Follow updates both sides", func(t *testing.T) {
		n := &models.Notification{FromID: a.ID, ToID: b.ID, Type: models.NotificationFollow}
		require.NoError(t, set.Users.Follow(ctx, a.ID, b.ID, n))
		assert.NotZero(t, n.ID)

		alice, err := set.Users.GetByID(ctx, a.ID)
		require.NoError(t, err)
		bob, err := set.Users.GetByID(ctx, b.ID)
		require.NoError(t, err)

		assert.Equal(t, []uint{b.ID}, alice.Following)
		assert.Equal(t, []uint{a.ID}, bob.Followers)
		assert.Empty(t, alice.Followers)
		assert.Equal(t, 1, countNotifications(t, set.Notifications, b.ID, models.NotificationFollow))
	})

	t.Run("Duplicate follow rolls back its notification", func(t *testing.T) {
		n := &models.Notification{FromID: a.ID, ToID: b.ID, Type: models.NotificationFollow}
		err := set.Users.Follow(ctx, a.ID, b.ID, n)
		require.Error(t, err)
		assert.True(t, models.HasCode(err, models.CodeConflict))
		assert.Equal(t, 1, countNotifications(t, set.Notifications, b.ID, models.NotificationFollow))
	})

	t.Run("Unfollow restores original sets", func(t *testing.T) {
		require.NoError(t, set.Users.Unfollow(ctx, a.ID, b.ID))

		alice, err := set.Users.GetByID(ctx, a.ID)
		require.NoError(t, err)
		bob, err := set.Users.GetByID(ctx, b.ID)
		require.NoError(t, err)

		assert.Equal(t, []uint{}, alice.Following)
		assert.Equal(t, []uint{}, bob.Followers)
	})
}

func TestLikeUnlike_Integration(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	set := NewGormSet(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	fan := testutil.CreateUser(t, db, "fan")
	post := &models.Post{UserID: owner.ID, Text: "hello"}
	require.NoError(t, set.Posts.Create(ctx, post))

	n := &models.Notification{FromID: fan.ID, ToID: owner.ID, Type: models.NotificationLike}
	require.NoError(t, set.Posts.Like(ctx, fan.ID, post.ID, n))

	likes, err := set.Posts.Likes(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{fan.ID}, likes)

	fanLoaded, err := set.Users.GetByID(ctx, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{post.ID}, fanLoaded.LikedPosts)
	assert.Equal(t, 1, countNotifications(t, set.Notifications, owner.ID, models.NotificationLike))

	require.NoError(t, set.Posts.Unlike(ctx, fan.ID, post.ID))
	likes, err = set.Posts.Likes(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{}, likes)

	fanLoaded, err = set.Users.GetByID(ctx, fan.ID)
	require.NoError(t, err)
	assert.Empty(t, fanLoaded.LikedPosts)
	assert.Equal(t, 1, countNotifications(t, set.Notifications, owner.ID, models.NotificationLike))
}
