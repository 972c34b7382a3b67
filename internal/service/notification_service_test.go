package service

import (
	"context"
	"testing"

	"murmur/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_List(t *testing.T) {
	repo := noopNotificationRepo()
	stored := []models.Notification{
		{ID: 1, ToID: 3, Type: models.NotificationFollow},
		{ID: 2, ToID: 3, Type: models.NotificationLike, Read: true},
	}
	repo.listForRecipientFn = func(_ context.Context, toID uint) ([]models.Notification, error) {
		assert.Equal(t, uint(3), toID)
		out := make([]models.Notification, len(stored))
		copy(out, stored)
		return out, nil
	}
	repo.markAllReadFn = func(_ context.Context, _ uint) error {
		for i := range stored {
			stored[i].Read = true
		}
		return nil
	}

	list, err := NewNotificationService(repo).List(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[0].Read)
	assert.True(t, list[1].Read)
	assert.True(t, stored[0].Read)
}

func TestNotificationService_DeleteOne(t *testing.T) {
	tests := []struct {
		name    string
		userID  uint
		found   bool
		code    string
		message string
		status  int
	}{
		{"recipient", 3, true, "", "", 0},
		{"other account", 4, true, models.CodeForbidden, "You are not allowed to delete this notification", fiber.StatusForbidden},
		{"missing", 3, false, models.CodeNotFound, "Notification not found", fiber.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo := noopNotificationRepo()
			repo.getByIDFn = func(_ context.Context, id uint) (*models.Notification, error) {
				if !tt.found {
					return nil, models.NewNotFoundError("Notification", nil)
				}
				return &models.Notification{ID: id, ToID: 3}, nil
			}
			deleted := false
			repo.deleteFn = func(_ context.Context, _ uint) error {
				deleted = true
				return nil
			}

			msg, err := NewNotificationService(repo).DeleteOne(context.Background(), tt.userID, 10)
			if tt.code == "" {
				require.NoError(t, err)
				assert.Equal(t, "Notification deleted successfully", msg)
				assert.True(t, deleted)
				return
			}
			assertAppError(t, err, tt.code, tt.message)
			assert.Equal(t, tt.status, models.StatusFor(err))
			assert.False(t, deleted)
		})
	}
}

func TestNotificationService_DeleteAll(t *testing.T) {
	repo := noopNotificationRepo()
	var cleared uint
	repo.deleteAllForRecipientFn = func(_ context.Context, toID uint) error {
		cleared = toID
		return nil
	}

	msg, err := NewNotificationService(repo).DeleteAll(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Notifications deleted successfully", msg)
	assert.Equal(t, uint(3), cleared)
}
