package service

import (
	"context"

	"murmur/internal/models"
	"murmur/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type NotificationService struct {
	notifications repository.NotificationRepository
}

func NewNotificationService(notifications repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// List returns userID's notifications, oldest first, and marks them read.
// The returned items carry their read state from before the call.
func (s *NotificationService) List(ctx context.Context, userID uint) ([]models.Notification, error) {
	list, err := s.notifications.ListForRecipient(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.notifications.MarkAllRead(ctx, userID); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *NotificationService) DeleteAll(ctx context.Context, userID uint) (string, error) {
	if err := s.notifications.DeleteAllForRecipient(ctx, userID); err != nil {
		return "", err
	}
	return "Notifications deleted successfully", nil
}

// DeleteOne removes a single notification addressed to userID.
func (s *NotificationService) DeleteOne(ctx context.Context, userID, id uint) (string, error) {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if n.ToID != userID {
		return "", models.NewForbiddenError("You are not allowed to delete this notification", fiber.StatusForbidden)
	}
	if err := s.notifications.Delete(ctx, id); err != nil {
		return "", err
	}
	return "Notification deleted successfully", nil
}
