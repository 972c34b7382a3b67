// Package service holds the application's use cases. Services validate
// input, enforce ownership and the social-graph rules, and delegate storage
// to the repository package.
package service

import (
	"context"

	"murmur/internal/models"
)

// NotificationPublisher pushes stored notifications to connected clients.
// Publishing is best effort and never fails the action that produced it.
type NotificationPublisher interface {
	Publish(ctx context.Context, n *models.Notification)
}

func actorOf(u *models.User) *models.Actor {
	return &models.Actor{ID: u.ID, Username: u.Username, ProfileImg: u.ProfileImg}
}

// sanitize strips the password hash before an account leaves the service layer.
func sanitize(u *models.User) *models.User {
	u.Password = ""
	u.EnsureSets()
	return u
}

const passwordTooShort = "Password must be at least 6 characters long"
