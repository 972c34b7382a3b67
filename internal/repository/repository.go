// Package repository implements the data access layer for the application.
//
// Two backends implement the same interfaces: GORM over Postgres or SQLite,
// where follower, following and like sets are derived from edge tables, and
// MongoDB, where they are arrays on the documents themselves.
package repository

import (
	"context"
	"errors"
	"strings"

	"murmur/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	// GetByID returns the account with its password hash and derived sets.
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	// Follow records followerID following followeeID and stores n, if non-nil,
	// as part of the same change.
	Follow(ctx context.Context, followerID, followeeID uint, n *models.Notification) error
	Unfollow(ctx context.Context, followerID, followeeID uint) error
	// Sample returns up to limit random accounts other than excludeID.
	Sample(ctx context.Context, excludeID uint, limit int) ([]models.User, error)
}

// PostRepository defines persistence operations for posts, comments and likes.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context) ([]models.Post, error)
	ListByAuthors(ctx context.Context, authorIDs []uint) ([]models.Post, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Post, error)
	ListLikedBy(ctx context.Context, userID uint) ([]models.Post, error)
	AddComment(ctx context.Context, comment *models.Comment) error
	// Like adds userID to the post's like set and stores n, if non-nil, as
	// part of the same change.
	Like(ctx context.Context, userID, postID uint, n *models.Notification) error
	Unlike(ctx context.Context, userID, postID uint) error
	Likes(ctx context.Context, postID uint) ([]uint, error)
}

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	// ListForRecipient returns notifications addressed to toID, oldest first,
	// with the actor populated.
	ListForRecipient(ctx context.Context, toID uint) ([]models.Notification, error)
	MarkAllRead(ctx context.Context, toID uint) error
	GetByID(ctx context.Context, id uint) (*models.Notification, error)
	Delete(ctx context.Context, id uint) error
	DeleteAllForRecipient(ctx context.Context, toID uint) error
}

// Set groups the repositories of one backend.
type Set struct {
	Users         UserRepository
	Posts         PostRepository
	Notifications NotificationRepository
}

// NewGormSet returns the relational repositories.
func NewGormSet(db *gorm.DB) Set {
	return Set{
		Users:         NewUserRepository(db),
		Posts:         NewPostRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

// NewMongoSet returns the document-store repositories.
func NewMongoSet(db *mongo.Database) Set {
	return Set{
		Users:         NewMongoUserRepository(db),
		Posts:         NewMongoPostRepository(db),
		Notifications: NewMongoNotificationRepository(db),
	}
}

// isUniqueConstraintError checks if a store error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || mongo.IsDuplicateKeyError(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL unique violation SQLSTATE 23505
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// accountConflict names the account field a unique violation is about.
func accountConflict(err error) *models.AppError {
	msg := strings.ToLower(err.Error())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		msg = strings.ToLower(pgErr.ConstraintName + " " + pgErr.Detail)
	}
	if strings.Contains(msg, "email") {
		return models.NewConflictError("Email is already taken")
	}
	return models.NewConflictError("Username is already taken")
}

func userNotFound() *models.AppError {
	return models.NewNotFoundError("User", nil)
}

func postNotFound() *models.AppError {
	return models.NewNotFoundError("Post", nil)
}

func notificationNotFound() *models.AppError {
	return models.NewNotFoundError("Notification", nil)
}
