package repository

import (
	"context"

	"murmur/internal/database"
	"murmur/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoNotificationRepository struct {
	db            *mongo.Database
	notifications *mongo.Collection
}

// NewMongoNotificationRepository returns a NotificationRepository backed by
// the notifications collection.
func NewMongoNotificationRepository(db *mongo.Database) NotificationRepository {
	return &mongoNotificationRepository{db: db, notifications: db.Collection(database.NotificationsCollection)}
}

func (r *mongoNotificationRepository) ListForRecipient(ctx context.Context, toID uint) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := r.notifications.Find(ctx, bson.M{"to": toID}, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	notifications := []models.Notification{}
	if err := cur.All(ctx, &notifications); err != nil {
		return nil, models.NewInternalError(err)
	}

	ids := make([]uint, 0, len(notifications))
	for _, n := range notifications {
		ids = append(ids, n.FromID)
	}
	actors, err := findUsers(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range notifications {
		if u, ok := actors[notifications[i].FromID]; ok {
			notifications[i].From = &models.Actor{ID: u.ID, Username: u.Username, ProfileImg: u.ProfileImg}
		}
	}
	return notifications, nil
}

func (r *mongoNotificationRepository) MarkAllRead(ctx context.Context, toID uint) error {
	_, err := r.notifications.UpdateMany(ctx,
		bson.M{"to": toID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *mongoNotificationRepository) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := r.notifications.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return nil, notFoundOr(err, notificationNotFound())
	}
	return &n, nil
}

func (r *mongoNotificationRepository) Delete(ctx context.Context, id uint) error {
	if _, err := r.notifications.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *mongoNotificationRepository) DeleteAllForRecipient(ctx context.Context, toID uint) error {
	if _, err := r.notifications.DeleteMany(ctx, bson.M{"to": toID}); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
