package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"murmur/internal/database"
	"murmur/internal/middleware"
	"murmur/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// nextID allocates the next numeric id for a collection from the counters
// collection, so both backends expose the same id type.
func nextID(ctx context.Context, db *mongo.Database, collection string) (uint, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := db.Collection(database.CountersCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": collection}, bson.M{"$inc": bson.M{"seq": 1}}, opts).
		Decode(&counter)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return uint(counter.Seq), nil
}

// compensate reverts an earlier single-document update after its paired
// write failed. A failed revert leaves the pair inconsistent and is logged.
func compensate(ctx context.Context, coll *mongo.Collection, id uint, update bson.M) {
	// The request context may be the reason the paired write failed.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := coll.UpdateByID(ctx, id, update); err != nil {
		middleware.Logger.ErrorContext(ctx, "compensating write failed",
			slog.String("collection", coll.Name()),
			slog.Uint64("id", uint64(id)),
			slog.String("error", err.Error()),
		)
	}
}

// pairedUpdate applies first, then second. If second fails, undo is applied
// to first's document.
func pairedUpdate(ctx context.Context,
	firstColl *mongo.Collection, firstID uint, first bson.M,
	secondColl *mongo.Collection, secondID uint, second bson.M,
	undo bson.M,
) error {
	if _, err := firstColl.UpdateByID(ctx, firstID, first); err != nil {
		return models.NewInternalError(err)
	}
	if _, err := secondColl.UpdateByID(ctx, secondID, second); err != nil {
		compensate(ctx, firstColl, firstID, undo)
		return models.NewInternalError(err)
	}
	return nil
}

func insertNotification(ctx context.Context, db *mongo.Database, n *models.Notification) error {
	id, err := nextID(ctx, db, database.NotificationsCollection)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	n.ID = id
	n.CreatedAt, n.UpdatedAt = now, now
	if _, err := db.Collection(database.NotificationsCollection).InsertOne(ctx, n); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// findUsers loads accounts by id without their password hashes.
func findUsers(ctx context.Context, db *mongo.Database, ids []uint) (map[uint]*models.User, error) {
	out := make(map[uint]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(bson.M{"password": 0})
	cur, err := db.Collection(database.UsersCollection).Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range users {
		users[i].EnsureSets()
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

func notFoundOr(err error, notFound *models.AppError) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound
	}
	return models.NewInternalError(err)
}
