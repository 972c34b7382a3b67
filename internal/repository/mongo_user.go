package repository

import (
	"context"
	"time"

	"murmur/internal/database"
	"murmur/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoUserRepository struct {
	db    *mongo.Database
	users *mongo.Collection
}

// NewMongoUserRepository returns a UserRepository backed by the users collection.
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{db: db, users: db.Collection(database.UsersCollection)}
}

func (r *mongoUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.users.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, notFoundOr(err, userNotFound())
	}
	user.EnsureSets()
	return &user, nil
}

func (r *mongoUserRepository) Create(ctx context.Context, user *models.User) error {
	id, err := nextID(ctx, r.db, database.UsersCollection)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	user.ID = id
	user.CreatedAt, user.UpdatedAt = now, now
	user.EnsureSets()

	if _, err := r.users.InsertOne(ctx, user); err != nil {
		if isUniqueConstraintError(err) {
			return accountConflict(err)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Update overwrites the profile fields. Relationship arrays are only changed
// by Follow, Unfollow and the post repository.
func (r *mongoUserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"username":   user.Username,
		"fullName":   user.FullName,
		"email":      user.Email,
		"password":   user.Password,
		"profileImg": user.ProfileImg,
		"coverImg":   user.CoverImg,
		"bio":        user.Bio,
		"link":       user.Link,
		"updatedAt":  user.UpdatedAt,
	}
	res, err := r.users.UpdateByID(ctx, user.ID, bson.M{"$set": set})
	if err != nil {
		if isUniqueConstraintError(err) {
			return accountConflict(err)
		}
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return userNotFound()
	}
	return nil
}

func (r *mongoUserRepository) Follow(ctx context.Context, followerID, followeeID uint, n *models.Notification) error {
	err := pairedUpdate(ctx,
		r.users, followerID, bson.M{"$addToSet": bson.M{"following": followeeID}},
		r.users, followeeID, bson.M{"$addToSet": bson.M{"followers": followerID}},
		bson.M{"$pull": bson.M{"following": followeeID}},
	)
	if err != nil || n == nil {
		return err
	}
	return insertNotification(ctx, r.db, n)
}

func (r *mongoUserRepository) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	return pairedUpdate(ctx,
		r.users, followerID, bson.M{"$pull": bson.M{"following": followeeID}},
		r.users, followeeID, bson.M{"$pull": bson.M{"followers": followerID}},
		bson.M{"$addToSet": bson.M{"following": followeeID}},
	)
}

func (r *mongoUserRepository) Sample(ctx context.Context, excludeID uint, limit int) ([]models.User, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: bson.D{{Key: "$ne", Value: excludeID}}}}}},
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: limit}}}},
		{{Key: "$project", Value: bson.D{{Key: "password", Value: 0}}}},
	}
	cur, err := r.users.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range users {
		users[i].EnsureSets()
	}
	return users, nil
}
