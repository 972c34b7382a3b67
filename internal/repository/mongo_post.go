package repository

import (
	"context"
	"time"

	"murmur/internal/database"
	"murmur/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoPostRepository struct {
	db    *mongo.Database
	posts *mongo.Collection
	users *mongo.Collection
}

// NewMongoPostRepository returns a PostRepository backed by the posts
// collection. Comments are embedded in their post.
func NewMongoPostRepository(db *mongo.Database) PostRepository {
	return &mongoPostRepository{
		db:    db,
		posts: db.Collection(database.PostsCollection),
		users: db.Collection(database.UsersCollection),
	}
}

func (r *mongoPostRepository) Create(ctx context.Context, post *models.Post) error {
	id, err := nextID(ctx, r.db, database.PostsCollection)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	post.ID = id
	post.CreatedAt, post.UpdatedAt = now, now
	post.EnsureSets()

	if _, err := r.posts.InsertOne(ctx, post); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *mongoPostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, notFoundOr(err, postNotFound())
	}
	if err := r.populate(ctx, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Delete removes the post document, which carries its comments and likes,
// and pulls it from every liker's likedPosts.
func (r *mongoPostRepository) Delete(ctx context.Context, id uint) error {
	res, err := r.posts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.DeletedCount == 0 {
		return postNotFound()
	}
	if _, err := r.users.UpdateMany(ctx, bson.M{"likedPosts": id}, bson.M{"$pull": bson.M{"likedPosts": id}}); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *mongoPostRepository) List(ctx context.Context) ([]models.Post, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoPostRepository) ListByAuthors(ctx context.Context, authorIDs []uint) ([]models.Post, error) {
	if len(authorIDs) == 0 {
		return []models.Post{}, nil
	}
	return r.find(ctx, bson.M{"user": bson.M{"$in": authorIDs}})
}

func (r *mongoPostRepository) ListByUser(ctx context.Context, userID uint) ([]models.Post, error) {
	return r.find(ctx, bson.M{"user": userID})
}

func (r *mongoPostRepository) ListLikedBy(ctx context.Context, userID uint) ([]models.Post, error) {
	return r.find(ctx, bson.M{"likes": userID})
}

func (r *mongoPostRepository) find(ctx context.Context, filter bson.M) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	posts := []models.Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, models.NewInternalError(err)
	}

	ptrs := make([]*models.Post, len(posts))
	for i := range posts {
		ptrs[i] = &posts[i]
	}
	if err := r.populate(ctx, ptrs...); err != nil {
		return nil, err
	}
	return posts, nil
}

// populate attaches the author and comment authors to each post.
func (r *mongoPostRepository) populate(ctx context.Context, posts ...*models.Post) error {
	seen := make(map[uint]struct{})
	var ids []uint
	add := func(id uint) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, p := range posts {
		add(p.UserID)
		for _, c := range p.Comments {
			add(c.UserID)
		}
	}

	users, err := findUsers(ctx, r.db, ids)
	if err != nil {
		return err
	}
	for _, p := range posts {
		p.User = users[p.UserID]
		for i := range p.Comments {
			p.Comments[i].PostID = p.ID
			p.Comments[i].User = users[p.Comments[i].UserID]
		}
		p.EnsureSets()
	}
	return nil
}

func (r *mongoPostRepository) AddComment(ctx context.Context, comment *models.Comment) error {
	id, err := nextID(ctx, r.db, "comments")
	if err != nil {
		return err
	}
	comment.ID = id
	comment.CreatedAt = time.Now().UTC()

	res, err := r.posts.UpdateByID(ctx, comment.PostID, bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updatedAt": comment.CreatedAt},
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return postNotFound()
	}
	return nil
}

func (r *mongoPostRepository) Like(ctx context.Context, userID, postID uint, n *models.Notification) error {
	err := pairedUpdate(ctx,
		r.posts, postID, bson.M{"$addToSet": bson.M{"likes": userID}},
		r.users, userID, bson.M{"$addToSet": bson.M{"likedPosts": postID}},
		bson.M{"$pull": bson.M{"likes": userID}},
	)
	if err != nil || n == nil {
		return err
	}
	return insertNotification(ctx, r.db, n)
}

func (r *mongoPostRepository) Unlike(ctx context.Context, userID, postID uint) error {
	return pairedUpdate(ctx,
		r.posts, postID, bson.M{"$pull": bson.M{"likes": userID}},
		r.users, userID, bson.M{"$pull": bson.M{"likedPosts": postID}},
		bson.M{"$addToSet": bson.M{"likes": userID}},
	)
}

func (r *mongoPostRepository) Likes(ctx context.Context, postID uint) ([]uint, error) {
	var doc struct {
		Likes []uint `bson:"likes"`
	}
	opts := options.FindOne().SetProjection(bson.M{"likes": 1})
	if err := r.posts.FindOne(ctx, bson.M{"_id": postID}, opts).Decode(&doc); err != nil {
		return nil, notFoundOr(err, postNotFound())
	}
	if doc.Likes == nil {
		return []uint{}, nil
	}
	return doc.Likes, nil
}
