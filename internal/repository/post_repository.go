package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/Social_Backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PostRepository struct {
	collection *mongo.Collection
}

func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{collection: db.Collection("posts")}
}

func (r *PostRepository) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	post.CreatedAt = time.Now()
	if post.Tags == nil {
		post.Tags = []primitive.ObjectID{}
	}
	post.Likes = []primitive.ObjectID{}
	post.Comments = []models.Comment{}

	if _, err := r.collection.InsertOne(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return post, nil
}

func (r *PostRepository) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, mongoErr(err)
	}
	return &post, nil
}

func (r *PostRepository) update(ctx context.Context, id primitive.ObjectID, update bson.M, action string) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostRepository) AddLike(ctx context.Context, postID, userID primitive.ObjectID) error {
	return r.update(ctx, postID, bson.M{"$addToSet": bson.M{"likes": userID}}, "like post")
}

func (r *PostRepository) RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) error {
	return r.update(ctx, postID, bson.M{"$pull": bson.M{"likes": userID}}, "unlike post")
}

func (r *PostRepository) PushComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) error {
	return r.update(ctx, postID, bson.M{"$push": bson.M{"comments": comment}}, "add comment")
}

func (r *PostRepository) PullComment(ctx context.Context, postID, commentID primitive.ObjectID) error {
	return r.update(ctx, postID, bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentID}}}, "delete comment")
}

// ListPostsByUsers returns posts written by any of userIDs, newest first.
func (r *PostRepository) ListPostsByUsers(ctx context.Context, userIDs []primitive.ObjectID, skip, limit int) ([]models.Post, error) {
	if len(userIDs) == 0 {
		return []models.Post{}, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": bson.M{"$in": userIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts: %w", err)
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}
	return posts, nil
}
