package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/Social_Backend/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FriendRepository stores one models.Relation per pair of users in the
// "relations" collection.
type FriendRepository struct {
	collection *mongo.Collection
}

func NewFriendRepository(db *mongo.Database) *FriendRepository {
	return &FriendRepository{
		collection: db.Collection("relations"),
	}
}

// GetRelation returns the record for the pair {a, b} or ErrNotFound.
func (r *FriendRepository) GetRelation(ctx context.Context, a, b primitive.ObjectID) (*models.Relation, error) {
	var rel models.Relation
	err := r.collection.FindOne(ctx, bson.M{"_id": models.PairKey(a, b)}).Decode(&rel)
	if err != nil {
		return nil, mongoErr(err)
	}
	return &rel, nil
}

// InsertPending stores a new pending request. ErrDuplicate means the pair
// already has a record.
func (r *FriendRepository) InsertPending(ctx context.Context, rel *models.Relation) error {
	if _, err := r.collection.InsertOne(ctx, rel); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to send friend request: %w", err)
	}
	return nil
}

// PromoteToFriends turns the pending request requester->receiver into a
// friendship. It reports false when no such request exists.
func (r *FriendRepository) PromoteToFriends(ctx context.Context, requesterID, receiverID primitive.ObjectID, at time.Time) (bool, error) {
	filter := bson.M{
		"_id":          models.PairKey(requesterID, receiverID),
		"state":        models.RelationPending,
		"requester_id": requesterID,
		"receiver_id":  receiverID,
	}
	update := bson.M{"$set": bson.M{
		"state":       models.RelationFriends,
		"accepted_at": at,
		"updated_at":  at,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to accept friend request: %w", err)
	}
	return result.MatchedCount > 0, nil
}

// DeletePending removes the pending request requester->receiver.
func (r *FriendRepository) DeletePending(ctx context.Context, requesterID, receiverID primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"_id":          models.PairKey(requesterID, receiverID),
		"state":        models.RelationPending,
		"requester_id": requesterID,
		"receiver_id":  receiverID,
	}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to delete friend request: %w", err)
	}
	return result.DeletedCount > 0, nil
}

// DeleteFriendship removes the friendship between a and b, if any.
func (r *FriendRepository) DeleteFriendship(ctx context.Context, a, b primitive.ObjectID) (bool, error) {
	filter := bson.M{"_id": models.PairKey(a, b), "state": models.RelationFriends}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to remove friend: %w", err)
	}
	return result.DeletedCount > 0, nil
}

// ListRelations returns every relation touching userID, oldest first.
func (r *FriendRepository) ListRelations(ctx context.Context, userID primitive.ObjectID) ([]models.Relation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"users": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve relations: %w", err)
	}
	defer cursor.Close(ctx)

	var rels []models.Relation
	for cursor.Next(ctx) {
		var rel models.Relation
		if err := cursor.Decode(&rel); err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	return rels, cursor.Err()
}

// DeleteUserRelations drops every request and friendship of userID.
func (r *FriendRepository) DeleteUserRelations(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"users": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete relations: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"userID":  userID.Hex(),
		"deleted": result.DeletedCount,
	}).Info("Relations removed")
	return result.DeletedCount, nil
}

// DistinctUserIDs lists every user referenced by a relation.
func (r *FriendRepository) DistinctUserIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	values, err := r.collection.Distinct(ctx, "users", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list relation users: %w", err)
	}
	return objectIDs(values), nil
}

func objectIDs(values []interface{}) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
