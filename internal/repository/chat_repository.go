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

type ChatRepository struct {
	collection *mongo.Collection
}

func NewChatRepository(db *mongo.Database) *ChatRepository {
	return &ChatRepository{collection: db.Collection("messages")}
}

func (r *ChatRepository) SaveMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	msg.CreatedAt = time.Now()
	msg.Seen = false
	result, err := r.collection.InsertOne(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		msg.ID = id
	}
	return msg, nil
}

// GetConversation returns the messages exchanged by the two users, oldest first.
func (r *ChatRepository) GetConversation(ctx context.Context, userID, otherID primitive.ObjectID) ([]models.Message, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"sender_id": userID, "receiver_id": otherID},
			{"sender_id": otherID, "receiver_id": userID},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []models.Message{}
	for cursor.Next(ctx) {
		var msg models.Message
		if err := cursor.Decode(&msg); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, cursor.Err()
}

// MarkSeen flags every message senderID sent to receiverID as seen and
// returns how many changed.
func (r *ChatRepository) MarkSeen(ctx context.Context, receiverID, senderID primitive.ObjectID) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"sender_id": senderID, "receiver_id": receiverID, "seen": false},
		bson.M{"$set": bson.M{"seen": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages as seen: %w", err)
	}
	return result.ModifiedCount, nil
}

// CountUnseen groups the unseen messages of receiverID by sender.
func (r *ChatRepository) CountUnseen(ctx context.Context, receiverID primitive.ObjectID) ([]models.UnseenCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"receiver_id": receiverID, "seen": false}}},
		{{Key: "$group", Value: bson.M{"_id": "$sender_id", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count unseen messages: %w", err)
	}
	defer cursor.Close(ctx)

	counts := []models.UnseenCount{}
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("failed to decode unseen counts: %w", err)
	}
	return counts, nil
}
