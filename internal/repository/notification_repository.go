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

type NotificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{
		collection: db.Collection("notifications"),
	}
}

// InsertNotification appends notif to its receiver's ledger.
func (r *NotificationRepository) InsertNotification(ctx context.Context, notif *models.Notification) error {
	if notif.ID.IsZero() {
		notif.ID = primitive.NewObjectID()
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, notif)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert notification")
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListNotifications returns the ledger of receiverID oldest first. created_at
// orders entries written by different processes; _id breaks ties.
func (r *NotificationRepository) ListNotifications(ctx context.Context, receiverID primitive.ObjectID, unreadOnly bool) ([]models.Notification, error) {
	filter := bson.M{"receiver_id": receiverID}
	if unreadOnly {
		filter["status"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead sets status on the notification id owned by receiverID. The bool
// is false when no such notification exists; an already read one matches.
func (r *NotificationRepository) MarkRead(ctx context.Context, receiverID, id primitive.ObjectID) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "receiver_id": receiverID},
		bson.M{"$set": bson.M{"status": true}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return result.MatchedCount > 0, nil
}

// DeleteMatching removes every entry of receiverID's ledger matching
// (postID, senderID, type).
func (r *NotificationRepository) DeleteMatching(ctx context.Context, receiverID, postID, senderID primitive.ObjectID, t models.NotificationType) (int64, error) {
	filter := bson.M{
		"receiver_id": receiverID,
		"post_id":     postID,
		"sender_id":   senderID,
		"type":        t,
	}
	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	return result.DeletedCount, nil
}

// DeleteUserNotifications drops the ledger of userID. Entries userID sent to
// others stay; they carry the sender snapshot.
func (r *NotificationRepository) DeleteUserNotifications(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"receiver_id": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete user notifications: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"userID":  userID.Hex(),
		"deleted": result.DeletedCount,
	}).Info("Notifications removed")
	return result.DeletedCount, nil
}

// DistinctReceiverIDs lists every user owning a ledger entry.
func (r *NotificationRepository) DistinctReceiverIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	values, err := r.collection.Distinct(ctx, "receiver_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list notification receivers: %w", err)
	}
	return objectIDs(values), nil
}
