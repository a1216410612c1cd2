package services

import (
	"context"
	"time"

	"github.com/Dias221467/Social_Backend/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Realtime event names.
const (
	EventNotification = "notification"
	EventMessage      = "message"
	EventMessagesSeen = "messages_seen"
)

// NotificationService owns the per-user notification ledger.
type NotificationService struct {
	repo      NotificationStore
	publisher Publisher
}

func NewNotificationService(repo NotificationStore, publisher Publisher) *NotificationService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &NotificationService{
		repo:      repo,
		publisher: publisher,
	}
}

// record stores n unread at the tail of its receiver's ledger. It does not
// publish, so it is safe inside a transaction.
func (s *NotificationService) record(ctx context.Context, n *models.Notification) error {
	if err := n.Validate(); err != nil {
		return InvalidArgument(err.Error())
	}
	n.ID = primitive.NewObjectID()
	n.Status = false
	n.CreatedAt = time.Now()

	if err := s.repo.InsertNotification(ctx, n); err != nil {
		return Internal(err)
	}
	return nil
}

// publish pushes committed notifications to their receivers.
func (s *NotificationService) publish(ns ...*models.Notification) {
	for _, n := range ns {
		s.publisher.Publish(n.ReceiverID, EventNotification, n)
	}
}

// Append adds n to its receiver's ledger and notifies the receiver.
func (s *NotificationService) Append(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	if err := s.record(ctx, n); err != nil {
		return nil, err
	}
	s.publish(n)

	logrus.WithFields(logrus.Fields{
		"receiverID": n.ReceiverID.Hex(),
		"senderID":   n.SenderID.Hex(),
		"type":       n.Type,
	}).Info("Notification appended")
	return n, nil
}

// List returns the whole ledger of userID in insertion order.
func (s *NotificationService) List(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	ns, err := s.repo.ListNotifications(ctx, userID, false)
	if err != nil {
		return nil, Internal(err)
	}
	return ns, nil
}

// ListUnread returns the unread part of the ledger and its size.
func (s *NotificationService) ListUnread(ctx context.Context, userID primitive.ObjectID) (*models.UnreadNotifications, error) {
	ns, err := s.repo.ListNotifications(ctx, userID, true)
	if err != nil {
		return nil, Internal(err)
	}
	return &models.UnreadNotifications{Count: len(ns), Notifications: ns}, nil
}

// MarkRead flags notification id of userID as read and returns the ledger.
// Marking an already read notification succeeds without change.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id primitive.ObjectID) ([]models.Notification, error) {
	found, err := s.repo.MarkRead(ctx, userID, id)
	if err != nil {
		return nil, Internal(err)
	}
	if !found {
		return nil, ErrNotificationNotFound
	}
	return s.List(ctx, userID)
}

// RemoveMatching deletes every notification of receiverID that matches
// (postID, senderID, t) and returns how many were removed. Zero is not an error.
func (s *NotificationService) RemoveMatching(ctx context.Context, receiverID, postID, senderID primitive.ObjectID, t models.NotificationType) (int64, error) {
	n, err := s.repo.DeleteMatching(ctx, receiverID, postID, senderID, t)
	if err != nil {
		return 0, Internal(err)
	}
	if n > 0 {
		logrus.WithFields(logrus.Fields{
			"receiverID": receiverID.Hex(),
			"postID":     postID.Hex(),
			"type":       t,
			"removed":    n,
		}).Info("Notifications removed")
	}
	return n, nil
}
