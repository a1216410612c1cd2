package models

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationLiked     NotificationType = "liked"
	NotificationCommented NotificationType = "commented"
	NotificationTagged    NotificationType = "tagged"
	NotificationAccepted  NotificationType = "accepted"
)

// IsPostEvent reports whether the type refers to a post.
func (t NotificationType) IsPostEvent() bool {
	return t == NotificationLiked || t == NotificationCommented || t == NotificationTagged
}

func (t NotificationType) Valid() bool {
	return t.IsPostEvent() || t == NotificationAccepted
}

// ParseNotificationType maps a wire value to a known type.
func ParseNotificationType(s string) (NotificationType, error) {
	t := NotificationType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown notification type %q", s)
	}
	return t, nil
}

var (
	ErrPostIDRequired  = errors.New("post id is required for post notifications")
	ErrPostIDForbidden = errors.New("accepted notifications do not reference a post")
)

// Notification is one entry of a user's ledger. Status flips false to true once.
type Notification struct {
	ID                   primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ReceiverID           primitive.ObjectID  `bson:"receiver_id" json:"receiver_id"`
	SenderID             primitive.ObjectID  `bson:"sender_id" json:"sender_id"`
	SenderName           string              `bson:"sender_name" json:"sender_name"`
	SenderProfilePicture string              `bson:"sender_profile_picture,omitempty" json:"sender_profile_picture,omitempty"`
	Type                 NotificationType    `bson:"type" json:"type"`
	PostID               *primitive.ObjectID `bson:"post_id,omitempty" json:"post_id,omitempty"`
	Status               bool                `bson:"status" json:"status"`
	CreatedAt            time.Time           `bson:"created_at" json:"created_at"`
}

// NewNotification validates the type/post pairing and returns an unread record.
// postID must be nil for NotificationAccepted and set for every other type.
func NewNotification(t NotificationType, receiverID primitive.ObjectID, sender *User, postID *primitive.ObjectID) (*Notification, error) {
	n := &Notification{
		ReceiverID:           receiverID,
		SenderID:             sender.ID,
		SenderName:           sender.Username,
		SenderProfilePicture: sender.ProfilePicture,
		Type:                 t,
		PostID:               postID,
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Validate checks the type and its post reference.
func (n *Notification) Validate() error {
	if !n.Type.Valid() {
		return fmt.Errorf("unknown notification type %q", n.Type)
	}
	if n.Type.IsPostEvent() && (n.PostID == nil || n.PostID.IsZero()) {
		return ErrPostIDRequired
	}
	if n.Type == NotificationAccepted && n.PostID != nil {
		return ErrPostIDForbidden
	}
	if n.ReceiverID.IsZero() || n.SenderID.IsZero() {
		return errors.New("notification needs a receiver and a sender")
	}
	return nil
}

// UnreadNotifications is the response of the unread query.
type UnreadNotifications struct {
	Count         int            `json:"count"`
	Notifications []Notification `json:"notifications"`
}
