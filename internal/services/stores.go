package services

import (
	"context"
	"time"

	"github.com/Dias221467/Social_Backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The store interfaces below are satisfied by the Mongo repositories in
// internal/repository. Lookups report a missing document with
// repository.ErrNotFound and unique violations with repository.ErrDuplicate.

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	SearchUsernamePrefix(ctx context.Context, ids []primitive.ObjectID, prefix string) ([]models.User, error)
	SearchUsers(ctx context.Context, prefix string, limit int) ([]models.User, error)
	FindUsersExcluding(ctx context.Context, exclude []primitive.ObjectID, limit int) ([]models.User, error)
	ExistingUserIDs(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error)
	UpdateLastActive(ctx context.Context, id primitive.ObjectID, at time.Time) error
	UpdateUser(ctx context.Context, id primitive.ObjectID, update map[string]interface{}) (*models.User, error)
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
}

type RelationStore interface {
	GetRelation(ctx context.Context, a, b primitive.ObjectID) (*models.Relation, error)
	InsertPending(ctx context.Context, rel *models.Relation) error
	PromoteToFriends(ctx context.Context, requesterID, receiverID primitive.ObjectID, at time.Time) (bool, error)
	DeletePending(ctx context.Context, requesterID, receiverID primitive.ObjectID) (bool, error)
	DeleteFriendship(ctx context.Context, a, b primitive.ObjectID) (bool, error)
	ListRelations(ctx context.Context, userID primitive.ObjectID) ([]models.Relation, error)
	DeleteUserRelations(ctx context.Context, userID primitive.ObjectID) (int64, error)
	DistinctUserIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

type NotificationStore interface {
	InsertNotification(ctx context.Context, notif *models.Notification) error
	ListNotifications(ctx context.Context, receiverID primitive.ObjectID, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, receiverID, id primitive.ObjectID) (bool, error)
	DeleteMatching(ctx context.Context, receiverID, postID, senderID primitive.ObjectID, t models.NotificationType) (int64, error)
	DeleteUserNotifications(ctx context.Context, userID primitive.ObjectID) (int64, error)
	DistinctReceiverIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) (*models.Post, error)
	GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	AddLike(ctx context.Context, postID, userID primitive.ObjectID) error
	RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) error
	PushComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) error
	PullComment(ctx context.Context, postID, commentID primitive.ObjectID) error
	ListPostsByUsers(ctx context.Context, userIDs []primitive.ObjectID, skip, limit int) ([]models.Post, error)
}

type MessageStore interface {
	SaveMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	GetConversation(ctx context.Context, userID, otherID primitive.ObjectID) ([]models.Message, error)
	MarkSeen(ctx context.Context, receiverID, senderID primitive.ObjectID) (int64, error)
	CountUnseen(ctx context.Context, receiverID primitive.ObjectID) ([]models.UnseenCount, error)
}

type ActivityStore interface {
	CreateActivity(ctx context.Context, activity *models.Activity) error
	GetUserActivities(ctx context.Context, userID primitive.ObjectID, limit int) ([]models.Activity, error)
	DeleteUserActivities(ctx context.Context, userID primitive.ObjectID) error
}

// TxRunner runs fn in a transaction; stores must be called with the ctx fn
// receives.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Publisher pushes realtime events to a connected user. Delivery is best effort.
type Publisher interface {
	Publish(userID primitive.ObjectID, event string, payload interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(primitive.ObjectID, string, interface{}) {}
