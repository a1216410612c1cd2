package handlers

//go:generate mockgen -source=interfaces.go -destination=mock_services_test.go -package=handlers

import (
	"context"

	"github.com/Dias221467/Social_Backend/internal/models"
	"github.com/Dias221467/Social_Backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FriendManager is implemented by *services.FriendService.
type FriendManager interface {
	SendRequest(ctx context.Context, userID, targetID primitive.ObjectID) (*models.FriendGraph, error)
	CancelRequest(ctx context.Context, userID, targetID primitive.ObjectID) (*models.FriendGraph, error)
	AcceptRequest(ctx context.Context, userID, requesterID primitive.ObjectID) (*models.FriendGraph, error)
	RejectRequest(ctx context.Context, userID, requesterID primitive.ObjectID) (*models.FriendGraph, error)
	Unfriend(ctx context.Context, userID, targetID primitive.ObjectID) (*models.FriendGraph, error)
	Graph(ctx context.Context, userID primitive.ObjectID) (*models.FriendGraph, error)
	ListFriends(ctx context.Context, userID primitive.ObjectID) ([]models.PublicUser, error)
	SearchFriends(ctx context.Context, userID primitive.ObjectID, prefix string) ([]models.PublicUser, error)
	SuggestFriends(ctx context.Context, userID primitive.ObjectID, exclude []primitive.ObjectID, limit int) ([]models.PublicUser, error)
	MutualFriends(ctx context.Context, a, b primitive.ObjectID) ([]models.PublicUser, error)
}

// NotificationLedger is implemented by *services.NotificationService.
type NotificationLedger interface {
	List(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error)
	ListUnread(ctx context.Context, userID primitive.ObjectID) (*models.UnreadNotifications, error)
	MarkRead(ctx context.Context, userID, id primitive.ObjectID) ([]models.Notification, error)
}

// UserManager is implemented by *services.UserService.
type UserManager interface {
	RegisterUser(ctx context.Context, in services.RegisterInput) (*models.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (*models.User, error)
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, actorID, targetID primitive.ObjectID, in services.ProfileUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, userID primitive.ObjectID, current, next string) error
	SearchUsers(ctx context.Context, query string, limit int) ([]models.PublicUser, error)
	DeleteUser(ctx context.Context, actorID primitive.ObjectID, actorRole string, targetID primitive.ObjectID) error
}

// PostInteractor is implemented by *services.InteractionService.
type PostInteractor interface {
	CreatePost(ctx context.Context, userID primitive.ObjectID, desc string, tags []primitive.ObjectID) (*models.Post, error)
	ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (bool, error)
	AddComment(ctx context.Context, postID, userID primitive.ObjectID, text string) (*models.Comment, error)
	DeleteComment(ctx context.Context, postID, commentID, userID primitive.ObjectID) error
}

// Messenger is implemented by *services.ChatService.
type Messenger interface {
	SendMessage(ctx context.Context, senderID, receiverID primitive.ObjectID, text string) (*models.Message, error)
	GetChat(ctx context.Context, userID, friendID primitive.ObjectID) ([]models.Message, error)
	MarkSeen(ctx context.Context, userID, friendID primitive.ObjectID) (int64, error)
	UnseenMessages(ctx context.Context, userID primitive.ObjectID) (*models.UnseenMessages, error)
}

// TimelineReader is implemented by *services.TimelineService.
type TimelineReader interface {
	Timeline(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]models.Post, error)
}

// ActivityReader is implemented by *services.ActivityService.
type ActivityReader interface {
	GetRecentActivities(ctx context.Context, userID primitive.ObjectID, limit int) ([]models.Activity, error)
}
