package services

import (
	"context"
	"strings"

	"github.com/Dias221467/Social_Backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxMessageLength = 2000

// ChatService stores direct messages between friends.
type ChatService struct {
	repo      MessageStore
	friends   *FriendService
	publisher Publisher
}

func NewChatService(repo MessageStore, friends *FriendService, publisher Publisher) *ChatService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &ChatService{repo: repo, friends: friends, publisher: publisher}
}

// SendMessage stores text from senderID to receiverID and pushes it to the
// receiver. The two users must be friends.
func (s *ChatService) SendMessage(ctx context.Context, senderID, receiverID primitive.ObjectID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, InvalidArgument("message text is required")
	}
	if len(text) > maxMessageLength {
		return nil, InvalidArgument("message is too long")
	}

	ok, err := s.friends.AreFriends(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFriends
	}

	msg, err := s.repo.SaveMessage(ctx, &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
	})
	if err != nil {
		return nil, Internal(err)
	}
	s.publisher.Publish(receiverID, EventMessage, msg)
	return msg, nil
}

// GetChat returns the conversation of userID with friendID, oldest first.
func (s *ChatService) GetChat(ctx context.Context, userID, friendID primitive.ObjectID) ([]models.Message, error) {
	ok, err := s.friends.AreFriends(ctx, userID, friendID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFriends
	}
	messages, err := s.repo.GetConversation(ctx, userID, friendID)
	if err != nil {
		return nil, Internal(err)
	}
	return messages, nil
}

// MarkSeen flags the messages friendID sent to userID as seen and tells
// friendID how many were read.
func (s *ChatService) MarkSeen(ctx context.Context, userID, friendID primitive.ObjectID) (int64, error) {
	ok, err := s.friends.AreFriends(ctx, userID, friendID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNotFriends
	}
	n, err := s.repo.MarkSeen(ctx, userID, friendID)
	if err != nil {
		return 0, Internal(err)
	}
	if n > 0 {
		s.publisher.Publish(friendID, EventMessagesSeen, map[string]interface{}{
			"reader_id": userID,
			"count":     n,
		})
	}
	return n, nil
}

// UnseenMessages counts the unseen messages of userID per sender.
func (s *ChatService) UnseenMessages(ctx context.Context, userID primitive.ObjectID) (*models.UnseenMessages, error) {
	counts, err := s.repo.CountUnseen(ctx, userID)
	if err != nil {
		return nil, Internal(err)
	}
	return models.NewUnseenMessages(counts), nil
}
