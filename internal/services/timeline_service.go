package services

import (
	"context"

	"github.com/Dias221467/Social_Backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultTimelineLimit = 20
	maxTimelineLimit     = 100
)

// TimelineService builds the feed of a user: their own posts and their
// friends' posts, newest first.
type TimelineService struct {
	posts   PostStore
	friends *FriendService
}

func NewTimelineService(posts PostStore, friends *FriendService) *TimelineService {
	return &TimelineService{posts: posts, friends: friends}
}

// Timeline returns one page of the feed of userID. page starts at 1.
func (s *TimelineService) Timeline(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]models.Post, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultTimelineLimit
	}
	if limit > maxTimelineLimit {
		limit = maxTimelineLimit
	}

	graph, err := s.friends.Graph(ctx, userID)
	if err != nil {
		return nil, err
	}
	authors := append([]primitive.ObjectID{userID}, graph.Friends...)

	posts, err := s.posts.ListPostsByUsers(ctx, authors, (page-1)*limit, limit)
	if err != nil {
		return nil, Internal(err)
	}
	return posts, nil
}
