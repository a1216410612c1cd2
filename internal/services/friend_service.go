package services

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Dias221467/Social_Backend/internal/models"
	"github.com/Dias221467/Social_Backend/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultSuggestionLimit = 20
	maxSuggestionLimit     = 100
)

// ErrRelationChanged is returned when the pair changed between read and write
// inside the same request. Retrying the call is safe.
var ErrRelationChanged = newError(KindConflict, "relation_changed", "friend relation changed concurrently, retry")

// FriendService handles the friend request lifecycle and friendship queries.
// Every mutation returns the acting user's refreshed FriendGraph.
type FriendService struct {
	relations     RelationStore
	users         UserStore
	notifications *NotificationService
	activities    *ActivityService
	tx            TxRunner
}

// NewFriendService creates a new FriendService.
func NewFriendService(
	relations RelationStore,
	users UserStore,
	notifications *NotificationService,
	activities *ActivityService,
	tx TxRunner,
) *FriendService {
	return &FriendService{
		relations:     relations,
		users:         users,
		notifications: notifications,
		activities:    activities,
		tx:            tx,
	}
}

func (s *FriendService) getUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return lookupUser(ctx, s.users, id)
}

// SendRequest records a friend request from userID to targetID. When targetID
// already has a pending request to userID the two requests meet and the users
// become friends; targetID then receives an accepted notification.
func (s *FriendService) SendRequest(ctx context.Context, userID, targetID primitive.ObjectID) (*models.FriendGraph, error) {
	if userID == targetID {
		return nil, ErrSelfRequest
	}
	requester, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.getUser(ctx, targetID); err != nil {
		return nil, err
	}

	var accepted *models.Notification
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		accepted = nil
		now := time.Now()

		rel, err := s.relations.GetRelation(ctx, userID, targetID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			err := s.relations.InsertPending(ctx, models.NewPendingRelation(requester, targetID, now))
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyRequested
			}
			if err != nil {
				return Internal(err)
			}
			return nil
		case err != nil:
			return Internal(err)
		case rel.State == models.RelationFriends:
			return ErrAlreadyFriends
		case rel.RequesterID == userID:
			return ErrAlreadyRequested
		}

		ok, err := s.relations.PromoteToFriends(ctx, targetID, userID, now)
		if err != nil {
			return Internal(err)
		}
		if !ok {
			return ErrRelationChanged
		}
		n, err := models.NewNotification(models.NotificationAccepted, targetID, requester, nil)
		if err != nil {
			return Internal(err)
		}
		if err := s.notifications.record(ctx, n); err != nil {
			return err
		}
		accepted = n
		return nil
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"userID":   userID.Hex(),
			"targetID": targetID.Hex(),
			"error":    err,
		}).Warn("Friend request not sent")
		return nil, asServiceError(err)
	}

	if accepted != nil {
		s.notifications.publish(accepted)
		s.activities.LogActivity(ctx, userID, models.ActivityRequestAccepted, targetID, "Friend requests crossed, now friends")
		logrus.WithFields(logrus.Fields{"userID": userID.Hex(), "targetID": targetID.Hex()}).Info("Crossed friend requests merged")
	} else {
		s.activities.LogActivity(ctx, userID, models.ActivityRequestSent, targetID, "Friend request sent")
		logrus.WithFields(logrus.Fields{"userID": userID.Hex(), "targetID": targetID.Hex()}).Info("Friend request sent")
	}
	return s.Graph(ctx, userID)
}

// CancelRequest withdraws userID's pending request to targetID. Cancelling a
// request that does not exist changes nothing.
func (s *FriendService) CancelRequest(ctx context.Context, userID, targetID primitive.ObjectID) (*models.FriendGraph, error) {
	removed, err := s.relations.DeletePending(ctx, userID, targetID)
	if err != nil {
		return nil, Internal(err)
	}
	if removed {
		s.activities.LogActivity(ctx, userID, models.ActivityRequestCancelled, targetID, "Friend request cancelled")
	}
	return s.Graph(ctx, userID)
}

// AcceptRequest makes userID and requesterID friends and notifies the
// requester. Both writes commit together.
func (s *FriendService) AcceptRequest(ctx context.Context, userID, requesterID primitive.ObjectID) (*models.FriendGraph, error) {
	accepter, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var accepted *models.Notification
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		accepted = nil

		ok, err := s.relations.PromoteToFriends(ctx, requesterID, userID, time.Now())
		if err != nil {
			return Internal(err)
		}
		if !ok {
			return ErrRequestNotFound
		}
		n, err := models.NewNotification(models.NotificationAccepted, requesterID, accepter, nil)
		if err != nil {
			return Internal(err)
		}
		if err := s.notifications.record(ctx, n); err != nil {
			return err
		}
		accepted = n
		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	s.notifications.publish(accepted)
	s.activities.LogActivity(ctx, userID, models.ActivityRequestAccepted, requesterID, "Friend request accepted")
	logrus.WithFields(logrus.Fields{"userID": userID.Hex(), "requesterID": requesterID.Hex()}).Info("Friend request accepted")
	return s.Graph(ctx, userID)
}

// RejectRequest drops the pending request requesterID sent to userID.
func (s *FriendService) RejectRequest(ctx context.Context, userID, requesterID primitive.ObjectID) (*models.FriendGraph, error) {
	removed, err := s.relations.DeletePending(ctx, requesterID, userID)
	if err != nil {
		return nil, Internal(err)
	}
	if !removed {
		return nil, ErrRequestNotFound
	}
	s.activities.LogActivity(ctx, userID, models.ActivityRequestRejected, requesterID, "Friend request rejected")
	return s.Graph(ctx, userID)
}

// Unfriend ends the friendship between userID and targetID on both sides.
// It is a no-op when they are not friends.
func (s *FriendService) Unfriend(ctx context.Context, userID, targetID primitive.ObjectID) (*models.FriendGraph, error) {
	removed, err := s.relations.DeleteFriendship(ctx, userID, targetID)
	if err != nil {
		return nil, Internal(err)
	}
	if removed {
		s.activities.LogActivity(ctx, userID, models.ActivityUnfriended, targetID, "Friend removed")
	}
	return s.Graph(ctx, userID)
}

// Graph returns the friends, incoming and outgoing requests of userID.
func (s *FriendService) Graph(ctx context.Context, userID primitive.ObjectID) (*models.FriendGraph, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}
	rels, err := s.relations.ListRelations(ctx, userID)
	if err != nil {
		return nil, Internal(err)
	}
	return models.BuildFriendGraph(userID, rels), nil
}

// AreFriends reports whether a and b are friends.
func (s *FriendService) AreFriends(ctx context.Context, a, b primitive.ObjectID) (bool, error) {
	rel, err := s.relations.GetRelation(ctx, a, b)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, Internal(err)
	}
	return rel.State == models.RelationFriends, nil
}

// ListFriends returns the public profiles of userID's friends ordered by id.
func (s *FriendService) ListFriends(ctx context.Context, userID primitive.ObjectID) ([]models.PublicUser, error) {
	g, err := s.Graph(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.profiles(ctx, g.Friends)
}

// SearchFriends returns the friends of userID whose username starts with
// prefix, ignoring case.
func (s *FriendService) SearchFriends(ctx context.Context, userID primitive.ObjectID, prefix string) ([]models.PublicUser, error) {
	g, err := s.Graph(ctx, userID)
	if err != nil {
		return nil, err
	}
	users, err := s.users.SearchUsernamePrefix(ctx, g.Friends, prefix)
	if err != nil {
		return nil, Internal(err)
	}
	return toPublic(users), nil
}

// SuggestFriends lists users userID has no relation with, skipping exclude.
func (s *FriendService) SuggestFriends(ctx context.Context, userID primitive.ObjectID, exclude []primitive.ObjectID, limit int) ([]models.PublicUser, error) {
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}
	if limit > maxSuggestionLimit {
		limit = maxSuggestionLimit
	}

	g, err := s.Graph(ctx, userID)
	if err != nil {
		return nil, err
	}

	skip := []primitive.ObjectID{userID}
	skip = append(skip, g.Friends...)
	skip = append(skip, g.SentRequests...)
	for _, r := range g.FriendRequests {
		skip = append(skip, r.RequesterID)
	}
	skip = append(skip, exclude...)

	users, err := s.users.FindUsersExcluding(ctx, skip, limit)
	if err != nil {
		return nil, Internal(err)
	}
	return toPublic(users), nil
}

// MutualFriends returns the users that are friends with both a and b,
// ordered by id whatever the argument order.
func (s *FriendService) MutualFriends(ctx context.Context, a, b primitive.ObjectID) ([]models.PublicUser, error) {
	ga, err := s.Graph(ctx, a)
	if err != nil {
		return nil, err
	}
	gb, err := s.Graph(ctx, b)
	if err != nil {
		return nil, err
	}

	inB := make(map[primitive.ObjectID]struct{}, len(gb.Friends))
	for _, id := range gb.Friends {
		inB[id] = struct{}{}
	}
	var mutual []primitive.ObjectID
	for _, id := range ga.Friends {
		if _, ok := inB[id]; ok {
			mutual = append(mutual, id)
		}
	}
	return s.profiles(ctx, mutual)
}

func (s *FriendService) profiles(ctx context.Context, ids []primitive.ObjectID) ([]models.PublicUser, error) {
	if len(ids) == 0 {
		return []models.PublicUser{}, nil
	}
	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, Internal(err)
	}
	out := toPublic(users)
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out, nil
}

func toPublic(users []models.User) []models.PublicUser {
	out := make([]models.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out
}
