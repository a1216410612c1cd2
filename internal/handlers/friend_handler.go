package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/Dias221467/Social_Backend/internal/models"
	"github.com/Dias221467/Social_Backend/pkg/logger"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FriendHandler manages HTTP endpoints related to the friend graph.
type FriendHandler struct {
	Service FriendManager
}

// NewFriendHandler initializes a new FriendHandler.
func NewFriendHandler(service FriendManager) *FriendHandler {
	return &FriendHandler{Service: service}
}

type graphMutation func(ctx context.Context, userID, otherID primitive.ObjectID) (*models.FriendGraph, error)

// mutate runs op for the acting user and the user in path variable other,
// answering with the refreshed graph.
func (h *FriendHandler) mutate(w http.ResponseWriter, r *http.Request, other, action string, op graphMutation) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	otherID, ok := pathID(w, r, other)
	if !ok {
		return
	}

	graph, err := op(r.Context(), userID, otherID)
	if err != nil {
		writeError(w, err)
		return
	}

	logger.Log.WithFields(logrus.Fields{
		"userID":  userID.Hex(),
		"otherID": otherID.Hex(),
		"action":  action,
	}).Info("Friend graph updated")
	writeJSON(w, http.StatusOK, graph)
}

// SendFriendRequestHandler sends a friend request to {targetId}.
func (h *FriendHandler) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "targetId", "send", h.Service.SendRequest)
}

// CancelFriendRequestHandler withdraws the caller's request to {targetId}.
func (h *FriendHandler) CancelFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "targetId", "cancel", h.Service.CancelRequest)
}

// AcceptFriendRequestHandler accepts the request sent by {requesterId}.
func (h *FriendHandler) AcceptFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "requesterId", "accept", h.Service.AcceptRequest)
}

// RejectFriendRequestHandler rejects the request sent by {requesterId}.
func (h *FriendHandler) RejectFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "requesterId", "reject", h.Service.RejectRequest)
}

// RemoveFriendHandler ends the friendship with {friendId}.
func (h *FriendHandler) RemoveFriendHandler(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "friendId", "unfriend", h.Service.Unfriend)
}

// GetGraphHandler returns friends, incoming and sent requests.
func (h *FriendHandler) GetGraphHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	graph, err := h.Service.Graph(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, graph)
}

// GetFriendsHandler returns the caller's friends.
func (h *FriendHandler) GetFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	friends, err := h.Service.ListFriends(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, friends)
}

// SearchFriendsHandler filters the caller's friends by username prefix ?q=.
func (h *FriendHandler) SearchFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		badRequest(w, "Query parameter q is required")
		return
	}
	friends, err := h.Service.SearchFriends(r.Context(), userID, q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, friends)
}

// SuggestFriendsHandler lists people the caller has no relation with.
// ?exclude= takes comma separated ids, ?limit= caps the result.
func (h *FriendHandler) SuggestFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}

	var exclude []primitive.ObjectID
	if raw := r.URL.Query().Get("exclude"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := primitive.ObjectIDFromHex(strings.TrimSpace(part))
			if err != nil {
				badRequest(w, "Invalid exclude id")
				return
			}
			exclude = append(exclude, id)
		}
	}

	users, err := h.Service.SuggestFriends(r.Context(), userID, exclude, queryInt(r, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetMutualFriendsHandler returns the friends the caller shares with {otherId}.
func (h *FriendHandler) GetMutualFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	otherID, ok := pathID(w, r, "otherId")
	if !ok {
		return
	}
	users, err := h.Service.MutualFriends(r.Context(), userID, otherID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
