package models

import (
	"bytes"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RelationState string

const (
	RelationPending RelationState = "pending"
	RelationFriends RelationState = "friends"
)

// Relation is the single record kept for an unordered pair of users. Its _id
// is the canonical pair key, so a pair can never hold two records.
type Relation struct {
	ID          string                `bson:"_id" json:"id"`
	Users       [2]primitive.ObjectID `bson:"users" json:"users"`
	RequesterID primitive.ObjectID    `bson:"requester_id" json:"requester_id"`
	ReceiverID  primitive.ObjectID    `bson:"receiver_id" json:"receiver_id"`
	Requester   UserSnapshot          `bson:"requester" json:"requester"`
	State       RelationState         `bson:"state" json:"state"`
	CreatedAt   time.Time             `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time             `bson:"updated_at" json:"updated_at"`
	AcceptedAt  *time.Time            `bson:"accepted_at,omitempty" json:"accepted_at,omitempty"`
}

// OrderedPair returns a and b with the lower id first.
func OrderedPair(a, b primitive.ObjectID) (primitive.ObjectID, primitive.ObjectID) {
	if bytes.Compare(a[:], b[:]) > 0 {
		return b, a
	}
	return a, b
}

// PairKey is the same for (a, b) and (b, a).
func PairKey(a, b primitive.ObjectID) string {
	lo, hi := OrderedPair(a, b)
	return lo.Hex() + ":" + hi.Hex()
}

// NewPendingRelation builds the record for a request from requester to receiver.
func NewPendingRelation(requester *User, receiverID primitive.ObjectID, now time.Time) *Relation {
	lo, hi := OrderedPair(requester.ID, receiverID)
	return &Relation{
		ID:          PairKey(requester.ID, receiverID),
		Users:       [2]primitive.ObjectID{lo, hi},
		RequesterID: requester.ID,
		ReceiverID:  receiverID,
		Requester:   requester.Snapshot(),
		State:       RelationPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Other returns the member of the pair that is not userID.
func (r *Relation) Other(userID primitive.ObjectID) primitive.ObjectID {
	if r.Users[0] == userID {
		return r.Users[1]
	}
	return r.Users[0]
}

// IsPendingFrom reports whether r is a pending request sent by requester to receiver.
func (r *Relation) IsPendingFrom(requester, receiver primitive.ObjectID) bool {
	return r.State == RelationPending && r.RequesterID == requester && r.ReceiverID == receiver
}

// IncomingRequest is one entry of a user's friendRequests collection.
type IncomingRequest struct {
	RequesterID    primitive.ObjectID `json:"requester_id"`
	Username       string             `json:"username"`
	ProfilePicture string             `json:"profile_picture,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// FriendGraph is the per-user view of the relation table.
type FriendGraph struct {
	UserID         primitive.ObjectID   `json:"user_id"`
	Friends        []primitive.ObjectID `json:"friends"`
	FriendRequests []IncomingRequest    `json:"friend_requests"`
	SentRequests   []primitive.ObjectID `json:"sent_requests"`
}

// BuildFriendGraph projects the relations touching userID. rels must be in
// creation order.
func BuildFriendGraph(userID primitive.ObjectID, rels []Relation) *FriendGraph {
	g := &FriendGraph{
		UserID:         userID,
		Friends:        []primitive.ObjectID{},
		FriendRequests: []IncomingRequest{},
		SentRequests:   []primitive.ObjectID{},
	}
	for i := range rels {
		rel := &rels[i]
		switch {
		case rel.State == RelationFriends:
			g.Friends = append(g.Friends, rel.Other(userID))
		case rel.ReceiverID == userID:
			g.FriendRequests = append(g.FriendRequests, IncomingRequest{
				RequesterID:    rel.RequesterID,
				Username:       rel.Requester.Username,
				ProfilePicture: rel.Requester.ProfilePicture,
				CreatedAt:      rel.CreatedAt,
			})
		case rel.RequesterID == userID:
			g.SentRequests = append(g.SentRequests, rel.ReceiverID)
		}
	}
	return g
}

func (g *FriendGraph) HasFriend(id primitive.ObjectID) bool {
	for _, f := range g.Friends {
		if f == id {
			return true
		}
	}
	return false
}

func (g *FriendGraph) HasRequestFrom(id primitive.ObjectID) bool {
	for _, r := range g.FriendRequests {
		if r.RequesterID == id {
			return true
		}
	}
	return false
}

func (g *FriendGraph) HasSentTo(id primitive.ObjectID) bool {
	for _, s := range g.SentRequests {
		if s == id {
			return true
		}
	}
	return false
}
