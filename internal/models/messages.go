package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a direct message between two friends. Seen flips once the
// receiver opens the conversation.
type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SenderID   primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	ReceiverID primitive.ObjectID `bson:"receiver_id" json:"receiver_id"`
	Text       string             `bson:"text" json:"text"`
	Seen       bool               `bson:"seen" json:"seen"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// UnseenCount is the number of unseen messages one sender left for a user.
type UnseenCount struct {
	SenderID primitive.ObjectID `bson:"_id" json:"sender_id"`
	Count    int64              `bson:"count" json:"count"`
}

type UnseenMessages struct {
	Total   int64         `json:"total_unseen_count"`
	Senders []UnseenCount `json:"senders"`
}

// NewUnseenMessages totals per-sender counts.
func NewUnseenMessages(counts []UnseenCount) *UnseenMessages {
	if counts == nil {
		counts = []UnseenCount{}
	}
	out := &UnseenMessages{Senders: counts}
	for _, c := range counts {
		out.Total += c.Count
	}
	return out
}
