package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account of the social network. Friendships and
// requests are not stored here; see Relation.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username       string             `bson:"username" json:"username"`
	Email          string             `bson:"email" json:"email"`
	HashedPassword string             `bson:"hashed_password" json:"-"`
	ProfilePicture string             `bson:"profile_picture,omitempty" json:"profile_picture,omitempty"`
	CoverPicture   string             `bson:"cover_picture,omitempty" json:"cover_picture,omitempty"`
	Desc           string             `bson:"desc,omitempty" json:"desc,omitempty"`
	City           string             `bson:"city,omitempty" json:"city,omitempty"`
	From           string             `bson:"from,omitempty" json:"from,omitempty"`
	Relationship   int                `bson:"relationship,omitempty" json:"relationship,omitempty"`
	Role           string             `bson:"role" json:"role"`
	LastActiveAt   time.Time          `bson:"last_active_at,omitempty" json:"last_active_at,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// PublicUser is what other users get to see.
type PublicUser struct {
	ID             primitive.ObjectID `json:"id"`
	Username       string             `json:"username"`
	ProfilePicture string             `json:"profile_picture,omitempty"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
}

// Snapshot captures the display fields copied into requests and notifications.
func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{Username: u.Username, ProfilePicture: u.ProfilePicture}
}

type UserSnapshot struct {
	Username       string `bson:"username" json:"username"`
	ProfilePicture string `bson:"profile_picture,omitempty" json:"profile_picture,omitempty"`
}
