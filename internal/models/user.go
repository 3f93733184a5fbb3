package models

import (
	"time"
)

// User is one registered identity
type User struct {
	ID          Identity  `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"uniqueIndex;size:64;not null"`
	DisplayName string    `json:"displayName" gorm:"size:64;not null"`
	Online      bool      `json:"online" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Friend is a confirmed friendship, keyed by the canonical pair key
type Friend struct {
	Hash  Key      `json:"hash" gorm:"primaryKey"`
	UserA Identity `json:"userA" gorm:"not null;index"`
	UserB Identity `json:"userB" gorm:"not null;index"`
}

// FriendRequest is an outstanding friendship request, keyed like Friend.
// RequestedBy is the identity that sent it; only the other side may accept.
type FriendRequest struct {
	Hash        Key       `json:"hash" gorm:"primaryKey"`
	UserA       Identity  `json:"userA" gorm:"not null;index"`
	UserB       Identity  `json:"userB" gorm:"not null;index"`
	RequestedBy Identity  `json:"requestedBy" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Other returns the side of the pair that is not id.
func (f Friend) Other(id Identity) Identity {
	if f.UserA == id {
		return f.UserB
	}
	return f.UserA
}

// Other returns the side of the pair that is not id.
func (r FriendRequest) Other(id Identity) Identity {
	if r.UserA == id {
		return r.UserB
	}
	return r.UserA
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// TableName overrides the table name for Friend
func (Friend) TableName() string {
	return "friends"
}

// TableName overrides the table name for FriendRequest
func (FriendRequest) TableName() string {
	return "friend_requests"
}
