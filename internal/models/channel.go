package models

import (
	"time"
)

// Channel is a named chat channel with one owning member
type Channel struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"uniqueIndex;size:64;not null"`
	Owner     Identity  `json:"owner" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
}

// Member places a user in a channel. Hash is derived from (user, channel).
type Member struct {
	Hash      Key      `json:"hash" gorm:"primaryKey"`
	UserID    Identity `json:"userId" gorm:"not null;index"`
	ChannelID int64    `json:"channelId" gorm:"not null;index"`
}

// Message is one entry of a channel's append-only log
type Message struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Sender    string    `json:"sender" gorm:"size:64;not null"`
	ChannelID int64     `json:"channelId" gorm:"not null;index"`
	Sent      time.Time `json:"sent" gorm:"not null"`
	Text      string    `json:"text" gorm:"not null"`
}

// TableName overrides the table name for Channel
func (Channel) TableName() string {
	return "channels"
}

// TableName overrides the table name for Member
func (Member) TableName() string {
	return "members"
}

// TableName overrides the table name for Message
func (Message) TableName() string {
	return "messages"
}
