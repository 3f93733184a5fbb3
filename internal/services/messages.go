package services

import (
	"github.com/localnerve/relationsdb/internal/models"
)

// Page limits for message log reads.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

func pageSize(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPageSize
	case limit > MaxPageSize:
		return MaxPageSize
	}
	return limit
}

// SendMessage appends text to a channel the caller is a member of.
func SendMessage(c *Call, text, channelName string) (*models.Message, error) {
	me, err := registered(c)
	if err != nil {
		return nil, err
	}
	channel, err := c.Tables.ChannelByName(channelName)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, ErrChannelNotFound
	}
	member, err := isMember(c, me.ID, channel.ID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotChannelMember
	}
	if !c.Validator.ValidMessage(text) {
		return nil, ErrInvalidMessage
	}

	msg := &models.Message{Sender: me.Name, ChannelID: channel.ID, Sent: c.Timestamp, Text: text}
	if err := c.Tables.InsertMessage(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// PostGuildMessage appends text to a guild channel the caller may write to.
func PostGuildMessage(c *Call, channelID int64, text string) (*models.GuildMessage, error) {
	me, err := registered(c)
	if err != nil {
		return nil, err
	}
	if err := CanWrite(c, me.ID, channelID); err != nil {
		return nil, err
	}
	if !c.Validator.ValidMessage(text) {
		return nil, ErrInvalidMessage
	}

	msg := &models.GuildMessage{Sender: me.Name, ChannelID: channelID, Sent: c.Timestamp, Text: text}
	if err := c.Tables.InsertGuildMessage(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages pages through a channel's log in id order, starting after afterID.
func ListMessages(c *Call, channelName string, afterID int64, limit int) ([]models.Message, error) {
	channel, err := c.Tables.ChannelByName(channelName)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, ErrChannelNotFound
	}
	member, err := isMember(c, c.Sender, channel.ID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotChannelMember
	}
	return c.Tables.MessagesOf(channel.ID, afterID, pageSize(limit))
}

// ListGuildMessages pages through a guild channel's log; the caller needs
// read permission on the channel.
func ListGuildMessages(c *Call, channelID, afterID int64, limit int) ([]models.GuildMessage, error) {
	me, err := registered(c)
	if err != nil {
		return nil, err
	}
	if err := CanRead(c, me.ID, channelID); err != nil {
		return nil, err
	}
	return c.Tables.GuildMessagesOf(channelID, afterID, pageSize(limit))
}
