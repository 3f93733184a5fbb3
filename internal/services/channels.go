// channels.go
//
// A consistency layer for social relations and guild permissions
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of relationsdb.
// relationsdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// relationsdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with relationsdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"github.com/localnerve/relationsdb/internal/models"
	"github.com/localnerve/relationsdb/internal/pairkey"
)

// channelNamed resolves a channel by name with its row locked, so membership
// changes on one channel are serialized.
func channelNamed(c *Call, name string) (*models.Channel, error) {
	channel, err := c.Tables.Locked().ChannelByName(name)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, ErrChannelNotFound
	}
	return channel, nil
}

func isMember(c *Call, user models.Identity, channelID int64) (bool, error) {
	m, err := c.Tables.Member(pairkey.Membership(user, channelID))
	return m != nil, err
}

// CreateChannel creates a channel owned by the caller, with the caller as
// its first member.
func CreateChannel(c *Call, name string) (*models.Channel, error) {
	me, err := registered(c)
	if err != nil {
		return nil, err
	}
	if !c.Validator.ValidName(name) {
		return nil, ErrInvalidChannelName
	}
	existing, err := c.Tables.ChannelByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrChannelNameTaken
	}

	channel := &models.Channel{Name: name, Owner: me.ID, CreatedAt: c.Timestamp}
	if err := c.Tables.InsertChannel(channel); err != nil {
		return nil, raced(err, ErrChannelNameTaken)
	}
	err = c.Tables.InsertMember(&models.Member{
		Hash:      pairkey.Membership(me.ID, channel.ID),
		UserID:    me.ID,
		ChannelID: channel.ID,
	})
	if err != nil {
		return nil, err
	}
	return channel, nil
}

// AddMember adds the named user to a channel. Who may do so depends on the
// call's AddMemberPolicy.
func AddMember(c *Call, channelName, userName string) error {
	channel, err := channelNamed(c, channelName)
	if err != nil {
		return err
	}
	me, err := registered(c)
	if err != nil {
		return err
	}

	switch c.Policy {
	case AddByOwner:
		if channel.Owner != me.ID {
			return ErrNotOwnerAdd
		}
	default:
		member, err := isMember(c, me.ID, channel.ID)
		if err != nil {
			return err
		}
		if !member {
			return ErrNotChannelMember
		}
	}

	user, err := userNamed(c, userName)
	if err != nil {
		return err
	}
	key := pairkey.Membership(user.ID, channel.ID)
	existing, err := c.Tables.Member(key)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrAlreadyChannelMember
	}

	return raced(c.Tables.InsertMember(&models.Member{Hash: key, UserID: user.ID, ChannelID: channel.ID}), ErrAlreadyChannelMember)
}

// RemoveMember removes the named user from a channel. The owner may remove
// anyone; other members may only remove themselves. The owner removing
// themselves deletes the channel, and is refused while others remain.
func RemoveMember(c *Call, channelName, userName string) error {
	channel, err := channelNamed(c, channelName)
	if err != nil {
		return err
	}
	me, err := registered(c)
	if err != nil {
		return err
	}
	user, err := userNamed(c, userName)
	if err != nil {
		return err
	}
	if user.ID != me.ID && channel.Owner != me.ID {
		return ErrNotChannelOwner
	}

	key := pairkey.Membership(user.ID, channel.ID)
	member, err := c.Tables.Member(key)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrTargetNotMember
	}

	if user.ID != channel.Owner {
		return c.Tables.DeleteMember(key)
	}

	count, err := c.Tables.CountMembers(channel.ID)
	if err != nil {
		return err
	}
	if count > 1 {
		return ErrOwnerMustTransfer
	}
	return deleteChannel(c, channel.ID)
}

func deleteChannel(c *Call, channelID int64) error {
	if err := c.Tables.DeleteMessagesOf(channelID); err != nil {
		return err
	}
	if err := c.Tables.DeleteMembersOf(channelID); err != nil {
		return err
	}
	return c.Tables.DeleteChannel(channelID)
}

// TransferChannelOwnership hands the channel to another member.
func TransferChannelOwnership(c *Call, channelName, userName string) error {
	channel, err := channelNamed(c, channelName)
	if err != nil {
		return err
	}
	if channel.Owner != c.Sender {
		return ErrNotOwnerTransfer
	}
	user, err := userNamed(c, userName)
	if err != nil {
		return err
	}
	member, err := isMember(c, user.ID, channel.ID)
	if err != nil {
		return err
	}
	if !member {
		return ErrTargetNotMember
	}
	if user.ID == channel.Owner {
		return nil
	}
	return c.Tables.UpdateChannelOwner(channel.ID, user.ID)
}

// ListChannelMembers returns the members of a channel the caller belongs to.
func ListChannelMembers(c *Call, channelName string) ([]Contact, error) {
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

	members, err := c.Tables.MembersOf(channel.ID)
	if err != nil {
		return nil, err
	}
	contacts := make([]Contact, 0, len(members))
	for _, m := range members {
		u, err := c.Tables.UserByID(m.UserID)
		if err != nil {
			return nil, err
		}
		if u != nil {
			contacts = append(contacts, contactOf(u))
		}
	}
	return contacts, nil
}
