package services

import (
	"github.com/localnerve/relationsdb/internal/models"
)

func guildByID(c *Call, id int64) (*models.Guild, error) {
	guild, err := c.Tables.Locked().GuildByID(id)
	if err != nil {
		return nil, err
	}
	if guild == nil {
		return nil, ErrGuildNotFound
	}
	return guild, nil
}

// ownedGuild resolves a guild and rejects with notOwner unless the caller owns it.
func ownedGuild(c *Call, id int64, notOwner error) (*models.Guild, error) {
	guild, err := guildByID(c, id)
	if err != nil {
		return nil, err
	}
	if guild.Owner != c.Sender {
		return nil, notOwner
	}
	return guild, nil
}

func guildChannelByID(c *Call, id int64) (*models.GuildChannel, error) {
	channel, err := c.Tables.GuildChannelByID(id)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, ErrGuildChannelNotFound
	}
	return channel, nil
}

func guildMember(c *Call, user models.Identity, guildID int64) (bool, error) {
	m, err := c.Tables.GuildMember(user, guildID)
	return m != nil, err
}

// CreateGuild creates a guild owned by the caller, with the caller as member.
func CreateGuild(c *Call, name string) (*models.Guild, error) {
	me, err := registered(c)
	if err != nil {
		return nil, err
	}
	if !c.Validator.ValidName(name) {
		return nil, ErrInvalidName
	}

	guild := &models.Guild{Name: name, Owner: me.ID, CreatedAt: c.Timestamp}
	if err := c.Tables.InsertGuild(guild); err != nil {
		return nil, err
	}
	if err := c.Tables.InsertGuildMember(&models.GuildMember{UserID: me.ID, GuildID: guild.ID}); err != nil {
		return nil, err
	}
	return guild, nil
}

// JoinGuild adds the caller to a guild.
func JoinGuild(c *Call, guildID int64) error {
	me, err := registered(c)
	if err != nil {
		return err
	}
	guild, err := guildByID(c, guildID)
	if err != nil {
		return err
	}
	member, err := guildMember(c, me.ID, guild.ID)
	if err != nil {
		return err
	}
	if member {
		return ErrAlreadyGuildMember
	}
	return raced(c.Tables.InsertGuildMember(&models.GuildMember{UserID: me.ID, GuildID: guild.ID}), ErrAlreadyGuildMember)
}

// LeaveGuild removes the caller and their role assignments from a guild.
// The owner cannot leave, so a guild always keeps its owner as a member.
func LeaveGuild(c *Call, guildID int64) error {
	guild, err := guildByID(c, guildID)
	if err != nil {
		return err
	}
	if guild.Owner == c.Sender {
		return ErrGuildOwnerCannotLeave
	}
	member, err := guildMember(c, c.Sender, guild.ID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotGuildMember
	}

	if err := c.Tables.DeleteMemberRolesIn(c.Sender, guild.ID); err != nil {
		return err
	}
	c.forgetGrants()
	return c.Tables.DeleteGuildMember(c.Sender, guild.ID)
}

// CreateGuildChannel adds a channel to a guild the caller owns.
func CreateGuildChannel(c *Call, guildID int64, name string) (*models.GuildChannel, error) {
	guild, err := ownedGuild(c, guildID, ErrNotOwnerCreateChannel)
	if err != nil {
		return nil, err
	}
	if !c.Validator.ValidName(name) {
		return nil, ErrInvalidChannelName
	}

	channel := &models.GuildChannel{GuildID: guild.ID, Name: name, CreatedAt: c.Timestamp}
	if err := c.Tables.InsertGuildChannel(channel); err != nil {
		return nil, err
	}
	return channel, nil
}

// DeleteGuildChannel removes a guild channel together with its message log
// and every permission that names it.
func DeleteGuildChannel(c *Call, channelID int64) error {
	channel, err := guildChannelByID(c, channelID)
	if err != nil {
		return err
	}
	if _, err := ownedGuild(c, channel.GuildID, ErrNotOwnerDeleteChannel); err != nil {
		return err
	}

	if err := c.Tables.DeletePermissionsOnChannel(channel.ID); err != nil {
		return err
	}
	if err := c.Tables.DeleteGuildMessagesOf(channel.ID); err != nil {
		return err
	}
	c.forgetGrants()
	return c.Tables.DeleteGuildChannel(channel.ID)
}

// ListGuildMembers returns the members of a guild the caller belongs to.
func ListGuildMembers(c *Call, guildID int64) ([]Contact, error) {
	guild, err := memberGuild(c, guildID)
	if err != nil {
		return nil, err
	}
	members, err := c.Tables.GuildMembersOf(guild.ID)
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

// ListGuildChannels returns the channels of a guild the caller belongs to.
func ListGuildChannels(c *Call, guildID int64) ([]models.GuildChannel, error) {
	guild, err := memberGuild(c, guildID)
	if err != nil {
		return nil, err
	}
	return c.Tables.GuildChannelsOf(guild.ID)
}

func memberGuild(c *Call, guildID int64) (*models.Guild, error) {
	guild, err := c.Tables.GuildByID(guildID)
	if err != nil {
		return nil, err
	}
	if guild == nil {
		return nil, ErrGuildNotFound
	}
	member, err := guildMember(c, c.Sender, guild.ID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotGuildMember
	}
	return guild, nil
}
