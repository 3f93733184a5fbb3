// tables.go
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

// Package store exposes the persisted tables to the command handlers.
//
// A Tables value is bound to one host transaction. Finders return (nil, nil)
// when no row matches; any other error comes from the database.
package store

import (
	"errors"

	"github.com/localnerve/relationsdb/internal/models"
)

// ErrDuplicate is returned by inserts and updates that hit a unique key.
// The database must be opened with gorm.Config.TranslateError.
var ErrDuplicate = errors.New("duplicate key")

// Users is the identity table, looked up by identity and by unique name.
type Users interface {
	UserByID(id models.Identity) (*models.User, error)
	UserByName(name string) (*models.User, error)
	InsertUser(u *models.User) error
	UpdateUser(u *models.User) error
}

// Relations holds friendships and friend requests by canonical pair key.
type Relations interface {
	Friend(key models.Key) (*models.Friend, error)
	InsertFriend(f *models.Friend) error
	DeleteFriend(key models.Key) error
	FriendsOf(id models.Identity) ([]models.Friend, error)

	FriendRequest(key models.Key) (*models.FriendRequest, error)
	InsertFriendRequest(r *models.FriendRequest) error
	DeleteFriendRequest(key models.Key) error
	FriendRequestsOf(id models.Identity) ([]models.FriendRequest, error)
}

// Channels holds channels, their members and their message logs.
type Channels interface {
	ChannelByID(id int64) (*models.Channel, error)
	ChannelByName(name string) (*models.Channel, error)
	InsertChannel(c *models.Channel) error
	UpdateChannelOwner(channelID int64, owner models.Identity) error
	DeleteChannel(channelID int64) error

	Member(key models.Key) (*models.Member, error)
	InsertMember(m *models.Member) error
	DeleteMember(key models.Key) error
	DeleteMembersOf(channelID int64) error
	CountMembers(channelID int64) (int64, error)
	MembersOf(channelID int64) ([]models.Member, error)

	InsertMessage(m *models.Message) error
	DeleteMessagesOf(channelID int64) error
	MessagesOf(channelID, afterID int64, limit int) ([]models.Message, error)
}

// Guilds holds guilds, guild membership, guild channels and their logs.
type Guilds interface {
	GuildByID(id int64) (*models.Guild, error)
	InsertGuild(g *models.Guild) error

	GuildMember(user models.Identity, guildID int64) (*models.GuildMember, error)
	InsertGuildMember(m *models.GuildMember) error
	DeleteGuildMember(user models.Identity, guildID int64) error
	GuildMembersOf(guildID int64) ([]models.GuildMember, error)

	GuildChannelByID(id int64) (*models.GuildChannel, error)
	InsertGuildChannel(c *models.GuildChannel) error
	DeleteGuildChannel(id int64) error
	GuildChannelsOf(guildID int64) ([]models.GuildChannel, error)

	InsertGuildMessage(m *models.GuildMessage) error
	DeleteGuildMessagesOf(channelID int64) error
	GuildMessagesOf(channelID, afterID int64, limit int) ([]models.GuildMessage, error)
}

// Roles holds guild roles, the permissions attached to them, and their
// assignments to users.
type Roles interface {
	RoleByID(id int64) (*models.GuildRole, error)
	InsertRole(r *models.GuildRole) error
	UpdateRole(r *models.GuildRole) error
	DeleteRole(id int64) error
	RolesOf(guildID int64) ([]models.GuildRole, error)

	PermissionByID(id int64) (*models.GuildPermission, error)
	RolePermission(roleID int64, p models.Permission) (*models.GuildPermission, error)
	PermissionsOf(roleID int64) ([]models.GuildPermission, error)
	InsertPermission(p *models.GuildPermission) error
	DeletePermission(id int64) error
	DeletePermissionsOf(roleID int64) error
	DeletePermissionsOnChannel(channelID int64) error

	MemberRole(user models.Identity, roleID int64) (*models.GuildMemberRole, error)
	RolesHeldBy(user models.Identity, guildID int64) ([]models.GuildMemberRole, error)
	InsertMemberRole(r *models.GuildMemberRole) error
	DeleteMemberRole(user models.Identity, roleID int64) error
	DeleteMemberRolesOf(roleID int64) error
	DeleteMemberRolesIn(user models.Identity, guildID int64) error
}

// Tables is every table, bound to one transaction.
type Tables interface {
	Users
	Relations
	Channels
	Guilds
	Roles

	// Locked returns a view whose finders take row locks until the
	// transaction ends.
	Locked() Tables
}
