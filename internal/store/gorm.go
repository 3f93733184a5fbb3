// gorm.go
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

package store

import (
	"errors"
	"fmt"

	"github.com/localnerve/relationsdb/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/hints"
)

// Gorm implements Tables on a GORM transaction.
type Gorm struct {
	tx   *gorm.DB
	lock bool
}

// New binds the tables to tx. tx should be the handle passed to a
// db.Transaction callback.
func New(tx *gorm.DB) *Gorm {
	return &Gorm{tx: tx}
}

// Locked returns a view whose finders add FOR UPDATE on dialects that support it.
func (g *Gorm) Locked() Tables {
	return &Gorm{tx: g.tx, lock: true}
}

func (g *Gorm) query() *gorm.DB {
	if g.lock && supportsRowLocks(g.tx) {
		return g.tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return g.tx
}

// resolver is the read path of permission checks. It runs silent and tagged
// so it can be picked out of the database's own query log.
func (g *Gorm) resolver() *gorm.DB {
	return g.tx.Session(&gorm.Session{Logger: g.tx.Logger.LogMode(logger.Silent)}).
		Clauses(hints.Comment("select", "permission resolver"))
}

func supportsRowLocks(db *gorm.DB) bool {
	switch db.Dialector.Name() {
	case "mysql", "postgres":
		return true
	}
	return false
}

func first[T any](q *gorm.DB) (*T, error) {
	var rows []T
	if err := q.Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func all[T any](q *gorm.DB) ([]T, error) {
	var rows []T
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Users

func (g *Gorm) UserByID(id models.Identity) (*models.User, error) {
	return first[models.User](g.query().Where("id = ?", id))
}

func (g *Gorm) UserByName(name string) (*models.User, error) {
	return first[models.User](g.query().Where("name = ?", name))
}

func (g *Gorm) InsertUser(u *models.User) error {
	return wrap("insert user", g.tx.Create(u).Error)
}

func (g *Gorm) UpdateUser(u *models.User) error {
	return wrap("update user", g.tx.Model(u).Select("name", "display_name", "online").Updates(u).Error)
}

// Relations

func (g *Gorm) Friend(key models.Key) (*models.Friend, error) {
	return first[models.Friend](g.query().Where("hash = ?", key))
}

func (g *Gorm) InsertFriend(f *models.Friend) error {
	return wrap("insert friend", g.tx.Create(f).Error)
}

func (g *Gorm) DeleteFriend(key models.Key) error {
	return wrap("delete friend", g.tx.Where("hash = ?", key).Delete(&models.Friend{}).Error)
}

func (g *Gorm) FriendsOf(id models.Identity) ([]models.Friend, error) {
	return all[models.Friend](g.tx.Where("user_a = ? OR user_b = ?", id, id))
}

func (g *Gorm) FriendRequest(key models.Key) (*models.FriendRequest, error) {
	return first[models.FriendRequest](g.query().Where("hash = ?", key))
}

func (g *Gorm) InsertFriendRequest(r *models.FriendRequest) error {
	return wrap("insert friend request", g.tx.Create(r).Error)
}

func (g *Gorm) DeleteFriendRequest(key models.Key) error {
	return wrap("delete friend request", g.tx.Where("hash = ?", key).Delete(&models.FriendRequest{}).Error)
}

func (g *Gorm) FriendRequestsOf(id models.Identity) ([]models.FriendRequest, error) {
	return all[models.FriendRequest](g.tx.Where("user_a = ? OR user_b = ?", id, id).Order("created_at"))
}

// Channels

func (g *Gorm) ChannelByID(id int64) (*models.Channel, error) {
	return first[models.Channel](g.query().Where("id = ?", id))
}

func (g *Gorm) ChannelByName(name string) (*models.Channel, error) {
	return first[models.Channel](g.query().Where("name = ?", name))
}

func (g *Gorm) InsertChannel(c *models.Channel) error {
	return wrap("insert channel", g.tx.Create(c).Error)
}

func (g *Gorm) UpdateChannelOwner(channelID int64, owner models.Identity) error {
	return wrap("update channel owner",
		g.tx.Model(&models.Channel{}).Where("id = ?", channelID).Update("owner", owner).Error)
}

func (g *Gorm) DeleteChannel(channelID int64) error {
	return wrap("delete channel", g.tx.Where("id = ?", channelID).Delete(&models.Channel{}).Error)
}

func (g *Gorm) Member(key models.Key) (*models.Member, error) {
	return first[models.Member](g.query().Where("hash = ?", key))
}

func (g *Gorm) InsertMember(m *models.Member) error {
	return wrap("insert member", g.tx.Create(m).Error)
}

func (g *Gorm) DeleteMember(key models.Key) error {
	return wrap("delete member", g.tx.Where("hash = ?", key).Delete(&models.Member{}).Error)
}

func (g *Gorm) DeleteMembersOf(channelID int64) error {
	return wrap("delete members", g.tx.Where("channel_id = ?", channelID).Delete(&models.Member{}).Error)
}

func (g *Gorm) CountMembers(channelID int64) (int64, error) {
	var n int64
	err := g.tx.Model(&models.Member{}).Where("channel_id = ?", channelID).Count(&n).Error
	return n, wrap("count members", err)
}

func (g *Gorm) MembersOf(channelID int64) ([]models.Member, error) {
	return all[models.Member](g.tx.Where("channel_id = ?", channelID))
}

func (g *Gorm) InsertMessage(m *models.Message) error {
	return wrap("insert message", g.tx.Create(m).Error)
}

func (g *Gorm) DeleteMessagesOf(channelID int64) error {
	return wrap("delete messages", g.tx.Where("channel_id = ?", channelID).Delete(&models.Message{}).Error)
}

func (g *Gorm) MessagesOf(channelID, afterID int64, limit int) ([]models.Message, error) {
	return all[models.Message](g.tx.Where("channel_id = ? AND id > ?", channelID, afterID).Order("id").Limit(limit))
}

// Guilds

func (g *Gorm) GuildByID(id int64) (*models.Guild, error) {
	return first[models.Guild](g.query().Where("id = ?", id))
}

func (g *Gorm) InsertGuild(guild *models.Guild) error {
	return wrap("insert guild", g.tx.Create(guild).Error)
}

func (g *Gorm) GuildMember(user models.Identity, guildID int64) (*models.GuildMember, error) {
	return first[models.GuildMember](g.query().Where("user_id = ? AND guild_id = ?", user, guildID))
}

func (g *Gorm) InsertGuildMember(m *models.GuildMember) error {
	return wrap("insert guild member", g.tx.Create(m).Error)
}

func (g *Gorm) DeleteGuildMember(user models.Identity, guildID int64) error {
	return wrap("delete guild member",
		g.tx.Where("user_id = ? AND guild_id = ?", user, guildID).Delete(&models.GuildMember{}).Error)
}

func (g *Gorm) GuildMembersOf(guildID int64) ([]models.GuildMember, error) {
	return all[models.GuildMember](g.tx.Where("guild_id = ?", guildID))
}

func (g *Gorm) GuildChannelByID(id int64) (*models.GuildChannel, error) {
	return first[models.GuildChannel](g.query().Where("id = ?", id))
}

func (g *Gorm) InsertGuildChannel(c *models.GuildChannel) error {
	return wrap("insert guild channel", g.tx.Create(c).Error)
}

func (g *Gorm) DeleteGuildChannel(id int64) error {
	return wrap("delete guild channel", g.tx.Where("id = ?", id).Delete(&models.GuildChannel{}).Error)
}

func (g *Gorm) GuildChannelsOf(guildID int64) ([]models.GuildChannel, error) {
	return all[models.GuildChannel](g.tx.Where("guild_id = ?", guildID).Order("id"))
}

func (g *Gorm) InsertGuildMessage(m *models.GuildMessage) error {
	return wrap("insert guild message", g.tx.Create(m).Error)
}

func (g *Gorm) DeleteGuildMessagesOf(channelID int64) error {
	return wrap("delete guild messages",
		g.tx.Where("channel_id = ?", channelID).Delete(&models.GuildMessage{}).Error)
}

func (g *Gorm) GuildMessagesOf(channelID, afterID int64, limit int) ([]models.GuildMessage, error) {
	return all[models.GuildMessage](g.tx.Where("channel_id = ? AND id > ?", channelID, afterID).Order("id").Limit(limit))
}

// Roles

func (g *Gorm) RoleByID(id int64) (*models.GuildRole, error) {
	return first[models.GuildRole](g.query().Where("id = ?", id))
}

func (g *Gorm) InsertRole(r *models.GuildRole) error {
	return wrap("insert role", g.tx.Create(r).Error)
}

func (g *Gorm) UpdateRole(r *models.GuildRole) error {
	return wrap("update role", g.tx.Model(r).Select("name", "color").Updates(r).Error)
}

func (g *Gorm) DeleteRole(id int64) error {
	return wrap("delete role", g.tx.Where("id = ?", id).Delete(&models.GuildRole{}).Error)
}

func (g *Gorm) RolesOf(guildID int64) ([]models.GuildRole, error) {
	return all[models.GuildRole](g.tx.Where("guild_id = ?", guildID).Order("id"))
}

func (g *Gorm) PermissionByID(id int64) (*models.GuildPermission, error) {
	return first[models.GuildPermission](g.query().Where("id = ?", id))
}

func (g *Gorm) RolePermission(roleID int64, p models.Permission) (*models.GuildPermission, error) {
	return first[models.GuildPermission](
		g.query().Where("role_id = ? AND kind = ? AND channel_id = ?", roleID, p.Kind, p.ChannelID))
}

// PermissionsOf is read by the permission resolver once per held role.
func (g *Gorm) PermissionsOf(roleID int64) ([]models.GuildPermission, error) {
	return all[models.GuildPermission](g.resolver().Where("role_id = ?", roleID).Order("id"))
}

func (g *Gorm) InsertPermission(p *models.GuildPermission) error {
	return wrap("insert permission", g.tx.Create(p).Error)
}

func (g *Gorm) DeletePermission(id int64) error {
	return wrap("delete permission", g.tx.Where("id = ?", id).Delete(&models.GuildPermission{}).Error)
}

func (g *Gorm) DeletePermissionsOf(roleID int64) error {
	return wrap("delete role permissions",
		g.tx.Where("role_id = ?", roleID).Delete(&models.GuildPermission{}).Error)
}

func (g *Gorm) DeletePermissionsOnChannel(channelID int64) error {
	return wrap("delete channel permissions",
		g.tx.Where("channel_id = ?", channelID).Delete(&models.GuildPermission{}).Error)
}

func (g *Gorm) MemberRole(user models.Identity, roleID int64) (*models.GuildMemberRole, error) {
	return first[models.GuildMemberRole](g.query().Where("user_id = ? AND role_id = ?", user, roleID))
}

// RolesHeldBy is read by the permission resolver; it walks the
// (user_id, role_id) primary key from the user side.
func (g *Gorm) RolesHeldBy(user models.Identity, guildID int64) ([]models.GuildMemberRole, error) {
	return all[models.GuildMemberRole](g.resolver().Where("user_id = ? AND guild_id = ?", user, guildID).Order("role_id"))
}

func (g *Gorm) InsertMemberRole(r *models.GuildMemberRole) error {
	return wrap("insert member role", g.tx.Create(r).Error)
}

func (g *Gorm) DeleteMemberRole(user models.Identity, roleID int64) error {
	return wrap("delete member role",
		g.tx.Where("user_id = ? AND role_id = ?", user, roleID).Delete(&models.GuildMemberRole{}).Error)
}

func (g *Gorm) DeleteMemberRolesOf(roleID int64) error {
	return wrap("delete role assignments",
		g.tx.Where("role_id = ?", roleID).Delete(&models.GuildMemberRole{}).Error)
}

func (g *Gorm) DeleteMemberRolesIn(user models.Identity, guildID int64) error {
	return wrap("delete member roles",
		g.tx.Where("user_id = ? AND guild_id = ?", user, guildID).Delete(&models.GuildMemberRole{}).Error)
}

var _ Tables = (*Gorm)(nil)
