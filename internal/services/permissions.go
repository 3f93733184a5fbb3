// permissions.go
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
)

type grant struct {
	user       models.Identity
	permission models.Permission
}

// forgetGrants drops memoized permission results after a role, permission
// or assignment changes inside the same call.
func (c *Call) forgetGrants() {
	c.grants = nil
}

// resolve answers whether user holds p. The guild owner holds every
// permission; anyone else needs a role carrying exactly p. Results are
// memoized for the life of the call.
func resolve(c *Call, user models.Identity, p models.Permission) (bool, error) {
	key := grant{user: user, permission: p}
	if allowed, ok := c.grants[key]; ok {
		return allowed, nil
	}

	channel, err := guildChannelByID(c, p.ChannelID)
	if err != nil {
		return false, err
	}
	guild, err := c.Tables.GuildByID(channel.GuildID)
	if err != nil {
		return false, err
	}
	if guild == nil {
		return false, ErrGuildNotFound
	}

	allowed := guild.Owner == user
	if !allowed {
		allowed, err = roleGrants(c, user, guild.ID, p)
		if err != nil {
			return false, err
		}
	}

	if c.grants == nil {
		c.grants = make(map[grant]bool)
	}
	c.grants[key] = allowed
	return allowed, nil
}

// roleGrants scans the user's roles in the guild and stops at the first
// permission equal to p.
func roleGrants(c *Call, user models.Identity, guildID int64, p models.Permission) (bool, error) {
	held, err := c.Tables.RolesHeldBy(user, guildID)
	if err != nil {
		return false, err
	}
	for _, assignment := range held {
		permissions, err := c.Tables.PermissionsOf(assignment.RoleID)
		if err != nil {
			return false, err
		}
		for _, gp := range permissions {
			if gp.Permission == p {
				return true, nil
			}
		}
	}
	return false, nil
}

// CanWrite fails with ErrPermissionDenied unless user may write to the guild channel.
func CanWrite(c *Call, user models.Identity, channelID int64) error {
	return requirePermission(c, user, models.Write(channelID))
}

// CanRead fails with ErrPermissionDenied unless user may read the guild channel.
func CanRead(c *Call, user models.Identity, channelID int64) error {
	return requirePermission(c, user, models.Read(channelID))
}

func requirePermission(c *Call, user models.Identity, p models.Permission) error {
	allowed, err := resolve(c, user, p)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrPermissionDenied
	}
	return nil
}

// ownedRole resolves role -> guild and rejects with notOwner unless the
// caller owns the guild.
func ownedRole(c *Call, roleID int64, notOwner error) (*models.GuildRole, error) {
	role, err := c.Tables.Locked().RoleByID(roleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}
	if _, err := ownedGuild(c, role.GuildID, notOwner); err != nil {
		return nil, err
	}
	return role, nil
}

func validColor(color uint32) bool {
	return color < models.MaxRoleColor
}

// CreateRole adds a role to a guild the caller owns.
func CreateRole(c *Call, guildID int64, name string, color uint32) (*models.GuildRole, error) {
	guild, err := ownedGuild(c, guildID, ErrNotGuildOwner)
	if err != nil {
		return nil, err
	}
	if !c.Validator.ValidName(name) {
		return nil, ErrInvalidName
	}
	if !validColor(color) {
		return nil, ErrInvalidColor
	}

	role := &models.GuildRole{GuildID: guild.ID, Name: name, Color: color}
	if err := c.Tables.InsertRole(role); err != nil {
		return nil, err
	}
	return role, nil
}

// SetRoleName renames a role.
func SetRoleName(c *Call, roleID int64, name string) error {
	role, err := ownedRole(c, roleID, ErrNotOwnerRoleName)
	if err != nil {
		return err
	}
	if !c.Validator.ValidName(name) {
		return ErrInvalidName
	}
	role.Name = name
	return c.Tables.UpdateRole(role)
}

// SetRoleColor recolors a role.
func SetRoleColor(c *Call, roleID int64, color uint32) error {
	role, err := ownedRole(c, roleID, ErrNotOwnerRoleColor)
	if err != nil {
		return err
	}
	if !validColor(color) {
		return ErrInvalidColor
	}
	role.Color = color
	return c.Tables.UpdateRole(role)
}

// RemoveRole deletes a role, its permissions and its assignments.
func RemoveRole(c *Call, roleID int64) error {
	role, err := ownedRole(c, roleID, ErrNotOwnerRemoveRole)
	if err != nil {
		return err
	}
	if err := c.Tables.DeletePermissionsOf(role.ID); err != nil {
		return err
	}
	if err := c.Tables.DeleteMemberRolesOf(role.ID); err != nil {
		return err
	}
	c.forgetGrants()
	return c.Tables.DeleteRole(role.ID)
}

// AddPermission attaches p to a role. p must name a channel of the role's guild.
func AddPermission(c *Call, roleID int64, p models.Permission) (*models.GuildPermission, error) {
	role, err := ownedRole(c, roleID, ErrNotOwnerAddPerm)
	if err != nil {
		return nil, err
	}
	return addPermission(c, role, p)
}

// AddPermissions attaches several permissions to a role; any failure rejects all of them.
func AddPermissions(c *Call, roleID int64, ps []models.Permission) ([]models.GuildPermission, error) {
	role, err := ownedRole(c, roleID, ErrNotOwnerAddPerm)
	if err != nil {
		return nil, err
	}
	added := make([]models.GuildPermission, 0, len(ps))
	for _, p := range ps {
		gp, err := addPermission(c, role, p)
		if err != nil {
			return nil, err
		}
		added = append(added, *gp)
	}
	return added, nil
}

func addPermission(c *Call, role *models.GuildRole, p models.Permission) (*models.GuildPermission, error) {
	if !p.Valid() {
		return nil, ErrInvalidPermission
	}
	channel, err := guildChannelByID(c, p.ChannelID)
	if err != nil {
		return nil, err
	}
	if channel.GuildID != role.GuildID {
		return nil, ErrGuildChannelNotFound
	}
	existing, err := c.Tables.RolePermission(role.ID, p)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicatePermission
	}

	gp := &models.GuildPermission{RoleID: role.ID, Permission: p}
	if err := c.Tables.InsertPermission(gp); err != nil {
		return nil, raced(err, ErrDuplicatePermission)
	}
	c.forgetGrants()
	return gp, nil
}

// RemovePermission detaches a permission from its role.
func RemovePermission(c *Call, permissionID int64) error {
	gp, err := c.Tables.PermissionByID(permissionID)
	if err != nil {
		return err
	}
	if gp == nil {
		return ErrPermissionNotFound
	}
	if _, err := ownedRole(c, gp.RoleID, ErrNotOwnerRemovePerm); err != nil {
		return err
	}
	c.forgetGrants()
	return c.Tables.DeletePermission(gp.ID)
}

// AddRoleToUser assigns a role to a member of the role's guild.
func AddRoleToUser(c *Call, roleID int64, userName string) error {
	role, err := ownedRole(c, roleID, ErrNotOwnerAssignRole)
	if err != nil {
		return err
	}
	user, err := userNamed(c, userName)
	if err != nil {
		return err
	}
	member, err := guildMember(c, user.ID, role.GuildID)
	if err != nil {
		return err
	}
	if !member {
		return ErrTargetNotGuildMember
	}
	existing, err := c.Tables.MemberRole(user.ID, role.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrAlreadyAssigned
	}

	c.forgetGrants()
	return raced(c.Tables.InsertMemberRole(&models.GuildMemberRole{UserID: user.ID, RoleID: role.ID, GuildID: role.GuildID}), ErrAlreadyAssigned)
}

// RemoveRoleFromUser takes a role away from a user.
func RemoveRoleFromUser(c *Call, roleID int64, userName string) error {
	role, err := ownedRole(c, roleID, ErrNotOwnerUnassignRole)
	if err != nil {
		return err
	}
	user, err := userNamed(c, userName)
	if err != nil {
		return err
	}
	existing, err := c.Tables.MemberRole(user.ID, role.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotAssigned
	}

	c.forgetGrants()
	return c.Tables.DeleteMemberRole(user.ID, role.ID)
}

// ListRoles returns the roles of a guild the caller belongs to.
func ListRoles(c *Call, guildID int64) ([]models.GuildRole, error) {
	guild, err := memberGuild(c, guildID)
	if err != nil {
		return nil, err
	}
	return c.Tables.RolesOf(guild.ID)
}

// ListRolePermissions returns the permissions of a role in a guild the caller belongs to.
func ListRolePermissions(c *Call, roleID int64) ([]models.GuildPermission, error) {
	role, err := c.Tables.RoleByID(roleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}
	if _, err := memberGuild(c, role.GuildID); err != nil {
		return nil, err
	}
	return c.Tables.PermissionsOf(role.ID)
}
