package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/relationsdb/internal/models"
	"github.com/localnerve/relationsdb/internal/services"
	"github.com/localnerve/relationsdb/internal/types"
)

// RoleHandler handles role, permission and role assignment routes
type RoleHandler struct {
	Hosts
}

type roleInput struct {
	Name  string           `json:"name"`
	Color types.FlexUint64 `json:"color"`
}

type rolePatchInput struct {
	Name  *string           `json:"name"`
	Color *types.FlexUint64 `json:"color"`
}

// PermissionInput is a permission in a request body
type PermissionInput struct {
	Kind    string           `json:"kind"`
	Channel types.FlexUint64 `json:"channel"`
}

// roleColor narrows a requested color; anything out of range stays out of range.
func roleColor(f types.FlexUint64) uint32 {
	return uint32(f.Clamp(models.MaxRoleColor))
}

func (p PermissionInput) permission() (models.Permission, bool) {
	channelID, ok := p.Channel.ID()
	perm := models.Permission{Kind: models.PermissionKind(p.Kind), ChannelID: channelID}
	return perm, ok && perm.Valid()
}

// CreateRole handles POST /api/guilds/:guild/roles
// @Summary Create a role
// @Description Owner only. Colors must fit in 30 bits.
// @Tags Roles
// @Accept json
// @Produce json
// @Param guild path int true "Guild id"
// @Param body body roleInput true "Role"
// @Success 201 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /guilds/{guild}/roles [post]
func (h *RoleHandler) CreateRole(c *fiber.Ctx) error {
	guildID, err := paramID(c, "guild")
	if err != nil {
		return err
	}
	var body roleInput
	if err := c.BodyParser(&body); err != nil {
		return invalidInput("Invalid input")
	}

	var role *models.GuildRole
	err = run(c, h.Commands, "create_role", func(call *services.Call) (err error) {
		role, err = services.CreateRole(call, guildID, body.Name, roleColor(body.Color))
		return err
	})
	return respond(c, "create_role", err, fiber.StatusCreated, role)
}

// ListRoles handles GET /api/guilds/:guild/roles
// @Summary List guild roles
// @Tags Roles
// @Produce json
// @Param guild path int true "Guild id"
// @Success 200 {array} models.GuildRole
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /guilds/{guild}/roles [get]
func (h *RoleHandler) ListRoles(c *fiber.Ctx) error {
	guildID, err := paramID(c, "guild")
	if err != nil {
		return err
	}

	var roles []models.GuildRole
	err = run(c, h.reads(), "list_roles", func(call *services.Call) (err error) {
		roles, err = services.ListRoles(call, guildID)
		return err
	})
	if err != nil {
		return commandError(c, "list_roles", err)
	}
	return c.Status(fiber.StatusOK).JSON(roles)
}

// UpdateRole handles PATCH /api/roles/:role
// @Summary Rename or recolor a role
// @Description Name and color are applied in one transaction; either may be omitted
// @Tags Roles
// @Accept json
// @Produce json
// @Param role path int true "Role id"
// @Param body body rolePatchInput true "Changes"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /roles/{role} [patch]
func (h *RoleHandler) UpdateRole(c *fiber.Ctx) error {
	roleID, err := paramID(c, "role")
	if err != nil {
		return err
	}
	var body rolePatchInput
	if err := c.BodyParser(&body); err != nil {
		return invalidInput("Invalid input")
	}
	if body.Name == nil && body.Color == nil {
		return invalidInput("Nothing to update")
	}

	err = run(c, h.Commands, "update_role", func(call *services.Call) error {
		if body.Name != nil {
			if err := services.SetRoleName(call, roleID, *body.Name); err != nil {
				return err
			}
		}
		if body.Color != nil {
			return services.SetRoleColor(call, roleID, roleColor(*body.Color))
		}
		return nil
	})
	return respond(c, "update_role", err, fiber.StatusOK, nil)
}

// RemoveRole handles DELETE /api/roles/:role
// @Summary Remove a role
// @Description Removes the role with its permissions and assignments
// @Tags Roles
// @Produce json
// @Param role path int true "Role id"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /roles/{role} [delete]
func (h *RoleHandler) RemoveRole(c *fiber.Ctx) error {
	roleID, err := paramID(c, "role")
	if err != nil {
		return err
	}

	err = run(c, h.Commands, "remove_role", func(call *services.Call) error {
		return services.RemoveRole(call, roleID)
	})
	return respond(c, "remove_role", err, fiber.StatusOK, nil)
}

// ListPermissions handles GET /api/roles/:role/permissions
// @Summary List role permissions
// @Tags Roles
// @Produce json
// @Param role path int true "Role id"
// @Success 200 {array} models.GuildPermission
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /roles/{role}/permissions [get]
func (h *RoleHandler) ListPermissions(c *fiber.Ctx) error {
	roleID, err := paramID(c, "role")
	if err != nil {
		return err
	}

	var perms []models.GuildPermission
	err = run(c, h.reads(), "list_role_permissions", func(call *services.Call) (err error) {
		perms, err = services.ListRolePermissions(call, roleID)
		return err
	})
	if err != nil {
		return commandError(c, "list_role_permissions", err)
	}
	return c.Status(fiber.StatusOK).JSON(perms)
}

// AddPermissions handles POST /api/roles/:role/permissions
// @Summary Grant permissions to a role
// @Description Accepts one permission object or an array; an array is granted all or nothing
// @Tags Roles
// @Accept json
// @Produce json
// @Param role path int true "Role id"
// @Param body body []PermissionInput true "Permissions"
// @Success 201 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /roles/{role}/permissions [post]
func (h *RoleHandler) AddPermissions(c *fiber.Ctx) error {
	roleID, err := paramID(c, "role")
	if err != nil {
		return err
	}
	var body types.FlexList[PermissionInput]
	if err := c.BodyParser(&body); err != nil || len(body) == 0 {
		return invalidInput("Invalid input")
	}

	perms := make([]models.Permission, 0, len(body))
	for _, in := range body.Slice() {
		p, ok := in.permission()
		if !ok {
			return commandError(c, "add_permission", services.ErrInvalidPermission)
		}
		perms = append(perms, p)
	}

	var granted []models.GuildPermission
	err = run(c, h.Commands, "add_permission", func(call *services.Call) (err error) {
		granted, err = services.AddPermissions(call, roleID, perms)
		return err
	})
	return respond(c, "add_permission", err, fiber.StatusCreated, granted)
}

// RemovePermission handles DELETE /api/permissions/:permission
// @Summary Revoke a permission
// @Tags Roles
// @Produce json
// @Param permission path int true "Permission id"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /permissions/{permission} [delete]
func (h *RoleHandler) RemovePermission(c *fiber.Ctx) error {
	permissionID, err := paramID(c, "permission")
	if err != nil {
		return err
	}

	err = run(c, h.Commands, "remove_permission", func(call *services.Call) error {
		return services.RemovePermission(call, permissionID)
	})
	return respond(c, "remove_permission", err, fiber.StatusOK, nil)
}

// AssignRole handles POST /api/roles/:role/users/:user
// @Summary Assign a role to a guild member
// @Tags Roles
// @Produce json
// @Param role path int true "Role id"
// @Param user path string true "User name"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /roles/{role}/users/{user} [post]
func (h *RoleHandler) AssignRole(c *fiber.Ctx) error {
	roleID, err := paramID(c, "role")
	if err != nil {
		return err
	}

	err = run(c, h.Commands, "add_role_to_user", func(call *services.Call) error {
		return services.AddRoleToUser(call, roleID, c.Params("user"))
	})
	return respond(c, "add_role_to_user", err, fiber.StatusOK, nil)
}

// UnassignRole handles DELETE /api/roles/:role/users/:user
// @Summary Take a role from a guild member
// @Tags Roles
// @Produce json
// @Param role path int true "Role id"
// @Param user path string true "User name"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /roles/{role}/users/{user} [delete]
func (h *RoleHandler) UnassignRole(c *fiber.Ctx) error {
	roleID, err := paramID(c, "role")
	if err != nil {
		return err
	}

	err = run(c, h.Commands, "remove_role_from_user", func(call *services.Call) error {
		return services.RemoveRoleFromUser(call, roleID, c.Params("user"))
	})
	return respond(c, "remove_role_from_user", err, fiber.StatusOK, nil)
}
