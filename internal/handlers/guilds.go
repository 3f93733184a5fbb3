package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/relationsdb/internal/models"
	"github.com/localnerve/relationsdb/internal/services"
)

// GuildHandler handles guild, guild channel and guild message routes
type GuildHandler struct {
	Hosts
}

// CreateGuild handles POST /api/guilds
// @Summary Create a guild
// @Tags Guilds
// @Accept json
// @Produce json
// @Param body body nameInput true "Guild name"
// @Success 201 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /guilds [post]
func (h *GuildHandler) CreateGuild(c *fiber.Ctx) error {
	var body nameInput
	if err := c.BodyParser(&body); err != nil {
		return invalidInput("Invalid input")
	}

	var guild *models.Guild
	err := run(c, h.Commands, "create_guild", func(call *services.Call) (err error) {
		guild, err = services.CreateGuild(call, body.Name)
		return err
	})
	return respond(c, "create_guild", err, fiber.StatusCreated, guild)
}

// JoinGuild handles POST /api/guilds/:guild/join
// @Summary Join a guild
// @Tags Guilds
// @Produce json
// @Param guild path int true "Guild id"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /guilds/{guild}/join [post]
func (h *GuildHandler) JoinGuild(c *fiber.Ctx) error {
	guildID, err := paramID(c, "guild")
	if err != nil {
		return err
	}

	err = run(c, h.Commands, "join_guild", func(call *services.Call) error {
		return services.JoinGuild(call, guildID)
	})
	return respond(c, "join_guild", err, fiber.StatusOK, nil)
}

// LeaveGuild handles DELETE /api/guilds/:guild/members/me
// @Summary Leave a guild
// @Description Leaving drops the caller's role assignments in the guild. The owner cannot leave.
// @Tags Guilds
// @Produce json
// @Param guild path int true "Guild id"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /guilds/{guild}/members/me [delete]
func (h *GuildHandler) LeaveGuild(c *fiber.Ctx) error {
	guildID, err := paramID(c, "guild")
	if err != nil {
		return err
	}

	err = run(c, h.Commands, "leave_guild", func(call *services.Call) error {
		return services.LeaveGuild(call, guildID)
	})
	return respond(c, "leave_guild", err, fiber.StatusOK, nil)
}

// ListMembers handles GET /api/guilds/:guild/members
// @Summary List guild members
// @Tags Guilds
// @Produce json
// @Param guild path int true "Guild id"
// @Success 200 {array} services.Contact
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /guilds/{guild}/members [get]
func (h *GuildHandler) ListMembers(c *fiber.Ctx) error {
	guildID, err := paramID(c, "guild")
	if err != nil {
		return err
	}

	var members []services.Contact
	err = run(c, h.reads(), "list_guild_members", func(call *services.Call) (err error) {
		members, err = services.ListGuildMembers(call, guildID)
		return err
	})
	if err != nil {
		return commandError(c, "list_guild_members", err)
	}
	return c.Status(fiber.StatusOK).JSON(members)
}

// ListChannels handles GET /api/guilds/:guild/channels
// @Summary List guild channels
// @Tags Guilds
// @Produce json
// @Param guild path int true "Guild id"
// @Success 200 {array} models.GuildChannel
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /guilds/{guild}/channels [get]
func (h *GuildHandler) ListChannels(c *fiber.Ctx) error {
	guildID, err := paramID(c, "guild")
	if err != nil {
		return err
	}

	var channels []models.GuildChannel
	err = run(c, h.reads(), "list_guild_channels", func(call *services.Call) (err error) {
		channels, err = services.ListGuildChannels(call, guildID)
		return err
	})
	if err != nil {
		return commandError(c, "list_guild_channels", err)
	}
	return c.Status(fiber.StatusOK).JSON(channels)
}

// CreateChannel handles POST /api/guilds/:guild/channels
// @Summary Create a guild channel
// @Tags Guilds
// @Accept json
// @Produce json
// @Param guild path int true "Guild id"
// @Param body body nameInput true "Channel name"
// @Success 201 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /guilds/{guild}/channels [post]
func (h *GuildHandler) CreateChannel(c *fiber.Ctx) error {
	guildID, err := paramID(c, "guild")
	if err != nil {
		return err
	}
	var body nameInput
	if err := c.BodyParser(&body); err != nil {
		return invalidInput("Invalid input")
	}

	var channel *models.GuildChannel
	err = run(c, h.Commands, "create_guild_channel", func(call *services.Call) (err error) {
		channel, err = services.CreateGuildChannel(call, guildID, body.Name)
		return err
	})
	return respond(c, "create_guild_channel", err, fiber.StatusCreated, channel)
}

// DeleteChannel handles DELETE /api/guild-channels/:channel
// @Summary Delete a guild channel
// @Description Deletes the channel with its messages and every permission naming it
// @Tags Guilds
// @Produce json
// @Param channel path int true "Guild channel id"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /guild-channels/{channel} [delete]
func (h *GuildHandler) DeleteChannel(c *fiber.Ctx) error {
	channelID, err := paramID(c, "channel")
	if err != nil {
		return err
	}

	err = run(c, h.Commands, "delete_guild_channel", func(call *services.Call) error {
		return services.DeleteGuildChannel(call, channelID)
	})
	return respond(c, "delete_guild_channel", err, fiber.StatusOK, nil)
}

// PostMessage handles POST /api/guild-channels/:channel/messages
// @Summary Post a guild message
// @Description Requires write permission on the channel
// @Tags Guilds
// @Accept json
// @Produce json
// @Param channel path int true "Guild channel id"
// @Param body body textInput true "Message text"
// @Success 201 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /guild-channels/{channel}/messages [post]
func (h *GuildHandler) PostMessage(c *fiber.Ctx) error {
	channelID, err := paramID(c, "channel")
	if err != nil {
		return err
	}
	var body textInput
	if err := c.BodyParser(&body); err != nil {
		return invalidInput("Invalid input")
	}

	var msg *models.GuildMessage
	err = run(c, h.Commands, "post_guild_message", func(call *services.Call) (err error) {
		msg, err = services.PostGuildMessage(call, channelID, body.Text)
		return err
	})
	return respond(c, "post_guild_message", err, fiber.StatusCreated, msg)
}

// ListMessages handles GET /api/guild-channels/:channel/messages
// @Summary List guild messages
// @Description Requires read permission on the channel
// @Tags Guilds
// @Produce json
// @Param channel path int true "Guild channel id"
// @Param after query int false "Return messages with ids after this one"
// @Param limit query int false "Page size"
// @Success 200 {array} models.GuildMessage
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /guild-channels/{channel}/messages [get]
func (h *GuildHandler) ListMessages(c *fiber.Ctx) error {
	channelID, err := paramID(c, "channel")
	if err != nil {
		return err
	}
	after, limit, err := page(c)
	if err != nil {
		return err
	}

	var msgs []models.GuildMessage
	err = run(c, h.reads(), "list_guild_messages", func(call *services.Call) (err error) {
		msgs, err = services.ListGuildMessages(call, channelID, after, limit)
		return err
	})
	if err != nil {
		return commandError(c, "list_guild_messages", err)
	}
	return c.Status(fiber.StatusOK).JSON(msgs)
}
