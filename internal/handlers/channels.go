package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/relationsdb/internal/models"
	"github.com/localnerve/relationsdb/internal/services"
)

// ChannelHandler handles named channel routes
type ChannelHandler struct {
	Hosts
}

type textInput struct {
	Text string `json:"text"`
}

type userInput struct {
	User string `json:"user"`
}

// CreateChannel handles POST /api/channels
// @Summary Create a channel
// @Description Create a channel owned by the caller, with the caller as its first member
// @Tags Channels
// @Accept json
// @Produce json
// @Param body body nameInput true "Channel name"
// @Success 201 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /channels [post]
func (h *ChannelHandler) CreateChannel(c *fiber.Ctx) error {
	var body nameInput
	if err := c.BodyParser(&body); err != nil {
		return invalidInput("Invalid input")
	}

	var channel *models.Channel
	err := run(c, h.Commands, "create_channel", func(call *services.Call) (err error) {
		channel, err = services.CreateChannel(call, body.Name)
		return err
	})
	return respond(c, "create_channel", err, fiber.StatusCreated, channel)
}

// SendMessage handles POST /api/channels/:channel/messages
// @Summary Send a message
// @Tags Channels
// @Accept json
// @Produce json
// @Param channel path string true "Channel name"
// @Param body body textInput true "Message text"
// @Success 201 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /channels/{channel}/messages [post]
func (h *ChannelHandler) SendMessage(c *fiber.Ctx) error {
	var body textInput
	if err := c.BodyParser(&body); err != nil {
		return invalidInput("Invalid input")
	}

	var msg *models.Message
	err := run(c, h.Commands, "send_message", func(call *services.Call) (err error) {
		msg, err = services.SendMessage(call, body.Text, c.Params("channel"))
		return err
	})
	return respond(c, "send_message", err, fiber.StatusCreated, msg)
}

// ListMessages handles GET /api/channels/:channel/messages
// @Summary List channel messages
// @Description Page through a channel's log in id order
// @Tags Channels
// @Produce json
// @Param channel path string true "Channel name"
// @Param after query int false "Return messages with ids after this one"
// @Param limit query int false "Page size"
// @Success 200 {array} models.Message
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /channels/{channel}/messages [get]
func (h *ChannelHandler) ListMessages(c *fiber.Ctx) error {
	after, limit, err := page(c)
	if err != nil {
		return err
	}

	var msgs []models.Message
	err = run(c, h.reads(), "list_messages", func(call *services.Call) (err error) {
		msgs, err = services.ListMessages(call, c.Params("channel"), after, limit)
		return err
	})
	if err != nil {
		return commandError(c, "list_messages", err)
	}
	return c.Status(fiber.StatusOK).JSON(msgs)
}

// ListMembers handles GET /api/channels/:channel/members
// @Summary List channel members
// @Tags Channels
// @Produce json
// @Param channel path string true "Channel name"
// @Success 200 {array} services.Contact
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /channels/{channel}/members [get]
func (h *ChannelHandler) ListMembers(c *fiber.Ctx) error {
	var members []services.Contact
	err := run(c, h.reads(), "list_channel_members", func(call *services.Call) (err error) {
		members, err = services.ListChannelMembers(call, c.Params("channel"))
		return err
	})
	if err != nil {
		return commandError(c, "list_channel_members", err)
	}
	return c.Status(fiber.StatusOK).JSON(members)
}

// AddMember handles POST /api/channels/:channel/members/:user
// @Summary Add a user to a channel
// @Tags Channels
// @Produce json
// @Param channel path string true "Channel name"
// @Param user path string true "User name"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /channels/{channel}/members/{user} [post]
func (h *ChannelHandler) AddMember(c *fiber.Ctx) error {
	err := run(c, h.Commands, "add_member", func(call *services.Call) error {
		return services.AddMember(call, c.Params("channel"), c.Params("user"))
	})
	return respond(c, "add_member", err, fiber.StatusOK, nil)
}

// RemoveMember handles DELETE /api/channels/:channel/members/:user
// @Summary Remove a user from a channel
// @Description Owners remove anyone; members remove themselves. An owner leaving deletes a channel with no other members.
// @Tags Channels
// @Produce json
// @Param channel path string true "Channel name"
// @Param user path string true "User name"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /channels/{channel}/members/{user} [delete]
func (h *ChannelHandler) RemoveMember(c *fiber.Ctx) error {
	err := run(c, h.Commands, "remove_member", func(call *services.Call) error {
		return services.RemoveMember(call, c.Params("channel"), c.Params("user"))
	})
	return respond(c, "remove_member", err, fiber.StatusOK, nil)
}

// TransferOwnership handles POST /api/channels/:channel/owner
// @Summary Transfer channel ownership
// @Tags Channels
// @Accept json
// @Produce json
// @Param channel path string true "Channel name"
// @Param body body userInput true "New owner"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /channels/{channel}/owner [post]
func (h *ChannelHandler) TransferOwnership(c *fiber.Ctx) error {
	var body userInput
	if err := c.BodyParser(&body); err != nil {
		return invalidInput("Invalid input")
	}

	err := run(c, h.Commands, "transfer_channel_ownership", func(call *services.Call) error {
		return services.TransferChannelOwnership(call, c.Params("channel"), body.User)
	})
	return respond(c, "transfer_channel_ownership", err, fiber.StatusOK, nil)
}
