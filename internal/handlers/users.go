package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/relationsdb/internal/models"
	"github.com/localnerve/relationsdb/internal/services"
)

// UserHandler handles identity routes
type UserHandler struct {
	Hosts
}

type nameInput struct {
	Name string `json:"name"`
}

type displayNameInput struct {
	DisplayName string `json:"displayName"`
}

// GetMe handles GET /api/users/me
// @Summary Get the caller
// @Description Get the caller's registered user
// @Tags Users
// @Produce json
// @Success 200 {object} models.User
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	var me *models.User
	err := run(c, h.reads(), "me", func(call *services.Call) (err error) {
		me, err = services.Me(call)
		return err
	})
	if err != nil {
		return commandError(c, "me", err)
	}
	return c.Status(fiber.StatusOK).JSON(me)
}

// SetName handles POST /api/users/name
// @Summary Set the caller's name
// @Description Register the caller under a unique name, or rename them
// @Tags Users
// @Accept json
// @Produce json
// @Param body body nameInput true "Name"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /users/name [post]
func (h *UserHandler) SetName(c *fiber.Ctx) error {
	var body nameInput
	if err := c.BodyParser(&body); err != nil {
		return invalidInput("Invalid input")
	}

	err := run(c, h.Commands, "set_name", func(call *services.Call) error {
		return services.SetName(call, body.Name)
	})
	return respond(c, "set_name", err, fiber.StatusOK, nil)
}

// SetDisplayName handles POST /api/users/display-name
// @Summary Set the caller's display name
// @Tags Users
// @Accept json
// @Produce json
// @Param body body displayNameInput true "Display name"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /users/display-name [post]
func (h *UserHandler) SetDisplayName(c *fiber.Ctx) error {
	var body displayNameInput
	if err := c.BodyParser(&body); err != nil {
		return invalidInput("Invalid input")
	}

	err := run(c, h.Commands, "set_display_name", func(call *services.Call) error {
		return services.SetDisplayName(call, body.DisplayName)
	})
	return respond(c, "set_display_name", err, fiber.StatusOK, nil)
}

// Connect handles POST /api/session/connect
// @Summary Mark the caller online
// @Tags Users
// @Success 200 {object} utils.SuccessResponseStruct
// @Security CookieAuth
// @Router /session/connect [post]
func (h *UserHandler) Connect(c *fiber.Ctx) error {
	err := run(c, h.Commands, "on_connect", services.OnConnect)
	return respond(c, "on_connect", err, fiber.StatusOK, nil)
}

// Disconnect handles POST /api/session/disconnect
// @Summary Mark the caller offline
// @Tags Users
// @Success 200 {object} utils.SuccessResponseStruct
// @Security CookieAuth
// @Router /session/disconnect [post]
func (h *UserHandler) Disconnect(c *fiber.Ctx) error {
	err := run(c, h.Commands, "on_disconnect", services.OnDisconnect)
	return respond(c, "on_disconnect", err, fiber.StatusOK, nil)
}
