package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/relationsdb/internal/services"
)

// FriendHandler handles friendship routes
type FriendHandler struct {
	Hosts
}

// ListFriends handles GET /api/friends
// @Summary List friends
// @Tags Friends
// @Produce json
// @Success 200 {array} services.Contact
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /friends [get]
func (h *FriendHandler) ListFriends(c *fiber.Ctx) error {
	var friends []services.Contact
	err := run(c, h.reads(), "list_friends", func(call *services.Call) (err error) {
		friends, err = services.ListFriends(call)
		return err
	})
	if err != nil {
		return commandError(c, "list_friends", err)
	}
	return c.Status(fiber.StatusOK).JSON(friends)
}

// ListRequests handles GET /api/friends/requests
// @Summary List pending friend requests
// @Tags Friends
// @Produce json
// @Success 200 {array} services.PendingRequest
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /friends/requests [get]
func (h *FriendHandler) ListRequests(c *fiber.Ctx) error {
	var requests []services.PendingRequest
	err := run(c, h.reads(), "list_friend_requests", func(call *services.Call) (err error) {
		requests, err = services.ListFriendRequests(call)
		return err
	})
	if err != nil {
		return commandError(c, "list_friend_requests", err)
	}
	return c.Status(fiber.StatusOK).JSON(requests)
}

// Request handles POST /api/friends/requests/:user
// @Summary Request friendship
// @Tags Friends
// @Produce json
// @Param user path string true "User name"
// @Success 201 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /friends/requests/{user} [post]
func (h *FriendHandler) Request(c *fiber.Ctx) error {
	err := run(c, h.Commands, "request_friendship", func(call *services.Call) error {
		return services.RequestFriendship(call, c.Params("user"))
	})
	return respond(c, "request_friendship", err, fiber.StatusCreated, nil)
}

// Accept handles POST /api/friends/requests/:user/accept
// @Summary Accept a friend request
// @Tags Friends
// @Produce json
// @Param user path string true "Requesting user name"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /friends/requests/{user}/accept [post]
func (h *FriendHandler) Accept(c *fiber.Ctx) error {
	err := run(c, h.Commands, "accept_friendship", func(call *services.Call) error {
		return services.AcceptFriendship(call, c.Params("user"))
	})
	return respond(c, "accept_friendship", err, fiber.StatusOK, nil)
}

// Decline handles DELETE /api/friends/requests/:user
// @Summary Decline or withdraw a friend request
// @Tags Friends
// @Produce json
// @Param user path string true "User name"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /friends/requests/{user} [delete]
func (h *FriendHandler) Decline(c *fiber.Ctx) error {
	err := run(c, h.Commands, "decline_friendship", func(call *services.Call) error {
		return services.DeclineFriendship(call, c.Params("user"))
	})
	return respond(c, "decline_friendship", err, fiber.StatusOK, nil)
}

// Remove handles DELETE /api/friends/:user
// @Summary Remove a friend
// @Tags Friends
// @Produce json
// @Param user path string true "User name"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /friends/{user} [delete]
func (h *FriendHandler) Remove(c *fiber.Ctx) error {
	err := run(c, h.Commands, "remove_friend", func(call *services.Call) error {
		return services.RemoveFriend(call, c.Params("user"))
	})
	return respond(c, "remove_friend", err, fiber.StatusOK, nil)
}
