package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// Register mounts the relations API on router. Every route requires auth.
func Register(router fiber.Router, auth fiber.Handler, hosts Hosts) {
	users := &UserHandler{Hosts: hosts}
	channels := &ChannelHandler{Hosts: hosts}
	friends := &FriendHandler{Hosts: hosts}
	guilds := &GuildHandler{Hosts: hosts}
	roles := &RoleHandler{Hosts: hosts}

	router.Use(auth)

	// Identity
	router.Get("/users/me", users.GetMe)
	router.Post("/users/name", users.SetName)
	router.Post("/users/display-name", users.SetDisplayName)
	router.Post("/session/connect", users.Connect)
	router.Post("/session/disconnect", users.Disconnect)

	// Named channels
	router.Post("/channels", channels.CreateChannel)
	router.Post("/channels/:channel/messages", channels.SendMessage)
	router.Get("/channels/:channel/messages", channels.ListMessages)
	router.Get("/channels/:channel/members", channels.ListMembers)
	router.Post("/channels/:channel/members/:user", channels.AddMember)
	router.Delete("/channels/:channel/members/:user", channels.RemoveMember)
	router.Post("/channels/:channel/owner", channels.TransferOwnership)

	// Friends
	router.Get("/friends", friends.ListFriends)
	router.Get("/friends/requests", friends.ListRequests)
	router.Post("/friends/requests/:user", friends.Request)
	router.Post("/friends/requests/:user/accept", friends.Accept)
	router.Delete("/friends/requests/:user", friends.Decline)
	router.Delete("/friends/:user", friends.Remove)

	// Guilds
	router.Post("/guilds", guilds.CreateGuild)
	router.Post("/guilds/:guild/join", guilds.JoinGuild)
	router.Delete("/guilds/:guild/members/me", guilds.LeaveGuild)
	router.Get("/guilds/:guild/members", guilds.ListMembers)
	router.Get("/guilds/:guild/channels", guilds.ListChannels)
	router.Post("/guilds/:guild/channels", guilds.CreateChannel)
	router.Delete("/guild-channels/:channel", guilds.DeleteChannel)
	router.Post("/guild-channels/:channel/messages", guilds.PostMessage)
	router.Get("/guild-channels/:channel/messages", guilds.ListMessages)

	// Roles and permissions
	router.Get("/guilds/:guild/roles", roles.ListRoles)
	router.Post("/guilds/:guild/roles", roles.CreateRole)
	router.Patch("/roles/:role", roles.UpdateRole)
	router.Delete("/roles/:role", roles.RemoveRole)
	router.Get("/roles/:role/permissions", roles.ListPermissions)
	router.Post("/roles/:role/permissions", roles.AddPermissions)
	router.Delete("/permissions/:permission", roles.RemovePermission)
	router.Post("/roles/:role/users/:user", roles.AssignRole)
	router.Delete("/roles/:role/users/:user", roles.UnassignRole)
}
