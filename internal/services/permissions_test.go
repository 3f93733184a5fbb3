package services_test

import (
	"testing"

	"github.com/localnerve/relationsdb/internal/models"
	"github.com/localnerve/relationsdb/internal/services"
	"github.com/localnerve/relationsdb/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerBypass(t *testing.T) {
	e := newEnv(t)
	e.register("owner")
	_, channels := e.createGuild("owner", "guild", "news")

	require.NoError(t, e.as("owner", func(c *services.Call) error {
		if err := services.CanRead(c, c.Sender, channels[0].ID); err != nil {
			return err
		}
		return services.CanWrite(c, c.Sender, channels[0].ID)
	}))
}

func TestReadAndWriteAreDistinct(t *testing.T) {
	e := newEnv(t)
	e.register("owner", "carol")
	guild, channels := e.createGuild("owner", "guild", "news")
	news := channels[0]
	role := e.createRole("owner", guild.ID, "reader", models.Read(news.ID))
	require.NoError(t, e.as("carol", func(c *services.Call) error { return services.JoinGuild(c, guild.ID) }))
	require.NoError(t, e.as("owner", func(c *services.Call) error { return services.AddRoleToUser(c, role.ID, "carol") }))

	require.NoError(t, e.as("carol", func(c *services.Call) error {
		_, err := services.ListGuildMessages(c, news.ID, 0, 0)
		return err
	}))
	err := e.as("carol", func(c *services.Call) error {
		_, err := services.PostGuildMessage(c, news.ID, "hi")
		return err
	})
	assert.ErrorIs(t, err, services.ErrPermissionDenied)
}

func TestGrantsForgottenAfterMutation(t *testing.T) {
	e := newEnv(t)
	e.register("owner", "carol")
	guild, channels := e.createGuild("owner", "guild", "news")
	news := channels[0]
	role := e.createRole("owner", guild.ID, "writer", models.Write(news.ID))
	require.NoError(t, e.as("carol", func(c *services.Call) error { return services.JoinGuild(c, guild.ID) }))

	carol := testutil.ID("carol")
	require.NoError(t, e.as("owner", func(c *services.Call) error {
		assert.ErrorIs(t, services.CanWrite(c, carol, news.ID), services.ErrPermissionDenied)
		if err := services.AddRoleToUser(c, role.ID, "carol"); err != nil {
			return err
		}
		assert.NoError(t, services.CanWrite(c, carol, news.ID))
		if err := services.RemoveRoleFromUser(c, role.ID, "carol"); err != nil {
			return err
		}
		assert.ErrorIs(t, services.CanWrite(c, carol, news.ID), services.ErrPermissionDenied)
		return nil
	}))
}

func TestCanWriteUnknownChannel(t *testing.T) {
	e := newEnv(t)
	e.register("owner")

	err := e.as("owner", func(c *services.Call) error { return services.CanWrite(c, c.Sender, 42) })
	assert.ErrorIs(t, err, services.ErrGuildChannelNotFound)
}

func TestRoleMutationsOwnerOnly(t *testing.T) {
	e := newEnv(t)
	e.register("owner", "bob")
	guild, channels := e.createGuild("owner", "guild", "news")
	role := e.createRole("owner", guild.ID, "mod", models.Read(channels[0].ID))
	require.NoError(t, e.as("bob", func(c *services.Call) error { return services.JoinGuild(c, guild.ID) }))

	cases := map[error]func(*services.Call) error{
		services.ErrNotGuildOwner: func(c *services.Call) error {
			_, err := services.CreateRole(c, guild.ID, "mine", 0)
			return err
		},
		services.ErrNotOwnerRoleName:   func(c *services.Call) error { return services.SetRoleName(c, role.ID, "mine") },
		services.ErrNotOwnerRoleColor:  func(c *services.Call) error { return services.SetRoleColor(c, role.ID, 1) },
		services.ErrNotOwnerRemoveRole: func(c *services.Call) error { return services.RemoveRole(c, role.ID) },
		services.ErrNotOwnerAddPerm: func(c *services.Call) error {
			_, err := services.AddPermission(c, role.ID, models.Write(channels[0].ID))
			return err
		},
		services.ErrNotOwnerAssignRole:   func(c *services.Call) error { return services.AddRoleToUser(c, role.ID, "bob") },
		services.ErrNotOwnerUnassignRole: func(c *services.Call) error { return services.RemoveRoleFromUser(c, role.ID, "bob") },
	}
	for want, fn := range cases {
		err := e.as("bob", fn)
		assert.ErrorIs(t, err, want)
		assert.True(t, services.IsKind(err, services.KindNotOwner))
	}
}

func TestRoleColorAndName(t *testing.T) {
	e := newEnv(t)
	e.register("owner")
	guild, _ := e.createGuild("owner", "guild")

	err := e.as("owner", func(c *services.Call) error {
		_, err := services.CreateRole(c, guild.ID, "big", models.MaxRoleColor)
		return err
	})
	assert.ErrorIs(t, err, services.ErrInvalidColor)

	role := e.createRole("owner", guild.ID, "mod")
	require.NoError(t, e.as("owner", func(c *services.Call) error {
		if err := services.SetRoleName(c, role.ID, "moderator"); err != nil {
			return err
		}
		return services.SetRoleColor(c, role.ID, models.MaxRoleColor-1)
	}))

	var roles []models.GuildRole
	require.NoError(t, e.db.Where("id = ?", role.ID).Find(&roles).Error)
	require.Len(t, roles, 1)
	assert.Equal(t, "moderator", roles[0].Name)
	assert.EqualValues(t, models.MaxRoleColor-1, roles[0].Color)

	err = e.as("owner", func(c *services.Call) error { return services.SetRoleColor(c, role.ID, models.MaxRoleColor) })
	assert.ErrorIs(t, err, services.ErrInvalidColor)
	err = e.as("owner", func(c *services.Call) error { return services.SetRoleName(c, 999, "x") })
	assert.ErrorIs(t, err, services.ErrRoleNotFound)
}

func TestAddPermissionRules(t *testing.T) {
	e := newEnv(t)
	e.register("owner")
	guild, channels := e.createGuild("owner", "guild", "news")
	_, foreign := e.createGuild("owner", "elsewhere", "theirs")
	role := e.createRole("owner", guild.ID, "mod")

	add := func(p models.Permission) error {
		return e.as("owner", func(c *services.Call) error {
			_, err := services.AddPermission(c, role.ID, p)
			return err
		})
	}

	require.NoError(t, add(models.Write(channels[0].ID)))
	assert.ErrorIs(t, add(models.Write(channels[0].ID)), services.ErrDuplicatePermission)
	assert.ErrorIs(t, add(models.Permission{Kind: "admin", ChannelID: channels[0].ID}), services.ErrInvalidPermission)
	assert.ErrorIs(t, add(models.Read(foreign[0].ID)), services.ErrGuildChannelNotFound)
	assert.ErrorIs(t, add(models.Read(9999)), services.ErrGuildChannelNotFound)

	// a failing batch adds nothing
	err := e.as("owner", func(c *services.Call) error {
		_, err := services.AddPermissions(c, role.ID, []models.Permission{models.Read(channels[0].ID), models.Write(channels[0].ID)})
		return err
	})
	assert.ErrorIs(t, err, services.ErrDuplicatePermission)
	assert.EqualValues(t, 1, e.count(&models.GuildPermission{}, "role_id = ?", role.ID))
}

func TestRemovePermission(t *testing.T) {
	e := newEnv(t)
	e.register("owner")
	guild, channels := e.createGuild("owner", "guild", "news")
	role := e.createRole("owner", guild.ID, "mod")

	var gp *models.GuildPermission
	require.NoError(t, e.as("owner", func(c *services.Call) (err error) {
		gp, err = services.AddPermission(c, role.ID, models.Read(channels[0].ID))
		return err
	}))
	remove := func(c *services.Call) error { return services.RemovePermission(c, gp.ID) }
	require.NoError(t, e.as("owner", remove))
	assert.ErrorIs(t, e.as("owner", remove), services.ErrPermissionNotFound)

	var perms []models.GuildPermission
	require.NoError(t, e.as("owner", func(c *services.Call) (err error) {
		perms, err = services.ListRolePermissions(c, role.ID)
		return err
	}))
	assert.Empty(t, perms)
}

func TestRoleAssignment(t *testing.T) {
	e := newEnv(t)
	e.register("owner", "bob", "carol")
	guild, _ := e.createGuild("owner", "guild")
	role := e.createRole("owner", guild.ID, "mod")
	require.NoError(t, e.as("bob", func(c *services.Call) error { return services.JoinGuild(c, guild.ID) }))

	assign := func(name string) error {
		return e.as("owner", func(c *services.Call) error { return services.AddRoleToUser(c, role.ID, name) })
	}
	unassign := func(name string) error {
		return e.as("owner", func(c *services.Call) error { return services.RemoveRoleFromUser(c, role.ID, name) })
	}

	assert.ErrorIs(t, assign("carol"), services.ErrTargetNotGuildMember)
	assert.ErrorIs(t, assign("nobody"), services.ErrUserNotFound)
	require.NoError(t, assign("bob"))
	assert.ErrorIs(t, assign("bob"), services.ErrAlreadyAssigned)
	require.NoError(t, unassign("bob"))
	assert.ErrorIs(t, unassign("bob"), services.ErrNotAssigned)
}
