package services_test

import (
	"testing"

	"github.com/localnerve/relationsdb/internal/models"
	"github.com/localnerve/relationsdb/internal/services"
	"github.com/localnerve/relationsdb/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChannelFailures(t *testing.T) {
	e := newEnv(t)

	err := e.as("alice", func(c *services.Call) error {
		_, err := services.CreateChannel(c, "general")
		return err
	})
	assert.True(t, services.IsKind(err, services.KindNotRegistered), "got %v", err)

	e.register("alice", "bob")
	e.createChannel("alice", "general")

	err = e.as("bob", func(c *services.Call) error {
		_, err := services.CreateChannel(c, "general")
		return err
	})
	assert.ErrorIs(t, err, services.ErrChannelNameTaken)

	err = e.as("bob", func(c *services.Call) error {
		_, err := services.CreateChannel(c, "  ")
		return err
	})
	assert.ErrorIs(t, err, services.ErrInvalidChannelName)
	assert.EqualValues(t, 1, e.count(&models.Channel{}, "1 = 1"))
}

func TestAddMemberByMemberPolicy(t *testing.T) {
	e := newEnv(t)
	e.register("alice", "bob", "carol", "dave")
	e.createChannel("alice", "general")

	err := e.as("bob", func(c *services.Call) error { return services.AddMember(c, "general", "carol") })
	assert.ErrorIs(t, err, services.ErrNotChannelMember)

	require.NoError(t, e.as("alice", func(c *services.Call) error { return services.AddMember(c, "general", "bob") }))
	require.NoError(t, e.as("bob", func(c *services.Call) error { return services.AddMember(c, "general", "carol") }))

	err = e.as("bob", func(c *services.Call) error { return services.AddMember(c, "general", "carol") })
	assert.ErrorIs(t, err, services.ErrAlreadyChannelMember)

	err = e.as("bob", func(c *services.Call) error { return services.AddMember(c, "general", "nobody") })
	assert.ErrorIs(t, err, services.ErrUserNotFound)

	err = e.as("bob", func(c *services.Call) error { return services.AddMember(c, "missing", "dave") })
	assert.ErrorIs(t, err, services.ErrChannelNotFound)
}

func TestAddMemberByOwnerPolicy(t *testing.T) {
	e := newEnv(t)
	e.host.Policy = services.AddByOwner
	e.register("alice", "bob", "carol")
	e.createChannel("alice", "general")

	require.NoError(t, e.as("alice", func(c *services.Call) error { return services.AddMember(c, "general", "bob") }))
	err := e.as("bob", func(c *services.Call) error { return services.AddMember(c, "general", "carol") })
	assert.ErrorIs(t, err, services.ErrNotOwnerAdd)
	assert.True(t, services.IsKind(err, services.KindNotOwner))
}

func TestRemoveMemberRules(t *testing.T) {
	e := newEnv(t)
	e.register("alice", "bob", "carol")
	e.createChannel("alice", "general")
	for _, name := range []string{"bob", "carol"} {
		user := name
		require.NoError(t, e.as("alice", func(c *services.Call) error { return services.AddMember(c, "general", user) }))
	}

	err := e.as("bob", func(c *services.Call) error { return services.RemoveMember(c, "general", "carol") })
	assert.ErrorIs(t, err, services.ErrNotChannelOwner)

	require.NoError(t, e.as("bob", func(c *services.Call) error { return services.RemoveMember(c, "general", "bob") }))
	err = e.as("alice", func(c *services.Call) error { return services.RemoveMember(c, "general", "bob") })
	assert.ErrorIs(t, err, services.ErrTargetNotMember)

	err = e.as("mallory", func(c *services.Call) error { return services.RemoveMember(c, "general", "carol") })
	assert.ErrorIs(t, err, services.ErrNotRegistered)
	assert.EqualValues(t, 1, e.count(&models.Member{}, "user_id = ?", testutil.ID("carol")))
}

func TestTransferChannelOwnership(t *testing.T) {
	e := newEnv(t)
	e.register("alice", "bob", "carol")
	general := e.createChannel("alice", "general")
	require.NoError(t, e.as("alice", func(c *services.Call) error { return services.AddMember(c, "general", "bob") }))

	err := e.as("bob", func(c *services.Call) error { return services.TransferChannelOwnership(c, "general", "bob") })
	assert.ErrorIs(t, err, services.ErrNotOwnerTransfer)

	err = e.as("alice", func(c *services.Call) error { return services.TransferChannelOwnership(c, "general", "carol") })
	assert.ErrorIs(t, err, services.ErrTargetNotMember)

	require.NoError(t, e.as("alice", func(c *services.Call) error { return services.TransferChannelOwnership(c, "general", "bob") }))
	assert.Equal(t, testutil.ID("bob"), e.channel("general").Owner)

	require.NoError(t, e.as("alice", func(c *services.Call) error { return services.RemoveMember(c, "general", "alice") }))
	assert.EqualValues(t, 1, e.count(&models.Member{}, "channel_id = ?", general.ID))
	assert.NotNil(t, e.channel("general"))
}

func TestListChannelMembers(t *testing.T) {
	e := newEnv(t)
	e.register("alice", "bob", "carol")
	e.createChannel("alice", "general")
	require.NoError(t, e.as("alice", func(c *services.Call) error { return services.AddMember(c, "general", "bob") }))

	var members []services.Contact
	require.NoError(t, e.as("bob", func(c *services.Call) (err error) {
		members, err = services.ListChannelMembers(c, "general")
		return err
	}))
	names := []string{}
	for _, m := range members {
		names = append(names, m.Name)
	}
	assert.ElementsMatch(t, []string{"alice", "bob"}, names)

	err := e.as("carol", func(c *services.Call) error {
		_, err := services.ListChannelMembers(c, "general")
		return err
	})
	assert.ErrorIs(t, err, services.ErrNotChannelMember)
}
