package services_test

import (
	"strings"
	"testing"
	"time"

	"github.com/localnerve/relationsdb/internal/models"
	"github.com/localnerve/relationsdb/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	e := newEnv(t)
	e.register("alice", "bob")
	e.createChannel("alice", "general")

	var msg *models.Message
	require.NoError(t, e.as("alice", func(c *services.Call) (err error) {
		msg, err = services.SendMessage(c, "hello\nworld", "general")
		return err
	}))
	assert.Equal(t, "alice", msg.Sender)
	assert.True(t, msg.Sent.Equal(e.clock.Now()))

	err := e.as("alice", func(c *services.Call) error {
		_, err := services.SendMessage(c, " \n ", "general")
		return err
	})
	assert.ErrorIs(t, err, services.ErrInvalidMessage)

	err = e.as("alice", func(c *services.Call) error {
		_, err := services.SendMessage(c, strings.Repeat("x", 2001), "general")
		return err
	})
	assert.ErrorIs(t, err, services.ErrInvalidMessage)

	err = e.as("bob", func(c *services.Call) error {
		_, err := services.SendMessage(c, "hi", "general")
		return err
	})
	assert.ErrorIs(t, err, services.ErrNotChannelMember)

	err = e.as("alice", func(c *services.Call) error {
		_, err := services.SendMessage(c, "hi", "missing")
		return err
	})
	assert.ErrorIs(t, err, services.ErrChannelNotFound)
}

func TestListMessagesPages(t *testing.T) {
	e := newEnv(t)
	e.register("alice")
	e.createChannel("alice", "general")

	for _, text := range []string{"one", "two", "three", "four"} {
		body := text
		e.clock.Advance(time.Second)
		require.NoError(t, e.as("alice", func(c *services.Call) error {
			_, err := services.SendMessage(c, body, "general")
			return err
		}))
	}

	list := func(after int64, limit int) []models.Message {
		var msgs []models.Message
		require.NoError(t, e.as("alice", func(c *services.Call) (err error) {
			msgs, err = services.ListMessages(c, "general", after, limit)
			return err
		}))
		return msgs
	}

	first := list(0, 2)
	require.Len(t, first, 2)
	assert.Equal(t, "one", first[0].Text)
	assert.Equal(t, "two", first[1].Text)

	rest := list(first[1].ID, 0)
	require.Len(t, rest, 2)
	assert.Equal(t, "three", rest[0].Text)
	assert.True(t, rest[0].Sent.Before(rest[1].Sent))
}

func TestGuildMessages(t *testing.T) {
	e := newEnv(t)
	e.register("owner", "bob")
	guild, channels := e.createGuild("owner", "guild", "news")

	err := e.as("owner", func(c *services.Call) error {
		_, err := services.PostGuildMessage(c, channels[0].ID, "")
		return err
	})
	assert.ErrorIs(t, err, services.ErrInvalidMessage)

	require.NoError(t, e.as("owner", func(c *services.Call) error {
		_, err := services.PostGuildMessage(c, channels[0].ID, "news")
		return err
	}))

	require.NoError(t, e.as("bob", func(c *services.Call) error { return services.JoinGuild(c, guild.ID) }))
	err = e.as("bob", func(c *services.Call) error {
		_, err := services.ListGuildMessages(c, channels[0].ID, 0, 10)
		return err
	})
	assert.ErrorIs(t, err, services.ErrPermissionDenied)

	var msgs []models.GuildMessage
	require.NoError(t, e.as("owner", func(c *services.Call) (err error) {
		msgs, err = services.ListGuildMessages(c, channels[0].ID, 0, 10)
		return err
	}))
	require.Len(t, msgs, 1)
	assert.Equal(t, "owner", msgs[0].Sender)
}
