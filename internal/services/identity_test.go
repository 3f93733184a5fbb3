package services_test

import (
	"testing"
	"time"

	"github.com/localnerve/relationsdb/internal/models"
	"github.com/localnerve/relationsdb/internal/services"
	"github.com/localnerve/relationsdb/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func me(t *testing.T, e *env, subject string) *models.User {
	t.Helper()
	var user *models.User
	require.NoError(t, e.as(subject, func(c *services.Call) (err error) {
		user, err = services.Me(c)
		return err
	}))
	return user
}

func TestSetNameRegisters(t *testing.T) {
	e := newEnv(t)
	e.register("alice")

	user := me(t, e, "alice")
	assert.Equal(t, testutil.ID("alice"), user.ID)
	assert.Equal(t, "alice", user.Name)
	assert.Equal(t, "alice", user.DisplayName)
	assert.True(t, user.Online)
	assert.True(t, user.CreatedAt.Equal(e.clock.Now()))
}

func TestSetNameRenames(t *testing.T) {
	e := newEnv(t)
	e.register("alice")

	require.NoError(t, e.as("alice", func(c *services.Call) error {
		return services.SetName(c, "alicia")
	}))
	user := me(t, e, "alice")
	assert.Equal(t, "alicia", user.Name)
	assert.Equal(t, "alice", user.DisplayName)
	assert.EqualValues(t, 1, e.count(&models.User{}, "1 = 1"))
}

func TestSetNameFailures(t *testing.T) {
	e := newEnv(t)
	e.register("alice")

	err := e.as("bob", func(c *services.Call) error { return services.SetName(c, "alice") })
	assert.True(t, services.IsKind(err, services.KindNameTaken), "got %v", err)

	err = e.as("bob", func(c *services.Call) error { return services.SetName(c, "") })
	assert.True(t, services.IsKind(err, services.KindInvalidName), "got %v", err)

	err = e.as("bob", func(c *services.Call) error { return services.SetName(c, "bad\tname") })
	assert.True(t, services.IsKind(err, services.KindInvalidName), "got %v", err)

	assert.EqualValues(t, 1, e.count(&models.User{}, "1 = 1"))
}

func TestSetDisplayName(t *testing.T) {
	e := newEnv(t)
	e.register("alice", "bob")

	require.NoError(t, e.as("alice", func(c *services.Call) error { return services.SetDisplayName(c, "Same") }))
	require.NoError(t, e.as("bob", func(c *services.Call) error { return services.SetDisplayName(c, "Same") }))
	assert.Equal(t, "Same", me(t, e, "alice").DisplayName)
	assert.Equal(t, "Same", me(t, e, "bob").DisplayName)

	err := e.as("carol", func(c *services.Call) error { return services.SetDisplayName(c, "carol") })
	assert.True(t, services.IsKind(err, services.KindNotRegistered), "got %v", err)
}

func TestConnectionLifecycle(t *testing.T) {
	e := newEnv(t)
	e.register("alice")

	require.NoError(t, e.as("alice", services.OnDisconnect))
	assert.False(t, me(t, e, "alice").Online)
	require.NoError(t, e.as("alice", services.OnDisconnect))
	assert.False(t, me(t, e, "alice").Online)
	require.NoError(t, e.as("alice", services.OnConnect))
	assert.True(t, me(t, e, "alice").Online)

	// unregistered identities are ignored
	require.NoError(t, e.as("ghost", services.OnConnect))
	require.NoError(t, e.as("ghost", services.OnDisconnect))
	assert.EqualValues(t, 1, e.count(&models.User{}, "1 = 1"))
}

func TestHostTimestampTruncated(t *testing.T) {
	e := newEnv(t)
	e.clock.Advance(1234567 * time.Nanosecond)

	var ts time.Time
	require.NoError(t, e.as("alice", func(c *services.Call) error {
		ts = c.Timestamp
		return nil
	}))
	assert.Equal(t, time.UTC, ts.Location())
	assert.Equal(t, 1*time.Millisecond, ts.Sub(testutil.NewClock().Now()))
}
