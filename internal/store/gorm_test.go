package store_test

import (
	"testing"
	"time"

	"github.com/localnerve/relationsdb/internal/models"
	"github.com/localnerve/relationsdb/internal/pairkey"
	"github.com/localnerve/relationsdb/internal/store"
	"github.com/localnerve/relationsdb/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindersReturnNilWhenAbsent(t *testing.T) {
	tables := store.New(testutil.OpenDB(t))

	user, err := tables.UserByName("nobody")
	require.NoError(t, err)
	assert.Nil(t, user)

	channel, err := tables.Locked().ChannelByName("missing")
	require.NoError(t, err)
	assert.Nil(t, channel)

	role, err := tables.RoleByID(1)
	require.NoError(t, err)
	assert.Nil(t, role)
}

func TestUniqueKeysRejectDuplicates(t *testing.T) {
	tables := store.New(testutil.OpenDB(t))
	alice := testutil.ID("alice")

	require.NoError(t, tables.InsertUser(&models.User{ID: alice, Name: "alice", DisplayName: "alice"}))
	err := tables.InsertUser(&models.User{ID: testutil.ID("other"), Name: "alice", DisplayName: "x"})
	assert.ErrorContains(t, err, "insert user")
	assert.ErrorIs(t, err, store.ErrDuplicate)

	require.NoError(t, tables.InsertUser(&models.User{ID: testutil.ID("bob"), Name: "bob", DisplayName: "bob"}))
	err = tables.UpdateUser(&models.User{ID: testutil.ID("bob"), Name: "alice", DisplayName: "bob"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	key := pairkey.Membership(alice, 1)
	require.NoError(t, tables.InsertMember(&models.Member{Hash: key, UserID: alice, ChannelID: 1}))
	assert.ErrorIs(t, tables.InsertMember(&models.Member{Hash: key, UserID: alice, ChannelID: 1}), store.ErrDuplicate)

	p := models.Read(7)
	require.NoError(t, tables.InsertPermission(&models.GuildPermission{RoleID: 3, Permission: p}))
	assert.ErrorIs(t, tables.InsertPermission(&models.GuildPermission{RoleID: 3, Permission: p}), store.ErrDuplicate)
	require.NoError(t, tables.InsertPermission(&models.GuildPermission{RoleID: 4, Permission: p}))
}

func TestUserRoundTrip(t *testing.T) {
	tables := store.New(testutil.OpenDB(t))
	id := testutil.ID("alice")
	created := time.Date(2026, 1, 2, 3, 4, 5, 6e6, time.UTC)

	require.NoError(t, tables.InsertUser(&models.User{ID: id, Name: "alice", DisplayName: "Alice", Online: true, CreatedAt: created}))

	u, err := tables.UserByID(id)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, id, u.ID)
	assert.True(t, u.CreatedAt.Equal(created))

	u.Online = false
	u.DisplayName = "A"
	require.NoError(t, tables.UpdateUser(u))
	u, err = tables.UserByName("alice")
	require.NoError(t, err)
	assert.False(t, u.Online)
	assert.Equal(t, "A", u.DisplayName)
}

func TestMessagesOfPagesInIDOrder(t *testing.T) {
	tables := store.New(testutil.OpenDB(t))
	for i := 0; i < 5; i++ {
		require.NoError(t, tables.InsertMessage(&models.Message{Sender: "alice", ChannelID: 1, Text: "m"}))
		require.NoError(t, tables.InsertMessage(&models.Message{Sender: "alice", ChannelID: 2, Text: "other"}))
	}

	page, err := tables.MessagesOf(1, 0, 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	for i := 1; i < len(page); i++ {
		assert.Less(t, page[i-1].ID, page[i].ID)
		assert.EqualValues(t, 1, page[i].ChannelID)
	}

	rest, err := tables.MessagesOf(1, page[2].ID, 10)
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}

func TestResolverReads(t *testing.T) {
	tables := store.New(testutil.OpenDB(t))
	carol := testutil.ID("carol")

	require.NoError(t, tables.InsertMemberRole(&models.GuildMemberRole{UserID: carol, RoleID: 2, GuildID: 1}))
	require.NoError(t, tables.InsertMemberRole(&models.GuildMemberRole{UserID: carol, RoleID: 1, GuildID: 1}))
	require.NoError(t, tables.InsertMemberRole(&models.GuildMemberRole{UserID: carol, RoleID: 9, GuildID: 5}))
	require.NoError(t, tables.InsertPermission(&models.GuildPermission{RoleID: 1, Permission: models.Write(3)}))

	held, err := tables.RolesHeldBy(carol, 1)
	require.NoError(t, err)
	require.Len(t, held, 2)
	assert.EqualValues(t, 1, held[0].RoleID)

	perms, err := tables.PermissionsOf(1)
	require.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, models.Write(3), perms[0].Permission)

	found, err := tables.RolePermission(1, models.Read(3))
	require.NoError(t, err)
	assert.Nil(t, found)

	require.NoError(t, tables.DeleteMemberRolesIn(carol, 1))
	held, err = tables.RolesHeldBy(carol, 1)
	require.NoError(t, err)
	assert.Empty(t, held)
}
