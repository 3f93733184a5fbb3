package services_test

import (
	"testing"

	"github.com/localnerve/relationsdb/internal/models"
	"github.com/localnerve/relationsdb/internal/services"
	"github.com/localnerve/relationsdb/internal/store"
	"github.com/localnerve/relationsdb/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staleTables answers one finder with "no row", as a transaction does when
// its check runs before a concurrent command commits the same row.
type staleTables struct {
	store.Tables
	miss string
}

func (s staleTables) Locked() store.Tables { return s }

func (s staleTables) UserByName(name string) (*models.User, error) {
	if s.miss == "UserByName" {
		return nil, nil
	}
	return s.Tables.UserByName(name)
}

func (s staleTables) ChannelByName(name string) (*models.Channel, error) {
	if s.miss == "ChannelByName" {
		return nil, nil
	}
	return s.Tables.ChannelByName(name)
}

func (s staleTables) FriendRequest(key models.Key) (*models.FriendRequest, error) {
	if s.miss == "FriendRequest" {
		return nil, nil
	}
	return s.Tables.FriendRequest(key)
}

func (s staleTables) Member(key models.Key) (*models.Member, error) {
	if s.miss == "Member" {
		return nil, nil
	}
	return s.Tables.Member(key)
}

func (s staleTables) GuildMember(user models.Identity, guildID int64) (*models.GuildMember, error) {
	if s.miss == "GuildMember" {
		return nil, nil
	}
	return s.Tables.GuildMember(user, guildID)
}

func (s staleTables) RolePermission(roleID int64, p models.Permission) (*models.GuildPermission, error) {
	if s.miss == "RolePermission" {
		return nil, nil
	}
	return s.Tables.RolePermission(roleID, p)
}

func (s staleTables) MemberRole(user models.Identity, roleID int64) (*models.GuildMemberRole, error) {
	if s.miss == "MemberRole" {
		return nil, nil
	}
	return s.Tables.MemberRole(user, roleID)
}

// stale builds a call for subject whose named finder misses
func (e *env) stale(subject, miss string) *services.Call {
	tables := staleTables{Tables: store.New(e.db), miss: miss}
	return services.NewCall(testutil.ID(subject), e.clock.Now(), tables, e.host.Validator, services.AddByOwner)
}

func TestDuplicateInsertsFailLikeTheirChecks(t *testing.T) {
	e := newEnv(t)
	e.register("alice", "bob", "carol")
	e.createChannel("alice", "general")
	require.NoError(t, e.as("alice", func(c *services.Call) error { return services.AddMember(c, "general", "bob") }))
	require.NoError(t, e.as("alice", func(c *services.Call) error { return services.RequestFriendship(c, "bob") }))
	guild, channels := e.createGuild("alice", "guild", "news")
	news := channels[0]
	role := e.createRole("alice", guild.ID, "reader", models.Read(news.ID))
	require.NoError(t, e.as("carol", func(c *services.Call) error { return services.JoinGuild(c, guild.ID) }))
	require.NoError(t, e.as("alice", func(c *services.Call) error { return services.AddRoleToUser(c, role.ID, "carol") }))

	tests := []struct {
		name    string
		subject string
		miss    string
		command func(*services.Call) error
		want    *services.Failure
	}{
		{"rename to a taken name", "bob", "UserByName",
			func(c *services.Call) error { return services.SetName(c, "alice") }, services.ErrNameTaken},
		{"create a taken channel name", "bob", "ChannelByName",
			func(c *services.Call) error { _, err := services.CreateChannel(c, "general"); return err }, services.ErrChannelNameTaken},
		{"request twice", "alice", "FriendRequest",
			func(c *services.Call) error { return services.RequestFriendship(c, "bob") }, services.ErrAlreadyRequested},
		{"add a channel member twice", "alice", "Member",
			func(c *services.Call) error { return services.AddMember(c, "general", "bob") }, services.ErrAlreadyChannelMember},
		{"join a guild twice", "carol", "GuildMember",
			func(c *services.Call) error { return services.JoinGuild(c, guild.ID) }, services.ErrAlreadyGuildMember},
		{"add a permission twice", "alice", "RolePermission",
			func(c *services.Call) error {
				_, err := services.AddPermissions(c, role.ID, []models.Permission{models.Read(news.ID)})
				return err
			}, services.ErrDuplicatePermission},
		{"assign a role twice", "alice", "MemberRole",
			func(c *services.Call) error { return services.AddRoleToUser(c, role.ID, "carol") }, services.ErrAlreadyAssigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.command(e.stale(tt.subject, tt.miss))
			assert.ErrorIs(t, err, tt.want)
			kind, ok := services.KindOf(err)
			assert.True(t, ok)
			assert.Equal(t, services.ClassAlreadyExists, kind.Class())
		})
	}

	assert.EqualValues(t, 1, e.count(&models.FriendRequest{}, "1 = 1"))
	assert.EqualValues(t, 2, e.count(&models.Member{}, "1 = 1"))
	assert.EqualValues(t, 1, e.count(&models.GuildMemberRole{}, "1 = 1"))
}
