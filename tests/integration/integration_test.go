package integration_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/relationsdb/internal/database"
	"github.com/localnerve/relationsdb/internal/handlers"
	"github.com/localnerve/relationsdb/internal/middleware"
	"github.com/localnerve/relationsdb/internal/models"
	"github.com/localnerve/relationsdb/internal/pairkey"
	"github.com/localnerve/relationsdb/internal/services"
	"github.com/localnerve/relationsdb/internal/validation"
	"github.com/localnerve/relationsdb/tests/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stack struct {
	app   *gorm.DB
	user  *gorm.DB
	hosts handlers.Hosts
}

// startStack runs a database container of DB_TYPE (mariadb by default) and
// connects both pools to it.
func startStack(t *testing.T) *stack {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cfg, _ := helpers.StartDatabase(t)

	appDB, err := database.Connect(cfg)
	require.NoError(t, err, "connect app pool")
	t.Cleanup(func() { _ = database.Close(appDB) })

	require.NoError(t, database.AutoMigrate(appDB), "migrate")

	userDB, err := database.ConnectUser(cfg)
	require.NoError(t, err, "connect user pool")
	t.Cleanup(func() { _ = database.Close(userDB) })

	validator := validation.New(validation.DefaultLimits)
	return &stack{
		app:  appDB,
		user: userDB,
		hosts: handlers.Hosts{
			Commands: &services.Host{DB: appDB, Validator: validator},
			Reads:    &services.Host{DB: userDB, Validator: validator},
		},
	}
}

func (s *stack) as(subject string, fn func(*services.Call) error) error {
	return s.hosts.Commands.Invoke(context.Background(), pairkey.Subject(subject), "integration", fn)
}

func TestRelationsWithDatabase(t *testing.T) {
	s := startStack(t)
	helpers.SeedUsers(t, s.app, "alice", "bob", "carol")

	t.Run("ChannelLifecycle", func(t *testing.T) {
		testChannelLifecycle(t, s)
	})

	t.Run("ConcurrentFriendRequests", func(t *testing.T) {
		testConcurrentFriendRequests(t, s)
	})

	t.Run("GuildPermissions", func(t *testing.T) {
		testGuildPermissions(t, s)
	})

	t.Run("NamesAreCaseSensitive", func(t *testing.T) {
		testNamesAreCaseSensitive(t, s)
	})

	t.Run("ReadPoolIsSelectOnly", func(t *testing.T) {
		testReadPoolIsSelectOnly(t, s)
	})

	t.Run("HandlersOverBothPools", func(t *testing.T) {
		testHandlersOverBothPools(t, s)
	})
}

func testChannelLifecycle(t *testing.T, s *stack) {
	require.NoError(t, s.as("alice", func(c *services.Call) error {
		_, err := services.CreateChannel(c, "lifecycle")
		return err
	}))
	require.NoError(t, s.as("alice", func(c *services.Call) error {
		return services.AddMember(c, "lifecycle", "bob")
	}))
	require.NoError(t, s.as("bob", func(c *services.Call) error {
		_, err := services.SendMessage(c, "hi from bob", "lifecycle")
		return err
	}))

	err := s.as("alice", func(c *services.Call) error {
		return services.RemoveMember(c, "lifecycle", "alice")
	})
	assert.True(t, services.IsKind(err, services.KindOwnerMustTransferFirst), "got %v", err)

	require.NoError(t, s.as("alice", func(c *services.Call) error {
		return services.TransferChannelOwnership(c, "lifecycle", "bob")
	}))
	require.NoError(t, s.as("alice", func(c *services.Call) error {
		return services.RemoveMember(c, "lifecycle", "alice")
	}))
	require.NoError(t, s.as("bob", func(c *services.Call) error {
		return services.RemoveMember(c, "lifecycle", "bob")
	}))

	assert.EqualValues(t, 0, helpers.CountRows(t, s.app, &models.Channel{}, "name = ?", "lifecycle"))
	assert.EqualValues(t, 0, helpers.CountRows(t, s.app, &models.Message{}, "sender = ?", "bob"))
}

func testConcurrentFriendRequests(t *testing.T, s *stack) {
	const attempts = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.as("carol", func(c *services.Call) error {
				return services.RequestFriendship(c, "alice")
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else {
				rejected = append(rejected, err)
			}
		}()
	}
	wg.Wait()

	key := pairkey.Of(pairkey.Subject("alice"), pairkey.Subject("carol"))
	assert.Equal(t, 1, succeeded)
	for _, err := range rejected {
		assert.True(t, services.IsKind(err, services.KindAlreadyRequested), "got %v", err)
	}
	assert.EqualValues(t, 1, helpers.CountRows(t, s.app, &models.FriendRequest{}, "hash = ?", key))

	require.NoError(t, s.as("alice", func(c *services.Call) error {
		return services.AcceptFriendship(c, "carol")
	}))
	assert.EqualValues(t, 0, helpers.CountRows(t, s.app, &models.FriendRequest{}, "hash = ?", key))
	assert.EqualValues(t, 1, helpers.CountRows(t, s.app, &models.Friend{}, "hash = ?", key))
}

func testNamesAreCaseSensitive(t *testing.T, s *stack) {
	require.NoError(t, s.as("dave", func(c *services.Call) error {
		return services.SetName(c, "Alice")
	}))
	for owner, name := range map[string]string{"alice": "casing", "dave": "Casing"} {
		require.NoError(t, s.as(owner, func(c *services.Call) error {
			_, err := services.CreateChannel(c, name)
			return err
		}), name)
	}

	var dave *models.User
	require.NoError(t, s.hosts.Reads.Invoke(context.Background(), pairkey.Subject("dave"), "integration", func(c *services.Call) (err error) {
		dave, err = c.Tables.UserByName("Alice")
		return err
	}))
	require.NotNil(t, dave)
	assert.Equal(t, pairkey.Subject("dave"), dave.ID)
	assert.EqualValues(t, 1, helpers.CountRows(t, s.app, &models.User{}, "name = ?", "alice"))
}

func testGuildPermissions(t *testing.T, s *stack) {
	var (
		guild    *models.Guild
		open     *models.GuildChannel
		reserved *models.GuildChannel
		role     *models.GuildRole
	)
	require.NoError(t, s.as("alice", func(c *services.Call) (err error) {
		if guild, err = services.CreateGuild(c, "integration"); err != nil {
			return err
		}
		if open, err = services.CreateGuildChannel(c, guild.ID, "open"); err != nil {
			return err
		}
		if reserved, err = services.CreateGuildChannel(c, guild.ID, "reserved"); err != nil {
			return err
		}
		if role, err = services.CreateRole(c, guild.ID, "writer", 0xff00); err != nil {
			return err
		}
		_, err = services.AddPermissions(c, role.ID, []models.Permission{models.Read(open.ID), models.Write(open.ID)})
		return err
	}))

	require.NoError(t, s.as("bob", func(c *services.Call) error {
		return services.JoinGuild(c, guild.ID)
	}))
	require.NoError(t, s.as("alice", func(c *services.Call) error {
		return services.AddRoleToUser(c, role.ID, "bob")
	}))

	require.NoError(t, s.as("bob", func(c *services.Call) error {
		_, err := services.PostGuildMessage(c, open.ID, "allowed")
		return err
	}))
	err := s.as("bob", func(c *services.Call) error {
		_, err := services.PostGuildMessage(c, reserved.ID, "denied")
		return err
	})
	assert.True(t, services.IsKind(err, services.KindPermissionDenied), "got %v", err)

	require.NoError(t, s.as("alice", func(c *services.Call) error {
		return services.RemoveRole(c, role.ID)
	}))
	assert.EqualValues(t, 0, helpers.CountRows(t, s.app, &models.GuildPermission{}, "role_id = ?", role.ID))
	assert.EqualValues(t, 0, helpers.CountRows(t, s.app, &models.GuildMemberRole{}, "role_id = ?", role.ID))

	var messages []models.GuildMessage
	require.NoError(t, s.hosts.Reads.Invoke(context.Background(), pairkey.Subject("alice"), "integration.list", func(c *services.Call) (err error) {
		messages, err = services.ListGuildMessages(c, open.ID, 0, 10)
		return err
	}))
	require.Len(t, messages, 1)
	assert.Equal(t, "allowed", messages[0].Text)
}

func testReadPoolIsSelectOnly(t *testing.T, s *stack) {
	var users []models.User
	require.NoError(t, s.user.Find(&users).Error)
	assert.NotEmpty(t, users)

	err := s.user.Create(&models.User{ID: pairkey.Subject("mallory"), Name: "mallory", DisplayName: "mallory"}).Error
	assert.Error(t, err, "read pool must not insert")
}

func testHandlersOverBothPools(t *testing.T, s *stack) {
	app := fiber.New(handlers.AppConfig())
	auth := middleware.AuthUser(nil, func(cookie string, _ []string) (*services.Session, error) {
		return &services.Session{Subject: cookie, Identity: pairkey.Subject(cookie)}, nil
	})
	handlers.Register(app.Group("/api"), auth, s.hosts)

	req := httptest.NewRequest("POST", "/api/channels", strings.NewReader(`{"name":"handlers"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(sessionCookie("bob"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	helpers.AssertStatus(t, resp, 201)

	req = httptest.NewRequest("GET", "/api/channels/handlers/members", nil)
	req.AddCookie(sessionCookie("bob"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	helpers.AssertStatus(t, resp, 200)

	var members []services.Contact
	helpers.ParseJSON(t, resp, &members)
	require.Len(t, members, 1)
	assert.Equal(t, "bob", members[0].Name)

	req = httptest.NewRequest("GET", "/api/channels/nowhere/members", nil)
	req.AddCookie(sessionCookie("bob"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	helpers.AssertFailure(t, resp, 404, string(services.KindNotFound))
}

// TestHealthCheck runs the health check against a live database and an unreachable Authorizer.
func TestHealthCheck(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cfg, _ := helpers.StartDatabase(t)

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	defer database.Close(db)

	result := services.HealthCheck(cfg, db, services.DefaultAuthorizerPing)
	assert.Equal(t, "ok", result.Database)
	assert.Equal(t, "unreachable", result.Authorizer)
	assert.Equal(t, "unhealthy", result.Status)

	require.NoError(t, database.AutoMigrate(db))
	result = services.HealthCheck(cfg, db, nil)
	assert.Equal(t, "ok", result.Schema)
	assert.Equal(t, "healthy", result.Status)
}
