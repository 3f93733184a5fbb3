package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/relationsdb/internal/config"
	"github.com/localnerve/relationsdb/internal/models"
	"github.com/localnerve/relationsdb/internal/services"
	"github.com/localnerve/relationsdb/internal/types"
)

// SessionCookie is the Authorizer session cookie name
const SessionCookie = "cookie_session"

const (
	localIdentity = "identity"
	localUser     = "user"
)

// SessionValidator validates a session cookie for the given roles
type SessionValidator func(cookie string, roles []string) (*services.Session, error)

// AuthUser validates that the request has user role authorization and
// stores the caller identity. With a non-nil cfg the Authorizer client is
// initialized on the first request.
func AuthUser(cfg *config.Config, validate SessionValidator) fiber.Handler {
	if validate == nil {
		validate = services.ValidateSession
	}
	return func(c *fiber.Ctx) error {
		if cfg != nil && !services.IsAuthorizerInitialized() {
			if err := services.InitAuthorizer(cfg, c.Protocol(), c.Hostname()); err != nil {
				return types.Errorf(fiber.StatusServiceUnavailable, "relations.authorization.init", "Authorizer unavailable: %v", err)
			}
		}
		return authorize(c, validate, []string{"user"}, "relations.authorization.user")
	}
}

// authorize performs the authorization check
func authorize(c *fiber.Ctx, validate SessionValidator, roles []string, errorType string) error {
	// Get session cookie
	session := c.Cookies(SessionCookie)
	if session == "" {
		return types.Errorf(fiber.StatusForbidden, errorType, "Authorizer cookie %q not found", SessionCookie)
	}

	// Validate session
	data, err := validate(session, roles)
	if err != nil {
		return types.Errorf(fiber.StatusForbidden, errorType, "Invalid session: %v", err)
	}

	c.Locals(localIdentity, data.Identity)
	c.Locals(localUser, data)

	return c.Next()
}

// Caller returns the identity stored by AuthUser
func Caller(c *fiber.Ctx) (models.Identity, bool) {
	id, ok := c.Locals(localIdentity).(models.Identity)
	return id, ok && !id.IsZero()
}

// SessionOf returns the validated session stored by AuthUser
func SessionOf(c *fiber.Ctx) (*services.Session, bool) {
	s, ok := c.Locals(localUser).(*services.Session)
	return s, ok
}
