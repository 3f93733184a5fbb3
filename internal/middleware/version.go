package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/relationsdb/internal/types"
)

// APIVersion is the current version of the relations API
const APIVersion = "1.0.0"

// VersionMiddleware parses the X-Api-Version header, rejects other major
// versions and stores the version in context
func VersionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		version := c.Get("X-Api-Version", APIVersion)

		// Support version aliases
		switch version {
		case "1", "1.0":
			version = APIVersion
		}

		if major, _, _ := strings.Cut(version, "."); major != "1" {
			return types.Errorf(fiber.StatusBadRequest, "relations.validation.version", "Unsupported API version %q", version)
		}

		c.Locals("apiVersion", version)
		c.Set("X-Api-Version", APIVersion)

		return c.Next()
	}
}
