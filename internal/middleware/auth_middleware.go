package middleware

import (
	"strings"

	"go-inventory-ledger/pkg/apperror"
	"go-inventory-ledger/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth validates the bearer token and puts its claims in Locals.
// Tokens are self-contained; nothing is looked up per request.
func RequireAuth(signer *jwt.Signer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return unauthorized(c, "Missing authorization token")
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return unauthorized(c, "Invalid authorization format. Use: Bearer <token>")
		}

		claims, err := signer.ValidateToken(parts[1])
		if err != nil {
			return unauthorized(c, "Invalid or expired token")
		}

		c.Locals("user_id", claims.Subject)
		c.Locals("user_email", claims.Email)
		c.Locals("user_name", claims.Name)
		c.Locals("user_privileges", claims.Privileges)

		return c.Next()
	}
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return RequireAnyPrivilege(requiredPrivilege)
}

// RequireAnyPrivilege checks if the user has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if HasAnyPrivilege(c, requiredPrivileges...) {
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(apperror.Forbidden(requiredPrivileges...))
	}
}

// HasAnyPrivilege reports whether the token carried any of the given privileges.
func HasAnyPrivilege(c *fiber.Ctx, privileges ...string) bool {
	granted, _ := c.Locals("user_privileges").([]string)
	for _, userPriv := range granted {
		for _, reqPriv := range privileges {
			if userPriv == reqPriv {
				return true
			}
		}
	}
	return false
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(apperror.New(apperror.CodeUnauthorized, message, ""))
}
