package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/ticketera/helpdesk-service/pkg/util/errorutil"
)

// RequireAuthenticated ensures an actor was loaded.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := ActorFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireSuperuser restricts a route to superusers.
func RequireSuperuser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !actor.IsSuperuser {
			return apperrors.NewForbidden("superuser required")
		}
		return c.Next()
	}
}

// RequirePrivileged restricts a route to superusers and roles that see every ticket.
func RequirePrivileged() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !actor.Privileged() {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireEmployee restricts a route to actors with an employee profile.
func RequireEmployee() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !actor.HasEmployee() {
			return apperrors.NewForbidden("employee profile required")
		}
		return c.Next()
	}
}
