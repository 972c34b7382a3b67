// Package middleware provides identity resolution, logging, tracing, metrics
// and rate limiting for the HTTP server.
package middleware

import (
	"context"
	"errors"

	"murmur/internal/models"
	"murmur/internal/token"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the identity resolver.
const (
	LocalsUser   = "user"
	LocalsUserID = "userID"
)

// TokenVerifier validates a raw session token.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*token.Claims, error)
}

// AccountLoader loads the password-free projection of an account.
// A missing account is reported as a NOT_FOUND AppError.
type AccountLoader interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// Protect rejects requests without a valid session cookie and binds the
// resolved account to the request.
func Protect(tokens TokenVerifier, accounts AccountLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(token.CookieName)
		if raw == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Unauthorized: No Token Provided"))
		}

		claims, err := tokens.Verify(c.UserContext(), raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Unauthorized: Invalid Token"))
		}

		user, err := accounts.GetByID(c.UserContext(), claims.UserID)
		if err != nil {
			var appErr *models.AppError
			if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
				return models.RespondWithError(c, fiber.StatusNotFound,
					models.NewNotFoundError("User", nil))
			}
			Logger.ErrorContext(c.UserContext(), "identity lookup failed", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		}

		bind(c, user)
		return c.Next()
	}
}

// OptionalIdentity binds the account when a valid cookie is present and
// otherwise lets the request through anonymously.
func OptionalIdentity(tokens TokenVerifier, accounts AccountLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(token.CookieName)
		if raw == "" {
			return c.Next()
		}
		claims, err := tokens.Verify(c.UserContext(), raw)
		if err != nil {
			return c.Next()
		}
		user, err := accounts.GetByID(c.UserContext(), claims.UserID)
		if err == nil {
			bind(c, user)
		}
		return c.Next()
	}
}

func bind(c *fiber.Ctx, user *models.User) {
	user.Password = ""
	c.Locals(LocalsUser, user)
	c.Locals(LocalsUserID, user.ID)
	// Sync to UserContext for logging and downstream services
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, user.ID))
}

// CurrentUser returns the account bound by Protect or OptionalIdentity.
func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(LocalsUser).(*models.User)
	return user, ok && user != nil
}

// CurrentUserID returns the bound account id, or 0 when anonymous.
func CurrentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalsUserID).(uint)
	return id
}
