package middleware

import (
	"context"
	"net/http"
	"strings"

	"techshop/pkg/logger"
	"techshop/pkg/response"
	"techshop/pkg/utils"

	"github.com/labstack/echo/v4"
)

// TokenStore answers whether a token still names a live session.
type TokenStore interface {
	ValidateToken(ctx context.Context, token string) (string, error)
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, message))
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", false
	}

	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}

	return token, true
}

// Auth parses the bearer JWT and stores the caller's identity on the context
// under "user_id", "role" and "token".
func Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, found := bearerToken(c)
		if !found {
			return unauthorized(c, "missing or malformed authorization header")
		}

		claims, err := utils.ParseJWT(token)
		if err != nil {
			return unauthorized(c, "invalid or expired token")
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("token", token)

		return next(c)
	}
}

// AuthWithStore additionally requires the token to still be present in the
// session store, so logout and revocation take effect before JWT expiry.
func AuthWithStore(store TokenStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, found := bearerToken(c)
			if !found {
				return unauthorized(c, "missing or malformed authorization header")
			}

			claims, err := utils.ParseJWT(token)
			if err != nil {
				return unauthorized(c, "invalid or expired token")
			}

			accountID, err := store.ValidateToken(c.Request().Context(), token)
			if err != nil {
				logger.Warn("rejected revoked or unknown session", "account_id", claims.UserID)
				return unauthorized(c, "session expired, please log in again")
			}
			if accountID != claims.UserID {
				return unauthorized(c, "session does not match token")
			}

			c.Set("user_id", claims.UserID)
			c.Set("role", claims.Role)
			c.Set("token", token)

			return next(c)
		}
	}
}

// AdminOnly must run after Auth.
func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, _ := c.Get("role").(string)
		if role != "admin" {
			return c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "admin access required"))
		}

		return next(c)
	}
}
