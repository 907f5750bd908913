package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"packly/internal/shared/config"
	"packly/internal/shared/utils/response"
	"packly/internal/users"
	"packly/pkg/ability"
	"packly/pkg/token"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware.
const (
	CtxUserID        = "user_id"
	CtxUserRole      = "user_role"
	CtxRefreshUserID = "refresh_user_id"
)

// UserLookup is the slice of the user-record collaborator the middleware
// needs: load a user by id, users.ErrUserNotFound when absent.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*users.User, error)
}

// SessionAuth authenticates requests with an access token. The token is read
// from the access cookie first, then from the Authorization header. A
// verified token is only trusted after the referenced account is re-checked:
// it must still exist, be active, and not predate the last password change.
func SessionAuth(cfg *config.Config, codec *token.Codec, store UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c, cfg.Cookie.AccessName)
		if raw == "" {
			response.Fail(c, http.StatusUnauthorized, response.CodeTokenMissing,
				"Log in and retry with an access token")
			c.Abort()
			return
		}

		identity, err := codec.VerifyAccessToken(raw)
		if err != nil {
			response.Fail(c, http.StatusUnauthorized, response.CodeTokenInvalid,
				"Access token is invalid or expired, log in again")
			c.Abort()
			return
		}

		user, err := store.GetUserByID(c.Request.Context(), identity.ID)
		if err != nil {
			if errors.Is(err, users.ErrUserNotFound) {
				response.Fail(c, http.StatusUnauthorized, response.CodeUserNotFound,
					"The account this token belongs to no longer exists")
			} else {
				response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized,
					"Could not verify the account, try again")
			}
			c.Abort()
			return
		}

		if !user.IsActive {
			response.Fail(c, http.StatusUnauthorized, response.CodeUserDisabled,
				"This account is disabled")
			c.Abort()
			return
		}

		// Staleness check: a password change strictly after issuance kills
		// every token minted before it. Compared in whole seconds to match
		// the iat resolution.
		if user.PasswordChangedAt != nil && user.PasswordChangedAt.Unix() > identity.IssuedAt.Unix() {
			response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized,
				"Credentials changed recently, please log in again")
			c.Abort()
			return
		}

		c.Set(CtxUserID, identity.ID)
		c.Set(CtxUserRole, string(user.Role))
		c.Next()
	}
}

// RefreshAuth authenticates the refresh-token path. It verifies against the
// refresh secret only, re-confirms the account, and authorizes nothing beyond
// minting a new access token. Access-token endpoints never accept it because
// the secrets differ.
func RefreshAuth(cfg *config.Config, codec *token.Codec, store UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c, cfg.Cookie.RefreshName)
		if raw == "" {
			response.Fail(c, http.StatusUnauthorized, response.CodeTokenMissing,
				"Log in to obtain a refresh token")
			c.Abort()
			return
		}

		identity, err := codec.VerifyRefreshToken(raw)
		if err != nil {
			response.Fail(c, http.StatusUnauthorized, response.CodeTokenInvalid,
				"Refresh token is invalid or expired, log in again")
			c.Abort()
			return
		}

		user, err := store.GetUserByID(c.Request.Context(), identity.ID)
		if err != nil {
			response.Fail(c, http.StatusUnauthorized, response.CodeUserNotFound,
				"The account this token belongs to no longer exists")
			c.Abort()
			return
		}
		if !user.IsActive {
			response.Fail(c, http.StatusUnauthorized, response.CodeUserDisabled,
				"This account is disabled")
			c.Abort()
			return
		}

		c.Set(CtxRefreshUserID, identity.ID)
		c.Next()
	}
}

// RequireAbility rejects authenticated requests whose role has no rule
// permitting the action on the subject. Ownership (scope) stays a service
// concern; this guard answers the coarse question only.
func RequireAbility(resolver ability.Resolver, action ability.Action, subject ability.Subject) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(CtxUserRole)
		if !exists {
			response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized,
				"Authentication must run before authorization")
			c.Abort()
			return
		}

		rules := resolver.ResolveForRole(ability.Role(role.(string)))
		if !rules.Can(action, subject) {
			response.Fail(c, http.StatusForbidden, response.CodeForbidden,
				"Your role does not permit this operation")
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractToken prefers the HTTP-only cookie, falling back to a Bearer header.
func extractToken(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
