package csrf

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"packly/internal/shared/utils/response"
)

// Middleware enforces the double-submit check on state-changing verbs.
// GET/HEAD/OPTIONS pass through untouched since CSRF targets state mutation.
func Middleware(guard *Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		secret, err := c.Cookie(guard.CookieName)
		if err != nil {
			response.Fail(c, http.StatusForbidden, response.CodeCSRFFailed,
				"Fetch a CSRF token from /auth/csrf-token before mutating requests")
			c.Abort()
			return
		}

		presented := c.GetHeader(guard.HeaderName)
		if !guard.Verify(secret, presented) {
			response.Fail(c, http.StatusForbidden, response.CodeCSRFFailed,
				"CSRF token does not match; fetch a fresh one and retry")
			c.Abort()
			return
		}

		c.Next()
	}
}

// IssueHandler sets a fresh secret cookie and returns the derived token to the
// client, which must echo it back in the configured header.
func IssueHandler(guard *Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret, tokenValue, err := guard.Issue()
		if err != nil {
			response.Fail(c, http.StatusInternalServerError, response.CodeInternal,
				"Could not issue a CSRF token, try again")
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(guard.CookieName, secret, guard.CookieMaxAge, "/", "", guard.Secure, true)
		response.Success(c, http.StatusOK, "CSRF token issued", gin.H{
			"csrfToken": tokenValue,
		})
	}
}
