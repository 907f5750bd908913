package csrf_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"packly/pkg/csrf"
)

func testGuard() *csrf.Guard {
	return &csrf.Guard{
		CookieName:   "X-CSRF-Secret",
		HeaderName:   "x-csrf-token",
		CookieMaxAge: 3600,
	}
}

func TestIssueAndVerify(t *testing.T) {
	guard := testGuard()

	secret, tokenValue, err := guard.Issue()
	require.NoError(t, err)
	require.NotEmpty(t, secret)
	require.NotEmpty(t, tokenValue)

	require.True(t, guard.Verify(secret, tokenValue))
}

func TestVerifyRejectsMismatches(t *testing.T) {
	guard := testGuard()

	secret, tokenValue, err := guard.Issue()
	require.NoError(t, err)
	otherSecret, otherToken, err := guard.Issue()
	require.NoError(t, err)

	t.Run("token from another secret", func(t *testing.T) {
		require.False(t, guard.Verify(secret, otherToken))
	})
	t.Run("secret from another pair", func(t *testing.T) {
		require.False(t, guard.Verify(otherSecret, tokenValue))
	})
	t.Run("empty secret", func(t *testing.T) {
		require.False(t, guard.Verify("", tokenValue))
	})
	t.Run("empty token", func(t *testing.T) {
		require.False(t, guard.Verify(secret, ""))
	})
}

func setupTestRouter(guard *csrf.Guard) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	group := engine.Group("/auth")
	group.GET("/csrf-token", csrf.IssueHandler(guard))
	group.Use(csrf.Middleware(guard))
	group.POST("/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	group.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return engine
}

func issuePair(t *testing.T, engine *gin.Engine, guard *csrf.Guard) (secretCookie *http.Cookie, tokenValue string) {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/csrf-token", nil)
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	for _, c := range w.Result().Cookies() {
		if c.Name == guard.CookieName {
			secretCookie = c
		}
	}
	require.NotNil(t, secretCookie)
	require.True(t, secretCookie.HttpOnly)

	var body struct {
		Data struct {
			CSRFToken string `json:"csrfToken"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.CSRFToken)
	return secretCookie, body.Data.CSRFToken
}

func TestMiddleware(t *testing.T) {
	guard := testGuard()
	engine := setupTestRouter(guard)

	t.Run("matching pair accepted", func(t *testing.T) {
		cookie, tokenValue := issuePair(t, engine, guard)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.AddCookie(cookie)
		req.Header.Set(guard.HeaderName, tokenValue)
		engine.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing secret cookie rejected", func(t *testing.T) {
		_, tokenValue := issuePair(t, engine, guard)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.Header.Set(guard.HeaderName, tokenValue)
		engine.ServeHTTP(w, req)

		require.Equal(t, http.StatusForbidden, w.Code)
		require.Contains(t, w.Body.String(), "CSRF_FAILED")
	})

	t.Run("token from a different secret rejected", func(t *testing.T) {
		cookie, _ := issuePair(t, engine, guard)
		_, foreignToken := issuePair(t, engine, guard)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.AddCookie(cookie)
		req.Header.Set(guard.HeaderName, foreignToken)
		engine.ServeHTTP(w, req)

		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		cookie, _ := issuePair(t, engine, guard)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.AddCookie(cookie)
		engine.ServeHTTP(w, req)

		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("GET bypasses the check", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		engine.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
	})
}
