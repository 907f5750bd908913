package authclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"packly/pkg/ability"
	"packly/pkg/authclient"
)

func userRules() ability.RuleSet {
	return ability.RuleSet{
		{Action: ability.ActionManage, Subject: ability.SubjectBag, Scope: ability.ScopeOwn},
		{Action: ability.ActionRead, Subject: ability.SubjectUser, Scope: ability.ScopeOwn},
	}
}

func TestPermissionStore(t *testing.T) {
	t.Run("empty store denies everything", func(t *testing.T) {
		store := authclient.NewPermissionStore()
		require.False(t, store.Ability().Can(ability.ActionRead, ability.SubjectBag))
	})

	t.Run("snapshot drives the ability", func(t *testing.T) {
		store := authclient.NewPermissionStore()
		store.SetPermissions(userRules())

		a := store.Ability()
		require.True(t, a.Can(ability.ActionDelete, ability.SubjectBag))
		require.True(t, a.Can(ability.ActionRead, ability.SubjectUser))
		require.False(t, a.Can(ability.ActionDelete, ability.SubjectUser))
	})

	t.Run("ability is memoized per snapshot", func(t *testing.T) {
		store := authclient.NewPermissionStore()
		store.SetPermissions(userRules())

		first := store.Ability()
		require.Same(t, first, store.Ability())

		store.SetPermissions(userRules())
		require.NotSame(t, first, store.Ability())
	})

	t.Run("clear resets to deny", func(t *testing.T) {
		store := authclient.NewPermissionStore()
		store.SetPermissions(userRules())
		require.True(t, store.Ability().Can(ability.ActionRead, ability.SubjectBag))

		store.ClearPermissions()
		require.False(t, store.Ability().Can(ability.ActionRead, ability.SubjectBag))
		require.Empty(t, store.Permissions())
	})

	t.Run("caller mutations do not leak in", func(t *testing.T) {
		store := authclient.NewPermissionStore()
		rules := userRules()
		store.SetPermissions(rules)

		rules[0].Subject = ability.SubjectAll
		require.False(t, store.Ability().Can(ability.ActionRead, ability.SubjectItem))
	})
}

func gateServer(t *testing.T, authed *bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/me", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")

		if !*authed {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success":    false,
				"code":       "TOKEN_MISSING",
				"suggestion": "Log in and retry with an access token",
			})
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"user": map[string]any{
					"id":    "2f0c6a21-9a0f-4a87-8a43-0f6f4c9f7f10",
					"email": "avery@packly.app",
					"role":  "USER",
				},
				"permissions": []map[string]any{
					{"action": "manage", "subject": "BAG", "scope": "own"},
				},
			},
		})
	}))
}

func TestAuthGateBootstrap(t *testing.T) {
	authed := true
	server := gateServer(t, &authed)
	defer server.Close()

	client, err := authclient.NewClient(server.URL)
	require.NoError(t, err)
	store := authclient.NewPermissionStore()
	gate := authclient.NewAuthGate(client, store)

	t.Run("success fills user and permissions", func(t *testing.T) {
		require.NoError(t, gate.Bootstrap(context.Background()))
		require.NotNil(t, gate.User())
		require.Equal(t, "avery@packly.app", gate.User().Email)
		require.True(t, gate.Can(ability.ActionCreate, ability.SubjectBag))
		require.False(t, gate.Can(ability.ActionCreate, ability.SubjectUser))
	})

	t.Run("failure clears everything", func(t *testing.T) {
		authed = false
		err := gate.Bootstrap(context.Background())
		require.ErrorIs(t, err, authclient.ErrLoginRequired)

		var apiErr *authclient.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "TOKEN_MISSING", apiErr.Code)

		require.Nil(t, gate.User())
		require.False(t, gate.Can(ability.ActionCreate, ability.SubjectBag))
	})
}

func TestAuthGateRender(t *testing.T) {
	store := authclient.NewPermissionStore()
	store.SetPermissions(userRules())
	gate := authclient.NewAuthGate(nil, store)

	t.Run("allowed pair renders", func(t *testing.T) {
		out := gate.Render(ability.ActionCreate, ability.SubjectBag, func() string {
			return "<button>New bag</button>"
		})
		require.Equal(t, "<button>New bag</button>", out)
	})

	t.Run("denied pair renders nothing", func(t *testing.T) {
		called := false
		out := gate.Render(ability.ActionDelete, ability.SubjectUser, func() string {
			called = true
			return "<button>Delete account</button>"
		})
		require.Empty(t, out)
		require.False(t, called)
	})
}
