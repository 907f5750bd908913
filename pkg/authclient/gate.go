package authclient

import (
	"context"
	"errors"

	"packly/pkg/ability"
)

// ErrLoginRequired is returned by Bootstrap when the session cannot be
// established and the user must go through login again.
var ErrLoginRequired = errors.New("login required")

// AuthGate couples session bootstrap to permission bootstrap: one call
// either fills the permission store from /auth/me or clears it.
type AuthGate struct {
	client *Client
	store  *PermissionStore
	user   *UserInfo
}

func NewAuthGate(client *Client, store *PermissionStore) *AuthGate {
	return &AuthGate{
		client: client,
		store:  store,
	}
}

// Bootstrap asks the server who the current session belongs to. On success
// the permission store is replaced wholesale; on any failure it is cleared
// and ErrLoginRequired is returned so the caller can route to login.
func (g *AuthGate) Bootstrap(ctx context.Context) error {
	session, err := g.client.Me(ctx)
	if err != nil {
		g.store.ClearPermissions()
		g.user = nil
		return errors.Join(ErrLoginRequired, err)
	}

	g.user = &session.User
	g.store.SetPermissions(session.Permissions)
	return nil
}

// User returns the bootstrapped identity, nil before a successful Bootstrap.
func (g *AuthGate) User() *UserInfo {
	return g.user
}

// Can checks the current ability snapshot. UX gating only; the server
// remains the security boundary.
func (g *AuthGate) Can(action ability.Action, subject ability.Subject) bool {
	return g.store.Ability().Can(action, subject)
}

// Render returns the rendered content iff the ability allows the pair,
// otherwise the empty string.
func (g *AuthGate) Render(action ability.Action, subject ability.Subject, render func() string) string {
	if !g.Can(action, subject) {
		return ""
	}
	return render()
}
