package auth

import (
	"errors"

	"packly/pkg/ability"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrPasswordsDoNotMatch = errors.New("passwords do not match")
	ErrUserDisabled        = errors.New("user is disabled")
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrResetTokenInvalid   = errors.New("reset token is invalid or expired")
)

// AuthResult is what signup and login hand back: the identity snapshot, the
// permissions the client ability store consumes, and the freshly minted token
// pair. RememberMe records which refresh TTL was used so the controller can
// set a matching cookie lifetime.
type AuthResult struct {
	User         UserResponse    `json:"user"`
	Permissions  ability.RuleSet `json:"permissions"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresIn    int64           `json:"expires_in"`
	RememberMe   bool            `json:"-"`
}

// AccessGrant is the refresh outcome: a new access token only. The refresh
// token itself is never rotated on this path.
type AccessGrant struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// MeResult couples the account snapshot with its resolved permissions so the
// client bootstraps session and ability state in one step.
type MeResult struct {
	User        UserResponse    `json:"user"`
	Permissions ability.RuleSet `json:"permissions"`
}
