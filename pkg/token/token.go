package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"packly/pkg/ability"
)

var (
	// ErrInvalidToken is the single failure outcome for verification. Any
	// sub-step failure (signature, expiry, issuer, audience, malformed
	// subject, unknown role, missing iat) collapses into it so no partially
	// trusted payload can escape; the cause stays wrapped for server logs.
	ErrInvalidToken = errors.New("invalid token")
)

// Config carries the signing configuration. Access and refresh tokens use
// distinct secrets so compromise of one never validates the other's tokens.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	Audience      string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	// RememberMeTTL replaces RefreshTTL when a login sets the remember-me flag.
	RememberMeTTL time.Duration
}

// Codec signs and verifies access and refresh JWTs. It is stateless apart
// from read-only configuration and safe for concurrent use.
type Codec struct {
	cfg Config
}

func NewCodec(cfg Config) *Codec {
	return &Codec{cfg: cfg}
}

// AccessIdentity is the full trusted payload of a verified access token.
type AccessIdentity struct {
	ID       string
	Role     ability.Role
	IssuedAt time.Time
}

// RefreshIdentity is the payload of a verified refresh token. Refresh tokens
// deliberately carry no role: they only prove who may mint a new access token.
type RefreshIdentity struct {
	ID       string
	IssuedAt time.Time
}

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SignAccessToken encodes the user id and role with the access secret.
func (c *Codec) SignAccessToken(userID string, role ability.Role) (string, error) {
	now := time.Now()
	claims := accessClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    c.cfg.Issuer,
			Audience:  jwt.ClaimStrings{c.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.cfg.AccessTTL)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(c.cfg.AccessSecret))
}

// SignRefreshToken encodes only the user id with the refresh secret. The TTL
// is the remember-me value when the flag is set.
func (c *Codec) SignRefreshToken(userID string, rememberMe bool) (string, error) {
	now := time.Now()
	ttl := c.cfg.RefreshTTL
	if rememberMe {
		ttl = c.cfg.RememberMeTTL
	}
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    c.cfg.Issuer,
		Audience:  jwt.ClaimStrings{c.cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(c.cfg.RefreshSecret))
}

// VerifyAccessToken verifies signature, expiry, issuer and audience against
// the access secret, then validates every claim the identity is built from.
func (c *Codec) VerifyAccessToken(tokenString string) (*AccessIdentity, error) {
	claims := &accessClaims{}
	if err := c.parse(tokenString, claims, c.cfg.AccessSecret); err != nil {
		return nil, err
	}
	if err := c.validateRegistered(&claims.RegisteredClaims); err != nil {
		return nil, err
	}
	if !ability.IsValidRole(claims.Role) {
		return nil, fmt.Errorf("%w: unknown role claim", ErrInvalidToken)
	}

	return &AccessIdentity{
		ID:       claims.Subject,
		Role:     ability.Role(claims.Role),
		IssuedAt: claims.IssuedAt.Time,
	}, nil
}

// VerifyRefreshToken applies the same discipline against the refresh secret,
// minus the role check refresh tokens never carry.
func (c *Codec) VerifyRefreshToken(tokenString string) (*RefreshIdentity, error) {
	claims := &jwt.RegisteredClaims{}
	if err := c.parse(tokenString, claims, c.cfg.RefreshSecret); err != nil {
		return nil, err
	}
	if err := c.validateRegistered(claims); err != nil {
		return nil, err
	}

	return &RefreshIdentity{
		ID:       claims.Subject,
		IssuedAt: claims.IssuedAt.Time,
	}, nil
}

func (c *Codec) parse(tokenString string, claims jwt.Claims, secret string) error {
	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}
	if !t.Valid {
		return ErrInvalidToken
	}
	return nil
}

func (c *Codec) validateRegistered(claims *jwt.RegisteredClaims) error {
	if !claims.VerifyIssuer(c.cfg.Issuer, true) {
		return fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}
	if !claims.VerifyAudience(c.cfg.Audience, true) {
		return fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return fmt.Errorf("%w: malformed subject", ErrInvalidToken)
	}
	if claims.IssuedAt == nil {
		return fmt.Errorf("%w: missing iat", ErrInvalidToken)
	}
	return nil
}
