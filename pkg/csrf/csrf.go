package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const secretBytes = 32

// derivation tag mixed into the HMAC so the token is bound to this use.
const tokenContext = "packly.csrf.v1"

// Guard implements double-submit CSRF protection: a secret travels in an
// HTTP-only cookie, a token derived from it travels in the response body and
// is echoed back in a request header. A mutating request is accepted only when
// token and secret validate against each other; neither alone is sufficient.
type Guard struct {
	// CookieName is the HTTP-only cookie carrying the secret.
	CookieName string
	// HeaderName is the request header the client echoes the token in.
	HeaderName string
	// CookieMaxAge is the secret cookie lifetime in seconds.
	CookieMaxAge int
	// Secure marks the secret cookie as HTTPS-only.
	Secure bool
}

// Issue generates a fresh secret and the token derived from it.
func (g *Guard) Issue() (secret string, tokenValue string, err error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate csrf secret: %w", err)
	}
	secret = base64.RawURLEncoding.EncodeToString(buf)
	return secret, deriveToken(secret), nil
}

// Verify recomputes the expected token from the secret and compares it in
// constant time against the presented token.
func (g *Guard) Verify(secret, tokenValue string) bool {
	if secret == "" || tokenValue == "" {
		return false
	}
	expected := deriveToken(secret)
	return hmac.Equal([]byte(expected), []byte(tokenValue))
}

func deriveToken(secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(tokenContext))
	return hex.EncodeToString(mac.Sum(nil))
}
