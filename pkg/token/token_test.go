package token_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"packly/pkg/ability"
	"packly/pkg/token"
)

func testConfig() token.Config {
	return token.Config{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		Issuer:        "packly",
		Audience:      "packly-api",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		RememberMeTTL: 30 * 24 * time.Hour,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	codec := token.NewCodec(testConfig())
	userID := uuid.New().String()

	signed, err := codec.SignAccessToken(userID, ability.RoleUser)
	require.NoError(t, err)

	identity, err := codec.VerifyAccessToken(signed)
	require.NoError(t, err)
	require.Equal(t, userID, identity.ID)
	require.Equal(t, ability.RoleUser, identity.Role)
	require.WithinDuration(t, time.Now(), identity.IssuedAt, 5*time.Second)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	codec := token.NewCodec(testConfig())
	userID := uuid.New().String()

	signed, err := codec.SignRefreshToken(userID, false)
	require.NoError(t, err)

	identity, err := codec.VerifyRefreshToken(signed)
	require.NoError(t, err)
	require.Equal(t, userID, identity.ID)
	require.WithinDuration(t, time.Now(), identity.IssuedAt, 5*time.Second)
}

func TestTamperedSignatureIsRejected(t *testing.T) {
	codec := token.NewCodec(testConfig())

	signed, err := codec.SignAccessToken(uuid.New().String(), ability.RoleAdmin)
	require.NoError(t, err)

	// Flip the first character of the signature segment.
	idx := strings.LastIndex(signed, ".") + 1
	replacement := byte('A')
	if signed[idx] == 'A' {
		replacement = 'B'
	}
	tampered := signed[:idx] + string(replacement) + signed[idx+1:]

	_, err = codec.VerifyAccessToken(tampered)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestSecretsAreNotInterchangeable(t *testing.T) {
	codec := token.NewCodec(testConfig())
	userID := uuid.New().String()

	t.Run("refresh token rejected by access verifier", func(t *testing.T) {
		refresh, err := codec.SignRefreshToken(userID, false)
		require.NoError(t, err)

		_, err = codec.VerifyAccessToken(refresh)
		require.ErrorIs(t, err, token.ErrInvalidToken)
	})

	t.Run("access token rejected by refresh verifier", func(t *testing.T) {
		access, err := codec.SignAccessToken(userID, ability.RoleUser)
		require.NoError(t, err)

		_, err = codec.VerifyRefreshToken(access)
		require.ErrorIs(t, err, token.ErrInvalidToken)
	})
}

func TestVerifyAccessTokenClaimFailures(t *testing.T) {
	cfg := testConfig()
	codec := token.NewCodec(cfg)

	sign := func(t *testing.T, claims jwt.MapClaims) string {
		t.Helper()
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
			SignedString([]byte(cfg.AccessSecret))
		require.NoError(t, err)
		return signed
	}

	now := time.Now()
	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub":  uuid.New().String(),
			"role": "USER",
			"iss":  cfg.Issuer,
			"aud":  cfg.Audience,
			"iat":  now.Unix(),
			"exp":  now.Add(time.Minute).Unix(),
		}
	}

	cases := []struct {
		name   string
		mutate func(jwt.MapClaims)
	}{
		{"wrong issuer", func(m jwt.MapClaims) { m["iss"] = "someone-else" }},
		{"wrong audience", func(m jwt.MapClaims) { m["aud"] = "other-api" }},
		{"malformed subject", func(m jwt.MapClaims) { m["sub"] = "not-a-uuid" }},
		{"unknown role", func(m jwt.MapClaims) { m["role"] = "SUPERUSER" }},
		{"missing iat", func(m jwt.MapClaims) { delete(m, "iat") }},
		{"expired", func(m jwt.MapClaims) {
			m["iat"] = now.Add(-2 * time.Hour).Unix()
			m["exp"] = now.Add(-time.Hour).Unix()
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims := base()
			tc.mutate(claims)

			_, err := codec.VerifyAccessToken(sign(t, claims))
			require.ErrorIs(t, err, token.ErrInvalidToken)
		})
	}

	t.Run("all claims valid", func(t *testing.T) {
		identity, err := codec.VerifyAccessToken(sign(t, base()))
		require.NoError(t, err)
		require.Equal(t, ability.RoleUser, identity.Role)
	})
}

func TestRememberMeExtendsRefreshTTL(t *testing.T) {
	cfg := testConfig()
	codec := token.NewCodec(cfg)
	userID := uuid.New().String()

	expiryOf := func(t *testing.T, signed string) time.Time {
		t.Helper()
		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(cfg.RefreshSecret), nil
		})
		require.NoError(t, err)
		return claims.ExpiresAt.Time
	}

	standard, err := codec.SignRefreshToken(userID, false)
	require.NoError(t, err)
	extended, err := codec.SignRefreshToken(userID, true)
	require.NoError(t, err)

	diff := expiryOf(t, extended).Sub(expiryOf(t, standard))
	require.InDelta(t, (cfg.RememberMeTTL - cfg.RefreshTTL).Seconds(), diff.Seconds(), 5)
}

func TestHashOpaqueToken(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a, err := token.HashOpaqueToken("some-reset-token")
		require.NoError(t, err)
		b, err := token.HashOpaqueToken("some-reset-token")
		require.NoError(t, err)
		require.Equal(t, a, b)
		require.Len(t, a, 64)
	})

	t.Run("different inputs differ", func(t *testing.T) {
		a, err := token.HashOpaqueToken("token-one")
		require.NoError(t, err)
		b, err := token.HashOpaqueToken("token-two")
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})

	t.Run("empty input rejected", func(t *testing.T) {
		_, err := token.HashOpaqueToken("")
		require.ErrorIs(t, err, token.ErrEmptyToken)
	})
}

func TestGenerateOpaqueTokenPair(t *testing.T) {
	raw, hash, err := token.GenerateOpaqueTokenPair()
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	require.False(t, strings.Contains(raw, " "))

	rehashed, err := token.HashOpaqueToken(raw)
	require.NoError(t, err)
	require.Equal(t, hash, rehashed)

	raw2, _, err := token.GenerateOpaqueTokenPair()
	require.NoError(t, err)
	require.NotEqual(t, raw, raw2)
}
