package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bendadvisor/internal/model"
)

func testUser() model.User {
	return model.User{
		ID:       "2d8f7a70-1111-4222-8333-444455556666",
		Username: "reviews-admin",
		Email:    "admin@example.com",
		Role:     "admin",
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: []byte("unit-test-secret"), TTL: time.Hour})

	token, err := svc.Issue(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, ok := svc.Verify(token)
	require.True(t, ok)
	require.Equal(t, "2d8f7a70-1111-4222-8333-444455556666", claims.UserID)
	require.Equal(t, "reviews-admin", claims.Username)
	require.Equal(t, "admin@example.com", claims.Email)
	require.Equal(t, "admin", claims.Role)
	require.NotEmpty(t, claims.ID)
}

func TestVerifyExpiredToken(t *testing.T) {
	svc := &TokenService{secret: []byte("unit-test-secret"), ttl: -time.Minute}

	token, err := svc.Issue(testUser())
	require.NoError(t, err)

	claims, ok := svc.Verify(token)
	require.False(t, ok)
	require.Nil(t, claims)
}

func TestVerifyTamperedToken(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: []byte("unit-test-secret"), TTL: time.Hour})

	token, err := svc.Issue(testUser())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	claims, ok := svc.Verify(tampered)
	require.False(t, ok)
	require.Nil(t, claims)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewTokenService(TokenConfig{Secret: []byte("secret-a"), TTL: time.Hour})
	verifier := NewTokenService(TokenConfig{Secret: []byte("secret-b"), TTL: time.Hour})

	token, err := issuer.Issue(testUser())
	require.NoError(t, err)

	_, ok := verifier.Verify(token)
	require.False(t, ok)
}

func TestVerifyGarbage(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: []byte("unit-test-secret"), TTL: time.Hour})

	for _, input := range []string{"", "garbage", "a.b.c", "ey.ey.ey"} {
		claims, ok := svc.Verify(input)
		require.False(t, ok, "input %q", input)
		require.Nil(t, claims)
	}
}

func TestNewTokenServiceDefaultTTL(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: []byte("s")})
	require.Equal(t, DefaultTokenTTL, svc.TTL())
}
