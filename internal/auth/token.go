package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"bendadvisor/internal/model"
)

const DefaultTokenTTL = 24 * time.Hour

// Claims is the decoded payload of a session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// TokenConfig is injected at construction; the service holds no global state.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(cfg TokenConfig) *TokenService {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: cfg.Secret, ttl: ttl}
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

func (s *TokenService) Issue(user model.User) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	})

	return token.SignedString(s.secret)
}

// Verify returns the decoded claims and true when the signature checks out
// against the current secret and the expiry has not passed. Any failure
// (tampered, expired, malformed, wrong signing method) yields (nil, false);
// callers never see an error.
func (s *TokenService) Verify(tokenString string) (*Claims, bool) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, model.ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, false
	}

	if claims.UserID == "" {
		return nil, false
	}

	return claims, true
}
