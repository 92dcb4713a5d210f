package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/helpdesk-service/internal/identity"
)

// TokenManager handles issuing and validating JWT tokens. Grants embedded
// in a token are a snapshot taken at login; they stay trusted for the
// token's lifetime, so the TTL bounds grant staleness.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute}
}

// Claims describes the JWT payload.
type Claims struct {
	UserID string              `json:"user_id"`
	Grants []identity.RawGrant `json:"grants"`
	jwt.RegisteredClaims
}

// GenerateToken builds and signs a JWT carrying the user's grants.
func (tm *TokenManager) GenerateToken(userID string, grants []identity.RawGrant) (string, time.Time, error) {
	expiresAt := time.Now().Add(tm.ttl)
	claims := &Claims{
		UserID: userID,
		Grants: grants,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates the signature and expiry and returns raw claims
// ready for the identity resolver.
func (tm *TokenManager) ParseToken(tokenStr string) (identity.RawClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return identity.RawClaims{}, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return identity.RawClaims{}, errors.New("invalid token claims")
	}
	return identity.RawClaims{UserID: claims.UserID, Grants: claims.Grants}, nil
}
