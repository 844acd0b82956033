package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dkeye/VoiceRelay/internal/config"
	"github.com/dkeye/VoiceRelay/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims represents JWT payload for authenticated users.
type Claims struct {
	UserID   string `json:"uid"`
	Username string `json:"uname"`
	jwt.RegisteredClaims
}

// NewToken generates a signed JWT for the provided user.
func NewToken(cfg config.JWTConfig, user domain.User) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(cfg.Expiration)
	claims := Claims{
		UserID:   string(user.ID),
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    cfg.Issuer,
			Subject:   string(user.ID),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	return signed, expires, err
}

// ParseToken validates the provided token string and extracts claims.
func ParseToken(cfg config.JWTConfig, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(cfg.Issuer))
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	if domain.UserID(claims.UserID).IsAnonymous() {
		return nil, errors.Join(ErrInvalidToken, domain.ErrReservedUserID)
	}
	return claims, nil
}

// User converts claims into the identity the relay works with.
func (c *Claims) User() domain.User {
	return domain.User{ID: domain.UserID(c.UserID), Username: c.Username}
}
