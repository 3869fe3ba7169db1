package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultSecret = "pagecraft-secret-change-me"

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var secret = []byte(defaultSecret)

var ErrWrongType = errors.New("unexpected token type")

// SetSecret configures the JWT signing secret (call on startup).
func SetSecret(s string) {
	if s != "" {
		secret = []byte(s)
	}
}

// Claims is the JWT payload. IsAdmin is computed when the token is issued and
// is only meaningful on access tokens.
type Claims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"sid"`
	Type      string `json:"typ"`
	IsAdmin   bool   `json:"adm,omitempty"`
	jwtlib.RegisteredClaims
}

// SignAccess creates a short-lived access token bound to a session.
func SignAccess(userID, sessionID string, isAdmin bool, ttl time.Duration) (string, error) {
	return sign(Claims{
		UserID:    userID,
		SessionID: sessionID,
		Type:      TypeAccess,
		IsAdmin:   isAdmin,
	}, "", ttl)
}

// SignRefresh creates a refresh token and returns it with its jti.
func SignRefresh(userID, sessionID string, ttl time.Duration) (string, string, error) {
	jti := uuid.NewString()
	token, err := sign(Claims{
		UserID:    userID,
		SessionID: sessionID,
		Type:      TypeRefresh,
	}, jti, ttl)
	return token, jti, err
}

func sign(claims Claims, jti string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwtlib.RegisteredClaims{
		ID:        jti,
		Subject:   claims.UserID,
		ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwtlib.NewNumericDate(now),
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Parse validates a token string and returns the claims.
func Parse(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// ParseAccess parses a token and requires it to be an access token.
func ParseAccess(tokenStr string) (*Claims, error) {
	return parseTyped(tokenStr, TypeAccess)
}

// ParseRefresh parses a token and requires it to be a refresh token.
func ParseRefresh(tokenStr string) (*Claims, error) {
	return parseTyped(tokenStr, TypeRefresh)
}

func parseTyped(tokenStr, typ string) (*Claims, error) {
	claims, err := Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Type != typ {
		return nil, ErrWrongType
	}
	return claims, nil
}
