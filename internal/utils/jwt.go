package utils // package utils provides helpers for password hashing and bearer tokens

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// claim checks.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Principal is the identity carried by a verified access token.
type Principal struct {
	UserID uint64
	Role   string
}

// NewAccessToken builds and signs an HS256 JWT for a user with the claim
// layout ParseAccessToken expects (sub, role, exp, iat).  The server never
// issues tokens; this is for tests and for minting local tokens by hand.
func NewAccessToken(secret string, userID uint64, role string, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw with secret and extracts the principal.
// The sub claim may be a JSON number or a decimal string.
func ParseAccessToken(secret, raw string) (Principal, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return Principal{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrInvalidToken
	}

	var id uint64
	switch v := claims["sub"].(type) {
	case float64:
		if v > 0 {
			id = uint64(v)
		}
	case string:
		id, _ = strconv.ParseUint(v, 10, 64)
	}
	if id == 0 {
		return Principal{}, ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	return Principal{UserID: id, Role: role}, nil
}
