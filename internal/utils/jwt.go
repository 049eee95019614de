package utils // package utils provides helpers for admin token issuing and password checks

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminToken is a signed bearer token and its expiry.
type AdminToken struct {
	Token string    `json:"token"`
	Exp   time.Time `json:"expires"`
}

const adminRole = "admin"

// NewAdminToken signs an HS256 JWT for the admin user valid for ttl.
func NewAdminToken(secret, user string, ttl time.Duration) (AdminToken, error) {
	if secret == "" {
		return AdminToken{}, errors.New("jwt secret not configured")
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  user,
		"role": adminRole,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AdminToken{}, err
	}
	return AdminToken{Token: signed, Exp: exp}, nil
}

// ParseAdminToken validates raw and returns the subject.  Tokens signed
// with another method or lacking the admin role are rejected.
func ParseAdminToken(secret, raw string) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret not configured")
	}
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithLeeway(5*time.Second))
	if err != nil || !tok.Valid {
		return "", errors.New("invalid token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	if role, _ := claims["role"].(string); role != adminRole {
		return "", errors.New("not an admin token")
	}
	sub, _ := claims.GetSubject()
	return sub, nil
}
