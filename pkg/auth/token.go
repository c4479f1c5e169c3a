package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxDeviceKey struct{}

// DeviceFromContext returns the authenticated device id, or empty when
// the request was not authenticated (auth disabled or exempt path).
func DeviceFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxDeviceKey{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func withDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, ctxDeviceKey{}, device)
}

// IssueToken signs an HS256 bearer token carrying the device id in sub.
func IssueToken(secret, device string, ttl time.Duration) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": device,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	return tok.SignedString([]byte(secret))
}

// VerifyToken validates an HS256 token and returns the device id from
// its sub claim.
func VerifyToken(secret, tokenString string) (string, error) {
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	sub, err := tok.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return sub, nil
}
