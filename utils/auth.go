package utils

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
	"github.com/kataras/iris/v12"
)

// GuestClaims are the access token claims accepted on booking routes.
type GuestClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks bearer tokens either against a shared HS256 secret or
// against a remote JWKS.
type Verifier struct {
	keyFunc jwt.Keyfunc
	jwks    *keyfunc.JWKS
}

func NewHMACVerifier(secret string) *Verifier {
	key := []byte(secret)
	return &Verifier{keyFunc: func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return key, nil
	}}
}

func NewJWKSVerifier(jwksURL string, log *slog.Logger) (*Verifier, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval: time.Hour,
		RefreshTimeout:  10 * time.Second,
		RefreshErrorHandler: func(err error) {
			log.Error("refreshing JWKS", "url", jwksURL, "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("loading JWKS from %s: %w", jwksURL, err)
	}
	return &Verifier{keyFunc: jwks.Keyfunc, jwks: jwks}, nil
}

func (v *Verifier) Verify(raw string) (*GuestClaims, error) {
	claims := &GuestClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, v.keyFunc)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (v *Verifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// TokenMiddleware rejects requests without a valid bearer token and stores
// the token subject under "guestID".
func TokenMiddleware(v *Verifier) iris.Handler {
	return func(ctx iris.Context) {
		header := ctx.GetHeader("Authorization")
		raw := strings.TrimPrefix(header, "Bearer ")
		if header == "" || raw == header {
			JSONError(ctx, iris.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		claims, err := v.Verify(raw)
		if err != nil {
			JSONError(ctx, iris.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		ctx.Values().Set("guestID", claims.Subject)
		ctx.Next()
	}
}
