package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"billdesk/internal/common"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const tokenContextKey = "user"

// KeySource supplies verification keys for bearer tokens.
type KeySource struct {
	Keyfunc jwt.Keyfunc
	jwks    *keyfunc.JWKS
}

// Close stops the background JWKS refresh, if any.
func (k *KeySource) Close() {
	if k.jwks != nil {
		k.jwks.EndBackground()
	}
}

// NewKeySource prefers a remote JWKS (hosted identity provider) and falls
// back to a shared HMAC secret.
func NewKeySource(ctx context.Context, jwksURL, secret string) (*KeySource, error) {
	if strings.TrimSpace(jwksURL) != "" {
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
			Ctx:               ctx,
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  5 * time.Minute,
			RefreshTimeout:    10 * time.Second,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				log.Printf("WARN: JWKS refresh failed: %v", err)
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load JWKS from %s: %w", jwksURL, err)
		}
		return &KeySource{Keyfunc: jwks.Keyfunc, jwks: jwks}, nil
	}

	if secret == "" {
		return nil, errors.New("either AUTH_JWKS_URL or JWT_SECRET must be set")
	}
	return &KeySource{Keyfunc: HMACKeyfunc(secret)}, nil
}

// HMACKeyfunc accepts only HMAC-signed tokens.
func HMACKeyfunc(secret string) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}
}

// JWTMiddleware validates the bearer token and stores its subject as the
// owner id on the request context.
func JWTMiddleware(keys jwt.Keyfunc) echo.MiddlewareFunc {
	validate := echojwt.WithConfig(echojwt.Config{
		KeyFunc:    keys,
		ContextKey: tokenContextKey,
		ErrorHandler: func(c echo.Context, err error) error {
			return common.SendUnauthorizedError(c)
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return validate(func(c echo.Context) error {
			token, ok := c.Get(tokenContextKey).(*jwt.Token)
			if !ok {
				return common.SendUnauthorizedError(c)
			}

			sub, err := token.Claims.GetSubject()
			if err != nil || strings.TrimSpace(sub) == "" {
				return common.SendUnauthorizedError(c)
			}

			ctx := common.WithOwnerID(c.Request().Context(), sub)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		})
	}
}
