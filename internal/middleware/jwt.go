package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/common"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// JWTConfig selects how bearer tokens are verified. JWKSURL wins over Secret.
type JWTConfig struct {
	Secret  string
	JWKSURL string
}

// Enabled reports whether any verification key is configured.
func (cfg JWTConfig) Enabled() bool {
	return cfg.Secret != "" || cfg.JWKSURL != ""
}

// JWTAuth returns a middleware that requires a valid bearer token and stores
// its subject in the request context. With no key configured it is a no-op.
// The returned stop func ends background JWKS refreshes.
func JWTAuth(cfg JWTConfig) (echo.MiddlewareFunc, func(), error) {
	if !cfg.Enabled() {
		log.Warn().Msg("no JWT_SECRET or JWKS_URL configured, admin routes are unauthenticated")
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }, func() {}, nil
	}

	config := echojwt.Config{
		SuccessHandler: func(c echo.Context) {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return
			}
			sub, err := token.Claims.GetSubject()
			if err != nil || sub == "" {
				return
			}
			ctx := context.WithValue(c.Request().Context(), common.SubjectKey, sub)
			c.SetRequest(c.Request().WithContext(ctx))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			log.Debug().Err(err).Str("path", c.Path()).Msg("jwt rejected")
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		},
	}

	stop := func() {}
	if cfg.JWKSURL != "" {
		jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  5 * time.Minute,
			RefreshTimeout:    10 * time.Second,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				log.Error().Err(err).Str("jwks_url", cfg.JWKSURL).Msg("jwks refresh failed")
			},
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load JWKS: %w", err)
		}
		config.KeyFunc = jwks.Keyfunc
		stop = jwks.EndBackground
	} else {
		config.SigningKey = []byte(cfg.Secret)
	}

	return echojwt.WithConfig(config), stop, nil
}
