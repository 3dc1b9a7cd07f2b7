package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"bskmt/internal/interfaces"
	"bskmt/internal/models"
	"bskmt/internal/services"

	"github.com/go-redis/redis_rate/v10"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type ctxKey string

var ctxKeyAuthMember ctxKey = "AUTH_MEMBER"
var ctxKeyAuthAdmin ctxKey = "AUTH_ADMIN"

func Authn(verifier interface {
	Validate(token string) (*models.MemberClaims, error)
},
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c)
			}

			parts := strings.Split(header, "Bearer")
			if len(parts) != 2 {
				return next(c)
			}

			token := strings.TrimSpace(parts[1])
			if len(token) == 0 {
				return next(c)
			}

			claims, err := verifier.Validate(token)
			if err != nil {
				// client error, but no detail leaks
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(errors.New("invalid access token"), errorx.Authn), -1)
				return nil
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, ctxKeyAuthMember, claims)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func ResolveValidMember(ctx context.Context, container *do.Injector) (*models.Member, error) {
	claims, ok := ctx.Value(ctxKeyAuthMember).(*models.MemberClaims)
	if !ok {
		return nil, errorx.Wrap(errors.New("missing session"), errorx.Authn)
	}

	serviceMember, err := do.Invoke[*services.ServiceMember](container)
	if err != nil {
		return nil, err
	}

	return serviceMember.FindMemberByID(ctx, claims.ID)
}

// AuthnAdmin gates the back-office surface behind a shared API key and a
// per-key rate limit.
func AuthnAdmin(apiKey string, limiter interfaces.Limiter, ratePerMinute int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("X-Api-Key")
			if header == "" || subtle.ConstantTimeCompare([]byte(header), []byte(apiKey)) != 1 {
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(errors.New("unauthorized"), errorx.Authn), -1)
				return nil
			}

			actor := c.Request().Header.Get("X-Actor-Id")
			if actor == "" {
				actor = "admin"
			}

			ctx := c.Request().Context()
			if err := limiter.Allow(ctx, services.LimitKeyAdmin(actor), redis_rate.PerMinute(ratePerMinute)); err != nil {
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(err, errorx.RateLimiting), -1)
				return nil
			}

			ctx = context.WithValue(ctx, ctxKeyAuthAdmin, actor)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func ResolveAdminActor(ctx context.Context) (string, error) {
	actor, ok := ctx.Value(ctxKeyAuthAdmin).(string)
	if !ok {
		return "", errorx.Wrap(errors.New("missing session"), errorx.Authn)
	}
	return actor, nil
}
