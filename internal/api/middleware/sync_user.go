package middleware

import (
	"context"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/commons-hub/community-api/internal/core/domain"
)

type userEnsurer interface {
	EnsureUser(ctx context.Context, actor domain.Actor) (*domain.User, error)
}

// SyncUser creates the caller's user record on their first authenticated
// request. Ids already ensured by this process are skipped.
func SyncUser(users userEnsurer) echo.MiddlewareFunc {
	var seen sync.Map

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := ActorFrom(c)
			if !actor.Authenticated() {
				return next(c)
			}
			if _, ok := seen.Load(actor.ExternalID); !ok {
				if _, err := users.EnsureUser(c.Request().Context(), actor); err != nil {
					return err
				}
				seen.Store(actor.ExternalID, struct{}{})
			}
			return next(c)
		}
	}
}
