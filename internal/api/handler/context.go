package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/commons-hub/community-api/internal/api/middleware"
	"github.com/commons-hub/community-api/internal/core/domain"
)

// errorResponse documents the error envelope rendered by the API error
// handler.
type errorResponse struct {
	Error string `json:"error"`
}

// currentActor returns the caller injected by the Auth middleware and fails
// fast with 401 before any service call when it is missing.
func currentActor(c echo.Context) (domain.Actor, error) {
	actor := middleware.ActorFrom(c)
	if !actor.Authenticated() {
		return domain.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return actor, nil
}

// bindAndValidate decodes the request into req and runs the registered
// validator when there is one.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
