package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/commons-hub/community-api/internal/core/domain"
	"github.com/commons-hub/community-api/internal/core/ports"
)

// UserHandler serves profiles and onboarding.
type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type profileRequest struct {
	Username    *string  `json:"username"`
	DisplayName *string  `json:"display_name"`
	Age         *int     `json:"age"`
	Bio         *string  `json:"bio"          validate:"omitempty,max=500"`
	Interests   []string `json:"interests"    validate:"omitempty,max=20"`
	Links       []string `json:"links"        validate:"omitempty,max=10"`
	ImageRefs   []string `json:"image_refs"   validate:"omitempty,max=10"`
}

func (r profileRequest) patch() domain.ProfilePatch {
	return domain.ProfilePatch{
		Username:    r.Username,
		DisplayName: r.DisplayName,
		Age:         r.Age,
		Bio:         r.Bio,
		Interests:   r.Interests,
		Links:       r.Links,
		ImageRefs:   r.ImageRefs,
	}
}

type usernameAvailabilityResponse struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
}

// Me returns the caller's profile.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  errorResponse
// @Router       /v1/users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetMe(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateMe edits the caller's profile. Omitted fields are left unchanged.
//
// @Summary      Update profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      profileRequest  true  "Profile fields"
// @Success      200   {object}  domain.User
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/users/me [patch]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req profileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateProfile(c.Request().Context(), actor, req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// CompleteOnboarding stores the onboarding answers and marks the user
// onboarded.
//
// @Summary      Complete onboarding
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      profileRequest  true  "Onboarding answers"
// @Success      200   {object}  domain.User
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/users/me/onboarding [post]
func (h *UserHandler) CompleteOnboarding(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req profileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.users.CompleteOnboarding(c.Request().Context(), actor, req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Get returns a user by internal or external id.
//
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Internal or external user id"
// @Success      200  {object}  domain.User
// @Failure      404  {object}  errorResponse
// @Router       /v1/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.users.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// GetByUsername looks a user up by username.
//
// @Summary      Get user by username
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  domain.User
// @Failure      404       {object}  errorResponse
// @Router       /v1/users/by-username/{username} [get]
func (h *UserHandler) GetByUsername(c echo.Context) error {
	user, err := h.users.GetByUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// CheckUsername reports whether a username is free.
//
// @Summary      Check username availability
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        username  query     string  true  "Username candidate"
// @Success      200       {object}  usernameAvailabilityResponse
// @Failure      422       {object}  errorResponse
// @Router       /v1/users/username-available [get]
func (h *UserHandler) CheckUsername(c echo.Context) error {
	username := c.QueryParam("username")
	available, err := h.users.UsernameAvailable(c.Request().Context(), username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usernameAvailabilityResponse{
		Username:  domain.NormalizeUsername(username),
		Available: available,
	})
}
