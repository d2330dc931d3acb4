package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/commons-hub/community-api/internal/api/metrics"
	"github.com/commons-hub/community-api/internal/core/domain"
	"github.com/commons-hub/community-api/internal/core/ports"
)

// BoardHandler serves organizations, checklists and tasks.
type BoardHandler struct {
	board ports.BoardService
}

func NewBoardHandler(board ports.BoardService) *BoardHandler {
	return &BoardHandler{board: board}
}

type createOrganizationRequest struct {
	Name        string `json:"name"        validate:"required"`
	Description string `json:"description"`
	LogoRef     string `json:"logo_ref"`
}

type updateOrganizationRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	LogoRef     *string `json:"logo_ref"`
}

type createChecklistRequest struct {
	Title string   `json:"title" validate:"required"`
	Items []string `json:"items" validate:"required,min=1,dive,required"`
}

// createTaskRequest accepts reward as a bare number of points or as an award
// object {type, amount, currency, description}.
type createTaskRequest struct {
	Category    string        `json:"category"     validate:"required"`
	Name        string        `json:"name"         validate:"required"`
	Text        string        `json:"text"`
	ForRole     string        `json:"for_role"`
	Reward      domain.Reward `json:"reward"       swaggertype:"object"`
	Description string        `json:"description"`
	Explanation string        `json:"explanation"`
	ChecklistID string        `json:"checklist_id"`
}

type createdResponse struct {
	ID string `json:"id"`
}

// CreateOrganization registers an organization administered by the caller.
//
// @Summary      Create organization
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createOrganizationRequest  true  "Organization"
// @Success      201   {object}  domain.Organization
// @Failure      400   {object}  errorResponse
// @Router       /v1/organizations [post]
func (h *BoardHandler) CreateOrganization(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req createOrganizationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	org, err := h.board.CreateOrganization(c.Request().Context(), actor, ports.CreateOrganizationInput{
		Name:        req.Name,
		Description: req.Description,
		LogoRef:     req.LogoRef,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, org)
}

// GetOrganization returns an organization.
//
// @Summary      Get organization
// @Tags         organizations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Organization id"
// @Success      200  {object}  domain.Organization
// @Failure      404  {object}  errorResponse
// @Router       /v1/organizations/{id} [get]
func (h *BoardHandler) GetOrganization(c echo.Context) error {
	org, err := h.board.GetOrganization(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, org)
}

// UpdateOrganization patches an organization. Admin only.
//
// @Summary      Update organization
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                     true  "Organization id"
// @Param        body  body      updateOrganizationRequest  true  "Fields to change"
// @Success      200   {object}  domain.Organization
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/organizations/{id} [patch]
func (h *BoardHandler) UpdateOrganization(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req updateOrganizationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	org, err := h.board.UpdateOrganization(c.Request().Context(), actor, c.Param("id"), domain.OrganizationPatch{
		Name:        req.Name,
		Description: req.Description,
		LogoRef:     req.LogoRef,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, org)
}

// CreateChecklist adds a checklist to an organization. Admin only.
//
// @Summary      Create checklist
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                  true  "Organization id"
// @Param        body  body      createChecklistRequest  true  "Checklist"
// @Success      201   {object}  domain.Checklist
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/organizations/{id}/checklists [post]
func (h *BoardHandler) CreateChecklist(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req createChecklistRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	cl, err := h.board.CreateChecklist(c.Request().Context(), actor, ports.CreateChecklistInput{
		OrganizationID: c.Param("id"),
		Title:          req.Title,
		Items:          req.Items,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cl)
}

// GetChecklist returns a checklist.
//
// @Summary      Get checklist
// @Tags         organizations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Checklist id"
// @Success      200  {object}  domain.Checklist
// @Failure      404  {object}  errorResponse
// @Router       /v1/checklists/{id} [get]
func (h *BoardHandler) GetChecklist(c echo.Context) error {
	cl, err := h.board.GetChecklist(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cl)
}

// CreateTask adds a task to an organization's board. Admin only.
//
// @Summary      Create task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Organization id"
// @Param        body  body      createTaskRequest  true  "Task"
// @Success      201   {object}  createdResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/organizations/{id}/tasks [post]
func (h *BoardHandler) CreateTask(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req createTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	id, err := h.board.CreateTask(c.Request().Context(), actor, domain.NewTask{
		OrganizationID: c.Param("id"),
		Category:       req.Category,
		Name:           req.Name,
		Text:           req.Text,
		ForRole:        req.ForRole,
		Reward:         req.Reward,
		Description:    req.Description,
		Explanation:    req.Explanation,
		ChecklistID:    req.ChecklistID,
	})
	if err != nil {
		return err
	}
	metrics.TasksCreatedTotal.WithLabelValues(string(req.Reward.Kind())).Inc()
	return c.JSON(http.StatusCreated, createdResponse{ID: id})
}

// ListTasks returns an organization's board, optionally filtered by
// category.
//
// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id        path      string  true   "Organization id"
// @Param        category  query     string  false  "Only tasks in this category"
// @Success      200       {array}   domain.Task
// @Router       /v1/organizations/{id}/tasks [get]
func (h *BoardHandler) ListTasks(c echo.Context) error {
	tasks, err := h.board.ListTasks(c.Request().Context(), c.Param("id"), c.QueryParam("category"))
	if err != nil {
		return err
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return c.JSON(http.StatusOK, tasks)
}

// GetTask returns a task with its organization and checklist.
//
// @Summary      Get task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  domain.TaskDetail
// @Failure      404  {object}  errorResponse
// @Router       /v1/tasks/{id} [get]
func (h *BoardHandler) GetTask(c echo.Context) error {
	detail, err := h.board.GetTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

// DeleteTask removes a task. Its submissions are kept. Admin only.
//
// @Summary      Delete task
// @Tags         tasks
// @Security     BearerAuth
// @Param        id   path  string  true  "Task id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/tasks/{id} [delete]
func (h *BoardHandler) DeleteTask(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	if err := h.board.DeleteTask(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
