package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/commons-hub/community-api/internal/api/metrics"
	"github.com/commons-hub/community-api/internal/core/domain"
	"github.com/commons-hub/community-api/internal/core/ports"
)

const defaultNotificationLimit = 50

// SubmissionHandler serves task submissions and the notification inbox.
type SubmissionHandler struct {
	submissions   ports.SubmissionService
	notifications ports.NotificationService
}

func NewSubmissionHandler(submissions ports.SubmissionService, notifications ports.NotificationService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, notifications: notifications}
}

type createSubmissionRequest struct {
	FileRef string `json:"file_ref"`
	Note    string `json:"note"     validate:"max=2000"`
}

type reviewSubmissionRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

// Submit records the caller's response to a task and notifies the
// organization admin.
//
// @Summary      Submit to a task
// @Tags         submissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                   true  "Task id"
// @Param        body  body      createSubmissionRequest  true  "Submission"
// @Success      201   {object}  domain.Submission
// @Failure      404   {object}  errorResponse
// @Router       /v1/tasks/{id}/submissions [post]
func (h *SubmissionHandler) Submit(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req createSubmissionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sub, err := h.submissions.CreateSubmission(c.Request().Context(), actor, ports.SubmissionInput{
		TaskID:  c.Param("id"),
		FileRef: req.FileRef,
		Note:    req.Note,
	})
	if err != nil {
		return err
	}
	metrics.SubmissionsTotal.WithLabelValues(string(sub.Status)).Inc()
	return c.JSON(http.StatusCreated, sub)
}

// ListForTask returns every submission to a task. Admin only.
//
// @Summary      List task submissions
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {array}   domain.Submission
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/tasks/{id}/submissions [get]
func (h *SubmissionHandler) ListForTask(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	subs, err := h.submissions.ListSubmissions(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNilSubmissions(subs))
}

// ListMine returns the caller's own submissions.
//
// @Summary      List my submissions
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Submission
// @Router       /v1/submissions/mine [get]
func (h *SubmissionHandler) ListMine(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	subs, err := h.submissions.ListMySubmissions(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNilSubmissions(subs))
}

// Review sets a submission's status and notifies the submitter. Admin only.
//
// @Summary      Review submission
// @Tags         submissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                   true  "Submission id"
// @Param        body  body      reviewSubmissionRequest  true  "New status"
// @Success      200   {object}  domain.Submission
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/submissions/{id} [patch]
func (h *SubmissionHandler) Review(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req reviewSubmissionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sub, err := h.submissions.ReviewSubmission(c.Request().Context(), actor, c.Param("id"), req.Status)
	if err != nil {
		return err
	}
	metrics.SubmissionsTotal.WithLabelValues(string(sub.Status)).Inc()
	return c.JSON(http.StatusOK, sub)
}

// Notifications returns the caller's inbox, newest first.
//
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum entries (default 50)"
// @Success      200    {array}   domain.Notification
// @Router       /v1/notifications [get]
func (h *SubmissionHandler) Notifications(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	limit := defaultNotificationLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}
	list, err := h.notifications.List(c.Request().Context(), actor, limit)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.Notification{}
	}
	return c.JSON(http.StatusOK, list)
}

// MarkNotificationRead marks one of the caller's notifications read.
//
// @Summary      Mark notification read
// @Tags         notifications
// @Security     BearerAuth
// @Param        id   path  string  true  "Notification id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /v1/notifications/{id}/read [post]
func (h *SubmissionHandler) MarkNotificationRead(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UnreadNotifications returns how many notifications the caller has not
// read.
//
// @Summary      Unread notification count
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  countResponse
// @Router       /v1/notifications/unread-count [get]
func (h *SubmissionHandler) UnreadNotifications(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	n, err := h.notifications.UnreadCount(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, countResponse{Count: n})
}

func nonNilSubmissions(subs []*domain.Submission) []*domain.Submission {
	if subs == nil {
		return []*domain.Submission{}
	}
	return subs
}
