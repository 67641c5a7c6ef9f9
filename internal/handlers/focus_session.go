package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskwave-api/internal/dto"
	apierrors "github.com/yukikurage/taskwave-api/internal/errors"
	"github.com/yukikurage/taskwave-api/internal/middleware"
	"github.com/yukikurage/taskwave-api/internal/services"
	"github.com/yukikurage/taskwave-api/internal/utils"
)

type FocusSessionHandler struct {
	sessionService *services.FocusSessionService
}

func NewFocusSessionHandler(sessionService *services.FocusSessionService) *FocusSessionHandler {
	return &FocusSessionHandler{
		sessionService: sessionService,
	}
}

// ListSessions returns the caller's session history, newest first.
// page and limit are optional.
// @Summary List focus sessions
// @Tags FocusSessions
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page, from 1"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /api/focus-session [get]
func (h *FocusSessionHandler) ListSessions(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var page *utils.PaginationParams
	if params, ok := utils.GetPaginationParams(c); ok {
		page = &params
	}

	sessions, total, err := h.sessionService.ListSessions(c.Request.Context(), userID, page)
	if err != nil {
		respondSessionError(c, err)
		return
	}

	body := gin.H{"sessions": dto.ToFocusSessionDTOs(sessions)}
	if page != nil {
		body["pagination"] = utils.PaginationResponse{
			Page:  page.Page,
			Limit: page.Limit,
			Total: total,
		}
	}
	c.JSON(http.StatusOK, body)
}

// CreateSession records the start of a focus session
// @Summary Start a focus session
// @Tags FocusSessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body object true "taskId, taskName, duration, startedAt, endedAt"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} apierrors.APIError
// @Router /api/focus-session [post]
func (h *FocusSessionHandler) CreateSession(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateSessionRequest struct {
		TaskID    *string `json:"taskId"`
		TaskName  string  `json:"taskName" binding:"required,notblank"`
		Duration  int     `json:"duration" binding:"required"`
		StartedAt string  `json:"startedAt" binding:"required"`
		EndedAt   string  `json:"endedAt" binding:"required"`
	}

	var req CreateSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.sessionService.CreateSession(c.Request.Context(), services.CreateSessionInput{
		UserID:    userID,
		TaskID:    req.TaskID,
		TaskName:  req.TaskName,
		Duration:  req.Duration,
		StartedAt: req.StartedAt,
		EndedAt:   req.EndedAt,
	})
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "New session created",
		"session": dto.ToFocusSessionDTO(*session),
	})
}

// UpdateSession applies a partial update; status Success completes the session
// @Summary Update a focus session
// @Description status Success completes the session together with the other edits.
// @Tags FocusSessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param body body object true "taskId, taskName, duration, startedAt, endedAt, status; all optional"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} apierrors.APIError
// @Failure 404 {object} apierrors.APIError
// @Failure 409 {object} apierrors.APIError
// @Router /api/focus-session/{id} [put]
func (h *FocusSessionHandler) UpdateSession(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type UpdateSessionRequest struct {
		TaskID    *string `json:"taskId"`
		TaskName  *string `json:"taskName"`
		Duration  *int    `json:"duration"`
		StartedAt *string `json:"startedAt"`
		EndedAt   *string `json:"endedAt"`
		Status    *string `json:"status"`
	}

	var req UpdateSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.sessionService.UpdateSession(c.Request.Context(), userID, c.Param("id"), services.UpdateSessionInput{
		TaskID:    req.TaskID,
		TaskName:  req.TaskName,
		Duration:  req.Duration,
		StartedAt: req.StartedAt,
		EndedAt:   req.EndedAt,
		Status:    req.Status,
	})
	if err != nil {
		respondSessionError(c, err)
		return
	}

	body := gin.H{
		"message": "Session updated",
		"session": dto.ToFocusSessionDTO(*result.Session),
	}
	if result.FocusStreak != nil {
		body["focusStreak"] = *result.FocusStreak
	}
	c.JSON(http.StatusOK, body)
}

// CompleteSession marks a session successful and bumps the streak
// @Summary Complete a focus session
// @Tags FocusSessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} apierrors.APIError
// @Failure 409 {object} apierrors.APIError
// @Router /api/focus-session/{id}/complete [post]
func (h *FocusSessionHandler) CompleteSession(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	result, err := h.sessionService.CompleteSession(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Session completed",
		"session":     dto.ToFocusSessionDTO(*result.Session),
		"focusStreak": *result.FocusStreak,
	})
}

// DeleteSession deletes a session and echoes it back
// @Summary Delete a focus session
// @Tags FocusSessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} apierrors.APIError
// @Router /api/focus-session/{id} [delete]
func (h *FocusSessionHandler) DeleteSession(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	session, err := h.sessionService.DeleteSession(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Session deleted",
		"session": dto.ToFocusSessionDTO(*session),
	})
}

func respondSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		apierrors.NotFound(c, "Session not found")
	case errors.Is(err, services.ErrSessionAlreadyStopped):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrTaskNameRequired),
		errors.Is(err, services.ErrDurationTooShort),
		errors.Is(err, services.ErrInvalidSessionTime),
		errors.Is(err, services.ErrStartNotToday),
		errors.Is(err, services.ErrEndBeforeToday),
		errors.Is(err, services.ErrEndBeforeStart),
		errors.Is(err, services.ErrUnknownTask),
		errors.Is(err, services.ErrInvalidSessionStatus):
		apierrors.BadRequest(c, err.Error())
	default:
		respondInternal(c, err, "Something went wrong")
	}
}
