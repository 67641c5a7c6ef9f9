package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskwave-api/internal/dto"
	apierrors "github.com/yukikurage/taskwave-api/internal/errors"
	"github.com/yukikurage/taskwave-api/internal/middleware"
	"github.com/yukikurage/taskwave-api/internal/models"
	"github.com/yukikurage/taskwave-api/internal/services"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

func (h *TaskHandler) toDTO(task models.Task) dto.TaskDTO {
	return dto.ToTaskDTO(task, h.taskService.Now(), h.taskService.Location())
}

// ListTasks returns the caller's tasks
// Filters: status, priority, createdAt, dueDate
// @Summary List tasks
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, completed or missed"
// @Param priority query string false "low, medium or high"
// @Param createdAt query string false "YYYY-MM-DD"
// @Param dueDate query string false "YYYY-MM-DD"
// @Success 200 {object} map[string][]dto.TaskDTO
// @Failure 400 {object} apierrors.APIError
// @Router /api/tasks [get]
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	tasks, err := h.taskService.ListTasks(c.Request.Context(), services.ListTasksInput{
		UserID:    userID,
		Status:    c.Query("status"),
		Priority:  c.Query("priority"),
		CreatedAt: c.Query("createdAt"),
		DueDate:   c.Query("dueDate"),
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": dto.ToTaskDTOs(tasks, h.taskService.Now(), h.taskService.Location()),
	})
}

// GetStats returns task counts by derived status
// @Summary Count tasks by status
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.TaskStats
// @Router /api/tasks/stats [get]
func (h *TaskHandler) GetStats(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	stats, err := h.taskService.Stats(c.Request.Context(), userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetTask returns a specific task by ID
// @Summary Get a task
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} dto.TaskDTO
// @Failure 404 {object} apierrors.APIError
// @Router /api/tasks/{id} [get]
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.toDTO(*task))
}

// CreateTask creates a new task
// @Summary Create a task
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body object true "title, description, priority, dueDate"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} apierrors.APIError
// @Router /api/tasks [post]
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Title       string `json:"title" binding:"required,notblank"`
		Description string `json:"description" binding:"required,notblank"`
		Priority    string `json:"priority" binding:"required,taskpriority"`
		DueDate     string `json:"dueDate" binding:"required"`
	}

	var req CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "New task created",
		"task":    h.toDTO(*task),
	})
}

// UpdateTask updates the provided fields of a task
// @Summary Update a task
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param body body object true "title, description, priority, dueDate, completed; all optional"
// @Success 200 {object} services.TaskStatserface{}
// @Failure 400 {object} apierrors.APIError
// @Failure 404 {object} apierrors.APIError
// @Router /api/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type UpdateTaskRequest struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Priority    *string `json:"priority" binding:"omitempty,taskpriority"`
		DueDate     *string `json:"dueDate"`
		Completed   *bool   `json:"completed"`
	}

	var req UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), userID, c.Param("id"), services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Completed:   req.Completed,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task updated",
		"task":    h.toDTO(*task),
	})
}

// DeleteTask deletes a task and echoes it back
// @Summary Delete a task
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} services.TaskStatserface{}
// @Failure 404 {object} apierrors.APIError
// @Router /api/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	task, err := h.taskService.DeleteTask(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
		"task":    h.toDTO(*task),
	})
}

// GenerateTasks drafts tasks from free text using AI
// @Summary Draft tasks from free text
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body object true "text"
// @Success 200 {object} services.TaskStatserface{}
// @Failure 400 {object} apierrors.APIError
// @Failure 503 {object} apierrors.APIError
// @Router /api/tasks/generate [post]
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	type GenerateTasksRequest struct {
		Text string `json:"text" binding:"required,notblank"`
	}

	var req GenerateTasksRequest
	if !bindJSON(c, &req) {
		return
	}

	tasks, err := h.taskService.GenerateTasks(c.Request.Context(), req.Text)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
	})
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrDescriptionRequired),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrInvalidDueDate),
		errors.Is(err, services.ErrDueDateInPast),
		errors.Is(err, services.ErrInvalidFilter),
		errors.Is(err, services.ErrTextRequired):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "Task suggestions are not available")
	case errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.BadRequest(c, err.Error())
	default:
		respondInternal(c, err, "Something went wrong")
	}
}
