package dto

import (
	"time"

	"github.com/yukikurage/taskwave-api/internal/models"
)

// TaskDTO represents a task in API responses. Status is derived at response time.
type TaskDTO struct {
	ID          string              `json:"id"`
	UserID      string              `json:"userId"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     time.Time           `json:"dueDate"`
	Completed   bool                `json:"completed"`
	Status      models.TaskStatus   `json:"status"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task, now time.Time, loc *time.Location) TaskDTO {
	return TaskDTO{
		ID:          task.ID,
		UserID:      task.UserID,
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		Completed:   task.Completed,
		Status:      task.StatusAt(now, loc),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// ToTaskDTOs converts a slice of tasks, never returning nil
func ToTaskDTOs(tasks []models.Task, now time.Time, loc *time.Location) []TaskDTO {
	out := make([]TaskDTO, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, ToTaskDTO(task, now, loc))
	}
	return out
}
