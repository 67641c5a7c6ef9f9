package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/taskwave-api/internal/constants"
	"github.com/yukikurage/taskwave-api/internal/models"
	"github.com/yukikurage/taskwave-api/internal/repository"
	"github.com/yukikurage/taskwave-api/internal/utils"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrTitleRequired          = errors.New("title is required")
	ErrDescriptionRequired    = errors.New("description is required")
	ErrInvalidPriority        = errors.New("priority must be one of low, medium, high")
	ErrInvalidDueDate         = errors.New("dueDate must be a valid date")
	ErrDueDateInPast          = errors.New("dueDate must be today or in the future")
	ErrInvalidFilter          = errors.New("invalid filter")
	ErrTextRequired           = errors.New("text is required")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// TaskSuggester turns free text into task drafts.
type TaskSuggester interface {
	SuggestTasks(ctx context.Context, text string, now time.Time) ([]GeneratedTask, error)
}

// TaskService handles task business logic
type TaskService struct {
	taskRepo repository.TaskRepository
	ai       TaskSuggester
	cal      Calendar
}

// NewTaskService creates a new TaskService. ai may be nil.
func NewTaskService(taskRepo repository.TaskRepository, ai TaskSuggester, cal Calendar) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		ai:       ai,
		cal:      cal,
	}
}

// ListTasksInput represents filters for listing tasks. Empty strings mean no filter.
type ListTasksInput struct {
	UserID    string
	Status    string
	Priority  string
	CreatedAt string
	DueDate   string
}

// TaskStats tallies the caller's tasks by derived status
type TaskStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Missed    int `json:"missed"`
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	UserID      string
	Title       string
	Description string
	Priority    string
	DueDate     string
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Priority    *string
	DueDate     *string
	Completed   *bool
}

// Now returns the service clock, used for deriving task status in responses.
func (s *TaskService) Now() time.Time {
	return s.cal.Now()
}

// Location returns the calendar time zone.
func (s *TaskService) Location() *time.Location {
	return s.cal.Loc
}

// ListTasks returns the caller's tasks matching every provided filter.
// Status uses the same calendar-day rule as stats.
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) ([]models.Task, error) {
	filter := repository.TaskFilter{UserID: input.UserID}
	var dueFrom, dueTo *time.Time

	if input.Status != "" {
		today := s.cal.StartOfToday()
		completed := false
		switch strings.ToLower(input.Status) {
		case "completed":
			completed = true
		case "pending":
			dueFrom = &today
		case "missed":
			dueTo = &today
		default:
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, input.Status)
		}
		filter.Completed = &completed
	}

	if input.Priority != "" {
		priority := models.TaskPriority(strings.ToLower(input.Priority))
		if !priority.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidFilter, input.Priority)
		}
		filter.Priority = &priority
	}

	if input.DueDate != "" {
		day, err := s.cal.Parse(input.DueDate)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		from, to := utils.DayRange(day, s.cal.Loc)
		dueFrom = later(dueFrom, from)
		dueTo = earlier(dueTo, to)
	}
	filter.DueDateFrom = dueFrom
	filter.DueDateTo = dueTo

	if input.CreatedAt != "" {
		day, err := s.cal.Parse(input.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		from, to := utils.DayRange(day, s.cal.Loc)
		filter.CreatedFrom = &from
		filter.CreatedTo = &to
	}

	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Stats classifies every task of the caller by calendar day
func (s *TaskService) Stats(ctx context.Context, userID string) (*TaskStats, error) {
	tasks, err := s.taskRepo.List(ctx, repository.TaskFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	now := s.cal.Now()
	stats := &TaskStats{Total: len(tasks)}
	for i := range tasks {
		switch tasks[i].StatusAt(now, s.cal.Loc) {
		case models.TaskStatusCompleted:
			stats.Completed++
		case models.TaskStatusMissed:
			stats.Missed++
		default:
			stats.Pending++
		}
	}
	return stats, nil
}

// GetTask returns a task owned by userID
func (s *TaskService) GetTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, mapTaskError(err, "failed to find task")
	}
	return task, nil
}

// CreateTask validates and persists a task for the caller
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title, err := requireText(input.Title, ErrTitleRequired)
	if err != nil {
		return nil, err
	}
	description, err := requireText(input.Description, ErrDescriptionRequired)
	if err != nil {
		return nil, err
	}
	priority, err := parsePriority(input.Priority)
	if err != nil {
		return nil, err
	}
	dueDate, err := s.parseDueDate(input.DueDate)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		UserID:      input.UserID,
		Title:       title,
		Description: description,
		Priority:    priority,
		DueDate:     dueDate.UTC(),
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// UpdateTask applies the provided fields with the same rules as CreateTask
func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID string, input UpdateTaskInput) (*models.Task, error) {
	update := repository.TaskUpdate{Completed: input.Completed}

	if input.Title != nil {
		title, err := requireText(*input.Title, ErrTitleRequired)
		if err != nil {
			return nil, err
		}
		update.Title = &title
	}
	if input.Description != nil {
		description, err := requireText(*input.Description, ErrDescriptionRequired)
		if err != nil {
			return nil, err
		}
		update.Description = &description
	}
	if input.Priority != nil {
		priority, err := parsePriority(*input.Priority)
		if err != nil {
			return nil, err
		}
		update.Priority = &priority
	}
	if input.DueDate != nil {
		dueDate, err := s.parseDueDate(*input.DueDate)
		if err != nil {
			return nil, err
		}
		update.DueDate = &dueDate
	}

	task, err := s.taskRepo.Update(ctx, userID, taskID, update)
	if err != nil {
		return nil, mapTaskError(err, "failed to update task")
	}
	return task, nil
}

// DeleteTask removes a task and returns it
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task, err := s.taskRepo.Delete(ctx, userID, taskID)
	if err != nil {
		return nil, mapTaskError(err, "failed to delete task")
	}
	return task, nil
}

// GenerateTasks uses AI to draft tasks from text. Nothing is persisted.
func (s *TaskService) GenerateTasks(ctx context.Context, text string) ([]GeneratedTask, error) {
	if s.ai == nil {
		return nil, ErrAIServiceNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrTextRequired
	}

	aiTasks, err := s.ai.SuggestTasks(ctx, text, s.cal.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		aiTasks = aiTasks[:constants.MaxAIGeneratedTasks]
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	for _, aiTask := range aiTasks {
		aiTask.Title = strings.TrimSpace(aiTask.Title)
		if aiTask.Title == "" {
			continue
		}
		if !aiTask.Priority.Valid() {
			aiTask.Priority = models.PriorityMedium
		}
		if aiTask.DueDate != nil && !s.cal.IsTodayOrLater(*aiTask.DueDate) {
			aiTask.DueDate = nil
		}
		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}
	return validTasks, nil
}

func (s *TaskService) parseDueDate(value string) (time.Time, error) {
	dueDate, err := s.cal.Parse(value)
	if err != nil {
		return time.Time{}, ErrInvalidDueDate
	}
	if !s.cal.IsTodayOrLater(dueDate) {
		return time.Time{}, ErrDueDateInPast
	}
	return dueDate, nil
}

func requireText(value string, missing error) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", missing
	}
	return value, nil
}

func parsePriority(value string) (models.TaskPriority, error) {
	priority := models.TaskPriority(strings.ToLower(strings.TrimSpace(value)))
	if !priority.Valid() {
		return "", ErrInvalidPriority
	}
	return priority, nil
}

func mapTaskError(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTaskNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func later(current *time.Time, t time.Time) *time.Time {
	if current != nil && current.After(t) {
		return current
	}
	return &t
}

func earlier(current *time.Time, t time.Time) *time.Time {
	if current != nil && current.Before(t) {
		return current
	}
	return &t
}
