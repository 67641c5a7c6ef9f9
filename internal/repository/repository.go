package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/taskwave-api/internal/models"
	"github.com/yukikurage/taskwave-api/internal/utils"
)

var (
	// ErrNotFound is returned when no record matches, including records owned by another user.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("repository: duplicate key")
	// ErrInvalidTransition is returned when a focus session can no longer be completed.
	ErrInvalidTransition = errors.New("repository: invalid focus session transition")
	// ErrInvalidTimeRange is returned when an update would leave endedAt before startedAt.
	ErrInvalidTimeRange = errors.New("repository: focus session ends before it starts")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// Update applies the non-nil fields and returns the updated user
	Update(ctx context.Context, id string, update UserUpdate) (*models.User, error)
}

// UserUpdate holds the optional fields of a profile update
type UserUpdate struct {
	Name         *string
	PasswordHash *string
	FocusStreak  *int
}

// IsEmpty reports whether no field is set
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.PasswordHash == nil && u.FocusStreak == nil
}

// TaskRepository defines the interface for task data access.
// Every method is scoped to the owning user.
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task owned by userID
	FindByID(ctx context.Context, userID, id string) (*models.Task, error)

	// List retrieves tasks matching the filter, newest created first
	List(ctx context.Context, filter TaskFilter) ([]models.Task, error)

	// Update applies the non-nil fields and returns the updated task
	Update(ctx context.Context, userID, id string, update TaskUpdate) (*models.Task, error)

	// Delete removes a task and returns it
	Delete(ctx context.Context, userID, id string) (*models.Task, error)
}

// TaskFilter holds filtering options for listing tasks.
// Date bounds are half-open: From is inclusive, To is exclusive.
type TaskFilter struct {
	UserID      string
	Completed   *bool
	Priority    *models.TaskPriority
	DueDateFrom *time.Time
	DueDateTo   *time.Time
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// TaskUpdate holds the optional fields of a task update
type TaskUpdate struct {
	Title       *string
	Description *string
	Priority    *models.TaskPriority
	DueDate     *time.Time
	Completed   *bool
}

// FocusSessionRepository defines the interface for focus session data access.
// Every method is scoped to the owning user.
type FocusSessionRepository interface {
	// Create creates a new session
	Create(ctx context.Context, session *models.FocusSession) error

	// FindByID finds a session owned by userID
	FindByID(ctx context.Context, userID, id string) (*models.FocusSession, error)

	// List returns the user's sessions, newest started first, and the total count.
	// A nil page returns every session.
	List(ctx context.Context, userID string, page *utils.PaginationParams) ([]models.FocusSession, int64, error)

	// Update applies the non-nil fields and returns the updated session
	Update(ctx context.Context, userID, id string, update FocusSessionUpdate) (*models.FocusSession, error)

	// Delete removes a session and returns it
	Delete(ctx context.Context, userID, id string) (*models.FocusSession, error)

	// Complete applies edits, marks an in-progress session as successful and
	// increments the owner's focus streak in one transaction. Nothing is
	// written when the completion is rejected.
	Complete(ctx context.Context, userID, id string, edits FocusSessionUpdate) (*CompletionResult, error)
}

// FocusSessionUpdate holds the optional fields of a session update.
// Status may only be set to Interrupted here; success goes through Complete.
type FocusSessionUpdate struct {
	TaskID    *string
	TaskName  *string
	Duration  *int
	StartedAt *time.Time
	EndedAt   *time.Time
	Status    *models.FocusSessionStatus
}

// IsEmpty reports whether no field is set
func (u FocusSessionUpdate) IsEmpty() bool {
	return u.TaskID == nil && u.TaskName == nil && u.Duration == nil &&
		u.StartedAt == nil && u.EndedAt == nil && u.Status == nil
}

// checkTimeRange merges the update over the stored session and rejects an
// end before the start.
func checkTimeRange(session *models.FocusSession, update FocusSessionUpdate) error {
	start, end := session.StartedAt, session.EndedAt
	if update.StartedAt != nil {
		start = *update.StartedAt
	}
	if update.EndedAt != nil {
		end = *update.EndedAt
	}
	if end.Before(start) {
		return ErrInvalidTimeRange
	}
	return nil
}

// CompletionResult describes the outcome of Complete
type CompletionResult struct {
	Session     *models.FocusSession
	FocusStreak int
	// AlreadyCompleted is true when the session was Success before the call;
	// the streak was not incremented again.
	AlreadyCompleted bool
}
