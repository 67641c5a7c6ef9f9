package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/taskwave-api/internal/constants"
	"github.com/yukikurage/taskwave-api/internal/logging"
	"github.com/yukikurage/taskwave-api/internal/metrics"
	"github.com/yukikurage/taskwave-api/internal/models"
	"github.com/yukikurage/taskwave-api/internal/repository"
	"github.com/yukikurage/taskwave-api/internal/utils"
)

var (
	ErrSessionNotFound       = errors.New("focus session not found")
	ErrTaskNameRequired      = errors.New("taskName is required")
	ErrDurationTooShort      = fmt.Errorf("duration must be at least %d minutes", constants.MinFocusDurationMinutes)
	ErrInvalidSessionTime    = errors.New("startedAt and endedAt must be valid dates")
	ErrStartNotToday         = errors.New("startedAt must be today")
	ErrEndBeforeToday        = errors.New("endedAt must be today or in the future")
	ErrEndBeforeStart        = errors.New("endedAt must not be before startedAt")
	ErrUnknownTask           = errors.New("taskId does not reference one of your tasks")
	ErrInvalidSessionStatus  = errors.New("status must be Success or Interrupted")
	ErrSessionAlreadyStopped = errors.New("focus session is already finished")
)

// FocusSessionService handles focus sessions and the streak they feed
type FocusSessionService struct {
	sessionRepo repository.FocusSessionRepository
	taskRepo    repository.TaskRepository
	cal         Calendar
}

// NewFocusSessionService creates a new FocusSessionService
func NewFocusSessionService(sessionRepo repository.FocusSessionRepository, taskRepo repository.TaskRepository, cal Calendar) *FocusSessionService {
	return &FocusSessionService{
		sessionRepo: sessionRepo,
		taskRepo:    taskRepo,
		cal:         cal,
	}
}

// CreateSessionInput represents input for starting a session
type CreateSessionInput struct {
	UserID    string
	TaskID    *string
	TaskName  string
	Duration  int
	StartedAt string
	EndedAt   string
}

// UpdateSessionInput represents a partial session update
type UpdateSessionInput struct {
	TaskID    *string
	TaskName  *string
	Duration  *int
	StartedAt *string
	EndedAt   *string
	Status    *string
}

// SessionResult is a session together with the owner's streak after the call
type SessionResult struct {
	Session     *models.FocusSession
	FocusStreak *int
}

// CreateSession validates and records a session in progress
func (s *FocusSessionService) CreateSession(ctx context.Context, input CreateSessionInput) (*models.FocusSession, error) {
	taskName, err := requireText(input.TaskName, ErrTaskNameRequired)
	if err != nil {
		return nil, err
	}
	if input.Duration < constants.MinFocusDurationMinutes {
		return nil, ErrDurationTooShort
	}
	startedAt, err := s.parseStart(input.StartedAt)
	if err != nil {
		return nil, err
	}
	endedAt, err := s.parseEnd(input.EndedAt)
	if err != nil {
		return nil, err
	}
	if endedAt.Before(startedAt) {
		return nil, ErrEndBeforeStart
	}
	taskID, err := s.resolveTaskID(ctx, input.UserID, input.TaskID)
	if err != nil {
		return nil, err
	}

	session := &models.FocusSession{
		UserID:    input.UserID,
		TaskID:    taskID,
		TaskName:  taskName,
		Duration:  input.Duration,
		StartedAt: startedAt.UTC(),
		EndedAt:   endedAt.UTC(),
		Status:    models.FocusSessionStatusInProgress,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create focus session: %w", err)
	}

	metrics.FocusSessionsStarted.Inc()
	return session, nil
}

// ListSessions returns the caller's sessions, newest started first
func (s *FocusSessionService) ListSessions(ctx context.Context, userID string, page *utils.PaginationParams) ([]models.FocusSession, int64, error) {
	sessions, total, err := s.sessionRepo.List(ctx, userID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list focus sessions: %w", err)
	}
	return sessions, total, nil
}

// UpdateSession applies a partial update. Setting status to Success applies
// the edits inside the completion transaction, so a rejected completion
// leaves the session untouched.
func (s *FocusSessionService) UpdateSession(ctx context.Context, userID, sessionID string, input UpdateSessionInput) (*SessionResult, error) {
	var update repository.FocusSessionUpdate

	if input.TaskName != nil {
		taskName, err := requireText(*input.TaskName, ErrTaskNameRequired)
		if err != nil {
			return nil, err
		}
		update.TaskName = &taskName
	}
	if input.Duration != nil {
		if *input.Duration < constants.MinFocusDurationMinutes {
			return nil, ErrDurationTooShort
		}
		update.Duration = input.Duration
	}
	if input.StartedAt != nil {
		startedAt, err := s.parseStart(*input.StartedAt)
		if err != nil {
			return nil, err
		}
		update.StartedAt = &startedAt
	}
	if input.EndedAt != nil {
		endedAt, err := s.parseEnd(*input.EndedAt)
		if err != nil {
			return nil, err
		}
		update.EndedAt = &endedAt
	}
	if update.StartedAt != nil && update.EndedAt != nil && update.EndedAt.Before(*update.StartedAt) {
		return nil, ErrEndBeforeStart
	}

	complete := false
	if input.Status != nil {
		switch models.FocusSessionStatus(*input.Status) {
		case models.FocusSessionStatusSuccess:
			complete = true
		case models.FocusSessionStatusInterrupted:
			status := models.FocusSessionStatusInterrupted
			update.Status = &status
		default:
			return nil, ErrInvalidSessionStatus
		}
	}

	if input.TaskID != nil {
		taskID, err := s.resolveTaskID(ctx, userID, input.TaskID)
		if err != nil {
			return nil, err
		}
		if taskID != nil {
			update.TaskID = taskID
		}
	}

	if complete {
		return s.complete(ctx, userID, sessionID, update)
	}

	session, err := s.sessionRepo.Update(ctx, userID, sessionID, update)
	if err != nil {
		return nil, mapSessionError(err, "failed to update focus session")
	}
	return &SessionResult{Session: session}, nil
}

// CompleteSession marks the session successful and increments the streak once
func (s *FocusSessionService) CompleteSession(ctx context.Context, userID, sessionID string) (*SessionResult, error) {
	return s.complete(ctx, userID, sessionID, repository.FocusSessionUpdate{})
}

func (s *FocusSessionService) complete(ctx context.Context, userID, sessionID string, edits repository.FocusSessionUpdate) (*SessionResult, error) {
	result, err := s.sessionRepo.Complete(ctx, userID, sessionID, edits)
	if err != nil {
		return nil, mapSessionError(err, "failed to complete focus session")
	}

	if !result.AlreadyCompleted {
		metrics.FocusSessionsCompleted.Inc()
		logging.Debug().
			Str("user_id", userID).
			Str("session_id", sessionID).
			Int("focus_streak", result.FocusStreak).
			Msg("Focus session completed")
	}

	streak := result.FocusStreak
	return &SessionResult{Session: result.Session, FocusStreak: &streak}, nil
}

// DeleteSession removes a session and returns it
func (s *FocusSessionService) DeleteSession(ctx context.Context, userID, sessionID string) (*models.FocusSession, error) {
	session, err := s.sessionRepo.Delete(ctx, userID, sessionID)
	if err != nil {
		return nil, mapSessionError(err, "failed to delete focus session")
	}
	return session, nil
}

func (s *FocusSessionService) parseStart(value string) (time.Time, error) {
	startedAt, err := s.cal.Parse(value)
	if err != nil {
		return time.Time{}, ErrInvalidSessionTime
	}
	if !s.cal.IsToday(startedAt) {
		return time.Time{}, ErrStartNotToday
	}
	return startedAt, nil
}

func (s *FocusSessionService) parseEnd(value string) (time.Time, error) {
	endedAt, err := s.cal.Parse(value)
	if err != nil {
		return time.Time{}, ErrInvalidSessionTime
	}
	if !s.cal.IsTodayOrLater(endedAt) {
		return time.Time{}, ErrEndBeforeToday
	}
	return endedAt, nil
}

// resolveTaskID checks that a supplied task id belongs to the caller.
// A nil or blank id means the session is not linked to a task.
func (s *FocusSessionService) resolveTaskID(ctx context.Context, userID string, taskID *string) (*string, error) {
	if taskID == nil || strings.TrimSpace(*taskID) == "" {
		return nil, nil
	}
	id := strings.TrimSpace(*taskID)
	if _, err := s.taskRepo.FindByID(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownTask
		}
		return nil, fmt.Errorf("failed to check task: %w", err)
	}
	return &id, nil
}

func mapSessionError(err error, msg string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrSessionNotFound
	case errors.Is(err, repository.ErrInvalidTransition):
		return ErrSessionAlreadyStopped
	case errors.Is(err, repository.ErrInvalidTimeRange):
		return ErrEndBeforeStart
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
