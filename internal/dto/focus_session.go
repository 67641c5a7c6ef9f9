package dto

import (
	"time"

	"github.com/yukikurage/taskwave-api/internal/models"
)

// FocusSessionDTO represents a focus session in API responses
type FocusSessionDTO struct {
	ID        string                    `json:"id"`
	UserID    string                    `json:"userId"`
	TaskID    *string                   `json:"taskId"`
	TaskName  string                    `json:"taskName"`
	Duration  int                       `json:"duration"`
	StartedAt time.Time                 `json:"startedAt"`
	EndedAt   time.Time                 `json:"endedAt"`
	Status    models.FocusSessionStatus `json:"status"`
	CreatedAt time.Time                 `json:"createdAt"`
}

func ToFocusSessionDTO(session models.FocusSession) FocusSessionDTO {
	return FocusSessionDTO{
		ID:        session.ID,
		UserID:    session.UserID,
		TaskID:    session.TaskID,
		TaskName:  session.TaskName,
		Duration:  session.Duration,
		StartedAt: session.StartedAt,
		EndedAt:   session.EndedAt,
		Status:    session.Status,
		CreatedAt: session.CreatedAt,
	}
}

func ToFocusSessionDTOs(sessions []models.FocusSession) []FocusSessionDTO {
	out := make([]FocusSessionDTO, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, ToFocusSessionDTO(s))
	}
	return out
}
