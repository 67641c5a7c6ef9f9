package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/taskwave-api/internal/utils"
	"gorm.io/gorm"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// TaskStatus is derived from Completed and DueDate and is never stored.
type TaskStatus string

const (
	TaskStatusCompleted TaskStatus = "Completed"
	TaskStatusPending   TaskStatus = "Pending"
	TaskStatusMissed    TaskStatus = "Missed"
)

type Task struct {
	ID          string       `gorm:"type:varchar(36);primaryKey" bson:"_id" json:"id"`
	UserID      string       `gorm:"type:varchar(36);not null;index" bson:"userId" json:"userId"`
	Title       string       `gorm:"not null" bson:"title" json:"title"`
	Description string       `gorm:"type:text;not null" bson:"description" json:"description"`
	Priority    TaskPriority `gorm:"type:varchar(10);not null" bson:"priority" json:"priority"`
	DueDate     time.Time    `gorm:"not null;index" bson:"dueDate" json:"dueDate"`
	Completed   bool         `gorm:"not null;default:false" bson:"completed" json:"completed"`
	CreatedAt   time.Time    `gorm:"index" bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller did not set one.
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// StatusAt derives the task status on the calendar day of now in loc.
func (t *Task) StatusAt(now time.Time, loc *time.Location) TaskStatus {
	if t.Completed {
		return TaskStatusCompleted
	}
	if utils.StartOfDay(t.DueDate, loc).Before(utils.StartOfDay(now, loc)) {
		return TaskStatusMissed
	}
	return TaskStatusPending
}
