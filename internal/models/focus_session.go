package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FocusSessionStatus string

const (
	// FocusSessionStatusInProgress is the empty status of a running timer.
	FocusSessionStatusInProgress  FocusSessionStatus = ""
	FocusSessionStatusSuccess     FocusSessionStatus = "Success"
	FocusSessionStatusInterrupted FocusSessionStatus = "Interrupted"
)

type FocusSession struct {
	ID        string             `gorm:"type:varchar(36);primaryKey" bson:"_id" json:"id"`
	UserID    string             `gorm:"type:varchar(36);not null;index" bson:"userId" json:"userId"`
	TaskID    *string            `gorm:"type:varchar(36)" bson:"taskId" json:"taskId"`
	TaskName  string             `gorm:"not null" bson:"taskName" json:"taskName"`
	Duration  int                `gorm:"not null" bson:"duration" json:"duration"`
	StartedAt time.Time          `gorm:"not null;index" bson:"startedAt" json:"startedAt"`
	EndedAt   time.Time          `gorm:"not null" bson:"endedAt" json:"endedAt"`
	Status    FocusSessionStatus `gorm:"type:varchar(20);not null;default:''" bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller did not set one.
func (s *FocusSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
