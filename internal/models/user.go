package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" bson:"_id" json:"id"`
	Username     string    `gorm:"type:varchar(255);uniqueIndex;not null" bson:"username" json:"username"`
	PasswordHash string    `gorm:"column:password;type:varchar(255);not null" bson:"password" json:"-"`
	Name         string    `gorm:"type:varchar(255);not null" bson:"name" json:"name"`
	FocusStreak  int       `gorm:"not null;default:0" bson:"focusStreak" json:"focusStreak"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`

	// Relations
	Tasks         []Task         `gorm:"foreignKey:UserID" bson:"-" json:"-"`
	FocusSessions []FocusSession `gorm:"foreignKey:UserID" bson:"-" json:"-"`
}

// BeforeCreate assigns a UUID when the caller did not set one.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
