package dto

import (
	"time"

	"github.com/yukikurage/taskwave-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Name        string    `json:"name"`
	FocusStreak int       `json:"focusStreak"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:          user.ID,
		Username:    user.Username,
		Name:        user.Name,
		FocusStreak: user.FocusStreak,
		CreatedAt:   user.CreatedAt,
	}
}
