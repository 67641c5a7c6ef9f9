package repository

import (
	"context"

	"github.com/yukikurage/taskwave-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return translateGormError(r.db.WithContext(ctx).Create(user).Error)
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &user, nil
}

// FindByUsername finds a user by username
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &user, nil
}

// Update applies the non-nil fields and returns the updated user
func (r *GormUserRepository) Update(ctx context.Context, id string, update UserUpdate) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			return err
		}

		fields := map[string]interface{}{}
		if update.Name != nil {
			fields["name"] = *update.Name
		}
		if update.PasswordHash != nil {
			fields["password"] = *update.PasswordHash
		}
		if update.FocusStreak != nil {
			fields["focus_streak"] = *update.FocusStreak
		}
		if len(fields) == 0 {
			return nil
		}

		if err := tx.Model(&models.User{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&user).Error
	})
	if err != nil {
		return nil, translateGormError(err)
	}
	return &user, nil
}
