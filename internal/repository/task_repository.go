package repository

import (
	"context"

	"github.com/yukikurage/taskwave-api/internal/database"
	"github.com/yukikurage/taskwave-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return translateGormError(r.db.WithContext(ctx).Create(task).Error)
}

// FindByID finds a task owned by userID
func (r *GormTaskRepository) FindByID(ctx context.Context, userID, id string) (*models.Task, error) {
	return findTask(r.db.WithContext(ctx), userID, id)
}

func findTask(db *gorm.DB, userID, id string) (*models.Task, error) {
	var task models.Task
	if err := db.Scopes(database.OwnedBy("tasks", userID)).
		Where("tasks.id = ?", id).
		First(&task).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &task, nil
}

// List retrieves tasks matching the filter, newest created first
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Scopes(database.OwnedBy("tasks", filter.UserID))

	// Apply filters
	if filter.Completed != nil {
		query = query.Where("tasks.completed = ?", *filter.Completed)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.DueDateFrom != nil {
		query = query.Where("tasks.due_date >= ?", filter.DueDateFrom.UTC())
	}
	if filter.DueDateTo != nil {
		query = query.Where("tasks.due_date < ?", filter.DueDateTo.UTC())
	}
	if filter.CreatedFrom != nil {
		query = query.Where("tasks.created_at >= ?", filter.CreatedFrom.UTC())
	}
	if filter.CreatedTo != nil {
		query = query.Where("tasks.created_at < ?", filter.CreatedTo.UTC())
	}

	tasks := []models.Task{}
	if err := query.Order("tasks.created_at DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update applies the non-nil fields and returns the updated task
func (r *GormTaskRepository) Update(ctx context.Context, userID, id string, update TaskUpdate) (*models.Task, error) {
	var task *models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if task, err = findTask(tx, userID, id); err != nil {
			return err
		}

		fields := map[string]interface{}{}
		if update.Title != nil {
			fields["title"] = *update.Title
		}
		if update.Description != nil {
			fields["description"] = *update.Description
		}
		if update.Priority != nil {
			fields["priority"] = *update.Priority
		}
		if update.DueDate != nil {
			fields["due_date"] = update.DueDate.UTC()
		}
		if update.Completed != nil {
			fields["completed"] = *update.Completed
		}
		if len(fields) == 0 {
			return nil
		}

		if err := tx.Model(&models.Task{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(fields).Error; err != nil {
			return err
		}
		task, err = findTask(tx, userID, id)
		return err
	})
	if err != nil {
		return nil, translateGormError(err)
	}
	return task, nil
}

// Delete removes a task and returns it
func (r *GormTaskRepository) Delete(ctx context.Context, userID, id string) (*models.Task, error) {
	var task *models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if task, err = findTask(tx, userID, id); err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Task{}).Error
	})
	if err != nil {
		return nil, translateGormError(err)
	}
	return task, nil
}
