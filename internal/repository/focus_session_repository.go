package repository

import (
	"context"

	"github.com/yukikurage/taskwave-api/internal/database"
	"github.com/yukikurage/taskwave-api/internal/models"
	"github.com/yukikurage/taskwave-api/internal/utils"
	"gorm.io/gorm"
)

// GormFocusSessionRepository is a GORM implementation of FocusSessionRepository
type GormFocusSessionRepository struct {
	db *gorm.DB
}

// NewFocusSessionRepository creates a new FocusSessionRepository
func NewFocusSessionRepository(db *gorm.DB) FocusSessionRepository {
	return &GormFocusSessionRepository{db: db}
}

// Create creates a new session
func (r *GormFocusSessionRepository) Create(ctx context.Context, session *models.FocusSession) error {
	return translateGormError(r.db.WithContext(ctx).Create(session).Error)
}

// FindByID finds a session owned by userID
func (r *GormFocusSessionRepository) FindByID(ctx context.Context, userID, id string) (*models.FocusSession, error) {
	return findSession(r.db.WithContext(ctx), userID, id)
}

func findSession(db *gorm.DB, userID, id string) (*models.FocusSession, error) {
	var session models.FocusSession
	if err := db.Scopes(database.OwnedBy("focus_sessions", userID)).
		Where("focus_sessions.id = ?", id).
		First(&session).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &session, nil
}

// List returns the user's sessions, newest started first, and the total count
func (r *GormFocusSessionRepository) List(ctx context.Context, userID string, page *utils.PaginationParams) ([]models.FocusSession, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.FocusSession{}).
		Scopes(database.OwnedBy("focus_sessions", userID))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("focus_sessions.started_at DESC")
	if page != nil {
		listQuery = listQuery.Scopes(database.Paginate(*page))
	}

	sessions := []models.FocusSession{}
	if err := listQuery.Find(&sessions).Error; err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// Update applies the non-nil fields and returns the updated session
func (r *GormFocusSessionRepository) Update(ctx context.Context, userID, id string, update FocusSessionUpdate) (*models.FocusSession, error) {
	var session *models.FocusSession
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if session, err = findSession(tx, userID, id); err != nil {
			return err
		}
		if err := checkTimeRange(session, update); err != nil {
			return err
		}

		fields := sessionFields(update)
		if update.Status != nil {
			if session.Status == models.FocusSessionStatusSuccess && *update.Status != models.FocusSessionStatusSuccess {
				return ErrInvalidTransition
			}
			fields["status"] = *update.Status
		}
		if len(fields) == 0 {
			return nil
		}

		if err := tx.Model(&models.FocusSession{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(fields).Error; err != nil {
			return err
		}
		session, err = findSession(tx, userID, id)
		return err
	})
	if err != nil {
		return nil, translateGormError(err)
	}
	return session, nil
}

// sessionFields maps every set field except Status to its column.
func sessionFields(update FocusSessionUpdate) map[string]interface{} {
	fields := map[string]interface{}{}
	if update.TaskID != nil {
		fields["task_id"] = *update.TaskID
	}
	if update.TaskName != nil {
		fields["task_name"] = *update.TaskName
	}
	if update.Duration != nil {
		fields["duration"] = *update.Duration
	}
	if update.StartedAt != nil {
		fields["started_at"] = update.StartedAt.UTC()
	}
	if update.EndedAt != nil {
		fields["ended_at"] = update.EndedAt.UTC()
	}
	return fields
}

// Delete removes a session and returns it
func (r *GormFocusSessionRepository) Delete(ctx context.Context, userID, id string) (*models.FocusSession, error) {
	var session *models.FocusSession
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if session, err = findSession(tx, userID, id); err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.FocusSession{}).Error
	})
	if err != nil {
		return nil, translateGormError(err)
	}
	return session, nil
}

// Complete marks the session successful and increments the streak atomically.
// The conditional status update guarantees one increment per session even
// when two requests race. Edits roll back with a rejected completion.
func (r *GormFocusSessionRepository) Complete(ctx context.Context, userID, id string, edits FocusSessionUpdate) (*CompletionResult, error) {
	result := &CompletionResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := findSession(tx, userID, id)
		if err != nil {
			return err
		}
		if session.Status == models.FocusSessionStatusInterrupted {
			return ErrInvalidTransition
		}
		if err := checkTimeRange(session, edits); err != nil {
			return err
		}

		if fields := sessionFields(edits); len(fields) > 0 {
			if err := tx.Model(&models.FocusSession{}).
				Where("id = ? AND user_id = ?", id, userID).
				Updates(fields).Error; err != nil {
				return err
			}
		}

		if session.Status == models.FocusSessionStatusSuccess {
			result.AlreadyCompleted = true
		} else {
			res := tx.Model(&models.FocusSession{}).
				Where("id = ? AND user_id = ? AND status = ?", id, userID, models.FocusSessionStatusInProgress).
				Update("status", models.FocusSessionStatusSuccess)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				result.AlreadyCompleted = true
			} else if err := tx.Model(&models.User{}).
				Where("id = ?", userID).
				UpdateColumn("focus_streak", gorm.Expr("focus_streak + ?", 1)).Error; err != nil {
				return err
			}
		}

		if session, err = findSession(tx, userID, id); err != nil {
			return err
		}
		// A concurrent interrupt won the conditional update.
		if session.Status == models.FocusSessionStatusInterrupted {
			return ErrInvalidTransition
		}

		var user models.User
		if err := tx.Select("id", "focus_streak").Where("id = ?", userID).First(&user).Error; err != nil {
			return err
		}

		result.Session = session
		result.FocusStreak = user.FocusStreak
		return nil
	})
	if err != nil {
		return nil, translateGormError(err)
	}
	return result, nil
}
