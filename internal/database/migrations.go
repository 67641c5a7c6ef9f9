package database

import (
	"fmt"

	"github.com/yukikurage/taskwave-api/internal/logging"
	"gorm.io/gorm"
)

// AddIndexes adds the composite indexes used by owner-scoped listing.
// Single column indexes come from the model tags.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Task list: owner + newest first, owner + due date for status filters
		{"tasks", "idx_tasks_user_created", "user_id, created_at"},
		{"tasks", "idx_tasks_user_due", "user_id, completed, due_date"},

		// Session history: owner + newest first
		{"focus_sessions", "idx_focus_sessions_user_started", "user_id, started_at"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			logging.Debug().Str("index", idx.name).Msg("Index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		logging.Info().Str("index", idx.name).Str("table", idx.table).Msg("Created index")
	}

	return nil
}
