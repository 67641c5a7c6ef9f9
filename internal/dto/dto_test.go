package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskwave-api/internal/models"
)

func TestToTaskDTO_DerivesStatus(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
	task := models.Task{ID: "t1", DueDate: now.AddDate(0, 0, -1)}

	assert.Equal(t, models.TaskStatusMissed, ToTaskDTO(task, now, time.UTC).Status)

	task.Completed = true
	assert.Equal(t, models.TaskStatusCompleted, ToTaskDTO(task, now, time.UTC).Status)

	task.Completed = false
	task.DueDate = now.Add(-10 * time.Hour)
	assert.Equal(t, models.TaskStatusPending, ToTaskDTO(task, now, time.UTC).Status)
}

func TestToTaskDTOs_EmptyIsArray(t *testing.T) {
	out, err := json.Marshal(ToTaskDTOs(nil, time.Now(), time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestUserDTO_OmitsPassword(t *testing.T) {
	out, err := json.Marshal(ToUserDTO(models.User{ID: "u1", Username: "a@x.com", PasswordHash: "secret-hash"}))
	require.NoError(t, err)
	assert.NotContains(t, string(out), "secret-hash")
	assert.Contains(t, string(out), `"focusStreak":0`)
}
