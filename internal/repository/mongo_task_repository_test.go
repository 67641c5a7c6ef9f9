package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/taskwave-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildTaskFilter_OwnerOnly(t *testing.T) {
	assert.Equal(t, bson.M{"userId": "u1"}, buildTaskFilter(TaskFilter{UserID: "u1"}))
}

func TestBuildTaskFilter_AllFields(t *testing.T) {
	loc := time.FixedZone("JST", 9*3600)
	from := time.Date(2024, 5, 10, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 0, 1)
	completed := false
	priority := models.PriorityHigh

	got := buildTaskFilter(TaskFilter{
		UserID:      "u1",
		Completed:   &completed,
		Priority:    &priority,
		DueDateFrom: &from,
		DueDateTo:   &to,
		CreatedFrom: &from,
	})

	assert.Equal(t, bson.M{
		"userId":    "u1",
		"completed": false,
		"priority":  "high",
		"dueDate":   bson.M{"$gte": from.UTC(), "$lt": to.UTC()},
		"createdAt": bson.M{"$gte": from.UTC()},
	}, got)
}

func TestOwnedDoc(t *testing.T) {
	assert.Equal(t, bson.M{"_id": "t1", "userId": "u1"}, ownedDoc("u1", "t1"))
}
