package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskwave-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

var mongoStart = time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)

func sessionDoc(status models.FocusSessionStatus, taskName string) bson.D {
	return bson.D{
		{Key: "_id", Value: "s1"},
		{Key: "userId", Value: "u1"},
		{Key: "taskName", Value: taskName},
		{Key: "duration", Value: 25},
		{Key: "startedAt", Value: mongoStart},
		{Key: "endedAt", Value: mongoStart.Add(25 * time.Minute)},
		{Key: "status", Value: string(status)},
	}
}

func userDoc(streak int) bson.D {
	return bson.D{
		{Key: "_id", Value: "u1"},
		{Key: "username", Value: "a@x.com"},
		{Key: "focusStreak", Value: streak},
	}
}

// findAndModifyReply answers one findOneAndUpdate; a nil doc means no match.
func findAndModifyReply(doc bson.D) bson.D {
	if doc == nil {
		return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil})
	}
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: doc})
}

func findReply(mt *mtest.T, coll string, doc bson.D) bson.D {
	return mtest.CreateCursorResponse(0, mt.DB.Name()+"."+coll, mtest.FirstBatch, doc)
}

func commandNames(mt *mtest.T) []string {
	var names []string
	for _, evt := range mt.GetAllStartedEvents() {
		names = append(names, evt.CommandName)
	}
	return names
}

func TestMongoComplete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("first completion bumps the streak", func(mt *mtest.T) {
		repo := NewMongoFocusSessionRepository(mt.Client, mt.DB)
		mt.AddMockResponses(
			findAndModifyReply(sessionDoc(models.FocusSessionStatusSuccess, "Read")),
			findAndModifyReply(userDoc(3)),
			mtest.CreateSuccessResponse(), // commitTransaction
		)

		result, err := repo.Complete(context.Background(), "u1", "s1", FocusSessionUpdate{})
		require.NoError(mt, err)
		assert.False(mt, result.AlreadyCompleted)
		assert.Equal(mt, 3, result.FocusStreak)
		assert.Equal(mt, models.FocusSessionStatusSuccess, result.Session.Status)
		assert.Equal(mt, []string{"findAndModify", "findAndModify", "commitTransaction"}, commandNames(mt))
	})

	mt.Run("repeat completion keeps the streak", func(mt *mtest.T) {
		repo := NewMongoFocusSessionRepository(mt.Client, mt.DB)
		name := "Renamed"
		mt.AddMockResponses(
			findAndModifyReply(nil),
			findReply(mt, "focussessions", sessionDoc(models.FocusSessionStatusSuccess, "Read")),
			findAndModifyReply(sessionDoc(models.FocusSessionStatusSuccess, name)),
			findReply(mt, "users", userDoc(3)),
			mtest.CreateSuccessResponse(),
		)

		result, err := repo.Complete(context.Background(), "u1", "s1", FocusSessionUpdate{TaskName: &name})
		require.NoError(mt, err)
		assert.True(mt, result.AlreadyCompleted)
		assert.Equal(mt, 3, result.FocusStreak)
		assert.Equal(mt, name, result.Session.TaskName)

		// The streak document is read, never incremented.
		for _, evt := range mt.GetAllStartedEvents() {
			if evt.CommandName == "findAndModify" {
				assert.NotEqual(mt, "users", evt.Command.Lookup("findAndModify").StringValue())
			}
		}
	})

	mt.Run("interrupted session is rejected", func(mt *mtest.T) {
		repo := NewMongoFocusSessionRepository(mt.Client, mt.DB)
		name := "Renamed"
		mt.AddMockResponses(
			findAndModifyReply(nil),
			findReply(mt, "focussessions", sessionDoc(models.FocusSessionStatusInterrupted, "Read")),
		)

		_, err := repo.Complete(context.Background(), "u1", "s1", FocusSessionUpdate{TaskName: &name})
		assert.ErrorIs(mt, err, ErrInvalidTransition)
		assert.NotContains(mt, commandNames(mt), "commitTransaction")
	})

	mt.Run("missing session", func(mt *mtest.T) {
		repo := NewMongoFocusSessionRepository(mt.Client, mt.DB)
		mt.AddMockResponses(
			findAndModifyReply(nil),
			mtest.CreateCursorResponse(0, mt.DB.Name()+".focussessions", mtest.FirstBatch),
		)

		_, err := repo.Complete(context.Background(), "u1", "s1", FocusSessionUpdate{})
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("edits ending before the start are rejected up front", func(mt *mtest.T) {
		repo := NewMongoFocusSessionRepository(mt.Client, mt.DB)
		start, end := mongoStart, mongoStart.Add(-time.Minute)

		_, err := repo.Complete(context.Background(), "u1", "s1", FocusSessionUpdate{StartedAt: &start, EndedAt: &end})
		assert.ErrorIs(mt, err, ErrInvalidTimeRange)
		assert.Empty(mt, commandNames(mt))
	})
}

func TestMongoUpdate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("applies the edits", func(mt *mtest.T) {
		repo := NewMongoFocusSessionRepository(mt.Client, mt.DB)
		name := "Renamed"
		mt.AddMockResponses(findAndModifyReply(sessionDoc(models.FocusSessionStatusInProgress, name)))

		session, err := repo.Update(context.Background(), "u1", "s1", FocusSessionUpdate{TaskName: &name})
		require.NoError(mt, err)
		assert.Equal(mt, name, session.TaskName)
	})

	mt.Run("end before the stored start", func(mt *mtest.T) {
		repo := NewMongoFocusSessionRepository(mt.Client, mt.DB)
		end := mongoStart.Add(-30 * time.Minute)
		mt.AddMockResponses(
			findAndModifyReply(nil),
			findReply(mt, "focussessions", sessionDoc(models.FocusSessionStatusInProgress, "Read")),
		)

		_, err := repo.Update(context.Background(), "u1", "s1", FocusSessionUpdate{EndedAt: &end})
		assert.ErrorIs(mt, err, ErrInvalidTimeRange)

		filter := mt.GetStartedEvent().Command.Lookup("query").Document()
		guard := filter.Lookup("startedAt", "$lte")
		assert.False(mt, guard.IsZero())
	})

	mt.Run("interrupting a successful session", func(mt *mtest.T) {
		repo := NewMongoFocusSessionRepository(mt.Client, mt.DB)
		status := models.FocusSessionStatusInterrupted
		mt.AddMockResponses(
			findAndModifyReply(nil),
			findReply(mt, "focussessions", sessionDoc(models.FocusSessionStatusSuccess, "Read")),
		)

		_, err := repo.Update(context.Background(), "u1", "s1", FocusSessionUpdate{Status: &status})
		assert.ErrorIs(mt, err, ErrInvalidTransition)
	})

	mt.Run("missing session", func(mt *mtest.T) {
		repo := NewMongoFocusSessionRepository(mt.Client, mt.DB)
		name := "Renamed"
		mt.AddMockResponses(
			findAndModifyReply(nil),
			mtest.CreateCursorResponse(0, mt.DB.Name()+".focussessions", mtest.FirstBatch),
		)

		_, err := repo.Update(context.Background(), "u1", "s1", FocusSessionUpdate{TaskName: &name})
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}
