package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/taskwave-api/internal/database"
	"github.com/yukikurage/taskwave-api/internal/models"
	"github.com/yukikurage/taskwave-api/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoFocusSessionRepository is a MongoDB implementation of FocusSessionRepository.
// Complete runs in a multi-document transaction and needs a replica set.
type MongoFocusSessionRepository struct {
	client   *mongo.Client
	sessions *mongo.Collection
	users    *mongo.Collection
}

// NewMongoFocusSessionRepository creates a FocusSessionRepository backed by the focussessions collection
func NewMongoFocusSessionRepository(client *mongo.Client, db *mongo.Database) FocusSessionRepository {
	return &MongoFocusSessionRepository{
		client:   client,
		sessions: db.Collection(database.FocusSessionsCollection),
		users:    db.Collection(database.UsersCollection),
	}
}

func (r *MongoFocusSessionRepository) Create(ctx context.Context, session *models.FocusSession) error {
	now := time.Now().UTC()
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	session.StartedAt = session.StartedAt.UTC()
	session.EndedAt = session.EndedAt.UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	_, err := r.sessions.InsertOne(ctx, session)
	return translateMongoError(err)
}

func (r *MongoFocusSessionRepository) FindByID(ctx context.Context, userID, id string) (*models.FocusSession, error) {
	var session models.FocusSession
	if err := r.sessions.FindOne(ctx, ownedDoc(userID, id)).Decode(&session); err != nil {
		return nil, translateMongoError(err)
	}
	return &session, nil
}

func (r *MongoFocusSessionRepository) List(ctx context.Context, userID string, page *utils.PaginationParams) ([]models.FocusSession, int64, error) {
	filter := bson.M{"userId": userID}

	total, err := r.sessions.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "startedAt", Value: -1}})
	if page != nil {
		opts.SetSkip(int64(page.Offset)).SetLimit(int64(page.Limit))
	}

	cursor, err := r.sessions.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	sessions := []models.FocusSession{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

func (r *MongoFocusSessionRepository) Update(ctx context.Context, userID, id string, update FocusSessionUpdate) (*models.FocusSession, error) {
	set, guard, err := sessionSet(update)
	if err != nil {
		return nil, err
	}
	filter := ownedDoc(userID, id)
	for k, v := range guard {
		filter[k] = v
	}
	if update.Status != nil {
		set["status"] = *update.Status
		if *update.Status != models.FocusSessionStatusSuccess {
			filter["status"] = bson.M{"$ne": models.FocusSessionStatusSuccess}
		}
	}

	var session models.FocusSession
	err = r.sessions.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Distinguish a missing session from one the guards rejected.
		stored, findErr := r.FindByID(ctx, userID, id)
		if findErr != nil {
			return nil, findErr
		}
		if err := checkTimeRange(stored, update); err != nil {
			return nil, err
		}
		if update.Status != nil {
			return nil, ErrInvalidTransition
		}
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, translateMongoError(err)
	}
	return &session, nil
}

// sessionSet builds the $set document for the edited fields, plus filter
// terms that keep endedAt at or after startedAt when only one end moves.
func sessionSet(update FocusSessionUpdate) (bson.M, bson.M, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	guard := bson.M{}
	if update.TaskID != nil {
		set["taskId"] = *update.TaskID
	}
	if update.TaskName != nil {
		set["taskName"] = *update.TaskName
	}
	if update.Duration != nil {
		set["duration"] = *update.Duration
	}
	if update.StartedAt != nil {
		set["startedAt"] = update.StartedAt.UTC()
	}
	if update.EndedAt != nil {
		set["endedAt"] = update.EndedAt.UTC()
	}

	switch {
	case update.StartedAt != nil && update.EndedAt != nil:
		if update.EndedAt.Before(*update.StartedAt) {
			return nil, nil, ErrInvalidTimeRange
		}
	case update.StartedAt != nil:
		guard["endedAt"] = bson.M{"$gte": update.StartedAt.UTC()}
	case update.EndedAt != nil:
		guard["startedAt"] = bson.M{"$lte": update.EndedAt.UTC()}
	}
	return set, guard, nil
}

func (r *MongoFocusSessionRepository) Delete(ctx context.Context, userID, id string) (*models.FocusSession, error) {
	var session models.FocusSession
	if err := r.sessions.FindOneAndDelete(ctx, ownedDoc(userID, id)).Decode(&session); err != nil {
		return nil, translateMongoError(err)
	}
	return &session, nil
}

func (r *MongoFocusSessionRepository) Complete(ctx context.Context, userID, id string, edits FocusSessionUpdate) (*CompletionResult, error) {
	set, guard, err := sessionSet(edits)
	if err != nil {
		return nil, err
	}

	txn, err := r.client.StartSession()
	if err != nil {
		return nil, err
	}
	defer txn.EndSession(ctx)

	out, err := txn.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		result := &CompletionResult{}

		filter := ownedDoc(userID, id)
		for k, v := range guard {
			filter[k] = v
		}
		filter["status"] = models.FocusSessionStatusInProgress

		completeSet := bson.M{"status": models.FocusSessionStatusSuccess}
		for k, v := range set {
			completeSet[k] = v
		}

		var session models.FocusSession
		err := r.sessions.FindOneAndUpdate(sc, filter,
			bson.M{"$set": completeSet},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&session)

		switch {
		case err == nil:
			var user models.User
			if err := r.users.FindOneAndUpdate(sc,
				bson.M{"_id": userID},
				bson.M{"$inc": bson.M{"focusStreak": 1}},
				options.FindOneAndUpdate().SetReturnDocument(options.After),
			).Decode(&user); err != nil {
				return nil, translateMongoError(err)
			}
			result.Session = &session
			result.FocusStreak = user.FocusStreak
			return result, nil
		case !errors.Is(err, mongo.ErrNoDocuments):
			return nil, err
		}

		// Nothing was updated: the session is missing, finished or the edits
		// failed the time guard.
		if err := r.sessions.FindOne(sc, ownedDoc(userID, id)).Decode(&session); err != nil {
			return nil, translateMongoError(err)
		}
		if session.Status == models.FocusSessionStatusInterrupted {
			return nil, ErrInvalidTransition
		}
		if err := checkTimeRange(&session, edits); err != nil {
			return nil, err
		}
		if session.Status != models.FocusSessionStatusSuccess {
			// Changed between the update and the read.
			return nil, ErrInvalidTransition
		}

		// Already successful: keep the edits, leave the streak alone.
		if err := r.sessions.FindOneAndUpdate(sc, ownedDoc(userID, id),
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&session); err != nil {
			return nil, translateMongoError(err)
		}

		var user models.User
		if err := r.users.FindOne(sc, bson.M{"_id": userID}).Decode(&user); err != nil {
			return nil, translateMongoError(err)
		}
		result.Session = &session
		result.FocusStreak = user.FocusStreak
		result.AlreadyCompleted = true
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*CompletionResult), nil
}
