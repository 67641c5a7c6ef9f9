package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/taskwave-api/internal/database"
	"github.com/yukikurage/taskwave-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTaskRepository is a MongoDB implementation of TaskRepository
type MongoTaskRepository struct {
	coll *mongo.Collection
}

// NewMongoTaskRepository creates a TaskRepository backed by the tasks collection
func NewMongoTaskRepository(db *mongo.Database) TaskRepository {
	return &MongoTaskRepository{coll: db.Collection(database.TasksCollection)}
}

func (r *MongoTaskRepository) Create(ctx context.Context, task *models.Task) error {
	now := time.Now().UTC()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.DueDate = task.DueDate.UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, task)
	return translateMongoError(err)
}

func (r *MongoTaskRepository) FindByID(ctx context.Context, userID, id string) (*models.Task, error) {
	var task models.Task
	if err := r.coll.FindOne(ctx, ownedDoc(userID, id)).Decode(&task); err != nil {
		return nil, translateMongoError(err)
	}
	return &task, nil
}

func (r *MongoTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	cursor, err := r.coll.Find(ctx, buildTaskFilter(filter),
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *MongoTaskRepository) Update(ctx context.Context, userID, id string, update TaskUpdate) (*models.Task, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Priority != nil {
		set["priority"] = *update.Priority
	}
	if update.DueDate != nil {
		set["dueDate"] = update.DueDate.UTC()
	}
	if update.Completed != nil {
		set["completed"] = *update.Completed
	}

	var task models.Task
	err := r.coll.FindOneAndUpdate(ctx,
		ownedDoc(userID, id),
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&task)
	if err != nil {
		return nil, translateMongoError(err)
	}
	return &task, nil
}

func (r *MongoTaskRepository) Delete(ctx context.Context, userID, id string) (*models.Task, error) {
	var task models.Task
	if err := r.coll.FindOneAndDelete(ctx, ownedDoc(userID, id)).Decode(&task); err != nil {
		return nil, translateMongoError(err)
	}
	return &task, nil
}

// ownedDoc matches a single document by id and owner.
func ownedDoc(userID, id string) bson.M {
	return bson.M{"_id": id, "userId": userID}
}

// buildTaskFilter translates a TaskFilter into a query document.
func buildTaskFilter(filter TaskFilter) bson.M {
	query := bson.M{"userId": filter.UserID}

	if filter.Completed != nil {
		query["completed"] = *filter.Completed
	}
	if filter.Priority != nil {
		query["priority"] = string(*filter.Priority)
	}
	if r := timeRange(filter.DueDateFrom, filter.DueDateTo); r != nil {
		query["dueDate"] = r
	}
	if r := timeRange(filter.CreatedFrom, filter.CreatedTo); r != nil {
		query["createdAt"] = r
	}

	return query
}

func timeRange(from, to *time.Time) bson.M {
	if from == nil && to == nil {
		return nil
	}
	r := bson.M{}
	if from != nil {
		r["$gte"] = from.UTC()
	}
	if to != nil {
		r["$lt"] = to.UTC()
	}
	return r
}
