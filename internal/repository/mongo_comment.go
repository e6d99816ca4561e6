package repository

import (
	"context"
	"errors"

	apperrors "dao-tracker-backend/internal/errors"
	"dao-tracker-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCommentRepository persists task comments in the comments collection.
type MongoCommentRepository struct {
	coll *mongo.Collection
}

// NewMongoCommentRepository creates the Mongo-backed comment repository.
func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{coll: db.Collection("comments")}
}

func (r *MongoCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if _, err := r.coll.InsertOne(ctx, comment); err != nil {
		return apperrors.NewStorageError("comment create", err)
	}
	return nil
}

func (r *MongoCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&comment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("comment get", err)
	}
	return &comment, nil
}

func (r *MongoCommentRepository) ListByTask(ctx context.Context, daoID string, taskID int) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"daoId": daoID, "taskId": taskID}, opts)
	if err != nil {
		return nil, apperrors.NewStorageError("comment list", err)
	}
	defer cur.Close(ctx)

	comments := []models.Comment{}
	if err := cur.All(ctx, &comments); err != nil {
		return nil, apperrors.NewStorageError("comment list decode", err)
	}
	return comments, nil
}

func (r *MongoCommentRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, apperrors.NewStorageError("comment delete", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoCommentRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return apperrors.NewStorageError("comment delete all", err)
	}
	return nil
}
