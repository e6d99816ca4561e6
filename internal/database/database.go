package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Probe attempts a MongoDB connection once at startup. A nil database
// with a nil error means the probe failed and the caller should run on
// the in-memory store for the rest of the process lifetime; the mode is
// never revisited mid-session.
func Probe(uri, dbName string, timeout time.Duration) (*mongo.Database, error) {
	if uri == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil
	}

	db := client.Database(dbName)
	if err := ensureIndexes(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	return db, nil
}

// ensureIndexes creates the unique indexes the repositories rely on for
// duplicate-key detection.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	if _, err := db.Collection("daos").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "numeroListe", Value: 1}},
		Options: unique,
	}); err != nil {
		return fmt.Errorf("daos.numeroListe: %w", err)
	}

	if _, err := db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	}); err != nil {
		return fmt.Errorf("users.email: %w", err)
	}

	if _, err := db.Collection("comments").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "daoId", Value: 1}, {Key: "taskId", Value: 1}},
	}); err != nil {
		return fmt.Errorf("comments.daoId+taskId: %w", err)
	}

	return nil
}

// Disconnect closes the client behind the database, if any.
func Disconnect(db *mongo.Database) {
	if db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = db.Client().Disconnect(ctx)
}
