package config

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureMongoIndexes creates the query indexes for the telemetry collections.
func EnsureMongoIndexes(cfg *TelemetrySettings) error {
	if MongoClient == nil {
		return errors.New("MongoClient is nil; call InitMongo() first")
	}
	db := MongoClient.Database(cfg.MongoDB)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	byUserTS := func(name string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName(name),
		}
	}
	byTS := mongo.IndexModel{
		Keys:    bson.D{{Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("by_ts"),
	}

	indexes := map[string][]mongo.IndexModel{
		"logs": {
			byTS,
			byUserTS("by_user_ts"),
			{
				Keys:    bson.D{{Key: "level", Value: 1}, {Key: "timestamp", Value: -1}},
				Options: options.Index().SetName("by_level_ts"),
			},
		},
		"user_activity": {byTS, byUserTS("by_user_ts")},
		"api_calls": {
			byTS,
			{
				Keys:    bson.D{{Key: "api_service", Value: 1}},
				Options: options.Index().SetName("by_service"),
			},
		},
		"error_logs": {
			byTS,
			byUserTS("by_user_ts"),
			{
				Keys:    bson.D{{Key: "error_type", Value: 1}},
				Options: options.Index().SetName("by_type"),
			},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}
