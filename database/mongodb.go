package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vikas-assistant-backend/config"
	"vikas-assistant-backend/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const messagesCollection = "messages"

// ErrMongoNotConnected is returned when MongoDB is used before ConnectMongoDB.
var ErrMongoNotConnected = errors.New("MongoDB not initialized")

var (
	mongoClient *mongo.Client
	mongoDB     *mongo.Database
)

// ConnectMongoDB establishes connection to MongoDB
func ConnectMongoDB(cfg *config.Config, lg logger.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(cfg.BuildDatabaseURI()).
		SetMaxPoolSize(uint64(cfg.Database.MaxConnections)).
		SetMinPoolSize(uint64(cfg.Database.MinConnections)).
		SetMaxConnIdleTime(cfg.Database.MaxIdleTime)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	mongoClient = client
	mongoDB = client.Database(cfg.Database.Name)

	lg.Info("connected to MongoDB", map[string]interface{}{"database": cfg.Database.Name})

	if err := createIndexes(ctx, mongoDB); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	lg.Debug("database indexes created", map[string]interface{}{"collection": messagesCollection})
	return nil
}

// GetMongoDB returns the MongoDB database instance
func GetMongoDB() (*mongo.Database, error) {
	if mongoDB == nil {
		return nil, ErrMongoNotConnected
	}
	return mongoDB, nil
}

// GetMongoClient returns the MongoDB client
func GetMongoClient() (*mongo.Client, error) {
	if mongoClient == nil {
		return nil, ErrMongoNotConnected
	}
	return mongoClient, nil
}

func createIndexes(ctx context.Context, db *mongo.Database) error {
	messageIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "session_id", Value: 1},
				{Key: "timestamp", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "intent", Value: 1}},
		},
	}

	if _, err := db.Collection(messagesCollection).Indexes().CreateMany(ctx, messageIndexes); err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}
	return nil
}

// DisconnectMongoDB closes the MongoDB connection
func DisconnectMongoDB() error {
	if mongoClient == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := mongoClient.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	mongoClient = nil
	mongoDB = nil
	return nil
}
