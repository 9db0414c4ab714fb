package database

import (
	"context"
	"fmt"
	"time"

	"vikas-assistant-backend/config"
	"vikas-assistant-backend/logger"

	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connect establishes database connection based on config
func Connect(cfg *config.Config, lg logger.Logger) error {
	switch cfg.Database.Type {
	case "mongodb":
		return ConnectMongoDB(cfg, lg)
	case "memory":
		return nil
	default:
		return fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
}

// Disconnect closes database connection
func Disconnect() error {
	return DisconnectMongoDB()
}

// NewMessageRepository returns the history store matching cfg.
func NewMessageRepository(cfg *config.Config) (MessageRepository, error) {
	if cfg.Database.Type == "mongodb" {
		db, err := GetMongoDB()
		if err != nil {
			return nil, err
		}
		return NewMongoMessageRepository(db), nil
	}
	return NewMemoryMessageRepository(), nil
}

// HealthCheck performs a database health check
func HealthCheck(ctx context.Context, cfg *config.Config) error {
	switch cfg.Database.Type {
	case "mongodb":
		client, err := GetMongoClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return client.Ping(ctx, readpref.Primary())
	case "memory":
		return nil
	default:
		return fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
}
