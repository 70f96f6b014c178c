package infrastructure

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"user-service/internal/config"
	"user-service/pkg/logger"
)

const connectTimeout = 10 * time.Second

// NewMongoClient connects to the document store and verifies the connection
// with a ping. Command monitoring goes through the zap-backed monitor so slow
// and failed commands are logged like the rest of the application.
func NewMongoClient(cfg *config.Config, l *zap.Logger) (*mongo.Client, error) {
	monitor := logger.NewMongoMonitorWithConfig(l, cfg.Logger.SlowQuerySeconds, cfg.Logger.Level)

	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetConnectTimeout(connectTimeout).
		SetMonitor(monitor.CommandMonitor())

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx, nil); err != nil {
		// Connect rarely fails before the first operation, so disconnect the
		// half-open client before reporting
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	l.Info("mongo connected successfully", zap.String("database", cfg.Mongo.Database))
	return client, nil
}

// CloseMongoClient disconnects the mongo client.
func CloseMongoClient(client *mongo.Client) error {
	if client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect mongo: %w", err)
	}
	return nil
}
