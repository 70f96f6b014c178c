package di

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	driver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"

	"user-service/cmd/api/infrastructure"
	"user-service/internal/adapter/cache"
	mongorepo "user-service/internal/adapter/db/mongo"
	"user-service/internal/adapter/events"
	ginhandler "user-service/internal/adapter/gin/handler"
	"user-service/internal/adapter/repository/cached"
	"user-service/internal/config"
	"user-service/internal/usecase/user"
	redisclient "user-service/pkg/redis"
)

// Container holds all application dependencies.
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	MongoClient *driver.Client
	RedisClient *redisclient.Client
	AMQPConn    *amqp.Connection
	Events      events.Publisher
	UserUC      user.Usecase
	GinHandler  *ginhandler.UserHandler
}

// NewContainer creates and initializes all application dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c := &Container{Config: cfg, Logger: l}

	// Document store; connection failure here is the sole fatal path
	client, err := infrastructure.NewMongoClient(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mongo: %w", err)
	}
	c.MongoClient = client

	dbRepo := mongorepo.NewUserRepoMongo(client.Database(cfg.Mongo.Database), l)

	// The unique email index is the final arbiter of the uniqueness
	// invariant, so it must exist before any request is served
	if err := dbRepo.EnsureIndexes(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	// Repository, optionally wrapped with the Redis cache decorator
	repo := user.Repository(dbRepo)
	if cfg.Cache.Enabled {
		rdb, err := infrastructure.NewRedisClient(cfg, l)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		c.RedisClient = rdb

		userCache := cache.NewRedisUserCache(rdb.Client, cfg.Cache.TTL(), l)
		repo = cached.NewCachedUserRepository(dbRepo, userCache, l)
	}

	// Lifecycle event publisher; a missing URL disables publishing
	c.Events = events.Publisher(events.NewNoopPublisher())
	if cfg.Events.AMQPURL != "" {
		conn, err := infrastructure.NewAMQPConnection(cfg, l)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize AMQP: %w", err)
		}
		c.AMQPConn = conn

		pub, err := events.NewAMQPPublisher(conn, l)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize event publisher: %w", err)
		}
		c.Events = pub
	}

	c.UserUC = user.New(repo, c.Events, l)
	c.GinHandler = ginhandler.NewUserHandler(c.UserUC, l)

	return c, nil
}

// Close closes all resources held by the container.
func (c *Container) Close() error {
	var errs []error

	if c.Events != nil {
		if err := c.Events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event publisher: %w", err))
		}
	}

	if c.AMQPConn != nil {
		if err := c.AMQPConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close AMQP connection: %w", err))
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.MongoClient != nil {
		if err := infrastructure.CloseMongoClient(c.MongoClient); err != nil {
			errs = append(errs, fmt.Errorf("failed to close mongo: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
