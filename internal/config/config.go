package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Mongo  MongoConfig
	App    AppConfig
	Logger LoggerConfig
	Cache  CacheConfig
	Events EventsConfig
}

// MongoConfig holds configuration for the document store
type MongoConfig struct {
	URI      string `mapstructure:"MONGO_URI"`
	Database string `mapstructure:"MONGO_DB"`
}

// AppConfig holds configuration for the application server
type AppConfig struct {
	HTTPPort               string `mapstructure:"HTTP_PORT"`
	FrontendOrigin         string `mapstructure:"FRONTEND_ORIGIN"`
	ShutdownTimeoutSeconds int    `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS"`
	Environment            string `mapstructure:"APP_ENV"`
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level            string  `mapstructure:"LOG_LEVEL"`
	Format           string  `mapstructure:"LOG_FORMAT"`
	OutputPath       string  `mapstructure:"LOG_OUTPUT_PATH"`
	SlowQuerySeconds float64 `mapstructure:"LOG_SLOW_QUERY_SECONDS"`
	EnableSampling   bool    `mapstructure:"LOG_ENABLE_SAMPLING"`
	ServiceName      string  `mapstructure:"SERVICE_NAME"`
	ServiceVersion   string  `mapstructure:"SERVICE_VERSION"`
}

// CacheConfig holds configuration for the optional Redis cache
type CacheConfig struct {
	Enabled    bool   `mapstructure:"REDIS_ENABLED"`
	Host       string `mapstructure:"REDIS_HOST"`
	Port       string `mapstructure:"REDIS_PORT"`
	Password   string `mapstructure:"REDIS_PASSWORD"`
	DB         int    `mapstructure:"REDIS_DB"`
	PoolSize   int    `mapstructure:"REDIS_POOL_SIZE"`
	TTLSeconds int    `mapstructure:"REDIS_CACHE_TTL_SECONDS"`
}

// EventsConfig holds configuration for the optional event publisher.
// An empty URL disables publishing.
type EventsConfig struct {
	AMQPURL string `mapstructure:"AMQP_URL"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults first
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("app") // Look for app.env
	v.SetConfigType("env")

	v.AutomaticEnv() // Read from environment variables

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if we have env vars
	}

	var config Config

	// Manually populate config from viper
	config.Mongo.URI = v.GetString("MONGO_URI")
	config.Mongo.Database = v.GetString("MONGO_DB")

	config.App.HTTPPort = v.GetString("HTTP_PORT")
	config.App.FrontendOrigin = v.GetString("FRONTEND_ORIGIN")
	config.App.ShutdownTimeoutSeconds = v.GetInt("SHUTDOWN_TIMEOUT_SECONDS")
	config.App.Environment = v.GetString("APP_ENV")

	config.Logger.Level = v.GetString("LOG_LEVEL")
	config.Logger.Format = v.GetString("LOG_FORMAT")
	config.Logger.OutputPath = v.GetString("LOG_OUTPUT_PATH")
	config.Logger.SlowQuerySeconds = v.GetFloat64("LOG_SLOW_QUERY_SECONDS")
	config.Logger.EnableSampling = v.GetBool("LOG_ENABLE_SAMPLING")
	config.Logger.ServiceName = v.GetString("SERVICE_NAME")
	config.Logger.ServiceVersion = v.GetString("SERVICE_VERSION")

	config.Cache.Enabled = v.GetBool("REDIS_ENABLED")
	config.Cache.Host = v.GetString("REDIS_HOST")
	config.Cache.Port = v.GetString("REDIS_PORT")
	config.Cache.Password = v.GetString("REDIS_PASSWORD")
	config.Cache.DB = v.GetInt("REDIS_DB")
	config.Cache.PoolSize = v.GetInt("REDIS_POOL_SIZE")
	config.Cache.TTLSeconds = v.GetInt("REDIS_CACHE_TTL_SECONDS")

	config.Events.AMQPURL = v.GetString("AMQP_URL")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "user_service")

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("FRONTEND_ORIGIN", "http://localhost:3000")
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)

	// Logger defaults depend on the environment. AutomaticEnv is not
	// enabled yet when defaults are set, so read the variable directly.
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = v.GetString("APP_ENV")
	}
	if env == "production" {
		v.SetDefault("LOG_LEVEL", "info")
		v.SetDefault("LOG_FORMAT", "json")
		v.SetDefault("LOG_ENABLE_SAMPLING", true)
	} else {
		v.SetDefault("LOG_LEVEL", "debug")
		v.SetDefault("LOG_FORMAT", "console")
		v.SetDefault("LOG_ENABLE_SAMPLING", false)
	}
	v.SetDefault("LOG_OUTPUT_PATH", "stdout")
	v.SetDefault("LOG_SLOW_QUERY_SECONDS", 0.2)
	v.SetDefault("SERVICE_NAME", "user-service")
	v.SetDefault("SERVICE_VERSION", "1.0.0")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_CACHE_TTL_SECONDS", 300)

	v.SetDefault("AMQP_URL", "")
}

// Validate checks that required settings are present and consistent.
func (c *Config) Validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("MONGO_URI must not be empty")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("MONGO_DB must not be empty")
	}
	if c.App.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT must not be empty")
	}
	if c.App.FrontendOrigin == "" {
		return fmt.Errorf("FRONTEND_ORIGIN must not be empty")
	}
	if c.App.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT_SECONDS must be positive")
	}
	if c.Cache.Enabled {
		if c.Cache.Host == "" || c.Cache.Port == "" {
			return fmt.Errorf("REDIS_HOST and REDIS_PORT must be set when REDIS_ENABLED is true")
		}
		if c.Cache.TTLSeconds <= 0 {
			return fmt.Errorf("REDIS_CACHE_TTL_SECONDS must be positive when REDIS_ENABLED is true")
		}
	}
	return nil
}

// ShutdownTimeout returns the graceful shutdown window as a duration
func (c *AppConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// TTL returns the cache entry lifetime as a duration
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}
