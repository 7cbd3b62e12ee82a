package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"collaborax/database"
)

var envLoaded bool

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"-"`
	DB       int    `yaml:"db"`
}

type Config struct {
	Environment   string        `yaml:"environment"`
	BlobBackend   string        `yaml:"blob_backend"` // file, redis or memory
	DataDir       string        `yaml:"data_dir"`
	StoreKey      string        `yaml:"store_key"`
	SessionKey    string        `yaml:"session_key"`
	SessionSecret string        `yaml:"-"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	EncryptionKey string        `yaml:"-"`
	Redis         RedisConfig   `yaml:"redis"`
	SentryDSN     string        `yaml:"-"`
	LogLevel      string        `yaml:"log_level"`
	LogFormat     string        `yaml:"log_format"` // text or json
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
	envLoaded = true
}

// LoadConfig reads the environment, then overlays CONFIG_FILE when set.
// Secrets are only ever taken from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Environment:   getEnv("ENVIRONMENT", "development"),
		BlobBackend:   getEnv("BLOB_BACKEND", "file"),
		DataDir:       getEnv("DATA_DIR", ".collaborax"),
		StoreKey:      getEnv("STORE_KEY", database.DefaultKey),
		SessionKey:    getEnv("SESSION_KEY", "collaborax_currentUser"),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTL:    time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 0)) * time.Hour,
		EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		SentryDSN: getEnv("SENTRY_DSN", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.overlay(path); err != nil {
			return nil, err
		}
	}

	// Validate required configurations
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	switch cfg.BlobBackend {
	case "file", "redis", "memory":
	default:
		return nil, fmt.Errorf("unknown BLOB_BACKEND %q", cfg.BlobBackend)
	}
	if cfg.EncryptionKey != "" {
		switch len(cfg.EncryptionKey) {
		case 16, 24, 32:
		default:
			return nil, errors.New("ENCRYPTION_KEY must be 16, 24 or 32 bytes")
		}
	}

	return cfg, nil
}

func (c *Config) overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// SetupLogging applies the configured level and format to the standard logrus
// logger.
func SetupLogging(cfg *Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if strings.EqualFold(cfg.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// InitSentry enables error reporting when a DSN is configured. The returned
// function flushes pending events.
func InitSentry(cfg *Config) (func(), error) {
	if cfg.SentryDSN == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.Environment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// OpenBlobStore builds the durable blob backend, wrapped with encryption when
// ENCRYPTION_KEY is set.
func OpenBlobStore(ctx context.Context, cfg *Config) (database.BlobStore, error) {
	var blobs database.BlobStore

	switch cfg.BlobBackend {
	case "memory":
		blobs = database.NewMemoryBlobStore()
	case "redis":
		store := database.NewRedisBlobStore(database.RedisOptions{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}
		blobs = store
	default:
		store, err := database.NewFileBlobStore(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		blobs = store
	}

	if cfg.EncryptionKey == "" {
		return blobs, nil
	}
	return database.NewEncryptedBlobStore(blobs, []byte(cfg.EncryptionKey))
}

// ConnectStore opens the blob backend and the embedded database on top of it.
// The store still needs Initialize.
func ConnectStore(ctx context.Context, cfg *Config) (*database.Store, database.BlobStore, error) {
	logrus.WithFields(logrus.Fields{
		"backend":   cfg.BlobBackend,
		"key":       cfg.StoreKey,
		"encrypted": cfg.EncryptionKey != "",
	}).Info("Opening workspace store")

	blobs, err := OpenBlobStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open blob store: %w", err)
	}
	store, err := database.NewStore(blobs, cfg.StoreKey)
	if err != nil {
		return nil, nil, err
	}
	return store, blobs, nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if !envLoaded && fallback == "" {
		logrus.Warnf("Environment variable %s not found and no fallback provided", key)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return fallback
	}
	return value
}
