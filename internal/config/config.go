package config

import (
	"fmt"
	"time"
	"upload-coordinator/internal/core/chunk"

	"github.com/docker/go-units"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env          Env
	Server       ServerConfig
	Upload       UploadConfig
	Storage      StorageConfig
	Minio        MinioConfig
	S3           S3Config
	SessionStore SessionStoreConfig
	Redis        RedisConfig
	Database     DatabaseConfig
	NATS         NATSConfig
}

type Env struct {
	Env      string `envconfig:"ENV" default:"DEV"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"localhost"`
	Port            string        `envconfig:"SERVER_PORT" default:"8080"`
	RequestTimeout  time.Duration `envconfig:"SERVER_REQUEST_TIMEOUT" default:"120s"`
	MaxJSONBodySize ByteSize      `envconfig:"SERVER_MAX_JSON_BODY_SIZE" default:"1MiB"`
}

// UploadConfig holds the session coordinator policy
type UploadConfig struct {
	SessionTTL       time.Duration `envconfig:"UPLOAD_SESSION_TTL" default:"1h"`
	PresignTTL       time.Duration `envconfig:"UPLOAD_PRESIGN_TTL" default:"15m"`
	DefaultChunkSize ByteSize      `envconfig:"UPLOAD_DEFAULT_CHUNK_SIZE" default:"5MiB"`
	MinChunkSize     ByteSize      `envconfig:"UPLOAD_MIN_CHUNK_SIZE" default:"256KiB"`
	MaxChunkSize     ByteSize      `envconfig:"UPLOAD_MAX_CHUNK_SIZE" default:"50MiB"`
	SweepEvery       time.Duration `envconfig:"UPLOAD_SWEEP_EVERY" default:"0"`
}

type StorageConfig struct {
	Backend string `envconfig:"STORAGE_BACKEND" default:"minio"`
}

type MinioConfig struct {
	Endpoint   string `envconfig:"MINIO_ENDPOINT"`
	BucketName string `envconfig:"MINIO_BUCKET_NAME" default:"uploads"`
	AccessKey  string `envconfig:"MINIO_ACCESS_KEY"`
	SecretKey  string `envconfig:"MINIO_SECRET_KEY"`
	UseSSL     bool   `envconfig:"MINIO_USE_SSL" default:"false"`
}

type S3Config struct {
	Region       string `envconfig:"S3_REGION" default:"us-east-1"`
	BucketName   string `envconfig:"S3_BUCKET_NAME"`
	Endpoint     string `envconfig:"S3_ENDPOINT"`
	AccessKey    string `envconfig:"S3_ACCESS_KEY"`
	SecretKey    string `envconfig:"S3_SECRET_KEY"`
	UsePathStyle bool   `envconfig:"S3_USE_PATH_STYLE" default:"false"`
}

type SessionStoreConfig struct {
	Backend string `envconfig:"SESSION_STORE" default:"redis"`
}

type RedisConfig struct {
	Addr      string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password  string `envconfig:"REDIS_PASSWORD"`
	DB        int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"upload:session:"`
}

type DatabaseConfig struct {
	Host           string        `envconfig:"DB_HOST" default:"localhost"`
	Port           int           `envconfig:"DB_PORT" default:"5432"`
	User           string        `envconfig:"DB_USER"`
	Password       string        `envconfig:"DB_PASSWORD"`
	Name           string        `envconfig:"DB_NAME"`
	SSLMode        string        `envconfig:"DB_SSLMODE" default:"disable"`
	MaxOpenCons    int           `envconfig:"DB_MAX_OPEN_CONS" default:"25"`
	MaxIdleCons    int           `envconfig:"DB_MAX_IDLE_CONS" default:"5"`
	ConMaxLifeTime time.Duration `envconfig:"DB_CONMAX_LIFE_TIME" default:"5m"`
}

// NATSConfig is optional, an empty URL disables event publishing
type NATSConfig struct {
	URL        string `envconfig:"NATS_URL"`
	Name       string `envconfig:"NATS_CLIENT_NAME" default:"upload-coordinator"`
	StreamName string `envconfig:"NATS_STREAM_NAME" default:"UPLOADS"`
	Subject    string `envconfig:"NATS_SUBJECT" default:"uploads.session"`
	Consumer   string `envconfig:"NATS_CONSUMER" default:"uploadctl"`
}

// ByteSize is a size in bytes that can be configured as "5MiB", "512KB" or a plain integer
type ByteSize int64

// Decode implements envconfig.Decoder
func (b *ByteSize) Decode(value string) error {
	size, err := units.RAMInBytes(value)
	if err != nil {
		return fmt.Errorf("invalid byte size %q: %w", value, err)
	}
	*b = ByteSize(size)
	return nil
}

func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "minio":
		if c.Minio.Endpoint == "" || c.Minio.AccessKey == "" || c.Minio.SecretKey == "" {
			return fmt.Errorf("minio backend requires MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY")
		}
	case "s3":
		if c.S3.BucketName == "" {
			return fmt.Errorf("s3 backend requires S3_BUCKET_NAME")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}

	switch c.SessionStore.Backend {
	case "redis", "memory":
	case "postgres":
		if c.Database.User == "" || c.Database.Name == "" {
			return fmt.Errorf("postgres session store requires DB_USER and DB_NAME")
		}
	default:
		return fmt.Errorf("unknown session store: %s", c.SessionStore.Backend)
	}

	if err := c.Upload.validateChunkBounds(); err != nil {
		return err
	}
	if c.Upload.SessionTTL <= 0 {
		return fmt.Errorf("UPLOAD_SESSION_TTL must be positive")
	}
	return nil
}

// validateChunkBounds keeps configured sizes inside the bounds clients plan with
func (u UploadConfig) validateChunkBounds() error {
	minSize, maxSize, def := int64(u.MinChunkSize), int64(u.MaxChunkSize), int64(u.DefaultChunkSize)
	if minSize < chunk.MinChunkSize || maxSize > chunk.MaxChunkSize || minSize > maxSize {
		return fmt.Errorf("invalid chunk size bounds: min=%s max=%s, allowed [%s, %s]",
			units.BytesSize(float64(minSize)), units.BytesSize(float64(maxSize)),
			units.BytesSize(float64(chunk.MinChunkSize)), units.BytesSize(float64(chunk.MaxChunkSize)))
	}
	if def < minSize || def > maxSize {
		return fmt.Errorf("UPLOAD_DEFAULT_CHUNK_SIZE %s outside [%s, %s]",
			units.BytesSize(float64(def)), units.BytesSize(float64(minSize)), units.BytesSize(float64(maxSize)))
	}
	return nil
}
