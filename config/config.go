package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"
	StorageMinio = "minio"
)

type (
	APP struct {
		Name        string   `env:"NAME" envDefault:"userregistry"`
		Host        string   `env:"HOST" envDefault:"0.0.0.0"`
		Port        string   `env:"PORT" envDefault:"7000"`
		Env         string   `env:"ENV" envDefault:"development"`
		CORSOrigins []string `env:"CORS_ORIGIN" envSeparator:"," envDefault:"http://localhost:3000"`
		// multipart bodies carry the picture, so the cap sits above the 5 MiB file limit
		MaxBodyBytes int64 `env:"MAX_BODY_BYTES" envDefault:"6291456"`
	}
	DB struct {
		User     string `env:"USER"`
		Password string `env:"PASSWORD"`
		Name     string `env:"DB"`
		Host     string `env:"HOST" envDefault:"localhost"`
		Port     string `env:"PORT" envDefault:"5432"`
		SSLMode  string `env:"SSLMODE" envDefault:"disable"`
	}
	Storage struct {
		Driver    string `env:"STORAGE_DRIVER" envDefault:"local"`
		UploadDir string `env:"UPLOAD_DIR" envDefault:"uploads"`
		S3        S3     `envPrefix:"S3_"`
		Minio     Minio  `envPrefix:"MINIO_"`
	}
	S3 struct {
		Region          string `env:"REGION" envDefault:"us-east-1"`
		Endpoint        string `env:"ENDPOINT"`
		AccessKeyID     string `env:"ACCESS_KEY_ID"`
		SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
		BucketUploads   string `env:"BUCKET_UPLOADS"`
	}
	Minio struct {
		Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
		AccessKey string `env:"ACCESS_KEY"`
		SecretKey string `env:"SECRET_KEY"`
		Bucket    string `env:"BUCKET_NAME" envDefault:"user-uploads"`
		UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
	}
	MQ struct {
		User         string `env:"USER"`
		Password     string `env:"PASSWORD"`
		Vhost        string `env:"VHOST" envDefault:"/"`
		Host         string `env:"HOST"`
		AmqpPort     string `env:"AMQP_PORT" envDefault:"5672"`
		Exchange     string `env:"EXCHANGE" envDefault:"users"`
		ExchangeType string `env:"EXCHANGE_TYPE" envDefault:"direct"`
		QueueName    string `env:"QUEUE_NAME" envDefault:"users.lifecycle"`
	}
	Log struct {
		Level string `env:"LEVEL" envDefault:"info"`
		Dir   string `env:"DIR"`
	}

	Config struct {
		App     APP     `envPrefix:"SERVICE_"`
		DB      DB      `envPrefix:"POSTGRES_"`
		Storage Storage
		MQ      MQ  `envPrefix:"RABBITMQ_"`
		Log     Log `envPrefix:"LOG_"`
	}
)

// Load reads an optional .env file and then the process environment.
// Variables already present in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	switch cfg.Storage.Driver {
	case StorageLocal, StorageS3, StorageMinio:
	default:
		return Config{}, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	return cfg, nil
}

func (c Config) DBDSN() (string, error) {
	if c.DB.User == "" || c.DB.Name == "" || c.DB.Host == "" || c.DB.Port == "" {
		return "", fmt.Errorf("incomplete DB config")
	}
	return fmt.Sprintf(
		"postgres://%s@%s:%s/%s?sslmode=%s",
		url.UserPassword(c.DB.User, c.DB.Password).String(),
		c.DB.Host,
		c.DB.Port,
		c.DB.Name,
		c.DB.SSLMode,
	), nil
}

// MQEnabled reports whether lifecycle events should be published.
func (c Config) MQEnabled() bool { return c.MQ.Host != "" }

func (c Config) AMQPDSN() (string, error) {
	if c.MQ.User == "" || c.MQ.Host == "" || c.MQ.AmqpPort == "" {
		return "", fmt.Errorf("invalid MQ config: user, host and amqp port are required")
	}

	return fmt.Sprintf(
		"%s://%s@%s:%s/%s",
		"amqp",
		url.UserPassword(c.MQ.User, c.MQ.Password).String(),
		c.MQ.Host,
		c.MQ.AmqpPort,
		url.PathEscape(c.MQ.Vhost),
	), nil
}
