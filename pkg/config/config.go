package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Storage drivers selectable with STORAGE_DRIVER.
const (
	StorageLocal  = "local"
	StorageMinio  = "minio"
	StorageGridFS = "gridfs"
)

// devJWTSecret is only accepted when ENV=development.
const devJWTSecret = "development-only-jwt-secret"

type (
	Config struct {
		Port     string `env:"PORT" envDefault:"8080"`
		Env      string `env:"ENV" envDefault:"development"`
		LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

		PostgresConnStr         string        `env:"POSTGRES_CONN_STR"`
		JWTSecret               string        `env:"JWT_SECRET"`
		JWTTTL                  time.Duration `env:"JWT_TTL" envDefault:"72h"`
		FirebaseCredentialsPath string        `env:"FIREBASE_CREDENTIALS_PATH"`
		FeedLimit               int           `env:"FEED_LIMIT" envDefault:"5"`
		AuthRateLimit           float64       `env:"AUTH_RATE_LIMIT" envDefault:"1"`

		Storage StorageProperties `envPrefix:"STORAGE_"`
		S3      S3Properties      `envPrefix:"S3_"`
		Mongo   MongoProperties   `envPrefix:"MONGO_"`
	}

	StorageProperties struct {
		Driver    string `env:"DRIVER" envDefault:"local"`
		LocalDir  string `env:"LOCAL_DIR" envDefault:"./storage/app/public"`
		PublicURL string `env:"PUBLIC_URL" envDefault:"/media"`
	}

	S3Properties struct {
		Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
		AccessKey string `env:"ACCESS_KEY"`
		SecretKey string `env:"SECRET_KEY"`
		Bucket    string `env:"BUCKET" envDefault:"posts"`
		UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
	}

	MongoProperties struct {
		URI          string `env:"URI"`
		Database     string `env:"DATABASE" envDefault:"postboard"`
		GridFSBucket string `env:"GRIDFS_BUCKET" envDefault:"images"`
	}
)

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, assuming environment variables are set.")
	}
	return Parse()
}

// Parse reads the configuration from the environment and checks it.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) validate() error {
	if c.PostgresConnStr == "" {
		return errors.New("POSTGRES_CONN_STR environment variable not set")
	}
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return errors.New("JWT_SECRET environment variable not set")
		}
		c.JWTSecret = devJWTSecret
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if c.FeedLimit < 1 {
		return fmt.Errorf("FEED_LIMIT must be at least 1, got %d", c.FeedLimit)
	}

	switch c.Storage.Driver {
	case StorageLocal:
	case StorageMinio:
		if c.S3.AccessKey == "" || c.S3.SecretKey == "" {
			return errors.New("S3_ACCESS_KEY and S3_SECRET_KEY are required for the minio storage driver")
		}
	case StorageGridFS:
		if c.Mongo.URI == "" {
			return errors.New("MONGO_URI is required for the gridfs storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	return nil
}
