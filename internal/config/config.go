package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the application configuration
type Config struct {
	ServerPort int `envconfig:"SERVER_PORT" default:"8080" validate:"min=1,max=65535"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"sqlite" validate:"oneof=sqlite postgres memory"`
	DatabaseURL string `envconfig:"DATABASE_URL" default:"users.db"`

	StorageDriver      string `envconfig:"STORAGE_DRIVER" default:"local" validate:"oneof=local s3"`
	UploadDir          string `envconfig:"UPLOAD_DIR" default:"static/uploads" validate:"required_if=StorageDriver local"`
	AWSBucketName      string `envconfig:"AWS_BUCKET_NAME" validate:"required_if=StorageDriver s3"`
	AWSRegion          string `envconfig:"AWS_REGION" validate:"required_if=StorageDriver s3"`
	AWSEndpoint        string `envconfig:"AWS_ENDPOINT"`
	AWSAccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`
	S3Prefix           string `envconfig:"S3_PREFIX"`

	SessionDriver string        `envconfig:"SESSION_DRIVER" default:"memory" validate:"oneof=memory cookie"`
	SessionSecret string        `envconfig:"SESSION_SECRET" validate:"required_if=SessionDriver cookie"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"24h" validate:"gt=0"`
	CookieSecure  bool          `envconfig:"COOKIE_SECURE" default:"false"`

	DownloadPolicy   string `envconfig:"DOWNLOAD_POLICY" default:"owner" validate:"oneof=owner public"`
	SignupRolePolicy string `envconfig:"SIGNUP_ROLE_POLICY" default:"restricted" validate:"oneof=restricted open"`
	MaxUploadBytes   int64  `envconfig:"MAX_UPLOAD_BYTES" default:"33554432" validate:"gt=0"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
}

// StoreConfig is the subset used by tools that only touch the credential store
type StoreConfig struct {
	StoreDriver string `envconfig:"STORE_DRIVER" default:"sqlite" validate:"oneof=sqlite postgres memory"`
	DatabaseURL string `envconfig:"DATABASE_URL" default:"users.db"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
}

// LoadDotEnv loads a .env file into the environment when present. Variables
// already set are not overridden. The returned error is informational.
func LoadDotEnv(files ...string) error {
	return godotenv.Load(files...)
}

// Load reads the configuration from environment variables and validates it
func Load(cfg *Config) error {
	if err := envconfig.Process("", cfg); err != nil {
		return err
	}
	for i, origin := range cfg.CORSAllowedOrigins {
		cfg.CORSAllowedOrigins[i] = strings.TrimSpace(origin)
	}
	return validate(cfg)
}

// LoadStore reads only the credential store settings
func LoadStore(cfg *StoreConfig) error {
	if err := envconfig.Process("", cfg); err != nil {
		return err
	}
	return validate(cfg)
}

func validate(cfg interface{}) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
