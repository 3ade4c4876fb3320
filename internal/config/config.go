package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the lead tools.
type Config struct {
	Cleaning CleaningConfig `yaml:"cleaning"`
	Storage  StorageConfig  `yaml:"storage"`
	RunLog   RunLogConfig   `yaml:"runlog"`
	Lock     LockConfig     `yaml:"lock"`
	Logging  LoggingConfig  `yaml:"logging"`
	Enrich   EnrichConfig   `yaml:"enrich"`
}

// CleaningConfig controls a lead cleaning run.
type CleaningConfig struct {
	Input     string `yaml:"input"`
	OutputDir string `yaml:"output_dir" validate:"required"`
	Format    string `yaml:"format" validate:"oneof=csv json"`
	Workers   int    `yaml:"workers" validate:"gte=1,lte=256"`
}

// StorageConfig holds AWS settings used for s3:// locations.
type StorageConfig struct {
	AWSRegion  string `yaml:"aws_region"`
	AWSProfile string `yaml:"aws_profile"`
}

// GetAWSProfile returns the profile to use. On ECS the task role is used, so
// the profile is ignored.
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		return envProfile
	}
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// RunLogConfig controls recording of run metadata in PostgreSQL.
type RunLogConfig struct {
	Enabled     bool   `yaml:"enabled"`
	DatabaseURL string `yaml:"database_url" validate:"required_if=Enabled true"`
}

// LockConfig controls the single-run lock. Without a Redis URL the lock falls
// back to a PostgreSQL advisory lock when the run log is enabled.
type LockConfig struct {
	RedisURL   string `yaml:"redis_url"`
	Key        string `yaml:"key" validate:"required"`
	TTLSeconds int    `yaml:"ttl_seconds" validate:"gte=1"`
}

// TTL returns the lock TTL as a duration.
func (c LockConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	// RedactPII is nil when unset, which means redaction stays on.
	RedactPII *bool `yaml:"redact_pii"`
}

// Redact reports whether e-mail addresses and phone numbers are masked in logs.
func (c LoggingConfig) Redact() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// EnrichConfig controls the post enrichment utility.
type EnrichConfig struct {
	PostsURL       string  `yaml:"posts_url" validate:"required,url"`
	UsersURL       string  `yaml:"users_url" validate:"required,url"`
	CommentsURL    string  `yaml:"comments_url" validate:"required,url"`
	TimeoutSeconds int     `yaml:"timeout_seconds" validate:"gte=1"`
	Retries        int     `yaml:"retries" validate:"gte=0,lte=10"`
	SleepSeconds   float64 `yaml:"sleep_seconds" validate:"gte=0"`
	Backoff        string  `yaml:"backoff" validate:"oneof=exponential linear"`
	OutputDir      string  `yaml:"output_dir" validate:"required"`
	Format         string  `yaml:"format" validate:"oneof=csv json"`
}

// Timeout returns the per-request timeout.
func (c EnrichConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Sleep returns the base delay between retries.
func (c EnrichConfig) Sleep() time.Duration {
	return time.Duration(c.SleepSeconds * float64(time.Second))
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Cleaning.OutputDir == "" {
		cfg.Cleaning.OutputDir = "out"
	}
	if cfg.Cleaning.Format == "" {
		cfg.Cleaning.Format = "csv"
	}
	if cfg.Cleaning.Workers == 0 {
		cfg.Cleaning.Workers = 1
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "us-west-2"
	}
	if cfg.Lock.Key == "" {
		cfg.Lock.Key = "leadclean:run"
	}
	if cfg.Lock.TTLSeconds == 0 {
		cfg.Lock.TTLSeconds = 300
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.RedactPII == nil {
		redact := true
		cfg.Logging.RedactPII = &redact
	}
	if cfg.Enrich.PostsURL == "" {
		cfg.Enrich.PostsURL = "https://jsonplaceholder.typicode.com/posts"
	}
	if cfg.Enrich.UsersURL == "" {
		cfg.Enrich.UsersURL = "https://jsonplaceholder.typicode.com/users"
	}
	if cfg.Enrich.CommentsURL == "" {
		cfg.Enrich.CommentsURL = "https://jsonplaceholder.typicode.com/comments"
	}
	if cfg.Enrich.TimeoutSeconds == 0 {
		cfg.Enrich.TimeoutSeconds = 10
	}
	if cfg.Enrich.Retries == 0 {
		cfg.Enrich.Retries = 3
	}
	if cfg.Enrich.SleepSeconds == 0 {
		cfg.Enrich.SleepSeconds = 0.5
	}
	if cfg.Enrich.Backoff == "" {
		cfg.Enrich.Backoff = "linear"
	}
	if cfg.Enrich.OutputDir == "" {
		cfg.Enrich.OutputDir = "out"
	}
	if cfg.Enrich.Format == "" {
		cfg.Enrich.Format = "csv"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file in the working directory is loaded first when present. An
// empty path starts from Default.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("LEADCLEAN_INPUT"); v != "" {
		cfg.Cleaning.Input = v
	}
	if v := os.Getenv("LEADCLEAN_OUTPUT_DIR"); v != "" {
		cfg.Cleaning.OutputDir = v
	}
	if v := os.Getenv("LEADCLEAN_FORMAT"); v != "" {
		cfg.Cleaning.Format = v
	}
	if v := os.Getenv("LEADCLEAN_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("LEADCLEAN_WORKERS: %w", err)
		}
		cfg.Cleaning.Workers = n
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Storage.AWSRegion = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.RunLog.DatabaseURL = v
		cfg.RunLog.Enabled = true
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Lock.RedisURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("ENRICH_POSTS_URL"); v != "" {
		cfg.Enrich.PostsURL = v
	}
	if v := os.Getenv("ENRICH_USERS_URL"); v != "" {
		cfg.Enrich.UsersURL = v
	}
	if v := os.Getenv("ENRICH_COMMENTS_URL"); v != "" {
		cfg.Enrich.CommentsURL = v
	}

	return cfg, nil
}

// ValidationError describes one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationErrors collects every invalid setting.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(messages, "; "))
}

// Validate checks value ranges and required settings.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		message := fe.Error()
		switch fe.Tag() {
		case "required", "required_if":
			message = "is required"
		case "oneof":
			message = fmt.Sprintf("must be one of [%s]", fe.Param())
		case "gte":
			message = fmt.Sprintf("must be at least %s", fe.Param())
		case "lte":
			message = fmt.Sprintf("must be at most %s", fe.Param())
		case "url":
			message = "must be a URL"
		}
		out = append(out, ValidationError{Field: fe.Namespace(), Message: message})
	}
	return out
}
