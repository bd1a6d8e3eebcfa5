package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Extraction defaults
	DefaultScope string
	DefaultSink  string

	// Pathstore sink
	PathstoreURL    string
	PathstoreAPIKey string
	PathstorePrefix string

	// S3 sink
	S3Bucket     string
	S3Prefix     string
	AWSRegion    string
	AWSAccessKey string
	AWSSecretKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL      time.Duration
	StatsWindow time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// HTTP
	CORSOrigins []string
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:                 "8090",
		DefaultScope:         "auto",
		DefaultSink:          "response",
		PathstorePrefix:      "doctext/extracts",
		WorkerCount:          4,
		MaxQueueSize:         100,
		MaxUploadBytes:       52428800, // 50MB
		JobTTL:               1 * time.Hour,
		StatsWindow:          1 * time.Hour,
		PDFFallbackPdftotext: true,
		CORSOrigins:          []string{"*"},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// DOCTEXT_CONFIG, and the environment, in increasing priority. A .env file in
// the working directory is loaded into the environment first.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("DOCTEXT_CONFIG"); path != "" {
		fc, err := LoadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		fc.Apply(&cfg)
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("DOCTEXT_API_KEY", cfg.APIKey)
	cfg.DefaultScope = strings.ToLower(envOr("DEFAULT_SCOPE", cfg.DefaultScope))
	cfg.DefaultSink = strings.ToLower(envOr("DEFAULT_SINK", cfg.DefaultSink))

	cfg.PathstoreURL = envOr("PATHSTORE_URL", cfg.PathstoreURL)
	cfg.PathstoreAPIKey = envOr("PATHSTORE_API_KEY", cfg.PathstoreAPIKey)
	cfg.PathstorePrefix = envOr("PATHSTORE_PREFIX", cfg.PathstorePrefix)

	cfg.S3Bucket = envOr("S3_BUCKET", cfg.S3Bucket)
	cfg.S3Prefix = envOr("S3_PREFIX", cfg.S3Prefix)
	cfg.AWSRegion = envOr("AWS_REGION", cfg.AWSRegion)
	cfg.AWSAccessKey = envOr("AWS_ACCESS_KEY", cfg.AWSAccessKey)
	cfg.AWSSecretKey = envOr("AWS_SECRET_KEY", cfg.AWSSecretKey)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)
	cfg.StatsWindow = envDuration("STATS_WINDOW", cfg.StatsWindow)
	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)
	cfg.CORSOrigins = envList("CORS_ORIGINS", cfg.CORSOrigins)

	d := Defaults()
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = d.WorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = d.MaxQueueSize
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = d.MaxUploadBytes
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = d.JobTTL
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = d.StatsWindow
	}

	return cfg, nil
}

// Scopes and Sinks list the accepted DEFAULT_SCOPE and DEFAULT_SINK values.
var (
	Scopes = []any{"all", "region", "auto"}
	Sinks  = []any{"response", "discard", "stdout", "clipboard", "file", "pathstore", "s3"}
)

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, is.Port),
		validation.Field(&c.DefaultScope, validation.Required, validation.In(Scopes...)),
		validation.Field(&c.DefaultSink, validation.Required, validation.In(Sinks...)),
		validation.Field(&c.PathstoreURL,
			validation.When(c.DefaultSink == "pathstore", validation.Required),
			is.URL,
		),
		validation.Field(&c.S3Bucket, validation.When(c.DefaultSink == "s3", validation.Required)),
		validation.Field(&c.AWSRegion, validation.When(c.S3Bucket != "", validation.Required)),
		validation.Field(&c.AWSSecretKey, validation.When(c.AWSAccessKey != "", validation.Required)),
	)
}

// ValidateServer additionally requires the settings only the HTTP server needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("DOCTEXT_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated value, dropping empty entries.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
