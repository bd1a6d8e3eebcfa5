package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML form of Config. Unset fields leave the current
// value alone.
type FileConfig struct {
	Port         string `yaml:"port"`
	APIKey       string `yaml:"api_key"`
	DefaultScope string `yaml:"default_scope"`
	DefaultSink  string `yaml:"default_sink"`

	Pathstore struct {
		URL    string `yaml:"url"`
		APIKey string `yaml:"api_key"`
		Prefix string `yaml:"prefix"`
	} `yaml:"pathstore"`

	S3 struct {
		Bucket    string `yaml:"bucket"`
		Prefix    string `yaml:"prefix"`
		Region    string `yaml:"region"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
	} `yaml:"s3"`

	Workers struct {
		Count    int `yaml:"count"`
		MaxQueue int `yaml:"max_queue"`
	} `yaml:"workers"`

	MaxUploadBytes       int64         `yaml:"max_upload_bytes"`
	JobTTL               time.Duration `yaml:"job_ttl"`
	StatsWindow          time.Duration `yaml:"stats_window"`
	PDFFallbackPdftotext *bool         `yaml:"pdf_fallback_pdftotext"`
	CORSOrigins          []string      `yaml:"cors_origins"`
}

// LoadFile reads a YAML config file.
func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("parse yaml: %w", err)
	}
	return fc, nil
}

// Apply overlays the set fields of fc onto cfg.
func (fc FileConfig) Apply(cfg *Config) {
	setString(&cfg.Port, fc.Port)
	setString(&cfg.APIKey, fc.APIKey)
	setString(&cfg.DefaultScope, fc.DefaultScope)
	setString(&cfg.DefaultSink, fc.DefaultSink)

	setString(&cfg.PathstoreURL, fc.Pathstore.URL)
	setString(&cfg.PathstoreAPIKey, fc.Pathstore.APIKey)
	setString(&cfg.PathstorePrefix, fc.Pathstore.Prefix)

	setString(&cfg.S3Bucket, fc.S3.Bucket)
	setString(&cfg.S3Prefix, fc.S3.Prefix)
	setString(&cfg.AWSRegion, fc.S3.Region)
	setString(&cfg.AWSAccessKey, fc.S3.AccessKey)
	setString(&cfg.AWSSecretKey, fc.S3.SecretKey)

	if fc.Workers.Count > 0 {
		cfg.WorkerCount = fc.Workers.Count
	}
	if fc.Workers.MaxQueue > 0 {
		cfg.MaxQueueSize = fc.Workers.MaxQueue
	}
	if fc.MaxUploadBytes > 0 {
		cfg.MaxUploadBytes = fc.MaxUploadBytes
	}
	if fc.JobTTL > 0 {
		cfg.JobTTL = fc.JobTTL
	}
	if fc.StatsWindow > 0 {
		cfg.StatsWindow = fc.StatsWindow
	}
	if fc.PDFFallbackPdftotext != nil {
		cfg.PDFFallbackPdftotext = *fc.PDFFallbackPdftotext
	}
	if len(fc.CORSOrigins) > 0 {
		cfg.CORSOrigins = fc.CORSOrigins
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
