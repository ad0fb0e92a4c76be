// Package config loads and validates the YAML configuration shared by
// the pipeline utilities.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppConfig is the root configuration structure. It mirrors config.yaml.
type AppConfig struct {
	S3       S3Config       `yaml:"s3"`
	Manifest ManifestConfig `yaml:"manifest"`
	App      AppSpecific    `yaml:"app"`
}

// S3Config holds the object-store connection settings.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"` // supports ${VAR}
	SecretKey string `yaml:"secret_key"` // supports ${VAR}
	UseSSL    bool   `yaml:"use_ssl"`

	// RateLimit caps the number of S3 requests per second; BurstLimit
	// is the burst size for the limiter. Zero means no throttling.
	RateLimit  int `yaml:"rate_limit"`
	BurstLimit int `yaml:"burst_limit"`
}

// ManifestConfig describes one manifest-computation run.
//
// DataStage, OutputBucket, GitRepository and FileExtensions are
// required; everything else is optional and defaults to its zero value.
type ManifestConfig struct {
	DataStage      string   `yaml:"data_stage"`
	OutputBucket   string   `yaml:"output_bucket"`
	GitRepository  string   `yaml:"git_repository"`
	FileExtensions string   `yaml:"file_extensions"`
	InputBucket    string   `yaml:"input_bucket"`
	Titles         []string `yaml:"titles"`
	PreviousMftS3  string   `yaml:"previous_mft_s3_path"`
	IsPatch        bool     `yaml:"is_patch"`
	PatchedFields  []string `yaml:"patched_fields"`
	OnlyCounting   bool     `yaml:"only_counting"`
	PushToGit      bool     `yaml:"push_to_git"`
	Notes          string   `yaml:"notes"`
	RelativeGitDir string   `yaml:"relative_git_path"`
	Altogether     bool     `yaml:"compute_altogether"`
	ModelID        string   `yaml:"model_id"`
	RunID          string   `yaml:"run_id"`
	CheckArchives  bool     `yaml:"check_s3_archives"`
	TempDirectory  string   `yaml:"temp_directory"`
	Workers        int      `yaml:"workers"`
}

// AppSpecific holds general application settings.
type AppSpecific struct {
	Debug   bool   `yaml:"debug"`
	LogFile string `yaml:"log_file"`
}

// Load reads a YAML file, expands environment variables and returns the
// parsed, validated configuration.
func Load(path string) (*AppConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// os.ExpandEnv replaces ${VAR} or $VAR with values from the system.
	contentWithEnv := os.ExpandEnv(string(rawBytes))

	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate checks the fields every tool needs. The manifest block is
// only required by the manifest computation, which validates it
// itself.
func (c *AppConfig) validate() error {
	if c.S3.Endpoint == "" {
		return fmt.Errorf("s3.endpoint is required")
	}
	return nil
}

// Validate ensures all required manifest-run settings are present.
func (m *ManifestConfig) Validate() error {
	switch {
	case m.DataStage == "":
		return fmt.Errorf("manifest.data_stage is required")
	case m.OutputBucket == "":
		return fmt.Errorf("manifest.output_bucket is required")
	case m.GitRepository == "":
		return fmt.Errorf("manifest.git_repository is required")
	case m.FileExtensions == "":
		return fmt.Errorf("manifest.file_extensions should not be empty")
	}
	return nil
}

// WithDefaults returns a copy with unset optional fields filled in.
func (m ManifestConfig) WithDefaults() ManifestConfig {
	if m.Workers == 0 {
		m.Workers = 8
	}
	if m.TempDirectory == "" {
		m.TempDirectory = os.TempDir()
	}
	return m
}
