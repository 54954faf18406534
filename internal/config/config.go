package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvDeploymentName = "DEPLOYMENT_NAME"
	EnvEndpoint       = "ENDPOINT"
	EnvAPIKey         = "API_KEY"
	EnvGCPProject     = "GCP_PROJECT"
	EnvBigQueryDS     = "BQ_DATASET"
	EnvGCSBucket      = "GCS_BUCKET"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
	EnvRulesFile      = "RULES_FILE"
	EnvRulesProfile   = "RULES_PROFILE"
	EnvAuthToken      = "API_AUTH_TOKEN"
	EnvIntakeURL      = "INTAKE_AGENT_URL"
	EnvProcessingURL  = "PROCESSING_AGENT_URL"
)

// Default agent endpoints.
const (
	DefaultIntakeURL     = "http://localhost:5000"
	DefaultProcessingURL = "http://localhost:5207"
)

// DefaultBigQueryDataset is used when BQ_DATASET is unset.
const DefaultBigQueryDataset = "purchase_orders"

// ErrMissingModelConfig is returned by ModelConfig.Validate.
var ErrMissingModelConfig = errors.New("model config incomplete")

// ModelConfig identifies the vision model used for extraction. It is passed
// to the extractor explicitly.
type ModelConfig struct {
	// DeploymentName is the model name, e.g. "gemini-2.5-flash".
	DeploymentName string
	// Endpoint overrides the API base URL. Empty uses the SDK default.
	Endpoint string
	// APIKey selects the Gemini API backend. Empty falls back to the SDK's
	// environment-based credentials.
	APIKey string
}

// Validate reports missing required fields.
func (m ModelConfig) Validate() error {
	if m.DeploymentName == "" {
		return fmt.Errorf("%w: %s is required", ErrMissingModelConfig, EnvDeploymentName)
	}
	return nil
}

// Config is the process configuration shared by every command.
type Config struct {
	Model ModelConfig

	GCPProject      string
	BigQueryDataset string
	GCSBucket       string

	LogLevel  string
	LogFormat string

	RulesFile    string
	RulesProfile string

	// AuthToken enables bearer auth on the HTTP API.
	AuthToken string

	IntakeURL     string
	ProcessingURL string
}

// LedgerEnabled reports whether a BigQuery decision ledger is configured.
func (c Config) LedgerEnabled() bool {
	return c.GCPProject != ""
}

// LoadDotEnv loads each file into the process environment. Missing files are
// skipped and existing variables are never overwritten.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("LoadDotEnv: load %s: %w", file, err)
		}
	}
	return nil
}

// FromEnv reads Config from the process environment.
func FromEnv() Config {
	cfg := Config{
		Model: ModelConfig{
			DeploymentName: os.Getenv(EnvDeploymentName),
			Endpoint:       os.Getenv(EnvEndpoint),
			APIKey:         os.Getenv(EnvAPIKey),
		},
		GCPProject:      os.Getenv(EnvGCPProject),
		BigQueryDataset: os.Getenv(EnvBigQueryDS),
		GCSBucket:       os.Getenv(EnvGCSBucket),
		LogLevel:        os.Getenv(EnvLogLevel),
		LogFormat:       os.Getenv(EnvLogFormat),
		RulesFile:       os.Getenv(EnvRulesFile),
		RulesProfile:    os.Getenv(EnvRulesProfile),
		AuthToken:       os.Getenv(EnvAuthToken),
		IntakeURL:       os.Getenv(EnvIntakeURL),
		ProcessingURL:   os.Getenv(EnvProcessingURL),
	}
	if cfg.BigQueryDataset == "" {
		cfg.BigQueryDataset = DefaultBigQueryDataset
	}
	if cfg.IntakeURL == "" {
		cfg.IntakeURL = DefaultIntakeURL
	}
	if cfg.ProcessingURL == "" {
		cfg.ProcessingURL = DefaultProcessingURL
	}
	return cfg
}

// Load reads .env (if present) and then the environment.
func Load() (Config, error) {
	if err := LoadDotEnv(); err != nil {
		return Config{}, err
	}
	return FromEnv(), nil
}
