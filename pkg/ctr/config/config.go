package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/internalerr"
)

// Config carries all tunables for one processing run. Components take
// the pieces they need explicitly instead of reading process state.
type Config struct {
	// Sentinel is the canonical name used when resolution fails.
	Sentinel string `yaml:"sentinel"`

	// NoiseTokens extends the normalizer's default suffix list.
	NoiseTokens []string `yaml:"noise_tokens"`

	// Indicators maps a canonical company name to substrings that
	// identify it in a normalized key. Matching locally avoids a
	// remote classification call.
	Indicators map[string][]string `yaml:"indicators"`

	Classifier Classifier `yaml:"classifier"`
	Columns    Columns    `yaml:"columns"`

	// MappingsPath is the learned-mapping side file.
	MappingsPath string `yaml:"mappings_path"`
}

// Classifier configures the remote classification call.
type Classifier struct {
	// APIKey falls back to OPENAI_API_KEY when empty.
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`

	// TimeoutSeconds bounds one remote call.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// ConfidenceFloor rejects model answers below this confidence.
	ConfidenceFloor float64 `yaml:"confidence_floor"`
}

// Timeout returns the per-call deadline.
func (c Classifier) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Key returns the configured API key, falling back to the environment.
func (c Classifier) Key() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	return os.Getenv("OPENAI_API_KEY")
}

// Columns gives zero-based input column indices. Defaults follow the
// SEMRush export layout: keyword in A, search volume in D, traffic in H.
type Columns struct {
	Label       int `yaml:"label"`
	Impressions int `yaml:"impressions"`
	Clicks      int `yaml:"clicks"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Sentinel: "Unknown Company",
		Indicators: map[string][]string{
			"Bank of America":  {"bank of america", "bofa", "b of a"},
			"Wells Fargo":      {"wells fargo", "wellsfargo"},
			"Citibank":         {"citibank", "citi"},
			"Chase":            {"chase", "jp morgan chase", "jpmorgan"},
			"Capital One":      {"capital one"},
			"American Express": {"american express", "amex"},
		},
		Classifier: Classifier{
			Model:           "gpt-4o-mini",
			TimeoutSeconds:  20,
			ConfidenceFloor: 0.5,
		},
		Columns: Columns{
			Label:       0,
			Impressions: 3,
			Clicks:      7,
		},
		MappingsPath: "learned_mappings.json",
	}
}

// Load reads a YAML file over the defaults. A missing path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks invariants the rest of the pipeline relies on.
func (c Config) Validate() error {
	if c.Sentinel == "" {
		return fmt.Errorf("%w: sentinel must not be empty", internalerr.ErrInvalidConfig)
	}
	if c.Columns.Label < 0 || c.Columns.Impressions < 0 || c.Columns.Clicks < 0 {
		return fmt.Errorf("%w: column indices must be non-negative", internalerr.ErrInvalidConfig)
	}
	if c.Columns.Impressions == c.Columns.Clicks {
		return fmt.Errorf("%w: impressions and clicks columns must differ", internalerr.ErrInvalidConfig)
	}
	if c.Classifier.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: classifier timeout must be positive", internalerr.ErrInvalidConfig)
	}
	if c.Classifier.ConfidenceFloor < 0 || c.Classifier.ConfidenceFloor > 1 {
		return fmt.Errorf("%w: confidence floor must be in [0,1]", internalerr.ErrInvalidConfig)
	}
	return nil
}
