package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	pkgconfig "shop-reco/internal/pkg/config"
)

// RecommendConfig holds the recommendation model and derivation
// parameters. It is loaded from a YAML file so model tuning does not
// require a rebuild; every field has a production default.
type RecommendConfig struct {
	Recommend struct {
		Model struct {
			// Rank is the requested latent dimension, clamped per run
			// against the interaction matrix shape.
			Rank int `yaml:"rank"`
			// Iterations is the solver's power iteration count.
			Iterations int `yaml:"iterations"`
			// Seed fixes the solver's random start for reproducibility.
			Seed int64 `yaml:"seed"`
		} `yaml:"model"`

		// WindowDays is the interaction lookback for training.
		WindowDays int `yaml:"window_days"`

		// SimilarTopN is how many similar items to keep per item.
		SimilarTopN int `yaml:"similar_top_n"`
		// SimilarityThreshold drops weakly similar pairs.
		SimilarityThreshold float64 `yaml:"similarity_threshold"`
		// RecommendTopN is how many items to keep per user.
		RecommendTopN int `yaml:"recommend_top_n"`

		// SaveItemFactors toggles the pgvector model artifact table.
		SaveItemFactors bool `yaml:"save_item_factors"`
	} `yaml:"recommend"`
}

// DefaultRecommendConfig returns the production defaults.
func DefaultRecommendConfig() *RecommendConfig {
	var c RecommendConfig
	c.Recommend.Model.Rank = 100
	c.Recommend.Model.Iterations = 20
	c.Recommend.Model.Seed = 42
	c.Recommend.WindowDays = 180
	c.Recommend.SimilarTopN = 20
	c.Recommend.SimilarityThreshold = 0.01
	c.Recommend.RecommendTopN = 50
	c.Recommend.SaveItemFactors = true
	return &c
}

// LoadRecommendConfig loads the model configuration from a YAML file.
// An empty path returns the defaults.
// The path parameter is expected to come from a trusted source (command-line argument or hardcoded default).
func LoadRecommendConfig(path string) (*RecommendConfig, error) {
	if path == "" {
		config := DefaultRecommendConfig()
		applyEnvOverrides(config)
		return config, nil
	}

	// #nosec G304 -- path is provided by trusted source (CLI arg or config), not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultRecommendConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validateRecommendConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	applyEnvOverrides(config)
	return config, nil
}

// applyEnvOverrides applies the environment overrides that make sense
// without editing the YAML. SAVE_ITEM_FACTORS turns the pgvector
// artifact off on databases without the extension.
func applyEnvOverrides(config *RecommendConfig) {
	result := pkgconfig.LoadEnvBool("SAVE_ITEM_FACTORS", config.Recommend.SaveItemFactors)
	for _, warning := range result.Warnings {
		slog.Warn("configuration fallback", slog.String("warning", warning))
	}
	config.Recommend.SaveItemFactors = result.Value.(bool)
}

// validateRecommendConfig validates the loaded configuration.
func validateRecommendConfig(config *RecommendConfig) error {
	r := &config.Recommend

	if r.Model.Rank <= 0 {
		return fmt.Errorf("model rank must be positive")
	}
	if r.Model.Iterations <= 0 {
		return fmt.Errorf("model iterations must be positive")
	}
	if r.WindowDays <= 0 {
		return fmt.Errorf("window_days must be positive")
	}
	if r.SimilarTopN <= 0 {
		return fmt.Errorf("similar_top_n must be positive")
	}
	if r.SimilarityThreshold < 0 || r.SimilarityThreshold >= 1 {
		return fmt.Errorf("similarity_threshold must be in [0, 1)")
	}
	if r.RecommendTopN <= 0 {
		return fmt.Errorf("recommend_top_n must be positive")
	}

	return nil
}

// Window returns the training lookback as a duration.
func (c *RecommendConfig) Window() time.Duration {
	return time.Duration(c.Recommend.WindowDays) * 24 * time.Hour
}
