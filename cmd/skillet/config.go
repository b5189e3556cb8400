package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/lightpattern/skillet/pkg/skills"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EmbeddingConfig configures the semantic search backend. Any
// OpenAI-compatible embeddings endpoint works via BaseURL.
type EmbeddingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// Config is the resolved skillet configuration, merged from config file,
// SKILLET_* environment variables, and flags. Profiles are named partial
// configs layered on top of the base settings.
type Config struct {
	SkillsDirs    []string                  `mapstructure:"skills_dirs"`
	Watch         bool                      `mapstructure:"watch"`
	WatchDebounce time.Duration             `mapstructure:"watch_debounce"`
	Embedding     EmbeddingConfig           `mapstructure:"embedding"`
	Profiles      map[string]map[string]any `mapstructure:"profiles"`
}

func newConfig() *Config {
	return &Config{
		Watch:         false,
		WatchDebounce: 500 * time.Millisecond,
		Embedding: EmbeddingConfig{
			Model: "text-embedding-3-small",
		},
	}
}

// loadConfig unmarshals the merged viper state into a Config, applies
// the active profile if one is selected, and fills in defaults for
// anything left unset.
func loadConfig() (*Config, error) {
	config := newConfig()

	if err := viper.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal configuration")
	}

	if profileName := viper.GetString("profile"); profileName != "" {
		profile, exists := config.Profiles[profileName]
		if !exists {
			return nil, errors.Errorf("profile %q is not defined", profileName)
		}
		if err := applyProfile(config, profile); err != nil {
			return nil, err
		}
	}

	if len(config.SkillsDirs) == 0 {
		config.SkillsDirs = defaultSkillsDirs()
	}
	if config.WatchDebounce <= 0 {
		config.WatchDebounce = 500 * time.Millisecond
	}
	if config.Embedding.APIKey == "" {
		config.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if config.Embedding.Model == "" {
		config.Embedding.Model = "text-embedding-3-small"
	}

	return config, nil
}

func applyProfile(config *Config, profile map[string]any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           config,
		WeaklyTypedInput: true,
		ZeroFields:       false, // Don't overwrite with zero values
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create profile decoder")
	}

	if err := decoder.Decode(profile); err != nil {
		return errors.Wrap(err, "failed to apply profile configuration")
	}
	return nil
}

// defaultSkillsDirs returns the project-local skills directory plus the
// global one under the user's home, when resolvable.
func defaultSkillsDirs() []string {
	dirs := []string{filepath.Join(".skillet", "skills")}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".skillet", "skills"))
	}
	return dirs
}

// buildIndex creates the skill index over the configured roots and runs
// the initial scan. Scan diagnostics are informational here; commands
// that care about them read them off the index afterwards.
func buildIndex(ctx context.Context, config *Config) (*skills.Index, error) {
	index := skills.NewIndex(config.SkillsDirs...)
	if _, err := index.Scan(ctx); err != nil {
		return nil, errors.Wrap(err, "initial skills scan failed")
	}
	return index, nil
}
