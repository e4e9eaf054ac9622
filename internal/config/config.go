package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration. Values come from the YAML file
// when present, then environment variables override individual fields so the
// same config file works across deployments.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Model      ModelConfig      `yaml:"model"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Store      StoreConfig      `yaml:"store"`
	Notify     NotifyConfig     `yaml:"notify"`
	Watch      WatchConfig      `yaml:"watch"`
	Dataset    DatasetConfig    `yaml:"dataset"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// ModelConfig configures the extraction model gateway. APIKey is only ever
// read from the environment, never from the YAML file.
type ModelConfig struct {
	GatewayURL      string  `yaml:"gateway_url"`
	Name            string  `yaml:"name"`
	APIKey          string  `yaml:"-"`
	Temperature     float64 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	TimeoutSec      int     `yaml:"timeout_sec"`
	MaxRetrySec     int     `yaml:"max_retry_sec"`
}

type ClassifierConfig struct {
	ExcerptChars int `yaml:"excerpt_chars"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	UserID     string `yaml:"user_id"`
}

type WatchConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type DatasetConfig struct {
	Path string `yaml:"path"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{Port: "8080"},
		Model: ModelConfig{
			Name:            "gpt-4o-mini",
			Temperature:     0.35,
			MaxOutputTokens: 4000,
			TimeoutSec:      25,
			MaxRetrySec:     45,
		},
		Classifier: ClassifierConfig{ExcerptChars: 8000},
		Store:      StoreConfig{Path: "out/insights.db"},
		Watch:      WatchConfig{Dir: "data/incoming"},
		Dataset:    DatasetConfig{Path: "transcripts.xlsx"},
	}
}

// Load reads the YAML file at path (missing file is fine, defaults apply),
// applies env overrides and validates.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("LLM_GATEWAY_URL"); v != "" {
		cfg.Model.GatewayURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.Model.Name = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.Model.APIKey = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("NOTIFY_WEBHOOK_URL"); v != "" {
		cfg.Notify.WebhookURL = v
	}
	if v := os.Getenv("NOTIFY_USER_ID"); v != "" {
		cfg.Notify.UserID = v
	}
	if v := os.Getenv("WATCH_DIR"); v != "" {
		cfg.Watch.Dir = v
		cfg.Watch.Enabled = true
	}
	if v := os.Getenv("DATASET_PATH"); v != "" {
		cfg.Dataset.Path = v
	}
	if v := os.Getenv("LLM_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Model.TimeoutSec = n
		}
	}
}

func (c Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return fmt.Errorf("model.temperature out of range: %v", c.Model.Temperature)
	}
	if c.Model.MaxOutputTokens <= 0 {
		return fmt.Errorf("model.max_output_tokens must be positive")
	}
	if c.Model.TimeoutSec <= 0 {
		return fmt.Errorf("model.timeout_sec must be positive")
	}
	if c.Classifier.ExcerptChars <= 0 {
		return fmt.Errorf("classifier.excerpt_chars must be positive")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if c.Watch.Enabled && c.Watch.Dir == "" {
		return fmt.Errorf("watch.dir is required when watch is enabled")
	}
	return nil
}

// ModelConfigured reports whether the extraction gateway credentials are
// present. The pipeline refuses to start a run without them.
func (c Config) ModelConfigured() bool {
	return c.Model.GatewayURL != "" && c.Model.APIKey != ""
}
