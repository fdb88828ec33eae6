package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// defaultScoringURL is the deployed scoring service. CREDIT_SCORE_API_URL
// overrides it per environment.
const defaultScoringURL = "https://credit-score-api-572900860091.europe-west1.run.app"

type Settings struct {
	ListenPort     int
	MetricsPort    int
	ScoringAPIURL  string
	RemoteTimeout  time.Duration
	DataPath       string
	DatasetPath    string
	PipelinePath   string
	ExplainerPath  string
	PersistRebuilt bool
	HistogramBins  int
}

type ConfigFile struct {
	Scoring struct {
		APIURL  string `yaml:"apiURL"`
		Timeout string `yaml:"timeout"`
	} `yaml:"scoring"`

	Model struct {
		PipelinePath   string `yaml:"pipelinePath"`
		ExplainerPath  string `yaml:"explainerPath"`
		PersistRebuilt bool   `yaml:"persistRebuilt"`
	} `yaml:"model"`

	Data struct {
		DatasetPath   string `yaml:"datasetPath"`
		HistogramBins int    `yaml:"histogramBins"`
	} `yaml:"data"`

	System struct {
		ListenPort  int    `yaml:"listenPort"`
		MetricsPort int    `yaml:"metricsPort"`
		DataPath    string `yaml:"dataPath"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	// Try to load from YAML file first
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	settings := Settings{
		ListenPort:     getIntFromEnvOrConfig("LISTEN_PORT", config.System.ListenPort, 8501),
		MetricsPort:    getIntFromEnvOrConfig("METRICS_PORT", config.System.MetricsPort, 8080),
		ScoringAPIURL:  scoringURLFromEnvOrConfig(config.Scoring.APIURL),
		RemoteTimeout:  getDurationFromEnvOrConfig("REMOTE_TIMEOUT", config.Scoring.Timeout, 5*time.Second),
		DataPath:       getEnvOrDefault("DATA_PATH", config.System.DataPath),
		DatasetPath:    getEnvOrDefault("DATASET_PATH", config.Data.DatasetPath),
		PipelinePath:   getEnvOrDefault("PIPELINE_PATH", config.Model.PipelinePath),
		ExplainerPath:  getEnvOrDefault("EXPLAINER_PATH", config.Model.ExplainerPath),
		PersistRebuilt: getBoolFromEnvOrConfig("PERSIST_REBUILT_EXPLAINER", config.Model.PersistRebuilt),
		HistogramBins:  getIntFromEnvOrConfig("HISTOGRAM_BINS", config.Data.HistogramBins, 20),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		ListenPort:     getIntOrDefault("LISTEN_PORT", 8501),
		MetricsPort:    getIntOrDefault("METRICS_PORT", 8080),
		ScoringAPIURL:  getEnvOrDefault("CREDIT_SCORE_API_URL", defaultScoringURL),
		RemoteTimeout:  getDurationOrDefault("REMOTE_TIMEOUT", 5*time.Second),
		DataPath:       os.Getenv("DATA_PATH"), // optional; history disabled when empty
		DatasetPath:    getEnvOrDefault("DATASET_PATH", "data/train_df_reduced.csv"),
		PipelinePath:   getEnvOrDefault("PIPELINE_PATH", "models/pipeline"),
		ExplainerPath:  getEnvOrDefault("EXPLAINER_PATH", "models/explainer"),
		PersistRebuilt: getBoolOrDefault("PERSIST_REBUILT_EXPLAINER", true),
		HistogramBins:  getIntOrDefault("HISTOGRAM_BINS", 20),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func scoringURLFromEnvOrConfig(configValue string) string {
	if env := os.Getenv("CREDIT_SCORE_API_URL"); env != "" {
		return env
	}
	if configValue != "" {
		return configValue
	}
	return defaultScoringURL
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getDurationFromEnvOrConfig(key, configValue string, defaultValue time.Duration) time.Duration {
	if env := os.Getenv(key); env != "" {
		if d, err := time.ParseDuration(env); err == nil {
			return d
		}
	}
	if configValue != "" {
		if d, err := time.ParseDuration(configValue); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseBool(env); err == nil {
			return val
		}
	}
	return configValue
}

// validateSettings performs validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.ListenPort < 1024 || settings.ListenPort > 65535 {
		return fmt.Errorf("listen port must be between 1024 and 65535, got %d", settings.ListenPort)
	}
	if settings.MetricsPort < 1024 || settings.MetricsPort > 65535 {
		return fmt.Errorf("metrics port must be between 1024 and 65535, got %d", settings.MetricsPort)
	}
	if settings.ListenPort == settings.MetricsPort {
		return fmt.Errorf("listen port and metrics port must differ, both are %d", settings.ListenPort)
	}
	if settings.ScoringAPIURL == "" {
		return fmt.Errorf("scoring API URL cannot be empty")
	}
	if settings.RemoteTimeout < 100*time.Millisecond || settings.RemoteTimeout > time.Minute {
		return fmt.Errorf("remote timeout must be between 100ms and 1m, got %v", settings.RemoteTimeout)
	}
	if settings.DatasetPath == "" {
		return fmt.Errorf("dataset path cannot be empty")
	}
	if settings.PipelinePath == "" {
		return fmt.Errorf("pipeline artifact path cannot be empty")
	}
	if settings.HistogramBins < 2 || settings.HistogramBins > 200 {
		return fmt.Errorf("histogram bins must be between 2 and 200, got %d", settings.HistogramBins)
	}
	return nil
}
