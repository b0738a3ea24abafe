package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

const (
	LLMBackendMock   = "mock"
	LLMBackendVertex = "vertex"

	ArchiveNone      = "none"
	ArchiveMemory    = "memory"
	ArchiveFirestore = "firestore"
)

type Config struct {
	Mode Mode `yaml:"mode"`

	Port   string `yaml:"port"`
	Locale string `yaml:"locale"`

	Assistant AssistantConfig `yaml:"assistant"`
	Weather   WeatherConfig   `yaml:"weather"`
	LLM       LLMConfig       `yaml:"llm"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Log       LogConfig       `yaml:"log"`
}

// AssistantConfig points the conversation gateway at an assistant endpoint.
type AssistantConfig struct {
	Endpoint string `yaml:"endpoint"`
	Timeout  string `yaml:"timeout"`
}

// WeatherConfig configures the forecast forwarding proxy.
type WeatherConfig struct {
	UpstreamURL string `yaml:"upstream_url"`
	Timeout     string `yaml:"timeout"`
}

// LLMConfig configures the model behind /api/chat.
type LLMConfig struct {
	Backend      string `yaml:"backend"` // mock, vertex
	GCPProjectID string `yaml:"gcp_project"`
	GCPLocation  string `yaml:"gcp_location"`
	ModelName    string `yaml:"model"`
}

type ArchiveConfig struct {
	Backend      string `yaml:"backend"` // none, memory, firestore
	GCPProjectID string `yaml:"gcp_project"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the local development configuration.
func Default() *Config {
	return &Config{
		Mode:   ModeLocal,
		Port:   "8080",
		Locale: "en",
		Assistant: AssistantConfig{
			Endpoint: "http://localhost:8080/api/chat",
			Timeout:  "30s",
		},
		Weather: WeatherConfig{
			UpstreamURL: "https://localfarm-backend.vercel.app/api/weather",
			Timeout:     "10s",
		},
		LLM: LLMConfig{
			Backend:     LLMBackendMock,
			GCPLocation: "us-central1",
			ModelName:   "gemini-2.5-flash-lite",
		},
		Archive: ArchiveConfig{
			Backend: ArchiveNone,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the config from defaults, an optional YAML file and the
// environment, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

// ApplyEnv overrides fields from FARM_* variables.
func (c *Config) ApplyEnv() {
	switch getEnv("FARM_MODE", string(c.Mode)) {
	case "gcp":
		c.Mode = ModeGCP
	default:
		c.Mode = ModeLocal
	}

	c.Port = getEnv("FARM_PORT", getEnv("PORT", c.Port))
	c.Locale = getEnv("FARM_LOCALE", c.Locale)

	c.Assistant.Endpoint = getEnv("FARM_ASSISTANT_ENDPOINT", c.Assistant.Endpoint)
	c.Assistant.Timeout = getEnv("FARM_ASSISTANT_TIMEOUT", c.Assistant.Timeout)

	c.Weather.UpstreamURL = getEnv("FARM_WEATHER_UPSTREAM", c.Weather.UpstreamURL)
	c.Weather.Timeout = getEnv("FARM_WEATHER_TIMEOUT", c.Weather.Timeout)

	c.LLM.Backend = getEnv("FARM_LLM_BACKEND", c.LLM.Backend)
	if _, set := os.LookupEnv("FARM_USE_MOCK_LLM"); set {
		if getBoolEnv("FARM_USE_MOCK_LLM", true) {
			c.LLM.Backend = LLMBackendMock
		} else {
			c.LLM.Backend = LLMBackendVertex
		}
	}
	c.LLM.GCPProjectID = getEnv("FARM_GCP_PROJECT", c.LLM.GCPProjectID)
	c.LLM.GCPLocation = getEnv("FARM_GCP_LOCATION", c.LLM.GCPLocation)
	c.LLM.ModelName = getEnv("FARM_MODEL_NAME", c.LLM.ModelName)

	c.Archive.Backend = getEnv("FARM_ARCHIVE_BACKEND", c.Archive.Backend)
	c.Archive.GCPProjectID = getEnv("FARM_ARCHIVE_PROJECT", getEnv("FARM_GCP_PROJECT", c.Archive.GCPProjectID))

	c.Log.Level = getEnv("FARM_LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("FARM_LOG_FILE", c.Log.File)
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Assistant.Endpoint) == "" {
		errs = append(errs, errors.New("assistant.endpoint is required"))
	}
	if _, err := parseDuration(c.Assistant.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("assistant.timeout: %w", err))
	}
	if _, err := parseDuration(c.Weather.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("weather.timeout: %w", err))
	}

	switch c.LLM.Backend {
	case LLMBackendMock:
	case LLMBackendVertex:
		if c.LLM.GCPProjectID == "" || c.LLM.GCPLocation == "" {
			errs = append(errs, errors.New("llm.gcp_project and llm.gcp_location must be set for the vertex backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown llm.backend %q", c.LLM.Backend))
	}

	switch c.Archive.Backend {
	case ArchiveNone, ArchiveMemory:
	case ArchiveFirestore:
		if c.Archive.GCPProjectID == "" {
			errs = append(errs, errors.New("archive.gcp_project is required for the firestore archive"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown archive.backend %q", c.Archive.Backend))
	}

	// Minimal validation in GCP mode
	if c.Mode == ModeGCP && c.LLM.GCPProjectID == "" {
		errs = append(errs, errors.New("FARM_GCP_PROJECT must be set in gcp mode"))
	}

	return errors.Join(errs...)
}

// AssistantTimeout returns the gateway timeout, 30s when unset.
func (c *Config) AssistantTimeout() time.Duration {
	d, err := parseDuration(c.Assistant.Timeout)
	if err != nil || d == 0 {
		return 30 * time.Second
	}
	return d
}

// WeatherTimeout returns the upstream timeout, 10s when unset.
func (c *Config) WeatherTimeout() time.Duration {
	d, err := parseDuration(c.Weather.Timeout)
	if err != nil || d == 0 {
		return 10 * time.Second
	}
	return d
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}
