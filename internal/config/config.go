// Package config handles Hearth configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/hearth/config.yaml, /etc/hearth/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "hearth", "config.yaml"))
	}

	paths = append(paths, "/etc/hearth/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all Hearth configuration.
type Config struct {
	Ollama          OllamaConfig        `yaml:"ollama"`
	Rooms           map[string][]string `yaml:"rooms"`
	DefaultLocation string              `yaml:"default_location"`
	Retrieval       RetrievalConfig     `yaml:"retrieval"`
	User            UserConfig          `yaml:"user"`
	DataDir         string              `yaml:"data_dir"`
	LogLevel        string              `yaml:"log_level"`
}

// UserConfig describes the household occupant. Condition feeds the
// health-aware retrieval heuristics.
type UserConfig struct {
	Name      string `yaml:"name"`
	Condition string `yaml:"condition"`
}

// OllamaConfig defines the LLM backend connection.
type OllamaConfig struct {
	Host  string `yaml:"host"`  // Default: http://localhost:11434
	Model string `yaml:"model"` // Default: qwen2.5:7b
}

// RetrievalConfig defines knowledge-retrieval settings for the rag_query
// tool. Retrieval is best-effort: WaitMS bounds how long the chat path
// waits for a concurrent retrieval before answering without it.
type RetrievalConfig struct {
	Enabled   bool    `yaml:"enabled"`
	TopK      int     `yaml:"top_k"`
	Threshold float64 `yaml:"threshold"`
	WaitMS    int     `yaml:"wait_ms"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration. The room registry mirrors the
// reference four-room household; deployments override it in config.yaml.
func Default() *Config {
	return &Config{
		Ollama: OllamaConfig{
			Host:  "http://localhost:11434",
			Model: "qwen2.5:7b",
		},
		Rooms: map[string][]string{
			"Bedroom":     {"Light", "Alarm", "AC"},
			"Bathroom":    {"Light"},
			"Kitchen":     {"Light", "Alarm"},
			"Living Room": {"Light", "TV", "AC", "Fan"},
		},
		DefaultLocation: "Bedroom",
		Retrieval: RetrievalConfig{
			TopK:      3,
			Threshold: 0.5,
			WaitMS:    2000,
		},
		DataDir:  "data",
		LogLevel: "info",
	}
}

// Validate checks registry consistency: every room must declare at least
// one device, and the default location must be a known room.
func (c *Config) Validate() error {
	if len(c.Rooms) == 0 {
		return fmt.Errorf("config: rooms registry is empty")
	}
	for room, devices := range c.Rooms {
		if room == "" {
			return fmt.Errorf("config: empty room name in rooms registry")
		}
		if len(devices) == 0 {
			return fmt.Errorf("config: room %q has no devices", room)
		}
		for _, d := range devices {
			if d == "" {
				return fmt.Errorf("config: room %q has an empty device name", room)
			}
		}
	}
	if c.DefaultLocation != "" {
		if _, ok := c.Rooms[c.DefaultLocation]; !ok {
			return fmt.Errorf("config: default_location %q is not a configured room", c.DefaultLocation)
		}
	}
	return nil
}

// RoomNames returns the configured room names in sorted order.
func (c *Config) RoomNames() []string {
	names := make([]string, 0, len(c.Rooms))
	for room := range c.Rooms {
		names = append(names, room)
	}
	sort.Strings(names)
	return names
}
