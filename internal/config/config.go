package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete deepseeker configuration.
type Config struct {
	Version     int               `yaml:"version" json:"version"`
	Collections []CollectionEntry `yaml:"collections" json:"collections"`
	Embeddings  EmbeddingsConfig  `yaml:"embeddings" json:"embeddings"`
	Performance PerformanceConfig `yaml:"performance" json:"performance"`
	Server      ServerConfig      `yaml:"server" json:"server"`
}

// CollectionEntry is one watched folder declared in the config file. The
// Store assigns the actual Collection ID on first sync.
type CollectionEntry struct {
	Name       string `yaml:"name" json:"name"`
	FolderPath string `yaml:"folder_path" json:"folder_path"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	Provider   string `yaml:"provider" json:"provider"` // "", "ollama", "static", "none"
	Model      string `yaml:"model" json:"model"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"` // 0 = auto-detect from embedder
	BatchSize  int    `yaml:"batch_size" json:"batch_size"`
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`
}

// PerformanceConfig configures ingestion and watcher tuning.
type PerformanceConfig struct {
	MaxFiles      int    `yaml:"max_files" json:"max_files"`
	IndexWorkers  int    `yaml:"index_workers" json:"index_workers"`
	WatchDebounce string `yaml:"watch_debounce" json:"watch_debounce"`
	SQLiteCacheMB int    `yaml:"sqlite_cache_mb" json:"sqlite_cache_mb"`
}

// ServerConfig configures the local query-server transport.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"` // "stdio" or "sse"
	Port      int    `yaml:"port" json:"port"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version:     1,
		Collections: nil,
		Embeddings: EmbeddingsConfig{
			Provider:   "", // empty selects Ollama; an unreachable Ollama is an error, with no static fallback
			Model:      "nomic-embed-text",
			Dimensions: 0,
			BatchSize:  32,
			OllamaHost: "",
		},
		Performance: PerformanceConfig{
			MaxFiles:      100000,
			IndexWorkers:  runtime.NumCPU(),
			WatchDebounce: "500ms",
			SQLiteCacheMB: 64,
		},
		Server: ServerConfig{
			Transport: "stdio",
			Port:      8765,
			LogLevel:  "info",
		},
	}
}

// DebounceWindow parses Performance.WatchDebounce, falling back to 500ms on
// a bad or empty value.
func (c *Config) DebounceWindow() time.Duration {
	d, err := time.ParseDuration(c.Performance.WatchDebounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// GetUserConfigPath returns the path to the user/global configuration file,
// following the XDG Base Directory spec:
//   - $XDG_CONFIG_HOME/deepseeker/config.yaml (if set)
//   - ~/.config/deepseeker/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "deepseeker", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "deepseeker", "config.yaml")
	}
	return filepath.Join(home, ".config", "deepseeker", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists reports whether the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if present.
// Returns a nil config and nil error if the file does not exist.
func loadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", path, err)
	}
	return cfg, nil
}

// Load loads configuration from the specified directory, applying, in
// order of increasing precedence:
//  1. hardcoded defaults
//  2. user/global config (~/.config/deepseeker/config.yaml)
//  3. project config (.deepseeker.yaml in dir)
//  4. environment variables (DEEPSEEKER_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load .deepseeker.yaml or .deepseeker.yml from dir.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".deepseeker.yaml")
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}
	ymlPath := filepath.Join(dir, ".deepseeker.yml")
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if len(other.Collections) > 0 {
		c.Collections = other.Collections
	}

	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.OllamaHost != "" {
		c.Embeddings.OllamaHost = other.Embeddings.OllamaHost
	}

	if other.Performance.MaxFiles != 0 {
		c.Performance.MaxFiles = other.Performance.MaxFiles
	}
	if other.Performance.IndexWorkers != 0 {
		c.Performance.IndexWorkers = other.Performance.IndexWorkers
	}
	if other.Performance.WatchDebounce != "" {
		c.Performance.WatchDebounce = other.Performance.WatchDebounce
	}
	if other.Performance.SQLiteCacheMB != 0 {
		c.Performance.SQLiteCacheMB = other.Performance.SQLiteCacheMB
	}

	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies DEEPSEEKER_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DEEPSEEKER_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("DEEPSEEKER_EMBEDDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("DEEPSEEKER_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("DEEPSEEKER_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("DEEPSEEKER_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("DEEPSEEKER_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
	if v := os.Getenv("DEEPSEEKER_INDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Performance.IndexWorkers = n
		}
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Performance.MaxFiles < 0 {
		return fmt.Errorf("max_files must be non-negative, got %d", c.Performance.MaxFiles)
	}

	if c.Embeddings.Provider != "" {
		validProviders := map[string]bool{"ollama": true, "static": true, "none": true}
		if !validProviders[strings.ToLower(c.Embeddings.Provider)] {
			return fmt.Errorf("embeddings.provider must be 'ollama', 'static', 'none', or empty (auto-detect), got %s", c.Embeddings.Provider)
		}
	}

	validTransports := map[string]bool{"stdio": true, "sse": true}
	if !validTransports[strings.ToLower(c.Server.Transport)] {
		return fmt.Errorf("server.transport must be 'stdio' or 'sse', got %s", c.Server.Transport)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	for _, entry := range c.Collections {
		if entry.FolderPath == "" {
			return fmt.Errorf("collection %q has an empty folder_path", entry.Name)
		}
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadUserConfig loads the user configuration file, if present.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

// FindProjectRoot walks up from startDir looking for a .git directory or a
// .deepseeker.yaml/.yml file, falling back to startDir itself.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}
		if fileExists(filepath.Join(currentDir, ".deepseeker.yaml")) ||
			fileExists(filepath.Join(currentDir, ".deepseeker.yml")) {
			return currentDir, nil
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
