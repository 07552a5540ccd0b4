// Package config loads gofts's runtime configuration: environment
// variables as the primary source, with an optional YAML file overlay
// for deployments that prefer a checked-in file. Grounded on
// SaptarshiBorgohain-fr33Crawler's internal/config/config.go
// (env-var-driven Load() with typed getters), with the YAML overlay
// added per the pack's bureau-foundation-bureau and
// Adithya-Monish-Kumar-K-... repos, both of which carry
// gopkg.in/yaml.v3 for exactly this purpose.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds gofts's server and storage configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig controls the HTTP front-end.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig controls where the engine keeps its data.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// Load builds a Config from environment variables, then — if path is
// non-empty — overlays values present in the YAML file at path.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getStringEnv("GOFTS_HOST", "0.0.0.0"),
			Port: getIntEnv("GOFTS_PORT", 8080),
		},
		Storage: StorageConfig{
			DataDir: getStringEnv("GOFTS_DATA_DIR", "./data"),
		},
	}

	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getStringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
