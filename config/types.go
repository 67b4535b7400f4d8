package config

import (
	"github.com/starnotary/notary/db"
)

// ConfigFile is the root of node.yml
type ConfigFile struct {
	Node NodeConfig `yaml:"node"`
}

// NodeConfig represents a node's configuration
type NodeConfig struct {
	ListenAddr     string    `yaml:"listen_addr"`
	MetricsEnabled bool      `yaml:"metrics_enabled"`
	Store          db.Config `yaml:"store"`
}

type AuthConfig struct {
	WindowSeconds          int `ini:"window_seconds"`
	CleanupIntervalSeconds int `ini:"cleanup_interval_seconds"`
}

type APIConfig struct {
	MaxBodyBytes      int64   `ini:"max_body_bytes"`
	MaxStoryWords     int     `ini:"max_story_words"`
	RequestsPerSecond float64 `ini:"requests_per_second"`
	Burst             int     `ini:"burst"`
}
