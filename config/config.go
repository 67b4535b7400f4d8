package config

import (
	"fmt"
	"os"
	"time"

	"github.com/starnotary/notary/logx"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// LoadNodeConfig reads and parses the node.yml file. Missing keys keep
// their defaults.
func LoadNodeConfig(path string) (*NodeConfig, error) {
	logx.Info("CONFIG", "LoadNodeConfig called with path: ", path)
	file, err := os.Open(path)
	if err != nil {
		logx.Error("CONFIG", "Failed to open file: ", err)
		return nil, err
	}
	defer file.Close()

	cfgFile := ConfigFile{Node: DefaultNodeConfig()}
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfgFile); err != nil {
		logx.Error("CONFIG", "Failed to decode YAML: ", err)
		return nil, err
	}
	if err := cfgFile.Node.Validate(); err != nil {
		return nil, err
	}
	logx.Info("CONFIG", fmt.Sprintf("Successfully loaded config: listen=%s store=%s", cfgFile.Node.ListenAddr, cfgFile.Node.Store.Type))
	return &cfgFile.Node, nil
}

func (c *NodeConfig) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr cannot be empty")
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

// LoadAuthConfig reads the authorization section from an .ini file
func LoadAuthConfig(path string) (*AuthConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	authCfg := DefaultAuthConfig()
	if err := cfg.Section(AuthSection).MapTo(&authCfg); err != nil {
		return nil, err
	}
	if err := authCfg.Validate(); err != nil {
		return nil, err
	}
	return &authCfg, nil
}

func (c *AuthConfig) Validate() error {
	if c.WindowSeconds <= 0 {
		return fmt.Errorf("window_seconds must be positive, got %d", c.WindowSeconds)
	}
	if c.CleanupIntervalSeconds <= 0 {
		return fmt.Errorf("cleanup_interval_seconds must be positive, got %d", c.CleanupIntervalSeconds)
	}
	return nil
}

func (c *AuthConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

func (c *AuthConfig) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalSeconds) * time.Second
}

// LoadAPIConfig reads the api section from an .ini file
func LoadAPIConfig(path string) (*APIConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	apiCfg := DefaultAPIConfig()
	if err := cfg.Section(APISection).MapTo(&apiCfg); err != nil {
		return nil, err
	}
	if err := apiCfg.Validate(); err != nil {
		return nil, err
	}
	return &apiCfg, nil
}

func (c *APIConfig) Validate() error {
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive, got %d", c.MaxBodyBytes)
	}
	if c.MaxStoryWords <= 0 {
		return fmt.Errorf("max_story_words must be positive, got %d", c.MaxStoryWords)
	}
	if c.RequestsPerSecond <= 0 || c.Burst <= 0 {
		return fmt.Errorf("requests_per_second and burst must be positive")
	}
	return nil
}
