package config

import (
	"github.com/starnotary/notary/db"
	"github.com/starnotary/notary/security/validation"
)

const (
	DefaultListenAddr = ":8000"
	DefaultDataDir    = "./star-notary-db"

	DefaultWindowSeconds          = 300
	DefaultCleanupIntervalSeconds = 30

	DefaultRequestsPerSecond = 5
	DefaultBurst             = 10

	AuthSection = "authorization"
	APISection  = "api"
)

func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		ListenAddr: DefaultListenAddr,
		Store: db.Config{
			Type:      db.LevelDBType,
			Directory: DefaultDataDir,
		},
	}
}

func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		WindowSeconds:          DefaultWindowSeconds,
		CleanupIntervalSeconds: DefaultCleanupIntervalSeconds,
	}
}

func DefaultAPIConfig() APIConfig {
	return APIConfig{
		MaxBodyBytes:      validation.DefaultRequestBodyLimit,
		MaxStoryWords:     validation.MaxStoryWords,
		RequestsPerSecond: DefaultRequestsPerSecond,
		Burst:             DefaultBurst,
	}
}
