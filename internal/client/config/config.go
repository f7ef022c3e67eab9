package config

import (
	"time"

	"github.com/dmitrijs2005/bowwow/internal/flagx"
)

const (
	EnvServer   = "BOWWOW_SERVER"
	EnvWatchURL = "BOWWOW_WATCH_URL"
	EnvUser     = "BOWWOW_USER"
)

// Config holds runtime settings for the CLI.
type Config struct {
	ServerEndpointAddr string
	WatchURL           string
	RequestTimeout     time.Duration
	// UserID is the default identity for commands that act as a user.
	UserID string
}

// LoadDefaults populates c with local development defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.WatchURL = "ws://127.0.0.1:8080/ws"
	c.RequestTimeout = 5 * time.Second
}

// LoadConfig applies defaults, the JSON file at path when path is not
// empty, and then the environment.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if path != "" {
		if err := loadJSON(cfg, path); err != nil {
			return nil, err
		}
	}
	parseEnv(cfg)
	return cfg, nil
}

func parseEnv(cfg *Config) {
	flagx.EnvString(&cfg.ServerEndpointAddr, EnvServer)
	flagx.EnvString(&cfg.WatchURL, EnvWatchURL)
	flagx.EnvString(&cfg.UserID, EnvUser)
}
