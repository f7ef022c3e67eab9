package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/bowwow/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Absent
// fields leave the current value untouched.
type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	WatchURL           string         `json:"watch_url"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
	UserID             string         `json:"user_id"`
}

func loadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.WatchURL != "" {
		cfg.WatchURL = jc.WatchURL
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.UserID != "" {
		cfg.UserID = jc.UserID
	}
	return nil
}
