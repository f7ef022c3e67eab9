package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/bowwow/internal/flagx"
	"github.com/dmitrijs2005/bowwow/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Interval fields use
// timex.Duration, so both "1s" and integer nanoseconds are accepted.
// Absent fields keep their current value.
type JsonConfig struct {
	GRPCAddr    string `json:"grpc_addr"`
	HTTPAddr    string `json:"http_addr"`
	DatabaseDSN string `json:"database_dsn"`

	LocationKey           string `json:"location_key"`
	LocationKeyPassphrase string `json:"location_key_passphrase"`
	LocationKeySalt       string `json:"location_key_salt"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`

	PushEndpoint string         `json:"push_endpoint"`
	PushTimeout  timex.Duration `json:"push_timeout"`

	SignalCooldown timex.Duration `json:"signal_cooldown"`
	SignalLifetime timex.Duration `json:"signal_lifetime"`
	RingInterval   timex.Duration `json:"ring_interval"`
	LocationTTL    timex.Duration `json:"location_ttl"`
	PurgeInterval  timex.Duration `json:"purge_interval"`
	UserCacheTTL   timex.Duration `json:"user_cache_ttl"`
	GridPrecision  *int           `json:"grid_precision"`

	HubUnit        string   `json:"hub_unit"`
	AllowedOrigins []string `json:"allowed_origins"`

	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
	S3User         string `json:"s3_user"`
	S3Password     string `json:"s3_password"`
}

// parseJson loads the file named by -c/-config into config. A missing flag
// means nothing is loaded; an unreadable or invalid file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LocationKey, c.LocationKey)
	setString(&config.LocationKeyPassphrase, c.LocationKeyPassphrase)
	setString(&config.LocationKeySalt, c.LocationKeySalt)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.PushEndpoint, c.PushEndpoint)
	setString(&config.HubUnit, c.HubUnit)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3User, c.S3User)
	setString(&config.S3Password, c.S3Password)

	durations := []struct {
		dst *time.Duration
		v   timex.Duration
	}{
		{&config.PushTimeout, c.PushTimeout},
		{&config.SignalCooldown, c.SignalCooldown},
		{&config.SignalLifetime, c.SignalLifetime},
		{&config.RingInterval, c.RingInterval},
		{&config.LocationTTL, c.LocationTTL},
		{&config.PurgeInterval, c.PurgeInterval},
		{&config.UserCacheTTL, c.UserCacheTTL},
	}
	for _, d := range durations {
		if d.v.Duration != 0 {
			*d.dst = d.v.Duration
		}
	}

	if c.GridPrecision != nil {
		config.GridPrecision = *c.GridPrecision
	}
	if len(c.AllowedOrigins) > 0 {
		config.AllowedOrigins = c.AllowedOrigins
	}
}
