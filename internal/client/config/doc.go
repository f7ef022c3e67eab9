// Package config loads settings for bowwowctl.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file passed with --config.
//  3. Environment: BOWWOW_SERVER, BOWWOW_WATCH_URL, BOWWOW_USER.
//  4. Command-line flags, applied by the CLI itself.
//
// The JSON loader uses timex.Duration, so timeouts may be written as "5s"
// or as integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "watch_url": "ws://127.0.0.1:8080/ws",
//	  "request_timeout": "5s",
//	  "user_id": "alice"
//	}
package config
