package config

import "time"

// Config holds runtime settings for the SpeakFluent CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend REST endpoint.
//   - DatabasePath: path of the local sqlite cache file.
//   - RequestTimeout: upper bound for one remote call; a call that does not
//     complete in time is treated as a remote failure.
type Config struct {
	ServerEndpointAddr string
	DatabasePath       string
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.DatabasePath = "speakfluent.db"
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
