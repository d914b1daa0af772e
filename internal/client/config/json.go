package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/speakfluent/speakfluent/internal/flagx"
	"github.com/speakfluent/speakfluent/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify the timeout either as a string like
// "10s" or as integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	DatabasePath       string         `json:"database_path"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
}

// parseJson overlays Config with values loaded from a JSON file selected via
// the -c/-config flags. When no file is given, the function returns without
// touching cfg. Read or unmarshal errors panic; the caller may recover.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	cfg.DatabasePath = jc.DatabasePath
	cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
}
