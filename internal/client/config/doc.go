// Package config loads runtime configuration for the SpeakFluent CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the backend REST endpoint
//	-d string   path of the local sqlite cache file
//	-t int      remote request timeout (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the timeout, so values can be
// either strings like "10s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "http://127.0.0.1:8080",
//	  "database_path": "speakfluent.db",
//	  "request_timeout": "10s"
//	}
//
// This package does not read environment variables directly; use the JSON
// file or flags to configure values.
package config
