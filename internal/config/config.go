// Package config provides functionality for managing configuration options
// for the application using command-line flags and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
)

// Options holds the configuration values for the application.
type Options struct {
	// Addr defines the server's listening address (ip:port).
	Addr string

	// HistoryFile is the path of the JSON file holding the scan history.
	HistoryFile string

	// AllowlistFile is the path of the JSON array of issued auth tokens.
	AllowlistFile string

	// DatasetFile is the path of the participant dataset CSV.
	DatasetFile string

	// DatasetKey is the dataset column payloads are joined on.
	DatasetKey string

	// AuthKey is the 32-byte secret for auth tokens. Env only, never
	// read from the config file.
	AuthKey string `json:"-"`

	// PayloadKey is the 32-byte secret for scan payloads. Env only.
	PayloadKey string `json:"-"`

	// Config is the path to the config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Addr, "a", "localhost:3000", "run on ip:port server")
	flag.StringVar(&options.HistoryFile, "history", "history.json", "path to the history file")
	flag.StringVar(&options.AllowlistFile, "allowlist", "authorized-users.json", "path to the issued-token allow-list")
	flag.StringVar(&options.DatasetFile, "dataset", "", "path to the dataset CSV (optional)")
	flag.StringVar(&options.DatasetKey, "dataset-key", "NIM", "dataset key column")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct
// containing the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Addr = serverAddress
	}

	// Secrets are supplied out-of-band through the environment.
	options.AuthKey = os.Getenv("AUTH_ENCRYPTION_KEY")
	options.PayloadKey = os.Getenv("PAYLOAD_ENCRYPTION_KEY")

	return options
}

// Validate checks the startup requirements that must hold before the
// process may serve: both secrets present with the exact length, and a
// readable allow-list. A failure here is fatal configuration, not a
// runtime condition.
func (o *Options) Validate() error {
	if len(o.AuthKey) != 32 {
		return errors.New("AUTH_ENCRYPTION_KEY must be exactly 32 bytes")
	}
	if len(o.PayloadKey) != 32 {
		return errors.New("PAYLOAD_ENCRYPTION_KEY must be exactly 32 bytes")
	}
	if o.AllowlistFile == "" {
		return errors.New("allow-list path is required")
	}
	if _, err := os.Stat(o.AllowlistFile); err != nil {
		return fmt.Errorf("allow-list file: %w", err)
	}
	return nil
}

// LoadAllowlist reads the JSON array of issued tokens from path.
func LoadAllowlist(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read allow-list: %w", err)
	}
	var tokens []string
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("parse allow-list: %w", err)
	}
	return tokens, nil
}
