// Package config provides functionality for managing configuration options
// for the application using command-line flags and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"
)

// Options holds the configuration values for the application.
type Options struct {
	// Addr defines the server's listening address (ip:port).
	Addr string

	// DataDir is the directory holding the record document and the
	// media database.
	DataDir string

	// QuotaMB caps media storage in megabytes. Zero selects the
	// built-in default.
	QuotaMB int64

	// DisableCompression stores media blobs uncompressed. Blobs
	// written compressed earlier stay readable.
	DisableCompression bool

	// SweepMinutes is the interval between orphaned-blob sweeps.
	// Zero disables the background sweeper.
	SweepMinutes int

	// LogLevel sets the logging verbosity.
	LogLevel string

	// Config is the path to the Config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Addr, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.DataDir, "d", "data", "data directory")
	flag.Int64Var(&options.QuotaMB, "q", 0, "media quota in MB (0 = default)")
	flag.BoolVar(&options.DisableCompression, "no-compress", false, "store media uncompressed")
	flag.IntVar(&options.SweepMinutes, "sweep", 60, "orphan sweep interval in minutes (0 = off)")
	flag.StringVar(&options.LogLevel, "log", "info", "log level")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
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
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		options.DataDir = dataDir
	}
	if quota := os.Getenv("MEDIA_QUOTA_MB"); quota != "" {
		if n, err := strconv.ParseInt(quota, 10, 64); err == nil {
			options.QuotaMB = n
		}
	}
	if os.Getenv("DISABLE_COMPRESSION") == "true" {
		options.DisableCompression = true
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		options.LogLevel = level
	}

	return options
}
