package config

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	defaultServerAddress = ":8080"
	defaultBaseURL       = "http://localhost:8000"
	defaultDatabaseDSN   = ""
	defaultPollInterval  = 3 * time.Second
	defaultHTTPTimeout   = 10 * time.Second
	defaultLogLevel      = "debug"
)

type Config struct {
	ServerAddr   string
	BaseURL      string
	PageOrigin   string
	Production   bool
	PageURL      string
	DatabaseDSN  string
	TokenKey     string
	PollInterval time.Duration
	HTTPTimeout  time.Duration
	LogLevel     string
}

var (
	once      sync.Once
	singleton *Config
	parseErr  error
)

// New returns new Config. It parses command line and environment variables only once.
func New() (*Config, error) {
	once.Do(func() {
		singleton, parseErr = parse(flag.CommandLine, os.Args[1:], os.Getenv)
	})

	return singleton, parseErr
}

func parse(fs *flag.FlagSet, args []string, getenv func(string) string) (*Config, error) {
	cfg := Config{}

	// initialize flags
	fs.StringVar(&cfg.ServerAddr, "a", defaultServerAddress, "session server address")
	fs.StringVar(&cfg.BaseURL, "b", defaultBaseURL, "development backend base url")
	fs.StringVar(&cfg.PageOrigin, "o", "", "production page origin")
	fs.BoolVar(&cfg.Production, "p", false, "production mode")
	fs.StringVar(&cfg.PageURL, "u", "", "page url used for locale resolution")
	fs.StringVar(&cfg.DatabaseDSN, "d", defaultDatabaseDSN, "snapshot journal database DSN")
	fs.StringVar(&cfg.TokenKey, "k", "", "session token signing key, hex")
	fs.DurationVar(&cfg.PollInterval, "i", defaultPollInterval, "status poll interval")
	fs.DurationVar(&cfg.HTTPTimeout, "t", defaultHTTPTimeout, "backend request timeout")
	fs.StringVar(&cfg.LogLevel, "l", defaultLogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// if environment variable is set, then using it
	if v := getenv("RUN_ADDRESS"); v != "" {
		cfg.ServerAddr = v
	}
	if v := getenv("BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := getenv("PAGE_ORIGIN"); v != "" {
		cfg.PageOrigin = v
	}
	if v := getenv("PRODUCTION"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("PRODUCTION: %w", err)
		}
		cfg.Production = b
	}
	if v := getenv("PAGE_URL"); v != "" {
		cfg.PageURL = v
	}
	if v := getenv("DATABASE_URI"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := getenv("TOKEN_KEY"); v != "" {
		cfg.TokenKey = v
	}
	if v := getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("POLL_INTERVAL: %w", err)
		}
		cfg.PollInterval = d
	}
	if v := getenv("HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("HTTP_TIMEOUT: %w", err)
		}
		cfg.HTTPTimeout = d
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if cfg.TokenKey != "" {
		if _, err := hex.DecodeString(cfg.TokenKey); err != nil {
			return nil, fmt.Errorf("token key is not hex: %w", err)
		}
	}

	return &cfg, nil
}

// SigningKey returns decoded token key, nil when key is not set
func (c *Config) SigningKey() []byte {
	key, err := hex.DecodeString(c.TokenKey)
	if err != nil || len(key) == 0 {
		return nil
	}
	return key
}
