package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"stakeledger/service"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Engine configuration
	AdminAccounts   []string // accounts allowed to manage plans
	PenaltySink     string   // account receiving early-exit penalties
	MinimumDeposit  int64    // smallest accepted principal, in base units
	CollectInterval time.Duration
	MaxPlanWindow   time.Duration

	// Dispatcher configuration
	DispatchInterval time.Duration

	// HTTP configuration
	ListenAddr  string // transfer notification endpoint
	MetricsAddr string

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// Params builds the engine parameters passed into the service constructors.
func (c *Config) Params() service.Params {
	params := service.DefaultParams()
	if c.PenaltySink != "" {
		params.PenaltySink = c.PenaltySink
	}
	if c.MinimumDeposit > 0 {
		params.MinimumDeposit = c.MinimumDeposit
	}
	if c.CollectInterval > 0 {
		params.CollectInterval = c.CollectInterval
	}
	if c.MaxPlanWindow > 0 {
		params.MaxPlanWindow = c.MaxPlanWindow
	}
	return params
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// Engine settings with defaults
		PenaltySink:      os.Getenv("PENALTY_SINK"),
		CollectInterval:  24 * time.Hour,
		MaxPlanWindow:    3 * 365 * 24 * time.Hour,
		DispatchInterval: 5 * time.Second,

		// HTTP
		ListenAddr:  os.Getenv("LISTEN_ADDR"),
		MetricsAddr: os.Getenv("METRICS_ADDR"),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if deposit := os.Getenv("MIN_DEPOSIT"); deposit != "" {
		if parsed, err := strconv.ParseInt(deposit, 10, 64); err == nil {
			config.MinimumDeposit = parsed
		}
	}
	if hours := os.Getenv("COLLECT_INTERVAL_HOURS"); hours != "" {
		if parsed, err := strconv.Atoi(hours); err == nil && parsed > 0 {
			config.CollectInterval = time.Duration(parsed) * time.Hour
		}
	}
	if seconds := os.Getenv("DISPATCH_INTERVAL_SECONDS"); seconds != "" {
		if parsed, err := strconv.Atoi(seconds); err == nil && parsed > 0 {
			config.DispatchInterval = time.Duration(parsed) * time.Second
		}
	}

	// Parse admin accounts
	if admins := os.Getenv("ADMIN_ACCOUNTS"); admins != "" {
		for _, account := range strings.Split(admins, ",") {
			account = strings.TrimSpace(account)
			if account != "" {
				config.AdminAccounts = append(config.AdminAccounts, account)
			}
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}
	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}
	if config.MetricsAddr == "" {
		config.MetricsAddr = ":9090"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if len(config.AdminAccounts) == 0 {
			return nil, fmt.Errorf("ADMIN_ACCOUNTS is required")
		}
	}

	return config, nil
}
