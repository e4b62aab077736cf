package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds process-level configuration: connection strings, poll and
// retry intervals, and the operational HTTP surface. It is distinct from
// the per-race configuration parsed by raceconfig.Parse, which describes
// one race and is loaded from a file path given on the command line.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`

	AMQPURL          string `env:"AMQP_URL"`
	AMQPExchange     string `env:"AMQP_EXCHANGE" envDefault:"zlogger"`
	AMQPRawChatExchange string `env:"AMQP_RAW_CHAT_EXCHANGE" envDefault:"zlogger.raw_chat"`

	// Ingestion log tailing.
	LogPath         string        `env:"LOG_PATH"`
	LogPollInterval time.Duration `env:"LOG_POLL_INTERVAL" envDefault:"300ms"`
	UpdateInterval  time.Duration `env:"UPDATE_INTERVAL" envDefault:"30s"`

	StorageRetryDelay time.Duration `env:"STORAGE_RETRY_DELAY" envDefault:"3s"`
	BusPublishRetries int           `env:"BUS_PUBLISH_RETRIES" envDefault:"3"`

	ChatDedupWindow time.Duration `env:"CHAT_DEDUP_WINDOW" envDefault:"3s"`

	// EventsScheduler + rider-profile worker pool.
	SchedulerHorizon      time.Duration `env:"SCHEDULER_HORIZON" envDefault:"2h"`
	SchedulerMaxSleep     time.Duration `env:"SCHEDULER_MAX_SLEEP" envDefault:"60s"`
	ProfileWorkers        int           `env:"PROFILE_WORKERS" envDefault:"2"`
	ProfileQueueSize      int           `env:"PROFILE_QUEUE_SIZE" envDefault:"100"`
	ProfileRateLimitRPS   float64       `env:"PROFILE_RATE_LIMIT_RPS" envDefault:"5"`
	ProfileRateLimitBurst int           `env:"PROFILE_RATE_LIMIT_BURST" envDefault:"5"`
	ProfileHTTPTimeout    time.Duration `env:"PROFILE_HTTP_TIMEOUT" envDefault:"15s"`

	// ZwiftUsername/ZwiftPassword authenticate the rider-profile worker
	// pool's upstream client (internal/riderprofile.ZwiftClient). Only
	// cmd/eventsched requires these to be set.
	ZwiftUsername string `env:"ZWIFT_USERNAME"`
	ZwiftPassword string `env:"ZWIFT_PASSWORD"`

	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8090"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Validate checks that the ingestion daemon has what it needs to start.
// The results CLI only requires DatabaseURL, which env.Parse already
// enforces via the `required` tag; linecheck reads DATABASE_URL itself and
// does not load this Config.
func (c *Config) Validate() error {
	if c.LogPath == "" {
		return fmt.Errorf("LOG_PATH must be set")
	}
	if c.AMQPURL == "" {
		return fmt.Errorf("AMQP_URL must be set")
	}
	return nil
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile     string
	HTTPAddr    string
	LogLevel    string
	DatabaseURL string
	AMQPURL     string
	LogPath     string
}

// Load reads configuration from a .env file, environment variables, and CLI
// overrides. Priority: CLI flags > environment variables > .env file > defaults.
func Load(overrides Overrides) (*Config, error) {
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.DatabaseURL != "" {
		cfg.DatabaseURL = overrides.DatabaseURL
	}
	if overrides.AMQPURL != "" {
		cfg.AMQPURL = overrides.AMQPURL
	}
	if overrides.LogPath != "" {
		cfg.LogPath = overrides.LogPath
	}

	return cfg, nil
}
