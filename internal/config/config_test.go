package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	cleanup := setEnvs(t, map[string]string{
		"DATABASE_URL": "postgres://localhost/test",
		"AMQP_URL":     "amqp://localhost:5672",
	})
	defer cleanup()

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":8090" {
			t.Errorf("HTTPAddr = %q, want :8090", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
		}
		if cfg.AMQPExchange != "zlogger" {
			t.Errorf("AMQPExchange = %q, want zlogger", cfg.AMQPExchange)
		}
		if cfg.LogPollInterval.String() != "300ms" {
			t.Errorf("LogPollInterval = %v, want 300ms", cfg.LogPollInterval)
		}
		if cfg.BusPublishRetries != 3 {
			t.Errorf("BusPublishRetries = %d, want 3", cfg.BusPublishRetries)
		}
	})

	t.Run("cli_overrides_take_priority", func(t *testing.T) {
		cfg, err := Load(Overrides{
			EnvFile:     "nonexistent.env",
			HTTPAddr:    ":9090",
			LogLevel:    "debug",
			DatabaseURL: "postgres://override/db",
			AMQPURL:     "amqp://override:5672",
			LogPath:     "/tmp/zlogger.log",
		})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":9090" {
			t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
		}
		if cfg.DatabaseURL != "postgres://override/db" {
			t.Errorf("DatabaseURL = %q, want override", cfg.DatabaseURL)
		}
		if cfg.AMQPURL != "amqp://override:5672" {
			t.Errorf("AMQPURL = %q, want override", cfg.AMQPURL)
		}
		if cfg.LogPath != "/tmp/zlogger.log" {
			t.Errorf("LogPath = %q, want /tmp/zlogger.log", cfg.LogPath)
		}
	})

	t.Run("env_vars_read", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.DatabaseURL != "postgres://localhost/test" {
			t.Errorf("DatabaseURL = %q, want postgres://localhost/test", cfg.DatabaseURL)
		}
		if cfg.AMQPURL != "amqp://localhost:5672" {
			t.Errorf("AMQPURL = %q, want amqp://localhost:5672", cfg.AMQPURL)
		}
	})
}

func TestLoadMissingRequired(t *testing.T) {
	cleanup := setEnvs(t, map[string]string{})
	defer cleanup()
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("AMQP_URL")

	_, err := Load(Overrides{EnvFile: "nonexistent.env"})
	if err == nil {
		t.Error("expected error when required env vars are missing")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when LOG_PATH and AMQP_URL are unset")
	}
	cfg.LogPath = "/tmp/zlogger.log"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when AMQP_URL is unset")
	}
	cfg.AMQPURL = "amqp://localhost:5672"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

// setEnvs sets environment variables and returns a cleanup function.
func setEnvs(t *testing.T, envs map[string]string) func() {
	t.Helper()
	originals := make(map[string]string)
	unset := make([]string, 0)

	for k, v := range envs {
		if orig, ok := os.LookupEnv(k); ok {
			originals[k] = orig
		} else {
			unset = append(unset, k)
		}
		os.Setenv(k, v)
	}

	return func() {
		for k, v := range originals {
			os.Setenv(k, v)
		}
		for _, k := range unset {
			os.Unsetenv(k)
		}
	}
}
