package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// FromEnv loads configuration from environment variables on top of Default.
// Malformed optional values (durations, integers) are logged and replaced by
// their defaults rather than failing startup; missing required values are
// reported later by Validate.
func FromEnv(logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.Default()
	}
	l := envLoader{logger: logger}
	cfg := Default()

	cfg.Server.Addr = l.str("FAIRGATE_ADDR", cfg.Server.Addr)

	cfg.Registry.AuthURL = l.str("AUTH_URL", "")
	cfg.Registry.DataURL = l.str("DATA_URL", "")
	cfg.Registry.Username = l.str("USERNAME", "")
	cfg.Registry.Password = l.str("PASSWORD", "")
	cfg.Registry.Timeout = l.duration("REGISTRY_TIMEOUT", cfg.Registry.Timeout)

	cfg.Store.APIBase = l.str("GITHUB_API_URL", cfg.Store.APIBase)
	cfg.Store.Token = l.str("GITHUB_TOKEN", "")
	cfg.Store.Owner = l.str("GITHUB_OWNER", "")
	cfg.Store.Repo = l.str("GITHUB_REPO", "")
	cfg.Store.Branch = l.str("GITHUB_BRANCH", cfg.Store.Branch)
	cfg.Store.Timeout = l.duration("GITHUB_TIMEOUT", cfg.Store.Timeout)
	cfg.Store.TestCategory = l.str("TEST_CATEGORY", cfg.Store.TestCategory)
	cfg.Store.Warmup = l.duration("PROPAGATION_WARMUP", cfg.Store.Warmup)
	cfg.Store.PollInterval = l.duration("PROPAGATION_POLL_INTERVAL", cfg.Store.PollInterval)
	cfg.Store.PollAttempts = l.integer("PROPAGATION_POLL_ATTEMPTS", cfg.Store.PollAttempts)

	cfg.Lookup.URL = l.str("LOOKUP_URL", "")
	cfg.Lookup.APIKey = l.str("LOOKUP_API_KEY", "")
	cfg.Lookup.Timeout = l.duration("LOOKUP_TIMEOUT", cfg.Lookup.Timeout)
	cfg.Lookup.CacheTTL = l.duration("LOOKUP_CACHE_TTL", cfg.Lookup.CacheTTL)

	cfg.Notifier.ProxyURL = l.str("PROXY_URL", "")
	cfg.Notifier.Timeout = l.duration("PROXY_TIMEOUT", cfg.Notifier.Timeout)

	return cfg
}

// envLoader reads typed values from the environment.
type envLoader struct {
	logger *slog.Logger
}

func (l envLoader) str(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (l envLoader) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		l.logger.Warn("Invalid duration in environment, using default",
			slog.String("key", key),
			slog.String("value", v),
			slog.Duration("default", fallback))
		return fallback
	}
	return d
}

func (l envLoader) integer(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.logger.Warn("Invalid integer in environment, using default",
			slog.String("key", key),
			slog.String("value", v),
			slog.Int("default", fallback))
		return fallback
	}
	return n
}
