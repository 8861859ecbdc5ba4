// Package config provides configuration loading and validation for FairGate.
// Configuration is read once at startup from environment variables and the
// resulting Config is passed into each component at construction time; nothing
// reads the environment after that.
package config

import (
	"strings"
	"time"

	"github.com/c360studio/fairgate/errors"
)

// Config is the complete FairGate configuration.
type Config struct {
	Server   ServerConfig
	Registry RegistryConfig
	Store    StoreConfig
	Lookup   LookupConfig
	Notifier NotifierConfig
}

// ServerConfig configures the inbound HTTP server.
type ServerConfig struct {
	// Addr is the listen address (host:port).
	Addr string
}

// RegistryConfig configures the metadata registry client.
type RegistryConfig struct {
	// AuthURL is the sign-in endpoint that exchanges credentials for a JWT.
	AuthURL string
	// DataURL is the record submission endpoint.
	DataURL string
	// Username and Password are the registry account credentials.
	Username string
	Password string
	// Timeout bounds each registry HTTP call.
	Timeout time.Duration
}

// StoreConfig configures the versioned store (GitHub contents API) client.
type StoreConfig struct {
	// APIBase is the store API root, e.g. https://api.github.com.
	APIBase string
	// Token is the static bearer token for the store API.
	Token string
	// Owner, Repo and Branch identify the destination repository.
	Owner  string
	Repo   string
	Branch string
	// Timeout bounds each store HTTP call.
	Timeout time.Duration
	// TestCategory is the category value (matched case-insensitively) that
	// triggers the propagation wait and index notification after a write.
	TestCategory string
	// Warmup is the fixed sleep before the first propagation poll.
	Warmup time.Duration
	// PollInterval and PollAttempts bound the propagation polling loop.
	PollInterval time.Duration
	PollAttempts int
}

// LookupConfig configures the classification lookup service client.
// An empty URL disables resolution: every reference is dropped with a warning,
// the same recovery path as a failed lookup.
type LookupConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
	// CacheTTL controls how long resolved ids are cached. Zero disables the
	// cache.
	CacheTTL time.Duration
}

// NotifierConfig configures the downstream index notifier.
// An empty ProxyURL skips notification.
type NotifierConfig struct {
	ProxyURL string
	Timeout  time.Duration
}

// Default returns a Config with defaults for everything that has one.
// Credentials and endpoint URLs have no defaults and must come from the
// environment.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Registry: RegistryConfig{
			Timeout: 30 * time.Second,
		},
		Store: StoreConfig{
			APIBase:      "https://api.github.com",
			Branch:       "main",
			Timeout:      30 * time.Second,
			TestCategory: "test",
			Warmup:       2 * time.Second,
			PollInterval: time.Second,
			PollAttempts: 10,
		},
		Lookup: LookupConfig{
			Timeout:  15 * time.Second,
			CacheTTL: 10 * time.Minute,
		},
		Notifier: NotifierConfig{
			Timeout: 5 * time.Second,
		},
	}
}

// Validate checks that all required configuration is present. It returns a
// configuration_missing error naming every absent variable so operators can
// fix them in one pass.
func (c *Config) Validate() error {
	var missing []string
	require := func(value, name string) {
		if value == "" {
			missing = append(missing, name)
		}
	}

	require(c.Registry.AuthURL, "AUTH_URL")
	require(c.Registry.DataURL, "DATA_URL")
	require(c.Registry.Username, "USERNAME")
	require(c.Registry.Password, "PASSWORD")
	require(c.Store.Token, "GITHUB_TOKEN")
	require(c.Store.Owner, "GITHUB_OWNER")
	require(c.Store.Repo, "GITHUB_REPO")

	if len(missing) > 0 {
		return errors.NewConfiguration("missing required configuration: " + strings.Join(missing, ", "))
	}
	return nil
}

// IsTestCategory reports whether category matches the configured test marker,
// ignoring case.
func (c StoreConfig) IsTestCategory(category string) bool {
	return c.TestCategory != "" && strings.EqualFold(category, c.TestCategory)
}
