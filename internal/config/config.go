// Package config reads the environment surface: the push bearer token,
// the fixture record mode, and named test credentials substituted into
// connection fields.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"coupler/internal/fixture"
)

const (
	envToken   = "COUPLER_API_TOKEN"
	envMode    = "COUPLER_RECORD_MODE"
	credPrefix = "COUPLER_CRED_"
)

// Config is the resolved environment.
type Config struct {
	// APIToken is the bearer credential for push.
	APIToken string
	// RecordMode selects record/replay/once for test runs.
	RecordMode fixture.Mode
	// Credentials maps lower-cased connection field names to values
	// taken from COUPLER_CRED_* variables.
	Credentials map[string]string
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	mode, err := fixture.ParseMode(os.Getenv(envMode))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", envMode, err)
	}

	cfg := &Config{
		APIToken:    os.Getenv(envToken),
		RecordMode:  mode,
		Credentials: make(map[string]string),
	}

	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, credPrefix) {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(key, credPrefix))
		if name == "" {
			continue
		}
		cfg.Credentials[name] = value
	}

	return cfg, nil
}
