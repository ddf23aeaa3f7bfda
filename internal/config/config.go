// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Identity providers.
const (
	AuthProviderJWKS   = "jwks"
	AuthProviderPaseto = "paseto"
)

// Firebase publishes the signing keys of its ID tokens here.
const firebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

// Config holds the application configuration.
type Config struct {
	App         AppConfig
	Logger      LoggerConfig
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	Maintenance MaintenanceConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// IsDevelopment reports whether internal error detail may be exposed to clients.
func (a AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port            string        // Server port (default: 3000)
	ReadTimeout     time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout    time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout     time.Duration // HTTP idle timeout (default: 60s)
	ShutdownTimeout time.Duration // Graceful shutdown budget (default: 30s)
	AllowedOrigins  []string      // CORS origins (default: *)
}

// DatabaseConfig holds document store configuration.
type DatabaseConfig struct {
	Path     string
	InMemory bool
	// Timeout bounds every store call.
	Timeout time.Duration
}

// AuthConfig holds identity verification configuration.
type AuthConfig struct {
	// Provider selects the verifier: "jwks" for hosted identity providers
	// or "paseto" for self-issued local tokens.
	Provider string

	// JWKS verifier settings. ProjectID fills Issuer and Audience the way
	// Firebase ID tokens expect when they are not set explicitly.
	ProjectID string
	JWKSURL   string
	Issuer    string
	Audience  string

	// PASETO verifier settings.
	TokenKeyPath  string
	TokenDuration time.Duration

	// Timeout bounds each verification, including key fetches.
	Timeout time.Duration
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// MaintenanceConfig holds startup maintenance switches.
type MaintenanceConfig struct {
	ReconcileOnStart bool
}

// LoadConfig loads configuration from the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("photogram", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")

	// Server flags
	serverPort := fs.String("port", "", "Server port (default: 3000)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	allowedOrigins := fs.String("allowed-origins", "", "Comma-separated CORS origins (default: *)")

	// Database flags
	dbPath := fs.String("db-path", "", "Path to the database directory")
	dbInMemory := fs.String("db-in-memory", "", "Keep the database in memory (default: false)")
	storeTimeout := fs.String("store-timeout", "", "Timeout for a single store call (default: 5s)")

	// Auth flags
	authProvider := fs.String("auth-provider", "", "Identity provider: jwks or paseto (default: paseto)")
	projectID := fs.String("project-id", "", "Identity project id")
	jwksURL := fs.String("jwks-url", "", "JWKS endpoint for token signing keys")
	tokenKeyPath := fs.String("token-key-path", "", "Path of the PASETO symmetric key")
	tokenDuration := fs.String("token-duration", "", "Lifetime of locally issued tokens (default: 24h)")
	authTimeout := fs.String("auth-timeout", "", "Timeout for token verification (default: 5s)")

	reconcile := fs.String("reconcile-on-start", "", "Reconcile like counters at startup (default: false)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "PORT", "3000"),
			AllowedOrigins: splitList(getConfigValue(*allowedOrigins, "ALLOWED_ORIGINS", "*")),
		},
		Database: DatabaseConfig{
			Path:     getConfigValue(*dbPath, "DB_PATH", ""),
			InMemory: getBoolConfigValue(*dbInMemory, "DB_IN_MEMORY", false),
		},
		Auth: AuthConfig{
			Provider:     strings.ToLower(getConfigValue(*authProvider, "AUTH_PROVIDER", AuthProviderPaseto)),
			ProjectID:    getConfigValue(*projectID, "AUTH_PROJECT_ID", ""),
			JWKSURL:      getConfigValue(*jwksURL, "AUTH_JWKS_URL", ""),
			Issuer:       getConfigValue("", "AUTH_ISSUER", ""),
			Audience:     getConfigValue("", "AUTH_AUDIENCE", ""),
			TokenKeyPath: getConfigValue(*tokenKeyPath, "AUTH_TOKEN_KEY_PATH", ""),
		},
		RateLimit: RateLimitConfig{
			Enabled: getBoolConfigValue("", "RATE_LIMIT_ENABLED", true),
			Burst:   getIntConfigValue("", "RATE_LIMIT_BURST", 40),
		},
		Maintenance: MaintenanceConfig{
			ReconcileOnStart: getBoolConfigValue(*reconcile, "MAINTENANCE_RECONCILE_ON_START", false),
		},
	}

	rps, err := strconv.ParseFloat(getConfigValue("", "RATE_LIMIT_RPS", "20"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit rps: %w", err)
	}
	cfg.RateLimit.RPS = rps

	durations := []struct {
		dst      *time.Duration
		flag     string
		envKey   string
		fallback string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Server.ShutdownTimeout, "", "SERVER_SHUTDOWN_TIMEOUT", "30s"},
		{&cfg.Database.Timeout, *storeTimeout, "STORE_TIMEOUT", "5s"},
		{&cfg.Auth.TokenDuration, *tokenDuration, "AUTH_TOKEN_DURATION", "24h"},
		{&cfg.Auth.Timeout, *authTimeout, "AUTH_TIMEOUT", "5s"},
	}
	for _, d := range durations {
		value := getConfigValue(d.flag, d.envKey, d.fallback)
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", strings.ToLower(d.envKey), value, err)
		}
		*d.dst = parsed
	}

	cfg.applyAuthDefaults()

	if err := cfg.expandDatabasePath(); err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}
	if err := cfg.expandTokenKeyPath(); err != nil {
		return nil, fmt.Errorf("invalid token key path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, production, or test)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port: %s", c.Server.Port)
	}

	if !c.Database.InMemory && c.Database.Path == "" {
		return errors.New("database path cannot be empty unless DB_IN_MEMORY is set")
	}
	if c.Database.Timeout <= 0 {
		return errors.New("store timeout must be positive")
	}

	switch c.Auth.Provider {
	case AuthProviderJWKS:
		if c.Auth.JWKSURL == "" {
			return errors.New("AUTH_JWKS_URL is required for the jwks provider")
		}
		if c.Auth.Audience == "" {
			return errors.New("AUTH_AUDIENCE or AUTH_PROJECT_ID is required for the jwks provider")
		}
	case AuthProviderPaseto:
		if c.Auth.TokenDuration <= 0 {
			return errors.New("token duration must be positive")
		}
	default:
		return fmt.Errorf("invalid auth provider: %s (must be jwks or paseto)", c.Auth.Provider)
	}
	if c.Auth.Timeout <= 0 {
		return errors.New("auth timeout must be positive")
	}

	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1) {
		return fmt.Errorf("invalid rate limit: rps=%v burst=%d", c.RateLimit.RPS, c.RateLimit.Burst)
	}

	return nil
}

// applyAuthDefaults derives Firebase-style issuer, audience, and key
// endpoint from the project id.
func (c *Config) applyAuthDefaults() {
	if c.Auth.Provider != AuthProviderJWKS {
		return
	}
	if c.Auth.ProjectID != "" {
		if c.Auth.Issuer == "" {
			c.Auth.Issuer = "https://securetoken.google.com/" + c.Auth.ProjectID
		}
		if c.Auth.Audience == "" {
			c.Auth.Audience = c.Auth.ProjectID
		}
	}
	if c.Auth.JWKSURL == "" {
		c.Auth.JWKSURL = firebaseJWKSURL
	}
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDatabasePath defaults to ~/Photogram/data.
func (c *Config) expandDatabasePath() error {
	if c.Database.InMemory {
		return nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.Database.Path, filepath.Join(homeDir, "Photogram", "data"))
	if err != nil {
		return err
	}
	c.Database.Path = expanded
	return nil
}

// expandTokenKeyPath defaults to a key file next to the database.
func (c *Config) expandTokenKeyPath() error {
	if c.Auth.Provider != AuthProviderPaseto {
		return nil
	}
	base := c.Database.Path
	if base == "" {
		base = os.TempDir()
	}

	expanded, err := expandPath(c.Auth.TokenKeyPath, filepath.Join(filepath.Dir(base), "auth.key"))
	if err != nil {
		return err
	}
	c.Auth.TokenKeyPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envKey != "" {
		if envValue := os.Getenv(envKey); envValue != "" {
			return envValue
		}
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		// Env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
