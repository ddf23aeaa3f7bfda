package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:      AppConfig{Environment: "development"},
		Logger:   LoggerConfig{Level: "info"},
		Server:   ServerConfig{Port: "3000"},
		Database: DatabaseConfig{Path: "/data/db", Timeout: 5 * time.Second},
		Auth: AuthConfig{
			Provider:      AuthProviderPaseto,
			TokenDuration: time.Hour,
			Timeout:       5 * time.Second,
		},
		RateLimit: RateLimitConfig{Enabled: true, RPS: 10, Burst: 20},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", true},
		{"qa", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad log level", func(c *Config) { c.Logger.Level = "loud" }},
		{"non numeric port", func(c *Config) { c.Server.Port = "http" }},
		{"port out of range", func(c *Config) { c.Server.Port = "70000" }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"zero store timeout", func(c *Config) { c.Database.Timeout = 0 }},
		{"unknown provider", func(c *Config) { c.Auth.Provider = "ldap" }},
		{"jwks without url", func(c *Config) {
			c.Auth.Provider = AuthProviderJWKS
			c.Auth.Audience = "proj"
		}},
		{"jwks without audience", func(c *Config) {
			c.Auth.Provider = AuthProviderJWKS
			c.Auth.JWKSURL = "https://keys.example.com"
		}},
		{"zero auth timeout", func(c *Config) { c.Auth.Timeout = 0 }},
		{"bad rate limit", func(c *Config) { c.RateLimit.Burst = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_InMemoryNeedsNoPath(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Path = ""
	cfg.Database.InMemory = true
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("DB_PATH", filepath.Join(tmp, "db"))

	cfg, err := Load([]string{"-env-file", filepath.Join(tmp, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.True(t, cfg.App.IsDevelopment())
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 5*time.Second, cfg.Database.Timeout)
	assert.Equal(t, AuthProviderPaseto, cfg.Auth.Provider)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenDuration)
	assert.Equal(t, filepath.Join(tmp, "auth.key"), cfg.Auth.TokenKeyPath)
	assert.Equal(t, 20.0, cfg.RateLimit.RPS)
	assert.Equal(t, 40, cfg.RateLimit.Burst)
	assert.False(t, cfg.Maintenance.ReconcileOnStart)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("PORT", "4000")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("DB_IN_MEMORY", "true")

	cfg, err := Load([]string{
		"-env-file", filepath.Join(tmp, "missing.env"),
		"-port", "5000",
		"-store-timeout", "250ms",
		"-allowed-origins", "https://a.example, https://b.example",
		"-reconcile-on-start", "yes",
	})
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.True(t, cfg.Database.InMemory)
	assert.Equal(t, 250*time.Millisecond, cfg.Database.Timeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Maintenance.ReconcileOnStart)
}

func TestLoad_JWKSProjectDefaults(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("DB_IN_MEMORY", "true")
	t.Setenv("AUTH_PROVIDER", "jwks")
	t.Setenv("AUTH_PROJECT_ID", "photogram-demo")

	cfg, err := Load([]string{"-env-file", filepath.Join(tmp, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "https://securetoken.google.com/photogram-demo", cfg.Auth.Issuer)
	assert.Equal(t, "photogram-demo", cfg.Auth.Audience)
	assert.Equal(t, firebaseJWKSURL, cfg.Auth.JWKSURL)
}

func TestLoad_InvalidDuration(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("DB_IN_MEMORY", "true")
	t.Setenv("AUTH_TIMEOUT", "soon")

	_, err := Load([]string{"-env-file", filepath.Join(tmp, "missing.env")})
	assert.ErrorContains(t, err, "auth_timeout")
}

func TestLoadEnvFile(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, ".env")
	content := "# comment\n\nPHOTOGRAM_TEST_A=one\nPHOTOGRAM_TEST_B=\"quoted\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("PHOTOGRAM_TEST_A", "")
	t.Setenv("PHOTOGRAM_TEST_B", "preset")

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "one", os.Getenv("PHOTOGRAM_TEST_A"))
	assert.Equal(t, "preset", os.Getenv("PHOTOGRAM_TEST_B"), "existing env vars win")
}

func TestLoadEnvFile_InvalidLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NOT_A_PAIR\n"), 0o600))
	assert.Error(t, loadEnvFile(path))
}

func TestGetIntConfigValue(t *testing.T) {
	t.Setenv("PHOTOGRAM_TEST_INT", "12")
	assert.Equal(t, 12, getIntConfigValue("", "PHOTOGRAM_TEST_INT", 3))
	assert.Equal(t, 7, getIntConfigValue("7", "PHOTOGRAM_TEST_INT", 3))
	assert.Equal(t, 3, getIntConfigValue("x", "PHOTOGRAM_TEST_INT", 3))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(""))
}
