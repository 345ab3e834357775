package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Environment:          EnvDevelopment,
		LogLevel:             "info",
		DatabaseURL:          "postgres://db/mealplanner",
		ShoppingListCacheTTL: 24 * time.Hour,
		CORSAllowedOrigins:   "*",
		SessionAuthKey:       devSessionAuthKey,
		SessionEncryptionKey: devSessionEncryptionKey,
		TemporalTaskQueue:    "shopping-lists",
	}
}

func validProduction() *Config {
	c := validConfig()
	c.Environment = EnvProduction
	c.SessionAuthKey = strings.Repeat("a", 32)
	c.SessionEncryptionKey = strings.Repeat("b", 16)
	c.CORSAllowedOrigins = "https://app.example.com"
	return c
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		base    func() *Config
		mutate  func(c *Config)
		wantErr string
	}{
		{"development defaults", validConfig, func(*Config) {}, ""},
		{"development allows dev keys and debug", validConfig, func(c *Config) { c.LogLevel = "debug" }, ""},
		{"missing database", validConfig, func(c *Config) { c.DatabaseURL = "" }, "DATABASE_URL"},
		{"zero cache ttl", validConfig, func(c *Config) { c.ShoppingListCacheTTL = 0 }, "SHOPPING_LIST_CACHE_TTL"},
		{"negative rate limit", validConfig, func(c *Config) { c.HTTPRequestsPerMinute = -1 }, "HTTP_REQUESTS_PER_MINUTE"},
		{"negative body cap", validConfig, func(c *Config) { c.HTTPMaxBodyBytes = -1 }, "HTTP_MAX_BODY_BYTES"},
		{"temporal without queue", validConfig, func(c *Config) { c.TemporalEnabled = true; c.TemporalTaskQueue = "" }, "TEMPORAL_TASK_QUEUE"},
		{"temporal disabled ignores queue", validConfig, func(c *Config) { c.TemporalTaskQueue = "" }, ""},

		{"production", validProduction, func(*Config) {}, ""},
		{"short auth key", validProduction, func(c *Config) { c.SessionAuthKey = "short" }, "SESSION_AUTH_KEY"},
		{"default auth key", validProduction, func(c *Config) { c.SessionAuthKey = devSessionAuthKey }, "SESSION_AUTH_KEY"},
		{"short encryption key", validProduction, func(c *Config) { c.SessionEncryptionKey = "short" }, "SESSION_ENCRYPTION_KEY"},
		{"default encryption key", validProduction, func(c *Config) { c.SessionEncryptionKey = devSessionEncryptionKey }, "SESSION_ENCRYPTION_KEY"},
		{"wildcard cors", validProduction, func(c *Config) { c.CORSAllowedOrigins = "*" }, "CORS_ALLOWED_ORIGINS"},
		{"debug logging", validProduction, func(c *Config) { c.LogLevel = "debug" }, "LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %s, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := validProduction()
	cfg.DatabaseURL = ""
	cfg.LogLevel = "debug"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"DATABASE_URL", "LOG_LEVEL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
