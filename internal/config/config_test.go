package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DATABASE_URL", "LOG_LEVEL", "ANTHROPIC_API_KEY", "CALLCOACH_MODEL",
		"STORAGE_URL", "STORAGE_KEY", "STORAGE_BUCKET", "NATS_URL", "NATS_TOKEN",
		"CALLCOACH_API_TOKEN", "CRON_SECRET", "CALLCOACH_CALLS_PER_HOUR", "CALLCOACH_CALLS_PER_MINUTE",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != 8700 {
		t.Errorf("expected default port 8700, got %d", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %q", cfg.LogLevel)
	}
	if cfg.AnthropicModel != "claude-3-haiku-20240307" {
		t.Errorf("unexpected default model: %q", cfg.AnthropicModel)
	}
	if cfg.StorageBucket != "transcripts" {
		t.Errorf("expected default bucket transcripts, got %q", cfg.StorageBucket)
	}
	if cfg.CallsPerHour != 50 || cfg.CallsPerMinute != 5 {
		t.Errorf("expected default limits 50/hour and 5/minute, got %d/%d", cfg.CallsPerHour, cfg.CallsPerMinute)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("DATABASE_URL", "postgres://localhost/callcoach_test")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CALLCOACH_MODEL", "claude-3-5-sonnet-20241022")
	t.Setenv("CALLCOACH_CALLS_PER_HOUR", "10")
	t.Setenv("CALLCOACH_CALLS_PER_MINUTE", "2")

	cfg := Load()

	if cfg.Port != 9100 {
		t.Errorf("expected port 9100, got %d", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://localhost/callcoach_test" {
		t.Errorf("unexpected database url: %q", cfg.DatabaseURL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.LogLevel)
	}
	if cfg.AnthropicModel != "claude-3-5-sonnet-20241022" {
		t.Errorf("unexpected model: %q", cfg.AnthropicModel)
	}
	if cfg.CallsPerHour != 10 || cfg.CallsPerMinute != 2 {
		t.Errorf("expected limits 10/2, got %d/%d", cfg.CallsPerHour, cfg.CallsPerMinute)
	}
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	cfg := Load()
	if cfg.Port != 8700 {
		t.Errorf("expected fallback port 8700, got %d", cfg.Port)
	}
}
