package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("CHAT_HISTORY_LIMIT", "")
	t.Setenv("JWT_ACCESS_EXPIRY", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("ADMIN_EMAILS", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, expected 8080", cfg.Port)
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("DBDriver = %q, expected postgres", cfg.DBDriver)
	}
	if cfg.ChatHistoryLimit != 20 {
		t.Fatalf("ChatHistoryLimit = %d, expected 20", cfg.ChatHistoryLimit)
	}
	if cfg.JWTAccessExpiry != 15*time.Minute {
		t.Fatalf("JWTAccessExpiry = %v, expected 15m", cfg.JWTAccessExpiry)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("CORSAllowedOrigins = %v, expected [*]", cfg.CORSAllowedOrigins)
	}
	if len(cfg.AdminEmails) != 0 {
		t.Fatalf("AdminEmails = %v, expected none", cfg.AdminEmails)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("CHAT_HISTORY_LIMIT", "5")
	t.Setenv("TIP_PUSH_INTERVAL", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("ADMIN_EMAILS", "ops@example.com")

	cfg := Load()
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("DBDriver = %q, expected sqlite", cfg.DBDriver)
	}
	if cfg.ChatHistoryLimit != 5 {
		t.Fatalf("ChatHistoryLimit = %d, expected 5", cfg.ChatHistoryLimit)
	}
	if cfg.TipPushInterval != 30*time.Minute {
		t.Fatalf("TipPushInterval = %v, expected 30m", cfg.TipPushInterval)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if len(cfg.AdminEmails) != 1 || cfg.AdminEmails[0] != "ops@example.com" {
		t.Fatalf("AdminEmails = %v", cfg.AdminEmails)
	}
}

func TestLoadIgnoresBadValues(t *testing.T) {
	t.Setenv("CHAT_HISTORY_LIMIT", "-3")
	t.Setenv("JWT_REFRESH_EXPIRY", "soon")

	cfg := Load()
	if cfg.ChatHistoryLimit != 20 {
		t.Fatalf("ChatHistoryLimit = %d, expected fallback 20", cfg.ChatHistoryLimit)
	}
	if cfg.JWTRefreshExpiry != 168*time.Hour {
		t.Fatalf("JWTRefreshExpiry = %v, expected fallback 168h", cfg.JWTRefreshExpiry)
	}
}
