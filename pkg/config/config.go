package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Database
	DBDriver string // "postgres" or "sqlite"
	DBDSN    string

	// AI provider
	AIProvider    string // "gemini", "ollama" or "auto"
	GeminiAPIKey  string
	GeminiModel   string
	OllamaBaseURL string
	OllamaModel   string

	// Chat
	ChatHistoryLimit int

	// Push notifications
	FirebaseCredentials string
	TipPushInterval     time.Duration

	CORSAllowedOrigins []string

	// Accounts allowed to change process-wide settings; empty locks them
	AdminEmails []string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:                getEnv("PORT", "8080"),
		JWTSecret:           getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTAccessExpiry:     getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		JWTRefreshExpiry:    getDuration("JWT_REFRESH_EXPIRY", 168*time.Hour), // 7 days
		DBDriver:            getEnv("DB_DRIVER", "postgres"),
		DBDSN:               getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=betterish port=5432 sslmode=disable"),
		AIProvider:          getEnv("AI_PROVIDER", "auto"),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		OllamaBaseURL:       getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:         getEnv("OLLAMA_MODEL", "llama3"),
		ChatHistoryLimit:    getInt("CHAT_HISTORY_LIMIT", 20),
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),
		TipPushInterval:     getDuration("TIP_PUSH_INTERVAL", time.Hour),
		CORSAllowedOrigins:  getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		AdminEmails:         getList("ADMIN_EMAILS", nil),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
