package config

import (
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	GeminiAPIKey string
	GeminiModel  string

	// Empty DSN disables the diagnosis cache.
	DatabaseDSN string

	TelegramBotToken string
	WebhookURL       string

	SessionTTL time.Duration
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func Load() *Config {
	// Local dev convenience; absent file is fine.
	_ = godotenv.Load()

	ttl := 30 * time.Minute
	if v, _ := strconv.Atoi(os.Getenv("SESSION_TTL_MIN")); v > 0 {
		ttl = time.Duration(v) * time.Minute
	}

	return &Config{
		Port: getEnv("PORT", "8000"),

		// No key means demo mode with the mock engine, not a startup error.
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		DatabaseDSN: resolveDSN(),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		WebhookURL:       os.Getenv("WEBHOOK_URL"),

		SessionTTL: ttl,
	}
}

// MustTelegramToken — required only by the bot binary.
func (c *Config) MustTelegramToken() string {
	if strings.TrimSpace(c.TelegramBotToken) == "" {
		return mustEnv("TELEGRAM_BOT_TOKEN")
	}
	return c.TelegramBotToken
}

// resolveDSN prefers DATABASE_URL, falls back to POSTGRES_* / PG* pieces and
// returns "" when neither is set (cache disabled).
func resolveDSN() string {
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		return v
	}
	user := strings.TrimSpace(os.Getenv("POSTGRES_USER"))
	if user == "" {
		return ""
	}
	pass := os.Getenv("POSTGRES_PASSWORD")
	host := getEnvDefault("PGHOST", "db")
	port := getEnvDefault("PGPORT", "5432")
	db := getEnvDefault("POSTGRES_DB", "fixmate")

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + db,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func getEnvDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
