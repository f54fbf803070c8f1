package config

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env  string
	Port int

	DatabaseURL string

	RedisAddr    string
	KafkaBrokers []string
	KafkaTopic   string

	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	BcryptCost int

	CookieSameSite string // strict | lax | none
	CookieSecure   bool

	MaxAmount   int64   // largest accepted simulated charge, minor units
	DeclineRate float64 // probability a valid simulated charge is declined

	LogLevel string
}

func Load() Config {
	return Config{
		Env:  EnvDefault("APP_ENV", "dev"),
		Port: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:    os.Getenv("REDIS_ADDR"),
		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   EnvDefault("KAFKA_TOPIC", "gateway.events"),

		AccessSecret:  []byte(os.Getenv("JWT_ACCESS_SECRET")),
		RefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		AccessTTL:     EnvDurationDefault("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL:    EnvDurationDefault("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		BcryptCost: EnvIntDefault("BCRYPT_COST", 12),

		CookieSameSite: EnvDefault("COOKIE_SAMESITE", "lax"),
		CookieSecure:   EnvBoolDefault("COOKIE_SECURE", true),

		MaxAmount:   int64(EnvIntDefault("MAX_AMOUNT", 100_000_00)),
		DeclineRate: EnvFloatDefault("DECLINE_RATE", 0.1),

		LogLevel: EnvDefault("LOG_LEVEL", "info"),
	}
}

// MustValidate halts the process when a required value is missing. Secrets
// must be present and distinct: sharing one secret across both token kinds
// would collapse the separation refresh tokens rely on.
func (c Config) MustValidate() {
	MustNonEmptyBytes(c.AccessSecret, "JWT_ACCESS_SECRET")
	MustNonEmptyBytes(c.RefreshSecret, "JWT_REFRESH_SECRET")
	if string(c.AccessSecret) == string(c.RefreshSecret) {
		log.Fatal("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	MustNonEmpty(c.DatabaseURL, "DATABASE_URL")
}

// SameSite maps the configured policy onto the http constant. "none" is for
// cross-site deployments over HTTPS; anything unrecognized falls back to lax.
func (c Config) SameSite() http.SameSite {
	switch strings.ToLower(c.CookieSameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
