package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

func Load() App {
	cfg := App{
		Port:            getenv("APP_PORT", "8080"),
		DatabaseURL:     must("DATABASE_URL"),
		DefaultLoanDays: getint("DEFAULT_LOAN_DAYS", 30),
		StatsCacheTTL:   getenv("STATS_CACHE_TTL", "30s"),
		Env:             getenv("APP_ENV", "dev"),
	}
	return cfg
}

// CacheTTL parses StatsCacheTTL. An explicit zero disables the stats cache;
// garbage and negative values fall back to 30s.
func (a App) CacheTTL() time.Duration {
	d, err := time.ParseDuration(a.StatsCacheTTL)
	if err != nil || d < 0 {
		return 30 * time.Second
	}
	return d
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env, using default", "key", k, "value", v)
		return def
	}
	return n
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}
