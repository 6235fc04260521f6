package config

type App struct {
	Port            string `env:"APP_PORT" default:"8080"`
	DatabaseURL     string `env:"DATABASE_URL,required"`
	DefaultLoanDays int    `env:"DEFAULT_LOAN_DAYS" default:"30"`
	StatsCacheTTL   string `env:"STATS_CACHE_TTL" default:"30s"`
	Env             string `env:"APP_ENV" default:"dev"`
}
