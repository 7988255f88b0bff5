package config // package config loads application configuration from environment variables

import (
	"log" // log is used to report configuration errors and halt execution
	"os"  // os provides access to environment variables

	"github.com/joho/godotenv" // optional .env file support for local runs
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Nested structs group the settings of a single
// subsystem and are loaded by their own Load* function so they can be
// exercised independently in tests.
type Config struct {
	Env        string // application environment (e.g. "dev", "prod")
	Port       string // HTTP port to listen on
	LogLevel   string // zap level name: debug, info, warn, error
	DBUser     string // database username
	DBPass     string // database password (optional)
	DBHost     string // database host address
	DBPort     string // database port number
	DBName     string // database name
	DBMaxConns int    // pool size; bounds concurrent booking transactions
	JWTSecret  string // secret used to verify bearer tokens
	BcryptCost int    // bcrypt cost for guest account passwords

	Booking BookingConfig
	Events  EventsConfig
}

// Load reads an optional .env file and then the process environment.
// Required variables are enforced by must() and missing values cause the
// program to exit with a fatal log message.  Database settings are only
// required when the mysql storage driver is selected.
func Load() Config {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	booking := LoadBookingConfig()
	cfg := Config{
		Env:        must("APP_ENV"),
		Port:       must("APP_PORT"),
		LogLevel:   envStr("LOG_LEVEL", "info"),
		JWTSecret:  must("JWT_SECRET"),
		BcryptCost: envInt("BCRYPT_COST", 10),
		Booking:    booking,
		Events:     LoadEventsConfig(),
	}
	if booking.StorageDriver == StorageMySQL {
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
		cfg.DBMaxConns = envInt("DB_MAX_OPEN_CONNS", 25)
	}
	return cfg
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool { return c.Env == "prod" || c.Env == "production" }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
