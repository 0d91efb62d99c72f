package config // package config loads application configuration from environment variables

import (
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings splits list-valued variables
	"time"    // time parses durations and time zones

	"github.com/joho/godotenv"       // godotenv loads a local .env file into the environment
	"github.com/labstack/gommon/log" // log reports configuration errors and halts execution
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Database settings are only required when the
// MySQL store is selected.
type Config struct {
	Env           string         // application environment (e.g. "dev", "prod")
	Port          string         // HTTP port to listen on
	StoreDriver   string         // "mysql" or "memory"
	DBUser        string         // database username
	DBPass        string         // database password (optional)
	DBHost        string         // database host address
	DBPort        string         // database port number
	DBName        string         // database name
	AutoMigrate   bool           // create tables on startup
	JWTSecret     string         // secret used to verify JWTs
	Location      *time.Location // time zone "today" is computed in
	SlotLabels    []string       // slot catalog override; nil keeps the built-in day
	SweepInterval time.Duration  // completion sweep period; 0 disables the sweeper
	LogLevel      log.Lvl        // minimum level written by the application logger
	AMQPURL       string         // RabbitMQ connection string; empty disables notifications
	BookingLogDir string         // directory the event consumer appends booking.log to
}

// Load reads a .env file when present, then configuration values from the
// environment.  Required variables are enforced by must() and missing
// values cause the program to exit with a fatal log message.
func Load() Config {
	_ = godotenv.Load() // a missing .env file is fine; real env vars win either way

	cfg := Config{
		Env:           must("APP_ENV"),                          // environment (dev/test/prod)
		Port:          must("APP_PORT"),                         // port to bind the HTTP server
		StoreDriver:   strings.ToLower(envStr("STORE_DRIVER", DriverMySQL)),
		JWTSecret:     must("JWT_SECRET"),                       // secret used for verifying JWTs
		Location:      mustLocation("APP_TIMEZONE"),             // calendar used for "today"
		SlotLabels:    splitList(os.Getenv("SLOT_LABELS"), ";"), // optional catalog override
		SweepInterval: envDur("SWEEP_INTERVAL", 10*time.Minute), // completion sweep period
		LogLevel:      ParseLevel(envStr("LOG_LEVEL", "info")),  // logger verbosity
		AMQPURL:       amqpURL(),                                // notification broker
		BookingLogDir: envStr("BOOKING_LOG_DIR", "logs"),        // consumer output directory
	}
	switch cfg.StoreDriver {
	case DriverMySQL:
		cfg.DBUser = must("DB_USER")                         // database user
		cfg.DBPass = os.Getenv("DB_PASS")                    // database password (empty allowed)
		cfg.DBHost = must("DB_HOST")                         // database host
		cfg.DBPort = strconv.Itoa(mustInt("DB_PORT"))        // database port
		cfg.DBName = must("DB_NAME")                         // database name
		cfg.AutoMigrate = envBool("DB_AUTO_MIGRATE", false) // create tables at boot
	case DriverMemory:
	default:
		log.Fatalf("invalid STORE_DRIVER %q (want mysql or memory)", cfg.StoreDriver)
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// mustLocation loads the named IANA time zone, defaulting to UTC when the
// variable is unset.  An unknown zone is fatal.
func mustLocation(key string) *time.Location {
	name := envStr(key, "UTC")
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Fatalf("invalid time zone for %s: %q", key, name)
	}
	return loc
}

// amqpURL returns RABBITMQ_URL, falling back to AMQP_URL.
func amqpURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// splitList splits s on sep, trimming entries and dropping blanks.  An
// empty input yields nil.
func splitList(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
