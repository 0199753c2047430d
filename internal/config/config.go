package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"    // time parses duration values
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Required variables are enforced by must()
// and missing values cause the program to exit with a fatal log message;
// tuning knobs fall back to sensible defaults.
type Config struct {
    Env  string // application environment (e.g. "dev", "prod")
    Port string // HTTP port to listen on

    DBUser string // database username
    DBPass string // database password (optional)
    DBHost string // database host address
    DBPort string // database port number
    DBName string // database name

    SessionSecret string        // secret used to sign session tokens
    SessionTTL    time.Duration // lifetime of an issued session token

    HoldTTL           time.Duration // how long a seat hold lives
    MaxHeldPerSession int           // cap on outstanding holds per session per seating
    ReaperInterval    time.Duration // how often the expiry reaper sweeps
    ReaperBatchLimit  int           // max ledger rows per sweep

    SeatCacheEnabled bool   // whether the Redis fast path is wired at all
    SeatCachePrefix  string // key namespace for seat hold cache entries
}

// Load reads configuration from the environment and returns a Config.
func Load() Config {
    return Config{
        Env:  must("APP_ENV"),
        Port: must("APP_PORT"),

        DBUser: must("DB_USER"),
        DBPass: os.Getenv("DB_PASS"), // empty allowed
        DBHost: must("DB_HOST"),
        DBPort: must("DB_PORT"),
        DBName: must("DB_NAME"),

        SessionSecret: must("SESSION_SECRET"),
        SessionTTL:    envDur("SESSION_TTL", 2*time.Hour),

        HoldTTL:           time.Duration(envInt("HOLD_TTL_SECONDS", 900)) * time.Second,
        MaxHeldPerSession: envInt("MAX_HELD_PER_SESSION", 10),
        ReaperInterval:    envDur("REAPER_INTERVAL", time.Minute),
        ReaperBatchLimit:  envInt("REAPER_BATCH_LIMIT", 100),

        SeatCacheEnabled: envBool("SEAT_CACHE_ENABLED", true),
        SeatCachePrefix:  envStr("SEAT_CACHE_PREFIX", "seathold"),
    }
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

func envStr(k, d string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return d
}

func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    switch v {
    case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
        return true
    case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
        return false
    }
    return d
}

func envInt(k string, d int) int {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if n, err := strconv.Atoi(v); err == nil {
        return n
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if dur, err := time.ParseDuration(v); err == nil {
        return dur
    }
    return d
}
