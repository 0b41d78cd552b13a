package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"    // time parses duration values
)

// Config holds all runtime configuration values shared by the access-control
// services.  Each field corresponds to an environment variable.  The same
// JWT secret and issuer must be configured for every service that verifies
// tokens; a mismatch silently rejects every request, so both are loaded
// here rather than read ad hoc.
type Config struct {
    Env            string        // application environment (e.g. "dev", "prod")
    Port           string        // HTTP port to listen on
    DBUser         string        // database username
    DBPass         string        // database password (optional)
    DBHost         string        // database host address
    DBPort         string        // database port number
    DBName         string        // database name
    DBMigrate      bool          // apply embedded schema statements at startup
    JWTSecret      string        // symmetric secret used to sign and verify JWTs
    Issuer         string        // iss claim stamped into every minted token
    AccessTTLMin   int           // access token time-to-live in minutes
    RefreshTTLDays int           // refresh token time-to-live in days
    BcryptCost     int           // bcrypt cost for password hashing
    SuapBaseURL    string        // base URL of the SUAP identity provider
    BackupTTL      time.Duration // validity window of a SUAP credential backup
    LogServiceURL  string        // base URL of the log service (command service only)
    AuthSource     string        // identity resolution strategy: "cookie" or "header"
    AckPolicy      string        // consumer acknowledgment policy: "on_success" or "always"
}

// DefaultIssuer is the token "brand" shared by all services.  Tokens whose
// iss claim differs are rejected by the verification middleware.
const DefaultIssuer = "porta-facil-api"

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The JWT secret is
// required in every service: it is the only unrecoverable misconfiguration.
func Load() Config {
    return Config{
        Env:            must("APP_ENV"),
        Port:           must("APP_PORT"),
        DBUser:         must("DB_USER"),
        DBPass:         os.Getenv("DB_PASS"), // empty allowed
        DBHost:         must("DB_HOST"),
        DBPort:         must("DB_PORT"),
        DBName:         must("DB_NAME"),
        DBMigrate:      envBool("DB_MIGRATE", false),
        JWTSecret:      must("JWT_SECRET"),
        Issuer:         envStr("JWT_ISSUER", DefaultIssuer),
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:     mustInt("BCRYPT_COST"),
        SuapBaseURL:    envStr("SUAP_BASE_URL", "https://suap.ifsuldeminas.edu.br"),
        BackupTTL:      envDur("SUAP_BACKUP_TTL", 2*time.Hour),
        LogServiceURL:  envStr("LOG_SERVICE_URL", "http://localhost:8003"),
        AuthSource:     envStr("AUTH_SOURCE", "cookie"),
        AckPolicy:      envStr("CONSUMER_ACK_POLICY", "on_success"),
    }
}

// IsDebug reports whether debug-only endpoints (mock login, test cleanup)
// may be registered.  They must never be reachable in production.
func (c Config) IsDebug() bool {
    return c.Env != "prod" && c.Env != "production"
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
