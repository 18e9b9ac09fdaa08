// Package config loads the rental service and client settings from
// environment variables.
package config

import (
    "log"
    "os"
    "strconv"
)

// Config holds the server settings.  Each field corresponds to an
// environment variable.
type Config struct {
    Env            string // APP_ENV: dev, test or prod
    Port           string // APP_PORT
    DBUser         string // DB_USER
    DBPass         string // DB_PASS, may be empty
    DBHost         string // DB_HOST
    DBPort         string // DB_PORT
    DBName         string // DB_NAME
    JWTSecret      string // JWT_SECRET
    AccessTTLMin   int    // ACCESS_TOKEN_TTL_MIN
    RefreshTTLDays int    // REFRESH_TOKEN_TTL_DAYS
    BcryptCost     int    // BCRYPT_COST
    AutoMigrate    bool   // DB_AUTO_MIGRATE: apply the embedded schema on start
    AdminInvite    string // ADMIN_INVITE_CODE: lets a registration claim the ADMIN role; empty disables
}

// Load reads the server configuration.  Missing required variables stop
// the process with a fatal log line.
func Load() Config {
    return Config{
        Env:            must("APP_ENV"),
        Port:           must("APP_PORT"),
        DBUser:         must("DB_USER"),
        DBPass:         os.Getenv("DB_PASS"),
        DBHost:         must("DB_HOST"),
        DBPort:         must("DB_PORT"),
        DBName:         must("DB_NAME"),
        JWTSecret:      must("JWT_SECRET"),
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:     mustInt("BCRYPT_COST"),
        AutoMigrate:    envBool("DB_AUTO_MIGRATE", true),
        AdminInvite:    os.Getenv("ADMIN_INVITE_CODE"),
    }
}

// must returns a required environment variable or exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is must() for integer values.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
