package config

import (
    "os"
    "path/filepath"
    "time"
)

// ClientConfig is read by the rentctl command line client.
type ClientConfig struct {
    APIURL   string        // RENTAL_API_URL
    Token    string        // RENTAL_TOKEN: bearer access token
    StateDir string        // RENTAL_STATE_DIR: badger directory holding the draft
    Timeout  time.Duration // RENTAL_TIMEOUT: per request
    Env      string        // APP_ENV, selects the log encoder
}

// LoadClientConfig never fails; every value has a default.  The state
// directory defaults to ~/.rentctl.
func LoadClientConfig() ClientConfig {
    stateDir := os.Getenv("RENTAL_STATE_DIR")
    if stateDir == "" {
        home, err := os.UserHomeDir()
        if err != nil {
            home = "."
        }
        stateDir = filepath.Join(home, ".rentctl")
    }
    return ClientConfig{
        APIURL:   envStr("RENTAL_API_URL", "http://localhost:8080"),
        Token:    os.Getenv("RENTAL_TOKEN"),
        StateDir: stateDir,
        Timeout:  envDur("RENTAL_TIMEOUT", 10*time.Second),
        Env:      envStr("APP_ENV", "prod"),
    }
}
