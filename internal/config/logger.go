package config

import (
    "strings"

    "go.uber.org/zap"
)

// NewLogger builds the process logger: a console development logger for
// dev and test, JSON production logging otherwise.
func NewLogger(env string) *zap.Logger {
    var (
        logger *zap.Logger
        err    error
    )
    switch strings.ToLower(env) {
    case "dev", "development", "test", "local":
        logger, err = zap.NewDevelopment()
    default:
        logger, err = zap.NewProduction()
    }
    if err != nil {
        return zap.NewNop()
    }
    return logger
}
