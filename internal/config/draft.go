package config

import "time"

// DraftConfig controls the drafts the server keeps in Redis for clients
// without local storage.
type DraftConfig struct {
    TTL       time.Duration // DRAFT_TTL: idle lifetime of a hosted draft
    KeyPrefix string        // DRAFT_KEY_PREFIX
    // RedisDB moves hosted drafts to their own Redis database so cache
    // purges and evictions there never touch them.  Negative shares the
    // main database.
    RedisDB int // DRAFT_REDIS_DB
}

func LoadDraftConfig() DraftConfig {
    return DraftConfig{
        TTL:       envDur("DRAFT_TTL", 72*time.Hour),
        KeyPrefix: envStr("DRAFT_KEY_PREFIX", "rental"),
        RedisDB:   envInt("DRAFT_REDIS_DB", -1),
    }
}

// SeparateDB reports whether drafts need a client of their own next to
// one opened on mainDB.
func (c DraftConfig) SeparateDB(mainDB int) bool {
    return c.RedisDB >= 0 && c.RedisDB != mainDB
}
