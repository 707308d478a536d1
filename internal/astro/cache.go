package astro

import (
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"
)

// SunsetCache provides persistent storage for computed sunset times, so
// restarts within the same day skip the recomputation.
type SunsetCache struct {
	db *sql.DB
}

// NewSunsetCache creates a new sunset cache backed by SQLite.
func NewSunsetCache(db *sql.DB) *SunsetCache {
	return &SunsetCache{db: db}
}

// Get retrieves a cached sunset time by cache key.
func (c *SunsetCache) Get(key string) (time.Time, bool) {
	var unix int64
	err := c.db.QueryRow(`
		SELECT sunset_unix
		FROM sunset_cache
		WHERE cache_key = ?
	`, key).Scan(&unix)

	if err == sql.ErrNoRows {
		return time.Time{}, false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to read sunset cache")
		return time.Time{}, false
	}

	log.Debug().Str("key", key).Msg("Sunset cache hit")
	return time.Unix(unix, 0), true
}

// Put stores a computed sunset time.
func (c *SunsetCache) Put(key string, sunset time.Time) error {
	now := time.Now().Unix()
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO sunset_cache (cache_key, sunset_unix, created_at)
		VALUES (?, ?, ?)
	`, key, sunset.Unix(), now)

	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to write sunset cache")
		return err
	}

	log.Debug().Str("key", key).Time("sunset", sunset).Msg("Sunset cache stored")
	return nil
}
