package config

import "time"

// CacheConfig controls the Redis availability cache.  Entries are keyed by
// date under Prefix and dropped whenever a booking for that date changes;
// TTL bounds how long a missed invalidation can linger.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
	Prefix  string        `yaml:"prefix"`
}

func defaultCache() CacheConfig {
	return CacheConfig{Enabled: true, TTL: 30 * time.Second, Prefix: "avail"}
}

func applyCacheEnv(c *CacheConfig) {
	c.Enabled = envBool("CACHE_ENABLED", c.Enabled)
	c.TTL = envDur("CACHE_TTL", c.TTL)
	c.Prefix = envStr("CACHE_PREFIX", c.Prefix)
	if c.TTL <= 0 {
		c.TTL = time.Second
	}
}
