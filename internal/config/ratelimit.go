package config

import "time"

// RateLimitConfig tunes the Redis token bucket applied to public routes.
// Capacity is the bucket size; RefillTokens are added every RefillInterval.
type RateLimitConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Capacity       int           `yaml:"capacity"`
	RefillTokens   int           `yaml:"refill_tokens"`
	RefillInterval time.Duration `yaml:"refill_interval"`
	TTL            time.Duration `yaml:"ttl"`
	KeyStrategy    string        `yaml:"key_strategy"` // ip, route or ip_route
	Prefix         string        `yaml:"prefix"`
}

func defaultRateLimit() RateLimitConfig {
	return RateLimitConfig{
		Enabled:        true,
		Capacity:       30,
		RefillTokens:   1,
		RefillInterval: 2 * time.Second,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}
}

func applyRateLimitEnv(r *RateLimitConfig) {
	r.Enabled = envBool("RATE_LIMIT_ENABLED", r.Enabled)
	r.Capacity = envInt("RATE_LIMIT_CAPACITY", r.Capacity)
	r.RefillTokens = envInt("RATE_LIMIT_REFILL_TOKENS", r.RefillTokens)
	r.RefillInterval = envDur("RATE_LIMIT_REFILL_INTERVAL", r.RefillInterval)
	r.TTL = envDur("RATE_LIMIT_TTL", r.TTL)
	r.KeyStrategy = envStr("RATE_LIMIT_KEY_STRATEGY", r.KeyStrategy)
	r.Prefix = envStr("RATE_LIMIT_PREFIX", r.Prefix)
	r.Normalize()
}

// Normalize clamps values to the ranges the limiter script assumes.
func (r *RateLimitConfig) Normalize() {
	if r.Capacity < 1 {
		r.Capacity = 1
	}
	if r.RefillTokens < 1 {
		r.RefillTokens = 1
	}
	if r.RefillInterval <= 0 {
		r.RefillInterval = time.Second
	}
	if minTTL := 5 * r.RefillInterval; r.TTL < minTTL {
		r.TTL = minTTL
	}
}
