// Package cache keeps computed availability answers in Redis so repeated
// lookups for a busy date skip the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/slot-booking/internal/config"
	"github.com/iliyamo/slot-booking/internal/model"
)

// versionTTL keeps a date's version counter alive well past any entry so a
// reader that sampled it mid-request still sees the same value.
const versionTTL = 24 * time.Hour

// storeIfVersion writes the entry only while the date's version counter
// still holds the value the reader sampled before querying the store.
var storeIfVersion = redis.NewScript(`
	local current = redis.call('GET', KEYS[1])
	if not current then current = '0' end
	if current ~= ARGV[1] then
		return 0
	end
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
	return 1
`)

// Availability stores per-date availability lists.  A nil receiver, a nil
// client or a disabled config turns every method into a no-op miss.
//
// Each date has a version counter bumped by Invalidate.  Readers take the
// version before reading the store and pass it to Set, so a list computed
// before a concurrent change is never written after that change.
type Availability struct {
	rdb *redis.Client
	cfg config.CacheConfig
}

// NewAvailability returns nil when caching cannot be used.
func NewAvailability(cfg config.CacheConfig, rdb *redis.Client) *Availability {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	return &Availability{rdb: rdb, cfg: cfg}
}

func (a *Availability) key(date string) string        { return a.cfg.Prefix + ":" + date }
func (a *Availability) versionKey(date string) string { return a.cfg.Prefix + ":ver:" + date }

// Get returns the cached list for date and whether it was present.  Redis
// errors are reported as misses.
func (a *Availability) Get(ctx context.Context, date string) ([]model.SlotAvailability, bool) {
	if a == nil {
		return nil, false
	}
	bs, err := a.rdb.Get(ctx, a.key(date)).Bytes()
	if err != nil {
		return nil, false
	}
	var out []model.SlotAvailability
	if err := json.Unmarshal(bs, &out); err != nil {
		return nil, false
	}
	return out, true
}

// Version returns the current version of date; a missing counter is 0.
func (a *Availability) Version(ctx context.Context, date string) (int64, error) {
	if a == nil {
		return 0, nil
	}
	v, err := a.rdb.Get(ctx, a.versionKey(date)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Set stores list for date with the configured TTL if the version is still
// version.  It reports whether the entry was written.
func (a *Availability) Set(ctx context.Context, date string, version int64, list []model.SlotAvailability) (bool, error) {
	if a == nil {
		return false, nil
	}
	bs, err := json.Marshal(list)
	if err != nil {
		return false, err
	}
	ttl := a.cfg.TTL
	if ttl <= 0 {
		ttl = time.Second
	}
	n, err := storeIfVersion.Run(ctx, a.rdb,
		[]string{a.versionKey(date), a.key(date)},
		strconv.FormatInt(version, 10), bs, ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Invalidate bumps the version of date and drops its entry.
func (a *Availability) Invalidate(ctx context.Context, date string) error {
	if a == nil {
		return nil
	}
	_, err := a.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, a.versionKey(date))
		p.Expire(ctx, a.versionKey(date), versionTTL)
		p.Del(ctx, a.key(date))
		return nil
	})
	return err
}
