// Package cache holds the optional redis layer: a read-through cache for
// company settings and the cross-process lock used by document numbering.
// A nil *Client is valid: every lookup misses and every lock is a no-op.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"commandx/internal/core"
	"commandx/internal/logger"
)

// Options configures the redis connection.
type Options struct {
	Addr        string
	Password    string
	DB          int
	PoolSize    int
	SettingsTTL time.Duration
	LockTTL     time.Duration
	// ConnectAttempts bounds the startup ping loop. Zero means one attempt.
	ConnectAttempts int
}

// Client wraps a redis client and its lock client.
type Client struct {
	rdb         *redis.Client
	locker      *redislock.Client
	settingsTTL time.Duration
	lockTTL     time.Duration
	log         zerolog.Logger
}

// Connect dials redis and pings it, backing off between attempts.
func Connect(ctx context.Context, opts Options) (*Client, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = 20
	}
	if opts.SettingsTTL == 0 {
		opts.SettingsTTL = 10 * time.Minute
	}
	if opts.LockTTL == 0 {
		opts.LockTTL = 30 * time.Second
	}
	attempts := opts.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}

	log := logger.WithComponent("cache")
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: opts.PoolSize,
	})

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = rdb.Ping(ctx).Err(); err == nil {
			log.Info().Str("addr", opts.Addr).Int("attempt", attempt).Msg("connected to redis")
			return &Client{
				rdb:         rdb,
				locker:      redislock.New(rdb),
				settingsTTL: opts.SettingsTTL,
				lockTTL:     opts.LockTTL,
				log:         log,
			}, nil
		}
		if attempt == attempts {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		log.Warn().Err(err).Str("addr", opts.Addr).Int("attempt", attempt).Dur("retry_in", sleep).Msg("redis ping failed")
		select {
		case <-ctx.Done():
			_ = rdb.Close()
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
	_ = rdb.Close()
	return nil, fmt.Errorf("connect redis at %s: %w", opts.Addr, err)
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

func settingsKey(companyID int) string {
	return fmt.Sprintf("company:%d:settings", companyID)
}

// GetSettings implements core.SettingsCache.
func (c *Client) GetSettings(ctx context.Context, companyID int) (*core.CompanySettings, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	val, err := c.rdb.Get(ctx, settingsKey(companyID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		c.log.Warn().Err(err).Int("company_id", companyID).Msg("settings cache read failed")
		return nil, false, err
	}
	cs := &core.CompanySettings{}
	if err := json.Unmarshal(val, cs); err != nil {
		return nil, false, fmt.Errorf("decode cached settings: %w", err)
	}
	return cs, true, nil
}

// SetSettings implements core.SettingsCache.
func (c *Client) SetSettings(ctx context.Context, settings *core.CompanySettings) error {
	if c == nil || settings == nil {
		return nil
	}
	b, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return c.rdb.Set(ctx, settingsKey(settings.CompanyID), b, c.settingsTTL).Err()
}

// InvalidateSettings implements core.SettingsCache.
func (c *Client) InvalidateSettings(ctx context.Context, companyID int) error {
	if c == nil {
		return nil
	}
	return c.rdb.Del(ctx, settingsKey(companyID)).Err()
}

// Obtain implements core.NumberLocker. It waits up to about five seconds for
// a busy key before giving up with redislock.ErrNotObtained.
func (c *Client) Obtain(ctx context.Context, key string) (func(), error) {
	if c == nil {
		return func() {}, nil
	}
	lock, err := c.locker.Obtain(ctx, "lock:"+key, c.lockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			c.log.Warn().Str("key", key).Msg("could not obtain lock")
		}
		return func() {}, err
	}
	return func() {
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			c.log.Warn().Err(err).Str("key", key).Msg("release lock")
		}
	}, nil
}

var (
	_ core.SettingsCache = (*Client)(nil)
	_ core.NumberLocker  = (*Client)(nil)
)
