// Package bootstrap wires the database, the optional redis layer and the
// optional translator into an ApplicationService. Both binaries share it.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"commandx/internal/ai"
	"commandx/internal/app"
	"commandx/internal/cache"
	"commandx/internal/config"
	"commandx/internal/core"
	"commandx/internal/db"
	"commandx/internal/logger"
)

// Runtime is an opened application. Close releases the pool and redis.
type Runtime struct {
	Service app.ApplicationService
	Pool    *pgxpool.Pool
	cache   *cache.Client
}

// Open migrates (when configured), connects and builds the service graph.
func Open(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	log := logger.WithComponent("bootstrap")

	if cfg.MigrateOnStartup {
		st, err := db.RunMigrations(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info().Uint("version", st.Version).Bool("changed", st.Changed).Msg("schema ready")
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolConfig{
		MaxConns:        cfg.DBMaxConns,
		MaxConnLifetime: cfg.DBMaxConnLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	var rc *cache.Client
	if cfg.RedisAddr != "" {
		rc, err = cache.Connect(ctx, cache.Options{
			Addr:            cfg.RedisAddr,
			Password:        cfg.RedisPassword,
			DB:              cfg.RedisDB,
			ConnectAttempts: cfg.RedisConnectAttempts,
		})
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
	} else {
		log.Info().Msg("REDIS_ADDRESS not set, settings cache and numbering locks disabled")
	}

	numbers := core.NewNumberGenerator(locker(rc))
	services := app.NewServices(pool, settingsCache(rc), numbers)

	var translator *ai.Translator
	if cfg.OpenAIAPIKey != "" {
		translator = ai.NewTranslator(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	} else {
		log.Warn().Msg("OPENAI_API_KEY is not set, translation disabled")
	}

	svc := app.NewAppService(pool, services, numbers, translator, app.Options{
		DefaultCompanyCode: cfg.DefaultCompanyCode,
		PhoneRegion:        cfg.PhoneRegion,
	})
	return &Runtime{Service: svc, Pool: pool, cache: rc}, nil
}

// Close releases every connection the runtime holds.
func (r *Runtime) Close() {
	if err := r.cache.Close(); err != nil {
		log := logger.WithComponent("bootstrap")
		log.Warn().Err(err).Msg("close redis")
	}
	r.Pool.Close()
}

// Typed nils become nil interfaces so core skips the calls.
func settingsCache(rc *cache.Client) core.SettingsCache {
	if rc == nil {
		return nil
	}
	return rc
}

func locker(rc *cache.Client) core.NumberLocker {
	if rc == nil {
		return nil
	}
	return rc
}
