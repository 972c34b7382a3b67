// Package bootstrap connects the runtime dependencies selected by config.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/media"
	"murmur/internal/middleware"
	"murmur/internal/observability"
	"murmur/internal/redisclient"
	"murmur/internal/repository"
	"murmur/internal/server"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ServiceName identifies the API in traces and metrics.
const ServiceName = "murmur-api"

// Options control runtime initialization behavior.
type Options struct {
	// RequireRedis fails startup when Redis is unreachable instead of
	// continuing without it.
	RequireRedis bool
	// Tracing installs the OpenTelemetry provider described by config.
	Tracing bool
}

// Runtime owns the connections opened for one process.
type Runtime struct {
	DB       *gorm.DB
	Mongo    *mongo.Client
	MongoDB  *mongo.Database
	Redis    *redis.Client
	Uploader media.Uploader
	Repos    repository.Set
	MediaDir string

	shutdownTracing func(context.Context) error
}

// InitRuntime connects the database, Redis and media store. Redis is
// optional unless opts.RequireRedis is set.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	rt := &Runtime{shutdownTracing: func(context.Context) error { return nil }}

	if opts.Tracing {
		shutdown, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:    ServiceName,
			ServiceVersion: "1.0.0",
			Environment:    cfg.Env,
			Enabled:        cfg.TracingEnabled,
			OTLPEndpoint:   cfg.OTLPEndpoint,
			SamplerRatio:   cfg.TracingSampleRatio,
		})
		if err != nil {
			return nil, fmt.Errorf("tracing init failed: %w", err)
		}
		rt.shutdownTracing = shutdown
	}

	if err := rt.connectStore(ctx, cfg); err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}

	if cfg.RedisURL != "" {
		rdb, err := redisclient.New(ctx, cfg.RedisURL)
		switch {
		case err == nil:
			rt.Redis = rdb
		case opts.RequireRedis:
			_ = rt.Close(ctx)
			return nil, fmt.Errorf("redis connection failed: %w", err)
		default:
			middleware.Logger.Warn("Redis unavailable, continuing without it", slog.String("error", err.Error()))
		}
	}

	uploader, err := newUploader(cfg)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	rt.Uploader = uploader
	if cfg.MediaDriver == config.MediaDisk {
		rt.MediaDir = cfg.MediaDir
	}

	return rt, nil
}

func (rt *Runtime) connectStore(ctx context.Context, cfg *config.Config) error {
	if cfg.DBDriver == config.DriverMongo {
		client, db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		rt.Mongo, rt.MongoDB = client, db
		rt.Repos = repository.NewMongoSet(db)
		return nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	rt.DB = db
	rt.Repos = repository.NewGormSet(db)
	return nil
}

func newUploader(cfg *config.Config) (media.Uploader, error) {
	switch cfg.MediaDriver {
	case config.MediaCloudinary:
		u, err := media.NewCloudinaryUploader(cfg)
		if err != nil {
			return nil, fmt.Errorf("cloudinary init failed: %w", err)
		}
		return u, nil
	default:
		return media.NewDiskUploader(cfg.MediaDir, cfg.MediaBaseURL, cfg.MediaMaxSizeMB), nil
	}
}

// Deps exposes the runtime as server dependencies.
func (rt *Runtime) Deps() server.Deps {
	return server.Deps{
		Repos:    rt.Repos,
		DB:       rt.DB,
		Mongo:    rt.Mongo,
		Redis:    rt.Redis,
		Uploader: rt.Uploader,
		MediaDir: rt.MediaDir,
	}
}

// Close releases every connection the runtime opened. It is safe to call
// on a partially initialized runtime.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
		rt.Redis = nil
	}
	if rt.DB != nil {
		if err := database.Close(rt.DB); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
		rt.DB = nil
	}
	if rt.Mongo != nil {
		if err := rt.Mongo.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mongo disconnect: %w", err))
		}
		rt.Mongo = nil
	}
	if rt.shutdownTracing != nil {
		if err := rt.shutdownTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
		}
		rt.shutdownTracing = nil
	}
	return errors.Join(errs...)
}
