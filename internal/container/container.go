package container

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"catalog/sync/internal/catalog"
	"catalog/sync/internal/client"
	"catalog/sync/internal/config"
	"catalog/sync/internal/output"
	"catalog/sync/internal/queue"
	"catalog/sync/internal/repository"
	"catalog/sync/internal/service"
	"catalog/sync/internal/state"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config *config.Config

	Service *service.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	deps := service.Dependencies{
		Loader: client.NewSheetLoader(newSource(cfg.Source), client.SheetPaths{
			Categories: cfg.Source.CategoriesPath,
			Products:   cfg.Source.ProductsPath,
			URLs:       cfg.Source.URLsPath,
		}),
		Pipeline: catalog.NewPipeline(catalog.Options{
			BaseURL:       cfg.Catalog.BaseURL,
			PriceBrackets: cfg.Catalog.PriceBrackets,
		}),
		Writer: output.NewFileWriter(cfg.Output),
	}

	if cfg.Database.Enabled {
		db, err := pgxpool.New(ctx,
			fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
				cfg.Database.Host,
				cfg.Database.Port,
				cfg.Database.User,
				cfg.Database.Password,
				cfg.Database.Name,
			))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		container.db = db

		snapshots := repository.NewSnapshotRepository(db)
		if err := snapshots.EnsureSchema(ctx); err != nil {
			container.Close()
			return nil, err
		}
		deps.Repository = snapshots
		log.Info("✅ Connected to Postgres successfully")
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})
		container.redis = rdb

		// Test connection
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")

		deps.StateManager = state.NewRedisStateManager(rdb)
		deps.Lock = state.NewRedisRunLock(rdb)

		if cfg.Sync.Publish {
			redisQueue, err := queue.NewRedisQueue(ctx, rdb, cfg.Redis)
			if err != nil {
				container.Close()
				return nil, err
			}
			deps.Queue = redisQueue
		}
	}

	if cfg.Sync.Publish {
		deps.Publisher = client.NewKnowledgePublisher(cfg.Knowledge)
	}

	container.Service = service.NewService(deps, service.Options{
		LockTTL:         time.Duration(cfg.Sync.LockTTL) * time.Second,
		Publish:         cfg.Sync.Publish && cfg.Sync.Interval > 0,
		ProductsPath:    filepath.Join(cfg.Output.Dir, cfg.Output.ProductsJSON),
		PublishFileName: cfg.Knowledge.FileName,
		ExtraFiles:      cfg.Knowledge.ExtraFiles,
		MinIdleTime:     time.Duration(cfg.Redis.MinIdleTime) * time.Second,
		MaxRetries:      cfg.Sync.PublishRetries,
		RetryDelay:      time.Duration(cfg.Sync.PublishRetryDelay) * time.Second,
	})

	return container, nil
}

func newSource(cfg config.SourceConfig) client.SheetSource {
	if cfg.Kind == "local" {
		return client.NewLocalSource(cfg.LocalDir)
	}
	return client.NewDropboxSource(cfg.Dropbox)
}

// Run syncs once when no interval is configured, otherwise keeps syncing
// on schedule alongside the publish workers until ctx is done.
func (c *Container) Run(ctx context.Context) error {
	if c.Config.Sync.Interval <= 0 {
		if _, err := c.Service.Sync(ctx); err != nil {
			return err
		}
		if c.Config.Sync.Publish {
			return c.Service.PublishLatest(ctx)
		}
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.Service.Schedule(ctx, time.Duration(c.Config.Sync.Interval)*time.Minute)
	})

	if c.Config.Sync.Publish {
		g.Go(func() error {
			return c.Service.RunWorkers(ctx, c.Config.Sync.PublishWorkers)
		})
	}

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	log.Info("Container shut down successfully")
	return nil
}
