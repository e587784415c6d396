package container

import (
	"context"
	"fmt"

	"mercadona/snapshot/internal/client"
	"mercadona/snapshot/internal/config"
	"mercadona/snapshot/internal/publish"
	"mercadona/snapshot/internal/repository"
	"mercadona/snapshot/internal/service"
	"mercadona/snapshot/internal/snapshot"
	"mercadona/snapshot/internal/state"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config  *config.Config
	Client  client.CatalogClient
	Writer  *snapshot.Writer
	Service *service.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized. The Redis
// checkpoint and the Postgres mirror are only dialed when enabled.
func New(cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	catalogClient := client.New(cfg.API)
	container.Client = catalogClient

	writer := snapshot.NewWriter(cfg.Snapshot.OutDir, cfg.Snapshot.SkipUnchanged)
	container.Writer = writer

	var repo repository.CatalogRepository
	if cfg.Database.Enabled {
		db, err := pgxpool.New(context.Background(),
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
		repo = repository.NewCatalogRepository(db)
		log.Info("✅ Postgres mirror enabled")
	}

	var runState state.RunState
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		container.redis = rdb
		runState = state.NewRedisRunState(rdb, cfg.Redis.KeyPrefix)
		log.Info("✅ Redis run checkpoint enabled")
	}

	var publisher publish.Publisher
	if cfg.Publish.Enabled {
		publisher = publish.NewKagglePublisher(cfg.Publish.Dataset, cfg.Publish.Message)
	}

	container.Service = service.NewService(
		catalogClient,
		writer,
		repo,
		runState,
		publisher,
		cfg,
	)

	return container, nil
}

// Run executes the snapshot pipeline.
func (c *Container) Run(ctx context.Context) error {
	return c.Service.Run(ctx)
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		c.redis.Close()
	}

	log.Info("Container shut down successfully")
	return nil
}
