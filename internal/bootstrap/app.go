package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"kanban-auth/internal/cache"
	"kanban-auth/internal/config"
	"kanban-auth/internal/logging"
	"kanban-auth/internal/platform/database"
	rabbitmqClient "kanban-auth/internal/platform/rabbitmq"
	redisClient "kanban-auth/internal/platform/redis"
	"kanban-auth/internal/worker"
)

// App holds the process-wide resources. It is built once at startup and
// passed to the router; nothing else keeps global state.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *gorm.DB

	// Optional; nil when disabled in config.
	Redis       *redis.Client
	BoardCache  *cache.BoardCache
	MQConn      *amqp.Connection
	Publisher   *rabbitmqClient.EventPublisher
	EventWorker *worker.AccountEventWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return NewWithConfig(ctx, cfg, logging.New(cfg.Log))
}

func NewWithConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config:    cfg,
		Logger:    logger,
		StartedAt: time.Now(),
	}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	app.DB = db
	if err := database.Migrate(db); err != nil {
		_ = app.Close()
		return nil, err
	}

	if cfg.Redis.Enabled {
		redisCli, err := redisClient.New(ctx, cfg.Redis)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.Redis = redisCli
		app.BoardCache = cache.NewBoardCache(redisCli, cfg.BoardCacheTTL())
	}

	if cfg.RabbitMQ.Enabled {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.AccountEventQueue)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.MQConn = mqConn
		app.Publisher = rabbitmqClient.NewEventPublisher(mqConn, cfg.RabbitMQ.AccountEventQueue)

		var evicter worker.BoardCacheEvicter
		if app.BoardCache != nil {
			evicter = app.BoardCache
		}
		app.EventWorker = worker.NewAccountEventWorker(mqConn, evicter, cfg.RabbitMQ.AccountEventQueue, logger)
		if err := app.EventWorker.Start(ctx); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("start account event worker failed: %w", err)
		}
	}

	logger.Info("application ready",
		"db_driver", cfg.Database.Driver,
		"redis", app.Redis != nil,
		"rabbitmq", app.MQConn != nil,
	)
	return app, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.EventWorker != nil {
		a.EventWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
