// Package app wires configuration, storage, transports, and services into
// a ready-to-use dependency container.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	canvasapp "github.com/tasklens/tasklens/internal/canvas/application"
	canvasdomain "github.com/tasklens/tasklens/internal/canvas/domain"
	canvaspersistence "github.com/tasklens/tasklens/internal/canvas/infrastructure/persistence"
	"github.com/tasklens/tasklens/internal/canvas/infrastructure/markdown"
	"github.com/tasklens/tasklens/internal/canvas/infrastructure/slackcanvas"
	extractionservices "github.com/tasklens/tasklens/internal/extraction/services"
	"github.com/tasklens/tasklens/internal/extraction/infrastructure/openaioracle"
	ingestdomain "github.com/tasklens/tasklens/internal/ingest/domain"
	"github.com/tasklens/tasklens/internal/ingest/infrastructure/slackapi"
	"github.com/tasklens/tasklens/internal/locks"
	"github.com/tasklens/tasklens/internal/scan"
	sharedapp "github.com/tasklens/tasklens/internal/shared/application"
	"github.com/tasklens/tasklens/internal/shared/infrastructure/database"
	"github.com/tasklens/tasklens/internal/shared/infrastructure/database/postgres"
	"github.com/tasklens/tasklens/internal/shared/infrastructure/database/sqlite"
	"github.com/tasklens/tasklens/internal/shared/infrastructure/eventbus"
	"github.com/tasklens/tasklens/internal/shared/infrastructure/migrations"
	sharedpersistence "github.com/tasklens/tasklens/internal/shared/infrastructure/persistence"
	"github.com/tasklens/tasklens/internal/todos/application/commands"
	"github.com/tasklens/tasklens/internal/todos/application/queries"
	todoservices "github.com/tasklens/tasklens/internal/todos/application/services"
	"github.com/tasklens/tasklens/internal/todos/domain/todo"
	todopersistence "github.com/tasklens/tasklens/internal/todos/infrastructure/persistence"
	"github.com/tasklens/tasklens/pkg/config"
)

// Container holds every wired dependency.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	Connection database.Connection
	Locker     locks.ScopeLocker
	Publisher  eventbus.Publisher
	Bus        *eventbus.InProcessEventBus

	TodoRepo    todo.Repository
	StateRepo   canvasdomain.StateRepository
	UnitOfWork  sharedapp.UnitOfWork
	MergeEngine *todoservices.MergeEngine

	SlackClient *slackapi.Client
	Source      ingestdomain.MessageSource
	Directory   ingestdomain.SourceDirectory
	Resolver    ingestdomain.IdentityResolver
	Classifier  *extractionservices.Classifier

	ExtractAndMerge *commands.ExtractAndMergeHandler
	AddTodo         *commands.AddTodoHandler
	CompleteTodo    *commands.CompleteTodoHandler
	SetPriority     *commands.SetPriorityHandler
	DeleteTodo      *commands.DeleteTodoHandler
	ListTodos       *queries.ListTodosHandler
	GetTodo         *queries.GetTodoHandler

	Renderer     *canvasapp.Renderer
	Synchronizer *canvasapp.Synchronizer
	AutoSync     *canvasapp.AutoSyncConsumer
	Scanner      *scan.Engine

	redisClient *redis.Client
}

// NewContainer wires the application from configuration. Storage backend,
// lock backend, and event transport are all chosen from what the config
// provides: SQLite/keyed-locks/in-process by default, Postgres/Redis/
// RabbitMQ when their URLs are set.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Container{Config: cfg, Logger: logger}

	if err := c.initStorage(ctx, cfg); err != nil {
		return nil, err
	}
	if err := c.initLocks(cfg); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initEventBus(cfg); err != nil {
		c.Close()
		return nil, err
	}
	c.initSlack(cfg)
	c.initExtraction(cfg)
	c.initHandlers(cfg)
	c.initCanvas(cfg)
	c.initScan(cfg)

	if cfg.AutoSync {
		c.Bus.RegisterConsumer(c.AutoSync)
	}

	return c, nil
}

func (c *Container) initStorage(ctx context.Context, cfg *config.Config) error {
	dbCfg := database.Config{URL: cfg.DatabaseURL, SQLitePath: cfg.SQLitePath}
	if cfg.DatabaseURL == "" {
		dbCfg.Driver = database.DriverSQLite
		if dbCfg.SQLitePath == "" {
			dbCfg.SQLitePath = database.DefaultSQLitePath()
		}
	}

	conn, err := database.NewConnection(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.Connection = conn

	switch conn.Driver() {
	case database.DriverSQLite:
		sqliteConn, ok := conn.(*sqlite.Connection)
		if !ok {
			return fmt.Errorf("unexpected sqlite connection type %T", conn)
		}
		db := sqliteConn.DB()
		if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		c.TodoRepo = todopersistence.NewSQLiteTodoRepository(db)
		c.UnitOfWork = sharedpersistence.NewSQLiteUnitOfWork(db)
		c.StateRepo = canvaspersistence.NewSQLiteStateRepository(db)
	case database.DriverPostgres:
		pgConn, ok := conn.(*postgres.Connection)
		if !ok {
			return fmt.Errorf("unexpected postgres connection type %T", conn)
		}
		pool := pgConn.Pool()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		c.TodoRepo = todopersistence.NewPostgresTodoRepository(pool)
		c.UnitOfWork = sharedpersistence.NewPostgresUnitOfWork(pool)
		c.StateRepo = canvaspersistence.NewPostgresStateRepository(pool)
	default:
		return fmt.Errorf("unsupported database driver: %s", conn.Driver())
	}

	return nil
}

func (c *Container) initLocks(cfg *config.Config) error {
	if cfg.RedisURL == "" {
		c.Locker = locks.NewKeyed()
		return nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid redis url: %w", err)
	}
	c.redisClient = redis.NewClient(opts)
	c.Locker = locks.NewRedisLocker(c.redisClient)
	return nil
}

func (c *Container) initEventBus(cfg *config.Config) error {
	c.Bus = eventbus.NewInProcessEventBus(c.Logger)

	if cfg.RabbitMQURL == "" {
		c.Publisher = c.Bus
		return nil
	}

	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	c.Publisher = publisher
	return nil
}

func (c *Container) initSlack(cfg *config.Config) {
	c.SlackClient = slackapi.NewClient(slackapi.ClientConfig{
		Token:   cfg.SlackToken,
		BaseURL: cfg.SlackBaseURL,
		Timeout: cfg.CanvasTimeout,
		Logger:  c.Logger,
	})
	c.Source = slackapi.NewMessageSource(c.SlackClient)
	c.Directory = slackapi.NewSourceDirectory(c.SlackClient)
	c.Resolver = slackapi.NewIdentityResolver(c.SlackClient)
}

func (c *Container) initExtraction(cfg *config.Config) {
	oracle := openaioracle.New(openaioracle.Config{
		APIKey:  cfg.OracleAPIKey,
		BaseURL: cfg.OracleBaseURL,
		Model:   cfg.OracleModel,
		Logger:  c.Logger,
	})
	c.Classifier = extractionservices.NewClassifier(oracle, c.Resolver, extractionservices.ClassifierConfig{
		ChannelThreshold: cfg.ChannelConfidenceThreshold,
		DMThreshold:      cfg.DMConfidenceThreshold,
		Timeout:          cfg.OracleTimeout,
	}, c.Logger)
}

func (c *Container) initHandlers(cfg *config.Config) {
	c.MergeEngine = todoservices.NewMergeEngine(todoservices.MergeConfig{
		SimilarityThreshold: cfg.SimilarityThreshold,
		MinTitleTokens:      todoservices.DefaultMergeConfig().MinTitleTokens,
	})

	c.ExtractAndMerge = commands.NewExtractAndMergeHandler(c.TodoRepo, c.UnitOfWork, c.MergeEngine, c.Locker, c.Publisher, c.Logger)
	c.AddTodo = commands.NewAddTodoHandler(c.TodoRepo, c.UnitOfWork, c.Publisher, c.Logger)
	c.CompleteTodo = commands.NewCompleteTodoHandler(c.TodoRepo, c.UnitOfWork, c.Publisher, c.Logger)
	c.SetPriority = commands.NewSetPriorityHandler(c.TodoRepo, c.UnitOfWork, c.Publisher, c.Logger)
	c.DeleteTodo = commands.NewDeleteTodoHandler(c.TodoRepo, c.UnitOfWork, c.Publisher, c.Logger)
	c.ListTodos = queries.NewListTodosHandler(c.TodoRepo)
	c.GetTodo = queries.NewGetTodoHandler(c.TodoRepo)
}

func (c *Container) initCanvas(cfg *config.Config) {
	c.Renderer = canvasapp.NewRenderer(canvasapp.RendererConfig{CompletedWindow: cfg.CompletedWindow})

	store := slackcanvas.NewStore(slackcanvas.Config{
		Token:   cfg.SlackToken,
		BaseURL: cfg.SlackBaseURL,
		Timeout: cfg.CanvasTimeout,
		Logger:  c.Logger,
	})

	c.Synchronizer = canvasapp.NewSynchronizer(store, c.StateRepo, markdown.NewRenderer(), c.Locker, c.Logger)
	c.AutoSync = canvasapp.NewAutoSyncConsumer(c.TodoRepo, c.Renderer, c.Synchronizer, c.Logger)
}

func (c *Container) initScan(cfg *config.Config) {
	c.Scanner = scan.NewEngine(c.Source, c.Directory, c.Classifier, c.ExtractAndMerge, scan.Config{
		Workers:           cfg.ScanWorkers,
		ChannelBatchLimit: cfg.ChannelBatchLimit,
		DMBatchLimit:      cfg.DMBatchLimit,
		Lookback:          cfg.LookbackWindow,
	}, c.Logger)
}

// Close releases every owned resource. Safe to call on a partially wired
// container.
func (c *Container) Close() error {
	var firstErr error
	if c.Publisher != nil && c.Publisher != eventbus.Publisher(c.Bus) {
		if err := c.Publisher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.Connection != nil {
		if err := c.Connection.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
