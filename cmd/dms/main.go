package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/totegamma/dms/internal/config"
	"github.com/totegamma/dms/internal/infra/blob"
	"github.com/totegamma/dms/internal/infra/cache"
	"github.com/totegamma/dms/internal/infra/database"
	"github.com/totegamma/dms/internal/infra/memory"
	"github.com/totegamma/dms/internal/infra/repository"
	"github.com/totegamma/dms/internal/present/rest"
	"github.com/totegamma/dms/internal/service"
	"github.com/totegamma/dms/internal/tracing"
	"github.com/totegamma/dms/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "dms:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = pflag.StringP("config", "c", "", "path to the YAML configuration file")
		debug      = pflag.Bool("debug", false, "enable debug logging")
	)
	pflag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	conf, err := loadConfig(*configPath)
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.Server.EnableTrace {
		shutdown, err := tracing.Setup(ctx, conf.Server.TraceEndpoint)
		if err != nil {
			return errors.Wrap(err, "setup tracing")
		}
		defer shutdown(context.Background())
	}

	var (
		docs  usecase.DocumentRepository
		users usecase.UserRepository
	)
	switch conf.Server.Store {
	case config.StorePostgres:
		db, err := database.NewPostgres(conf.Server.PostgresDsn)
		if err != nil {
			return errors.Wrap(err, "connect database")
		}
		if err := database.MigratePostgres(db); err != nil {
			return errors.Wrap(err, "migrate database")
		}
		docs = repository.NewDocumentRepository(db)
		users = repository.NewUserRepository(db)
	case config.StoreMemory:
		docs = memory.NewDocumentRepository()
		users = memory.NewUserRepository()
	default:
		return errors.Errorf("unknown store %q", conf.Server.Store)
	}

	var userCache cache.Cache
	if conf.Server.MemcachedAddr != "" {
		userCache = cache.NewMemcached(database.NewMemcached(conf.Server.MemcachedAddr), conf.Workflow.UserCacheTTL)
	} else {
		userCache = cache.NewLocal(conf.Workflow.UserCacheTTL)
	}
	users = repository.NewCachedUserRepository(users, userCache)

	var (
		publisher usecase.EventPublisher
		stream    rest.EventStream
	)
	if conf.Server.RedisAddr != "" {
		rdb := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
		defer rdb.Close()
		signals := service.NewSignalService(rdb)
		publisher = signals
		stream = signals
	} else {
		slog.Warn("redis is not configured, realtime events are disabled", slog.String("module", "main"))
	}

	blobs := blob.NewStore(conf.Server.BlobURL)

	handler := rest.NewHandler(
		usecase.NewWorkflowUsecase(docs, users, publisher, usecase.WorkflowOptions{
			RejectDuplicates:   conf.Workflow.RejectDuplicateAssociations,
			MaxConflictRetries: conf.Workflow.MaxConflictRetries,
		}),
		usecase.NewDocumentUsecase(docs, blobs, publisher),
		usecase.NewUserUsecase(users),
		stream,
	)
	e := rest.NewServer(handler)

	errCh := make(chan error, 1)
	go func() {
		slog.Info(
			"dms listening",
			slog.String("addr", conf.Server.ListenAddr),
			slog.String("store", conf.Server.Store),
			slog.String("blobs", conf.Server.BlobURL),
			slog.String("module", "main"),
		)
		if err := e.Start(conf.Server.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}
