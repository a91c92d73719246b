package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Astemirdum/library-management/library/config"
	"github.com/Astemirdum/library-management/library/internal/handler"
	"github.com/Astemirdum/library-management/library/internal/repository"
	"github.com/Astemirdum/library-management/library/internal/server"
	"github.com/Astemirdum/library-management/library/internal/service"
	"github.com/Astemirdum/library-management/library/migrations"
	"github.com/Astemirdum/library-management/pkg/kafka"
	"github.com/Astemirdum/library-management/pkg/logger"
	"github.com/Astemirdum/library-management/pkg/mongodb"
	"github.com/Astemirdum/library-management/pkg/postgres"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "library")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := newRepository(ctx, cfg, log)
	if err != nil {
		log.Fatal("repository init", zap.String("driver", string(cfg.Driver)), zap.Error(err))
	}
	events, closeEvents := newEnqueuer(cfg.Kafka, log)

	svc := service.NewService(repo, events, log)
	h := handler.New(svc, svc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server start ON: ",
			zap.String("addr", net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)),
			zap.String("driver", string(cfg.Driver)))
		return srv.Run()
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Debug("Graceful shutdown", zap.Error(context.Cause(gCtx)))

		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(closeCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server", zap.Error(err))
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	closeEvents()
	closeRepo(closeCtx)
	log.Info("Graceful shutdown finished")
}

func newRepository(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.Repository, func(context.Context), error) {
	switch cfg.Driver {
	case config.DriverMongo:
		db, err := mongodb.NewMongoDB(ctx, &cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewMongoRepository(db, log)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		return repo, func(ctx context.Context) {
			if err := mongodb.Close(ctx, db); err != nil {
				log.Warn("mongodb.Close", zap.Error(err))
			}
		}, nil
	case config.DriverPostgres:
		db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPostgresRepository(db, log), func(context.Context) { db.Close() }, nil
	case config.DriverMemory:
		return repository.NewMemoryRepository(log), func(context.Context) {}, nil
	}
	return nil, nil, errors.Errorf("unknown driver %q", cfg.Driver)
}

// newEnqueuer falls back to a no-op publisher when no broker is configured
// or the producer cannot be created.
func newEnqueuer(cfg kafka.Config, log *zap.Logger) (kafka.Enqueuer, func()) {
	if !cfg.Enabled() {
		return kafka.NopEnqueuer{}, func() {}
	}
	producer, err := kafka.NewProducer(cfg)
	if err != nil {
		log.Warn("kafka.NewProducer, borrow events disabled", zap.Strings("addrs", cfg.Addrs), zap.Error(err))
		return kafka.NopEnqueuer{}, func() {}
	}
	q := kafka.NewEnqueuer(producer, cfg.Topic)
	return q, func() {
		if err := q.Close(); err != nil {
			log.Warn("kafka producer close", zap.Error(err))
		}
	}
}
