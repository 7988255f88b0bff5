package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/room-booking/internal/config"
	"github.com/iliyamo/room-booking/internal/database"
	"github.com/iliyamo/room-booking/internal/handler"
	"github.com/iliyamo/room-booking/internal/logger"
	"github.com/iliyamo/room-booking/internal/metrics"
	"github.com/iliyamo/room-booking/internal/middleware"
	"github.com/iliyamo/room-booking/internal/queue"
	"github.com/iliyamo/room-booking/internal/repository"
	"github.com/iliyamo/room-booking/internal/repository/memstore"
	"github.com/iliyamo/room-booking/internal/router"
	"github.com/iliyamo/room-booking/internal/service"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, accounts, closeStore, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	rdb := config.NewRedisClient(config.LoadRedisConfig(), log)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	cacheCfg := config.LoadCacheConfig()
	var invalidate queue.Handler
	if rdb != nil {
		invalidate = queue.ProductCacheHandler(handler.ProductPath, func(ctx context.Context, path string) (int, error) {
			return middleware.InvalidatePath(ctx, rdb, cacheCfg, path)
		}, log)
	}

	var events service.EventPublisher = service.NopPublisher{}
	switch {
	case cfg.Events.Enabled:
		pub := service.NewRabbitPublisher(cfg.Events.URL, cfg.Events.Exchange, log)
		defer func() { _ = pub.Close() }()
		events = pub
	case invalidate != nil:
		events = queue.DirectPublisher(invalidate)
	}

	mgr := service.NewBookingManager(store, accounts, events, service.ManagerConfig{
		Policy: service.StockPolicy{
			DecrementOnUpdate: cfg.Booking.DecrementOnUpdate,
			RestoreOnDelete:   cfg.Booking.RestoreOnDelete,
		},
		LockTimeout: cfg.Booking.LockTimeout,
	}, log, m)

	e := newServer(cfg, log, m, reg, rdb, cacheCfg, handler.NewBookingHandler(mgr))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env),
			zap.String("storage", cfg.Booking.StorageDriver))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	if cfg.Events.Enabled && invalidate != nil {
		consumer := queue.NewConsumer(cfg.Events, invalidate, log)
		g.Go(func() error {
			if err := consumer.Run(gctx); err != nil && gctx.Err() == nil {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newServer(cfg config.Config, log *zap.Logger, m *metrics.Metrics, reg *prometheus.Registry,
	rdb *redis.Client, cacheCfg config.CacheConfig, h *handler.BookingHandler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.Metrics(m))
	e.Use(echomw.Recover())

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log)
	cache := middleware.NewRedisCache(cacheCfg, rdb, log)

	router.RegisterRoutes(e, reg)
	router.RegisterPublic(e, h, cache)
	router.RegisterBookings(e, h, cfg.JWTSecret, limiter)
	return e
}

// openStorage returns the booking store and account provisioner for the
// configured driver together with a cleanup func.
func openStorage(ctx context.Context, cfg config.Config, log *zap.Logger) (service.Store, service.AccountProvisioner, func(), error) {
	if cfg.Booking.StorageDriver == config.StorageMemory {
		ms := memstore.New()
		if path := os.Getenv("STORAGE_SEED_FILE"); path != "" {
			f, err := os.Open(path)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("open seed file: %w", err)
			}
			n, err := ms.LoadProducts(f)
			_ = f.Close()
			if err != nil {
				return nil, nil, nil, fmt.Errorf("load seed file: %w", err)
			}
			log.Info("seeded in-memory store", zap.String("file", path), zap.Int("products", n))
		}
		log.Warn("using in-memory storage; data is lost on restart")
		return ms, ms, func() {}, nil
	}

	db, err := database.Open(ctx, database.Options{
		User:         cfg.DBUser,
		Password:     cfg.DBPass,
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		Name:         cfg.DBName,
		MaxOpenConns: cfg.DBMaxConns,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("database: %w", err)
	}
	closeDB := func() { closeQuietly(db, log) }
	return repository.NewSQLStore(db), repository.NewUserRepo(db, cfg.BcryptCost), closeDB, nil
}

func closeQuietly(db *sql.DB, log *zap.Logger) {
	if err := db.Close(); err != nil {
		log.Warn("database close", zap.Error(err))
	}
}
