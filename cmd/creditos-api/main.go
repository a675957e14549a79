package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	creditrepo "exemplo.com.br/creditos/internal/adapters/credit/postgres"
	auditrepo "exemplo.com.br/creditos/internal/adapters/events/postgres"
	redisevents "exemplo.com.br/creditos/internal/adapters/events/redis"
	credithttp "exemplo.com.br/creditos/internal/adapters/http/credit"
	healthhttp "exemplo.com.br/creditos/internal/adapters/http/health"
	appcredit "exemplo.com.br/creditos/internal/application/credit"
	apphealth "exemplo.com.br/creditos/internal/application/health"
	"exemplo.com.br/creditos/internal/core/event"
	corehealth "exemplo.com.br/creditos/internal/core/health"
	"exemplo.com.br/creditos/internal/infrastructure/config"
	"exemplo.com.br/creditos/internal/infrastructure/database"
	"exemplo.com.br/creditos/internal/infrastructure/http/middleware"
	"exemplo.com.br/creditos/internal/infrastructure/http/server"
	"exemplo.com.br/creditos/internal/infrastructure/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "service stopped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadAPI()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbCfg := database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Database:        cfg.Database.Database,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(dbCfg, log); err != nil {
			return err
		}
	}

	pool, err := database.NewPool(ctx, dbCfg)
	if err != nil {
		return err
	}
	log.Info("Database connection established",
		"host", cfg.Database.Host,
		"database", cfg.Database.Database,
	)

	closers := []func(){pool.Close}
	checkers := []corehealth.Checker{database.PoolChecker{Pool: pool}}

	var publishers event.Fanout
	if cfg.Events.AuditTrail {
		publishers = append(publishers, auditrepo.NewRecorder(pool, log))
		log.Info("Consultation audit trail enabled")
	}
	if cfg.Events.Enabled {
		rdb, err := redisevents.NewClient(cfg.Events.RedisURL)
		if err != nil {
			pool.Close()
			return err
		}
		pub := redisevents.NewPublisher(rdb, log,
			redisevents.WithStream(cfg.Events.Stream),
			redisevents.WithMaxLen(cfg.Events.MaxLen),
		)
		if err := pub.Ping(ctx); err != nil {
			log.Warn("Redis unreachable at startup, consultation events will be dropped until it recovers",
				"stream", cfg.Events.Stream,
				"error", err,
			)
		}
		publishers = append(publishers, pub)
		checkers = append(checkers, pub)
		closers = append(closers, func() { _ = rdb.Close() })
		log.Info("Consultation events enabled", "stream", cfg.Events.Stream)
	} else {
		log.Info("Consultation event stream disabled")
	}

	var publisher event.Publisher
	if len(publishers) > 0 {
		publisher = publishers
	}
	creditService := appcredit.NewService(creditrepo.NewRepository(pool, log), publisher, log)
	// Closers run last first: pending events drain before redis and the pool close.
	closers = append(closers, creditService.Wait)

	creditHandler := credithttp.NewHandler(creditService, log)
	healthHandler := healthhttp.NewHandler(apphealth.NewService(apphealth.Metadata{
		Service:     cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
	}, checkers...))

	srv, err := server.New(server.Options{
		HTTP:          cfg.HTTP,
		Logger:        log,
		HealthHandler: http.HandlerFunc(healthHandler.Status),
		Mount: func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				fmt.Fprintf(w, "Creditos API v%s", cfg.App.Version)
			})
			r.Route("/api", func(r chi.Router) {
				r.Use(middleware.RequestTimeout(cfg.HTTP.RequestTimeout))
				creditHandler.Routes(r)
			})
		},
		Closers: closers,
	})
	if err != nil {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	log.Info("Credits API starting",
		"address", cfg.HTTP.Address(),
		"environment", cfg.App.Environment,
		"version", cfg.App.Version,
	)
	return srv.Run(ctx)
}
