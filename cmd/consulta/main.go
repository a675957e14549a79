package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	creditquery "exemplo.com.br/creditos/internal/adapters/creditquery/http"
	consultahttp "exemplo.com.br/creditos/internal/adapters/http/consulta"
	healthhttp "exemplo.com.br/creditos/internal/adapters/http/health"
	appconsulta "exemplo.com.br/creditos/internal/application/consulta"
	apphealth "exemplo.com.br/creditos/internal/application/health"
	"exemplo.com.br/creditos/internal/infrastructure/config"
	httpclient "exemplo.com.br/creditos/internal/infrastructure/http"
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
	cfg, err := config.LoadConsulta()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The orchestrator enforces the query deadline; the client timeout only
	// backs it up for requests issued outside a session.
	traced := httpclient.NewTracedClient(&httpclient.TracedClientConfig{
		Timeout:         cfg.Query.Timeout + 5*time.Second,
		LogRequestBody:  cfg.CreditsAPI.LogBodies,
		LogResponseBody: cfg.CreditsAPI.LogBodies,
		MaxBodySize:     cfg.CreditsAPI.MaxBodySize,
		MaxConnsPerHost: cfg.CreditsAPI.MaxConnsPerHost,
	}, log, "creditos-api")
	client := creditquery.NewClient(cfg.CreditsAPI.BaseURL, traced, log)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, log)
	limiter.StartJanitor(ctx, cfg.RateLimit.CleanupInterval)

	consultaHandler := consultahttp.NewHandler(client, consultahttp.Config{
		Session: consultahttp.SessionConfig{
			Secret:     cfg.Session.Secret,
			TTL:        cfg.Session.TTL,
			CookieName: cfg.Session.CookieName,
			Secure:     cfg.Session.Secure,
		},
		Query: appconsulta.Options{
			Timeout: cfg.Query.Timeout,
			Policy:  appconsulta.ParsePolicy(cfg.Query.OrderingPolicy),
		},
		PageSize:         cfg.Query.PageSize,
		SubmitMiddleware: limiter.Middleware,
	}, log)
	consultaHandler.StartJanitor(ctx, cfg.RateLimit.CleanupInterval)

	healthHandler := healthhttp.NewHandler(apphealth.NewService(apphealth.Metadata{
		Service:     cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
	}))

	srv, err := server.New(server.Options{
		HTTP:          cfg.HTTP,
		Logger:        log,
		HealthHandler: http.HandlerFunc(healthHandler.Status),
		Mount: func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequestTimeout(cfg.HTTP.RequestTimeout))
				consultaHandler.Routes(r)
			})
		},
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	log.Info("Consultation app starting",
		"address", cfg.HTTP.Address(),
		"credits_api", cfg.CreditsAPI.BaseURL,
		"ordering_policy", appconsulta.ParsePolicy(cfg.Query.OrderingPolicy),
		"query_timeout", cfg.Query.Timeout,
		"environment", cfg.App.Environment,
	)
	return srv.Run(ctx)
}
