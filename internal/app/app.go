// Package app wires the POS server together: storage, domain services,
// HTTP handlers, health probes, and graceful shutdown.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/zorpido/pos/internal/domain/credit"
	"github.com/zorpido/pos/internal/domain/inventory"
	"github.com/zorpido/pos/internal/domain/menu"
	"github.com/zorpido/pos/internal/domain/order"
	"github.com/zorpido/pos/internal/domain/register"
	"github.com/zorpido/pos/internal/events"
	"github.com/zorpido/pos/internal/handler"
	"github.com/zorpido/pos/internal/storage/postgres"
	"github.com/zorpido/pos/internal/storage/rediscache"
	"github.com/zorpido/pos/pkg/health"
	"github.com/zorpido/pos/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health probes.
	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))

	// Repositories, with the optional Redis read cache over the menu.
	var menuRepo menu.Repository = postgres.NewMenuRepository(pool)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return errors.Wrap(err, "connect to redis")
		}
		defer rdb.Close()

		healthSvc.AddReadinessCheck("redis", 2*time.Second, func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		menuRepo = rediscache.NewMenuRepository(menuRepo, rdb, cfg.CacheTTL)
		lg.Info("Menu cache enabled", zap.String("redis", cfg.RedisAddr))
	}

	orderRepo := postgres.NewOrderRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	creditRepo := postgres.NewCreditRepository(pool)
	registerRepo := postgres.NewRegisterRepository(pool)

	// Optional order event publishing.
	var publisher order.EventPublisher
	if cfg.AMQPURL != "" {
		pub, err := events.NewPublisher(cfg.AMQPURL)
		if err != nil {
			return errors.Wrap(err, "connect to rabbitmq")
		}
		defer pub.Close()
		publisher = pub
		lg.Info("Order event publishing enabled")
	}

	// Domain services.
	creditSvc := credit.NewService(customerRepo, creditRepo)
	inventorySvc := inventory.NewService(menuRepo)
	orderSvc := order.NewService(orderRepo, menuRepo, customerRepo, creditSvc, publisher)
	registerSvc := register.NewService(registerRepo)

	h := handler.NewHandler(menuRepo, inventorySvc, orderSvc, customerRepo, creditSvc, registerSvc)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/pos/", h.Routes())

	handlerChain := httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{AllowOrigins: cfg.CORS.Origins}),
		httpmiddleware.RateLimit(httpmiddleware.RateLimitConfig{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.LogRequests(),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(handlerChain, "pos-server",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	healthSvc.SetReady(true)

	// Graceful shutdown: drop readiness, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
