package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"checkout/internal/admission"
	"checkout/internal/app"
	"checkout/internal/config"
	"checkout/internal/gateway"
	"checkout/internal/handler"
	internalRedis "checkout/internal/redis"
	"checkout/internal/repository"
	"checkout/internal/repository/postgres"
	"checkout/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s", cfg.NewRelic.AppName)
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	if err := postgres.RunMigrations(ctx, db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	orderRepo := postgres.NewOrderRepository(db)
	seq, err := newSequence(ctx, cfg.Order.SequenceBackend, db, redisClient)
	if err != nil {
		log.Fatalf("failed to prepare order sequence: %v", err)
	}
	queue := admission.NewQueue(orderRepo, seq, cfg.Order.DisplayPrefix, cfg.Order.QueueSize)

	server := wireServer(orderRepo, queue, redisClient, nrApp, cfg)

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	// Admissions already queued are persisted before the database closes.
	queue.Close()
	log.Printf("Admission queue drained")

	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Println("Server exited")
}

// newSequence picks the order-number source and advances it past every
// number already stored, so switching ORDER_SEQUENCE_BACKEND never reissues
// one. Postgres and Redis survive restarts; "memory" is for local runs only.
func newSequence(ctx context.Context, backend string, db *sql.DB, redisClient *redis.Client) (repository.Sequence, error) {
	pgSeq := postgres.NewSequenceStore(db)

	var seq repository.SeededSequence
	switch backend {
	case "redis":
		log.Println("Order numbers from Redis")
		seq = internalRedis.NewSequenceStore(redisClient)
	case "memory":
		log.Println("Order numbers from in-process counter")
		seq = admission.NewCounter(0)
	default:
		seq = pgSeq
	}

	floor, err := pgSeq.MaxIssued(ctx)
	if err != nil {
		return nil, err
	}
	if err := seq.Advance(ctx, floor); err != nil {
		return nil, err
	}
	log.Printf("Order numbers continue after %d", floor)

	return seq, nil
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(
	orderRepo repository.OrderRepository,
	queue *admission.Queue,
	redisClient *redis.Client,
	nrApp *newrelic.Application,
	cfg *config.Config,
) *http.Server {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	gw := gateway.NewHTTPClient(cfg.Gateway)

	// Initialize services.
	notificationService := service.NewNotificationService()
	orderService := service.NewOrderService(orderRepo, queue, cacheStore, notificationService, cfg.Order.DefaultCurrency)
	paymentService := service.NewPaymentService(orderRepo, gw, cacheStore, notificationService, cfg.Order.TxnPrefix, service.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
	})

	orderHandler := handler.NewOrderHandler(orderService, paymentService, lockStore, cfg.Order.LockTTL)

	router := app.NewRouter(app.RouterDeps{
		OrderHandler: orderHandler,
		RedisClient:  redisClient,
		NewRelicApp:  nrApp,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
