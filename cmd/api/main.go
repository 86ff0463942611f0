package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/carebridge/booking-api/internal/app"
	"github.com/carebridge/booking-api/internal/clock"
	"github.com/carebridge/booking-api/internal/codestore"
	"github.com/carebridge/booking-api/internal/config"
	"github.com/carebridge/booking-api/internal/metrics"
	"github.com/carebridge/booking-api/internal/notify"
	"github.com/carebridge/booking-api/internal/storage/postgres"
	transporthttp "github.com/carebridge/booking-api/internal/transport/http"
	"github.com/carebridge/booking-api/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := log.Default()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to db: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		log.Fatalf("db ping: %v", err)
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.NewSystem()

	var store app.CodeStore
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("parse redis url: %v", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(startupCtx).Err(); err != nil {
			log.Fatalf("redis ping: %v", err)
		}
		defer client.Close()
		store = codestore.NewRedis(client, clk)
		logger.Printf("code store: redis")
	} else {
		mem := codestore.NewMemory(clk)
		go mem.RunSweeper(stopCtx, cfg.SweepInterval)
		store = mem
		logger.Printf("code store: in-process memory")
	}

	tickets := codestore.NewTicketRegistry(clk, cfg.TicketTTL)
	go tickets.RunSweeper(stopCtx, cfg.SweepInterval)

	var notifier notify.Notifier
	if cfg.AMQPURL != "" {
		amqpNotifier, err := notify.NewAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("connect to amqp: %v", err)
		}
		defer amqpNotifier.Close()
		notifier = amqpNotifier
		logger.Printf("notifier: amqp exchange %s", cfg.AMQPExchange)
	} else {
		notifier = notify.NewLog(logger)
		logger.Printf("notifier: log output")
	}

	metrics.Register()

	subjectRepo := postgres.NewSubjectRepository(pool)
	bookingRepo := postgres.NewBookingRepository(pool)
	registry := app.NewAdapterRegistry()

	codeSvc := app.NewCodeService(store, tickets, subjectRepo, notifier, clk,
		app.WithCodeTTL(cfg.CodeTTL),
		app.WithCodeLogger(logger),
	)
	bookingSvc := app.NewBookingService(bookingRepo, tickets, registry, notifier, clk,
		app.WithBookingLogger(logger),
	)
	subjectSvc := app.NewSubjectService(subjectRepo, clk)

	handler := transporthttp.NewRouter(transporthttp.RouterDeps{
		Issuer:       codeSvc,
		Verifier:     codeSvc,
		Creator:      bookingSvc,
		Transitioner: bookingSvc,
		Reader:       bookingSvc,
		Lister:       bookingRepo,
		Subjects:     subjectSvc,
		Labels:       registry,
		CORSOrigins:  cfg.CORSOrigins,
		Logger:       logger,
	})

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}

	log.Printf("api listening on %s", cfg.HTTPAddr)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
		}
	case <-stopCtx.Done():
		log.Printf("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server shutdown error: %v", err)
	}
	log.Printf("server stopped")
}
