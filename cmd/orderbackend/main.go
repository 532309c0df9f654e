package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/pesansayur/storefront/internal/config"
	"github.com/pesansayur/storefront/internal/orderbackend"
	"github.com/pesansayur/storefront/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New("orderbackend", logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	for _, w := range cfg.Warnings {
		log.Warn().Msg(w)
	}
	var wg sync.WaitGroup
	otel.SetTextMapPropagator(propagation.TraceContext{})

	var store orderbackend.Store
	if cfg.OrderBackendDSN != "" {
		repo, err := orderbackend.NewRepository(cfg.OrderBackendDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer repo.Close()
		if err := repo.RunMigrations(cfg.OrderBackendMigrations); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		log.Info().Msg("database migrations completed")
		store = repo
	} else {
		log.Warn().Msg("ORDER_BACKEND_DSN not set, orders are kept in memory")
		store = orderbackend.NewMemoryStore()
	}

	// Start Kafka consumer
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	var kafkaConsumer *orderbackend.Consumer
	if len(cfg.KafkaBrokers) > 0 {
		kafkaConsumer = orderbackend.NewConsumer(store, cfg.KafkaTopic, cfg.KafkaGroupID, log, cfg.KafkaBrokers...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			kafkaConsumer.Run(consumerCtx)
		}()
	}

	handler := orderbackend.NewHandler(store, cfg.DataDir, cfg.RequestTimeout)
	srv := &http.Server{
		Addr: ":" + cfg.OrderBackendPort,
		Handler: orderbackend.NewRouter(orderbackend.RouterConfig{
			RequestTimeout: cfg.RequestTimeout,
			RateLimit:      cfg.RateLimit,
			RateBurst:      cfg.RateBurst,
			Log:            log,
		}, handler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.OrderBackendPort).Msg("order backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down order backend...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	consumerCancel()

	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		log.Info().Msg("consumer stopped cleanly")
	case <-shutdownCtx.Done():
		log.Warn().Msg("consumer didn't stop in time")
	}

	if kafkaConsumer != nil {
		kafkaConsumer.Close()
	}
	log.Info().Msg("order backend stopped")
}
