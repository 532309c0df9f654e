package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/pesansayur/storefront/internal/backend"
	"github.com/pesansayur/storefront/internal/cart"
	"github.com/pesansayur/storefront/internal/catalog"
	"github.com/pesansayur/storefront/internal/chat"
	"github.com/pesansayur/storefront/internal/checkout"
	"github.com/pesansayur/storefront/internal/config"
	"github.com/pesansayur/storefront/internal/coupon"
	"github.com/pesansayur/storefront/internal/delivery"
	"github.com/pesansayur/storefront/internal/domain"
	"github.com/pesansayur/storefront/internal/history"
	h "github.com/pesansayur/storefront/internal/http"
	"github.com/pesansayur/storefront/internal/notify"
	"github.com/pesansayur/storefront/internal/recovery"
	"github.com/pesansayur/storefront/internal/session"
	"github.com/pesansayur/storefront/pkg/circuitbreaker"
	"github.com/pesansayur/storefront/pkg/logger"
)

type sessionStore interface {
	h.SessionStore
	delivery.LocationStore
	checkout.Sessions
}

func main() {
	cfg := config.Load()
	log := logger.New("storefront", logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	for _, w := range cfg.Warnings {
		log.Warn().Msg(w)
	}
	ctx := context.Background()
	otel.SetTextMapPropagator(propagation.TraceContext{})

	snapshot, err := catalog.Load(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("failed to load catalog")
	}
	store, err := snapshot.Store()
	if err != nil {
		log.Fatal().Err(err).Msg("no active store in catalog")
	}

	// Cart storage: MongoDB with a Redis cache when configured, memory otherwise.
	var (
		repo  cart.Repository = cart.NewMemoryRepository()
		cache cart.Cache      = cart.NoCache{}
		sess  sessionStore    = session.NewMemoryStore()
	)
	if cfg.MongoURI != "" {
		mongoDB, err := cart.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to MongoDB")
		}
		defer mongoDB.Client().Disconnect(context.Background())
		mongoRepo := cart.NewMongoRepository(mongoDB)
		if err := mongoRepo.CreateIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to create cart indexes")
		}
		repo = mongoRepo
		log.Info().Str("database", cfg.MongoDatabase).Msg("connected to MongoDB")
	} else {
		log.Warn().Msg("MONGO_URI not set, carts are kept in memory")
	}

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		cache = cart.NewRedisCache(redisClient)
		sess = session.NewRedisStore(redisClient, cfg.SessionTTL)
		log.Info().Str("addr", cfg.RedisAddr).Msg("Redis ping succeeded")
	} else {
		log.Warn().Msg("REDIS_ADDR not set, sessions are kept in memory")
	}

	hist, err := history.NewRepository(cfg.HistoryDriver, cfg.HistoryDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open order history")
	}
	defer hist.Close()
	if err := hist.RunMigrations(cfg.HistoryMigrations); err != nil {
		log.Fatal().Err(err).Msg("failed to run history migrations")
	}

	// Best-effort notifications: the order backend and, optionally, Kafka.
	backendClient := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, circuitbreaker.New(5, 30*time.Second))
	var sinks []notify.Sink
	if backendClient.Configured() {
		sinks = append(sinks, backendClient)
	} else {
		log.Warn().Msg("BACKEND_URL not set, orders are not forwarded")
	}
	var kafkaSink *notify.KafkaSink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink = notify.NewKafkaSink(cfg.KafkaTopic, cfg.KafkaBrokers...)
		sinks = append(sinks, kafkaSink)
	}
	dispatcher := notify.NewDispatcher(log, cfg.BackendTimeout, sinks...)

	carts := cart.NewService(repo, cache, log)
	resolver := newResolver(cfg, store, log)

	whatsapp := store.WhatsApp
	if cfg.WhatsAppNumber != "" {
		whatsapp = cfg.WhatsAppNumber
	}
	checkoutSvc := checkout.NewService(store, carts, sess, hist, chat.NewWhatsApp(whatsapp), dispatcher, log)
	recoverySvc := recovery.NewService(backendClient, hist, carts, log)

	router := h.NewRouter(h.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		Log:                log,
	}, h.Handlers{
		Cart:     h.NewCartHandler(carts, snapshot, cfg.RequestTimeout),
		Coupon:   h.NewCouponHandler(coupon.NewEngine(snapshot, dispatcher), carts, sess, cfg.RequestTimeout),
		Delivery: h.NewDeliveryHandler(store, delivery.NewTracker(resolver, sess), sess, cfg.RequestTimeout),
		Checkout: h.NewCheckoutHandler(checkoutSvc, cfg.RequestTimeout),
		Orders:   h.NewOrdersHandler(hist, recoverySvc, cfg.RequestTimeout),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("store", store.ID).Msg("storefront starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	dispatcher.Wait()
	if kafkaSink != nil {
		if err := kafkaSink.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close kafka writer")
		}
	}
	log.Info().Msg("server exited")
}

// newResolver chains road distance before the straight line and the geocoder
// before the raw coordinates.
func newResolver(cfg *config.Config, store domain.Store, log zerolog.Logger) *delivery.Resolver {
	client := &http.Client{
		Timeout:   cfg.ResolverTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	var (
		distance []delivery.DistanceStrategy
		address  []delivery.AddressStrategy
	)
	if cfg.OSRMURL != "" {
		distance = append(distance, delivery.NewOSRMRouter(cfg.OSRMURL, client, circuitbreaker.New(3, time.Minute)))
	}
	distance = append(distance, delivery.Haversine{})
	if cfg.NominatimURL != "" {
		address = append(address, delivery.NewNominatim(cfg.NominatimURL, client))
	}
	address = append(address, delivery.CoordinateLabel{})

	return delivery.NewResolver(delivery.ResolverConfig{
		Store:    store,
		Distance: distance,
		Address:  address,
		Timeout:  cfg.ResolverTimeout,
		Log:      log,
	})
}
