package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/bootstrap"
	"github.com/Domenick1991/flightbooking/internal/cache"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/logger"
	"github.com/Domenick1991/flightbooking/internal/offers"
	"github.com/Domenick1991/flightbooking/internal/payment"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/service/checkout"
	"github.com/Domenick1991/flightbooking/internal/service/funnel"
	"github.com/Domenick1991/flightbooking/internal/service/search"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Session.TTL(), cfg.Search.CacheTTL())
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		log.WithError(err).Fatal("connect redis")
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers,
		kafka.WithRetries(3, 200*time.Millisecond),
		kafka.WithLogger(log),
	)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		log.WithError(err).Warn("kafka unavailable, booking events will be dropped")
	}

	duffel := offers.NewDuffelClient(cfg.Duffel.AccessToken).
		WithBaseURL(cfg.Duffel.BaseURL).
		WithVersion(cfg.Duffel.Version).
		WithTimeout(time.Duration(cfg.Duffel.TimeoutSeconds) * time.Second).
		WithLogger(log)

	searchOpts := []search.SearchServiceOption{search.WithCache(redisCache)}
	if cfg.Search.MockFallback {
		searchOpts = append(searchOpts, search.WithFallback(offers.NewMockGenerator()))
	}
	searchService := search.NewSearchService(duffel, log, searchOpts...)

	stripe := payment.NewStripeClient(cfg.Stripe.SecretKey).
		WithBaseURL(cfg.Stripe.BaseURL).
		WithTimeout(time.Duration(cfg.Stripe.TimeoutSeconds) * time.Second).
		WithLogger(log)

	checkoutService := checkout.NewCheckoutService(
		repository.NewBookingRepository(pool),
		repository.NewPaymentRepository(pool),
		stripe,
		producer,
		log,
		cfg.Kafka.BookingEventsTopic,
		time.Duration(cfg.Booking.HoldTTLMinutes)*time.Minute,
		checkout.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	funnelService := funnel.NewFunnelService(redisCache, searchService, checkoutService, log, cfg)

	checks := []bootstrap.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "redis", Check: redisCache.Ping},
	}
	if err := bootstrap.Run(ctx, cfg, log, funnelService, checkoutService, checks...); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
