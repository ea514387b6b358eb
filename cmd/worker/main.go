package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/email"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/logger"
	"github.com/Domenick1991/flightbooking/internal/payment"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/service/checkout"
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

	producer := kafka.NewProducer(cfg.Kafka.Brokers, kafka.WithLogger(log))
	defer producer.Close()

	checkoutService := checkout.NewCheckoutService(
		repository.NewBookingRepository(pool),
		repository.NewPaymentRepository(pool),
		payment.NewStripeClient(cfg.Stripe.SecretKey).WithBaseURL(cfg.Stripe.BaseURL).WithLogger(log),
		producer,
		log,
		cfg.Kafka.BookingEventsTopic,
		time.Duration(cfg.Booking.HoldTTLMinutes)*time.Minute,
		checkout.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	topic := cfg.Kafka.NotificationsTopic
	if topic == "" {
		topic = cfg.Kafka.BookingEventsTopic
	}
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, topic, log)
	defer consumer.Close()

	emailSender := email.NewSender(log)

	go func() {
		if err := consumer.Consume(ctx, kafka.BookingEventHandler(log, emailSender.Send)); err != nil {
			log.WithError(err).Error("consumer stopped")
		}
	}()

	sweep := time.Duration(cfg.Worker.ExpirationSweepMinutes) * time.Minute
	if sweep <= 0 {
		sweep = time.Minute
	}
	expireTicker := time.NewTicker(sweep)
	defer expireTicker.Stop()

	log.WithField("topic", topic).Info("worker started")

	for {
		select {
		case <-expireTicker.C:
			expired, err := checkoutService.ExpirePendingBookings(ctx)
			if err != nil {
				log.WithError(err).Error("expire bookings")
				continue
			}
			if len(expired) > 0 {
				log.WithField("count", len(expired)).Info("expired pending bookings")
			}
		case <-ctx.Done():
			log.Info("shutting down")
			return
		}
	}
}
