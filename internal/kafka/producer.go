package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Booking event types.
const (
	EventBookingCreated   = "booking_created"
	EventBookingConfirmed = "booking_confirmed"
	EventPaymentFailed    = "payment_failed"
	EventBookingCancelled = "booking_cancelled"
	EventBookingExpired   = "booking_expired"
)

type BookingEvent struct {
	Type          string    `json:"type"`
	Reference     string    `json:"reference"`
	OfferID       string    `json:"offer_id"`
	Email         string    `json:"email"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Error         string    `json:"error,omitempty"`
	ExpiresAt     time.Time `json:"expires_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	brokers    []string
	writer     messageWriter
	log        logrus.FieldLogger
	maxRetries int
	backoff    time.Duration
}

type ProducerOption func(*Producer)

// WithRetries makes Publish retry failed writes with a linearly growing
// backoff.
func WithRetries(maxRetries int, backoff time.Duration) ProducerOption {
	return func(p *Producer) {
		p.maxRetries = maxRetries
		p.backoff = backoff
	}
}

func WithLogger(log logrus.FieldLogger) ProducerOption {
	return func(p *Producer) {
		p.log = log
	}
}

func NewProducer(brokers []string, opts ...ProducerOption) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newProducer(brokers, writer, opts...)
}

func newProducer(brokers []string, writer messageWriter, opts ...ProducerOption) *Producer {
	p := &Producer{
		brokers:    brokers,
		writer:     writer,
		log:        logrus.StandardLogger(),
		maxRetries: 1,
		backoff:    500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.maxRetries < 1 {
		p.maxRetries = 1
	}
	return p
}

// Publish writes payload as JSON under key. Events of one booking share a
// key and therefore a partition, which keeps them ordered.
func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	var lastErr error
	for i := 0; i < p.maxRetries; i++ {
		if lastErr = p.writer.WriteMessages(ctx, message); lastErr == nil {
			p.log.WithFields(logrus.Fields{"topic": topic, "key": key}).Debug("published event")
			return nil
		}

		p.log.WithFields(logrus.Fields{"topic": topic, "key": key, "attempt": i + 1}).WithError(lastErr).Warn("kafka write failed")
		if i < p.maxRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(i+1) * p.backoff):
			}
		}
	}
	return fmt.Errorf("failed to write message to Kafka after %d attempts: %w", p.maxRetries, lastErr)
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker and reads its partitions.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("failed to read partitions: %w", err)
	}

	p.log.WithField("partitions", len(partitions)).Info("connected to kafka")
	return nil
}
