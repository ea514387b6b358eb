package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/payment"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type CheckoutUseCase interface {
	CreateBooking(ctx context.Context, data *domain.BookingData) (*domain.Booking, error)
	ProcessPayment(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error)
	GetBooking(ctx context.Context, ref string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, ref string) (*domain.Booking, error)
	ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Messages returned in failed payment results.
const (
	MsgPaymentUnavailable = "Payment could not be processed. Please try again."
	MsgBookingExpired     = "This booking has expired. Please search again."
	MsgAmountMismatch     = "Payment amount does not match the booking total."
)

type CheckoutService struct {
	bookings           repository.BookingRepository
	payments           repository.PaymentRepository
	processor          payment.Processor
	producer           Producer
	log                logrus.FieldLogger
	bookingTopic       string
	notificationsTopic string
	holdTTL            time.Duration
	now                func() time.Time
}

type CheckoutServiceOption func(*CheckoutService)

func WithNotificationsTopic(topic string) CheckoutServiceOption {
	return func(s *CheckoutService) {
		s.notificationsTopic = topic
	}
}

func WithClock(now func() time.Time) CheckoutServiceOption {
	return func(s *CheckoutService) {
		s.now = now
	}
}

func NewCheckoutService(
	bookings repository.BookingRepository,
	payments repository.PaymentRepository,
	processor payment.Processor,
	producer Producer,
	log logrus.FieldLogger,
	bookingTopic string,
	holdTTL time.Duration,
	opts ...CheckoutServiceOption,
) *CheckoutService {
	service := &CheckoutService{
		bookings:     bookings,
		payments:     payments,
		processor:    processor,
		producer:     producer,
		log:          log,
		bookingTopic: bookingTopic,
		holdTTL:      holdTTL,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking persists a pending booking for data. The booking expires with
// the offer, or after the hold TTL when that comes first.
func (s *CheckoutService) CreateBooking(ctx context.Context, data *domain.BookingData) (*domain.Booking, error) {
	if data == nil {
		return nil, domain.ErrNoOffer
	}
	now := s.now()
	if data.Offer.Expired(now) {
		return nil, domain.ErrOfferExpired
	}

	expiresAt := now.Add(s.holdTTL)
	if !data.Offer.ExpiresAt.IsZero() && data.Offer.ExpiresAt.Before(expiresAt) {
		expiresAt = data.Offer.ExpiresAt
	}

	booking := &domain.Booking{
		Reference:   uuid.NewString(),
		OfferID:     data.Offer.ID,
		TotalAmount: data.Total.Amount,
		Currency:    data.Total.Currency,
		Email:       data.Contact.Email,
		SessionID:   data.SessionID,
		Payload:     *data,
		ExpiresAt:   expiresAt,
	}

	if err := s.bookings.CreatePending(ctx, booking); err != nil {
		return nil, err
	}

	booking.Status = domain.BookingStatusPending
	s.log.WithFields(logrus.Fields{
		"reference": booking.Reference,
		"offer_id":  booking.OfferID,
		"total":     booking.TotalAmount.Format(booking.Currency),
		"currency":  booking.Currency,
	}).Info("booking created")

	s.publish(ctx, kafka.EventBookingCreated, booking, nil)
	return booking, nil
}

// ProcessPayment charges a pending booking. Declines and processor outages
// come back as a failed result with a message; the error return covers
// unknown or non-pending bookings and storage failures.
func (s *CheckoutService) ProcessPayment(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
	current, err := s.bookings.GetByReference(ctx, req.BookingRef)
	if err != nil {
		return domain.PaymentResult{}, err
	}
	if current.Status != domain.BookingStatusPending {
		return domain.PaymentResult{}, domain.ErrBookingNotPending
	}
	fields := logrus.Fields{"reference": current.Reference}

	if !s.now().Before(current.ExpiresAt) {
		expired, err := s.bookings.UpdateStatus(ctx, current.Reference, domain.BookingStatusExpired)
		if err != nil {
			return domain.PaymentResult{}, err
		}
		s.publish(ctx, kafka.EventBookingExpired, expired, nil)
		return domain.PaymentResult{Success: false, Error: MsgBookingExpired}, nil
	}
	if req.Amount != current.TotalAmount || (req.Currency != "" && req.Currency != current.Currency) {
		s.log.WithFields(fields).WithFields(logrus.Fields{
			"requested": req.Amount.Format(current.Currency),
			"expected":  current.TotalAmount.Format(current.Currency),
		}).Warn("payment amount mismatch")
		return domain.PaymentResult{Success: false, Error: MsgAmountMismatch}, nil
	}

	key, err := s.idempotencyKey(ctx, current.Reference)
	if err != nil {
		return domain.PaymentResult{}, err
	}
	charge := domain.PaymentRequest{
		BookingRef:     current.Reference,
		Amount:         current.TotalAmount,
		Currency:       current.Currency,
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: key,
	}
	result, err := s.processor.Charge(ctx, charge)
	if err != nil {
		s.log.WithFields(fields).WithError(err).Error("payment processor failed")
		result = domain.PaymentResult{Success: false, Error: MsgPaymentUnavailable}
	}

	s.recordAttempt(ctx, current, result)

	if !result.Success {
		s.log.WithFields(fields).WithField("reason", result.Error).Warn("payment failed")
		s.publish(ctx, kafka.EventPaymentFailed, current, &result)
		return result, nil
	}

	confirmed, err := s.bookings.MarkConfirmed(ctx, current.Reference, result.TransactionID)
	if err != nil {
		// the charge went through; surface the storage failure but keep the transaction id
		s.log.WithFields(fields).WithField("transaction_id", result.TransactionID).WithError(err).Error("confirm booking failed")
		return result, err
	}
	s.log.WithFields(fields).WithField("transaction_id", result.TransactionID).Info("booking confirmed")
	s.publish(ctx, kafka.EventBookingConfirmed, confirmed, &result)
	return result, nil
}

func (s *CheckoutService) GetBooking(ctx context.Context, ref string) (*domain.Booking, error) {
	return s.bookings.GetByReference(ctx, ref)
}

func (s *CheckoutService) CancelBooking(ctx context.Context, ref string) (*domain.Booking, error) {
	current, err := s.bookings.GetByReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusCancelled || current.Status == domain.BookingStatusExpired {
		return current, nil
	}
	if current.Status == domain.BookingStatusConfirmed {
		return nil, domain.ErrBookingNotPending
	}

	updated, err := s.bookings.UpdateStatus(ctx, ref, domain.BookingStatusCancelled)
	if err != nil {
		return nil, err
	}
	s.log.WithField("reference", ref).Info("booking cancelled")
	s.publish(ctx, kafka.EventBookingCancelled, updated, nil)
	return updated, nil
}

func (s *CheckoutService) ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error) {
	expired, err := s.bookings.ExpirePendingBefore(ctx, s.now())
	if err != nil {
		return nil, err
	}
	for i := range expired {
		s.publish(ctx, kafka.EventBookingExpired, &expired[i], nil)
	}
	return expired, nil
}

// idempotencyKey is unique per charge attempt so a retry after a decline
// reaches the processor as a new request. Attempts are numbered from the
// recorded history; without a payment repository a random suffix is used.
func (s *CheckoutService) idempotencyKey(ctx context.Context, ref string) (string, error) {
	if s.payments == nil {
		return ref + "-" + uuid.NewString(), nil
	}
	attempts, err := s.payments.ListByBooking(ctx, ref)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-attempt-%d", ref, len(attempts)+1), nil
}

func (s *CheckoutService) recordAttempt(ctx context.Context, b *domain.Booking, result domain.PaymentResult) {
	if s.payments == nil {
		return
	}
	attempt := &repository.PaymentAttempt{
		BookingRef:    b.Reference,
		Amount:        b.TotalAmount,
		Currency:      b.Currency,
		Success:       result.Success,
		TransactionID: result.TransactionID,
		Error:         result.Error,
	}
	if err := s.payments.Record(ctx, attempt); err != nil {
		s.log.WithField("reference", b.Reference).WithError(err).Error("record payment attempt failed")
	}
}

// publish is best effort: a broker outage never fails a booking operation.
func (s *CheckoutService) publish(ctx context.Context, eventType string, booking *domain.Booking, result *domain.PaymentResult) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:      eventType,
		Reference: booking.Reference,
		OfferID:   booking.OfferID,
		Email:     booking.Email,
		Amount:    booking.TotalAmount.Format(booking.Currency),
		Currency:  booking.Currency,
		Status:    string(booking.Status),
		ExpiresAt: booking.ExpiresAt,
	}
	if result != nil {
		event.TransactionID = result.TransactionID
		event.Error = result.Error
	}

	err := s.producer.Publish(ctx, s.bookingTopic, booking.Reference, event)
	if err == nil && s.notificationsTopic != "" {
		err = s.producer.Publish(ctx, s.notificationsTopic, booking.Reference, event)
	}
	if err != nil {
		s.log.WithFields(logrus.Fields{"reference": booking.Reference, "type": eventType}).WithError(err).Warn("failed to publish booking event")
	}
}

var _ CheckoutUseCase = (*CheckoutService)(nil)
