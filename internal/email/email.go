package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/sirupsen/logrus"
)

// Message is a rendered notification.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender turns booking events into customer notifications. Delivery is a
// structured log entry; events without a recipient are dropped.
type Sender struct {
	log logrus.FieldLogger
}

func NewSender(log logrus.FieldLogger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	msg, ok := Compose(event)
	if !ok {
		s.log.WithFields(logrus.Fields{"type": event.Type, "reference": event.Reference}).Debug("no notification for event")
		return nil
	}

	s.log.WithFields(logrus.Fields{
		"to":        msg.To,
		"subject":   msg.Subject,
		"reference": event.Reference,
		"type":      event.Type,
	}).Info("send email")
	return nil
}

// Compose renders the notification for event. ok is false when the event
// has no recipient or is not customer-facing.
func Compose(event kafka.BookingEvent) (Message, bool) {
	if event.Email == "" {
		return Message{}, false
	}

	msg := Message{To: event.Email}
	switch event.Type {
	case kafka.EventBookingCreated:
		msg.Subject = fmt.Sprintf("Booking %s received", event.Reference)
		msg.Body = fmt.Sprintf("We are holding your booking %s for %s %s until %s.",
			event.Reference, event.Amount, event.Currency, event.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"))
	case kafka.EventBookingConfirmed:
		msg.Subject = fmt.Sprintf("Booking %s confirmed", event.Reference)
		msg.Body = fmt.Sprintf("Your payment of %s %s was received. Transaction %s.",
			event.Amount, event.Currency, event.TransactionID)
	case kafka.EventPaymentFailed:
		msg.Subject = fmt.Sprintf("Payment for booking %s failed", event.Reference)
		msg.Body = fmt.Sprintf("We could not charge %s %s: %s.", event.Amount, event.Currency, event.Error)
	case kafka.EventBookingCancelled:
		msg.Subject = fmt.Sprintf("Booking %s cancelled", event.Reference)
		msg.Body = fmt.Sprintf("Your booking %s has been cancelled.", event.Reference)
	case kafka.EventBookingExpired:
		msg.Subject = fmt.Sprintf("Booking %s expired", event.Reference)
		msg.Body = fmt.Sprintf("Your booking %s expired before payment was completed.", event.Reference)
	default:
		return Message{}, false
	}
	return msg, true
}
