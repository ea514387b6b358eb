package domain

import (
	"errors"
	"time"
)

// Step is the position of a session in the booking funnel.
type Step string

const (
	StepBooking Step = "booking"
	StepSeats   Step = "seats"
	StepPayment Step = "payment"
)

func (s Step) Valid() bool {
	switch s {
	case StepBooking, StepSeats, StepPayment:
		return true
	}
	return false
}

// BookingData is the immutable snapshot handed to the booking/payment
// boundary.
type BookingData struct {
	Offer      FlightOffer        `json:"offer"`
	Passengers []BookingPassenger `json:"passengers"`
	Baggage    BaggageSelection   `json:"baggage"`
	Seats      []SeatSelection    `json:"seats"`
	Contact    ContactDetails     `json:"contact"`
	Billing    *BillingDetails    `json:"billing,omitempty"`
	Total      Money              `json:"total"`
	SessionID  string             `json:"session_id,omitempty"`
}

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusExpired   BookingStatus = "EXPIRED"
)

// Booking is the persisted record created at checkout.
type Booking struct {
	ID            int64
	Reference     string
	OfferID       string
	Status        BookingStatus
	TotalAmount   Amount
	Currency      string
	Email         string
	SessionID     string
	Payload       BookingData
	TransactionID string
	ExpiresAt     time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type PaymentRequest struct {
	BookingRef    string `json:"booking_id"`
	Amount        Amount `json:"amount"`
	Currency      string `json:"currency"`
	PaymentMethod string `json:"payment_method"`

	// IdempotencyKey identifies one charge attempt at the processor.
	IdempotencyKey string `json:"-"`
}

type PaymentResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrNoOffer            = errors.New("no flight offer selected")
	ErrOfferNotFound      = errors.New("offer not found")
	ErrOfferExpired       = errors.New("flight offer has expired")
	ErrInvalidOffer       = errors.New("flight offer cannot be priced")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrBookingNotPending  = errors.New("booking is not pending")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrStepNotReached     = errors.New("payment step not reached")
	ErrPassengerNotFound  = errors.New("passenger not found")
	ErrLastPassenger      = errors.New("at least one passenger is required")
	ErrLegNotFound        = errors.New("flight leg not found")
	ErrSeatsNotSelectable = errors.New("seat selection is not available for this flight")
)
