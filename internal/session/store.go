// Package session holds the booking state of one funnel session.
//
// A Store is the single owner of the offer, passengers, baggage, seat
// selections, contact/billing details and current step. All changes go
// through its mutators; readers get copies. A Store is not safe for
// concurrent use: callers serialise access per session.
package session

import (
	"github.com/Domenick1991/flightbooking/internal/domain"
)

type Store struct {
	offer      *domain.FlightOffer
	passengers []domain.BookingPassenger
	baggage    domain.BaggageSelection
	seats      []domain.SeatSelection
	contact    domain.ContactDetails
	billing    *domain.BillingDetails
	step       domain.Step
}

type Option func(*Store)

// WithInitialOffer seeds the placeholder offer shown at session start.
func WithInitialOffer(offer *domain.FlightOffer) Option {
	return func(s *Store) {
		s.offer = offer.Clone()
	}
}

func New(opts ...Option) *Store {
	s := &Store{}
	s.Reset()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reset restores the session-start defaults. It must run after a confirmed
// payment so the same booking cannot be submitted twice.
func (s *Store) Reset() {
	s.offer = nil
	s.passengers = []domain.BookingPassenger{domain.BlankPassenger()}
	s.baggage = domain.BaggageSelection{}
	s.seats = nil
	s.contact = domain.ContactDetails{}
	s.billing = nil
	s.step = domain.StepBooking
}

// SetFlightOffer replaces the offer. Seat selections for legs the new offer
// does not contain are dropped.
func (s *Store) SetFlightOffer(offer *domain.FlightOffer) {
	s.offer = offer.Clone()

	kept := s.seats[:0:0]
	for _, sel := range s.seats {
		if s.offer != nil {
			if _, ok := s.offer.Slice(sel.FlightID); ok {
				kept = append(kept, sel)
			}
		}
	}
	s.seats = kept
}

func (s *Store) SetPassengers(passengers []domain.BookingPassenger) {
	if len(passengers) == 0 {
		s.passengers = []domain.BookingPassenger{domain.BlankPassenger()}
		return
	}
	s.passengers = append([]domain.BookingPassenger(nil), passengers...)
}

// UpdatePassenger merges patch into the passenger at index. It reports
// whether the index existed.
func (s *Store) UpdatePassenger(index int, patch domain.PassengerPatch) bool {
	if index < 0 || index >= len(s.passengers) {
		return false
	}
	s.passengers[index] = patch.Apply(s.passengers[index])
	return true
}

// AddPassenger appends a blank passenger and returns its index.
func (s *Store) AddPassenger() int {
	s.passengers = append(s.passengers, domain.BlankPassenger())
	return len(s.passengers) - 1
}

// RemovePassenger deletes the passenger at index. The last remaining
// passenger cannot be removed.
func (s *Store) RemovePassenger(index int) bool {
	if index < 0 || index >= len(s.passengers) || len(s.passengers) == 1 {
		return false
	}
	s.passengers = append(s.passengers[:index:index], s.passengers[index+1:]...)
	return true
}

func (s *Store) SetBaggage(b domain.BaggageSelection) {
	s.baggage = b.Normalized()
}

// SetSeats replaces all seat selections. When a flight id repeats, the last
// entry wins.
func (s *Store) SetSeats(seats []domain.SeatSelection) {
	s.seats = nil
	for _, sel := range seats {
		s.UpdateSeat(sel)
	}
}

// UpdateSeat inserts or replaces the selection of sel.FlightID.
func (s *Store) UpdateSeat(sel domain.SeatSelection) {
	sel = sel.Normalized()
	for i := range s.seats {
		if s.seats[i].FlightID == sel.FlightID {
			s.seats[i] = sel
			return
		}
	}
	s.seats = append(s.seats, sel)
}

func (s *Store) SetContactDetails(c domain.ContactDetails) {
	s.contact = c
}

// SetBillingDetails replaces the billing details; nil clears them.
func (s *Store) SetBillingDetails(b *domain.BillingDetails) {
	if b == nil {
		s.billing = nil
		return
	}
	c := *b
	s.billing = &c
}

func (s *Store) SetCurrentStep(step domain.Step) {
	if step.Valid() {
		s.step = step
	}
}

func (s *Store) Offer() *domain.FlightOffer {
	return s.offer.Clone()
}

func (s *Store) HasOffer() bool {
	return s.offer != nil
}

func (s *Store) Passengers() []domain.BookingPassenger {
	return append([]domain.BookingPassenger(nil), s.passengers...)
}

func (s *Store) Baggage() domain.BaggageSelection {
	return s.baggage
}

func (s *Store) Seats() []domain.SeatSelection {
	return append([]domain.SeatSelection(nil), s.seats...)
}

// Seat returns the selection recorded for a leg.
func (s *Store) Seat(flightID string) (domain.SeatSelection, bool) {
	for _, sel := range s.seats {
		if sel.FlightID == flightID {
			return sel, true
		}
	}
	return domain.SeatSelection{}, false
}

func (s *Store) Contact() domain.ContactDetails {
	return s.contact
}

func (s *Store) Billing() *domain.BillingDetails {
	if s.billing == nil {
		return nil
	}
	c := *s.billing
	return &c
}

func (s *Store) CurrentStep() domain.Step {
	return s.step
}

// BookingData returns the submission snapshot, or nil when no offer is set.
func (s *Store) BookingData() *domain.BookingData {
	if s.offer == nil {
		return nil
	}
	return &domain.BookingData{
		Offer:      *s.offer.Clone(),
		Passengers: s.Passengers(),
		Baggage:    s.baggage,
		Seats:      s.Seats(),
		Contact:    s.contact,
		Billing:    s.Billing(),
		Total:      domain.Money{Amount: s.TotalPrice(), Currency: s.Currency()},
	}
}
