package session

import (
	"encoding/json"
	"fmt"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

// SnapshotVersion is the current durable schema version.
const SnapshotVersion = 1

// Snapshot is the durable form of a Store. Its layout is versioned
// independently from Store so persisted sessions survive refactors.
type Snapshot struct {
	Version    int                       `json:"version"`
	Offer      *domain.FlightOffer       `json:"offer,omitempty"`
	Passengers []domain.BookingPassenger `json:"passengers"`
	Baggage    domain.BaggageSelection   `json:"baggage"`
	Seats      []domain.SeatSelection    `json:"seats,omitempty"`
	Contact    domain.ContactDetails     `json:"contact"`
	Billing    *domain.BillingDetails    `json:"billing,omitempty"`
	Step       domain.Step               `json:"step"`
}

func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Version:    SnapshotVersion,
		Offer:      s.offer.Clone(),
		Passengers: s.Passengers(),
		Baggage:    s.baggage,
		Seats:      s.Seats(),
		Contact:    s.contact,
		Billing:    s.Billing(),
		Step:       s.step,
	}
}

// Restore rebuilds a Store from a snapshot, applying the same normalisation
// as the mutators.
func Restore(snap Snapshot) (*Store, error) {
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported session snapshot version %d", snap.Version)
	}

	s := New()
	s.offer = snap.Offer.Clone()
	s.SetPassengers(snap.Passengers)
	s.SetBaggage(snap.Baggage)
	s.SetSeats(snap.Seats)
	s.SetContactDetails(snap.Contact)
	s.SetBillingDetails(snap.Billing)
	s.SetCurrentStep(snap.Step)
	return s, nil
}

// Marshal encodes the snapshot of s for the session slot.
func Marshal(s *Store) ([]byte, error) {
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("encode session snapshot: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a session slot value.
func Unmarshal(data []byte) (*Store, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode session snapshot: %w", err)
	}
	return Restore(snap)
}
