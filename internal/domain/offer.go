package domain

import (
	"fmt"
	"time"
)

// FlightOffer is a priced, time-limited quote from the search API. It is
// replaced wholesale on a new selection and never mutated in place.
type FlightOffer struct {
	ID            string    `json:"id"`
	Owner         string    `json:"owner,omitempty"`
	BaseAmount    string    `json:"base_amount"`
	BaseCurrency  string    `json:"base_currency"`
	TaxAmount     string    `json:"tax_amount"`
	TaxCurrency   string    `json:"tax_currency"`
	TotalAmount   string    `json:"total_amount"`
	TotalCurrency string    `json:"total_currency"`
	Slices        []Slice   `json:"slices"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Slice is one directional leg of the itinerary.
type Slice struct {
	ID          string    `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Segments    []Segment `json:"segments"`
	CabinClass  string    `json:"cabin_class"`

	// SeatSelection reports whether seats can be chosen for this leg. Legs
	// that allow it also require a seat before payment.
	SeatSelection bool      `json:"seat_selection"`
	Baggages      []Baggage `json:"baggages,omitempty"`
}

// Segment is a single flight within a slice.
type Segment struct {
	ID            string    `json:"id"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartingAt   time.Time `json:"departing_at"`
	ArrivingAt    time.Time `json:"arriving_at"`
	MarketingCode string    `json:"marketing_carrier"`
	FlightNumber  string    `json:"flight_number"`
	AircraftName  string    `json:"aircraft,omitempty"`
	DurationISO   string    `json:"duration,omitempty"`
}

// Baggage is an included allowance on a slice.
type Baggage struct {
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
}

// Total parses TotalAmount in minor units of TotalCurrency.
func (o *FlightOffer) Total() (Amount, error) {
	return ParseMoney(o.TotalAmount, o.TotalCurrency)
}

// Validate rejects offers that cannot be priced.
func (o *FlightOffer) Validate() error {
	if _, err := o.Total(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidOffer, o.ID, err)
	}
	return nil
}

// Expired reports whether the offer can no longer be booked at now.
func (o *FlightOffer) Expired(now time.Time) bool {
	return !o.ExpiresAt.IsZero() && !now.Before(o.ExpiresAt)
}

// Slice returns the slice with the given id.
func (o *FlightOffer) Slice(id string) (*Slice, bool) {
	for i := range o.Slices {
		if o.Slices[i].ID == id {
			return &o.Slices[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy.
func (o *FlightOffer) Clone() *FlightOffer {
	if o == nil {
		return nil
	}
	c := *o
	c.Slices = make([]Slice, len(o.Slices))
	for i, s := range o.Slices {
		s.Segments = append([]Segment(nil), s.Segments...)
		s.Baggages = append([]Baggage(nil), s.Baggages...)
		c.Slices[i] = s
	}
	return &c
}
