// Package offers searches flight offers upstream and provides local
// stand-ins with the same shape.
package offers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

type PassengerCounts struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

func (p PassengerCounts) Total() int {
	return p.Adults + p.Children + p.Infants
}

type SearchRequest struct {
	Origin        string          `json:"origin" binding:"required,len=3"`
	Destination   string          `json:"destination" binding:"required,len=3"`
	DepartureDate string          `json:"departure_date" binding:"required,datetime=2006-01-02"`
	ReturnDate    string          `json:"return_date,omitempty" binding:"omitempty,datetime=2006-01-02"`
	Passengers    PassengerCounts `json:"passengers"`
	CabinClass    string          `json:"cabin_class,omitempty" binding:"omitempty,oneof=economy premium_economy business first"`
}

var ErrInvalidSearch = errors.New("invalid search request")

// Normalize upper-cases airports, defaults cabin and passenger count, and
// checks the request is searchable.
func (r SearchRequest) Normalize() (SearchRequest, error) {
	r.Origin = strings.ToUpper(strings.TrimSpace(r.Origin))
	r.Destination = strings.ToUpper(strings.TrimSpace(r.Destination))
	if r.CabinClass == "" {
		r.CabinClass = "economy"
	}
	if r.Passengers.Total() == 0 {
		r.Passengers.Adults = 1
	}
	if r.Origin == "" || r.Destination == "" || r.DepartureDate == "" {
		return r, fmt.Errorf("%w: origin, destination and departure date are required", ErrInvalidSearch)
	}
	if r.Origin == r.Destination {
		return r, fmt.Errorf("%w: origin equals destination", ErrInvalidSearch)
	}
	if r.Passengers.Adults < 0 || r.Passengers.Children < 0 || r.Passengers.Infants < 0 {
		return r, fmt.Errorf("%w: negative passenger count", ErrInvalidSearch)
	}
	return r, nil
}

// Key identifies equivalent searches for caching.
func (r SearchRequest) Key() string {
	return fmt.Sprintf("%s-%s-%s-%s-%d-%d-%d-%s",
		r.Origin, r.Destination, r.DepartureDate, r.ReturnDate,
		r.Passengers.Adults, r.Passengers.Children, r.Passengers.Infants, r.CabinClass)
}

type Searcher interface {
	Search(ctx context.Context, req SearchRequest) ([]domain.FlightOffer, error)
}
