// Package seating applies seat picks to the seat maps of an offer and
// records them in the session store.
package seating

import (
	"math/rand/v2"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/seatmap"
	"github.com/Domenick1991/flightbooking/internal/session"
)

type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeDenied    Outcome = "denied"
	OutcomeExhausted Outcome = "exhausted"
)

// Denial reasons.
const (
	ReasonLegNotSelectable = "seat selection is not available for this flight"
	ReasonMapNotLoaded     = "seat map is not loaded"
	ReasonUnknownSeat      = "unknown seat"
	ReasonSeatUnavailable  = "seat is not available"
	ReasonNoFreeSeats      = "no free seats left"
)

type Result struct {
	Outcome      Outcome       `json:"outcome"`
	LegID        string        `json:"leg_id"`
	SeatID       string        `json:"seat_id,omitempty"`
	Price        domain.Amount `json:"price"`
	AutoAssigned bool          `json:"auto_assigned,omitempty"`
	Reason       string        `json:"reason,omitempty"`
}

func (r Result) OK() bool {
	return r.Outcome == OutcomeSuccess
}

func denied(legID, seatID, reason string) Result {
	return Result{Outcome: OutcomeDenied, LegID: legID, SeatID: seatID, Reason: reason}
}

// Controller enforces at most one selected seat per leg. The store is the
// record of truth for selections; the maps carry seat statuses for display.
type Controller struct {
	store *session.Store
	maps  map[string]*seatmap.Map
	pick  func(n int) int
}

type Option func(*Controller)

// WithPicker replaces the uniform random choice used by AutoAssignMissing.
// pick receives the number of candidates and returns an index.
func WithPicker(pick func(n int) int) Option {
	return func(c *Controller) {
		c.pick = pick
	}
}

func NewController(store *session.Store, maps map[string]*seatmap.Map, opts ...Option) *Controller {
	if maps == nil {
		maps = make(map[string]*seatmap.Map)
	}
	c := &Controller{store: store, maps: maps, pick: rand.IntN}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Map returns the seat map held for a leg.
func (c *Controller) Map(legID string) *seatmap.Map {
	return c.maps[legID]
}

// Maps returns all seat maps keyed by leg id.
func (c *Controller) Maps() map[string]*seatmap.Map {
	return c.maps
}

// RequiredLegs lists the legs that allow, and therefore require, a seat.
func (c *Controller) RequiredLegs() []string {
	offer := c.store.Offer()
	if offer == nil {
		return nil
	}
	var legs []string
	for _, s := range offer.Slices {
		if s.SeatSelection {
			legs = append(legs, s.ID)
		}
	}
	return legs
}

func (c *Controller) selectable(legID string) bool {
	for _, id := range c.RequiredLegs() {
		if id == legID {
			return true
		}
	}
	return false
}

// SelectSeat makes seatID the only selected seat of legID and records a paid
// manual selection.
func (c *Controller) SelectSeat(legID, seatID string) Result {
	if !c.selectable(legID) {
		return denied(legID, seatID, ReasonLegNotSelectable)
	}
	m := c.maps[legID]
	if m == nil {
		return denied(legID, seatID, ReasonMapNotLoaded)
	}
	seat := m.Seat(seatID)
	if seat == nil {
		return denied(legID, seatID, ReasonUnknownSeat)
	}
	if seat.Status != domain.SeatStatusAvailable {
		return denied(legID, seatID, ReasonSeatUnavailable)
	}

	releaseSelected(m)
	seat.Status = domain.SeatStatusSelected
	c.store.UpdateSeat(domain.SeatSelection{
		FlightID: legID,
		SeatID:   seat.ID,
		Price:    seat.Price,
	})
	return Result{Outcome: OutcomeSuccess, LegID: legID, SeatID: seat.ID, Price: seat.Price}
}

// CancelSeat frees the selected seat of legID and clears its selection.
func (c *Controller) CancelSeat(legID string) Result {
	if !c.selectable(legID) {
		return denied(legID, "", ReasonLegNotSelectable)
	}
	if m := c.maps[legID]; m != nil {
		releaseSelected(m)
	}
	c.store.UpdateSeat(domain.SeatSelection{FlightID: legID})
	return Result{Outcome: OutcomeSuccess, LegID: legID}
}

// AutoAssignMissing gives every selectable leg without a seat a random free
// seat at no charge. Legs that already have a seat are left alone. A leg with
// no free seat yields an exhausted result and stays unassigned.
func (c *Controller) AutoAssignMissing() []Result {
	var results []Result
	for _, legID := range c.RequiredLegs() {
		if sel, ok := c.store.Seat(legID); ok && sel.SeatID != "" {
			continue
		}
		m := c.maps[legID]
		if m == nil {
			results = append(results, denied(legID, "", ReasonMapNotLoaded))
			continue
		}
		free := m.Available()
		if len(free) == 0 {
			results = append(results, Result{Outcome: OutcomeExhausted, LegID: legID, Reason: ReasonNoFreeSeats})
			continue
		}

		seat := free[c.pick(len(free))]
		releaseSelected(m)
		seat.Status = domain.SeatStatusSelected
		c.store.UpdateSeat(domain.SeatSelection{
			FlightID:     legID,
			SeatID:       seat.ID,
			AutoAssigned: true,
		})
		results = append(results, Result{Outcome: OutcomeSuccess, LegID: legID, SeatID: seat.ID, AutoAssigned: true})
	}
	return results
}

// CanContinue reports whether every selectable leg has a seat.
func (c *Controller) CanContinue() bool {
	for _, legID := range c.RequiredLegs() {
		sel, ok := c.store.Seat(legID)
		if !ok || sel.SeatID == "" {
			return false
		}
	}
	return true
}

// SyncMaps aligns seat statuses with the selections in the store, e.g. after
// a map was regenerated. The recorded seat is marked selected even if the new
// draw marked it occupied.
func (c *Controller) SyncMaps() {
	for legID, m := range c.maps {
		releaseSelected(m)
		sel, ok := c.store.Seat(legID)
		if !ok || sel.SeatID == "" {
			continue
		}
		if seat := m.Seat(sel.SeatID); seat != nil {
			seat.Status = domain.SeatStatusSelected
		}
	}
}

func releaseSelected(m *seatmap.Map) {
	for i := range m.Seats {
		if m.Seats[i].Status == domain.SeatStatusSelected {
			m.Seats[i].Status = domain.SeatStatusAvailable
		}
	}
}
