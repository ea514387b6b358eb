package domain

type SeatType string

const (
	SeatTypeEconomy  SeatType = "economy"
	SeatTypePremium  SeatType = "premium"
	SeatTypeBusiness SeatType = "business"
)

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusOccupied  SeatStatus = "occupied"
	SeatStatusSelected  SeatStatus = "selected"
)

// Seat is a generated cabin seat. ID is row number followed by letter, e.g. "12C".
type Seat struct {
	ID            string     `json:"id"`
	Row           int        `json:"row"`
	Letter        string     `json:"letter"`
	Type          SeatType   `json:"type"`
	Price         Amount     `json:"price"`
	Status        SeatStatus `json:"status"`
	EmergencyExit bool       `json:"emergency_exit,omitempty"`
}

// SeatSelection records the seat chosen for one leg. An empty SeatID means
// no seat. Auto-assigned seats are always free.
type SeatSelection struct {
	FlightID     string `json:"flight_id"`
	SeatID       string `json:"seat_id,omitempty"`
	AutoAssigned bool   `json:"auto_assigned"`
	Price        Amount `json:"price"`
}

// Normalized enforces the pricing rules of a selection.
func (s SeatSelection) Normalized() SeatSelection {
	if s.AutoAssigned || s.SeatID == "" || s.Price < 0 {
		s.Price = 0
	}
	if s.SeatID == "" {
		s.AutoAssigned = false
	}
	return s
}

// Chargeable is the amount the selection adds to the total.
func (s SeatSelection) Chargeable() Amount {
	n := s.Normalized()
	return n.Price
}
