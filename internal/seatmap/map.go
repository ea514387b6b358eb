package seatmap

import "github.com/Domenick1991/flightbooking/internal/domain"

// Map is the seat layout of one leg.
type Map struct {
	LegID string        `json:"leg_id"`
	Seats []domain.Seat `json:"seats"`
}

// Seat returns a pointer into the map so callers can change its status.
func (m *Map) Seat(id string) *domain.Seat {
	for i := range m.Seats {
		if m.Seats[i].ID == id {
			return &m.Seats[i]
		}
	}
	return nil
}

func (m *Map) Available() []*domain.Seat {
	var out []*domain.Seat
	for i := range m.Seats {
		if m.Seats[i].Status == domain.SeatStatusAvailable {
			out = append(out, &m.Seats[i])
		}
	}
	return out
}

// Selected returns the selected seat, or nil.
func (m *Map) Selected() *domain.Seat {
	for i := range m.Seats {
		if m.Seats[i].Status == domain.SeatStatusSelected {
			return &m.Seats[i]
		}
	}
	return nil
}

func (m *Map) Clone() *Map {
	if m == nil {
		return nil
	}
	return &Map{LegID: m.LegID, Seats: append([]domain.Seat(nil), m.Seats...)}
}
