// Package seatmap derives cabin seat maps for flight legs.
//
// Maps are generated rather than fetched: the layout and pricing are fixed
// per row range and occupancy is drawn at random when the map is built.
package seatmap

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"sync"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

const (
	Rows                 = 30
	DefaultOccupancyRate = 0.3
)

// Letters are the seat columns of every row, window to window.
var Letters = []string{"A", "B", "C", "D", "E", "F"}

// SeatsPerLeg is the size of every generated map.
var SeatsPerLeg = Rows * len(Letters)

// Classify returns the type, price and exit-row flag of a row.
func Classify(row int) (domain.SeatType, domain.Amount, bool) {
	switch {
	case row >= 1 && row <= 3:
		return domain.SeatTypeBusiness, 15000, false
	case row >= 4 && row <= 8:
		return domain.SeatTypePremium, 7500, false
	case row >= 12 && row <= 14:
		return domain.SeatTypePremium, 4500, true
	default:
		return domain.SeatTypeEconomy, 1500, false
	}
}

type Generator struct {
	mu        sync.Mutex
	rng       *rand.Rand
	occupancy float64
}

type Option func(*Generator)

// WithRand sets the randomness source used for occupancy.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		g.rng = r
	}
}

func WithOccupancyRate(p float64) Option {
	return func(g *Generator) {
		g.occupancy = p
	}
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{occupancy: DefaultOccupancyRate}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return g
}

// SeededFor returns a generator whose output depends only on the session and
// leg ids, so a leg keeps the same occupancy for the whole session.
func SeededFor(sessionID, legID string, opts ...Option) *Generator {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sessionID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(legID))
	seed := h.Sum64()
	opts = append([]Option{WithRand(rand.New(rand.NewPCG(seed, seed>>1|1)))}, opts...)
	return NewGenerator(opts...)
}

// Generate builds the seat map of a leg, ordered by row then letter.
func (g *Generator) Generate(legID string) *Map {
	g.mu.Lock()
	defer g.mu.Unlock()

	seats := make([]domain.Seat, 0, SeatsPerLeg)
	for row := 1; row <= Rows; row++ {
		seatType, price, exit := Classify(row)
		for _, letter := range Letters {
			status := domain.SeatStatusAvailable
			if g.rng.Float64() < g.occupancy {
				status = domain.SeatStatusOccupied
			}
			seats = append(seats, domain.Seat{
				ID:            SeatID(row, letter),
				Row:           row,
				Letter:        letter,
				Type:          seatType,
				Price:         price,
				Status:        status,
				EmergencyExit: exit,
			})
		}
	}
	return &Map{LegID: legID, Seats: seats}
}

func SeatID(row int, letter string) string {
	return fmt.Sprintf("%d%s", row, letter)
}
