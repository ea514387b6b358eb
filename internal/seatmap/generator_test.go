package seatmap

import (
	"math/rand/v2"
	"testing"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Shape(t *testing.T) {
	m := NewGenerator().Generate("sli_1")

	require.Len(t, m.Seats, 180)
	assert.Equal(t, "sli_1", m.LegID)

	seen := make(map[string]bool, len(m.Seats))
	for _, s := range m.Seats {
		assert.False(t, seen[s.ID], "duplicate seat %s", s.ID)
		seen[s.ID] = true
		assert.Equal(t, SeatID(s.Row, s.Letter), s.ID)
		assert.NotEqual(t, domain.SeatStatusSelected, s.Status)
	}

	assert.Equal(t, "1A", m.Seats[0].ID)
	assert.Equal(t, "1F", m.Seats[5].ID)
	assert.Equal(t, "30F", m.Seats[179].ID)
}

func TestGenerate_PricingByRow(t *testing.T) {
	tests := []struct {
		row   int
		typ   domain.SeatType
		price domain.Amount
		exit  bool
	}{
		{1, domain.SeatTypeBusiness, 15000, false},
		{3, domain.SeatTypeBusiness, 15000, false},
		{4, domain.SeatTypePremium, 7500, false},
		{8, domain.SeatTypePremium, 7500, false},
		{9, domain.SeatTypeEconomy, 1500, false},
		{11, domain.SeatTypeEconomy, 1500, false},
		{12, domain.SeatTypePremium, 4500, true},
		{14, domain.SeatTypePremium, 4500, true},
		{15, domain.SeatTypeEconomy, 1500, false},
		{30, domain.SeatTypeEconomy, 1500, false},
	}

	// several runs: pricing never depends on occupancy
	for run := 0; run < 5; run++ {
		m := NewGenerator().Generate("leg")
		for _, tc := range tests {
			for _, letter := range Letters {
				s := m.Seat(SeatID(tc.row, letter))
				require.NotNil(t, s)
				assert.Equal(t, tc.typ, s.Type, "row %d", tc.row)
				assert.Equal(t, tc.price, s.Price, "row %d", tc.row)
				assert.Equal(t, tc.exit, s.EmergencyExit, "row %d", tc.row)
			}
		}
	}
}

func TestGenerate_OccupancyRate(t *testing.T) {
	empty := NewGenerator(WithOccupancyRate(0)).Generate("leg")
	assert.Len(t, empty.Available(), 180)

	full := NewGenerator(WithOccupancyRate(1)).Generate("leg")
	assert.Empty(t, full.Available())

	// 0.3 over 100 maps lands well inside [0.25, 0.35]
	g := NewGenerator(WithRand(rand.New(rand.NewPCG(1, 2))))
	occupied := 0
	for i := 0; i < 100; i++ {
		occupied += 180 - len(g.Generate("leg").Available())
	}
	ratio := float64(occupied) / 18000
	assert.InDelta(t, DefaultOccupancyRate, ratio, 0.05)
}

func TestSeededFor_Stable(t *testing.T) {
	a := SeededFor("session-1", "sli_1").Generate("sli_1")
	b := SeededFor("session-1", "sli_1").Generate("sli_1")
	assert.Equal(t, a, b)

	c := SeededFor("session-1", "sli_2").Generate("sli_2")
	assert.NotEqual(t, a.Seats, c.Seats)
}

func TestMap_SelectedAndClone(t *testing.T) {
	m := NewGenerator(WithOccupancyRate(0)).Generate("leg")
	assert.Nil(t, m.Selected())

	m.Seat("2B").Status = domain.SeatStatusSelected
	require.NotNil(t, m.Selected())
	assert.Equal(t, "2B", m.Selected().ID)

	c := m.Clone()
	c.Seat("2B").Status = domain.SeatStatusAvailable
	assert.Equal(t, domain.SeatStatusSelected, m.Seat("2B").Status)
	assert.Nil(t, m.Seat("31A"))
}
