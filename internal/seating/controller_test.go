package seating

import (
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/seatmap"
	"github.com/Domenick1991/flightbooking/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore() *session.Store {
	return session.New(session.WithInitialOffer(&domain.FlightOffer{
		ID:            "off_1",
		TotalAmount:   "248.24",
		TotalCurrency: "USD",
		ExpiresAt:     time.Now().Add(time.Hour),
		Slices: []domain.Slice{
			{ID: "out", SeatSelection: true},
			{ID: "ret", SeatSelection: true},
			{ID: "hop", SeatSelection: false},
		},
	}))
}

func emptyMaps(legs ...string) map[string]*seatmap.Map {
	g := seatmap.NewGenerator(seatmap.WithOccupancyRate(0))
	maps := make(map[string]*seatmap.Map, len(legs))
	for _, leg := range legs {
		maps[leg] = g.Generate(leg)
	}
	return maps
}

func selectedSeats(m *seatmap.Map) []string {
	var ids []string
	for _, s := range m.Seats {
		if s.Status == domain.SeatStatusSelected {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

func TestSelectSeat_LastValidSelectionWins(t *testing.T) {
	store := newStore()
	c := NewController(store, emptyMaps("out", "ret"))
	c.Map("out").Seat("7C").Status = domain.SeatStatusOccupied

	assert.True(t, c.SelectSeat("out", "1A").OK())
	assert.True(t, c.SelectSeat("out", "12C").OK())
	assert.False(t, c.SelectSeat("out", "7C").OK(), "occupied seat")
	assert.False(t, c.SelectSeat("out", "99Z").OK(), "unknown seat")
	assert.False(t, c.SelectSeat("out", "12C").OK(), "already selected")

	assert.Equal(t, []string{"12C"}, selectedSeats(c.Map("out")))
	sel, ok := store.Seat("out")
	require.True(t, ok)
	assert.Equal(t, domain.SeatSelection{FlightID: "out", SeatID: "12C", Price: 4500}, sel)
	assert.Equal(t, domain.SeatStatusAvailable, c.Map("out").Seat("1A").Status)
	assert.Equal(t, "293.24", store.TotalPrice().String())
}

func TestSelectSeat_Denials(t *testing.T) {
	store := newStore()
	c := NewController(store, emptyMaps("out"))

	r := c.SelectSeat("hop", "1A")
	assert.Equal(t, OutcomeDenied, r.Outcome)
	assert.Equal(t, ReasonLegNotSelectable, r.Reason)

	r = c.SelectSeat("ret", "1A")
	assert.Equal(t, OutcomeDenied, r.Outcome)
	assert.Equal(t, ReasonMapNotLoaded, r.Reason)

	r = c.SelectSeat("out", "1G")
	assert.Equal(t, ReasonUnknownSeat, r.Reason)

	assert.Empty(t, store.Seats())
}

func TestCancelSeat_BlocksContinue(t *testing.T) {
	store := newStore()
	c := NewController(store, emptyMaps("out", "ret"))

	require.True(t, c.SelectSeat("out", "3F").OK())
	require.True(t, c.SelectSeat("ret", "20A").OK())
	assert.True(t, c.CanContinue())

	r := c.CancelSeat("out")
	assert.True(t, r.OK())
	assert.False(t, c.CanContinue())
	assert.Empty(t, selectedSeats(c.Map("out")))

	sel, ok := store.Seat("out")
	require.True(t, ok)
	assert.Empty(t, sel.SeatID)
	assert.Equal(t, domain.Amount(0), sel.Price)

	require.True(t, c.SelectSeat("out", "3F").OK())
	assert.True(t, c.CanContinue())
}

func TestAutoAssignMissing(t *testing.T) {
	store := newStore()
	c := NewController(store, emptyMaps("out", "ret"), WithPicker(func(n int) int { return n - 1 }))

	require.True(t, c.SelectSeat("out", "2B").OK())

	results := c.AutoAssignMissing()
	require.Len(t, results, 1)
	assert.Equal(t, Result{Outcome: OutcomeSuccess, LegID: "ret", SeatID: "30F", AutoAssigned: true}, results[0])

	sel, _ := store.Seat("ret")
	assert.True(t, sel.AutoAssigned)
	assert.Equal(t, domain.Amount(0), sel.Price)
	assert.Equal(t, []string{"30F"}, selectedSeats(c.Map("ret")))

	// manual 2B is 150, the auto seat is free regardless of its row price
	assert.Equal(t, "398.24", store.TotalPrice().String())
	assert.True(t, c.CanContinue())
}

func TestAutoAssignMissing_Idempotent(t *testing.T) {
	store := newStore()
	c := NewController(store, emptyMaps("out", "ret"))

	first := c.AutoAssignMissing()
	require.Len(t, first, 2)
	before := store.Seats()

	second := c.AutoAssignMissing()
	assert.Empty(t, second)
	assert.Equal(t, before, store.Seats())
}

func TestAutoAssignMissing_Exhausted(t *testing.T) {
	store := newStore()
	maps := emptyMaps("out")
	maps["ret"] = seatmap.NewGenerator(seatmap.WithOccupancyRate(1)).Generate("ret")
	c := NewController(store, maps)

	results := c.AutoAssignMissing()
	require.Len(t, results, 2)
	assert.Equal(t, OutcomeSuccess, results[0].Outcome)
	assert.Equal(t, OutcomeExhausted, results[1].Outcome)
	assert.Equal(t, "ret", results[1].LegID)

	_, ok := store.Seat("ret")
	assert.False(t, ok)
	assert.False(t, c.CanContinue())
}

func TestCanContinue_NoSelectableLegs(t *testing.T) {
	store := session.New(session.WithInitialOffer(&domain.FlightOffer{
		ID:     "off",
		Slices: []domain.Slice{{ID: "hop"}},
	}))
	c := NewController(store, nil)

	assert.True(t, c.CanContinue())
	assert.Empty(t, c.AutoAssignMissing())
}

func TestSyncMaps_AfterRegeneration(t *testing.T) {
	store := newStore()
	c := NewController(store, emptyMaps("out"))
	require.True(t, c.SelectSeat("out", "5D").OK())

	fresh := seatmap.NewGenerator(seatmap.WithOccupancyRate(1)).Generate("out")
	c2 := NewController(store, map[string]*seatmap.Map{"out": fresh})
	c2.SyncMaps()

	assert.Equal(t, []string{"5D"}, selectedSeats(c2.Map("out")))
}
