package offers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

var mockCarriers = []struct {
	code, name string
}{
	{"BA", "British Airways"},
	{"AA", "American Airlines"},
	{"LH", "Lufthansa"},
	{"AF", "Air France"},
}

// MockGenerator fabricates offers locally. It stands in for the upstream API
// when that is unavailable.
type MockGenerator struct {
	mu    sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
	count int
}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:   time.Now,
		count: 3,
	}
}

func (g *MockGenerator) WithRand(r *rand.Rand) *MockGenerator {
	g.rng = r
	return g
}

func (g *MockGenerator) WithClock(now func() time.Time) *MockGenerator {
	g.now = now
	return g
}

func (g *MockGenerator) Search(_ context.Context, req SearchRequest) ([]domain.FlightOffer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	passengers := req.Passengers.Total()
	if passengers == 0 {
		passengers = 1
	}

	out := make([]domain.FlightOffer, 0, g.count)
	for i := 0; i < g.count; i++ {
		carrier := mockCarriers[g.rng.IntN(len(mockCarriers))]
		base := domain.Amount(15000+g.rng.IntN(45000)) * domain.Amount(passengers)
		tax := base * 12 / 100
		id := fmt.Sprintf("off_mock_%d_%d", now.Unix(), i)

		offer := domain.FlightOffer{
			ID:            id,
			Owner:         carrier.name,
			BaseAmount:    base.Format("USD"),
			BaseCurrency:  "USD",
			TaxAmount:     tax.Format("USD"),
			TaxCurrency:   "USD",
			TotalAmount:   (base + tax).Format("USD"),
			TotalCurrency: "USD",
			ExpiresAt:     now.Add(30 * time.Minute),
		}
		offer.Slices = append(offer.Slices, g.slice(id, 0, req.Origin, req.Destination, req.DepartureDate, req.CabinClass, carrier.code))
		if req.ReturnDate != "" {
			offer.Slices = append(offer.Slices, g.slice(id, 1, req.Destination, req.Origin, req.ReturnDate, req.CabinClass, carrier.code))
		}
		out = append(out, offer)
	}
	return out, nil
}

func (g *MockGenerator) slice(offerID string, n int, from, to, date, cabin, carrier string) domain.Slice {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		day = g.now().Truncate(24 * time.Hour)
	}
	departing := day.Add(time.Duration(6+g.rng.IntN(14)) * time.Hour)
	duration := time.Duration(90+g.rng.IntN(480)) * time.Minute

	return domain.Slice{
		ID:            fmt.Sprintf("%s_sli_%d", offerID, n),
		Origin:        from,
		Destination:   to,
		CabinClass:    cabin,
		SeatSelection: true,
		Baggages:      []domain.Baggage{{Type: "carry_on", Quantity: 1}},
		Segments: []domain.Segment{{
			ID:            fmt.Sprintf("%s_seg_%d", offerID, n),
			Origin:        from,
			Destination:   to,
			DepartingAt:   departing,
			ArrivingAt:    departing.Add(duration),
			MarketingCode: carrier,
			FlightNumber:  fmt.Sprintf("%d", 100+g.rng.IntN(900)),
			AircraftName:  "Airbus A320",
		}},
	}
}

var _ Searcher = (*MockGenerator)(nil)
