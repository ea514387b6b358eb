package offers

import (
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

// SampleOffer is the placeholder offer a new session starts with.
func SampleOffer(now time.Time) *domain.FlightOffer {
	departing := now.Add(14 * 24 * time.Hour).Truncate(time.Hour)
	return &domain.FlightOffer{
		ID:            "off_sample",
		Owner:         "Duffel Airways",
		BaseAmount:    "205.00",
		BaseCurrency:  "USD",
		TaxAmount:     "43.24",
		TaxCurrency:   "USD",
		TotalAmount:   "248.24",
		TotalCurrency: "USD",
		ExpiresAt:     now.Add(24 * time.Hour),
		Slices: []domain.Slice{{
			ID:            "sli_sample_out",
			Origin:        "LHR",
			Destination:   "JFK",
			CabinClass:    "economy",
			SeatSelection: true,
			Baggages:      []domain.Baggage{{Type: "carry_on", Quantity: 1}},
			Segments: []domain.Segment{{
				ID:            "seg_sample_out",
				Origin:        "LHR",
				Destination:   "JFK",
				DepartingAt:   departing,
				ArrivingAt:    departing.Add(8 * time.Hour),
				MarketingCode: "ZZ",
				FlightNumber:  "1234",
				AircraftName:  "Boeing 777-300",
			}},
		}},
	}
}
