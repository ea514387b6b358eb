package session

import "github.com/Domenick1991/flightbooking/internal/domain"

// Breakdown itemises the total price.
type Breakdown struct {
	Offer     domain.Amount `json:"offer"`
	Baggage   domain.Amount `json:"baggage"`
	Seats     domain.Amount `json:"seats"`
	Insurance domain.Amount `json:"insurance"`
	Total     domain.Amount `json:"total"`
	Currency  string        `json:"currency"`
}

// PriceBreakdown computes every component from current state. Nothing is
// cached between calls. All components are minor units of the offer
// currency; add-ons and seats come from the price list in hundredths and are
// converted.
func (s *Store) PriceBreakdown() Breakdown {
	var b Breakdown
	b.Currency = s.Currency()

	if s.offer != nil {
		// offers are validated before they are set, see FlightOffer.Validate
		if total, err := s.offer.Total(); err == nil {
			b.Offer = total
		}
	}

	b.Baggage = s.baggage.Price().InCurrency(b.Currency)

	var seats domain.Amount
	for _, sel := range s.seats {
		seats += sel.Chargeable()
	}
	b.Seats = seats.InCurrency(b.Currency)

	var insurance domain.Amount
	for _, p := range s.passengers {
		insurance += p.TravelInsurance.Price()
	}
	b.Insurance = insurance.InCurrency(b.Currency)

	b.Total = b.Offer + b.Baggage + b.Seats + b.Insurance
	return b
}

// TotalPrice is offer total plus baggage, manual seat and insurance add-ons.
func (s *Store) TotalPrice() domain.Amount {
	return s.PriceBreakdown().Total
}

// Currency of the total; add-ons are priced in the offer currency.
func (s *Store) Currency() string {
	if s.offer == nil || s.offer.TotalCurrency == "" {
		return "USD"
	}
	return s.offer.TotalCurrency
}
