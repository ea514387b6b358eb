package offers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/sirupsen/logrus"
)

const (
	defaultDuffelURL     = "https://api.duffel.com"
	defaultDuffelVersion = "v2"
	defaultTimeout       = 30 * time.Second

	duffelLocalTime = "2006-01-02T15:04:05"
)

// DuffelClient creates offer requests against the Duffel Flights API.
type DuffelClient struct {
	baseURL    string
	token      string
	version    string
	httpClient *http.Client
	log        logrus.FieldLogger
}

func NewDuffelClient(token string) *DuffelClient {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	return &DuffelClient{
		log:        quiet,
		baseURL:    defaultDuffelURL,
		token:      token,
		version:    defaultDuffelVersion,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

func (c *DuffelClient) WithBaseURL(u string) *DuffelClient {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

func (c *DuffelClient) WithVersion(v string) *DuffelClient {
	c.version = v
	return c
}

func (c *DuffelClient) WithTimeout(d time.Duration) *DuffelClient {
	c.httpClient.Timeout = d
	return c
}

func (c *DuffelClient) WithLogger(log logrus.FieldLogger) *DuffelClient {
	c.log = log
	return c
}

type duffelPlace struct {
	IATACode string `json:"iata_code"`
}

type offerRequestBody struct {
	Data offerRequestData `json:"data"`
}

type offerRequestData struct {
	Slices     []offerRequestSlice `json:"slices"`
	Passengers []offerPassenger    `json:"passengers"`
	CabinClass string              `json:"cabin_class"`
}

type offerRequestSlice struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
}

type offerPassenger struct {
	Type string `json:"type"`
}

type offerRequestResponse struct {
	Data struct {
		ID     string        `json:"id"`
		Offers []duffelOffer `json:"offers"`
	} `json:"data"`
}

type duffelOffer struct {
	ID            string        `json:"id"`
	TotalAmount   string        `json:"total_amount"`
	TotalCurrency string        `json:"total_currency"`
	BaseAmount    string        `json:"base_amount"`
	BaseCurrency  string        `json:"base_currency"`
	TaxAmount     string        `json:"tax_amount"`
	TaxCurrency   string        `json:"tax_currency"`
	ExpiresAt     time.Time     `json:"expires_at"`
	Owner         duffelCarrier `json:"owner"`
	Slices        []duffelSlice `json:"slices"`
}

type duffelCarrier struct {
	Name     string `json:"name"`
	IATACode string `json:"iata_code"`
}

type duffelSlice struct {
	ID          string          `json:"id"`
	Origin      duffelPlace     `json:"origin"`
	Destination duffelPlace     `json:"destination"`
	Duration    string          `json:"duration"`
	Segments    []duffelSegment `json:"segments"`
}

type duffelSegment struct {
	ID                           string        `json:"id"`
	Origin                       duffelPlace   `json:"origin"`
	Destination                  duffelPlace   `json:"destination"`
	DepartingAt                  string        `json:"departing_at"`
	ArrivingAt                   string        `json:"arriving_at"`
	Duration                     string        `json:"duration"`
	MarketingCarrier             duffelCarrier `json:"marketing_carrier"`
	MarketingCarrierFlightNumber string        `json:"marketing_carrier_flight_number"`
	Aircraft                     *struct {
		Name string `json:"name"`
	} `json:"aircraft"`
	Passengers []struct {
		CabinClass string `json:"cabin_class"`
		Baggages   []struct {
			Type     string `json:"type"`
			Quantity int    `json:"quantity"`
		} `json:"baggages"`
	} `json:"passengers"`
}

type duffelErrorResponse struct {
	Errors []struct {
		Title   string `json:"title"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Search posts an offer request and returns the offers it produced.
func (c *DuffelClient) Search(ctx context.Context, req SearchRequest) ([]domain.FlightOffer, error) {
	body := offerRequestBody{Data: offerRequestData{
		Slices: []offerRequestSlice{{
			Origin:        req.Origin,
			Destination:   req.Destination,
			DepartureDate: req.DepartureDate,
		}},
		Passengers: passengerList(req.Passengers),
		CabinClass: req.CabinClass,
	}}
	if req.ReturnDate != "" {
		body.Data.Slices = append(body.Data.Slices, offerRequestSlice{
			Origin:        req.Destination,
			Destination:   req.Origin,
			DepartureDate: req.ReturnDate,
		})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode offer request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/air/offer_requests?return_offers=true", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Duffel-Version", c.version)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("offer request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d%s", resp.StatusCode, duffelErrorMessage(data))
	}

	var parsed offerRequestResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	offers := make([]domain.FlightOffer, 0, len(parsed.Data.Offers))
	for _, o := range parsed.Data.Offers {
		offer, err := toDomainOffer(o)
		if err != nil {
			c.log.WithError(err).WithField("offer_id", o.ID).Warn("skipping offer")
			continue
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

func passengerList(counts PassengerCounts) []offerPassenger {
	var out []offerPassenger
	for i := 0; i < counts.Adults; i++ {
		out = append(out, offerPassenger{Type: "adult"})
	}
	for i := 0; i < counts.Children; i++ {
		out = append(out, offerPassenger{Type: "child"})
	}
	for i := 0; i < counts.Infants; i++ {
		out = append(out, offerPassenger{Type: "infant_without_seat"})
	}
	return out
}

func duffelErrorMessage(data []byte) string {
	var e duffelErrorResponse
	if err := json.Unmarshal(data, &e); err != nil || len(e.Errors) == 0 {
		return ""
	}
	return ": " + e.Errors[0].Message
}

// toDomainOffer rejects offers whose total cannot be priced in its currency.
func toDomainOffer(o duffelOffer) (domain.FlightOffer, error) {
	offer := domain.FlightOffer{
		ID:            o.ID,
		Owner:         o.Owner.Name,
		BaseAmount:    o.BaseAmount,
		BaseCurrency:  o.BaseCurrency,
		TaxAmount:     o.TaxAmount,
		TaxCurrency:   o.TaxCurrency,
		TotalAmount:   o.TotalAmount,
		TotalCurrency: o.TotalCurrency,
		ExpiresAt:     o.ExpiresAt,
		Slices:        make([]domain.Slice, 0, len(o.Slices)),
	}

	for _, s := range o.Slices {
		slice := domain.Slice{
			ID:            s.ID,
			Origin:        s.Origin.IATACode,
			Destination:   s.Destination.IATACode,
			SeatSelection: true,
		}
		for _, seg := range s.Segments {
			segment := domain.Segment{
				ID:            seg.ID,
				Origin:        seg.Origin.IATACode,
				Destination:   seg.Destination.IATACode,
				MarketingCode: seg.MarketingCarrier.IATACode,
				FlightNumber:  seg.MarketingCarrierFlightNumber,
				DurationISO:   seg.Duration,
			}
			segment.DepartingAt, _ = time.Parse(duffelLocalTime, seg.DepartingAt)
			segment.ArrivingAt, _ = time.Parse(duffelLocalTime, seg.ArrivingAt)
			if seg.Aircraft != nil {
				segment.AircraftName = seg.Aircraft.Name
			}
			// cabin and allowances are taken from the first passenger of the first segment
			if len(seg.Passengers) > 0 && slice.CabinClass == "" {
				slice.CabinClass = seg.Passengers[0].CabinClass
				for _, b := range seg.Passengers[0].Baggages {
					slice.Baggages = append(slice.Baggages, domain.Baggage{Type: b.Type, Quantity: b.Quantity})
				}
			}
			slice.Segments = append(slice.Segments, segment)
		}
		offer.Slices = append(offer.Slices, slice)
	}
	if err := offer.Validate(); err != nil {
		return domain.FlightOffer{}, err
	}
	return offer, nil
}

var _ Searcher = (*DuffelClient)(nil)
