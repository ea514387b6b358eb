package search

import (
	"context"
	"fmt"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/offers"
	"github.com/sirupsen/logrus"
)

type SearchUseCase interface {
	Search(ctx context.Context, req offers.SearchRequest) (*Result, error)
}

type Cache interface {
	GetSearch(ctx context.Context, key string) ([]domain.FlightOffer, error)
	SetSearch(ctx context.Context, key string, offers []domain.FlightOffer) error
}

// Source tells where offers came from.
type Source string

const (
	SourceUpstream Source = "upstream"
	SourceCache    Source = "cache"
	SourceMock     Source = "mock"
)

type Result struct {
	Offers  []domain.FlightOffer `json:"offers"`
	Source  Source               `json:"source"`
	Message string               `json:"message,omitempty"`
}

type SearchService struct {
	primary  offers.Searcher
	fallback offers.Searcher
	cache    Cache
	log      logrus.FieldLogger
}

type SearchServiceOption func(*SearchService)

// WithFallback sets the searcher used when the primary one fails.
func WithFallback(fallback offers.Searcher) SearchServiceOption {
	return func(s *SearchService) {
		s.fallback = fallback
	}
}

func WithCache(cache Cache) SearchServiceOption {
	return func(s *SearchService) {
		s.cache = cache
	}
}

func NewSearchService(primary offers.Searcher, log logrus.FieldLogger, opts ...SearchServiceOption) *SearchService {
	s := &SearchService{primary: primary, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns offers for req. Upstream failures do not fail the call
// when a fallback is configured: the fallback offers are returned with a
// message describing what happened.
func (s *SearchService) Search(ctx context.Context, req offers.SearchRequest) (*Result, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	key := req.Key()
	fields := logrus.Fields{"search": key}

	if s.cache != nil {
		if cached, err := s.cache.GetSearch(ctx, key); err == nil && cached != nil {
			return &Result{Offers: cached, Source: SourceCache, Message: emptyMessage(req, cached)}, nil
		} else if err != nil {
			s.log.WithFields(fields).WithError(err).Warn("search cache read failed")
		}
	}

	found, err := s.searchPrimary(ctx, req)
	if err == nil {
		if s.cache != nil {
			if err := s.cache.SetSearch(ctx, key, found); err != nil {
				s.log.WithFields(fields).WithError(err).Warn("search cache write failed")
			}
		}
		return &Result{Offers: found, Source: SourceUpstream, Message: emptyMessage(req, found)}, nil
	}

	s.log.WithFields(fields).WithError(err).Error("offer search failed")
	if s.fallback == nil {
		return &Result{Offers: []domain.FlightOffer{}, Source: SourceUpstream, Message: "Flight search is unavailable right now. Please try again."}, nil
	}

	mocked, ferr := s.fallback.Search(ctx, req)
	if ferr != nil {
		s.log.WithFields(fields).WithError(ferr).Error("fallback search failed")
		return &Result{Offers: []domain.FlightOffer{}, Source: SourceMock, Message: "Flight search is unavailable right now. Please try again."}, nil
	}
	return &Result{
		Offers:  mocked,
		Source:  SourceMock,
		Message: "Live flight search is unavailable; showing sample offers.",
	}, nil
}

func (s *SearchService) searchPrimary(ctx context.Context, req offers.SearchRequest) ([]domain.FlightOffer, error) {
	if s.primary == nil {
		return nil, fmt.Errorf("no offer search configured")
	}
	found, err := s.primary.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	if found == nil {
		found = []domain.FlightOffer{}
	}
	return found, nil
}

func emptyMessage(req offers.SearchRequest, found []domain.FlightOffer) string {
	if len(found) > 0 {
		return ""
	}
	return fmt.Sprintf("No flights found from %s to %s on %s.", req.Origin, req.Destination, req.DepartureDate)
}

var _ SearchUseCase = (*SearchService)(nil)
