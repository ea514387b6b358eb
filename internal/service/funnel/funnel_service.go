// Package funnel runs booking funnel operations against persisted sessions.
// Every operation loads the session snapshot, applies one change through the
// session store and saves the result.
package funnel

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/offers"
	"github.com/Domenick1991/flightbooking/internal/seating"
	"github.com/Domenick1991/flightbooking/internal/seatmap"
	"github.com/Domenick1991/flightbooking/internal/service/checkout"
	"github.com/Domenick1991/flightbooking/internal/service/search"
	"github.com/Domenick1991/flightbooking/internal/session"
	"github.com/Domenick1991/flightbooking/internal/steps"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type FunnelUseCase interface {
	StartSession(ctx context.Context) (*View, error)
	GetSession(ctx context.Context, id string) (*View, error)
	ResetSession(ctx context.Context, id string) (*View, error)
	Search(ctx context.Context, id string, req offers.SearchRequest) (*search.Result, error)
	SetOffer(ctx context.Context, id string, offer *domain.FlightOffer) (*View, error)
	SelectOffer(ctx context.Context, id, offerID string) (*View, error)
	SetPassengers(ctx context.Context, id string, passengers []domain.BookingPassenger) (*View, error)
	UpdatePassenger(ctx context.Context, id string, index int, patch domain.PassengerPatch) (*View, error)
	AddPassenger(ctx context.Context, id string) (*View, error)
	RemovePassenger(ctx context.Context, id string, index int) (*View, error)
	SetBaggage(ctx context.Context, id string, baggage domain.BaggageSelection) (*View, error)
	SetContact(ctx context.Context, id string, contact domain.ContactDetails) (*View, error)
	SetBilling(ctx context.Context, id string, billing *domain.BillingDetails) (*View, error)
	ProceedToSeats(ctx context.Context, id string) (*Gate, error)
	ProceedToPayment(ctx context.Context, id string) (*Gate, error)
	SeatMap(ctx context.Context, id, legID string) (*seatmap.Map, error)
	SelectSeat(ctx context.Context, id, legID, seatID string) (*SeatResponse, error)
	CancelSeat(ctx context.Context, id, legID string) (*SeatResponse, error)
	AutoAssignSeats(ctx context.Context, id string) (*AutoAssignResponse, error)
	Checkout(ctx context.Context, id, paymentMethod string) (*CheckoutResult, error)
	PayBooking(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error)
}

type Cache interface {
	LoadSession(ctx context.Context, id string) ([]byte, error)
	SaveSession(ctx context.Context, id string, data []byte) error
	GetSeatMap(ctx context.Context, id, legID string) (*seatmap.Map, error)
	SetSeatMap(ctx context.Context, id string, m *seatmap.Map) error
	DeleteSeatMaps(ctx context.Context, id string) error
	GetSessionOffers(ctx context.Context, id string) ([]domain.FlightOffer, error)
	SetSessionOffers(ctx context.Context, id string, offers []domain.FlightOffer) error
	AcquireCheckoutLock(ctx context.Context, id string, ttl time.Duration) (string, bool, error)
	ReleaseCheckoutLock(ctx context.Context, id, token string) error
}

// View is what clients see of a session.
type View struct {
	ID string `json:"id"`
	session.Snapshot
	Price             session.Breakdown `json:"price"`
	MissingFields     []string          `json:"missing_fields"`
	CanProceedToSeats bool              `json:"can_proceed_to_seats"`
	SeatsComplete     bool              `json:"seats_complete"`
}

// Gate is the answer of a step transition. A denial is not an error.
type Gate struct {
	Allowed      bool             `json:"allowed"`
	Step         domain.Step      `json:"step"`
	Missing      []string         `json:"missing,omitempty"`
	AutoAssigned []seating.Result `json:"auto_assigned,omitempty"`
	Session      *View            `json:"session"`
}

type SeatResponse struct {
	Result  seating.Result `json:"result"`
	Session *View          `json:"session"`
}

type AutoAssignResponse struct {
	Results []seating.Result `json:"results"`
	Session *View            `json:"session"`
}

type CheckoutResult struct {
	BookingReference string               `json:"booking_reference"`
	Status           domain.BookingStatus `json:"status"`
	Total            domain.Money         `json:"total"`
	Payment          domain.PaymentResult `json:"payment"`
	Session          *View                `json:"session"`
}

const lockStripes = 64

type FunnelService struct {
	cache       Cache
	search      search.SearchUseCase
	checkout    checkout.CheckoutUseCase
	progression *steps.Progression
	log         logrus.FieldLogger

	regeneration    string
	occupancyRate   float64
	seedSample      bool
	checkoutLockTTL time.Duration

	now          func() time.Time
	newID        func() string
	seatOpts     []seating.Option
	generateOpts []seatmap.Option

	// loads and saves of one session are serialised in-process
	locks [lockStripes]sync.Mutex
}

type FunnelServiceOption func(*FunnelService)

func WithClock(now func() time.Time) FunnelServiceOption {
	return func(s *FunnelService) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) FunnelServiceOption {
	return func(s *FunnelService) {
		s.newID = newID
	}
}

func WithSeatingOptions(opts ...seating.Option) FunnelServiceOption {
	return func(s *FunnelService) {
		s.seatOpts = append(s.seatOpts, opts...)
	}
}

func WithGeneratorOptions(opts ...seatmap.Option) FunnelServiceOption {
	return func(s *FunnelService) {
		s.generateOpts = append(s.generateOpts, opts...)
	}
}

func NewFunnelService(
	cache Cache,
	searchSvc search.SearchUseCase,
	checkoutSvc checkout.CheckoutUseCase,
	log logrus.FieldLogger,
	cfg *config.Config,
	opts ...FunnelServiceOption,
) *FunnelService {
	s := &FunnelService{
		cache:           cache,
		search:          searchSvc,
		checkout:        checkoutSvc,
		progression:     steps.NewProgression(),
		log:             log,
		regeneration:    cfg.SeatMap.Regeneration,
		occupancyRate:   cfg.SeatMap.OccupancyRate,
		seedSample:      cfg.Session.SeedSampleOffer,
		checkoutLockTTL: time.Duration(cfg.Booking.CheckoutLockTTLSeconds) * time.Second,
		now:             time.Now,
		newID:           uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FunnelService) StartSession(ctx context.Context) (*View, error) {
	id := s.newID()

	var opts []session.Option
	if s.seedSample {
		opts = append(opts, session.WithInitialOffer(offers.SampleOffer(s.now())))
	}
	st := session.New(opts...)

	if err := s.save(ctx, id, st); err != nil {
		return nil, err
	}
	s.log.WithField("session_id", id).Info("session started")
	return s.view(id, st), nil
}

func (s *FunnelService) GetSession(ctx context.Context, id string) (*View, error) {
	unlock := s.lock(id)
	defer unlock()

	st, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(id, st), nil
}

func (s *FunnelService) ResetSession(ctx context.Context, id string) (*View, error) {
	return s.update(ctx, id, func(st *session.Store) error {
		st.Reset()
		return s.cache.DeleteSeatMaps(ctx, id)
	})
}

// Search runs an offer search and remembers the results so one of them can
// be selected by id.
func (s *FunnelService) Search(ctx context.Context, id string, req offers.SearchRequest) (*search.Result, error) {
	if _, err := s.cache.LoadSession(ctx, id); err != nil {
		return nil, err
	}

	result, err := s.search.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetSessionOffers(ctx, id, result.Offers); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *FunnelService) SetOffer(ctx context.Context, id string, offer *domain.FlightOffer) (*View, error) {
	if offer == nil {
		return nil, domain.ErrNoOffer
	}
	if offer.Expired(s.now()) {
		return nil, domain.ErrOfferExpired
	}
	if err := offer.Validate(); err != nil {
		return nil, err
	}
	return s.update(ctx, id, func(st *session.Store) error {
		st.SetFlightOffer(offer)
		st.SetCurrentStep(domain.StepBooking)
		return s.cache.DeleteSeatMaps(ctx, id)
	})
}

func (s *FunnelService) SelectOffer(ctx context.Context, id, offerID string) (*View, error) {
	found, err := s.cache.GetSessionOffers(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range found {
		if found[i].ID == offerID {
			return s.SetOffer(ctx, id, &found[i])
		}
	}
	return nil, domain.ErrOfferNotFound
}

func (s *FunnelService) SetPassengers(ctx context.Context, id string, passengers []domain.BookingPassenger) (*View, error) {
	return s.update(ctx, id, func(st *session.Store) error {
		st.SetPassengers(passengers)
		return nil
	})
}

func (s *FunnelService) UpdatePassenger(ctx context.Context, id string, index int, patch domain.PassengerPatch) (*View, error) {
	return s.update(ctx, id, func(st *session.Store) error {
		if !st.UpdatePassenger(index, patch) {
			return domain.ErrPassengerNotFound
		}
		return nil
	})
}

func (s *FunnelService) AddPassenger(ctx context.Context, id string) (*View, error) {
	return s.update(ctx, id, func(st *session.Store) error {
		st.AddPassenger()
		return nil
	})
}

func (s *FunnelService) RemovePassenger(ctx context.Context, id string, index int) (*View, error) {
	return s.update(ctx, id, func(st *session.Store) error {
		n := len(st.Passengers())
		if index < 0 || index >= n {
			return domain.ErrPassengerNotFound
		}
		if n == 1 {
			return domain.ErrLastPassenger
		}
		st.RemovePassenger(index)
		return nil
	})
}

func (s *FunnelService) SetBaggage(ctx context.Context, id string, baggage domain.BaggageSelection) (*View, error) {
	return s.update(ctx, id, func(st *session.Store) error {
		st.SetBaggage(baggage)
		return nil
	})
}

func (s *FunnelService) SetContact(ctx context.Context, id string, contact domain.ContactDetails) (*View, error) {
	return s.update(ctx, id, func(st *session.Store) error {
		st.SetContactDetails(contact)
		return nil
	})
}

func (s *FunnelService) SetBilling(ctx context.Context, id string, billing *domain.BillingDetails) (*View, error) {
	return s.update(ctx, id, func(st *session.Store) error {
		st.SetBillingDetails(billing)
		return nil
	})
}

// ProceedToSeats moves to the seats step and prepares the seat maps of the
// offer. With the per_visit policy every visit draws new maps. A session on
// the payment step is denied and keeps its maps.
func (s *FunnelService) ProceedToSeats(ctx context.Context, id string) (*Gate, error) {
	gate := &Gate{}
	view, err := s.update(ctx, id, func(st *session.Store) error {
		gate.Allowed = s.progression.ProceedToSeats(st)
		if !gate.Allowed {
			if st.CurrentStep() == domain.StepBooking {
				gate.Missing = s.progression.MissingFields(st)
			}
			return nil
		}

		maps, err := s.loadMaps(ctx, id, st, s.regeneration == config.RegeneratePerVisit)
		if err != nil {
			return err
		}
		s.controller(st, maps)
		return s.saveMaps(ctx, id, maps)
	})
	if err != nil {
		return nil, err
	}
	gate.Step = view.Step
	gate.Session = view
	return gate, nil
}

// ProceedToPayment accepts the seats as they are: legs still without a seat
// get a free auto-assigned one before moving on.
func (s *FunnelService) ProceedToPayment(ctx context.Context, id string) (*Gate, error) {
	gate := &Gate{}
	view, err := s.update(ctx, id, func(st *session.Store) error {
		if st.CurrentStep() == domain.StepSeats {
			maps, err := s.loadMaps(ctx, id, st, false)
			if err != nil {
				return err
			}
			gate.AutoAssigned = s.controller(st, maps).AutoAssignMissing()
			if err := s.saveMaps(ctx, id, maps); err != nil {
				return err
			}
		}

		gate.Allowed = s.progression.ProceedToPayment(st)
		if !gate.Allowed {
			gate.Missing = []string{"seats"}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	gate.Step = view.Step
	gate.Session = view
	return gate, nil
}

func (s *FunnelService) SeatMap(ctx context.Context, id, legID string) (*seatmap.Map, error) {
	unlock := s.lock(id)
	defer unlock()

	st, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	offer := st.Offer()
	if offer == nil {
		return nil, domain.ErrNoOffer
	}
	slice, ok := offer.Slice(legID)
	if !ok {
		return nil, domain.ErrLegNotFound
	}
	if !slice.SeatSelection {
		return nil, domain.ErrSeatsNotSelectable
	}

	maps, err := s.loadMaps(ctx, id, st, false)
	if err != nil {
		return nil, err
	}
	s.controller(st, maps)
	if err := s.saveMaps(ctx, id, maps); err != nil {
		return nil, err
	}
	return maps[legID], nil
}

func (s *FunnelService) SelectSeat(ctx context.Context, id, legID, seatID string) (*SeatResponse, error) {
	return s.seatOperation(ctx, id, func(c *seating.Controller) seating.Result {
		return c.SelectSeat(legID, seatID)
	})
}

func (s *FunnelService) CancelSeat(ctx context.Context, id, legID string) (*SeatResponse, error) {
	return s.seatOperation(ctx, id, func(c *seating.Controller) seating.Result {
		return c.CancelSeat(legID)
	})
}

func (s *FunnelService) AutoAssignSeats(ctx context.Context, id string) (*AutoAssignResponse, error) {
	resp := &AutoAssignResponse{}
	view, err := s.update(ctx, id, func(st *session.Store) error {
		maps, err := s.loadMaps(ctx, id, st, false)
		if err != nil {
			return err
		}
		resp.Results = s.controller(st, maps).AutoAssignMissing()
		return s.saveMaps(ctx, id, maps)
	})
	if err != nil {
		return nil, err
	}
	if resp.Results == nil {
		resp.Results = []seating.Result{}
	}
	resp.Session = view
	return resp, nil
}

// Checkout books and pays for the session. After a successful payment the
// session is reset, so the same booking cannot be paid twice. A failed
// payment leaves the session untouched for another attempt.
func (s *FunnelService) Checkout(ctx context.Context, id, paymentMethod string) (*CheckoutResult, error) {
	token, acquired, err := s.cache.AcquireCheckoutLock(ctx, id, s.checkoutLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, domain.ErrCheckoutInProgress
	}
	defer func() {
		if err := s.cache.ReleaseCheckoutLock(context.WithoutCancel(ctx), id, token); err != nil {
			s.log.WithField("session_id", id).WithError(err).Warn("release checkout lock failed")
		}
	}()

	unlock := s.lock(id)
	defer unlock()

	st, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.CurrentStep() != domain.StepPayment {
		return nil, domain.ErrStepNotReached
	}
	data := st.BookingData()
	if data == nil {
		return nil, domain.ErrNoOffer
	}
	data.SessionID = id

	booking, err := s.checkout.CreateBooking(ctx, data)
	if err != nil {
		return nil, err
	}

	result, err := s.checkout.ProcessPayment(ctx, domain.PaymentRequest{
		BookingRef:    booking.Reference,
		Amount:        data.Total.Amount,
		Currency:      data.Total.Currency,
		PaymentMethod: paymentMethod,
	})
	if err != nil {
		return nil, err
	}

	out := &CheckoutResult{
		BookingReference: booking.Reference,
		Status:           domain.BookingStatusPending,
		Total:            data.Total,
		Payment:          result,
	}
	fields := logrus.Fields{"session_id": id, "reference": booking.Reference}

	if result.Success {
		out.Status = domain.BookingStatusConfirmed
		st.Reset()
		if err := s.cache.DeleteSeatMaps(ctx, id); err != nil {
			s.log.WithFields(fields).WithError(err).Warn("delete seat maps failed")
		}
		if err := s.save(ctx, id, st); err != nil {
			return nil, err
		}
		s.log.WithFields(fields).Info("checkout completed")
	} else {
		s.log.WithFields(fields).WithField("reason", result.Error).Warn("checkout payment failed")
	}

	out.Session = s.view(id, st)
	return out, nil
}

// PayBooking retries payment of a pending booking by reference. When the
// booking was made from a session that still holds the same offer, a
// successful payment resets that session as Checkout does.
func (s *FunnelService) PayBooking(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
	result, err := s.checkout.ProcessPayment(ctx, req)
	if err != nil || !result.Success {
		return result, err
	}

	booking, err := s.checkout.GetBooking(ctx, req.BookingRef)
	if err != nil {
		s.log.WithField("reference", req.BookingRef).WithError(err).Warn("load paid booking failed")
		return result, nil
	}
	if booking.SessionID != "" {
		s.resetPaidSession(ctx, booking)
	}
	return result, nil
}

// resetPaidSession clears the session a confirmed booking was made from.
// The payment already went through, so failures are only logged.
func (s *FunnelService) resetPaidSession(ctx context.Context, booking *domain.Booking) {
	id := booking.SessionID
	fields := logrus.Fields{"session_id": id, "reference": booking.Reference}

	unlock := s.lock(id)
	defer unlock()

	st, err := s.load(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			s.log.WithFields(fields).WithError(err).Warn("load paid session failed")
		}
		return
	}
	offer := st.Offer()
	if offer == nil || offer.ID != booking.OfferID {
		return
	}

	st.Reset()
	if err := s.cache.DeleteSeatMaps(ctx, id); err != nil {
		s.log.WithFields(fields).WithError(err).Warn("delete seat maps failed")
	}
	if err := s.save(ctx, id, st); err != nil {
		s.log.WithFields(fields).WithError(err).Warn("reset paid session failed")
		return
	}
	s.log.WithFields(fields).Info("session reset after booking payment")
}

func (s *FunnelService) seatOperation(ctx context.Context, id string, op func(*seating.Controller) seating.Result) (*SeatResponse, error) {
	resp := &SeatResponse{}
	view, err := s.update(ctx, id, func(st *session.Store) error {
		maps, err := s.loadMaps(ctx, id, st, false)
		if err != nil {
			return err
		}
		resp.Result = op(s.controller(st, maps))
		return s.saveMaps(ctx, id, maps)
	})
	if err != nil {
		return nil, err
	}
	resp.Session = view
	return resp, nil
}

func (s *FunnelService) update(ctx context.Context, id string, fn func(*session.Store) error) (*View, error) {
	unlock := s.lock(id)
	defer unlock()

	st, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return nil, err
	}
	if err := s.save(ctx, id, st); err != nil {
		return nil, err
	}
	return s.view(id, st), nil
}

func (s *FunnelService) load(ctx context.Context, id string) (*session.Store, error) {
	data, err := s.cache.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	st, err := session.Unmarshal(data)
	if err != nil {
		s.log.WithField("session_id", id).WithError(err).Error("corrupt session snapshot")
		return nil, err
	}
	return st, nil
}

func (s *FunnelService) save(ctx context.Context, id string, st *session.Store) error {
	data, err := session.Marshal(st)
	if err != nil {
		return err
	}
	return s.cache.SaveSession(ctx, id, data)
}

// loadMaps returns the seat maps of every selectable leg of the offer,
// generating missing ones. regenerate discards stored maps.
func (s *FunnelService) loadMaps(ctx context.Context, id string, st *session.Store, regenerate bool) (map[string]*seatmap.Map, error) {
	maps := make(map[string]*seatmap.Map)
	offer := st.Offer()
	if offer == nil {
		return maps, nil
	}

	for _, slice := range offer.Slices {
		if !slice.SeatSelection {
			continue
		}
		var m *seatmap.Map
		if !regenerate {
			stored, err := s.cache.GetSeatMap(ctx, id, slice.ID)
			if err != nil {
				return nil, err
			}
			m = stored
		}
		if m == nil {
			m = s.generator(id, slice.ID).Generate(slice.ID)
		}
		maps[slice.ID] = m
	}
	return maps, nil
}

func (s *FunnelService) saveMaps(ctx context.Context, id string, maps map[string]*seatmap.Map) error {
	for _, m := range maps {
		if err := s.cache.SetSeatMap(ctx, id, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *FunnelService) generator(id, legID string) *seatmap.Generator {
	opts := append([]seatmap.Option{seatmap.WithOccupancyRate(s.occupancyRate)}, s.generateOpts...)
	if s.regeneration == config.RegeneratePerSession {
		return seatmap.SeededFor(id, legID, opts...)
	}
	return seatmap.NewGenerator(opts...)
}

// controller binds st to maps and marks recorded selections on them.
func (s *FunnelService) controller(st *session.Store, maps map[string]*seatmap.Map) *seating.Controller {
	c := seating.NewController(st, maps, s.seatOpts...)
	c.SyncMaps()
	return c
}

func (s *FunnelService) view(id string, st *session.Store) *View {
	missing := s.progression.MissingFields(st)
	if missing == nil {
		missing = []string{}
	}
	return &View{
		ID:                id,
		Snapshot:          st.Snapshot(),
		Price:             st.PriceBreakdown(),
		MissingFields:     missing,
		CanProceedToSeats: len(missing) == 0,
		SeatsComplete:     seating.NewController(st, nil).CanContinue(),
	}
}

func (s *FunnelService) lock(id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	mu := &s.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// IsNotFound reports whether err means the session or something inside it
// does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrSessionNotFound) ||
		errors.Is(err, domain.ErrOfferNotFound) ||
		errors.Is(err, domain.ErrPassengerNotFound) ||
		errors.Is(err, domain.ErrLegNotFound) ||
		errors.Is(err, domain.ErrBookingNotFound)
}

var _ FunnelUseCase = (*FunnelService)(nil)
