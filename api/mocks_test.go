package api

import (
	"context"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/offers"
	"github.com/Domenick1991/flightbooking/internal/seatmap"
	"github.com/Domenick1991/flightbooking/internal/service/funnel"
	"github.com/Domenick1991/flightbooking/internal/service/search"
	"github.com/stretchr/testify/mock"
)

type MockFunnelUseCase struct {
	mock.Mock
}

func (m *MockFunnelUseCase) view(args mock.Arguments) (*funnel.View, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*funnel.View), args.Error(1)
}

func (m *MockFunnelUseCase) StartSession(ctx context.Context) (*funnel.View, error) {
	return m.view(m.Called(ctx))
}

func (m *MockFunnelUseCase) GetSession(ctx context.Context, id string) (*funnel.View, error) {
	return m.view(m.Called(ctx, id))
}

func (m *MockFunnelUseCase) ResetSession(ctx context.Context, id string) (*funnel.View, error) {
	return m.view(m.Called(ctx, id))
}

func (m *MockFunnelUseCase) Search(ctx context.Context, id string, req offers.SearchRequest) (*search.Result, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*search.Result), args.Error(1)
}

func (m *MockFunnelUseCase) SetOffer(ctx context.Context, id string, offer *domain.FlightOffer) (*funnel.View, error) {
	return m.view(m.Called(ctx, id, offer))
}

func (m *MockFunnelUseCase) SelectOffer(ctx context.Context, id, offerID string) (*funnel.View, error) {
	return m.view(m.Called(ctx, id, offerID))
}

func (m *MockFunnelUseCase) SetPassengers(ctx context.Context, id string, passengers []domain.BookingPassenger) (*funnel.View, error) {
	return m.view(m.Called(ctx, id, passengers))
}

func (m *MockFunnelUseCase) UpdatePassenger(ctx context.Context, id string, index int, patch domain.PassengerPatch) (*funnel.View, error) {
	return m.view(m.Called(ctx, id, index, patch))
}

func (m *MockFunnelUseCase) AddPassenger(ctx context.Context, id string) (*funnel.View, error) {
	return m.view(m.Called(ctx, id))
}

func (m *MockFunnelUseCase) RemovePassenger(ctx context.Context, id string, index int) (*funnel.View, error) {
	return m.view(m.Called(ctx, id, index))
}

func (m *MockFunnelUseCase) SetBaggage(ctx context.Context, id string, baggage domain.BaggageSelection) (*funnel.View, error) {
	return m.view(m.Called(ctx, id, baggage))
}

func (m *MockFunnelUseCase) SetContact(ctx context.Context, id string, contact domain.ContactDetails) (*funnel.View, error) {
	return m.view(m.Called(ctx, id, contact))
}

func (m *MockFunnelUseCase) SetBilling(ctx context.Context, id string, billing *domain.BillingDetails) (*funnel.View, error) {
	return m.view(m.Called(ctx, id, billing))
}

func (m *MockFunnelUseCase) ProceedToSeats(ctx context.Context, id string) (*funnel.Gate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*funnel.Gate), args.Error(1)
}

func (m *MockFunnelUseCase) ProceedToPayment(ctx context.Context, id string) (*funnel.Gate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*funnel.Gate), args.Error(1)
}

func (m *MockFunnelUseCase) SeatMap(ctx context.Context, id, legID string) (*seatmap.Map, error) {
	args := m.Called(ctx, id, legID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seatmap.Map), args.Error(1)
}

func (m *MockFunnelUseCase) SelectSeat(ctx context.Context, id, legID, seatID string) (*funnel.SeatResponse, error) {
	args := m.Called(ctx, id, legID, seatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*funnel.SeatResponse), args.Error(1)
}

func (m *MockFunnelUseCase) CancelSeat(ctx context.Context, id, legID string) (*funnel.SeatResponse, error) {
	args := m.Called(ctx, id, legID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*funnel.SeatResponse), args.Error(1)
}

func (m *MockFunnelUseCase) AutoAssignSeats(ctx context.Context, id string) (*funnel.AutoAssignResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*funnel.AutoAssignResponse), args.Error(1)
}

func (m *MockFunnelUseCase) Checkout(ctx context.Context, id, paymentMethod string) (*funnel.CheckoutResult, error) {
	args := m.Called(ctx, id, paymentMethod)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*funnel.CheckoutResult), args.Error(1)
}

func (m *MockFunnelUseCase) PayBooking(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.PaymentResult), args.Error(1)
}

type MockCheckoutUseCase struct {
	mock.Mock
}

func (m *MockCheckoutUseCase) CreateBooking(ctx context.Context, data *domain.BookingData) (*domain.Booking, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockCheckoutUseCase) ProcessPayment(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.PaymentResult), args.Error(1)
}

func (m *MockCheckoutUseCase) GetBooking(ctx context.Context, ref string) (*domain.Booking, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockCheckoutUseCase) CancelBooking(ctx context.Context, ref string) (*domain.Booking, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockCheckoutUseCase) ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Booking), args.Error(1)
}
