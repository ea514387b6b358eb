package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/offers"
	"github.com/Domenick1991/flightbooking/internal/seating"
	"github.com/Domenick1991/flightbooking/internal/service/funnel"
	"github.com/Domenick1991/flightbooking/internal/service/search"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testContext(method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func TestSessionHandler_start(t *testing.T) {
	mockService := &MockFunnelUseCase{}
	handler := NewSessionHandler(mockService)
	c, w := testContext("POST", "/api/v1/sessions", nil)

	view := &funnel.View{ID: "sess-1"}
	mockService.On("StartSession", c.Request.Context()).Return(view, nil)

	handler.start(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sess-1", resp["id"])
	mockService.AssertExpectations(t)
}

func TestSessionHandler_get_NotFound(t *testing.T) {
	mockService := &MockFunnelUseCase{}
	handler := NewSessionHandler(mockService)
	c, w := testContext("GET", "/api/v1/sessions/nope", nil)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}

	mockService.On("GetSession", c.Request.Context(), "nope").Return(nil, domain.ErrSessionNotFound)

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "session not found")
}

func TestSessionHandler_get_InternalError(t *testing.T) {
	mockService := &MockFunnelUseCase{}
	handler := NewSessionHandler(mockService)
	c, w := testContext("GET", "/api/v1/sessions/s", nil)
	c.Params = gin.Params{{Key: "id", Value: "s"}}

	mockService.On("GetSession", c.Request.Context(), "s").Return(nil, errors.New("redis: connection refused"))

	handler.get(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "redis")
	assert.Len(t, c.Errors, 1)
}

func TestSessionHandler_search(t *testing.T) {
	mockService := &MockFunnelUseCase{}
	handler := NewSessionHandler(mockService)
	req := offers.SearchRequest{Origin: "LHR", Destination: "JFK", DepartureDate: "2030-02-01", Passengers: offers.PassengerCounts{Adults: 1}}
	c, w := testContext("POST", "/api/v1/sessions/s/search", req)
	c.Params = gin.Params{{Key: "id", Value: "s"}}

	result := &search.Result{Offers: []domain.FlightOffer{{ID: "off_1"}}, Source: search.SourceUpstream}
	mockService.On("Search", c.Request.Context(), "s", req).Return(result, nil)

	handler.search(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"source":"upstream"`)
	mockService.AssertExpectations(t)
}

func TestSessionHandler_search_InvalidSearch(t *testing.T) {
	mockService := &MockFunnelUseCase{}
	handler := NewSessionHandler(mockService)
	req := offers.SearchRequest{Origin: "LHR", Destination: "LHR", DepartureDate: "2030-02-01"}
	c, w := testContext("POST", "/api/v1/sessions/s/search", req)
	c.Params = gin.Params{{Key: "id", Value: "s"}}

	mockService.On("Search", c.Request.Context(), "s", req).Return(nil, offers.ErrInvalidSearch)

	handler.search(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSessionHandler_selectOffer_Unpriceable(t *testing.T) {
	mockService := &MockFunnelUseCase{}
	handler := NewSessionHandler(mockService)
	c, w := testContext("PUT", "/api/v1/sessions/s/offer", selectOfferRequest{OfferID: "off_bad"})
	c.Params = gin.Params{{Key: "id", Value: "s"}}

	mockService.On("SelectOffer", c.Request.Context(), "s", "off_bad").
		Return(nil, fmt.Errorf("%w: off_bad: %w", domain.ErrInvalidOffer, domain.ErrInvalidAmount))

	handler.selectOffer(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "cannot be priced")
}

func TestSessionHandler_search_BadRequest(t *testing.T) {
	mockService := &MockFunnelUseCase{}
	handler := NewSessionHandler(mockService)
	c, w := testContext("POST", "/api/v1/sessions/s/search", map[string]string{"origin": "LONDON"})
	c.Params = gin.Params{{Key: "id", Value: "s"}}

	handler.search(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionHandler_setPassengers(t *testing.T) {
	mockService := &MockFunnelUseCase{}
	handler := NewSessionHandler(mockService)
	passengers := []domain.BookingPassenger{{GivenName: "Ada", TravelInsurance: domain.InsuranceBasic}}
	c, w := testContext("PUT", "/api/v1/sessions/s/passengers", setPassengersRequest{Passengers: passengers})
	c.Params = gin.Params{{Key: "id", Value: "s"}}

	mockService.On("SetPassengers", c.Request.Context(), "s", passengers).Return(&funnel.View{ID: "s"}, nil)

	handler.setPassengers(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestSessionHandler_updatePassenger(t *testing.T) {
	mockService := &MockFunnelUseCase{}
	handler := NewSessionHandler(mockService)
	name := "Grace"
	patch := domain.PassengerPatch{GivenName: &name}
	c, w := testContext("PATCH", "/api/v1/sessions/s/passengers/1", patch)
	c.Params = gin.Params{{Key: "id", Value: "s"}, {Key: "index", Value: "1"}}

	mockService.On("UpdatePassenger", c.Request.Context(), "s", 1, patch).Return(&funnel.View{ID: "s"}, nil)

	handler.updatePassenger(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestSessionHandler_removePassenger(t *testing.T) {
	mockService := &MockFunnelUseCase{}
	handler := NewSessionHandler(mockService)

	c, w := testContext("DELETE", "/api/v1/sessions/s/passengers/x", nil)
	c.Params = gin.Params{{Key: "id", Value: "s"}, {Key: "index", Value: "x"}}
	handler.removePassenger(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = testContext("DELETE", "/api/v1/sessions/s/passengers/0", nil)
	c.Params = gin.Params{{Key: "id", Value: "s"}, {Key: "index", Value: "0"}}
	mockService.On("RemovePassenger", c.Request.Context(), "s", 0).Return(nil, domain.ErrLastPassenger)
	handler.removePassenger(c)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSessionHandler_setContact_InvalidEmail(t *testing.T) {
	mockService := &MockFunnelUseCase{}
	handler := NewSessionHandler(mockService)
	c, w := testContext("PUT", "/api/v1/sessions/s/contact", domain.ContactDetails{Email: "not-an-email"})
	c.Params = gin.Params{{Key: "id", Value: "s"}}

	handler.setContact(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "SetContact", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionHandler_setBilling_Clear(t *testing.T) {
	mockService := &MockFunnelUseCase{}
	handler := NewSessionHandler(mockService)
	c, w := testContext("PUT", "/api/v1/sessions/s/billing", map[string]interface{}{"billing": nil})
	c.Params = gin.Params{{Key: "id", Value: "s"}}

	mockService.On("SetBilling", c.Request.Context(), "s", (*domain.BillingDetails)(nil)).Return(&funnel.View{ID: "s"}, nil)

	handler.setBilling(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestSessionHandler_proceedToSeats_Denied(t *testing.T) {
	mockService := &MockFunnelUseCase{}
	handler := NewSessionHandler(mockService)
	c, w := testContext("POST", "/api/v1/sessions/s/steps/seats", nil)
	c.Params = gin.Params{{Key: "id", Value: "s"}}

	gate := &funnel.Gate{Allowed: false, Step: domain.StepBooking, Missing: []string{"passengers[0].passport_number"}}
	mockService.On("ProceedToSeats", c.Request.Context(), "s").Return(gate, nil)

	handler.proceedToSeats(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["allowed"])
	assert.Equal(t, []interface{}{"passengers[0].passport_number"}, resp["missing"])
}

func TestSessionHandler_selectSeat(t *testing.T) {
	mockService := &MockFunnelUseCase{}
	handler := NewSessionHandler(mockService)
	c, w := testContext("PUT", "/api/v1/sessions/s/seats/sli_1", selectSeatRequest{SeatID: "12C"})
	c.Params = gin.Params{{Key: "id", Value: "s"}, {Key: "leg", Value: "sli_1"}}

	resp := &funnel.SeatResponse{Result: seating.Result{Outcome: seating.OutcomeDenied, LegID: "sli_1", SeatID: "12C", Reason: seating.ReasonSeatUnavailable}}
	mockService.On("SelectSeat", c.Request.Context(), "s", "sli_1", "12C").Return(resp, nil)

	handler.selectSeat(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"outcome":"denied"`)
}

func TestSessionHandler_checkout(t *testing.T) {
	tests := []struct {
		name   string
		result *funnel.CheckoutResult
		err    error
		status int
	}{
		{
			name:   "paid",
			result: &funnel.CheckoutResult{BookingReference: "ref-1", Status: domain.BookingStatusConfirmed, Payment: domain.PaymentResult{Success: true, TransactionID: "pi_1"}},
			status: http.StatusCreated,
		},
		{
			name:   "declined",
			result: &funnel.CheckoutResult{BookingReference: "ref-1", Status: domain.BookingStatusPending, Payment: domain.PaymentResult{Error: "Your card was declined."}},
			status: http.StatusPaymentRequired,
		},
		{name: "in progress", err: domain.ErrCheckoutInProgress, status: http.StatusConflict},
		{name: "step not reached", err: domain.ErrStepNotReached, status: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockFunnelUseCase{}
			handler := NewSessionHandler(mockService)
			c, w := testContext("POST", "/api/v1/sessions/s/checkout", checkoutRequest{PaymentMethod: "pm_card_visa"})
			c.Params = gin.Params{{Key: "id", Value: "s"}}

			if tt.err != nil {
				mockService.On("Checkout", c.Request.Context(), "s", "pm_card_visa").Return(nil, tt.err)
			} else {
				mockService.On("Checkout", c.Request.Context(), "s", "pm_card_visa").Return(tt.result, nil)
			}

			handler.checkout(c)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestSessionHandler_Register(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockService := &MockFunnelUseCase{}
	r := gin.New()
	NewSessionHandler(mockService).Register(r.Group("/api/v1/sessions"))

	mockService.On("AutoAssignSeats", mock.Anything, "s").Return(&funnel.AutoAssignResponse{Results: []seating.Result{}}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sessions/s/seats/auto-assign", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}
