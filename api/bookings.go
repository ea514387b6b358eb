package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/service/checkout"
	"github.com/Domenick1991/flightbooking/internal/service/funnel"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service checkout.CheckoutUseCase
	funnel  funnel.FunnelUseCase
}

type payBookingRequest struct {
	Amount        string `json:"amount" binding:"required"`
	Currency      string `json:"currency" binding:"required,len=3"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

type bookingResponse struct {
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	OfferID       string `json:"offer_id"`
	Total         string `json:"total"`
	Currency      string `json:"currency"`
	Email         string `json:"email"`
	TransactionID string `json:"transaction_id,omitempty"`
	ExpiresAt     string `json:"expires_at"`
}

func NewBookingHandler(service checkout.CheckoutUseCase, funnelSvc funnel.FunnelUseCase) *BookingHandler {
	return &BookingHandler{service: service, funnel: funnelSvc}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/:ref/payment", h.pay)
	router.DELETE("/:ref", h.cancel)
}

// pay retries payment for a booking that is still pending. It goes through
// the funnel so the session the booking came from is reset once paid.
func (h *BookingHandler) pay(c *gin.Context) {
	var req payBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	amount, err := domain.ParseMoney(req.Amount, req.Currency)
	if err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.funnel.PayBooking(c.Request.Context(), domain.PaymentRequest{
		BookingRef:    c.Param("ref"),
		Amount:        amount,
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if !result.Success {
		status = http.StatusPaymentRequired
	}
	c.JSON(status, result)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	booking, err := h.service.CancelBooking(c.Request.Context(), c.Param("ref"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookingResponse{
		Reference:     booking.Reference,
		Status:        string(booking.Status),
		OfferID:       booking.OfferID,
		Total:         booking.TotalAmount.Format(booking.Currency),
		Currency:      booking.Currency,
		Email:         booking.Email,
		TransactionID: booking.TransactionID,
		ExpiresAt:     booking.ExpiresAt.Format(time.RFC3339),
	})
}
