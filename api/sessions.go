package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/offers"
	"github.com/Domenick1991/flightbooking/internal/service/funnel"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	service funnel.FunnelUseCase
}

type selectOfferRequest struct {
	OfferID string `json:"offer_id" binding:"required"`
}

type setPassengersRequest struct {
	Passengers []domain.BookingPassenger `json:"passengers"`
}

type setBillingRequest struct {
	Billing *domain.BillingDetails `json:"billing"`
}

var errInvalidIndex = errors.New("invalid passenger index")

func NewSessionHandler(service funnel.FunnelUseCase) *SessionHandler {
	return &SessionHandler{service: service}
}

func (h *SessionHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.start)
	router.GET("/:id", h.get)
	router.DELETE("/:id", h.reset)

	router.POST("/:id/search", h.search)
	router.PUT("/:id/offer", h.selectOffer)

	router.PUT("/:id/passengers", h.setPassengers)
	router.POST("/:id/passengers", h.addPassenger)
	router.PATCH("/:id/passengers/:index", h.updatePassenger)
	router.DELETE("/:id/passengers/:index", h.removePassenger)

	router.PUT("/:id/baggage", h.setBaggage)
	router.PUT("/:id/contact", h.setContact)
	router.PUT("/:id/billing", h.setBilling)

	router.POST("/:id/steps/seats", h.proceedToSeats)
	router.POST("/:id/steps/payment", h.proceedToPayment)

	router.GET("/:id/seatmaps/:leg", h.seatMap)
	router.PUT("/:id/seats/:leg", h.selectSeat)
	router.DELETE("/:id/seats/:leg", h.cancelSeat)
	router.POST("/:id/seats/auto-assign", h.autoAssign)

	router.POST("/:id/checkout", h.checkout)
}

func (h *SessionHandler) start(c *gin.Context) {
	view, err := h.service.StartSession(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *SessionHandler) get(c *gin.Context) {
	view, err := h.service.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *SessionHandler) reset(c *gin.Context) {
	view, err := h.service.ResetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *SessionHandler) search(c *gin.Context) {
	var req offers.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.service.Search(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *SessionHandler) selectOffer(c *gin.Context) {
	var req selectOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respond(c)(h.service.SelectOffer(c.Request.Context(), c.Param("id"), req.OfferID))
}

func (h *SessionHandler) setPassengers(c *gin.Context) {
	var req setPassengersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respond(c)(h.service.SetPassengers(c.Request.Context(), c.Param("id"), req.Passengers))
}

func (h *SessionHandler) addPassenger(c *gin.Context) {
	h.respond(c)(h.service.AddPassenger(c.Request.Context(), c.Param("id")))
}

func (h *SessionHandler) updatePassenger(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, errInvalidIndex)
		return
	}
	var patch domain.PassengerPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	h.respond(c)(h.service.UpdatePassenger(c.Request.Context(), c.Param("id"), index, patch))
}

func (h *SessionHandler) removePassenger(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, errInvalidIndex)
		return
	}
	h.respond(c)(h.service.RemovePassenger(c.Request.Context(), c.Param("id"), index))
}

func (h *SessionHandler) setBaggage(c *gin.Context) {
	var req domain.BaggageSelection
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respond(c)(h.service.SetBaggage(c.Request.Context(), c.Param("id"), req))
}

func (h *SessionHandler) setContact(c *gin.Context) {
	var req domain.ContactDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respond(c)(h.service.SetContact(c.Request.Context(), c.Param("id"), req))
}

func (h *SessionHandler) setBilling(c *gin.Context) {
	var req setBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respond(c)(h.service.SetBilling(c.Request.Context(), c.Param("id"), req.Billing))
}

func (h *SessionHandler) proceedToSeats(c *gin.Context) {
	gate, err := h.service.ProceedToSeats(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gate)
}

func (h *SessionHandler) proceedToPayment(c *gin.Context) {
	gate, err := h.service.ProceedToPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gate)
}

func (h *SessionHandler) respond(c *gin.Context) func(*funnel.View, error) {
	return func(view *funnel.View, err error) {
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}
