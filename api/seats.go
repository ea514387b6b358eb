package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type selectSeatRequest struct {
	SeatID string `json:"seat_id" binding:"required"`
}

type checkoutRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

func (h *SessionHandler) seatMap(c *gin.Context) {
	m, err := h.service.SeatMap(c.Request.Context(), c.Param("id"), c.Param("leg"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// selectSeat answers 200 for denied picks too; the outcome is in the body.
func (h *SessionHandler) selectSeat(c *gin.Context) {
	var req selectSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.service.SelectSeat(c.Request.Context(), c.Param("id"), c.Param("leg"), req.SeatID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SessionHandler) cancelSeat(c *gin.Context) {
	resp, err := h.service.CancelSeat(c.Request.Context(), c.Param("id"), c.Param("leg"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SessionHandler) autoAssign(c *gin.Context) {
	resp, err := h.service.AutoAssignSeats(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SessionHandler) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.service.Checkout(c.Request.Context(), c.Param("id"), req.PaymentMethod)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusCreated
	if !result.Payment.Success {
		status = http.StatusPaymentRequired
	}
	c.JSON(status, result)
}
