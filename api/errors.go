package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/offers"
	"github.com/Domenick1991/flightbooking/internal/service/funnel"
	"github.com/gin-gonic/gin"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case funnel.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCheckoutInProgress),
		errors.Is(err, domain.ErrBookingNotPending):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoOffer),
		errors.Is(err, domain.ErrOfferExpired),
		errors.Is(err, domain.ErrInvalidOffer),
		errors.Is(err, domain.ErrStepNotReached),
		errors.Is(err, domain.ErrLastPassenger),
		errors.Is(err, domain.ErrSeatsNotSelectable),
		errors.Is(err, offers.ErrInvalidSearch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
