package helpers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jenil-Kakadiya/ScanNGo/internal/checkin"
	"github.com/Jenil-Kakadiya/ScanNGo/internal/qrcode"
	"github.com/Jenil-Kakadiya/ScanNGo/internal/registration"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func RespondWithError(c *gin.Context, statusCode int, customMessage string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: customMessage,
	})
}

// RespondWithDomainError maps a ledger/check-in error to its HTTP status.
// Unknown errors become a 500 without leaking internals.
func RespondWithDomainError(c *gin.Context, err error) {
	var already *checkin.AlreadyCheckedInError
	if errors.As(err, &already) {
		c.JSON(http.StatusConflict, gin.H{
			"error":         http.StatusText(http.StatusConflict),
			"message":       "Attendee already checked in.",
			"checked_in_at": already.CheckedInAt.Format(time.RFC3339),
		})
		return
	}

	switch {
	case errors.Is(err, registration.ErrEventNotFound),
		errors.Is(err, registration.ErrNotFound):
		RespondWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, registration.ErrEventNotOpen),
		errors.Is(err, registration.ErrAlreadyRegistered),
		errors.Is(err, registration.ErrCapacityExceeded),
		errors.Is(err, checkin.ErrRegistrationCancelled):
		RespondWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, registration.ErrForbidden):
		RespondWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, checkin.ErrInvalidCode),
		errors.Is(err, qrcode.ErrMalformedPayload):
		RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, registration.ErrTemporarilyUnavailable):
		RespondWithError(c, http.StatusServiceUnavailable, "Store is busy, please retry.")
	default:
		RespondWithError(c, http.StatusInternalServerError, "Something went wrong.")
	}
}
