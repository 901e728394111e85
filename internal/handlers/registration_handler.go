package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jenil-Kakadiya/ScanNGo/internal/helpers"
	"github.com/Jenil-Kakadiya/ScanNGo/internal/middleware"
)

// RegisterForEvent creates a registration for the authenticated user and
// returns it together with the scannable payload.
func RegisterForEvent(c *gin.Context) {
	eventID, err := helpers.ParamUUID(c, "id")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	actor, ok := middleware.CurrentActor(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	ledger := middleware.GetLedger(c)
	codec := middleware.GetCodec(c)
	if ledger == nil || codec == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Service not found.")
		return
	}

	reg, err := ledger.Register(c.Request.Context(), eventID, actor.ID)
	if err != nil {
		helpers.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Registered successfully.",
		"registration": reg,
		"payload":      codec.EncodePayload(reg.VerificationToken),
	})
}

// CancelRegistration cancels a registration. Idempotent: repeating the call
// is still a 204.
func CancelRegistration(c *gin.Context) {
	registrationID, err := helpers.ParamUUID(c, "id")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid registration ID.")
		return
	}

	actor, ok := middleware.CurrentActor(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	ledger := middleware.GetLedger(c)
	if ledger == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Service not found.")
		return
	}

	if err := ledger.Cancel(c.Request.Context(), registrationID, actor); err != nil {
		helpers.RespondWithDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListMyRegistrations returns the authenticated user's registrations with
// cursor pagination.
func ListMyRegistrations(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	ledger := middleware.GetLedger(c)
	if ledger == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Service not found.")
		return
	}

	limit, err := parseLimit(c)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid limit.")
		return
	}

	regs, next, err := ledger.ListForUser(c.Request.Context(), actor.ID, c.Query("cursor"), limit)
	if err != nil {
		helpers.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"registrations": regs,
		"next_cursor":   next,
	})
}

// ListEventRegistrations returns an event's registrations. Organizer or
// admin only.
func ListEventRegistrations(c *gin.Context) {
	eventID, err := helpers.ParamUUID(c, "id")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	actor, ok := middleware.CurrentActor(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	gormDB := middleware.GetDB(c)
	ledger := middleware.GetLedger(c)
	if gormDB == nil || ledger == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Service not found.")
		return
	}

	if _, ok := loadOwnedEvent(c, gormDB, eventID, actor); !ok {
		return
	}

	limit, err := parseLimit(c)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid limit.")
		return
	}

	regs, next, err := ledger.ListForEvent(c.Request.Context(), eventID, c.Query("cursor"), limit)
	if err != nil {
		helpers.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"registrations": regs,
		"next_cursor":   next,
	})
}

// RegistrationQR renders the registration's verification code as a PNG for
// the owning user.
func RegistrationQR(c *gin.Context) {
	registrationID, err := helpers.ParamUUID(c, "id")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid registration ID.")
		return
	}

	actor, ok := middleware.CurrentActor(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	ledger := middleware.GetLedger(c)
	codec := middleware.GetCodec(c)
	if ledger == nil || codec == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Service not found.")
		return
	}

	reg, err := ledger.Get(c.Request.Context(), registrationID)
	if err != nil {
		helpers.RespondWithDomainError(c, err)
		return
	}
	if reg.UserID != actor.ID && !actor.IsAdmin() {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to view this QR code.")
		return
	}

	qrImage, err := codec.EncodePNG(reg.VerificationToken)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate QR code.")
		return
	}

	c.Data(http.StatusOK, "image/png", qrImage)
}

func parseLimit(c *gin.Context) (int, error) {
	limit, err := helpers.StringToInt(c.DefaultQuery("limit", "20"))
	if err != nil {
		return 0, err
	}
	if limit < 1 {
		return 0, errors.New("limit must be positive")
	}
	return limit, nil
}
