package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jenil-Kakadiya/ScanNGo/internal/helpers"
	"github.com/Jenil-Kakadiya/ScanNGo/internal/middleware"
)

type CheckinRequest struct {
	Payload string `json:"payload" binding:"required"`
}

// Checkin processes one scan: decode the payload, look up the registration,
// and transition it to checked-in. Re-scans come back as 409 with the
// original check-in time, never as a second success.
func Checkin(c *gin.Context) {
	var req CheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	service := middleware.GetCheckinService(c)
	if service == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Service not found.")
		return
	}

	summary, err := service.Scan(c.Request.Context(), req.Payload)
	if err != nil {
		helpers.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Attendee checked in.",
		"attendee": summary,
	})
}
