package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Jenil-Kakadiya/ScanNGo/internal/helpers"
	"github.com/Jenil-Kakadiya/ScanNGo/internal/middleware"
	"github.com/Jenil-Kakadiya/ScanNGo/internal/models"
	"github.com/Jenil-Kakadiya/ScanNGo/internal/registration"
)

type EventRequest struct {
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	Capacity    int       `json:"capacity"`
}

type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

func CreateEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}
	if req.Capacity < 0 {
		helpers.RespondWithError(c, http.StatusBadRequest, "Capacity cannot be negative.")
		return
	}

	actor, ok := middleware.CurrentActor(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	event := models.Event{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		Capacity:    req.Capacity,
		Status:      models.EventDraft,
		OrganizerID: actor.ID,
	}

	if err := gormDB.Create(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create event.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Event created successfully.",
		"event":   event,
	})
}

func GetEvent(c *gin.Context) {
	eventID, err := helpers.ParamUUID(c, "id")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	var event models.Event
	if err := gormDB.Preload("Organizer").Where("id = ?", eventID).First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	c.JSON(http.StatusOK, event)
}

func ListEvents(c *gin.Context) {
	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	pageNum, err := helpers.StringToInt(c.DefaultQuery("page", "1"))
	if err != nil || pageNum < 1 {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid page number.")
		return
	}
	limitNum, err := helpers.StringToInt(c.DefaultQuery("limit", "10"))
	if err != nil || limitNum < 1 {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid limit.")
		return
	}

	query := gormDB.Model(&models.Event{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if location := c.Query("location"); location != "" {
		query = query.Where("location = ?", location)
	}

	var totalCount int64
	query.Count(&totalCount)

	var events []models.Event
	offset := (pageNum - 1) * limitNum
	err = query.Preload("Organizer").Offset(offset).Limit(limitNum).Order("starts_at ASC").Find(&events).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving events.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events":      events,
		"total":       totalCount,
		"page":        pageNum,
		"limit":       limitNum,
		"total_pages": (totalCount + int64(limitNum) - 1) / int64(limitNum),
	})
}

func UpdateEvent(c *gin.Context) {
	eventID, err := helpers.ParamUUID(c, "id")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	actor, ok := middleware.CurrentActor(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	event, ok := loadOwnedEvent(c, gormDB, eventID, actor)
	if !ok {
		return
	}
	if event.Status == models.EventCompleted {
		helpers.RespondWithError(c, http.StatusConflict, "Completed events cannot be modified.")
		return
	}
	if req.Capacity < 0 || (req.Capacity > 0 && req.Capacity < event.ConfirmedCount) {
		helpers.RespondWithError(c, http.StatusConflict, "Capacity cannot drop below confirmed registrations.")
		return
	}

	event.Name = req.Name
	event.Description = req.Description
	event.Location = req.Location
	event.StartsAt = req.StartsAt
	event.Capacity = req.Capacity

	if err := gormDB.Save(event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update event.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Event updated successfully.",
		"event":   event,
	})
}

// TransitionEvent moves an event along draft → open → closed → completed.
func TransitionEvent(c *gin.Context) {
	eventID, err := helpers.ParamUUID(c, "id")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	actor, ok := middleware.CurrentActor(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	event, ok := loadOwnedEvent(c, gormDB, eventID, actor)
	if !ok {
		return
	}
	if !event.CanTransitionTo(req.Status) {
		helpers.RespondWithError(c, http.StatusConflict, "Invalid status transition.")
		return
	}

	if err := gormDB.Model(event).Update("status", req.Status).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update event status.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Event status updated.",
		"status":  req.Status,
	})
}

// DeleteEvent removes an event and cancels all its registrations in one
// transaction so no orphaned code can still check in.
func DeleteEvent(c *gin.Context) {
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
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	event, ok := loadOwnedEvent(c, gormDB, eventID, actor)
	if !ok {
		return
	}

	err = gormDB.Transaction(func(tx *gorm.DB) error {
		if err := registration.CancelAllForEvent(tx, event.ID); err != nil {
			return err
		}
		return tx.Delete(event).Error
	})
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete event.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Event deleted successfully.",
	})
}

// loadOwnedEvent fetches the event and enforces that the actor is its
// organizer or an admin. It writes the error response itself.
func loadOwnedEvent(c *gin.Context, gormDB *gorm.DB, eventID uuid.UUID, actor registration.Actor) (*models.Event, bool) {
	var event models.Event
	if err := gormDB.Where("id = ?", eventID).First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return nil, false
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return nil, false
	}
	if event.OrganizerID != actor.ID && !actor.IsAdmin() {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to modify this event.")
		return nil, false
	}
	return &event, true
}
