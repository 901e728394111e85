package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EventDraft     = "draft"
	EventOpen      = "open"
	EventClosed    = "closed"
	EventCompleted = "completed"
)

type Event struct {
	gorm.Model
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `gorm:"not null" json:"starts_at"`
	// Capacity 0 means unbounded.
	Capacity       int            `gorm:"not null;default:0" json:"capacity"`
	ConfirmedCount int            `gorm:"not null;default:0" json:"confirmed_count"`
	Status         string         `gorm:"not null;default:'draft'" json:"status"`
	OrganizerID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"organizer_id"`
	Organizer      *User          `gorm:"foreignKey:OrganizerID" json:"organizer,omitempty"`
	Registrations  []Registration `gorm:"foreignKey:EventID" json:"registrations,omitempty"`
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}

// Remaining returns the number of free slots, or -1 when capacity is unbounded.
func (event *Event) Remaining() int {
	if event.Capacity == 0 {
		return -1
	}
	return event.Capacity - event.ConfirmedCount
}

// CanTransitionTo enforces the draft → open → closed → completed lifecycle.
func (event *Event) CanTransitionTo(status string) bool {
	switch event.Status {
	case EventDraft:
		return status == EventOpen
	case EventOpen:
		return status == EventClosed
	case EventClosed:
		return status == EventCompleted
	default:
		return false
	}
}
