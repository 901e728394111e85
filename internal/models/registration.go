package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RegistrationPending   = "pending"
	RegistrationConfirmed = "confirmed"
	RegistrationCancelled = "cancelled"
)

type Registration struct {
	gorm.Model
	ID      uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	EventID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_event_user_active,where:status <> 'cancelled'" json:"event_id"`
	Event   *Event    `gorm:"foreignKey:EventID" json:"event,omitempty"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_event_user_active,where:status <> 'cancelled'" json:"user_id"`
	User    *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	// VerificationToken is a bearer capability: anyone holding it can check
	// the registration in. Never derived from the row ID.
	VerificationToken string     `gorm:"uniqueIndex;not null" json:"verification_token"`
	Status            string     `gorm:"not null;default:'pending'" json:"status"`
	CheckedInAt       *time.Time `json:"checked_in_at,omitempty"`
}

func (registration *Registration) BeforeCreate(tx *gorm.DB) (err error) {
	if registration.ID == uuid.Nil {
		registration.ID = uuid.New()
	}
	return
}

// Active reports whether the registration still holds a seat.
func (registration *Registration) Active() bool {
	return registration.Status != RegistrationCancelled
}
