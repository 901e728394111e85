package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model
	ID            uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name          string         `gorm:"not null" json:"name"`
	Email         string         `gorm:"unique;not null" json:"email"`
	MobileNo      string         `json:"mobile_no"`
	Password      string         `gorm:"not null" json:"-"`
	Role          string         `gorm:"not null;default:'user'" json:"role"`
	Events        []Event        `gorm:"foreignKey:OrganizerID" json:"events,omitempty"`
	Registrations []Registration `gorm:"foreignKey:UserID" json:"registrations,omitempty"`
}

func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return
}

// IsAdmin reports whether the user may act on resources they do not own.
func (user *User) IsAdmin() bool {
	return user.Role == RoleAdmin
}
