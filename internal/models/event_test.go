package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventCanTransitionTo(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{EventDraft, EventOpen, true},
		{EventOpen, EventClosed, true},
		{EventClosed, EventCompleted, true},
		{EventDraft, EventClosed, false},
		{EventDraft, EventCompleted, false},
		{EventOpen, EventDraft, false},
		{EventOpen, EventCompleted, false},
		{EventClosed, EventOpen, false},
		{EventCompleted, EventOpen, false},
		{EventCompleted, EventClosed, false},
		{EventOpen, "bogus", false},
	}

	for _, tt := range tests {
		event := Event{Status: tt.from}
		assert.Equal(t, tt.want, event.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestEventRemaining(t *testing.T) {
	bounded := Event{Capacity: 5, ConfirmedCount: 2}
	assert.Equal(t, 3, bounded.Remaining())

	full := Event{Capacity: 5, ConfirmedCount: 5}
	assert.Equal(t, 0, full.Remaining())

	// Capacity 0 means unbounded.
	unbounded := Event{Capacity: 0, ConfirmedCount: 100}
	assert.Equal(t, -1, unbounded.Remaining())
}

func TestUserIsAdmin(t *testing.T) {
	admin := User{Role: RoleAdmin}
	assert.True(t, admin.IsAdmin())

	regular := User{Role: RoleUser}
	assert.False(t, regular.IsAdmin())
}
