// Package checkin converts scan events into attendance records with
// at-most-once semantics per registration.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Jenil-Kakadiya/ScanNGo/internal/models"
	"github.com/Jenil-Kakadiya/ScanNGo/internal/qrcode"
	"github.com/Jenil-Kakadiya/ScanNGo/internal/registration"
)

var (
	// ErrInvalidCode covers both malformed payloads and tokens that match
	// no registration; the operator cannot distinguish the two cases and
	// should not be able to probe for valid tokens.
	ErrInvalidCode = errors.New("invalid code")
	// ErrRegistrationCancelled is returned when the scanned registration
	// was cancelled before the scan.
	ErrRegistrationCancelled = errors.New("registration cancelled")
)

// AlreadyCheckedInError reports a repeat scan, carrying the original
// check-in time so the operator can see when the first scan happened.
type AlreadyCheckedInError struct {
	CheckedInAt time.Time
}

func (e *AlreadyCheckedInError) Error() string {
	return fmt.Sprintf("already checked in at %s", e.CheckedInAt.Format(time.RFC3339))
}

// Summary is what the operator's screen shows after a successful scan.
type Summary struct {
	RegistrationID string    `json:"registration_id"`
	AttendeeName   string    `json:"attendee_name"`
	AttendeeEmail  string    `json:"attendee_email"`
	EventName      string    `json:"event_name"`
	CheckedInAt    time.Time `json:"checked_in_at"`
}

// Service orchestrates a scan against the registration ledger.
type Service struct {
	codec  *qrcode.Codec
	ledger *registration.Ledger
	log    *zap.Logger
	now    func() time.Time
}

// NewService constructs a check-in service.
func NewService(codec *qrcode.Codec, ledger *registration.Ledger, log *zap.Logger) *Service {
	return &Service{codec: codec, ledger: ledger, log: log, now: time.Now}
}

// Scan decodes a payload, resolves its registration, and transitions it to
// checked-in. Scanning the same code twice yields exactly one success and
// one AlreadyCheckedInError; the stored timestamp is never overwritten.
func (s *Service) Scan(ctx context.Context, payload string) (*Summary, error) {
	tok, err := s.codec.DecodePayload(payload)
	if err != nil {
		return nil, ErrInvalidCode
	}

	reg, err := s.ledger.FindByToken(ctx, tok)
	if err != nil {
		if errors.Is(err, registration.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	switch reg.Status {
	case models.RegistrationCancelled:
		return nil, ErrRegistrationCancelled
	case models.RegistrationConfirmed:
	default:
		// Pending registrations hold no seat yet and cannot attend.
		return nil, ErrRegistrationCancelled
	}
	if reg.CheckedInAt != nil {
		return nil, &AlreadyCheckedInError{CheckedInAt: *reg.CheckedInAt}
	}

	at := s.now().UTC()
	ok, err := s.ledger.CheckIn(ctx, reg.ID, at)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the swap: a concurrent (or earlier) scan already claimed
		// the transition. Re-read for the authoritative timestamp.
		current, err := s.ledger.Get(ctx, reg.ID)
		if err != nil {
			return nil, err
		}
		if current.Status == models.RegistrationCancelled {
			return nil, ErrRegistrationCancelled
		}
		if current.CheckedInAt != nil {
			return nil, &AlreadyCheckedInError{CheckedInAt: *current.CheckedInAt}
		}
		return nil, ErrInvalidCode
	}

	s.log.Info("attendee checked in",
		zap.String("registration_id", reg.ID.String()),
		zap.String("event_id", reg.EventID.String()),
		zap.Time("checked_in_at", at))

	summary := &Summary{
		RegistrationID: reg.ID.String(),
		CheckedInAt:    at,
	}
	if reg.User != nil {
		summary.AttendeeName = reg.User.Name
		summary.AttendeeEmail = reg.User.Email
	}
	if reg.Event != nil {
		summary.EventName = reg.Event.Name
	}
	return summary, nil
}
