// Package registration is the authoritative state machine for event
// registrations: it creates them, issues verification tokens, and records
// cancellation and check-in eligibility.
package registration

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Jenil-Kakadiya/ScanNGo/internal/models"
	"github.com/Jenil-Kakadiya/ScanNGo/internal/token"
)

const (
	defaultStoreTimeout = 5 * time.Second
	defaultPageLimit    = 20
	maxPageLimit        = 100
)

// Actor identifies who is performing a mutation. The identity layer has
// already authenticated it; the ledger only checks ownership.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// IsAdmin reports whether the actor may act on registrations owned by others.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Ledger owns all registration state. It is stateless between calls; every
// mutation is a single transaction against the store.
type Ledger struct {
	db      *gorm.DB
	log     *zap.Logger
	timeout time.Duration
}

// NewLedger constructs a Ledger. A zero timeout falls back to 5s.
func NewLedger(db *gorm.DB, log *zap.Logger, timeout time.Duration) *Ledger {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &Ledger{db: db, log: log, timeout: timeout}
}

// Register creates a confirmed registration for userID on eventID.
//
// The capacity check and the insert run in one transaction: the guarded
// UPDATE on the event row only increments confirmed_count while a slot
// remains, so two concurrent calls for the last slot serialise on the row
// and exactly one wins. The partial unique index on (event_id, user_id)
// backstops duplicate races the pre-check misses.
func (l *Ledger) Register(ctx context.Context, eventID, userID uuid.UUID) (*models.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var reg *models.Registration
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.Where("id = ?", eventID).First(&event).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if event.Status != models.EventOpen {
			return ErrEventNotOpen
		}

		var existing models.Registration
		err := tx.Where("event_id = ? AND user_id = ? AND status <> ?",
			eventID, userID, models.RegistrationCancelled).First(&existing).Error
		if err == nil {
			return ErrAlreadyRegistered
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		res := tx.Model(&models.Event{}).
			Where("id = ? AND status = ? AND (capacity = 0 OR confirmed_count < capacity)",
				eventID, models.EventOpen).
			UpdateColumn("confirmed_count", gorm.Expr("confirmed_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// The guard failed against the latest committed row: either a
			// concurrent registration took the last slot, or the event was
			// closed underneath us.
			if err := tx.Where("id = ?", eventID).First(&event).Error; err == nil &&
				event.Status != models.EventOpen {
				return ErrEventNotOpen
			}
			return ErrCapacityExceeded
		}

		verificationToken, err := token.New()
		if err != nil {
			return err
		}
		reg = &models.Registration{
			EventID:           eventID,
			UserID:            userID,
			VerificationToken: verificationToken,
			Status:            models.RegistrationConfirmed,
		}
		if err := tx.Create(reg).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyRegistered
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, l.storeErr(err)
	}

	l.log.Info("registration created",
		zap.String("registration_id", reg.ID.String()),
		zap.String("event_id", eventID.String()),
		zap.String("user_id", userID.String()))
	return reg, nil
}

// Cancel marks a registration cancelled and releases its slot. Cancelling an
// already-cancelled registration is a no-op success. Only the owning user or
// an admin may cancel.
func (l *Ledger) Cancel(ctx context.Context, registrationID uuid.UUID, actor Actor) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reg models.Registration
		if err := tx.Where("id = ?", registrationID).First(&reg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if reg.UserID != actor.ID && !actor.IsAdmin() {
			return ErrForbidden
		}
		if reg.Status == models.RegistrationCancelled {
			return nil
		}
		wasConfirmed := reg.Status == models.RegistrationConfirmed

		if err := tx.Model(&reg).Update("status", models.RegistrationCancelled).Error; err != nil {
			return err
		}
		if wasConfirmed {
			if err := tx.Model(&models.Event{}).
				Where("id = ? AND confirmed_count > 0", reg.EventID).
				UpdateColumn("confirmed_count", gorm.Expr("confirmed_count - 1")).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return l.storeErr(err)
	}

	l.log.Info("registration cancelled",
		zap.String("registration_id", registrationID.String()),
		zap.String("actor_id", actor.ID.String()))
	return nil
}

// FindByToken resolves a verification token to its registration, with the
// event and user loaded. Only the check-in service calls this; it is never
// exposed for enumeration.
func (l *Ledger) FindByToken(ctx context.Context, verificationToken string) (*models.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var reg models.Registration
	err := l.db.WithContext(ctx).
		Preload("Event").Preload("User").
		Where("verification_token = ?", verificationToken).
		First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, l.storeErr(err)
	}
	return &reg, nil
}

// Get returns a registration by ID with its event loaded.
func (l *Ledger) Get(ctx context.Context, registrationID uuid.UUID) (*models.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var reg models.Registration
	err := l.db.WithContext(ctx).Preload("Event").
		Where("id = ?", registrationID).First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, l.storeErr(err)
	}
	return &reg, nil
}

// CheckIn transitions a confirmed, not-yet-checked-in registration to
// checked-in at the given time. The guarded UPDATE makes the transition a
// compare-and-swap: of two concurrent scans exactly one sees RowsAffected=1.
// It returns the updated registration, or false when the row was not
// eligible (already checked in, or not confirmed).
func (l *Ledger) CheckIn(ctx context.Context, registrationID uuid.UUID, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	res := l.db.WithContext(ctx).Model(&models.Registration{}).
		Where("id = ? AND status = ? AND checked_in_at IS NULL",
			registrationID, models.RegistrationConfirmed).
		Update("checked_in_at", at)
	if res.Error != nil {
		return false, l.storeErr(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ListForUser returns the user's registrations in creation order, with
// keyset pagination. The returned cursor is empty when there are no more
// pages.
func (l *Ledger) ListForUser(ctx context.Context, userID uuid.UUID, cursor string, limit int) ([]models.Registration, string, error) {
	return l.list(ctx, "user_id", userID, "Event", cursor, limit)
}

// ListForEvent returns an event's registrations in creation order, with
// keyset pagination.
func (l *Ledger) ListForEvent(ctx context.Context, eventID uuid.UUID, cursor string, limit int) ([]models.Registration, string, error) {
	return l.list(ctx, "event_id", eventID, "User", cursor, limit)
}

func (l *Ledger) list(ctx context.Context, column string, id uuid.UUID, preload, cursor string, limit int) ([]models.Registration, string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	q := l.db.WithContext(ctx).Preload(preload).
		Where(column+" = ?", id).
		Order("created_at ASC, id ASC").
		Limit(limit)

	if cursor != "" {
		cursorID, err := uuid.Parse(cursor)
		if err != nil {
			return nil, "", ErrNotFound
		}
		var after models.Registration
		if err := l.db.WithContext(ctx).Where("id = ?", cursorID).First(&after).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, "", ErrNotFound
			}
			return nil, "", l.storeErr(err)
		}
		q = q.Where("(created_at > ?) OR (created_at = ? AND id > ?)",
			after.CreatedAt, after.CreatedAt, after.ID)
	}

	var regs []models.Registration
	if err := q.Find(&regs).Error; err != nil {
		return nil, "", l.storeErr(err)
	}

	next := ""
	if len(regs) == limit {
		next = regs[len(regs)-1].ID.String()
	}
	return regs, next, nil
}

// CancelAllForEvent cancels every active registration of an event inside the
// caller's transaction and zeroes the confirmed count. Used when an event is
// deleted so no orphaned registration can still check in.
func CancelAllForEvent(tx *gorm.DB, eventID uuid.UUID) error {
	if err := tx.Model(&models.Registration{}).
		Where("event_id = ? AND status <> ?", eventID, models.RegistrationCancelled).
		Update("status", models.RegistrationCancelled).Error; err != nil {
		return err
	}
	return tx.Model(&models.Event{}).
		Where("id = ?", eventID).
		UpdateColumn("confirmed_count", 0).Error
}

// storeErr converts store timeouts and lock contention into the retryable
// ErrTemporarilyUnavailable; domain errors pass through untouched.
func (l *Ledger) storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrEventNotFound),
		errors.Is(err, ErrEventNotOpen),
		errors.Is(err, ErrAlreadyRegistered),
		errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrForbidden):
		return err
	case errors.Is(err, context.DeadlineExceeded),
		strings.Contains(err.Error(), "database is locked"),
		strings.Contains(err.Error(), "lock timeout"):
		l.log.Warn("store contention", zap.Error(err))
		return ErrTemporarilyUnavailable
	default:
		return err
	}
}
