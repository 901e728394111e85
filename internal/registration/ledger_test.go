package registration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Jenil-Kakadiya/ScanNGo/internal/models"
	"github.com/Jenil-Kakadiya/ScanNGo/internal/token"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// A single connection serialises concurrent transactions the way
	// row locks do on postgres.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Event{}, &models.Registration{}))
	return db
}

func testLedger(t *testing.T) (*Ledger, *gorm.DB) {
	t.Helper()
	db := testDB(t)
	return NewLedger(db, zap.NewNop(), 5*time.Second), db
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Name: "Test User", Email: email, Password: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createEvent(t *testing.T, db *gorm.DB, capacity int, status string) *models.Event {
	t.Helper()
	organizer := createUser(t, db, uuid.NewString()+"@organizer.test")
	event := &models.Event{
		Name:        "Test Event",
		StartsAt:    time.Now().Add(24 * time.Hour),
		Capacity:    capacity,
		Status:      status,
		OrganizerID: organizer.ID,
	}
	require.NoError(t, db.Create(event).Error)
	return event
}

func TestRegister(t *testing.T) {
	ledger, db := testLedger(t)
	event := createEvent(t, db, 10, models.EventOpen)
	user := createUser(t, db, "attendee@test.com")

	reg, err := ledger.Register(context.Background(), event.ID, user.ID)
	require.NoError(t, err)

	assert.Equal(t, models.RegistrationConfirmed, reg.Status)
	assert.Equal(t, event.ID, reg.EventID)
	assert.Equal(t, user.ID, reg.UserID)
	assert.True(t, token.Valid(reg.VerificationToken))
	assert.Nil(t, reg.CheckedInAt)

	var stored models.Event
	require.NoError(t, db.First(&stored, "id = ?", event.ID).Error)
	assert.Equal(t, 1, stored.ConfirmedCount)
}

func TestRegister_EventNotFound(t *testing.T) {
	ledger, _ := testLedger(t)

	_, err := ledger.Register(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestRegister_EventNotOpen(t *testing.T) {
	ledger, db := testLedger(t)
	user := createUser(t, db, "attendee@test.com")

	for _, status := range []string{models.EventDraft, models.EventClosed, models.EventCompleted} {
		t.Run(status, func(t *testing.T) {
			event := createEvent(t, db, 10, status)
			_, err := ledger.Register(context.Background(), event.ID, user.ID)
			assert.ErrorIs(t, err, ErrEventNotOpen)
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	ledger, db := testLedger(t)
	event := createEvent(t, db, 10, models.EventOpen)
	user := createUser(t, db, "attendee@test.com")

	_, err := ledger.Register(context.Background(), event.ID, user.ID)
	require.NoError(t, err)

	_, err = ledger.Register(context.Background(), event.ID, user.ID)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	var stored models.Event
	require.NoError(t, db.First(&stored, "id = ?", event.ID).Error)
	assert.Equal(t, 1, stored.ConfirmedCount)
}

func TestRegister_TokensUnique(t *testing.T) {
	ledger, db := testLedger(t)
	event := createEvent(t, db, 0, models.EventOpen)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		user := createUser(t, db, uuid.NewString()+"@test.com")
		reg, err := ledger.Register(context.Background(), event.ID, user.ID)
		require.NoError(t, err)
		assert.False(t, seen[reg.VerificationToken])
		seen[reg.VerificationToken] = true
	}
}

func TestRegister_CapacityExceeded(t *testing.T) {
	ledger, db := testLedger(t)
	event := createEvent(t, db, 1, models.EventOpen)
	userA := createUser(t, db, "a@test.com")
	userB := createUser(t, db, "b@test.com")

	_, err := ledger.Register(context.Background(), event.ID, userA.ID)
	require.NoError(t, err)

	_, err = ledger.Register(context.Background(), event.ID, userB.ID)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

// A cancelled registration releases its slot and a new registration for the
// freed slot succeeds.
func TestRegister_SlotFreedByCancel(t *testing.T) {
	ledger, db := testLedger(t)
	event := createEvent(t, db, 1, models.EventOpen)
	userA := createUser(t, db, "a@test.com")
	userB := createUser(t, db, "b@test.com")

	regA, err := ledger.Register(context.Background(), event.ID, userA.ID)
	require.NoError(t, err)

	_, err = ledger.Register(context.Background(), event.ID, userB.ID)
	require.ErrorIs(t, err, ErrCapacityExceeded)

	require.NoError(t, ledger.Cancel(context.Background(), regA.ID, Actor{ID: userA.ID, Role: models.RoleUser}))

	regB, err := ledger.Register(context.Background(), event.ID, userB.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationConfirmed, regB.Status)
	assert.NotEqual(t, regA.VerificationToken, regB.VerificationToken)

	var stored models.Event
	require.NoError(t, db.First(&stored, "id = ?", event.ID).Error)
	assert.Equal(t, 1, stored.ConfirmedCount)
}

func TestRegister_UnboundedCapacity(t *testing.T) {
	ledger, db := testLedger(t)
	event := createEvent(t, db, 0, models.EventOpen)

	for i := 0; i < 5; i++ {
		user := createUser(t, db, uuid.NewString()+"@test.com")
		_, err := ledger.Register(context.Background(), event.ID, user.ID)
		require.NoError(t, err)
	}
}

// With more concurrent attempts than slots, confirmed registrations never
// exceed capacity: exactly C succeed and the rest fail with
// ErrCapacityExceeded.
func TestRegister_ConcurrentCapacity(t *testing.T) {
	const capacity = 3
	const attempts = 10

	ledger, db := testLedger(t)
	event := createEvent(t, db, capacity, models.EventOpen)

	users := make([]*models.User, attempts)
	for i := range users {
		users[i] = createUser(t, db, uuid.NewString()+"@test.com")
	}

	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = ledger.Register(context.Background(), event.ID, users[i].ID)
		}(i)
	}
	wg.Wait()

	successes, capacityErrs := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrCapacityExceeded):
			capacityErrs++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, capacity, successes)
	assert.Equal(t, attempts-capacity, capacityErrs)

	var stored models.Event
	require.NoError(t, db.First(&stored, "id = ?", event.ID).Error)
	assert.Equal(t, capacity, stored.ConfirmedCount)

	var confirmed int64
	require.NoError(t, db.Model(&models.Registration{}).
		Where("event_id = ? AND status = ?", event.ID, models.RegistrationConfirmed).
		Count(&confirmed).Error)
	assert.EqualValues(t, capacity, confirmed)
}

func TestCancel(t *testing.T) {
	ledger, db := testLedger(t)
	event := createEvent(t, db, 5, models.EventOpen)
	user := createUser(t, db, "attendee@test.com")

	reg, err := ledger.Register(context.Background(), event.ID, user.ID)
	require.NoError(t, err)

	owner := Actor{ID: user.ID, Role: models.RoleUser}
	require.NoError(t, ledger.Cancel(context.Background(), reg.ID, owner))

	var stored models.Registration
	require.NoError(t, db.First(&stored, "id = ?", reg.ID).Error)
	assert.Equal(t, models.RegistrationCancelled, stored.Status)

	var storedEvent models.Event
	require.NoError(t, db.First(&storedEvent, "id = ?", event.ID).Error)
	assert.Equal(t, 0, storedEvent.ConfirmedCount)

	// Idempotent: cancelling again is a no-op success and the count does
	// not go negative.
	require.NoError(t, ledger.Cancel(context.Background(), reg.ID, owner))
	require.NoError(t, db.First(&storedEvent, "id = ?", event.ID).Error)
	assert.Equal(t, 0, storedEvent.ConfirmedCount)
}

func TestCancel_Forbidden(t *testing.T) {
	ledger, db := testLedger(t)
	event := createEvent(t, db, 5, models.EventOpen)
	user := createUser(t, db, "attendee@test.com")
	stranger := createUser(t, db, "stranger@test.com")

	reg, err := ledger.Register(context.Background(), event.ID, user.ID)
	require.NoError(t, err)

	err = ledger.Cancel(context.Background(), reg.ID, Actor{ID: stranger.ID, Role: models.RoleUser})
	assert.ErrorIs(t, err, ErrForbidden)

	// Admins may cancel registrations they do not own.
	err = ledger.Cancel(context.Background(), reg.ID, Actor{ID: stranger.ID, Role: models.RoleAdmin})
	assert.NoError(t, err)
}

func TestCancel_NotFound(t *testing.T) {
	ledger, _ := testLedger(t)
	err := ledger.Cancel(context.Background(), uuid.New(), Actor{ID: uuid.New(), Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByToken(t *testing.T) {
	ledger, db := testLedger(t)
	event := createEvent(t, db, 5, models.EventOpen)
	user := createUser(t, db, "attendee@test.com")

	reg, err := ledger.Register(context.Background(), event.ID, user.ID)
	require.NoError(t, err)

	found, err := ledger.FindByToken(context.Background(), reg.VerificationToken)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, found.ID)
	require.NotNil(t, found.Event)
	assert.Equal(t, event.ID, found.Event.ID)
	require.NotNil(t, found.User)
	assert.Equal(t, user.Email, found.User.Email)

	unknown, err := token.New()
	require.NoError(t, err)
	_, err = ledger.FindByToken(context.Background(), unknown)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListForEvent_Pagination(t *testing.T) {
	ledger, db := testLedger(t)
	event := createEvent(t, db, 0, models.EventOpen)

	var created []uuid.UUID
	for i := 0; i < 5; i++ {
		user := createUser(t, db, uuid.NewString()+"@test.com")
		reg, err := ledger.Register(context.Background(), event.ID, user.ID)
		require.NoError(t, err)
		created = append(created, reg.ID)
	}

	var collected []uuid.UUID
	cursor := ""
	for {
		regs, next, err := ledger.ListForEvent(context.Background(), event.ID, cursor, 2)
		require.NoError(t, err)
		for _, reg := range regs {
			collected = append(collected, reg.ID)
		}
		if next == "" {
			break
		}
		cursor = next
	}

	assert.ElementsMatch(t, created, collected)
	assert.Len(t, collected, 5)
}

func TestListForUser(t *testing.T) {
	ledger, db := testLedger(t)
	user := createUser(t, db, "attendee@test.com")
	other := createUser(t, db, "other@test.com")

	for i := 0; i < 3; i++ {
		event := createEvent(t, db, 0, models.EventOpen)
		_, err := ledger.Register(context.Background(), event.ID, user.ID)
		require.NoError(t, err)
		_, err = ledger.Register(context.Background(), event.ID, other.ID)
		require.NoError(t, err)
	}

	regs, next, err := ledger.ListForUser(context.Background(), user.ID, "", 50)
	require.NoError(t, err)
	assert.Len(t, regs, 3)
	assert.Empty(t, next)
	for _, reg := range regs {
		assert.Equal(t, user.ID, reg.UserID)
	}
}

func TestCancelAllForEvent(t *testing.T) {
	ledger, db := testLedger(t)
	event := createEvent(t, db, 0, models.EventOpen)

	for i := 0; i < 3; i++ {
		user := createUser(t, db, uuid.NewString()+"@test.com")
		_, err := ledger.Register(context.Background(), event.ID, user.ID)
		require.NoError(t, err)
	}

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return CancelAllForEvent(tx, event.ID)
	}))

	var active int64
	require.NoError(t, db.Model(&models.Registration{}).
		Where("event_id = ? AND status <> ?", event.ID, models.RegistrationCancelled).
		Count(&active).Error)
	assert.Zero(t, active)

	var stored models.Event
	require.NoError(t, db.First(&stored, "id = ?", event.ID).Error)
	assert.Equal(t, 0, stored.ConfirmedCount)
}
