// Package store defines the persistent store contract the migration engine
// writes through, plus its Postgres and in-memory implementations.
//
// The relational schema is owned elsewhere. In particular, sessions carry
// two generated columns (total_cost, cost_per_player) that the store
// computes itself; writers supply the raw cost components only.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("store: not found")

// --------------------------------------------------------------------------
// Entities
// --------------------------------------------------------------------------

// Player is a persisted roster member, unique per organizer by identity.
// Phone is never null; temporary players carry a randomized placeholder.
type Player struct {
	ID          uuid.UUID
	OrganizerID uuid.UUID
	Name        string
	Phone       string
	IsActive    bool
	IsTemporary bool
	SkillTier   string
	Notes       string
	JoinedDate  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewPlayer is the insert payload for a player.
type NewPlayer struct {
	OrganizerID uuid.UUID
	Name        string
	Phone       string
	IsActive    bool
	IsTemporary bool
	SkillTier   string
	Notes       string
	JoinedDate  *time.Time
}

// PlayerUpdate carries the mutable player fields. Phone is identity and is
// deliberately absent. Nil pointers leave the stored value untouched.
type PlayerUpdate struct {
	Name      string
	IsActive  *bool
	Notes     *string
	SkillTier *string
}

// Session is a persisted session. TotalCost and CostPerPlayer are generated
// by the store from the three raw cost components.
type Session struct {
	ID               uuid.UUID
	OrganizerID      uuid.UUID
	Name             string
	Date             time.Time
	LocationName     string
	CourtCost        decimal.Decimal
	ShuttlecockCost  decimal.Decimal
	OtherCosts       decimal.Decimal
	TotalCost        decimal.Decimal // generated
	CostPerPlayer    decimal.Decimal // generated
	HoursPlayed      decimal.Decimal
	ShuttlecocksUsed int
	IsRecurring      bool
	StartTime        string
	EndTime          string
	Notes            string
	CreatedAt        time.Time
}

// NewSession is the insert payload for a session. There is intentionally no
// field for the generated columns.
type NewSession struct {
	OrganizerID      uuid.UUID
	Name             string
	Date             time.Time
	LocationName     string
	CourtCost        decimal.Decimal
	ShuttlecockCost  decimal.Decimal
	OtherCosts       decimal.Decimal
	HoursPlayed      decimal.Decimal
	ShuttlecocksUsed int
	IsRecurring      bool
	StartTime        string
	EndTime          string
	Notes            string
}

// NewSessionParticipant links one session to one player with an owed amount.
type NewSessionParticipant struct {
	SessionID  uuid.UUID
	PlayerID   uuid.UUID
	AmountOwed decimal.Decimal
	IsActive   bool
	Notes      string
}

// Payment is a persisted signed payment belonging to one player.
type Payment struct {
	ID              uuid.UUID
	OrganizerID     uuid.UUID
	PlayerID        uuid.UUID
	Amount          decimal.Decimal
	Method          string
	Date            time.Time
	ReferenceNumber string
	Notes           string
	CreatedAt       time.Time
}

// NewPayment is the insert payload for a payment.
type NewPayment struct {
	OrganizerID     uuid.UUID
	PlayerID        uuid.UUID
	Amount          decimal.Decimal
	Method          string
	Date            time.Time
	ReferenceNumber string
	Notes           string
}

// --------------------------------------------------------------------------
// Store contract
// --------------------------------------------------------------------------

// Store is the persistence boundary of the migration engine. Lookups return
// ErrNotFound on a miss. The store independently enforces phone uniqueness
// per organizer, non-null phone, and the payment amount/method sign
// invariant; the engine pre-checks those purely for better error messages.
type Store interface {
	FindPlayerByName(ctx context.Context, organizerID uuid.UUID, name string) (*Player, error)
	FindPlayerByPhone(ctx context.Context, organizerID uuid.UUID, phone string) (*Player, error)
	ListPlayers(ctx context.Context, organizerID uuid.UUID) ([]Player, error)
	InsertPlayer(ctx context.Context, p NewPlayer) (*Player, error)
	UpdatePlayer(ctx context.Context, playerID uuid.UUID, upd PlayerUpdate) (*Player, error)
	InsertSession(ctx context.Context, s NewSession) (*Session, error)
	InsertSessionParticipant(ctx context.Context, sp NewSessionParticipant) error
	InsertPayment(ctx context.Context, p NewPayment) (*Payment, error)
}
