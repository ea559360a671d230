// Package migrate implements the bulk historical-data migration and
// entity-reconciliation engine: it ingests one batch of legacy players,
// sessions, attendance, and payments for a single organizer and reconciles
// them into the relational store.
package migrate

import (
	"github.com/shopspring/decimal"
)

// PaymentMethod is the fixed set of accepted payment methods.
type PaymentMethod string

const (
	MethodPayNow         PaymentMethod = "paynow"
	MethodCash           PaymentMethod = "cash"
	MethodBankTransfer   PaymentMethod = "bank_transfer"
	MethodOther          PaymentMethod = "other"
	MethodCreditTransfer PaymentMethod = "credit_transfer"
)

// ValidMethods enumerates every accepted payment method.
var ValidMethods = map[PaymentMethod]bool{
	MethodPayNow:         true,
	MethodCash:           true,
	MethodBankTransfer:   true,
	MethodOther:          true,
	MethodCreditTransfer: true,
}

// SkillTier is the fixed set of accepted player skill tiers.
type SkillTier string

const (
	TierBeginner     SkillTier = "beginner"
	TierIntermediate SkillTier = "intermediate"
	TierAdvanced     SkillTier = "advanced"
	TierExpert       SkillTier = "expert"
)

// ValidTiers enumerates every accepted skill tier.
var ValidTiers = map[SkillTier]bool{
	TierBeginner:     true,
	TierIntermediate: true,
	TierAdvanced:     true,
	TierExpert:       true,
}

// MigrationData is one batch of legacy records for one organizer. Legacy
// exports may place payments under their session or in the flat top-level
// list; both are honored.
type MigrationData struct {
	Players  []MigrationPlayer  `json:"players,omitempty"`
	Sessions []MigrationSession `json:"sessions,omitempty"`
	Payments []MigrationPayment `json:"payments,omitempty"`
}

// MigrationPlayer is one row of legacy roster data.
type MigrationPlayer struct {
	Name        string    `json:"name"`
	Phone       string    `json:"phone,omitempty"`
	IsActive    *bool     `json:"is_active,omitempty"` // nil means active
	IsTemporary bool      `json:"is_temporary,omitempty"`
	JoinedDate  string    `json:"joined_date,omitempty"` // YYYY-MM-DD
	Notes       string    `json:"notes,omitempty"`
	SkillTier   SkillTier `json:"skill_tier,omitempty"`
}

// MigrationSession is one legacy session. CourtCost is the total court cost
// for the session, not an hourly rate; the hourly figure was already
// multiplied out in the export.
type MigrationSession struct {
	Date                string                 `json:"date"` // YYYY-MM-DD
	Name                string                 `json:"name,omitempty"`
	LocationName        string                 `json:"location_name"`
	CourtCost           decimal.Decimal        `json:"court_cost"`
	ShuttlecockRate     decimal.Decimal        `json:"shuttlecock_rate"`
	HoursPlayed         decimal.Decimal        `json:"hours_played"`
	ShuttlecocksUsed    int                    `json:"shuttlecocks_used"`
	DeclaredTotalCost   decimal.Decimal        `json:"declared_total_cost"`
	DeclaredAttendees   int                    `json:"declared_attendees"`
	DeclaredCostPerHead decimal.Decimal        `json:"declared_cost_per_head"`
	IsRecurring         bool                   `json:"is_recurring,omitempty"`
	StartTime           string                 `json:"start_time,omitempty"` // HH:MM
	EndTime             string                 `json:"end_time,omitempty"`   // HH:MM
	Notes               string                 `json:"notes,omitempty"`
	Participants        []MigrationParticipant `json:"participants"`
	Payments            []MigrationPayment     `json:"payments,omitempty"`
}

// MigrationParticipant is one attendee of a session, identified loosely by
// name and phone and owing a share of the session cost.
type MigrationParticipant struct {
	PlayerName string          `json:"player_name"`
	Phone      string          `json:"phone,omitempty"`
	AmountOwed decimal.Decimal `json:"amount_owed"`
	IsActive   *bool           `json:"is_active,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

// MigrationPayment is one signed legacy payment, nested under a session or
// supplied in the batch-level flat list.
type MigrationPayment struct {
	PlayerName      string          `json:"player_name"`
	Phone           string          `json:"phone,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Date            string          `json:"date"` // YYYY-MM-DD
	Method          PaymentMethod   `json:"method"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// activeOrDefault resolves the tri-state active flag; legacy rows that omit
// it are active.
func activeOrDefault(b *bool) bool {
	if b == nil {
		return true
	}
	return *b
}
