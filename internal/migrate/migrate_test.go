package migrate

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuttlebook/shuttlebook-data/internal/store"
)

// exampleBatch is the canonical end-to-end case: one roster player, one
// session with a known and an unknown participant, one payment.
func exampleBatch() *MigrationData {
	return &MigrationData{
		Players: []MigrationPlayer{
			{Name: "Sarah", Phone: "+6591234574"},
		},
		Sessions: []MigrationSession{{
			Date:              "2023-04-12",
			LocationName:      "ActiveSG Bedok",
			CourtCost:         dec("50.00"),
			ShuttlecockRate:   dec("5.00"),
			ShuttlecocksUsed:  2,
			DeclaredTotalCost: dec("60.00"),
			DeclaredAttendees: 2,
			Participants: []MigrationParticipant{
				{PlayerName: "Sarah", Phone: "+6591234574", AmountOwed: dec("30.00")},
				{PlayerName: "Guest", AmountOwed: dec("30.00")},
			},
		}},
		Payments: []MigrationPayment{
			{PlayerName: "Sarah", Phone: "+6591234574", Amount: dec("25.00"), Date: "2023-04-12", Method: MethodPayNow},
		},
	}
}

func TestRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	org := uuid.New()
	mem := store.NewMemory()

	result := New(mem, testLogger(), Options{}).Run(ctx, org, exampleBatch())

	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 1, result.Stats.StandalonePlayersCreated)
	assert.Equal(t, 1, result.Stats.SessionPlayersCreated, "Guest is created during extraction")
	assert.Equal(t, 1, result.Stats.SessionPlayersUpdated, "Sarah re-upserts as an update")
	assert.Equal(t, 1, result.Stats.SessionsCreated)
	assert.Equal(t, 2, result.Stats.ParticipantRecordsCreated)
	assert.Equal(t, 1, result.Stats.PaymentsCreated)

	sessions := mem.Sessions()
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].CourtCost.Equal(dec("50.00")))
	assert.True(t, sessions[0].ShuttlecockCost.Equal(dec("10.00")))

	payments := mem.Payments()
	require.Len(t, payments, 1)
	assert.True(t, payments[0].Amount.Equal(dec("25.00")))
	assert.Equal(t, string(MethodPayNow), payments[0].Method)

	assert.Equal(t, 2, mem.PlayerCount())
}

func TestRunRefusesInvalidBatch(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	batch := exampleBatch()
	batch.Sessions[0].Participants = nil

	result := New(mem, testLogger(), Options{}).Run(ctx, uuid.New(), batch)

	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Message, "validation failed")
	assert.Equal(t, 0, mem.PlayerCount(), "no write may happen on structural failure")
	assert.Empty(t, mem.Sessions())
}

func TestRunCreatesPlayerSeenOnlyInFlatPayments(t *testing.T) {
	ctx := context.Background()
	org := uuid.New()
	mem := store.NewMemory()

	batch := &MigrationData{
		Payments: []MigrationPayment{
			{PlayerName: "Refund-only Rita", Phone: "+6590001111", Amount: dec("-15.00"), Date: "2023-05-01", Method: MethodCreditTransfer},
		},
	}

	result := New(mem, testLogger(), Options{}).Run(ctx, org, batch)

	assert.True(t, result.Success, "errors: %v", result.Errors)
	assert.Equal(t, 1, result.Stats.SessionPlayersCreated, "payment-only identity created during extraction")
	assert.Equal(t, 1, result.Stats.PaymentsCreated)
	assert.Equal(t, 1, mem.PlayerCount())
}

func TestRunIsIdempotentForPlayers(t *testing.T) {
	ctx := context.Background()
	org := uuid.New()
	mem := store.NewMemory()
	m := New(mem, testLogger(), Options{})

	batch := &MigrationData{Players: []MigrationPlayer{{Name: "Sarah", Phone: "+6591234574"}}}

	first := m.Run(ctx, org, batch)
	assert.Equal(t, 1, first.Stats.StandalonePlayersCreated)

	second := m.Run(ctx, org, batch)
	assert.Equal(t, 0, second.Stats.StandalonePlayersCreated)
	assert.Equal(t, 1, second.Stats.StandalonePlayersUpdated)
	assert.Equal(t, 1, mem.PlayerCount(), "persisted player count must not change")
}

func TestRunPaymentWorkerPool(t *testing.T) {
	ctx := context.Background()
	org := uuid.New()
	mem := store.NewMemory()

	batch := &MigrationData{
		Players: []MigrationPlayer{{Name: "Sarah", Phone: "+6591234574"}},
	}
	for i := 0; i < 20; i++ {
		batch.Payments = append(batch.Payments, MigrationPayment{
			PlayerName: "Sarah", Phone: "+6591234574",
			Amount: dec("5.00"), Date: "2023-04-12", Method: MethodCash,
		})
	}

	result := New(mem, testLogger(), Options{PaymentWorkers: 4}).Run(ctx, org, batch)

	assert.True(t, result.Success, "errors: %v", result.Errors)
	// Duplicate-looking payments are trusted verbatim, never deduplicated.
	assert.Equal(t, 20, result.Stats.PaymentsCreated)
	assert.Len(t, mem.Payments(), 20)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	org := uuid.New()
	mem := store.NewMemory()

	// Pre-existing player so the dry run exercises the update path too.
	seedPlayer(t, mem, org, "Sarah", "+6591234574")

	result := New(mem, testLogger(), Options{DryRun: true}).Run(ctx, org, exampleBatch())

	assert.True(t, result.Success, "errors: %v", result.Errors)
	assert.Contains(t, result.Message, "dry run")
	assert.Equal(t, 1, result.Stats.StandalonePlayersUpdated)
	assert.Equal(t, 1, result.Stats.SessionPlayersCreated)
	assert.Equal(t, 1, result.Stats.SessionsCreated)
	assert.Equal(t, 1, result.Stats.PaymentsCreated)

	// The base store is never written.
	assert.Equal(t, 1, mem.PlayerCount())
	assert.Empty(t, mem.Sessions())
	assert.Empty(t, mem.Payments())
}

func TestRunStrictResolutionFailsLooseIdentities(t *testing.T) {
	ctx := context.Background()
	org := uuid.New()
	mem := store.NewMemory()

	batch := &MigrationData{
		Players: []MigrationPlayer{{Name: "Sarah Lim", Phone: "+6591234574"}},
		Sessions: []MigrationSession{{
			Date:         "2023-04-12",
			LocationName: "ActiveSG Bedok",
			Participants: []MigrationParticipant{
				// Only a substring of the roster name; no phone. Extraction
				// creates a separate "sarah" player under strict mode, so the
				// link resolves to that new player, not to Sarah Lim.
				{PlayerName: "sarah", AmountOwed: dec("30.00")},
			},
		}},
	}

	result := New(mem, testLogger(), Options{StrictResolution: true}).Run(ctx, org, batch)

	assert.True(t, result.Success, "errors: %v", result.Errors)
	assert.Equal(t, 1, result.Stats.SessionPlayersCreated, "strict mode creates rather than fuzzy-matches")
	assert.Equal(t, 2, mem.PlayerCount())
}

func TestRunHonorsCancellation(t *testing.T) {
	org := uuid.New()
	mem := store.NewMemory()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := New(mem, testLogger(), Options{}).Run(ctx, org, exampleBatch())

	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[len(result.Errors)-1], "cancelled")
	assert.Equal(t, 0, mem.PlayerCount(), "cancelled before the first record starts")
}
