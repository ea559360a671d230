package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEnforcesPhoneUniquenessPerOrganizer(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	orgA := uuid.New()
	orgB := uuid.New()

	_, err := mem.InsertPlayer(ctx, NewPlayer{OrganizerID: orgA, Name: "Sarah", Phone: "+6591234574"})
	require.NoError(t, err)

	_, err = mem.InsertPlayer(ctx, NewPlayer{OrganizerID: orgA, Name: "Impostor", Phone: "+6591234574"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	// Same phone under a different organizer is fine.
	_, err = mem.InsertPlayer(ctx, NewPlayer{OrganizerID: orgB, Name: "Sarah", Phone: "+6591234574"})
	assert.NoError(t, err)
}

func TestMemoryRejectsNullPhone(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	_, err := mem.InsertPlayer(ctx, NewPlayer{OrganizerID: uuid.New(), Name: "Sarah"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phone")
}

func TestMemoryUpdatePlayerLeavesIdentityAlone(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	org := uuid.New()

	p, err := mem.InsertPlayer(ctx, NewPlayer{OrganizerID: org, Name: "Sarah", Phone: "+6591234574", IsActive: true})
	require.NoError(t, err)

	inactive := false
	notes := "moved away"
	updated, err := mem.UpdatePlayer(ctx, p.ID, PlayerUpdate{Name: "Sarah Lim", IsActive: &inactive, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "Sarah Lim", updated.Name)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "moved away", updated.Notes)
	assert.Equal(t, "+6591234574", updated.Phone)

	_, err = mem.UpdatePlayer(ctx, uuid.New(), PlayerUpdate{Name: "nobody"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryEnforcesPaymentSignInvariant(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	org := uuid.New()
	player := uuid.New()
	date := time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC)

	_, err := mem.InsertPayment(ctx, NewPayment{OrganizerID: org, PlayerID: player, Amount: decimal.Zero, Method: "cash", Date: date})
	assert.ErrorContains(t, err, "zero")

	_, err = mem.InsertPayment(ctx, NewPayment{OrganizerID: org, PlayerID: player, Amount: decimal.NewFromInt(5), Method: "credit_transfer", Date: date})
	assert.ErrorContains(t, err, "negative")

	_, err = mem.InsertPayment(ctx, NewPayment{OrganizerID: org, PlayerID: player, Amount: decimal.NewFromInt(-5), Method: "cash", Date: date})
	assert.ErrorContains(t, err, "non-negative")

	_, err = mem.InsertPayment(ctx, NewPayment{OrganizerID: org, PlayerID: player, Amount: decimal.NewFromInt(-5), Method: "credit_transfer", Date: date})
	assert.NoError(t, err)
}

func TestMemoryParticipantRequiresSession(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	err := mem.InsertSessionParticipant(ctx, NewSessionParticipant{
		SessionID: uuid.New(), PlayerID: uuid.New(), AmountOwed: decimal.NewFromInt(30),
	})
	assert.ErrorContains(t, err, "does not exist")
}

func TestMemorySessionGeneratesTotalCost(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	s, err := mem.InsertSession(ctx, NewSession{
		OrganizerID:     uuid.New(),
		Date:            time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC),
		LocationName:    "ActiveSG Bedok",
		CourtCost:       decimal.RequireFromString("50.00"),
		ShuttlecockCost: decimal.RequireFromString("10.00"),
		OtherCosts:      decimal.Zero,
	})
	require.NoError(t, err)
	assert.True(t, s.TotalCost.Equal(decimal.RequireFromString("60.00")))
}

func TestMemorySessionGeneratesCostPerPlayer(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	org := uuid.New()

	s, err := mem.InsertSession(ctx, NewSession{
		OrganizerID:     org,
		Date:            time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC),
		LocationName:    "ActiveSG Bedok",
		CourtCost:       decimal.RequireFromString("50.00"),
		ShuttlecockCost: decimal.RequireFromString("10.00"),
		OtherCosts:      decimal.Zero,
	})
	require.NoError(t, err)
	assert.True(t, s.CostPerPlayer.IsZero(), "no participants linked yet")

	for i := 0; i < 2; i++ {
		err = mem.InsertSessionParticipant(ctx, NewSessionParticipant{
			SessionID: s.ID, PlayerID: uuid.New(), AmountOwed: decimal.NewFromInt(30),
		})
		require.NoError(t, err)
	}

	sessions := mem.Sessions()
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].CostPerPlayer.Equal(decimal.NewFromInt(30)), "60.00 split across 2 participants")
}

func TestOverlayIsolatesWrites(t *testing.T) {
	ctx := context.Background()
	base := NewMemory()
	org := uuid.New()

	existing, err := base.InsertPlayer(ctx, NewPlayer{OrganizerID: org, Name: "Sarah", Phone: "+6591234574", IsActive: true})
	require.NoError(t, err)

	ov := NewOverlay(base)

	// Reads fall through to the base.
	got, err := ov.FindPlayerByName(ctx, org, "Sarah")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)

	// Writes land in the overlay only.
	_, err = ov.InsertPlayer(ctx, NewPlayer{OrganizerID: org, Name: "Guest", Phone: " mig-deadbeef"})
	require.NoError(t, err)
	assert.Equal(t, 1, base.PlayerCount())

	players, err := ov.ListPlayers(ctx, org)
	require.NoError(t, err)
	assert.Len(t, players, 2)

	// A duplicate phone still fails, mirroring the base constraint.
	_, err = ov.InsertPlayer(ctx, NewPlayer{OrganizerID: org, Name: "Impostor", Phone: "+6591234574"})
	assert.ErrorContains(t, err, "already exists")
}

// brokenPhoneStore simulates base-store infrastructure failure on the
// duplicate-phone check.
type brokenPhoneStore struct {
	*Memory
	err error
}

func (b brokenPhoneStore) FindPlayerByPhone(context.Context, uuid.UUID, string) (*Player, error) {
	return nil, b.err
}

func TestOverlayInsertPropagatesBaseFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")
	ov := NewOverlay(brokenPhoneStore{Memory: NewMemory(), err: boom})

	_, err := ov.InsertPlayer(ctx, NewPlayer{OrganizerID: uuid.New(), Name: "Sarah", Phone: "+6591234574"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom, "an infrastructure error must not pass as a clean phone check")
	assert.Equal(t, 0, ov.mem.PlayerCount())
}

func TestOverlayUpdatesBaseRowCopy(t *testing.T) {
	ctx := context.Background()
	base := NewMemory()
	org := uuid.New()

	existing, err := base.InsertPlayer(ctx, NewPlayer{OrganizerID: org, Name: "Sarah", Phone: "+6591234574", IsActive: true})
	require.NoError(t, err)

	ov := NewOverlay(base)
	_, err = ov.FindPlayerByName(ctx, org, "Sarah")
	require.NoError(t, err)

	notes := "dry-run note"
	updated, err := ov.UpdatePlayer(ctx, existing.ID, PlayerUpdate{Name: "Sarah", Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "dry-run note", updated.Notes)

	// Base row is untouched.
	fresh, err := base.FindPlayerByName(ctx, org, "Sarah")
	require.NoError(t, err)
	assert.Empty(t, fresh.Notes)
}
