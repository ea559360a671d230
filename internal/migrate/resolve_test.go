package migrate

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuttlebook/shuttlebook-data/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedPlayer(t *testing.T, st store.Store, organizerID uuid.UUID, name, phone string) *store.Player {
	t.Helper()
	p, err := st.InsertPlayer(context.Background(), store.NewPlayer{
		OrganizerID: organizerID,
		Name:        name,
		Phone:       phone,
		IsActive:    true,
	})
	require.NoError(t, err)
	return p
}

func TestResolveStrategyOrder(t *testing.T) {
	ctx := context.Background()
	org := uuid.New()
	mem := store.NewMemory()
	r := NewResolver(mem, testLogger(), false)

	sarah := seedPlayer(t, mem, org, "Sarah Lim", "+6591234574")

	t.Run("exact name wins", func(t *testing.T) {
		got, strategy, err := r.Resolve(ctx, org, "Sarah Lim", "+6500000000")
		require.NoError(t, err)
		assert.Equal(t, sarah.ID, got.ID)
		assert.Equal(t, StrategyExactName, strategy)
	})

	t.Run("phone match when name misses", func(t *testing.T) {
		got, strategy, err := r.Resolve(ctx, org, "S. Lim (old roster)", "+6591234574")
		require.NoError(t, err)
		assert.Equal(t, sarah.ID, got.ID)
		assert.Equal(t, StrategyExactPhone, strategy)
	})

	t.Run("case-insensitive trimmed fallback", func(t *testing.T) {
		got, strategy, err := r.Resolve(ctx, org, "  sarah lim ", " ")
		require.NoError(t, err)
		assert.Equal(t, sarah.ID, got.ID)
		assert.Equal(t, StrategyFoldedName, strategy)
	})

	t.Run("substring fallback, query inside existing", func(t *testing.T) {
		got, strategy, err := r.Resolve(ctx, org, "sarah", " ")
		require.NoError(t, err)
		assert.Equal(t, sarah.ID, got.ID)
		assert.Equal(t, StrategySubstring, strategy)
	})

	t.Run("substring fallback, existing inside query", func(t *testing.T) {
		got, strategy, err := r.Resolve(ctx, org, "Ms Sarah Lim (guest)", " ")
		require.NoError(t, err)
		assert.Equal(t, sarah.ID, got.ID)
		assert.Equal(t, StrategySubstring, strategy)
	})

	t.Run("no overlap is not found", func(t *testing.T) {
		_, _, err := r.Resolve(ctx, org, "Benjamin", " ")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestResolvePlaceholderPhoneNeverMatches(t *testing.T) {
	ctx := context.Background()
	org := uuid.New()
	mem := store.NewMemory()
	r := NewResolver(mem, testLogger(), true)

	seedPlayer(t, mem, org, "Temp One", " mig-aaaa1111")

	// A second no-phone identity must not resolve onto the first via the
	// placeholder.
	_, _, err := r.Resolve(ctx, org, "Temp Two", " ")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestResolveStrictModeDisablesFuzzy(t *testing.T) {
	ctx := context.Background()
	org := uuid.New()
	mem := store.NewMemory()
	seedPlayer(t, mem, org, "Sarah Lim", "+6591234574")

	strict := NewResolver(mem, testLogger(), true)
	_, _, err := strict.Resolve(ctx, org, "sarah lim", " ")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, _, err = strict.Resolve(ctx, org, "sarah", " ")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Exact strategies still work in strict mode.
	got, strategy, err := strict.Resolve(ctx, org, "Sarah Lim", "")
	require.NoError(t, err)
	assert.Equal(t, StrategyExactName, strategy)
	assert.Equal(t, "Sarah Lim", got.Name)
}

func TestResolveScopedToOrganizer(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	orgA := uuid.New()
	orgB := uuid.New()
	seedPlayer(t, mem, orgA, "Sarah Lim", "+6591234574")

	r := NewResolver(mem, testLogger(), false)
	_, _, err := r.Resolve(ctx, orgB, "Sarah Lim", "+6591234574")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
