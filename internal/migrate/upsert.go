package migrate

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shuttlebook/shuttlebook-data/internal/store"
)

// centTolerance is the allowed drift between the computed session cost and
// the declared total before the engine warns about inconsistent input.
var centTolerance = decimal.NewFromFloat(0.01)

// Engine performs the idempotent create-or-update operations for each
// entity type. Players go through the resolver first; sessions, participant
// links, and payments are create-only.
type Engine struct {
	store    store.Store
	resolver *Resolver
	logger   *slog.Logger
}

// NewEngine builds an Engine around a store and resolver.
func NewEngine(st store.Store, resolver *Resolver, logger *slog.Logger) *Engine {
	return &Engine{store: st, resolver: resolver, logger: logger}
}

// UpsertPlayer creates or updates one player. A second call with the same
// logical input updates instead of duplicating. On update only the mutable
// fields change; phone is identity and is never overwritten.
func (e *Engine) UpsertPlayer(ctx context.Context, organizerID uuid.UUID, p MigrationPlayer) (player *store.Player, created bool, err error) {
	existing, _, err := e.resolver.Resolve(ctx, organizerID, p.Name, p.Phone)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	if existing != nil {
		active := activeOrDefault(p.IsActive)
		upd := store.PlayerUpdate{
			Name:     p.Name,
			IsActive: &active,
		}
		if p.Notes != "" {
			upd.Notes = &p.Notes
		}
		if p.SkillTier != "" {
			tier := string(p.SkillTier)
			upd.SkillTier = &tier
		}
		updated, err := e.store.UpdatePlayer(ctx, existing.ID, upd)
		if err != nil {
			return nil, false, fmt.Errorf("update player %q: %w", p.Name, err)
		}
		e.logger.Debug("player updated", "name", updated.Name, "id", updated.ID)
		return updated, false, nil
	}

	np := store.NewPlayer{
		OrganizerID: organizerID,
		Name:        p.Name,
		Phone:       p.Phone,
		IsActive:    activeOrDefault(p.IsActive),
		IsTemporary: p.IsTemporary,
		SkillTier:   string(p.SkillTier),
		Notes:       p.Notes,
	}
	if isPlaceholderPhone(p.Phone) {
		// Randomized suffix keeps the not-null placeholder unique per
		// organizer.
		np.Phone = placeholderPhone()
		np.IsTemporary = true
	}
	if p.JoinedDate != "" {
		if d, err := time.Parse("2006-01-02", p.JoinedDate); err == nil {
			np.JoinedDate = &d
		}
	}

	inserted, err := e.store.InsertPlayer(ctx, np)
	if err != nil {
		return nil, false, fmt.Errorf("insert player %q: %w", p.Name, err)
	}
	e.logger.Debug("player created", "name", inserted.Name, "id", inserted.ID, "temporary", inserted.IsTemporary)
	return inserted, true, nil
}

// placeholderPhone builds a unique not-null placeholder. The leading space
// keeps it recognizable as a non-number.
func placeholderPhone() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return placeholderPrefix + "mig-" + hex.EncodeToString(b)
}

// ExtractUniquePlayers computes the distinct player identities referenced
// anywhere in the batch: session participants, nested session payments, and
// the flat payments list. The deduplication key is the phone when real,
// else the folded name. Players that appear only in a payment record (a
// refund with no matching session, say) must still exist before that
// payment is written, which is why this pass exists.
func ExtractUniquePlayers(batch *MigrationData) []MigrationPlayer {
	seen := make(map[string]bool)
	var out []MigrationPlayer

	add := func(name, phone string) {
		if strings.TrimSpace(name) == "" {
			return
		}
		key := phone
		if isPlaceholderPhone(phone) {
			key = "name:" + foldName(name)
		}
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, MigrationPlayer{
			Name:        name,
			Phone:       phone,
			IsTemporary: isPlaceholderPhone(phone),
		})
	}

	for _, s := range batch.Sessions {
		for _, pt := range s.Participants {
			add(pt.PlayerName, pt.Phone)
		}
		for _, pay := range s.Payments {
			add(pay.PlayerName, pay.Phone)
		}
	}
	for _, pay := range batch.Payments {
		add(pay.PlayerName, pay.Phone)
	}

	return out
}

// CreateSession writes one session and its participant links. The input
// court cost is already a session total; shuttlecock cost is rate times
// quantity; other costs are always zero for migrated data. The store
// generates total_cost and cost_per_player itself, so they are never part
// of the write.
//
// A participant whose player cannot be resolved is a per-record error and
// is skipped; the session and its other participants survive.
func (e *Engine) CreateSession(ctx context.Context, organizerID uuid.UUID, s MigrationSession) Result {
	var result Result

	date, err := time.Parse("2006-01-02", s.Date)
	if err != nil {
		result.AddErrorf("session %s: invalid date: %v", s.Date, err)
		return result
	}

	courtCost := s.CourtCost
	shuttlecockCost := s.ShuttlecockRate.Mul(decimal.NewFromInt(int64(s.ShuttlecocksUsed)))
	otherCosts := decimal.Zero

	// The legacy export carries its own declared total; it is sometimes
	// wrong, so a mismatch is logged rather than fatal.
	computed := courtCost.Add(shuttlecockCost).Add(otherCosts)
	if computed.Sub(s.DeclaredTotalCost).Abs().GreaterThan(centTolerance) {
		e.logger.Warn("session cost mismatch against declared total",
			"date", s.Date, "location", s.LocationName,
			"computed", computed, "declared", s.DeclaredTotalCost)
	}

	sess, err := e.store.InsertSession(ctx, store.NewSession{
		OrganizerID:      organizerID,
		Name:             s.Name,
		Date:             date,
		LocationName:     s.LocationName,
		CourtCost:        courtCost,
		ShuttlecockCost:  shuttlecockCost,
		OtherCosts:       otherCosts,
		HoursPlayed:      s.HoursPlayed,
		ShuttlecocksUsed: s.ShuttlecocksUsed,
		IsRecurring:      s.IsRecurring,
		StartTime:        s.StartTime,
		EndTime:          s.EndTime,
		Notes:            s.Notes,
	})
	if err != nil {
		result.AddErrorf("session %s at %s: %v", s.Date, s.LocationName, err)
		return result
	}
	result.Stats.SessionsCreated++
	e.logger.Info("session created", "id", sess.ID, "date", s.Date, "location", s.LocationName)

	for _, pt := range s.Participants {
		player, _, err := e.resolver.Resolve(ctx, organizerID, pt.PlayerName, pt.Phone)
		if errors.Is(err, store.ErrNotFound) {
			// The extraction phase should have created this player; a miss
			// here means the source data is inconsistent.
			result.AddErrorf("session %s: participant %q (phone %q) could not be resolved to a player",
				s.Date, pt.PlayerName, pt.Phone)
			continue
		}
		if err != nil {
			result.AddErrorf("session %s: resolve participant %q: %v", s.Date, pt.PlayerName, err)
			continue
		}

		err = e.store.InsertSessionParticipant(ctx, store.NewSessionParticipant{
			SessionID:  sess.ID,
			PlayerID:   player.ID,
			AmountOwed: pt.AmountOwed,
			IsActive:   activeOrDefault(pt.IsActive),
			Notes:      pt.Notes,
		})
		if err != nil {
			result.AddErrorf("session %s: link participant %q: %v", s.Date, pt.PlayerName, err)
			continue
		}
		result.Stats.ParticipantRecordsCreated++
	}

	return result
}

// PreparePayment resolves a payment's player identity and builds the insert
// payload. A resolution miss returns an error carrying a listing of every
// known player name for the organizer, to aid manual correction of the
// source data.
func (e *Engine) PreparePayment(ctx context.Context, organizerID uuid.UUID, p MigrationPayment) (store.NewPayment, error) {
	player, _, err := e.resolver.Resolve(ctx, organizerID, p.PlayerName, p.Phone)
	if errors.Is(err, store.ErrNotFound) {
		return store.NewPayment{}, fmt.Errorf("payment for %q (phone %q, %s %s): no matching player; known players: %s",
			p.PlayerName, p.Phone, p.Amount, p.Date, e.knownPlayerNames(ctx, organizerID))
	}
	if err != nil {
		return store.NewPayment{}, fmt.Errorf("payment for %q: resolve player: %w", p.PlayerName, err)
	}

	date, err := time.Parse("2006-01-02", p.Date)
	if err != nil {
		return store.NewPayment{}, fmt.Errorf("payment for %q: invalid date %q: %w", p.PlayerName, p.Date, err)
	}

	return store.NewPayment{
		OrganizerID:     organizerID,
		PlayerID:        player.ID,
		Amount:          p.Amount,
		Method:          string(p.Method),
		Date:            date,
		ReferenceNumber: p.ReferenceNumber,
		Notes:           p.Notes,
	}, nil
}

func (e *Engine) knownPlayerNames(ctx context.Context, organizerID uuid.UUID) string {
	players, err := e.store.ListPlayers(ctx, organizerID)
	if err != nil || len(players) == 0 {
		return "(none)"
	}
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}
