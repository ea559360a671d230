package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements Store on a pgx connection pool. All statements are
// registered by name in internal/db on connect.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps a pool in the Store contract.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) FindPlayerByName(ctx context.Context, organizerID uuid.UUID, name string) (*Player, error) {
	return s.findPlayer(ctx, "find_player_by_name", organizerID, name)
}

func (s *Postgres) FindPlayerByPhone(ctx context.Context, organizerID uuid.UUID, phone string) (*Player, error) {
	return s.findPlayer(ctx, "find_player_by_phone", organizerID, phone)
}

func (s *Postgres) findPlayer(ctx context.Context, stmt string, organizerID uuid.UUID, key string) (*Player, error) {
	var p Player
	err := s.pool.QueryRow(ctx, stmt, organizerID, key).Scan(
		&p.ID, &p.OrganizerID, &p.Name, &p.Phone, &p.IsActive, &p.IsTemporary,
		&p.SkillTier, &p.Notes, &p.JoinedDate, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stmt, err)
	}
	return &p, nil
}

func (s *Postgres) ListPlayers(ctx context.Context, organizerID uuid.UUID) ([]Player, error) {
	rows, err := s.pool.Query(ctx, "list_players", organizerID)
	if err != nil {
		return nil, fmt.Errorf("list_players: %w", err)
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		var p Player
		if err := rows.Scan(
			&p.ID, &p.OrganizerID, &p.Name, &p.Phone, &p.IsActive, &p.IsTemporary,
			&p.SkillTier, &p.Notes, &p.JoinedDate, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (s *Postgres) InsertPlayer(ctx context.Context, np NewPlayer) (*Player, error) {
	var p Player
	err := s.pool.QueryRow(ctx, "insert_player",
		np.OrganizerID, np.Name, np.Phone, np.IsActive, np.IsTemporary,
		np.SkillTier, np.Notes, np.JoinedDate,
	).Scan(
		&p.ID, &p.OrganizerID, &p.Name, &p.Phone, &p.IsActive, &p.IsTemporary,
		&p.SkillTier, &p.Notes, &p.JoinedDate, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert player %q: %w", np.Name, err)
	}
	return &p, nil
}

func (s *Postgres) UpdatePlayer(ctx context.Context, playerID uuid.UUID, upd PlayerUpdate) (*Player, error) {
	var p Player
	err := s.pool.QueryRow(ctx, "update_player",
		playerID, upd.Name, upd.IsActive, upd.Notes, upd.SkillTier,
	).Scan(
		&p.ID, &p.OrganizerID, &p.Name, &p.Phone, &p.IsActive, &p.IsTemporary,
		&p.SkillTier, &p.Notes, &p.JoinedDate, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update player %s: %w", playerID, err)
	}
	return &p, nil
}

func (s *Postgres) InsertSession(ctx context.Context, ns NewSession) (*Session, error) {
	sess := Session{
		OrganizerID:      ns.OrganizerID,
		Name:             ns.Name,
		Date:             ns.Date,
		LocationName:     ns.LocationName,
		CourtCost:        ns.CourtCost,
		ShuttlecockCost:  ns.ShuttlecockCost,
		OtherCosts:       ns.OtherCosts,
		HoursPlayed:      ns.HoursPlayed,
		ShuttlecocksUsed: ns.ShuttlecocksUsed,
		IsRecurring:      ns.IsRecurring,
		StartTime:        ns.StartTime,
		EndTime:          ns.EndTime,
		Notes:            ns.Notes,
	}
	err := s.pool.QueryRow(ctx, "insert_session",
		ns.OrganizerID, ns.Name, ns.Date, ns.LocationName,
		ns.CourtCost, ns.ShuttlecockCost, ns.OtherCosts,
		ns.HoursPlayed, ns.ShuttlecocksUsed,
		ns.IsRecurring, nilEmpty(ns.StartTime), nilEmpty(ns.EndTime), ns.Notes,
	).Scan(&sess.ID, &sess.TotalCost, &sess.CostPerPlayer, &sess.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert session %s: %w", ns.Date.Format("2006-01-02"), err)
	}
	return &sess, nil
}

func (s *Postgres) InsertSessionParticipant(ctx context.Context, sp NewSessionParticipant) error {
	_, err := s.pool.Exec(ctx, "insert_session_participant",
		sp.SessionID, sp.PlayerID, sp.AmountOwed, sp.IsActive, sp.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert session participant: %w", err)
	}
	return nil
}

func (s *Postgres) InsertPayment(ctx context.Context, np NewPayment) (*Payment, error) {
	pay := Payment{
		OrganizerID:     np.OrganizerID,
		PlayerID:        np.PlayerID,
		Amount:          np.Amount,
		Method:          np.Method,
		Date:            np.Date,
		ReferenceNumber: np.ReferenceNumber,
		Notes:           np.Notes,
	}
	err := s.pool.QueryRow(ctx, "insert_payment",
		np.OrganizerID, np.PlayerID, np.Amount, np.Method, np.Date,
		nilEmpty(np.ReferenceNumber), np.Notes,
	).Scan(&pay.ID, &pay.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	return &pay, nil
}

// nilEmpty returns nil for empty strings (maps to SQL NULL).
func nilEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
