// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shuttlebook/shuttlebook-data/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register the decimal codec and prepared statements on every new
	// connection. Money columns are numeric and must round-trip exactly.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the migration engine
// and the API use. Prepared statements eliminate parse overhead on the
// read-then-write round trips the engine performs per record.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Players: identity resolution lookups
		"find_player_by_name":  "SELECT id, organizer_id, name, phone, is_active, is_temporary, skill_tier, notes, joined_date, created_at, updated_at FROM " + config.PlayersTable + " WHERE organizer_id = $1 AND name = $2",
		"find_player_by_phone": "SELECT id, organizer_id, name, phone, is_active, is_temporary, skill_tier, notes, joined_date, created_at, updated_at FROM " + config.PlayersTable + " WHERE organizer_id = $1 AND phone = $2",
		"list_players":         "SELECT id, organizer_id, name, phone, is_active, is_temporary, skill_tier, notes, joined_date, created_at, updated_at FROM " + config.PlayersTable + " WHERE organizer_id = $1 ORDER BY name",

		// Players: writes
		"insert_player": "INSERT INTO " + config.PlayersTable + " (organizer_id, name, phone, is_active, is_temporary, skill_tier, notes, joined_date) VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id, organizer_id, name, phone, is_active, is_temporary, skill_tier, notes, joined_date, created_at, updated_at",
		"update_player": "UPDATE " + config.PlayersTable + " SET name = $2, is_active = COALESCE($3, is_active), notes = COALESCE($4, notes), skill_tier = COALESCE($5, skill_tier), updated_at = NOW() WHERE id = $1 RETURNING id, organizer_id, name, phone, is_active, is_temporary, skill_tier, notes, joined_date, created_at, updated_at",

		// Sessions: total_cost and cost_per_player are generated columns and
		// must never appear in the column list.
		"insert_session": "INSERT INTO " + config.SessionsTable + " (organizer_id, name, session_date, location_name, court_cost, shuttlecock_cost, other_costs, hours_played, shuttlecocks_used, is_recurring, start_time, end_time, notes) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13) RETURNING id, total_cost, cost_per_player, created_at",

		"insert_session_participant": "INSERT INTO " + config.SessionParticipantsTable + " (session_id, player_id, amount_owed, is_active, notes) VALUES ($1,$2,$3,$4,$5)",

		"insert_payment": "INSERT INTO " + config.PaymentsTable + " (organizer_id, player_id, amount, payment_method, payment_date, reference_number, notes) VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
