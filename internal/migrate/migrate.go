package migrate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/shuttlebook/shuttlebook-data/internal/store"
)

// Options tune one migration run.
type Options struct {
	// StrictResolution disables the fuzzy resolver strategies (folded-name
	// and substring), so a loose identity fails instead of possibly
	// matching the wrong player.
	StrictResolution bool

	// DryRun routes every write into an in-memory overlay; the base store
	// is read but never written. The result reports what a real run would
	// have done.
	DryRun bool

	// PaymentWorkers bounds the pool that inserts already-resolved
	// payments. Values below 1 mean sequential.
	PaymentWorkers int
}

// Migrator sequences the migration phases in dependency order, isolating
// per-record failures so one bad record never aborts the batch.
type Migrator struct {
	store  store.Store
	logger *slog.Logger
	opts   Options
}

// New builds a Migrator.
func New(st store.Store, logger *slog.Logger, opts Options) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{store: st, logger: logger, opts: opts}
}

// Run validates one batch and then executes it. Structural validation
// failure refuses the whole run before any write.
func (m *Migrator) Run(ctx context.Context, organizerID uuid.UUID, batch *MigrationData) Result {
	if errs := Validate(batch); len(errs) > 0 {
		m.logger.Error("migration rejected by validation", "organizer", organizerID, "violations", len(errs))
		return ValidationRefusal(errs)
	}
	return m.Execute(ctx, organizerID, batch)
}

// Execute migrates a batch that already passed Validate: upsert standalone
// players, upsert every player identity referenced by sessions and
// payments, create sessions with their participant links, then create all
// payments. Each phase completes before the next begins because later
// phases depend on players existing. Callers that report the validation
// verdict separately run Validate themselves and then Execute, so the
// batch is checked once.
//
// Everything here is per-record: failures land in the result's error list
// and the run continues. Cancelling ctx stops starting new records;
// in-flight writes complete and the partial result is returned.
func (m *Migrator) Execute(ctx context.Context, organizerID uuid.UUID, batch *MigrationData) Result {
	var result Result

	st := m.store
	if m.opts.DryRun {
		st = store.NewOverlay(st)
	}
	resolver := NewResolver(st, m.logger, m.opts.StrictResolution)
	engine := NewEngine(st, resolver, m.logger)

	// Phase 1: explicitly-listed standalone players.
	m.logger.Info("migrating standalone players", "count", len(batch.Players))
	for _, p := range batch.Players {
		if ctx.Err() != nil {
			break
		}
		_, created, err := engine.UpsertPlayer(ctx, organizerID, p)
		switch {
		case err != nil:
			result.AddErrorf("player %q (phone %q): %v", p.Name, p.Phone, err)
		case created:
			result.Stats.StandalonePlayersCreated++
		default:
			result.Stats.StandalonePlayersUpdated++
		}
	}

	// Phase 2: every identity referenced by sessions, nested payments, or
	// the flat payments list. Must run before sessions so participant and
	// payment resolution finds its players.
	extracted := ExtractUniquePlayers(batch)
	m.logger.Info("migrating session-referenced players", "count", len(extracted))
	for _, p := range extracted {
		if ctx.Err() != nil {
			break
		}
		_, created, err := engine.UpsertPlayer(ctx, organizerID, p)
		switch {
		case err != nil:
			result.AddErrorf("referenced player %q (phone %q): %v", p.Name, p.Phone, err)
		case created:
			result.Stats.SessionPlayersCreated++
		default:
			result.Stats.SessionPlayersUpdated++
		}
	}

	// Phase 3: sessions and their participant links.
	m.logger.Info("migrating sessions", "count", len(batch.Sessions))
	for _, s := range batch.Sessions {
		if ctx.Err() != nil {
			break
		}
		result.Add(engine.CreateSession(ctx, organizerID, s))
	}

	// Phase 4: payments, nested and flat merged. Identity resolution stays
	// sequential to preserve the upsert guarantees; the inserts hold
	// resolved ids and disjoint keys, so they fan out over a bounded pool.
	payments := collectPayments(batch)
	m.logger.Info("migrating payments", "count", len(payments))
	result.Add(m.createPayments(ctx, engine, organizerID, payments))

	if err := ctx.Err(); err != nil {
		result.AddErrorf("run cancelled before completion: %v", err)
	}

	result.Success = len(result.Errors) == 0
	switch {
	case m.opts.DryRun:
		result.Message = "dry run (no records written): " + result.Summary()
	case result.Success:
		result.Message = "migration completed: " + result.Summary()
	default:
		result.Message = "migration completed with errors: " + result.Summary()
	}
	m.logger.Info("migration finished", "organizer", organizerID, "summary", result.Summary())
	return result
}

// collectPayments merges nested per-session payments with the batch-level
// flat list; legacy exports use either location.
func collectPayments(batch *MigrationData) []MigrationPayment {
	var out []MigrationPayment
	for _, s := range batch.Sessions {
		out = append(out, s.Payments...)
	}
	return append(out, batch.Payments...)
}

func (m *Migrator) createPayments(ctx context.Context, engine *Engine, organizerID uuid.UUID, payments []MigrationPayment) Result {
	var result Result

	// Sequential resolution pass.
	prepared := make([]store.NewPayment, 0, len(payments))
	for _, p := range payments {
		if ctx.Err() != nil {
			return result
		}
		np, err := engine.PreparePayment(ctx, organizerID, p)
		if err != nil {
			result.AddError(err.Error())
			continue
		}
		prepared = append(prepared, np)
	}

	workers := m.opts.PaymentWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(prepared) {
		workers = len(prepared)
	}
	if len(prepared) == 0 {
		return result
	}

	// Worker pool: one channel of prepared payments, N workers, merged
	// under a mutex.
	ch := make(chan store.NewPayment, len(prepared))
	for _, np := range prepared {
		ch <- np
	}
	close(ch)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for np := range ch {
				if ctx.Err() != nil {
					return
				}
				_, err := engine.store.InsertPayment(ctx, np)
				mu.Lock()
				if err != nil {
					result.AddErrorf("payment of %s on %s: %v", np.Amount, np.Date.Format("2006-01-02"), err)
				} else {
					result.Stats.PaymentsCreated++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return result
}
