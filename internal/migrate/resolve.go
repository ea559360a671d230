package migrate

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/shuttlebook/shuttlebook-data/internal/store"
)

// Strategy identifies which matching strategy resolved an identity. Fuzzy
// strategies are logged distinctly so operators can audit them.
type Strategy string

const (
	StrategyExactName  Strategy = "exact_name"
	StrategyExactPhone Strategy = "exact_phone"
	StrategyFoldedName Strategy = "folded_name" // case-insensitive, trimmed
	StrategySubstring  Strategy = "substring"   // last resort
)

// Resolver maps a loosely-specified (name, phone) pair to an existing
// player within one organizer scope. It only reads from the store.
type Resolver struct {
	store  store.Store
	logger *slog.Logger

	// strict disables the folded-name and substring fallbacks, turning
	// possibly-wrong matches into not-found.
	strict bool
}

// NewResolver builds a Resolver. strict disables fuzzy strategies.
func NewResolver(st store.Store, logger *slog.Logger, strict bool) *Resolver {
	return &Resolver{store: st, logger: logger, strict: strict}
}

// Resolve tries each strategy in order and returns the first match along
// with the strategy that produced it. A miss returns store.ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, organizerID uuid.UUID, name, phone string) (*store.Player, Strategy, error) {
	// 1. Exact, case-sensitive name match.
	p, err := r.store.FindPlayerByName(ctx, organizerID, name)
	if err == nil {
		r.logger.Debug("resolved player", "strategy", StrategyExactName, "name", name)
		return p, StrategyExactName, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, "", err
	}

	// 2. Exact phone match, unless the phone is blank or a placeholder.
	if !isPlaceholderPhone(phone) {
		p, err = r.store.FindPlayerByPhone(ctx, organizerID, phone)
		if err == nil {
			r.logger.Debug("resolved player", "strategy", StrategyExactPhone, "name", name, "phone", phone)
			return p, StrategyExactPhone, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, "", err
		}
	}

	if r.strict {
		return nil, "", store.ErrNotFound
	}

	players, err := r.store.ListPlayers(ctx, organizerID)
	if err != nil {
		return nil, "", err
	}

	// 3. Case-insensitive, whitespace-trimmed scan.
	folded := foldName(name)
	for i := range players {
		if foldName(players[i].Name) == folded {
			r.logger.Warn("resolved player via fuzzy fallback",
				"strategy", StrategyFoldedName,
				"query_name", name, "matched_name", players[i].Name)
			return &players[i], StrategyFoldedName, nil
		}
	}

	// 4. Case-insensitive substring match in either direction. Can produce
	// false positives, hence last and loudly logged.
	for i := range players {
		existing := foldName(players[i].Name)
		if existing == "" || folded == "" {
			continue
		}
		if strings.Contains(existing, folded) || strings.Contains(folded, existing) {
			r.logger.Warn("resolved player via fuzzy fallback",
				"strategy", StrategySubstring,
				"query_name", name, "matched_name", players[i].Name)
			return &players[i], StrategySubstring, nil
		}
	}

	return nil, "", store.ErrNotFound
}

func foldName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
