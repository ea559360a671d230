package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Overlay layers an in-memory store over a base store. Reads consult the
// overlay first, then the base; writes land in the overlay only. Dry-run
// migrations use it so identity resolution sees would-be-created players
// while the base store is never written.
type Overlay struct {
	base Store
	mem  *Memory
	seen map[uuid.UUID]Player // base rows observed by reads, for overlay updates
}

// NewOverlay wraps base with a write-absorbing in-memory layer.
func NewOverlay(base Store) *Overlay {
	return &Overlay{base: base, mem: NewMemory(), seen: make(map[uuid.UUID]Player)}
}

func (o *Overlay) FindPlayerByName(ctx context.Context, organizerID uuid.UUID, name string) (*Player, error) {
	if p, err := o.mem.FindPlayerByName(ctx, organizerID, name); err == nil {
		return p, nil
	}
	p, err := o.base.FindPlayerByName(ctx, organizerID, name)
	if err != nil {
		return nil, err
	}
	o.seen[p.ID] = *p
	return p, nil
}

func (o *Overlay) FindPlayerByPhone(ctx context.Context, organizerID uuid.UUID, phone string) (*Player, error) {
	if p, err := o.mem.FindPlayerByPhone(ctx, organizerID, phone); err == nil {
		return p, nil
	}
	p, err := o.base.FindPlayerByPhone(ctx, organizerID, phone)
	if err != nil {
		return nil, err
	}
	o.seen[p.ID] = *p
	return p, nil
}

func (o *Overlay) ListPlayers(ctx context.Context, organizerID uuid.UUID) ([]Player, error) {
	base, err := o.base.ListPlayers(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	over, err := o.mem.ListPlayers(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	// Overlay rows shadow base rows with the same id.
	shadowed := make(map[uuid.UUID]bool, len(over))
	for _, p := range over {
		shadowed[p.ID] = true
	}
	out := make([]Player, 0, len(base)+len(over))
	for _, p := range base {
		if !shadowed[p.ID] {
			o.seen[p.ID] = p
			out = append(out, p)
		}
	}
	return append(out, over...), nil
}

func (o *Overlay) InsertPlayer(ctx context.Context, np NewPlayer) (*Player, error) {
	// The base store would reject a duplicate phone; mirror that here so a
	// dry run surfaces the same failure.
	_, err := o.base.FindPlayerByPhone(ctx, np.OrganizerID, np.Phone)
	switch {
	case err == nil:
		return nil, fmt.Errorf("insert player %q: phone %q already exists for organizer", np.Name, np.Phone)
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("insert player %q: phone lookup against base store: %w", np.Name, err)
	}
	return o.mem.InsertPlayer(ctx, np)
}

func (o *Overlay) UpdatePlayer(ctx context.Context, playerID uuid.UUID, upd PlayerUpdate) (*Player, error) {
	if p, err := o.mem.UpdatePlayer(ctx, playerID, upd); err == nil {
		return p, nil
	}
	// Copy the base row into the overlay, then update the copy.
	base, ok := o.seen[playerID]
	if !ok {
		return nil, ErrNotFound
	}
	o.mem.putPlayer(base)
	return o.mem.UpdatePlayer(ctx, playerID, upd)
}

func (o *Overlay) InsertSession(ctx context.Context, ns NewSession) (*Session, error) {
	return o.mem.InsertSession(ctx, ns)
}

func (o *Overlay) InsertSessionParticipant(ctx context.Context, sp NewSessionParticipant) error {
	return o.mem.InsertSessionParticipant(ctx, sp)
}

func (o *Overlay) InsertPayment(ctx context.Context, np NewPayment) (*Payment, error) {
	return o.mem.InsertPayment(ctx, np)
}
