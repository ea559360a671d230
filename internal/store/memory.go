package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Memory is an in-memory Store. It backs dry-run overlays and tests, and
// enforces the same constraints the relational schema does: non-empty phone,
// phone uniqueness per organizer, and the payment amount/method sign rule.
type Memory struct {
	mu           sync.Mutex
	players      []Player
	sessions     []Session
	participants []NewSessionParticipant
	payments     []Payment
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) FindPlayerByName(_ context.Context, organizerID uuid.UUID, name string) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.players {
		if m.players[i].OrganizerID == organizerID && m.players[i].Name == name {
			p := m.players[i]
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindPlayerByPhone(_ context.Context, organizerID uuid.UUID, phone string) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.players {
		if m.players[i].OrganizerID == organizerID && m.players[i].Phone == phone {
			p := m.players[i]
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListPlayers(_ context.Context, organizerID uuid.UUID) ([]Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Player
	for _, p := range m.players {
		if p.OrganizerID == organizerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) InsertPlayer(_ context.Context, np NewPlayer) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if strings.TrimSpace(np.Name) == "" {
		return nil, fmt.Errorf("insert player: name must not be empty")
	}
	if np.Phone == "" {
		return nil, fmt.Errorf("insert player %q: phone must not be null", np.Name)
	}
	for _, p := range m.players {
		if p.OrganizerID == np.OrganizerID && p.Phone == np.Phone {
			return nil, fmt.Errorf("insert player %q: phone %q already exists for organizer", np.Name, np.Phone)
		}
	}
	now := time.Now()
	p := Player{
		ID:          uuid.New(),
		OrganizerID: np.OrganizerID,
		Name:        np.Name,
		Phone:       np.Phone,
		IsActive:    np.IsActive,
		IsTemporary: np.IsTemporary,
		SkillTier:   np.SkillTier,
		Notes:       np.Notes,
		JoinedDate:  np.JoinedDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.players = append(m.players, p)
	return &p, nil
}

func (m *Memory) UpdatePlayer(_ context.Context, playerID uuid.UUID, upd PlayerUpdate) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.players {
		if m.players[i].ID != playerID {
			continue
		}
		if upd.Name != "" {
			m.players[i].Name = upd.Name
		}
		if upd.IsActive != nil {
			m.players[i].IsActive = *upd.IsActive
		}
		if upd.Notes != nil {
			m.players[i].Notes = *upd.Notes
		}
		if upd.SkillTier != nil {
			m.players[i].SkillTier = *upd.SkillTier
		}
		m.players[i].UpdatedAt = time.Now()
		p := m.players[i]
		return &p, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) InsertSession(_ context.Context, ns NewSession) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Session{
		ID:               uuid.New(),
		OrganizerID:      ns.OrganizerID,
		Name:             ns.Name,
		Date:             ns.Date,
		LocationName:     ns.LocationName,
		CourtCost:        ns.CourtCost,
		ShuttlecockCost:  ns.ShuttlecockCost,
		OtherCosts:       ns.OtherCosts,
		TotalCost:        ns.CourtCost.Add(ns.ShuttlecockCost).Add(ns.OtherCosts), // generated
		CostPerPlayer:    decimal.Zero,                                            // generated; zero until participants are linked
		HoursPlayed:      ns.HoursPlayed,
		ShuttlecocksUsed: ns.ShuttlecocksUsed,
		IsRecurring:      ns.IsRecurring,
		StartTime:        ns.StartTime,
		EndTime:          ns.EndTime,
		Notes:            ns.Notes,
		CreatedAt:        time.Now(),
	}
	m.sessions = append(m.sessions, s)
	return &s, nil
}

func (m *Memory) InsertSessionParticipant(_ context.Context, sp NewSessionParticipant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for _, s := range m.sessions {
		if s.ID == sp.SessionID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("insert session participant: session %s does not exist", sp.SessionID)
	}
	m.participants = append(m.participants, sp)

	// cost_per_player is generated from total_cost and the participant count.
	count := 0
	for _, q := range m.participants {
		if q.SessionID == sp.SessionID {
			count++
		}
	}
	for i := range m.sessions {
		if m.sessions[i].ID == sp.SessionID {
			m.sessions[i].CostPerPlayer = m.sessions[i].TotalCost.Div(decimal.NewFromInt(int64(count)))
			break
		}
	}
	return nil
}

func (m *Memory) InsertPayment(_ context.Context, np NewPayment) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if np.Amount.IsZero() {
		return nil, fmt.Errorf("insert payment: amount must not be zero")
	}
	if np.Method == "credit_transfer" && np.Amount.Sign() >= 0 {
		return nil, fmt.Errorf("insert payment: credit_transfer amount must be negative")
	}
	if np.Method != "credit_transfer" && np.Amount.Sign() < 0 {
		return nil, fmt.Errorf("insert payment: %s amount must be non-negative", np.Method)
	}
	p := Payment{
		ID:              uuid.New(),
		OrganizerID:     np.OrganizerID,
		PlayerID:        np.PlayerID,
		Amount:          np.Amount,
		Method:          np.Method,
		Date:            np.Date,
		ReferenceNumber: np.ReferenceNumber,
		Notes:           np.Notes,
		CreatedAt:       time.Now(),
	}
	m.payments = append(m.payments, p)
	return &p, nil
}

// putPlayer injects a row verbatim, preserving its id. Used by Overlay to
// shadow a base row before updating it.
func (m *Memory) putPlayer(p Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players = append(m.players, p)
}

// --------------------------------------------------------------------------
// Inspection helpers (used by tests and the dry-run report)
// --------------------------------------------------------------------------

// PlayerCount returns the number of players across all organizers.
func (m *Memory) PlayerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.players)
}

// Sessions returns a copy of all stored sessions.
func (m *Memory) Sessions() []Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Session, len(m.sessions))
	copy(out, m.sessions)
	return out
}

// Participants returns a copy of all stored participant links.
func (m *Memory) Participants() []NewSessionParticipant {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]NewSessionParticipant, len(m.participants))
	copy(out, m.participants)
	return out
}

// Payments returns a copy of all stored payments.
func (m *Memory) Payments() []Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Payment, len(m.payments))
	copy(out, m.payments)
	return out
}
