package migrate

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// placeholderPrefix marks phones that are placeholders rather than real
// numbers: the legacy single-space convention, optionally followed by a
// randomized suffix for per-organizer uniqueness.
const placeholderPrefix = " "

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Validate inspects a batch before any persistence and returns every
// structural and financial violation found. It does not stop at the first
// problem. A non-empty return means the orchestrator must refuse to run any
// persistence phase.
//
// Blank phones on temporary players, participants, and payments are
// normalized to the single-space placeholder so downstream code always has
// a non-null value.
func Validate(batch *MigrationData) []string {
	var errs []string

	if batch == nil || (len(batch.Players) == 0 && len(batch.Sessions) == 0 && len(batch.Payments) == 0) {
		return []string{"batch is empty: no players, sessions, or payments supplied"}
	}

	for i := range batch.Players {
		errs = append(errs, validatePlayer(&batch.Players[i], i)...)
	}
	for i := range batch.Sessions {
		errs = append(errs, validateSession(&batch.Sessions[i], i)...)
	}
	for i := range batch.Payments {
		errs = append(errs, validatePayment(&batch.Payments[i], fmt.Sprintf("payments[%d]", i))...)
	}

	return errs
}

func validatePlayer(p *MigrationPlayer, idx int) []string {
	var errs []string
	where := fmt.Sprintf("players[%d]", idx)

	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, where+": name is required")
	} else {
		where = fmt.Sprintf("players[%d] (%s)", idx, p.Name)
	}

	if strings.TrimSpace(p.Phone) == "" {
		if !p.IsTemporary {
			errs = append(errs, where+": phone is required for non-temporary players")
		}
		p.Phone = placeholderPrefix
	}

	if p.JoinedDate != "" && !validDate(p.JoinedDate) {
		errs = append(errs, fmt.Sprintf("%s: joined_date %q is not a valid YYYY-MM-DD date", where, p.JoinedDate))
	}
	if p.SkillTier != "" && !ValidTiers[p.SkillTier] {
		errs = append(errs, fmt.Sprintf("%s: skill_tier %q is not one of beginner/intermediate/advanced/expert", where, p.SkillTier))
	}

	return errs
}

func validateSession(s *MigrationSession, idx int) []string {
	var errs []string
	where := fmt.Sprintf("sessions[%d] (%s)", idx, s.Date)

	if s.Date == "" {
		errs = append(errs, fmt.Sprintf("sessions[%d]: date is required", idx))
	} else if !validDate(s.Date) {
		errs = append(errs, fmt.Sprintf("sessions[%d]: date %q is not a valid YYYY-MM-DD date", idx, s.Date))
	}
	if strings.TrimSpace(s.LocationName) == "" {
		errs = append(errs, where+": location_name is required")
	}
	if s.CourtCost.IsNegative() {
		errs = append(errs, where+": court_cost must not be negative")
	}
	if s.ShuttlecockRate.IsNegative() {
		errs = append(errs, where+": shuttlecock_rate must not be negative")
	}
	if s.ShuttlecocksUsed < 0 {
		errs = append(errs, where+": shuttlecocks_used must not be negative")
	}
	if s.HoursPlayed.IsNegative() {
		errs = append(errs, where+": hours_played must not be negative")
	}

	// A session nobody attended is a structural error, not a warning.
	if len(s.Participants) == 0 {
		errs = append(errs, where+": session has no participants")
	}

	for i := range s.Participants {
		pt := &s.Participants[i]
		pw := fmt.Sprintf("%s participants[%d]", where, i)
		if strings.TrimSpace(pt.PlayerName) == "" {
			errs = append(errs, pw+": player_name is required")
		}
		if strings.TrimSpace(pt.Phone) == "" {
			pt.Phone = placeholderPrefix
		}
		if pt.AmountOwed.IsNegative() {
			errs = append(errs, pw+": amount_owed must not be negative")
		}
	}

	for i := range s.Payments {
		errs = append(errs, validatePayment(&s.Payments[i], fmt.Sprintf("%s payments[%d]", where, i))...)
	}

	return errs
}

func validatePayment(p *MigrationPayment, where string) []string {
	var errs []string

	if strings.TrimSpace(p.PlayerName) == "" {
		errs = append(errs, where+": player_name is required")
	} else {
		where = fmt.Sprintf("%s (%s)", where, p.PlayerName)
	}
	if strings.TrimSpace(p.Phone) == "" {
		p.Phone = placeholderPrefix
	}

	if p.Date == "" {
		errs = append(errs, where+": date is required")
	} else if !validDate(p.Date) {
		errs = append(errs, fmt.Sprintf("%s: date %q is not a valid YYYY-MM-DD date", where, p.Date))
	}

	if !ValidMethods[p.Method] {
		errs = append(errs, fmt.Sprintf("%s: method %q is not a valid payment method", where, p.Method))
	}

	// Financial invariants: never zero; credit transfers are negative,
	// everything else is positive.
	switch {
	case p.Amount.IsZero():
		errs = append(errs, where+": amount must not be zero")
	case p.Method == MethodCreditTransfer && p.Amount.Sign() > 0:
		errs = append(errs, fmt.Sprintf("%s: credit_transfer amount must be negative, got %s", where, p.Amount))
	case p.Method != MethodCreditTransfer && ValidMethods[p.Method] && p.Amount.Sign() < 0:
		errs = append(errs, fmt.Sprintf("%s: %s amount must be positive, got %s", where, p.Method, p.Amount))
	}

	return errs
}

func validDate(s string) bool {
	if !isoDate.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// isPlaceholderPhone reports whether the phone is blank or a placeholder and
// therefore unusable for identity matching.
func isPlaceholderPhone(phone string) bool {
	return strings.TrimSpace(phone) == "" || strings.HasPrefix(phone, placeholderPrefix)
}
