package migrate

import "fmt"

// Stats counts the entities a migration run touched, per entity type.
type Stats struct {
	SessionsCreated           int `json:"sessionsCreated"`
	StandalonePlayersCreated  int `json:"standalonePlayersCreated"`
	StandalonePlayersUpdated  int `json:"standalonePlayersUpdated"`
	SessionPlayersCreated     int `json:"sessionPlayersCreated"`
	SessionPlayersUpdated     int `json:"sessionPlayersUpdated"`
	PaymentsCreated           int `json:"paymentsCreated"`
	ParticipantRecordsCreated int `json:"participantRecordsCreated"`
}

// Result is the report for one migration run. Each phase produces its own
// Result and the orchestrator merges them, so no mutable accumulator is
// shared across phases.
type Result struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Stats   Stats    `json:"stats"`
	Errors  []string `json:"errors"`
}

// ValidationRefusal is the result of a batch rejected by structural
// validation before any write.
func ValidationRefusal(errs []string) Result {
	return Result{
		Message: "validation failed; no records were written",
		Errors:  errs,
	}
}

// Add merges another Result into this one. Success and Message are owned by
// the orchestrator and left untouched.
func (r *Result) Add(other Result) {
	r.Stats.SessionsCreated += other.Stats.SessionsCreated
	r.Stats.StandalonePlayersCreated += other.Stats.StandalonePlayersCreated
	r.Stats.StandalonePlayersUpdated += other.Stats.StandalonePlayersUpdated
	r.Stats.SessionPlayersCreated += other.Stats.SessionPlayersCreated
	r.Stats.SessionPlayersUpdated += other.Stats.SessionPlayersUpdated
	r.Stats.PaymentsCreated += other.Stats.PaymentsCreated
	r.Stats.ParticipantRecordsCreated += other.Stats.ParticipantRecordsCreated
	r.Errors = append(r.Errors, other.Errors...)
}

// AddError records an error message.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"sessions=%d standalone_players=%d/%d session_players=%d/%d payments=%d participants=%d errors=%d",
		r.Stats.SessionsCreated,
		r.Stats.StandalonePlayersCreated, r.Stats.StandalonePlayersUpdated,
		r.Stats.SessionPlayersCreated, r.Stats.SessionPlayersUpdated,
		r.Stats.PaymentsCreated, r.Stats.ParticipantRecordsCreated,
		len(r.Errors),
	)
}
