package poller

import "nathanbeddoewebdev/eventwatch/internal/events/domain"

// Op is one of the operations the poller accepts: Reset, Tick or
// MergeBatch. The set is closed; Dispatch handles every member.
type Op interface {
	op()
}

// Reset asks for the next poll one base interval from now, with the backoff
// dropped to its first level. Callers send it after mutating account state.
type Reset struct{}

// Tick polls if the scheduler says a poll is due.
type Tick struct{}

// MergeBatch folds an already fetched batch into the known events, exactly
// as a successful poll would.
type MergeBatch struct {
	Batch *domain.Batch
}

func (Reset) op()      {}
func (Tick) op()       {}
func (MergeBatch) op() {}
