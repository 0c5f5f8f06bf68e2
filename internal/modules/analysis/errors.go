package analysis

import "errors"

// Failure kinds of the analysis pipeline. Callers classify with errors.Is.
var (
	// ErrExtraction means no usable JSON payload could be located in the
	// oracle response.
	ErrExtraction = errors.New("no usable JSON in oracle response")
	// ErrValidation means the candidate object is missing a required field
	// that cannot be safely defaulted.
	ErrValidation = errors.New("oracle response failed validation")
	// ErrOracle means the external AI call itself failed.
	ErrOracle = errors.New("oracle call failed")
	// ErrInFlight means a second analysis was requested while one is
	// outstanding.
	ErrInFlight = errors.New("an analysis is already running")
	// ErrStale means the session was reset while the analysis was in flight;
	// its late result has been discarded.
	ErrStale = errors.New("analysis superseded by session reset")
)

// User-facing failure messages. Every pipeline error funnels into one of
// these two before reaching the user.
const (
	MsgUnintelligible = "could not understand the response"
	MsgUnavailable    = "service unavailable"
)

// Error is the single failure type surfaced by Submit. Message is safe to
// show to the user; the wrapped cause carries the pipeline detail.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }
