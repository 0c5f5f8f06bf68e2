package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zovida/core/internal/models"
)

// State is the scan session lifecycle phase.
type State string

const (
	StateIdle      State = "idle"
	StateCapturing State = "capturing"
	StateAnalyzing State = "analyzing"
	StateReady     State = "ready"
	StateFailed    State = "failed"
)

// HistorySink receives validated results for persistence. Implemented by the
// history store.
type HistorySink interface {
	Upsert(ctx context.Context, result *models.AnalysisResult) error
}

// Outcome is a successful analysis plus any non-blocking warnings collected
// along the pipeline (coercions, persistence degradation).
type Outcome struct {
	Result   *models.AnalysisResult `json:"result"`
	Warnings []string               `json:"warnings,omitempty"`
}

// Session coordinates capture → analysis-in-flight → result-ready. At most
// one oracle call may be outstanding; a second Submit while analyzing is
// rejected. Reset advances a generation counter so a late result from an
// abandoned call is discarded instead of applied.
type Session struct {
	mu         sync.Mutex
	state      State
	generation uint64
	image      string
	current    *models.AnalysisResult
	failure    string

	oracle  Oracle
	history HistorySink
	log     *zap.Logger
	now     func() time.Time
}

func NewSession(oracle Oracle, history HistorySink, log *zap.Logger, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{
		state:   StateIdle,
		oracle:  oracle,
		history: history,
		log:     log,
		now:     now,
	}
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Capture stores an opaque image payload reference from the capture
// collaborator. Entering capture clears any prior result.
func (s *Session) Capture(image string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateCapturing
	s.image = image
	s.current = nil
	s.failure = ""
}

// CapturedImage returns the stored image reference, if any.
func (s *Session) CapturedImage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image
}

// CurrentResult returns the transient "current" result, or nil.
func (s *Session) CurrentResult() *models.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Failure returns the user-facing error message of the failed state.
func (s *Session) Failure() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Reset returns the session to idle from any state, discarding the transient
// image and current result without touching the history store. Advancing the
// generation counter makes any in-flight analysis stale.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.state = StateIdle
	s.image = ""
	s.current = nil
	s.failure = ""
}

// ClearResult discards the current result and captured image, returning to
// idle. History is untouched.
func (s *Session) ClearResult() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.image = ""
	s.current = nil
}

// SetResult adopts an existing validated result (e.g. re-opened from
// history) as the current one and re-persists it.
func (s *Session) SetResult(ctx context.Context, result *models.AnalysisResult) error {
	s.mu.Lock()
	s.state = StateReady
	s.current = result
	s.failure = ""
	s.mu.Unlock()

	return s.history.Upsert(ctx, result)
}

// Submit drives one analysis end to end: oracle call → extraction →
// validation → ready transition → history upsert. It is the single funnel
// converting every pipeline error into Ready or Failed. A persistence
// failure never blocks the ready transition; it degrades to a warning on the
// outcome.
func (s *Session) Submit(ctx context.Context, systemPrompt, prompt string) (*Outcome, error) {
	s.mu.Lock()
	if s.state == StateAnalyzing {
		s.mu.Unlock()
		return nil, ErrInFlight
	}
	s.state = StateAnalyzing
	s.failure = ""
	s.generation++
	token := s.generation
	s.mu.Unlock()

	raw, err := s.oracle.Ask(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, s.fail(token, fmt.Errorf("%w: %v", ErrOracle, err), MsgUnavailable)
	}

	candidate := ExtractJSON(raw)
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return nil, s.fail(token, fmt.Errorf("%w: %v", ErrExtraction, err), MsgUnintelligible)
	}

	result, warnings, err := Normalize(payload, s.now())
	if err != nil {
		return nil, s.fail(token, err, MsgUnintelligible)
	}

	s.mu.Lock()
	if token != s.generation {
		s.mu.Unlock()
		s.log.Info("discarding stale analysis result", zap.String("id", result.ID))
		return nil, ErrStale
	}
	s.state = StateReady
	s.current = result
	s.mu.Unlock()

	if err := s.history.Upsert(ctx, result); err != nil {
		s.log.Warn("history upsert failed, result kept in memory", zap.Error(err))
		warnings = append(warnings, "result could not be saved to history")
	}

	s.log.Info("analysis ready",
		zap.String("id", result.ID),
		zap.String("risk", string(result.OverallRisk)),
		zap.Int("medicines", len(result.Medicines)),
	)
	return &Outcome{Result: result, Warnings: warnings}, nil
}

// fail moves the session to failed unless the submission went stale.
func (s *Session) fail(token uint64, cause error, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.generation {
		s.log.Info("discarding stale analysis failure", zap.Error(cause))
		return ErrStale
	}
	s.state = StateFailed
	s.failure = message
	s.log.Warn("analysis failed", zap.String("message", message), zap.Error(cause))
	return &Error{Message: message, Err: cause}
}
